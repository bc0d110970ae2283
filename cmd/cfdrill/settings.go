package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cfdrill/internal/model"
)

var (
	settingsHandle       string
	settingsPollInterval int
	settingsAdaptive     bool
	settingsNoDuplicate  bool
	settingsFormat       string
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update stored settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsCmd,
	}
	cmd.Flags().StringVar(&settingsHandle, "handle", "", "judge handle")
	cmd.Flags().IntVar(&settingsPollInterval, "poll-interval", 60, "submission poll interval in seconds (min 30)")
	cmd.Flags().BoolVar(&settingsAdaptive, "adaptive", true, "adaptive difficulty preference")
	cmd.Flags().BoolVar(&settingsNoDuplicate, "no-duplicate", true, "never repeat problems from earlier contests")
	cmd.Flags().StringVar(&settingsFormat, "format", formatYAML, "output format: json or yaml")
	return cmd
}

func runSettingsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	patch := settingsPatchFromFlags(cmd)
	var settings model.Settings
	if patch == (model.SettingsPatch{}) {
		snap, err := a.engine.State(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		settings = snap.Settings
	} else {
		settings, err = a.engine.SaveSettings(cmd.Context(), patch)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}
	return writeStructured(cmd.OutOrStdout(), settingsFormat, settings)
}

// settingsPatchFromFlags sends only the flags the user set.
func settingsPatchFromFlags(cmd *cobra.Command) model.SettingsPatch {
	var patch model.SettingsPatch
	if cmd.Flags().Changed("handle") {
		handle := settingsHandle
		patch.Handle = &handle
	}
	if cmd.Flags().Changed("poll-interval") {
		interval := settingsPollInterval
		patch.PollIntervalSec = &interval
	}
	if cmd.Flags().Changed("adaptive") {
		adaptive := settingsAdaptive
		patch.AdaptiveDifficulty = &adaptive
	}
	if cmd.Flags().Changed("no-duplicate") {
		noDup := settingsNoDuplicate
		patch.NoDuplicateAcrossContests = &noDup
	}
	return patch
}
