package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cfdrill/internal/config"
	"github.com/verte-zerg/cfdrill/internal/judge"
)

var configPathOnly bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create the config file if missing and open it in $VISUAL or $EDITOR",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPathOnly, "path", false, "print the config path without opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	created, err := ensureConfigFile(path)
	if err != nil {
		return err
	}
	if created {
		if err := writeLine(cmd.ErrOrStderr(), "Wrote default contest settings to "+path); err != nil {
			return err
		}
	}
	if configPathOnly {
		return writeLine(cmd.OutOrStdout(), path)
	}

	editor := editorCommand(path)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to open editor %q: %w", editor.Path, err)
	}
	return nil
}

// ensureConfigFile writes the commented template when path does not exist.
func ensureConfigFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}

// editorCommand prefers $VISUAL, then $EDITOR, then vi. Both variables may
// carry arguments ("code --wait").
func editorCommand(path string) *exec.Cmd {
	parts := strings.Fields(os.Getenv("VISUAL"))
	if len(parts) == 0 {
		parts = strings.Fields(os.Getenv("EDITOR"))
	}
	if len(parts) == 0 {
		parts = []string{"vi"}
	}
	return exec.Command(parts[0], append(parts[1:], path)...)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cfdrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[judge]
# base-url = %q   # Judge API host
# timeout = 60                          # Request timeout in seconds
# retries = 2                           # Retries after a transport failure
# backoff-ms = 500                      # Base retry delay; attempt n waits n times this

[contest]
# duration = %d           # Contest length in minutes
# problems = %d             # Number of problems (1-26)
# type = %q         # general, topic or mixed
# difficulty = %q   # general, easy, medium, hard or veryhard
# tags = ["dp", "greedy"] # Tags for topic/mixed contests

[log]
# level = "info"          # debug, info, warn or error
`,
		judge.DefaultBaseURL,
		defaultDuration,
		defaultProblems,
		defaultType,
		defaultDifficulty,
	)
}
