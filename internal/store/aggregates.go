package store

import (
	"context"

	"github.com/verte-zerg/cfdrill/internal/model"
)

// Logical keys of the persisted aggregates.
const (
	KeySession  = "contest_state"
	KeySettings = "user_settings"
	KeyHistory  = "contest_history"
	KeyBanList  = "banned_problems"
)

// Settings returns the stored settings merged over the defaults.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()
	if _, err := s.Read(ctx, KeySettings, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// HasSettings reports whether settings were ever written.
func (s *Store) HasSettings(ctx context.Context) (bool, error) {
	return s.Has(ctx, KeySettings)
}

// SaveSettings replaces the stored settings.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	return s.Write(ctx, KeySettings, settings)
}

// BanList returns the stored ban list, empty when absent.
func (s *Store) BanList(ctx context.Context) (model.BanList, error) {
	var ban model.BanList
	if _, err := s.Read(ctx, KeyBanList, &ban); err != nil {
		return nil, err
	}
	return ban, nil
}

// SaveBanList replaces the stored ban list.
func (s *Store) SaveBanList(ctx context.Context, ban model.BanList) error {
	if ban == nil {
		ban = model.BanList{}
	}
	return s.Write(ctx, KeyBanList, ban)
}

// History returns archived sessions, most recent first.
func (s *Store) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var history []model.HistoryEntry
	if _, err := s.Read(ctx, KeyHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	return history, nil
}

// SaveHistory replaces the stored history list.
func (s *Store) SaveHistory(ctx context.Context, history []model.HistoryEntry) error {
	if history == nil {
		history = []model.HistoryEntry{}
	}
	return s.Write(ctx, KeyHistory, history)
}

// Session returns the current session, or nil when none is stored.
func (s *Store) Session(ctx context.Context) (*model.ContestSession, error) {
	var session *model.ContestSession
	if _, err := s.Read(ctx, KeySession, &session); err != nil {
		return nil, err
	}
	return session, nil
}

// SaveSession replaces the current session.
func (s *Store) SaveSession(ctx context.Context, session *model.ContestSession) error {
	if session == nil {
		return s.ClearSession(ctx)
	}
	return s.Write(ctx, KeySession, session)
}

// ClearSession removes the current session.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeySession)
}
