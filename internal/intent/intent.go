// Package intent maps request messages onto engine operations. Every
// outcome, including failures and panics, is returned as a Response.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/verte-zerg/cfdrill/internal/engine"
	"github.com/verte-zerg/cfdrill/internal/model"
)

// Message types.
const (
	GetState        = "get_state"
	StartContest    = "start_contest"
	EndContestForce = "end_contest_force"
	SaveSettings    = "save_settings"
	GetHistory      = "get_history"
	ClearHistory    = "clear_history"
)

// ErrUnknownMessage is reported for unrecognized message types.
var ErrUnknownMessage = errors.New("unknown message")

// Engine is the set of engine operations reachable through intents.
type Engine interface {
	State(ctx context.Context) (engine.Snapshot, error)
	Start(ctx context.Context, req model.ContestRequest) (*model.ContestSession, error)
	ForceEnd(ctx context.Context) error
	SaveSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
	History(ctx context.Context) ([]model.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// Request is one inbound message.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply to a Request.
type Response struct {
	OK       bool                  `json:"ok"`
	Error    string                `json:"error,omitempty"`
	State    *model.ContestSession `json:"state,omitempty"`
	Settings *model.Settings       `json:"settings,omitempty"`
	History  []model.HistoryEntry  `json:"history,omitempty"`
}

// Handler dispatches requests to the engine.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler returns a Handler.
func NewHandler(eng Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// Handle runs one request.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("intent_panic", "type", req.Type, "panic", fmt.Sprint(r))
			resp = failure(fmt.Errorf("internal error: %v", r))
		}
	}()

	switch req.Type {
	case GetState:
		snap, err := h.engine.State(ctx)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, State: snap.Session, Settings: &snap.Settings}
	case StartContest:
		var start model.ContestRequest
		if err := decodePayload(req.Payload, &start); err != nil {
			return failure(err)
		}
		session, err := h.engine.Start(ctx, start)
		if err != nil {
			h.logger.Warn("start_contest_failed", "error", err)
			return failure(err)
		}
		return Response{OK: true, State: session}
	case EndContestForce:
		if err := h.engine.ForceEnd(ctx); err != nil {
			return failure(err)
		}
		return Response{OK: true}
	case SaveSettings:
		var patch model.SettingsPatch
		if err := decodePayload(req.Payload, &patch); err != nil {
			return failure(err)
		}
		settings, err := h.engine.SaveSettings(ctx, patch)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Settings: &settings}
	case GetHistory:
		history, err := h.engine.History(ctx)
		if err != nil {
			return failure(err)
		}
		if history == nil {
			history = []model.HistoryEntry{}
		}
		return Response{OK: true, History: history}
	case ClearHistory:
		if err := h.engine.ClearHistory(ctx); err != nil {
			return failure(err)
		}
		return Response{OK: true}
	default:
		return failure(ErrUnknownMessage)
	}
}

// Serve reads newline-delimited or concatenated JSON requests from r and
// writes one JSON response per request to w, until r is exhausted.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// The stream is unusable past a syntax error.
			if encErr := enc.Encode(failure(fmt.Errorf("decode request: %w", err))); encErr != nil {
				return encErr
			}
			return nil
		}
		if err := enc.Encode(h.Handle(ctx, req)); err != nil {
			return err
		}
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
