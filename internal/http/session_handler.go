package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/builder"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/slots"
)

type builderService interface {
	OpenSession(ctx context.Context, campaignID string) (application.SessionView, error)
	WithSession(ctx context.Context, id string, fn func(*application.Session) error) (application.SessionView, error)
	Submit(ctx context.Context, id string) (application.SessionView, error)
	CloseSession(ctx context.Context, id string) error
}

type SessionHandler struct {
	service   builderService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service builderService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

// Open starts a builder session for the campaign in the request path.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campaignID, ok := CampaignIDFromContext(r.Context())
	if !ok || strings.TrimSpace(campaignID) == "" {
		h.log(r.Context(), "Open", "error_kind", "bad_request").ErrorContext(r.Context(), "missing campaign id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCampaignID)
		return
	}

	view, err := h.service.OpenSession(r.Context(), campaignID)
	if err != nil {
		h.log(r.Context(), "Open", "campaign_id", campaignID).ErrorContext(r.Context(), "session open failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: view})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Get", nil)
}

func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sessionID, ok := h.sessionID(w, r, "Close")
	if !ok {
		return
	}
	if err := h.service.CloseSession(r.Context(), sessionID); err != nil {
		h.log(r.Context(), "Close", "session_id", sessionID).InfoContext(r.Context(), "session close failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ClickDay applies one calendar click. Body: {"date":"yyyy-MM-dd"}.
func (h *SessionHandler) ClickDay(w http.ResponseWriter, r *http.Request) {
	var req dayRequest
	if !h.decode(w, r, "ClickDay", &req) {
		return
	}
	day, err := calendar.ParseDay(strings.TrimSpace(req.Date))
	if err != nil {
		h.log(r.Context(), "ClickDay", "error_kind", "bad_request").InfoContext(r.Context(), "invalid date", "date", req.Date, "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	h.act(w, r, "ClickDay", func(s *application.Session) error {
		return s.Controller().ClickDay(day)
	})
}

func (h *SessionHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "SelectAll", func(s *application.Session) error {
		return s.Controller().SelectAll()
	})
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Clear", func(s *application.Session) error {
		s.Controller().Clear()
		return nil
	})
}

// ShiftMonth moves the displayed month. Body: {"delta":1}.
func (h *SessionHandler) ShiftMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if !h.decode(w, r, "ShiftMonth", &req) {
		return
	}
	h.act(w, r, "ShiftMonth", func(s *application.Session) error {
		s.Controller().ShiftMonth(req.Delta)
		return nil
	})
}

// SetOptions updates the slot toggles. Omitted fields keep their value; the
// update is applied only when every given field is valid.
func (h *SessionHandler) SetOptions(w http.ResponseWriter, r *http.Request) {
	var req optionsRequest
	if !h.decode(w, r, "SetOptions", &req) {
		return
	}
	h.act(w, r, "SetOptions", func(s *application.Session) error {
		opts, err := req.apply(s.Controller().Options())
		if err != nil {
			return err
		}
		return s.Controller().SetOptions(opts)
	})
}

func (h *SessionHandler) ToggleSlot(w http.ResponseWriter, r *http.Request, slotID string) {
	h.act(w, r, "ToggleSlot", func(s *application.Session) error {
		return s.Controller().ToggleSlot(slotID)
	})
}

// SaveRule turns the current selection into a rule.
func (h *SessionHandler) SaveRule(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "SaveRule", func(s *application.Session) error {
		_, err := s.Controller().Save()
		return err
	})
}

// RemoveRule deletes a rule by list index. Unknown indexes leave the list as is.
func (h *SessionHandler) RemoveRule(w http.ResponseWriter, r *http.Request, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		h.log(r.Context(), "RemoveRule", "error_kind", "bad_request").InfoContext(r.Context(), "invalid rule index", "index", rawIndex)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleIndex)
		return
	}
	h.act(w, r, "RemoveRule", func(s *application.Session) error {
		s.Controller().RemoveRule(index)
		return nil
	})
}

// Submit writes the session's rules to storage.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sessionID, ok := h.sessionID(w, r, "Submit")
	if !ok {
		return
	}
	view, err := h.service.Submit(r.Context(), sessionID)
	h.writeView(r.Context(), w, view, err)
}

// act runs fn against the session in the request path and renders the view.
func (h *SessionHandler) act(w http.ResponseWriter, r *http.Request, operation string, fn func(*application.Session) error) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sessionID, ok := h.sessionID(w, r, operation)
	if !ok {
		return
	}
	view, err := h.service.WithSession(r.Context(), sessionID, fn)
	if err != nil {
		h.log(r.Context(), operation, "session_id", sessionID).InfoContext(r.Context(), "builder action rejected", "error", err, "error_kind", application.ErrorKind(err))
	}
	h.writeView(r.Context(), w, view, err)
}

// writeView renders the session view. Rejected actions keep the view in the
// body next to the error; a missing session has no view to render.
func (h *SessionHandler) writeView(ctx context.Context, w http.ResponseWriter, view application.SessionView, err error) {
	if err == nil {
		h.responder.writeJSON(ctx, w, http.StatusOK, sessionResponse{Session: view})
		return
	}
	if errors.Is(err, application.ErrSessionNotFound) || view.ID == "" {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	status, body := describeError(err)
	h.responder.writeJSON(ctx, w, status, sessionResponse{Session: view, Error: &body})
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return "", false
	}
	return sessionID, true
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

type dayRequest struct {
	Date string `json:"date"`
}

type monthRequest struct {
	Delta int `json:"delta"`
}

type optionsRequest struct {
	AllDay           *bool    `json:"allDay"`
	IntervalsEnabled *bool    `json:"intervalsEnabled"`
	IntervalHours    *float64 `json:"intervalHours"`
	StartTime        *string  `json:"startTime"`
	EndTime          *string  `json:"endTime"`
}

func (r optionsRequest) apply(opts builder.Options) (builder.Options, error) {
	if r.AllDay != nil {
		opts.AllDay = *r.AllDay
	}
	if r.IntervalsEnabled != nil {
		opts.IntervalsEnabled = *r.IntervalsEnabled
	}
	if r.IntervalHours != nil {
		iv, err := slots.IntervalFromHours(*r.IntervalHours)
		if err != nil {
			return builder.Options{}, err
		}
		opts.Interval = iv
	}
	if r.StartTime != nil {
		t, err := slots.ParseTimeOfDay(strings.TrimSpace(*r.StartTime))
		if err != nil {
			return builder.Options{}, err
		}
		opts.Start = t
	}
	if r.EndTime != nil {
		t, err := slots.ParseTimeOfDay(strings.TrimSpace(*r.EndTime))
		if err != nil {
			return builder.Options{}, err
		}
		opts.End = t
	}
	return opts, nil
}

type sessionResponse struct {
	Session application.SessionView `json:"session"`
	Error   *errorResponse          `json:"error,omitempty"`
}
