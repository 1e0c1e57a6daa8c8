package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutorhub/internal/doubt"
	"tutorhub/internal/notify"
	"tutorhub/internal/platform/middleware"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/httputil"
)

// Service defines the doubt operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, req doubt.CreateRequest, studentID, studentName string) (*doubt.Doubt, error)
	List(ctx context.Context, filter doubt.Filter) ([]*doubt.Doubt, error)
	Claim(ctx context.Context, doubtID, tutorID, tutorName string) (*doubt.Doubt, error)
	Resolve(ctx context.Context, doubtID, callerID string, rating *int) (*doubt.Doubt, error)
	RecordResponse(ctx context.Context, doubtID string) error
	Subscribe(fn func()) notify.Subscription
}

// EventsPath is the change feed route. The router exempts it from the
// request timeout.
const EventsPath = "/api/doubts/events"

// Handler exposes the doubt registry over HTTP.
type Handler struct {
	doubts Service
	logger *slog.Logger
	auth   func(http.Handler) http.Handler
}

func New(doubts Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{doubts: doubts, logger: logger, auth: auth}
}

// Register mounts the doubt routes. Listing is public; every mutation and
// the event stream require an authenticated principal.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/doubts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/", h.handleCreate)
			r.Post("/{doubtID}/take", h.handleTake)
			r.Post("/{doubtID}/resolve", h.handleResolve)
			r.Post("/{doubtID}/respond", h.handleRespond)
			r.Get("/events", h.handleEvents)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := doubt.Filter{
		Search:     query.Get("search"),
		Subject:    query.Get("subject"),
		Difficulty: query.Get("difficulty"),
		Status:     query.Get("status"),
	}

	doubts, err := h.doubts.List(r.Context(), filter)
	if err != nil {
		h.logError(r, "failed to list doubts", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteList(w, http.StatusOK, doubts, len(doubts))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req doubt.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	created, err := h.doubts.Create(ctx, req, middleware.GetUserID(ctx), middleware.GetUserName(ctx))
	if err != nil {
		h.logError(r, "failed to create doubt", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleTake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doubtID := chi.URLParam(r, "doubtID")

	claimed, err := h.doubts.Claim(ctx, doubtID, middleware.GetUserID(ctx), middleware.GetUserName(ctx))
	if err != nil {
		h.logError(r, "failed to claim doubt", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claimed)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doubtID := chi.URLParam(r, "doubtID")

	var req struct {
		Rating *int `json:"rating"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
			return
		}
	}

	resolved, err := h.doubts.Resolve(ctx, doubtID, middleware.GetUserID(ctx), req.Rating)
	if err != nil {
		h.logError(r, "failed to resolve doubt", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	if err := h.doubts.RecordResponse(r.Context(), chi.URLParam(r, "doubtID")); err != nil {
		h.logError(r, "failed to record response", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams change notices as server-sent events. The payload
// only says "changed"; clients re-fetch the listing, keeping the store the
// single source of truth.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	// ResponseController reaches the flusher through middleware wrappers via
	// Unwrap, so the stream works behind the logging writer.
	rc := http.NewResponseController(w)

	// Coalescing channel: a burst of mutations folds into one pending notice.
	changed := make(chan struct{}, 1)
	sub := h.doubts.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logError(r, "streaming unsupported", dErrors.Wrap(err, dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			fmt.Fprint(w, "event: change\ndata: doubts\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) logError(r *http.Request, message string, err error) {
	code := dErrors.CodeOf(err)
	logFn := h.logger.WarnContext
	if code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		logFn = h.logger.ErrorContext
	}
	logFn(r.Context(), message,
		"error", err,
		"code", code,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
