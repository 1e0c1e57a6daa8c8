package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutorhub/internal/platform/middleware"
	"tutorhub/internal/quiz"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/httputil"
)

// Service is the slice of the quiz service the HTTP layer needs.
type Service interface {
	Generate(ctx context.Context, req quiz.GenerateRequest, userID string) (*quiz.Quiz, error)
	Submit(ctx context.Context, req quiz.SubmitRequest, userID, userName string) (*quiz.Attempt, error)
	Attempts(ctx context.Context, userID string) ([]*quiz.Attempt, error)
	Leaderboard(ctx context.Context) ([]*quiz.LeaderboardEntry, error)
}

type Handler struct {
	quizzes Service
	logger  *slog.Logger
	auth    func(http.Handler) http.Handler
}

func New(quizzes Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{quizzes: quizzes, logger: logger, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/quizzes", func(r chi.Router) {
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/generate", h.handleGenerate)
			r.Post("/attempts", h.handleSubmit)
			r.Get("/attempts", h.handleAttempts)
		})
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req quiz.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	q, err := h.quizzes.Generate(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		h.logError(r.Context(), "quiz generation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, q)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req quiz.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	ctx := r.Context()
	attempt, err := h.quizzes.Submit(ctx, req, middleware.GetUserID(ctx), middleware.GetUserName(ctx))
	if err != nil {
		h.logError(ctx, "quiz submission failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, attempt)
}

func (h *Handler) handleAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.Attempts(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logError(r.Context(), "attempt listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteList(w, http.StatusOK, attempts, len(attempts))
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.quizzes.Leaderboard(r.Context())
	if err != nil {
		h.logError(r.Context(), "leaderboard failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteList(w, http.StatusOK, entries, len(entries))
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "error", err)
	default:
		h.logger.WarnContext(ctx, msg, "error", err)
	}
}
