package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutorhub/internal/auth"
	"tutorhub/internal/platform/middleware"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/httputil"
)

// Service is the slice of the auth service the HTTP layer needs.
type Service interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Session, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.Session, error)
	Profile(ctx context.Context, userID string) (*auth.User, error)
}

type Handler struct {
	accounts Service
	logger   *slog.Logger
	auth     func(http.Handler) http.Handler
}

func New(accounts Service, logger *slog.Logger, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{accounts: accounts, logger: logger, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignUp)
		r.Post("/signin", h.handleSignIn)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Get("/profile", h.handleProfile)
		})
	})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	req.UserAgent = r.UserAgent()
	session, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		h.logError(r.Context(), "sign up failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	req.UserAgent = r.UserAgent()
	session, err := h.accounts.SignIn(r.Context(), req)
	if err != nil {
		h.logError(r.Context(), "sign in failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Profile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logError(r.Context(), "profile lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "error", err)
	default:
		h.logger.WarnContext(ctx, msg, "error", err)
	}
}
