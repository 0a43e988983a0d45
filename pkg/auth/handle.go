package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/hirewire/identity/pkg/account"
	"github.com/hirewire/identity/pkg/interests"
	"github.com/hirewire/identity/pkg/otp"
	"github.com/hirewire/identity/pkg/ratelimit"
	"github.com/hirewire/identity/pkg/token"
)

// Handle exposes the credential workflows over HTTP. Handlers are I/O
// wrappers only; all decisions live in the services.
type Handle struct {
	auth       *Service
	interests  *interests.Service
	middleware *Middleware
	limiter    *ratelimit.Limiter
	trustProxy bool
}

// HandleOption is a function that configures a Handle
type HandleOption func(*Handle)

// WithRateLimiter throttles the credential endpoints per client IP
func WithRateLimiter(limiter *ratelimit.Limiter) HandleOption {
	return func(h *Handle) {
		h.limiter = limiter
	}
}

// WithTrustedProxy keys the throttle on X-Forwarded-For instead of the
// remote address. Only set this behind a proxy that overwrites the header.
func WithTrustedProxy() HandleOption {
	return func(h *Handle) {
		h.trustProxy = true
	}
}

// NewHandle creates a new HTTP handle
func NewHandle(auth *Service, interestsService *interests.Service, middleware *Middleware, opts ...HandleOption) *Handle {
	h := &Handle{
		auth:       auth,
		interests:  interestsService,
		middleware: middleware,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Routes mounts all credential and interests routes on a new router
func (h *Handle) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(ratelimit.PerIP(h.limiter, h.trustProxy))
		}
		r.Post("/register", h.Register)
		r.Post("/activate", h.Activate)
		r.Post("/login", h.Login)
		r.Post("/otp/verify", h.VerifyOtp)
		r.Post("/otp/resend", h.ResendOtp)
		r.Post("/password-reset/init", h.RequestPasswordReset)
		r.Post("/password-reset", h.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.middleware.Verifier)
		r.Get("/interests", h.ListInterests)
		r.Put("/interests", h.SaveInterests)
	})

	return r
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Account account.Summary `json:"account"`
	Message string          `json:"message"`
}

// Register creates a new account and triggers the activation email
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var params RegisterParams
	if err := copier.Copy(&params, &req); err != nil {
		slog.Error("Failed to map register request", "err", err)
		renderError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	params.Role = account.Role(req.Role)

	acct, err := h.auth.Register(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, registerResponse{
		Account: account.Summarize(acct),
		Message: "registered; check your email for the activation link",
	})
}

type activateRequest struct {
	Token string `json:"token"`
}

// Activate marks the account in the activation token as verified
func (h *Handle) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.Activate(r.Context(), req.Token); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "account activated"})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login checks credentials and emails a one-time code. Unknown identifiers
// and wrong passwords produce the same response so the endpoint does not
// reveal which accounts exist.
func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) || errors.Is(err, ErrInvalidPassword) {
			renderError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "one-time code sent"})
}

type verifyOtpRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type verifyOtpResponse struct {
	Token        string          `json:"token"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	Account      account.Summary `json:"account"`
	HasInterests bool            `json:"hasInterests"`
}

// VerifyOtp checks the one-time code and returns the session token
func (h *Handle) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.VerifyOtp(r.Context(), req.Identifier, req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, verifyOtpResponse{
		Token:        result.Token,
		ExpiresAt:    result.ExpiresAt,
		Account:      result.Account,
		HasInterests: result.HasInterests,
	})
}

type identifierRequest struct {
	Identifier string `json:"identifier"`
}

// ResendOtp issues and emails a fresh one-time code
func (h *Handle) ResendOtp(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.ResendOtp(r.Context(), req.Identifier); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "one-time code sent"})
}

// RequestPasswordReset issues a reset token and emails the reset link
func (h *Handle) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Identifier); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "password reset email sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword replaces the password using a single-use reset token
func (h *Handle) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "password updated"})
}

type saveInterestsRequest struct {
	Selections []interests.Selection `json:"selections"`
}

// ListInterests returns the taxonomy with the caller's selections flagged
func (h *Handle) ListInterests(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	categories, err := h.interests.ListTaxonomy(r.Context(), user.AccountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, categories)
}

// SaveInterests replaces the caller's interest selections
func (h *Handle) SaveInterests(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req saveInterestsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.interests.SaveSelections(r.Context(), user.AccountID, req.Selections); err != nil {
		if errors.Is(err, interests.ErrEmptySelections) {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: "interests saved"})
}

// respondError maps service errors onto HTTP statuses
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrDuplicateIdentifier):
		renderError(w, r, http.StatusConflict, "email or phone already registered")
	case errors.Is(err, account.ErrNotFound):
		renderError(w, r, http.StatusNotFound, "account not found")
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, otp.ErrNotFound),
		errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrMismatch),
		errors.Is(err, token.ErrInvalidOrExpiredToken):
		renderError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotActivated):
		renderError(w, r, http.StatusForbidden, "account not activated")
	default:
		slog.Error("Unhandled service error", "err", err)
		renderError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, messageResponse{Message: message})
}
