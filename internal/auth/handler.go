// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pardisweb/darban/internal/config"
	"github.com/pardisweb/darban/internal/core"
	"github.com/pardisweb/darban/internal/middleware"
)

type Handler struct {
	service      *Service
	validator    *validator.Validate
	respond      *core.Responder
	session      config.SessionConfig
	isProduction bool
	logger       *slog.Logger
}

func NewHandler(
	service *Service,
	respond *core.Responder,
	session config.SessionConfig,
	isProduction bool,
	logger *slog.Logger,
) (*Handler, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := core.RegisterValidations(v); err != nil {
		return nil, err
	}

	return &Handler{
		service:      service,
		validator:    v,
		respond:      respond,
		session:      session,
		isProduction: isProduction,
		logger:       logger,
	}, nil
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, signInLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(signInLimiter).Post("/signin", h.SignIn)
		r.Post("/signup", h.SignUp)
		r.Post("/signout", h.SignOut)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/verify-email/confirm", h.ConfirmEmailVerification)
		r.Post("/verify-phone/confirm", h.ConfirmPhoneVerification)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/change-password", h.ChangePassword)
			r.Post("/verify-email", h.SendEmailVerification)
			r.Post("/verify-phone", h.SendPhoneVerification)
		})
	})
}

// SignIn validates the payload before touching the store, then defers to the
// service for the timing-safe credential check. Success sets the session
// cookie alongside the token in the body.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	subject, token, err := h.service.SignIn(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.respond.JSON(w, http.StatusOK, newSessionResponse(subject, token))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	subject, token, err := h.service.SignUp(r.Context(), NewSubject{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}, req.Password)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.respond.JSON(w, http.StatusCreated, newSessionResponse(subject, token))
}

// SignOut clears the session cookie. It is idempotent and does not require
// an authenticated caller.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	h.respond.JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// ForgotPassword responds identically whether or not the phone is
// registered. The minted token goes out of band; here that boundary is the
// debug log.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Phone)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	if token != "" {
		h.logger.Debug("password reset token minted", "phone", req.Phone)
	}

	h.respond.JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// ChangePassword rotates the credential and returns a fresh token, since the
// change invalidates every previously issued session.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	subjectID := middleware.GetSubjectID(r.Context())
	if subjectID == "" {
		h.respond.Error(w, core.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	token, err := h.service.ChangePassword(
		r.Context(),
		subjectID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.respond.OK(w, TokenIssuedResponse{Token: token})
}

func (h *Handler) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	h.sendVerification(w, r, h.service.SendEmailVerification, "email")
}

func (h *Handler) SendPhoneVerification(w http.ResponseWriter, r *http.Request) {
	h.sendVerification(w, r, h.service.SendPhoneVerification, "phone")
}

func (h *Handler) ConfirmEmailVerification(
	w http.ResponseWriter,
	r *http.Request,
) {
	h.confirmVerification(w, r, h.service.ConfirmEmailVerification)
}

func (h *Handler) ConfirmPhoneVerification(
	w http.ResponseWriter,
	r *http.Request,
) {
	h.confirmVerification(w, r, h.service.ConfirmPhoneVerification)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	subjectID := middleware.GetSubjectID(r.Context())
	if subjectID == "" {
		h.respond.Error(w, core.ErrUnauthorized)
		return
	}

	subject, err := h.service.GetCurrentSubject(r.Context(), subjectID)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.OK(w, toSubjectResponse(subject))
}

func (h *Handler) sendVerification(
	w http.ResponseWriter,
	r *http.Request,
	mint func(ctx context.Context, subjectID string) (string, error),
	kind string,
) {
	subjectID := middleware.GetSubjectID(r.Context())
	if subjectID == "" {
		h.respond.Error(w, core.ErrUnauthorized)
		return
	}

	if _, err := mint(r.Context(), subjectID); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.logger.Debug("verification token minted",
		"kind", kind,
		"subject_id", subjectID,
	)

	h.respond.JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

func (h *Handler) confirmVerification(
	w http.ResponseWriter,
	r *http.Request,
	confirm func(ctx context.Context, token string) error,
) {
	var req ConfirmVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	if err := confirm(r.Context(), req.Token); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.session.CookieExpire),
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteStrictMode,
	})
}
