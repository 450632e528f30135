// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pardisweb/darban/internal/core"
	"github.com/pardisweb/darban/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	respond   *core.Responder
}

func NewHandler(service *Service, respond *core.Responder) (*Handler, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := core.RegisterValidations(v); err != nil {
		return nil, err
	}

	return &Handler{
		service:   service,
		validator: v,
		respond:   respond,
	}, nil
}

// RegisterRoutes mirrors the access matrix of the user collection: listing
// and creation are admin-only; a single record is readable by admins, its
// owner, or anyone under a filtered projection; updates by admins and the
// owner; deletion by admins alone.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	adminOnly := middleware.RequireAccess(
		h.respond,
		"userID",
		middleware.AccessAdmin,
	)

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.With(adminOnly).Get("/", h.ListUsers)
		r.With(adminOnly).Post("/", h.CreateUser)

		r.Route("/{userID}", func(r chi.Router) {
			r.With(middleware.RequireAccess(
				h.respond,
				"userID",
				middleware.AccessAdmin,
				middleware.AccessSelf,
				middleware.AccessFilteredSelf,
			)).Get("/", h.GetUser)

			r.With(middleware.RequireAccess(
				h.respond,
				"userID",
				middleware.AccessAdmin,
				middleware.AccessSelf,
			)).Patch("/", h.UpdateUser)

			r.With(adminOnly).Delete("/", h.DeleteUser)
		})
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	params.Normalize()
	h.respond.OK(w, ListUsersResponse{
		Users:    ToUserResponseList(users),
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.Created(w, ToUserResponse(user, false))
}

// GetUser honors the restricted projection set by the authorization guard:
// callers admitted via filteredSelf never see the phone number.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	filtered := middleware.IsFilteredProjection(r.Context())
	h.respond.OK(w, ToUserResponse(user, filtered))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, core.ErrInvalidInput)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respond.Invalid(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.OK(w, ToUserResponse(user, false))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respond.Error(w, err)
		return
	}

	h.respond.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
