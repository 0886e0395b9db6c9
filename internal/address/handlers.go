package address

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/common"
)

// Handler exposes the /api/addresses endpoints. All routes sit behind
// auth.Middleware.RequireAuth.
type Handler struct {
	Service    *Service
	Production bool
	Logger     zerolog.Logger
}

// List handles GET /api/addresses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	addresses, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, addresses)
}

// Get handles GET /api/addresses/{addressID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	address, err := h.Service.Get(r.Context(), userID, chi.URLParam(r, "addressID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, address)
}

// Create handles POST /api/addresses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	var req Input
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	address, err := h.Service.Create(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, address)
}

// Update handles PUT /api/addresses/{addressID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	var req Input
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	address, err := h.Service.Update(r.Context(), userID, chi.URLParam(r, "addressID"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, address)
}

// Delete handles DELETE /api/addresses/{addressID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	if err := h.Service.Delete(r.Context(), userID, chi.URLParam(r, "addressID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Address deleted"})
}

// Routes mounts the handlers on r. createMiddleware wraps only the create
// route.
func (h *Handler) Routes(r chi.Router, createMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.With(createMiddleware...).Post("/", h.Create)
	r.Route("/{addressID}", func(child chi.Router) {
		child.Get("/", h.Get)
		child.Put("/", h.Update)
		child.Delete("/", h.Delete)
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("address request failed")
	}
	common.WriteError(w, err, h.Production)
}
