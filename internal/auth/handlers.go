package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/common"
)

// Handler exposes the /api/auth endpoints.
type Handler struct {
	Service    *Service
	Production bool
	Logger     zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.Service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, session)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, session)
}

// Refresh handles POST /api/auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	access, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.asUser(w, r, func(userID string) {
		if err := h.Service.Logout(r.Context(), userID); err != nil {
			h.writeError(w, r, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.asUser(w, r, func(userID string) {
		profile, err := h.Service.Me(r.Context(), userID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		common.JSON(w, http.StatusOK, profile)
	})
}

// asUser runs fn with the authenticated user id, or answers 401 when
// RequireAuth did not run.
func (h *Handler) asUser(w http.ResponseWriter, r *http.Request, fn func(userID string)) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
		return
	}
	fn(userID)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("auth request failed")
	}
	common.WriteError(w, err, h.Production)
}
