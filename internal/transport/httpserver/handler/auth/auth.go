package auth

import (
	"net/http"

	userdomain "cepas/internal/domain/user"
	"cepas/internal/transport/httpserver/handler/common"
	"cepas/internal/transport/httpserver/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Email    *string         `json:"email"`
	Role     userdomain.Role `json:"role"`
	Active   bool            `json:"active"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	ip := middleware.ClientIP(r)
	pair, err := h.Users.Login(r.Context(), req.Username, req.Password, ip)
	if err != nil {
		common.Fail(w, h.log, "auth.login", err, "username", req.Username, "ip", ip)
		return
	}
	common.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	pair, err := h.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		common.Fail(w, h.log, "auth.refresh", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	if err := h.Users.Logout(r.Context(), req.RefreshToken, middleware.ClientIP(r)); err != nil {
		common.Fail(w, h.log, "auth.logout", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.CodeAuth, "invalid token", nil)
		return
	}

	var req userdomain.RegisterInput
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	created, err := h.Users.Register(r.Context(), actor, req, middleware.ClientIP(r))
	if err != nil {
		common.Fail(w, h.log, "auth.register", err, "actor", actor.Username, "username", req.Username)
		return
	}
	common.WriteJSON(w, http.StatusCreated, userResponse{
		ID:       created.ID,
		Username: created.Username,
		Name:     created.Name,
		Email:    created.Email,
		Role:     created.Role,
		Active:   created.Active,
	})
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.CodeAuth, "invalid token", nil)
		return
	}

	var req changePasswordRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, http.StatusBadRequest, common.CodeInvalidJSON, "invalid json body", err)
		return
	}

	if err := h.Users.ChangePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword, middleware.ClientIP(r)); err != nil {
		common.Fail(w, h.log, "auth.change_password", err, "user_id", actor.UserID)
		return
	}
	common.WriteJSON(w, http.StatusOK, messageResponse{Message: "password changed"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.CodeAuth, "invalid token", nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, identity)
}
