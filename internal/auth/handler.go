package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/response"
)

// Handler holds the HTTP handler for admin login.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type loginRequest struct {
	Email    string `json:"email"    example:"admin@gallery.example"`
	Password string `json:"password" example:"hunter2"`
}

type loginResponse struct {
	Success bool   `json:"success"           example:"true"`
	Token   string `json:"token,omitempty"   example:"eyJhbGci..."`
	Message string `json:"message,omitempty" example:"Invalid credentials"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Exchange the configured admin email/password for a bearer token valid for 7 days.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Admin credentials"
//	@Success		200		{object}	loginResponse
//	@Failure		401		{object}	loginResponse
//	@Failure		500		{object}	loginResponse
//	@Router			/admin/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, loginResponse{Success: false, Message: "Invalid request body"})
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, ErrNotConfigured):
		h.log.Error("admin login attempted with incomplete configuration")
		response.JSON(w, http.StatusInternalServerError, loginResponse{Success: false, Message: "Admin auth not configured"})
		return
	case errors.Is(err, ErrInvalidCredentials):
		response.JSON(w, http.StatusUnauthorized, loginResponse{Success: false, Message: "Invalid credentials"})
		return
	case err != nil:
		h.log.Error("admin login failed", zap.Error(err))
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}
