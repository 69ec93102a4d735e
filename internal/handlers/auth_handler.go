package handlers

import (
	"net/http"

	"github.com/evalytics-ai/assessment-service/internal/middleware"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	BaseHandler
	auth   services.AuthService
	secure bool
}

func NewAuthHandler(auth services.AuthService, secureCookies bool, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		secure:      secureCookies,
	}
}

// Register handles POST /api/v1/auth/signup
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token)
	h.RespondWithSuccess(c, http.StatusCreated, "registered", resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token)
	h.RespondWithSuccess(c, http.StatusOK, "logged in", resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secure, true)
	h.RespondWithSuccess(c, http.StatusOK, "logged out", nil)
}

// Profile handles GET /api/v1/auth/me
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.auth.GetProfile(c.Request.Context(), h.CurrentUserID(c))
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "profile", user)
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.TokenCookie, token, int(services.TokenTTL.Seconds()), "/", "", h.secure, true)
}
