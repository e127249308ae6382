package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/auth"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/middleware"
)

// AuthHandler serves the token related endpoints of the current user
type AuthHandler struct {
	BaseHandler
	revocations *auth.RevocationList
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(revocations *auth.RevocationList) *AuthHandler {
	return &AuthHandler{revocations: revocations}
}

// LogoutResponse is returned after the token was revoked
type LogoutResponse struct {
	Message string `json:"message"`
}

// Authorities returns the roles of the current user.
// GET /api/v1/user/authorities
func (h *AuthHandler) Authorities(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	h.Success(c, roles)
}

// Logout revokes the presented token until it expires.
// POST /api/v1/user/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.GetRemainingTTL()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}
