package handler

import (
	"github.com/gin-gonic/gin"
	iamapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/iam"
	notificationapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/notification"
)

// UserHandler serves identity provider lookups
type UserHandler struct {
	BaseHandler
	users *iamapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *iamapp.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns a window of users.
// GET /api/v1/users?first&max
func (h *UserHandler) List(c *gin.Context) {
	var req iamapp.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	users, err := h.users.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Get returns a user by id.
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// GetByEmail returns the user with an e-mail address.
// GET /api/v1/users/email/:email
func (h *UserHandler) GetByEmail(c *gin.Context) {
	user, err := h.users.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ByAuthority returns the users holding one or more comma separated roles.
// GET /api/v1/users/authority/:authority?all=true
func (h *UserHandler) ByAuthority(c *gin.Context) {
	var req iamapp.AuthorityRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	users, err := h.users.ByAuthority(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Account returns the authenticated user.
// GET /api/v1/account
func (h *UserHandler) Account(c *gin.Context) {
	user, err := h.users.Account(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// NotificationSettingsHandler serves /api/v1/email-notification-settings
type NotificationSettingsHandler struct {
	BaseHandler
	settings *notificationapp.SettingsService
}

// NewNotificationSettingsHandler creates a new NotificationSettingsHandler
func NewNotificationSettingsHandler(settings *notificationapp.SettingsService) *NotificationSettingsHandler {
	return &NotificationSettingsHandler{settings: settings}
}

func (h *NotificationSettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

func (h *NotificationSettingsHandler) Update(c *gin.Context) {
	var req notificationapp.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
