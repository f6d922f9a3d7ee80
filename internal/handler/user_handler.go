package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskhub/internal/auth"
)

// UserHandler handles endpoints about the authenticated user.
type UserHandler struct{}

// NewUserHandler creates a new user handler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Security TokenAuth
// @Success 200 {object} model.User
// @Failure 401
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user := auth.CurrentUser(c)
	if user == nil {
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, user)
}
