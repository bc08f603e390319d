package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/users"
)

// RegisterRequest is the user creation request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// AuthHandler serves login, logout and identity endpoints.
type AuthHandler struct {
	service *users.Service
	log     logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *users.Service, log logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

// Login checks credentials and issues a JWT.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	resp, err := h.service.Login(ctx, req)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, ok := middleware.ActorFrom(c); !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.service.Logout(ctx, middleware.TokenFrom(c)); err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, models.UserResponse{
		ID:       actor.ID,
		Username: actor.Username,
		Role:     actor.Role,
	})
}

// Register creates a new identity. Manager only.
func (h *AuthHandler) Register(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	user, err := h.service.Register(ctx, actor, req.Username, req.Email, req.Role, req.Password)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, user)
}
