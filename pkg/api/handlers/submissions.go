package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/submissions"
)

const requestTimeout = 10 * time.Second

// SubmissionSearchRequest is the listing request body.
type SubmissionSearchRequest struct {
	Filters    models.SubmissionFilters `json:"filters"`
	Pagination models.Pagination        `json:"pagination"`
	Sort       []models.SortOption      `json:"sort"`
}

// SubmissionHandler serves submission CRUD and search.
type SubmissionHandler struct {
	service *submissions.Service
	log     logger.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(service *submissions.Service, log logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{service: service, log: log}
}

// Search returns one page of submissions matching the posted filters.
func (h *SubmissionHandler) Search(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req SubmissionSearchRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	response, err := h.service.List(ctx, actor, req.Filters, req.Pagination, req.Sort)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, response)
}

// GetByID returns a single submission.
func (h *SubmissionHandler) GetByID(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sub, err := h.service.GetByID(ctx, actor, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sub)
}

// Create stores a new submission.
func (h *SubmissionHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req models.SubmissionCreate
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sub, err := h.service.Create(ctx, actor, req)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, sub)
}

// Update applies a partial update.
func (h *SubmissionHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req models.SubmissionUpdate
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sub, err := h.service.Update(ctx, actor, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sub)
}

// Delete removes a submission.
func (h *SubmissionHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, actor, c.Param("id")); err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
