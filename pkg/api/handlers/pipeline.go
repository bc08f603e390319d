package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/pipeline"
)

// PipelineHandler serves the derived pipeline views.
type PipelineHandler struct {
	service *pipeline.Service
	log     logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service *pipeline.Service, log logger.Logger) *PipelineHandler {
	return &PipelineHandler{service: service, log: log}
}

// Board returns all visible submissions grouped by pipeline stage.
func (h *PipelineHandler) Board(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	board, err := h.service.Board(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, board)
}

// Card returns the workflow and close probability for one submission.
func (h *PipelineHandler) Card(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	card, err := h.service.Card(ctx, actor, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, card)
}
