package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/getflash/salesops/pkg/analytics"
	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/logger"
)

// AnalyticsHandler serves dashboard aggregates.
type AnalyticsHandler struct {
	service *analytics.Service
	log     logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *analytics.Service, log logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, log: log}
}

// Overview returns the headline submission stats.
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.Overview(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RepScoreboard returns per-rep performance rows.
func (h *AnalyticsHandler) RepScoreboard(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rows, err := h.service.RepScoreboard(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// TerritoryRollup returns the territory dashboard cells.
func (h *AnalyticsHandler) TerritoryRollup(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rows, err := h.service.TerritoryRollup(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// LeadStats returns the lead activity counters.
func (h *AnalyticsHandler) LeadStats(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.LeadStats(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// StageFunnel returns submission counts per pipeline stage.
func (h *AnalyticsHandler) StageFunnel(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	funnel, err := h.service.StageFunnel(ctx, actor)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, funnel)
}
