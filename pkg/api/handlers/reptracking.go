package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/reptracking"
)

// RepTrackingHandler serves rep weekly cadence records.
type RepTrackingHandler struct {
	service *reptracking.Service
	log     logger.Logger
}

// NewRepTrackingHandler creates a new rep tracking handler
func NewRepTrackingHandler(service *reptracking.Service, log logger.Logger) *RepTrackingHandler {
	return &RepTrackingHandler{service: service, log: log}
}

// List returns weekly records, newest week first.
func (h *RepTrackingHandler) List(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	f := models.RepTrackingFilters{RepName: c.QueryParam("repName")}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	weeks, err := h.service.List(ctx, actor, f)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, weeks)
}

// Upsert records one rep week.
func (h *RepTrackingHandler) Upsert(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req models.RepWeeklyUpsert
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	week, err := h.service.Upsert(ctx, actor, req)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, week)
}
