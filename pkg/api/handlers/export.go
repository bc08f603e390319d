package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/api/middleware"
	"github.com/getflash/salesops/pkg/export"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

// ExportRequest is the export request body.
type ExportRequest struct {
	Filters models.SubmissionFilters `json:"filters"`
	Format  string                   `json:"format"`
}

// ExportHandler streams submission exports.
type ExportHandler struct {
	service *export.Service
	log     logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service *export.Service, log logger.Logger) *ExportHandler {
	return &ExportHandler{service: service, log: log}
}

// Create renders the filtered submissions as a downloadable file.
func (h *ExportHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}
	if req.Format == "" {
		req.Format = "csv"
	}

	// Exports read the full filtered set, so allow more time than the
	// interactive endpoints.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	var buf bytes.Buffer
	rows, err := h.service.Export(ctx, actor, req.Filters, req.Format, &buf)
	if err != nil {
		return apierrors.Respond(c, h.log, err)
	}

	contentType := "text/csv"
	ext := "csv"
	if req.Format == "excel" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	}

	filename := fmt.Sprintf("submissions-%s.%s", time.Now().Format("20060102-150405"), ext)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	c.Response().Header().Set("X-Export-Rows", fmt.Sprintf("%d", rows))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
