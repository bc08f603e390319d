package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
	"github.com/getflash/salesops/pkg/workflow"
)

// maxExportRows caps a single export.
const maxExportRows = 10000

// Store is the record-store surface the export service needs.
type Store interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
}

// Service renders filtered submissions as CSV or Excel, with the
// derived pipeline stage and qualification score alongside the raw
// fields.
type Service struct {
	store    Store
	compiler *query.Compiler
	log      logger.Logger
}

// NewService creates a new export service
func NewService(store Store, compiler *query.Compiler, log logger.Logger) *Service {
	return &Service{store: store, compiler: compiler, log: log}
}

var exportHeader = []string{
	"ID", "Owner Name", "Phone", "Interest Level", "Package Seen", "Decision Makers",
	"Signed Up", "Lead Status", "Specific Needs", "Rep", "Territory",
	"Stage", "Qualification Score", "Created At",
}

// Export writes the actor's visible submissions to w in the requested
// format ("csv" or "excel") and returns the row count.
func (s *Service) Export(ctx context.Context, actor models.Actor, f models.SubmissionFilters, format string, w io.Writer) (int, error) {
	if !auth.Can(actor.Role, auth.PermExportData) {
		return 0, domain.NewForbiddenError("You are not allowed to export data")
	}
	if format != "csv" && format != "excel" {
		return 0, domain.NewValidationError("format must be csv or excel")
	}

	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		f.Username = actor.Username
	}

	plan, err := s.compiler.Compile(ctx, f, models.Pagination{}, nil)
	if err != nil {
		return 0, err
	}
	plan.Offset = 0
	plan.Limit = maxExportRows

	subs, _, err := s.store.Find(ctx, plan)
	if err != nil {
		return 0, err
	}

	if format == "csv" {
		err = writeCSV(w, subs)
	} else {
		err = writeExcel(w, subs)
	}
	if err != nil {
		return 0, err
	}

	s.log.Info("export generated", "format", format, "rows", len(subs), "by", actor.Username)
	return len(subs), nil
}

func exportRow(sub *models.Submission) []string {
	wf := workflow.FromSubmission(sub)
	return []string{
		sub.ID,
		sub.OwnerName,
		sub.PhoneNumber,
		strconv.Itoa(sub.InterestLevel),
		strconv.FormatBool(sub.PackageSeen),
		sub.DecisionMakers,
		strconv.FormatBool(sub.SignedUp),
		string(sub.EffectiveLeadStatus()),
		sub.SpecificNeeds,
		sub.AssignedRep(),
		sub.Region(),
		string(wf.CurrentStage),
		strconv.Itoa(wf.QualificationScore),
		sub.Timestamp.Format(time.RFC3339),
	}
}

func writeCSV(w io.Writer, subs []models.Submission) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range subs {
		if err := writer.Write(exportRow(&subs[i])); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeExcel(w io.Writer, subs []models.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Submissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to name cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx := range subs {
		for colIdx, value := range exportRow(&subs[rowIdx]) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to name cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
