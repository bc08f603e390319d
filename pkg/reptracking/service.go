package reptracking

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

// Store is the record-store surface for rep weekly tracking.
type Store interface {
	ListRepWeeks(ctx context.Context, f models.RepTrackingFilters) ([]models.RepWeeklyData, error)
	UpsertRepWeek(ctx context.Context, w *models.RepWeeklyData) (*models.RepWeeklyData, error)
}

// Service tracks rep weekly cadence: Monday written updates and the
// Tuesday team call.
type Service struct {
	store    Store
	validate *validator.Validate
	log      logger.Logger
}

// NewService creates a new rep tracking service
func NewService(store Store, log logger.Logger) *Service {
	return &Service{store: store, validate: validator.New(), log: log}
}

// List returns weekly records, newest week first. Reps see only their
// own rows.
func (s *Service) List(ctx context.Context, actor models.Actor, f models.RepTrackingFilters) ([]models.RepWeeklyData, error) {
	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		f.RepName = actor.Username
	}
	return s.store.ListRepWeeks(ctx, f)
}

// Upsert writes one rep week. The week start must be a Monday so every
// rep's records line up; repeated submissions for the same week
// overwrite the flags.
func (s *Service) Upsert(ctx context.Context, actor models.Actor, req models.RepWeeklyUpsert) (*models.RepWeeklyData, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if !auth.Can(actor.Role, auth.PermManageRepTracking) && req.RepName != actor.Username {
		return nil, domain.NewForbiddenError("You can only record your own weekly activity")
	}

	week, err := time.Parse("2006-01-02", req.WeekStartDate)
	if err != nil {
		return nil, domain.NewValidationError("weekStartDate must be a YYYY-MM-DD date")
	}
	if week.Weekday() != time.Monday {
		return nil, domain.NewValidationError("weekStartDate must be a Monday")
	}

	now := time.Now().UTC()
	record := &models.RepWeeklyData{
		ID:                    domain.NewID(),
		RepName:               req.RepName,
		WeekStartDate:         week,
		SubmittedMondayUpdate: req.SubmittedMondayUpdate,
		AttendedTuesdayCall:   req.AttendedTuesdayCall,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	stored, err := s.store.UpsertRepWeek(ctx, record)
	if err != nil {
		return nil, err
	}

	s.log.Info("rep week recorded", "rep", stored.RepName, "week", stored.WeekStartDate.Format("2006-01-02"))
	return stored, nil
}
