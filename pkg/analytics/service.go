package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
)

// Store is the record-store surface the analytics service needs.
type Store interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
}

const statsCacheTTL = 5 * time.Minute

// Service aggregates submissions into dashboard metrics. All
// computation is done by pure functions over the fetched set; the
// service only adds scoping, caching and I/O.
type Service struct {
	store    Store
	compiler *query.Compiler
	cache    domain.CacheRepository
	log      logger.Logger
}

// NewService creates a new analytics service
func NewService(store Store, compiler *query.Compiler, cache domain.CacheRepository, log logger.Logger) *Service {
	return &Service{store: store, compiler: compiler, cache: cache, log: log}
}

// fetchAll loads every submission visible to the actor. Reps are
// scoped to their own records the same way listings are.
func (s *Service) fetchAll(ctx context.Context, actor models.Actor) ([]models.Submission, error) {
	var f models.SubmissionFilters
	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		f.Username = actor.Username
	}

	plan, err := s.compiler.Compile(ctx, f, models.Pagination{}, nil)
	if err != nil {
		return nil, err
	}
	plan.Offset = 0
	plan.Limit = 0 // all rows

	rows, _, err := s.store.Find(ctx, plan)
	return rows, err
}

// Overview returns the dashboard headline stats, cached briefly.
func (s *Service) Overview(ctx context.Context, actor models.Actor) (*models.SubmissionStats, error) {
	cacheKey := "analytics:overview:" + s.scopeKey(actor)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var stats models.SubmissionStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	subs, err := s.fetchAll(ctx, actor)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(subs)
	if payload, err := json.Marshal(&stats); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, statsCacheTTL)
	}
	return &stats, nil
}

// RepScoreboard returns per-rep performance. Viewing every rep's
// numbers needs the view-all permission.
func (s *Service) RepScoreboard(ctx context.Context, actor models.Actor) ([]RepStats, error) {
	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		return nil, domain.NewForbiddenError("You are not allowed to view the rep scoreboard")
	}

	subs, err := s.fetchAll(ctx, actor)
	if err != nil {
		return nil, err
	}
	return ComputeRepStats(subs), nil
}

// TerritoryRollup returns the active-lead territory dashboard.
func (s *Service) TerritoryRollup(ctx context.Context, actor models.Actor) ([]TerritoryRep, error) {
	subs, err := s.fetchAll(ctx, actor)
	if err != nil {
		return nil, err
	}
	return ComputeTerritoryRollup(subs, time.Now()), nil
}

// LeadStats returns the lead activity counters.
func (s *Service) LeadStats(ctx context.Context, actor models.Actor) (*LeadStats, error) {
	subs, err := s.fetchAll(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats := ComputeLeadStats(subs, time.Now())
	return &stats, nil
}

// StageFunnel returns submission counts per derived pipeline stage.
func (s *Service) StageFunnel(ctx context.Context, actor models.Actor) ([]StageCount, error) {
	subs, err := s.fetchAll(ctx, actor)
	if err != nil {
		return nil, err
	}
	return ComputeStageFunnel(subs), nil
}

func (s *Service) scopeKey(actor models.Actor) string {
	if auth.Can(actor.Role, auth.PermViewAllReps) {
		return "all"
	}
	return "rep:" + actor.Username
}
