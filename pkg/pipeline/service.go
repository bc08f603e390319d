package pipeline

import (
	"context"
	"time"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/probability"
	"github.com/getflash/salesops/pkg/query"
	"github.com/getflash/salesops/pkg/workflow"
)

// Store is the record-store surface the pipeline service needs.
type Store interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
}

// Card is one pipeline entry: a submission with its derived workflow
// and close probability.
type Card struct {
	Submission  models.Submission            `json:"submission"`
	Workflow    *workflow.Workflow           `json:"workflow"`
	Probability *probability.DealProbability `json:"probability"`
}

// Board groups cards by pipeline stage, in stage order.
type Board struct {
	Columns []Column `json:"columns"`
}

// Column is one stage of the board.
type Column struct {
	Stage workflow.Stage `json:"stage"`
	Cards []Card         `json:"cards"`
}

// Service derives pipeline views from submissions. Workflows are
// recomputed on every call, never stored.
type Service struct {
	store    Store
	compiler *query.Compiler
	log      logger.Logger
}

// NewService creates a new pipeline service
func NewService(store Store, compiler *query.Compiler, log logger.Logger) *Service {
	return &Service{store: store, compiler: compiler, log: log}
}

// Board returns the full pipeline board for the actor's visible
// submissions.
func (s *Service) Board(ctx context.Context, actor models.Actor) (*Board, error) {
	var f models.SubmissionFilters
	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		f.Username = actor.Username
	}

	plan, err := s.compiler.Compile(ctx, f, models.Pagination{}, nil)
	if err != nil {
		return nil, err
	}
	plan.Offset = 0
	plan.Limit = 0

	subs, _, err := s.store.Find(ctx, plan)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	byStage := map[workflow.Stage][]Card{}
	for i := range subs {
		sub := subs[i]
		w := workflow.FromSubmission(&sub)
		byStage[w.CurrentStage] = append(byStage[w.CurrentStage], Card{
			Submission:  sub,
			Workflow:    w,
			Probability: probability.EstimateAt(w, &sub, now),
		})
	}

	board := &Board{Columns: make([]Column, 0, len(workflow.Stages()))}
	for _, stage := range workflow.Stages() {
		cards := byStage[stage]
		if cards == nil {
			cards = []Card{}
		}
		board.Columns = append(board.Columns, Column{Stage: stage, Cards: cards})
	}
	return board, nil
}

// Card derives the workflow and probability for a single submission.
func (s *Service) Card(ctx context.Context, actor models.Actor, id string) (*Card, error) {
	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.PermViewAllReps) && sub.Username != actor.Username {
		return nil, domain.NewForbiddenError("You can only view your own submissions")
	}

	w := workflow.FromSubmission(sub)
	return &Card{
		Submission:  *sub,
		Workflow:    w,
		Probability: probability.EstimateAt(w, sub, time.Now()),
	}, nil
}
