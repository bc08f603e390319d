package submissions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/phone"
	"github.com/getflash/salesops/pkg/query"
)

// Store is the record-store surface this service needs.
type Store interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Insert(ctx context.Context, sub *models.Submission) error
	Update(ctx context.Context, sub *models.Submission) error
	Delete(ctx context.Context, id string) error
}

// listCacheTTL matches the dashboard's refetch interval: listings may
// be up to a minute stale.
const listCacheTTL = 1 * time.Minute

// Service handles submission business logic
type Service struct {
	store       Store
	compiler    *query.Compiler
	directory   domain.UserDirectory
	cache       domain.CacheRepository
	validate    *validator.Validate
	log         logger.Logger
	emailDomain string
}

// NewService creates a new submission service
func NewService(store Store, compiler *query.Compiler, directory domain.UserDirectory, cache domain.CacheRepository, emailDomain string, log logger.Logger) *Service {
	return &Service{
		store:       store,
		compiler:    compiler,
		directory:   directory,
		cache:       cache,
		validate:    validator.New(),
		log:         log,
		emailDomain: emailDomain,
	}
}

// List returns one page of submissions matching the filters.
//
// Reps without the view-all permission are pinned to their own records:
// the username filter is overwritten with the actor's username before
// compilation, whatever the request asked for.
func (s *Service) List(ctx context.Context, actor models.Actor, f models.SubmissionFilters, page models.Pagination, sort []models.SortOption) (*models.SubmissionListResponse, error) {
	if err := s.validate.Struct(f); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if !auth.Can(actor.Role, auth.PermViewAllReps) {
		f.Username = actor.Username
	}

	plan, err := s.compiler.Compile(ctx, f, page, sort)
	if err != nil {
		return nil, err
	}

	cacheKey := s.listCacheKey(f, page, sort)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var response models.SubmissionListResponse
		if err := json.Unmarshal([]byte(cached), &response); err == nil {
			return &response, nil
		}
	}

	rows, total, err := s.store.Find(ctx, plan)
	if err != nil {
		return nil, err
	}

	pageCount := 0
	if plan.Limit > 0 {
		pageCount = (total + plan.Limit - 1) / plan.Limit
	}

	response := &models.SubmissionListResponse{
		Data:       rows,
		TotalCount: total,
		PageCount:  pageCount,
	}

	if payload, err := json.Marshal(response); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, listCacheTTL)
	}

	return response, nil
}

// GetByID retrieves a single submission.
func (s *Service) GetByID(ctx context.Context, actor models.Actor, id string) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, sub) {
		return nil, domain.NewForbiddenError("You can only view your own submissions")
	}
	return sub, nil
}

// Create validates and persists a new submission. The owning rep, if
// named, is resolved through the user directory so the record carries a
// stable identity alongside the free-text username.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.SubmissionCreate) (*models.Submission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	sub := &models.Submission{
		ID:             domain.NewID(),
		OwnerName:      req.OwnerName,
		PhoneNumber:    normalizePhone(req.PhoneNumber),
		PackageSeen:    req.PackageSeen,
		DecisionMakers: req.DecisionMakers,
		InterestLevel:  clampInterest(req.InterestLevel),
		SignedUp:       req.SignedUp,
		LeadStatus:     req.LeadStatus,
		SpecificNeeds:  req.SpecificNeeds,
		Description:    req.Description,
		Amount:         req.Amount,
		Username:       req.Username,
		Territory:      req.Territory,
		Timestamp:      time.Now().UTC(),
	}
	if sub.LeadStatus == "" && sub.SignedUp {
		sub.LeadStatus = models.LeadStatusSignedUp
	}
	if sub.Username == "" {
		sub.Username = actor.Username
	}

	if err := s.resolveOwner(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, sub); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	s.log.Info("submission created", "id", sub.ID, "owner", sub.OwnerName, "by", actor.Username)
	return sub, nil
}

// Update applies a partial update to a submission.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, req models.SubmissionUpdate) (*models.Submission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.Can(actor.Role, auth.PermEditAllReps) && sub.Username != actor.Username {
		return nil, domain.NewForbiddenError("You can only edit your own submissions")
	}

	usernameChanged := applyUpdate(sub, req)
	if usernameChanged {
		sub.OwnerID = ""
		if err := s.resolveOwner(ctx, sub); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	s.log.Info("submission updated", "id", sub.ID, "by", actor.Username)
	return sub, nil
}

// Delete removes a submission. Manager-level permission required.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !auth.Can(actor.Role, auth.PermDeleteSubmissions) {
		return domain.NewForbiddenError("You are not allowed to delete submissions")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateListings(ctx)
	s.log.Info("submission deleted", "id", id, "by", actor.Username)
	return nil
}

func (s *Service) canSee(actor models.Actor, sub *models.Submission) bool {
	if auth.Can(actor.Role, auth.PermViewAllReps) {
		return true
	}
	return sub.Username == actor.Username
}

// resolveOwner maps the free-text username onto a stable identity. A
// directory miss leaves the record unowned; a directory failure aborts
// the write.
func (s *Service) resolveOwner(ctx context.Context, sub *models.Submission) error {
	if sub.Username == "" || sub.Username == models.Unassigned {
		return nil
	}

	identity, err := s.directory.LookupUser(ctx, sub.Username, sub.Username+"@"+s.emailDomain)
	if err != nil {
		return domain.NewLookupFailedError(err)
	}
	if identity != nil {
		sub.OwnerID = identity.ID
	}
	return nil
}

func (s *Service) invalidateListings(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, "submissions:*"); err != nil {
		s.log.Warn("failed to invalidate submission cache", "error", err)
	}
}

func (s *Service) listCacheKey(f models.SubmissionFilters, page models.Pagination, sort []models.SortOption) string {
	payload, _ := json.Marshal(struct {
		F    models.SubmissionFilters
		Page models.Pagination
		Sort []models.SortOption
	}{f, page, sort})
	sum := sha256.Sum256(payload)
	return "submissions:list:" + hex.EncodeToString(sum[:16])
}

// applyUpdate copies non-nil fields onto the submission and reports
// whether the owning username changed.
func applyUpdate(sub *models.Submission, req models.SubmissionUpdate) bool {
	if req.OwnerName != nil {
		sub.OwnerName = *req.OwnerName
	}
	if req.PhoneNumber != nil {
		sub.PhoneNumber = normalizePhone(*req.PhoneNumber)
	}
	if req.PackageSeen != nil {
		sub.PackageSeen = *req.PackageSeen
	}
	if req.DecisionMakers != nil {
		sub.DecisionMakers = *req.DecisionMakers
	}
	if req.InterestLevel != nil {
		sub.InterestLevel = clampInterest(*req.InterestLevel)
	}
	if req.SignedUp != nil {
		sub.SignedUp = *req.SignedUp
		if sub.SignedUp && sub.LeadStatus == "" {
			sub.LeadStatus = models.LeadStatusSignedUp
		}
	}
	if req.LeadStatus != nil {
		sub.LeadStatus = *req.LeadStatus
	}
	if req.SpecificNeeds != nil {
		sub.SpecificNeeds = *req.SpecificNeeds
	}
	if req.Description != nil {
		sub.Description = *req.Description
	}
	if req.Amount != nil {
		sub.Amount = *req.Amount
	}
	if req.Territory != nil {
		sub.Territory = *req.Territory
	}

	usernameChanged := false
	if req.Username != nil && *req.Username != sub.Username {
		sub.Username = *req.Username
		usernameChanged = true
	}
	return usernameChanged
}

func normalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	return phone.NormalizeBestEffort(raw, "US")
}

func clampInterest(level int) int {
	if level < 0 {
		return 0
	}
	if level > 5 {
		return 5
	}
	return level
}
