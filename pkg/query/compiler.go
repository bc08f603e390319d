package query

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

var foldCaser = cases.Fold()

// Normalize case-folds and trims a search term so matching is
// insensitive to case and surrounding whitespace.
func Normalize(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// Compiler turns submission filters plus pagination and sort into a
// backend-agnostic Plan. It is stateless apart from its collaborators.
type Compiler struct {
	directory   domain.UserDirectory
	emailDomain string
	log         logger.Logger
}

// NewCompiler creates a filter compiler. emailDomain is appended to
// bare usernames when resolving identities ("jdoe" also matches
// "jdoe@getflash.io").
func NewCompiler(directory domain.UserDirectory, emailDomain string, log logger.Logger) *Compiler {
	return &Compiler{directory: directory, emailDomain: emailDomain, log: log}
}

// Compile builds a Plan from the given filters. The username filter may
// hit the user directory; every other input compiles without I/O.
//
// A username that resolves to nobody yields a MatchNone plan: the query
// must return zero rows, never the unfiltered set. A directory failure
// surfaces as LookupFailed and is never widened into "match everything".
func (c *Compiler) Compile(ctx context.Context, f models.SubmissionFilters, page models.Pagination, sort []models.SortOption) (*Plan, error) {
	if page.PageIndex < 0 {
		return nil, domain.NewValidationError("pageIndex must not be negative")
	}
	if page.PageSize < 0 {
		return nil, domain.NewValidationError("pageSize must not be negative")
	}
	if page.PageSize == 0 {
		page.PageSize = models.DefaultPageSize
	}

	plan := &Plan{
		Offset: page.PageIndex * page.PageSize,
		Limit:  page.PageSize,
	}

	if term := Normalize(f.Search); term != "" {
		plan.WhereAny(c.searchPredicates(term)...)
	}

	if f.DateRange != nil {
		if err := c.compileDateRange(plan, f.DateRange); err != nil {
			return nil, err
		}
	}

	if len(f.InterestLevel) > 0 {
		plan.Where(FieldInterestLevel, OpIn, f.InterestLevel)
	}

	if f.SignedUp != nil {
		if *f.SignedUp {
			plan.Where(FieldStatus, OpEq, StatusWon)
		} else {
			plan.Where(FieldStatus, OpNeq, StatusWon)
		}
	}

	if f.PackageSeen != nil {
		plan.Where(FieldPackageSeen, OpEq, *f.PackageSeen)
	}

	if f.Username != "" {
		if err := c.compileUsername(ctx, plan, f.Username); err != nil {
			return nil, err
		}
	}

	plan.Sort = c.compileSort(sort)
	return plan, nil
}

// searchPredicates expands a normalized search term into one OR group.
// Text fields always substring-match; numeric terms additionally match
// interest level and amount exactly, and affirmative/negative keywords
// match conversion state.
func (c *Compiler) searchPredicates(term string) []Predicate {
	preds := []Predicate{
		{Field: FieldName, Op: OpContains, Value: term},
		{Field: FieldDecisionMaker, Op: OpContains, Value: term},
		{Field: FieldSpecificNeeds, Op: OpContains, Value: term},
		{Field: FieldDescription, Op: OpContains, Value: term},
	}

	if n, err := strconv.ParseFloat(term, 64); err == nil {
		preds = append(preds,
			Predicate{Field: FieldInterestLevel, Op: OpEq, Value: n},
			Predicate{Field: FieldAmount, Op: OpEq, Value: n},
		)
	}

	switch term {
	case "yes", "true", "signed up":
		preds = append(preds,
			Predicate{Field: FieldPackageSeen, Op: OpEq, Value: true},
			Predicate{Field: FieldStatus, Op: OpEq, Value: StatusWon},
		)
	case "no", "false", "prospect":
		preds = append(preds,
			Predicate{Field: FieldPackageSeen, Op: OpEq, Value: false},
			Predicate{Field: FieldStatus, Op: OpNeq, Value: StatusWon},
		)
	}

	return preds
}

func (c *Compiler) compileDateRange(plan *Plan, dr *models.DateRange) error {
	if dr.Start != "" {
		start, err := time.Parse("2006-01-02", dr.Start)
		if err != nil {
			return domain.NewValidationError("dateRange.start must be a YYYY-MM-DD date")
		}
		plan.Where(FieldCreatedAt, OpGte, start)
	}
	if dr.End != "" {
		end, err := time.Parse("2006-01-02", dr.End)
		if err != nil {
			return domain.NewValidationError("dateRange.end must be a YYYY-MM-DD date")
		}
		// End bound covers the whole calendar day.
		endOfDay := end.Add(24*time.Hour - time.Nanosecond)
		plan.Where(FieldCreatedAt, OpLte, endOfDay)
	}
	return nil
}

// compileUsername resolves the rep filter. "Unassigned" means the
// submission has no owner at all; any other value goes through the user
// directory so the plan filters on the stable identity, not the raw
// string.
func (c *Compiler) compileUsername(ctx context.Context, plan *Plan, username string) error {
	if username == models.Unassigned {
		plan.Where(FieldOwnerID, OpIsNull, nil)
		return nil
	}

	email := username + "@" + c.emailDomain
	identity, err := c.directory.LookupUser(ctx, username, email)
	if err != nil {
		return domain.NewLookupFailedError(err)
	}
	if identity == nil {
		c.log.Debug("username filter matched no identity", "username", username)
		plan.MatchNone = true
		return nil
	}

	plan.Where(FieldOwnerID, OpEq, identity.ID)
	return nil
}

func (c *Compiler) compileSort(sort []models.SortOption) SortKey {
	if len(sort) == 0 {
		return SortKey{Field: FieldCreatedAt, Desc: true}
	}
	s := sort[0]
	return SortKey{Field: MapField(s.ID), Desc: s.Desc}
}
