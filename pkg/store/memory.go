package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
)

// MemoryStore is an in-memory plan executor with the same surface as
// the Postgres store. It backs local development and the test suites.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]models.Submission
	identities  map[string]models.Identity
	repWeeks    map[string]models.RepWeeklyData
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]models.Submission),
		identities:  make(map[string]models.Identity),
		repWeeks:    make(map[string]models.RepWeeklyData),
	}
}

// Find evaluates the plan over all submissions.
func (m *MemoryStore) Find(_ context.Context, plan *query.Plan) ([]models.Submission, int, error) {
	if plan.MatchNone {
		return []models.Submission{}, 0, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Submission, 0, len(m.submissions))
	for _, sub := range m.submissions {
		if matchesPlan(&sub, plan) {
			matched = append(matched, sub)
		}
	}

	sortSubmissions(matched, plan.Sort)

	total := len(matched)
	start := plan.Offset
	if start > total {
		start = total
	}
	end := total
	if plan.Limit > 0 && start+plan.Limit < end {
		end = start + plan.Limit
	}

	return matched[start:end], total, nil
}

func matchesPlan(sub *models.Submission, plan *query.Plan) bool {
	for _, clause := range plan.Conjuncts {
		any := false
		for _, p := range clause.Any {
			if evalPredicate(sub, p) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

// fieldValue projects a backend plan field out of a submission, the
// same mapping the SQL executor expresses as columns.
func fieldValue(sub *models.Submission, field string) interface{} {
	switch field {
	case query.FieldName, "organization.name":
		return sub.OwnerName
	case query.FieldDecisionMaker:
		return sub.DecisionMakers
	case query.FieldSpecificNeeds:
		return sub.SpecificNeeds
	case query.FieldDescription:
		return sub.Description
	case query.FieldInterestLevel:
		return sub.InterestLevel
	case query.FieldAmount:
		return sub.Amount
	case query.FieldPackageSeen:
		return sub.PackageSeen
	case query.FieldStatus:
		if sub.SignedUp {
			return query.StatusWon
		}
		return "open"
	case query.FieldCreatedAt:
		return sub.Timestamp
	case query.FieldOwnerID:
		return sub.OwnerID
	case "owner.email":
		return sub.Username
	case "primary_contact.phone_primary":
		return sub.PhoneNumber
	case "organization.state_province":
		return sub.Territory
	default:
		return nil
	}
}

func evalPredicate(sub *models.Submission, p query.Predicate) bool {
	val := fieldValue(sub, p.Field)

	switch p.Op {
	case query.OpEq:
		return compareEq(val, p.Value)
	case query.OpNeq:
		return !compareEq(val, p.Value)
	case query.OpGte:
		if t, ok := val.(time.Time); ok {
			if bound, ok := p.Value.(time.Time); ok {
				return !t.Before(bound)
			}
		}
		a, aok := asFloat(val)
		b, bok := asFloat(p.Value)
		return aok && bok && a >= b
	case query.OpLte:
		if t, ok := val.(time.Time); ok {
			if bound, ok := p.Value.(time.Time); ok {
				return !t.After(bound)
			}
		}
		a, aok := asFloat(val)
		b, bok := asFloat(p.Value)
		return aok && bok && a <= b
	case query.OpIn:
		if levels, ok := p.Value.([]int); ok {
			n, nok := asFloat(val)
			if !nok {
				return false
			}
			for _, l := range levels {
				if float64(l) == n {
					return true
				}
			}
		}
		return false
	case query.OpContains:
		s, ok := val.(string)
		if !ok {
			return false
		}
		term, ok := p.Value.(string)
		if !ok {
			return false
		}
		return strings.Contains(query.Normalize(s), query.Normalize(term))
	case query.OpIsNull:
		s, ok := val.(string)
		return ok && s == ""
	default:
		return false
	}
}

func compareEq(a, b interface{}) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortSubmissions(subs []models.Submission, key query.SortKey) {
	sort.SliceStable(subs, func(i, j int) bool {
		a := fieldValue(&subs[i], key.Field)
		b := fieldValue(&subs[j], key.Field)
		less := lessValue(a, b)
		if key.Desc {
			return lessValue(b, a)
		}
		return less
	})
}

func lessValue(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return !av && bv
		}
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af < bf
		}
	}
	return false
}

// FindByID fetches a single submission.
func (m *MemoryStore) FindByID(_ context.Context, id string) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.submissions[id]
	if !ok {
		return nil, domain.NewNotFoundError("Submission")
	}
	return &sub, nil
}

// Insert stores a new submission.
func (m *MemoryStore) Insert(_ context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[sub.ID] = *sub
	return nil
}

// Update overwrites an existing submission.
func (m *MemoryStore) Update(_ context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[sub.ID]; !ok {
		return domain.NewNotFoundError("Submission")
	}
	m.submissions[sub.ID] = *sub
	return nil
}

// Delete removes a submission.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[id]; !ok {
		return domain.NewNotFoundError("Submission")
	}
	delete(m.submissions, id)
	return nil
}

// LookupUser resolves a rep case-insensitively by username or email.
func (m *MemoryStore) LookupUser(_ context.Context, username, email string) (*models.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.identities {
		if strings.EqualFold(id.Username, username) || strings.EqualFold(id.Email, email) {
			out := id
			return &out, nil
		}
	}
	return nil, nil
}

// CreateUser stores an identity record.
func (m *MemoryStore) CreateUser(_ context.Context, id *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[id.ID] = *id
	return nil
}

func repWeekKey(repName string, week time.Time) string {
	return strings.ToLower(repName) + "|" + week.Format("2006-01-02")
}

// ListRepWeeks returns rep weekly records, newest week first.
func (m *MemoryStore) ListRepWeeks(_ context.Context, f models.RepTrackingFilters) ([]models.RepWeeklyData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	weeks := []models.RepWeeklyData{}
	for _, w := range m.repWeeks {
		if f.RepName != "" && !strings.EqualFold(w.RepName, f.RepName) {
			continue
		}
		weeks = append(weeks, w)
	}

	sort.Slice(weeks, func(i, j int) bool {
		if !weeks[i].WeekStartDate.Equal(weeks[j].WeekStartDate) {
			return weeks[i].WeekStartDate.After(weeks[j].WeekStartDate)
		}
		return weeks[i].RepName < weeks[j].RepName
	})
	return weeks, nil
}

// UpsertRepWeek writes a rep's week, keyed by rep name plus week start.
func (m *MemoryStore) UpsertRepWeek(_ context.Context, w *models.RepWeeklyData) (*models.RepWeeklyData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := repWeekKey(w.RepName, w.WeekStartDate)
	if existing, ok := m.repWeeks[key]; ok {
		existing.SubmittedMondayUpdate = w.SubmittedMondayUpdate
		existing.AttendedTuesdayCall = w.AttendedTuesdayCall
		existing.UpdatedAt = w.UpdatedAt
		m.repWeeks[key] = existing
		out := existing
		return &out, nil
	}

	stored := *w
	stored.CreatedAt = w.UpdatedAt
	m.repWeeks[key] = stored
	out := stored
	return &out, nil
}
