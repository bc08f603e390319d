package query

// Op enumerates the predicate operators a backend must support.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains" // case-insensitive substring
	OpIsNull   Op = "is-null"
)

// Backend field names. These are the canonical column/path names every
// plan executor understands; the compiler remaps logical (frontend)
// names onto them.
const (
	FieldName          = "name"
	FieldDecisionMaker = "decision_makers"
	FieldSpecificNeeds = "specific_needs"
	FieldDescription   = "description"
	FieldInterestLevel = "interest_level"
	FieldAmount        = "amount"
	FieldPackageSeen   = "package_seen"
	FieldStatus        = "status"
	FieldCreatedAt     = "created_at"
	FieldOwnerID       = "owner_id"
)

// StatusWon is the status value a converted (signed up) submission
// carries in the store.
const StatusWon = "won"

// Predicate is a single field comparison.
type Predicate struct {
	Field string
	Op    Op
	Value interface{}
}

// Clause is a disjunction: it holds when any of its predicates holds.
// A single-predicate clause is the common case.
type Clause struct {
	Any []Predicate
}

// SortKey orders results by one backend field.
type SortKey struct {
	Field string
	Desc  bool
}

// Plan is a backend-agnostic query: conjoined clauses, one sort key,
// and an offset/limit window. Executors (SQL, in-memory) compile it
// independently.
//
// MatchNone short-circuits the whole plan to an empty result set. It is
// how an unresolvable username filter is expressed: the plan must never
// degrade to an unfiltered query.
type Plan struct {
	Conjuncts []Clause
	Sort      SortKey
	Offset    int
	Limit     int
	MatchNone bool
}

// Where appends a single-predicate conjunct.
func (p *Plan) Where(field string, op Op, value interface{}) {
	p.Conjuncts = append(p.Conjuncts, Clause{Any: []Predicate{{Field: field, Op: op, Value: value}}})
}

// WhereAny appends a disjunctive conjunct over the given predicates.
func (p *Plan) WhereAny(preds ...Predicate) {
	if len(preds) == 0 {
		return
	}
	p.Conjuncts = append(p.Conjuncts, Clause{Any: preds})
}

// fieldMap remaps logical field names used by the dashboard to backend
// columns/paths. Unknown names pass through unchanged.
var fieldMap = map[string]string{
	"ownerName":      "organization.name",
	"username":       "owner.email",
	"phoneNumber":    "primary_contact.phone_primary",
	"territory":      "organization.state_province",
	"timestamp":      FieldCreatedAt,
	"signedUp":       FieldStatus,
	"packageSeen":    FieldPackageSeen,
	"decisionMakers": FieldDecisionMaker,
	"interestLevel":  FieldInterestLevel,
	"specificNeeds":  FieldSpecificNeeds,
}

// MapField resolves a logical field name to its backend column.
func MapField(name string) string {
	if mapped, ok := fieldMap[name]; ok {
		return mapped
	}
	return name
}
