package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
)

// columnMap translates backend plan fields to SQL expressions over the
// submissions/users join. It doubles as a whitelist: anything outside
// it falls back to created_at, so plan input can never inject SQL.
var columnMap = map[string]string{
	query.FieldName:          "s.name",
	query.FieldDecisionMaker: "s.decision_makers",
	query.FieldSpecificNeeds: "s.specific_needs",
	query.FieldDescription:   "s.description",
	query.FieldInterestLevel: "s.interest_level",
	query.FieldAmount:        "s.amount",
	query.FieldPackageSeen:   "s.package_seen",
	query.FieldStatus:        "s.status",
	query.FieldCreatedAt:     "s.created_at",
	query.FieldOwnerID:       "s.owner_id",

	"organization.name":             "s.name",
	"owner.email":                   "u.email",
	"primary_contact.phone_primary": "s.phone_number",
	"organization.state_province":   "s.territory",
}

func column(field string) string {
	if col, ok := columnMap[field]; ok {
		return col
	}
	return "s.created_at"
}

// PostgresStore executes query plans against Postgres and owns the
// submissions, users and rep_weekly tables.
type PostgresStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string, log logger.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return NewPostgresStore(db, log), nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL DEFAULT 'rep',
			password_hash TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			package_seen BOOLEAN NOT NULL DEFAULT FALSE,
			decision_makers TEXT NOT NULL DEFAULT '',
			interest_level INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'open',
			lead_status TEXT NOT NULL DEFAULT '',
			specific_needs TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL DEFAULT 0,
			territory TEXT NOT NULL DEFAULT '',
			owner_id TEXT REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_owner_id ON submissions (owner_id)`,
		`CREATE TABLE IF NOT EXISTS rep_weekly (
			id TEXT PRIMARY KEY,
			rep_name TEXT NOT NULL,
			week_start_date DATE NOT NULL,
			submitted_monday_update BOOLEAN NOT NULL DEFAULT FALSE,
			attended_tuesday_call BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Rep names match case-insensitively, so the week key is unique
		// on the folded name.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rep_weekly_rep_week
			ON rep_weekly (LOWER(rep_name), week_start_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

const submissionColumns = `s.id, s.name, s.phone_number, s.package_seen, s.decision_makers,
	s.interest_level, s.status, s.lead_status, s.specific_needs, s.description, s.amount,
	s.territory, COALESCE(s.owner_id, ''), COALESCE(u.username, ''), s.created_at`

// Find executes a plan: count plus one page of rows.
func (s *PostgresStore) Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error) {
	if plan.MatchNone {
		return []models.Submission{}, 0, nil
	}

	where, args := buildWhere(plan)

	var total int
	countSQL := "SELECT COUNT(*) FROM submissions s LEFT JOIN users u ON u.id = s.owner_id" + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewStoreUnavailableError(err)
	}

	dir := "ASC"
	if plan.Sort.Desc {
		dir = "DESC"
	}
	dataSQL := fmt.Sprintf(
		"SELECT %s FROM submissions s LEFT JOIN users u ON u.id = s.owner_id%s ORDER BY %s %s, s.id ASC",
		submissionColumns, where, column(plan.Sort.Field), dir,
	)
	// Limit 0 means "all rows": the analytics aggregations read the
	// full matching set.
	if plan.Limit > 0 {
		dataSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, plan.Limit, plan.Offset)
	}

	rows, err := s.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, domain.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, domain.NewStoreUnavailableError(err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewStoreUnavailableError(err)
	}

	return subs, total, nil
}

// buildWhere renders plan conjuncts into a WHERE fragment with
// positional args.
func buildWhere(plan *query.Plan) (string, []interface{}) {
	var conds []string
	var args []interface{}

	for _, clause := range plan.Conjuncts {
		var ors []string
		for _, p := range clause.Any {
			frag, more := renderPredicate(p, len(args))
			ors = append(ors, frag)
			args = append(args, more...)
		}
		if len(ors) == 1 {
			conds = append(conds, ors[0])
		} else if len(ors) > 1 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func renderPredicate(p query.Predicate, argOffset int) (string, []interface{}) {
	col := column(p.Field)
	n := argOffset + 1

	switch p.Op {
	case query.OpEq:
		return fmt.Sprintf("%s = $%d", col, n), []interface{}{p.Value}
	case query.OpNeq:
		// NULL columns count as "not equal".
		return fmt.Sprintf("(%s <> $%d OR %s IS NULL)", col, n, col), []interface{}{p.Value}
	case query.OpGte:
		return fmt.Sprintf("%s >= $%d", col, n), []interface{}{p.Value}
	case query.OpLte:
		return fmt.Sprintf("%s <= $%d", col, n), []interface{}{p.Value}
	case query.OpIn:
		return fmt.Sprintf("%s = ANY($%d)", col, n), []interface{}{pq.Array(p.Value)}
	case query.OpContains:
		return fmt.Sprintf("%s ILIKE $%d", col, n), []interface{}{"%" + escapeLike(fmt.Sprintf("%v", p.Value)) + "%"}
	case query.OpIsNull:
		return fmt.Sprintf("%s IS NULL", col), nil
	default:
		return "TRUE", nil
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(r rowScanner) (*models.Submission, error) {
	var sub models.Submission
	var status string
	err := r.Scan(
		&sub.ID, &sub.OwnerName, &sub.PhoneNumber, &sub.PackageSeen, &sub.DecisionMakers,
		&sub.InterestLevel, &status, &sub.LeadStatus, &sub.SpecificNeeds, &sub.Description,
		&sub.Amount, &sub.Territory, &sub.OwnerID, &sub.Username, &sub.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	sub.SignedUp = status == query.StatusWon
	return &sub, nil
}

// FindByID fetches a single submission.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions s LEFT JOIN users u ON u.id = s.owner_id WHERE s.id = $1", id)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("Submission")
	}
	if err != nil {
		return nil, domain.NewStoreUnavailableError(err)
	}
	return sub, nil
}

func statusFor(sub *models.Submission) string {
	if sub.SignedUp {
		return query.StatusWon
	}
	return "open"
}

// Insert persists a new submission.
func (s *PostgresStore) Insert(ctx context.Context, sub *models.Submission) error {
	var ownerID interface{}
	if sub.OwnerID != "" {
		ownerID = sub.OwnerID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions
			(id, name, phone_number, package_seen, decision_makers, interest_level, status,
			 lead_status, specific_needs, description, amount, territory, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		sub.ID, sub.OwnerName, sub.PhoneNumber, sub.PackageSeen, sub.DecisionMakers,
		sub.InterestLevel, statusFor(sub), string(sub.LeadStatus), sub.SpecificNeeds,
		sub.Description, sub.Amount, sub.Territory, ownerID, sub.Timestamp,
	)
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

// Update overwrites an existing submission.
func (s *PostgresStore) Update(ctx context.Context, sub *models.Submission) error {
	var ownerID interface{}
	if sub.OwnerID != "" {
		ownerID = sub.OwnerID
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET
			name = $2, phone_number = $3, package_seen = $4, decision_makers = $5,
			interest_level = $6, status = $7, lead_status = $8, specific_needs = $9,
			description = $10, amount = $11, territory = $12, owner_id = $13
		 WHERE id = $1`,
		sub.ID, sub.OwnerName, sub.PhoneNumber, sub.PackageSeen, sub.DecisionMakers,
		sub.InterestLevel, statusFor(sub), string(sub.LeadStatus), sub.SpecificNeeds,
		sub.Description, sub.Amount, sub.Territory, ownerID,
	)
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError("Submission")
	}
	return nil
}

// Delete removes a submission.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM submissions WHERE id = $1", id)
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError("Submission")
	}
	return nil
}

// LookupUser resolves a rep by username or email, case-insensitively.
// No match is (nil, nil), not an error.
func (s *PostgresStore) LookupUser(ctx context.Context, username, email string) (*models.Identity, error) {
	var id models.Identity
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, password_hash FROM users
		 WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2) LIMIT 1`,
		username, email,
	).Scan(&id.ID, &id.Username, &id.Email, &id.Role, &id.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateUser inserts an identity record.
func (s *PostgresStore) CreateUser(ctx context.Context, id *models.Identity) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, role, password_hash) VALUES ($1, $2, $3, $4, $5)",
		id.ID, id.Username, id.Email, id.Role, id.PasswordHash,
	)
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

// ListRepWeeks returns rep weekly records, newest week first.
func (s *PostgresStore) ListRepWeeks(ctx context.Context, f models.RepTrackingFilters) ([]models.RepWeeklyData, error) {
	sqlStr := `SELECT id, rep_name, week_start_date, submitted_monday_update, attended_tuesday_call,
		created_at, updated_at FROM rep_weekly`
	var args []interface{}
	if f.RepName != "" {
		sqlStr += " WHERE LOWER(rep_name) = LOWER($1)"
		args = append(args, f.RepName)
	}
	sqlStr += " ORDER BY week_start_date DESC, rep_name ASC"

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, domain.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	weeks := []models.RepWeeklyData{}
	for rows.Next() {
		var w models.RepWeeklyData
		if err := rows.Scan(&w.ID, &w.RepName, &w.WeekStartDate, &w.SubmittedMondayUpdate,
			&w.AttendedTuesdayCall, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, domain.NewStoreUnavailableError(err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreUnavailableError(err)
	}
	return weeks, nil
}

// UpsertRepWeek writes a rep's week, keyed by the case-folded rep name
// plus week start. An existing row keeps its stored name casing.
func (s *PostgresStore) UpsertRepWeek(ctx context.Context, w *models.RepWeeklyData) (*models.RepWeeklyData, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO rep_weekly
			(id, rep_name, week_start_date, submitted_monday_update, attended_tuesday_call, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (LOWER(rep_name), week_start_date) DO UPDATE SET
			submitted_monday_update = EXCLUDED.submitted_monday_update,
			attended_tuesday_call = EXCLUDED.attended_tuesday_call,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, rep_name, week_start_date, submitted_monday_update, attended_tuesday_call, created_at, updated_at`,
		w.ID, w.RepName, w.WeekStartDate, w.SubmittedMondayUpdate, w.AttendedTuesdayCall, w.UpdatedAt,
	)

	var out models.RepWeeklyData
	if err := row.Scan(&out.ID, &out.RepName, &out.WeekStartDate, &out.SubmittedMondayUpdate,
		&out.AttendedTuesdayCall, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, domain.NewStoreUnavailableError(err)
	}
	return &out, nil
}
