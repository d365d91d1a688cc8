/*
Package sqlite provides a SQLite-backed implementation of the vacation
storage interfaces.

PURPOSE:
  Implements PolicyStore, ScheduleStore (with the optimistic version
  check), TxStore and the append-only GrantLog using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  policies:        Validated policy definitions (JSON body + indexed
                   columns), soft-deleted via deleted_at
  grant_schedules: Per-(employee, policy) tracker rows; UNIQUE on the
                   live pair; version column backs optimistic locking
  grants:          Append-only grant log; UNIQUE idempotency key

CONCURRENCY:
  Schedule updates run "UPDATE ... WHERE version = ?"; zero affected
  rows means another worker advanced the row first and the caller gets
  ErrConcurrentModification. WithTx wraps a schedule update and a
  grant append in one database transaction so a firing commits
  atomically with its cursor advance.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the grants table.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and crash recovery is cleaner.

USAGE:
  st, err := sqlite.New("./data/vacation.db")
  if err != nil { log.Fatal(err) }
  defer st.Close()
  eval := vacation.NewEvaluator(st.Schedules(), st.Grants())

SEE ALSO:
  - vacation/store.go: Interface definitions
  - vacation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vacation-engine/vacation"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path (":memory:" for tests).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		grant_method TEXT NOT NULL,
		body_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- Names are unique among live policies; a deleted policy frees its name.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_policies_live_name
		ON policies(name) WHERE deleted_at IS NULL;

	CREATE TABLE IF NOT EXISTS grant_schedules (
		employee_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		last_granted_at TEXT,
		next_grant_date TEXT,
		grant_count INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		deleted_at TEXT
	);

	-- At most one live tracker row per (employee, policy) pair.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_live_pair
		ON grant_schedules(employee_id, policy_id) WHERE deleted_at IS NULL;

	-- Scheduler hot path: live rows ordered by due date.
	CREATE INDEX IF NOT EXISTS idx_schedules_due
		ON grant_schedules(next_grant_date) WHERE deleted_at IS NULL;

	-- Append-only grant log. No UPDATE, no DELETE.
	CREATE TABLE IF NOT EXISTS grants (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		granted_at TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_grants_employee
		ON grants(employee_id, granted_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Facade accessors. PolicyStore and ScheduleStore share method names,
// so each interface gets its own view over the shared connection.
func (s *Store) Policies() vacation.PolicyStore    { return &policyStore{s.db} }
func (s *Store) Schedules() vacation.ScheduleStore { return &scheduleStore{db: s.db} }
func (s *Store) Grants() vacation.GrantLog         { return &grantStore{execer{s.db}} }

const timeLayout = "2006-01-02 15:04:05"
const dateLayout = "2006-01-02"

// =============================================================================
// POLICY STORE
// =============================================================================

type policyStore struct{ db *sql.DB }

var _ vacation.PolicyStore = (*policyStore)(nil)

func (ps *policyStore) Save(ctx context.Context, policy *vacation.VacationPolicy) error {
	body, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO policies (id, name, grant_method, body_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(policy.ID), policy.Name, string(policy.GrantMethod),
		string(body), policy.CreatedAt.Time.UTC().Format(timeLayout))
	if isUniqueViolation(err) {
		return vacation.ErrDuplicatePolicyName
	}
	return err
}

func (ps *policyStore) Get(ctx context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	return scanPolicy(ps.db.QueryRowContext(ctx, `
		SELECT body_json FROM policies WHERE id = ? AND deleted_at IS NULL`, string(id)))
}

func (ps *policyStore) GetByName(ctx context.Context, name string) (*vacation.VacationPolicy, error) {
	return scanPolicy(ps.db.QueryRowContext(ctx, `
		SELECT body_json FROM policies WHERE name = ? AND deleted_at IS NULL`, name))
}

func scanPolicy(row *sql.Row) (*vacation.VacationPolicy, error) {
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return nil, vacation.ErrPolicyNotFound
		}
		return nil, err
	}
	return decodePolicy(body)
}

func decodePolicy(body string) (*vacation.VacationPolicy, error) {
	var p vacation.VacationPolicy
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	return &p, nil
}

func (ps *policyStore) List(ctx context.Context) ([]*vacation.VacationPolicy, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT body_json FROM policies WHERE deleted_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vacation.VacationPolicy
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		p, err := decodePolicy(body)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (ps *policyStore) SoftDelete(ctx context.Context, id vacation.PolicyID, at vacation.TimePoint) error {
	res, err := ps.db.ExecContext(ctx, `
		UPDATE policies SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.Time.UTC().Format(timeLayout), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vacation.ErrPolicyNotFound
	}
	return nil
}

// =============================================================================
// SCHEDULE STORE - Optimistic locking via the version column
// =============================================================================

// execer abstracts *sql.DB vs *sql.Tx so the same queries serve both
// the direct store and the transactional view.
type execer struct {
	q interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	}
}

type scheduleStore struct {
	db *sql.DB
}

var (
	_ vacation.ScheduleStore = (*scheduleStore)(nil)
	_ vacation.TxStore       = (*scheduleStore)(nil)
)

func (ss *scheduleStore) Create(ctx context.Context, row *vacation.GrantSchedule) error {
	return scheduleCreate(ctx, execer{ss.db}, row)
}

func (ss *scheduleStore) Get(ctx context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID) (*vacation.GrantSchedule, error) {
	return scheduleGet(ctx, execer{ss.db}, employeeID, policyID)
}

func (ss *scheduleStore) ListDue(ctx context.Context, today vacation.TimePoint) ([]*vacation.GrantSchedule, error) {
	return scheduleListDue(ctx, execer{ss.db}, today)
}

func (ss *scheduleStore) Update(ctx context.Context, row *vacation.GrantSchedule) error {
	return scheduleUpdate(ctx, execer{ss.db}, row)
}

func (ss *scheduleStore) SoftDelete(ctx context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID, at vacation.TimePoint) error {
	res, err := ss.db.ExecContext(ctx, `
		UPDATE grant_schedules SET deleted_at = ?
		WHERE employee_id = ? AND policy_id = ? AND deleted_at IS NULL`,
		at.Time.UTC().Format(timeLayout), string(employeeID), string(policyID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vacation.ErrScheduleNotFound
	}
	return nil
}

// WithTx runs fn inside one database transaction; the schedule update
// and grant append it performs commit or roll back together.
func (ss *scheduleStore) WithTx(ctx context.Context, fn func(vacation.ScheduleStore, vacation.GrantLog) error) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	view := &txView{execer{tx}}
	if err := fn(view, view); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// txView implements ScheduleStore and GrantLog over an open transaction.
type txView struct{ e execer }

func (v *txView) Create(ctx context.Context, row *vacation.GrantSchedule) error {
	return scheduleCreate(ctx, v.e, row)
}

func (v *txView) Get(ctx context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID) (*vacation.GrantSchedule, error) {
	return scheduleGet(ctx, v.e, employeeID, policyID)
}

func (v *txView) ListDue(ctx context.Context, today vacation.TimePoint) ([]*vacation.GrantSchedule, error) {
	return scheduleListDue(ctx, v.e, today)
}

func (v *txView) Update(ctx context.Context, row *vacation.GrantSchedule) error {
	return scheduleUpdate(ctx, v.e, row)
}

func (v *txView) SoftDelete(ctx context.Context, employeeID vacation.EmployeeID, policyID vacation.PolicyID, at vacation.TimePoint) error {
	_, err := v.e.q.ExecContext(ctx, `
		UPDATE grant_schedules SET deleted_at = ?
		WHERE employee_id = ? AND policy_id = ? AND deleted_at IS NULL`,
		at.Time.UTC().Format(timeLayout), string(employeeID), string(policyID))
	return err
}

func (v *txView) Append(ctx context.Context, grant vacation.Grant) error {
	return grantAppend(ctx, v.e, grant)
}

func (v *txView) ListByEmployee(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Grant, error) {
	return grantListByEmployee(ctx, v.e, employeeID)
}

// --- shared schedule queries ---

func scheduleCreate(ctx context.Context, e execer, row *vacation.GrantSchedule) error {
	_, err := e.q.ExecContext(ctx, `
		INSERT INTO grant_schedules (employee_id, policy_id, last_granted_at, next_grant_date, grant_count, version)
		VALUES (?, ?, ?, ?, ?, 1)`,
		string(row.EmployeeID), string(row.PolicyID),
		nullableInstant(row.LastGrantedAt), nullableDate(row.NextGrantDate), row.GrantCount)
	if isUniqueViolation(err) {
		return vacation.ErrDuplicateSchedule
	}
	if err == nil {
		row.Version = 1
	}
	return err
}

func scheduleGet(ctx context.Context, e execer, employeeID vacation.EmployeeID, policyID vacation.PolicyID) (*vacation.GrantSchedule, error) {
	row := e.q.QueryRowContext(ctx, `
		SELECT employee_id, policy_id, last_granted_at, next_grant_date, grant_count, version
		FROM grant_schedules
		WHERE employee_id = ? AND policy_id = ? AND deleted_at IS NULL`,
		string(employeeID), string(policyID))

	sched, err := scanSchedule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, vacation.ErrScheduleNotFound
	}
	return sched, err
}

func scheduleListDue(ctx context.Context, e execer, today vacation.TimePoint) ([]*vacation.GrantSchedule, error) {
	rows, err := e.q.QueryContext(ctx, `
		SELECT employee_id, policy_id, last_granted_at, next_grant_date, grant_count, version
		FROM grant_schedules
		WHERE deleted_at IS NULL AND next_grant_date IS NOT NULL AND next_grant_date <= ?
		ORDER BY next_grant_date`,
		today.Time.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vacation.GrantSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

func scheduleUpdate(ctx context.Context, e execer, row *vacation.GrantSchedule) error {
	res, err := e.q.ExecContext(ctx, `
		UPDATE grant_schedules
		SET last_granted_at = ?, next_grant_date = ?, grant_count = ?, version = version + 1
		WHERE employee_id = ? AND policy_id = ? AND version = ? AND deleted_at IS NULL`,
		nullableInstant(row.LastGrantedAt), nullableDate(row.NextGrantDate), row.GrantCount,
		string(row.EmployeeID), string(row.PolicyID), row.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or another worker advanced it first.
		if _, getErr := scheduleGet(ctx, e, row.EmployeeID, row.PolicyID); getErr != nil {
			return getErr
		}
		return vacation.ErrConcurrentModification
	}
	row.Version++
	return nil
}

func scanSchedule(scan func(dest ...any) error) (*vacation.GrantSchedule, error) {
	var (
		employeeID, policyID string
		lastGranted, nextDue sql.NullString
		grantCount, version  int
	)
	if err := scan(&employeeID, &policyID, &lastGranted, &nextDue, &grantCount, &version); err != nil {
		return nil, err
	}

	sched := &vacation.GrantSchedule{
		EmployeeID: vacation.EmployeeID(employeeID),
		PolicyID:   vacation.PolicyID(policyID),
		GrantCount: grantCount,
		Version:    version,
	}
	if lastGranted.Valid {
		t, err := time.Parse(timeLayout, lastGranted.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_granted_at: %w", err)
		}
		tp := vacation.FromTime(t)
		sched.LastGrantedAt = &tp
	}
	if nextDue.Valid {
		t, err := time.Parse(dateLayout, nextDue.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt next_grant_date: %w", err)
		}
		tp := vacation.NewTimePoint(t.Year(), t.Month(), t.Day())
		sched.NextGrantDate = &tp
	}
	return sched, nil
}

func nullableInstant(tp *vacation.TimePoint) any {
	if tp == nil {
		return nil
	}
	return tp.Time.UTC().Format(timeLayout)
}

func nullableDate(tp *vacation.TimePoint) any {
	if tp == nil {
		return nil
	}
	return tp.Time.UTC().Format(dateLayout)
}

// =============================================================================
// GRANT LOG - Append-only
// =============================================================================

type grantStore struct{ e execer }

var _ vacation.GrantLog = (*grantStore)(nil)

func (gs *grantStore) Append(ctx context.Context, grant vacation.Grant) error {
	return grantAppend(ctx, gs.e, grant)
}

func (gs *grantStore) ListByEmployee(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Grant, error) {
	return grantListByEmployee(ctx, gs.e, employeeID)
}

func grantAppend(ctx context.Context, e execer, grant vacation.Grant) error {
	_, err := e.q.ExecContext(ctx, `
		INSERT INTO grants (id, employee_id, policy_id, amount, effective_at, expires_at, granted_at, idempotency_key, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(grant.ID), string(grant.EmployeeID), string(grant.PolicyID),
		grant.Amount.Days.String(),
		grant.EffectiveAt.Time.UTC().Format(timeLayout),
		grant.ExpiresAt.Time.UTC().Format(timeLayout),
		grant.GrantedAt.Time.UTC().Format(timeLayout),
		nullableString(grant.IdempotencyKey), grant.Reason)
	if isUniqueViolation(err) {
		return vacation.ErrDuplicateGrant
	}
	return err
}

func grantListByEmployee(ctx context.Context, e execer, employeeID vacation.EmployeeID) ([]vacation.Grant, error) {
	rows, err := e.q.QueryContext(ctx, `
		SELECT id, employee_id, policy_id, amount, effective_at, expires_at, granted_at, idempotency_key, reason
		FROM grants WHERE employee_id = ? ORDER BY granted_at`,
		string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vacation.Grant
	for rows.Next() {
		var (
			g                           vacation.Grant
			id, empID, polID, amount    string
			effective, expires, granted string
			idemKey                     sql.NullString
		)
		if err := rows.Scan(&id, &empID, &polID, &amount, &effective, &expires, &granted, &idemKey, &g.Reason); err != nil {
			return nil, err
		}
		g.ID = vacation.GrantID(id)
		g.EmployeeID = vacation.EmployeeID(empID)
		g.PolicyID = vacation.PolicyID(polID)
		d, err := vacation.DurationFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt grant amount: %w", err)
		}
		g.Amount = d
		if g.EffectiveAt, err = parseInstant(effective); err != nil {
			return nil, err
		}
		if g.ExpiresAt, err = parseInstant(expires); err != nil {
			return nil, err
		}
		if g.GrantedAt, err = parseInstant(granted); err != nil {
			return nil, err
		}
		g.IdempotencyKey = idemKey.String
		out = append(out, g)
	}
	return out, rows.Err()
}

func parseInstant(s string) (vacation.TimePoint, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return vacation.TimePoint{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return vacation.FromTime(t), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation matches SQLite's UNIQUE constraint failure without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
