package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// LeaseRepository implements domain.LeaseRepository using SQLite.
type LeaseRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*LeaseRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*LeaseRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &LeaseRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *LeaseRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *LeaseRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

const leaseColumns = `id, unit_id, tenant_ids, start_date, end_date, signed_date, move_in_date,
	 monthly_rent, security_deposit, pet_deposit, late_fee, grace_period_days, rent_due_day,
	 lease_type, status, lease_terms, special_conditions,
	 termination_date, termination_reason, refund_amount, deduction_reason, early_termination_fee,
	 created_at, updated_at`

func (r *LeaseRepository) Create(ctx context.Context, l domain.Lease) error {
	tenants, err := json.Marshal(l.TenantIDs)
	if err != nil {
		return fmt.Errorf("encoding tenant ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO leases (`+leaseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UnitID, string(tenants),
		l.StartDate.Format(dateFormat),
		nullDate(l.EndDate), nullDate(l.SignedDate), nullDate(l.MoveInDate),
		l.MonthlyRent, l.SecurityDeposit, l.PetDeposit, l.LateFee, l.GracePeriodDays, l.RentDueDay,
		string(l.LeaseType), string(l.Status), l.LeaseTerms, l.SpecialConditions,
		nullDate(l.TerminationDate), l.TerminationReason, l.RefundAmount, l.DeductionReason, l.EarlyTerminationFee,
		l.CreatedAt.Format(timeFormat),
		l.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting lease: %w", err)
	}
	return nil
}

func (r *LeaseRepository) GetByID(ctx context.Context, id string) (domain.Lease, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leaseColumns+` FROM leases WHERE id = ?`, id,
	)

	l, err := scanLease(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Lease{}, domain.ErrLeaseNotFound
		}
		return domain.Lease{}, fmt.Errorf("scanning lease: %w", err)
	}
	return l, nil
}

func (r *LeaseRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.UnitID != "" {
		conds = append(conds, `unit_id = ?`)
		args = append(args, filter.UnitID)
	}
	if filter.TenantID != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM json_each(leases.tenant_ids) WHERE json_each.value = ?)`)
		args = append(args, filter.TenantID)
	}
	if filter.EndBefore != nil {
		conds = append(conds, `end_date IS NOT NULL AND end_date < ?`)
		args = append(args, filter.EndBefore.Format(dateFormat))
	}

	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	defer rows.Close()

	var leases []domain.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lease row: %w", err)
		}
		leases = append(leases, l)
	}

	return leases, rows.Err()
}

func (r *LeaseRepository) Update(ctx context.Context, l domain.Lease) error {
	tenants, err := json.Marshal(l.TenantIDs)
	if err != nil {
		return fmt.Errorf("encoding tenant ids: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE leases SET
			unit_id = ?, tenant_ids = ?, start_date = ?, end_date = ?, signed_date = ?, move_in_date = ?,
			monthly_rent = ?, security_deposit = ?, pet_deposit = ?, late_fee = ?, grace_period_days = ?, rent_due_day = ?,
			lease_type = ?, status = ?, lease_terms = ?, special_conditions = ?,
			termination_date = ?, termination_reason = ?, refund_amount = ?, deduction_reason = ?, early_termination_fee = ?,
			updated_at = ?
		 WHERE id = ?`,
		l.UnitID, string(tenants),
		l.StartDate.Format(dateFormat),
		nullDate(l.EndDate), nullDate(l.SignedDate), nullDate(l.MoveInDate),
		l.MonthlyRent, l.SecurityDeposit, l.PetDeposit, l.LateFee, l.GracePeriodDays, l.RentDueDay,
		string(l.LeaseType), string(l.Status), l.LeaseTerms, l.SpecialConditions,
		nullDate(l.TerminationDate), l.TerminationReason, l.RefundAmount, l.DeductionReason, l.EarlyTerminationFee,
		time.Now().UTC().Format(timeFormat), l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lease: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrLeaseNotFound
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows so one scan routine serves both.
type scanner interface {
	Scan(dest ...any) error
}

func scanLease(s scanner) (domain.Lease, error) {
	var l domain.Lease
	var tenants, leaseType, status, startDate, createdAt, updatedAt string
	var endDate, signedDate, moveInDate, terminationDate sql.NullString

	err := s.Scan(
		&l.ID, &l.UnitID, &tenants, &startDate, &endDate, &signedDate, &moveInDate,
		&l.MonthlyRent, &l.SecurityDeposit, &l.PetDeposit, &l.LateFee, &l.GracePeriodDays, &l.RentDueDay,
		&leaseType, &status, &l.LeaseTerms, &l.SpecialConditions,
		&terminationDate, &l.TerminationReason, &l.RefundAmount, &l.DeductionReason, &l.EarlyTerminationFee,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Lease{}, err
	}

	if err := json.Unmarshal([]byte(tenants), &l.TenantIDs); err != nil {
		return domain.Lease{}, fmt.Errorf("decoding tenant ids: %w", err)
	}

	l.LeaseType = domain.LeaseType(leaseType)
	l.Status = domain.Status(status)
	l.StartDate, _ = time.Parse(dateFormat, startDate)
	l.EndDate = parseNullDate(endDate)
	l.SignedDate = parseNullDate(signedDate)
	l.MoveInDate = parseNullDate(moveInDate)
	l.TerminationDate = parseNullDate(terminationDate)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	l.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return l, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateFormat)
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateFormat, s.String)
	if err != nil {
		return nil
	}
	return &t
}
