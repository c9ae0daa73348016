package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; it lets tests
// substitute a pgxmock pool.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgSimRepository struct {
	db     PgxIface
	logger *slog.Logger
}

func NewPgSimRepository(db PgxIface, logger *slog.Logger) *PgSimRepository {
	return &PgSimRepository{db: db, logger: logger.With("component", "sim_repository_pg")}
}

const simColumns = `id, msisdn, sim_id, endpoint, plan, operator, data_allowance, sms_allowance, voice_allowance, status, created_at, updated_at`

// Save inserts the record, assigning its identity. Unique-constraint
// violations on sim_id / msisdn are the authoritative duplicate signal and
// are translated to the matching domain error.
func (r *PgSimRepository) Save(ctx context.Context, rec *domain.SimRecord) (*domain.SimRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var data, sms, voice *string
	if rec.Allowances != nil {
		data = &rec.Allowances.DataAllowance
		sms = &rec.Allowances.SMSAllowance
		voice = &rec.Allowances.VoiceAllowance
	}

	query := `
		INSERT INTO sim_records (id, msisdn, sim_id, endpoint, plan, operator, data_allowance, sms_allowance, voice_allowance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.MSISDN, rec.SimID, rec.Endpoint, rec.Plan, rec.Operator,
		data, sms, voice, rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "msisdn") {
				r.logger.WarnContext(ctx, "Duplicate msisdn on insert", "msisdn", rec.MSISDN)
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateMSISDN, rec.MSISDN)
			}
			r.logger.WarnContext(ctx, "Duplicate sim_id on insert", "sim_id", rec.SimID)
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateSimID, rec.SimID)
		}
		r.logger.ErrorContext(ctx, "Error inserting sim record", "error", err, "sim_id", rec.SimID)
		return nil, err
	}
	return rec, nil
}

func (r *PgSimRepository) GetBySimID(ctx context.Context, simID string) (*domain.SimRecord, error) {
	query := `SELECT ` + simColumns + ` FROM sim_records WHERE sim_id = $1`
	return r.queryOne(ctx, query, simID)
}

func (r *PgSimRepository) GetByMSISDN(ctx context.Context, msisdn string) (*domain.SimRecord, error) {
	query := `SELECT ` + simColumns + ` FROM sim_records WHERE msisdn = $1`
	return r.queryOne(ctx, query, msisdn)
}

func (r *PgSimRepository) queryOne(ctx context.Context, query string, arg any) (*domain.SimRecord, error) {
	rec, err := scanSimRecord(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error querying sim record", "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *PgSimRepository) ExistsBySimID(ctx context.Context, simID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sim_records WHERE sim_id = $1)`, simID).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error checking sim_id existence", "error", err, "sim_id", simID)
		return false, err
	}
	return exists, nil
}

func (r *PgSimRepository) List(ctx context.Context, status string) ([]*domain.SimRecord, error) {
	query := `SELECT ` + simColumns + ` FROM sim_records ORDER BY created_at ASC`
	args := []any{}
	if status != "" {
		query = `SELECT ` + simColumns + ` FROM sim_records WHERE status = $1 ORDER BY created_at ASC`
		args = append(args, status)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing sim records", "error", err, "status", status)
		return nil, err
	}
	defer rows.Close()

	var records []*domain.SimRecord
	for rows.Next() {
		rec, err := scanSimRecord(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning sim record row", "error", err)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating sim record rows", "error", err)
		return nil, err
	}
	return records, nil
}

func (r *PgSimRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sim_records WHERE status = $1`, status).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting sim records", "error", err, "status", status)
		return 0, err
	}
	return count, nil
}

func (r *PgSimRepository) DeleteBySimID(ctx context.Context, simID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sim_records WHERE sim_id = $1`, simID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting sim record", "error", err, "sim_id", simID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSimRecord(row pgx.Row) (*domain.SimRecord, error) {
	rec := &domain.SimRecord{}
	var data, sms, voice *string
	err := row.Scan(
		&rec.ID, &rec.MSISDN, &rec.SimID, &rec.Endpoint, &rec.Plan, &rec.Operator,
		&data, &sms, &voice, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if data != nil || sms != nil || voice != nil {
		rec.Allowances = &domain.Allowances{
			DataAllowance:  deref(data),
			SMSAllowance:   deref(sms),
			VoiceAllowance: deref(voice),
		}
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
