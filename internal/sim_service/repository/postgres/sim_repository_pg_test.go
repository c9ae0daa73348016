package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

func newTestRepo(t *testing.T) (*PgSimRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPgSimRepository(mockPool, logger), mockPool
}

func TestPgSimRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsIDAndInserts", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		rec := &domain.SimRecord{
			MSISDN: "919876543210", SimID: "SIM001", Endpoint: domain.EndpointNotSpecified,
			Plan: "PREPAID_UNLIMITED", Status: domain.StatusActive,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		}

		mockPool.ExpectExec(`INSERT INTO sim_records`).
			WithArgs(pgxmock.AnyArg(), rec.MSISDN, rec.SimID, rec.Endpoint, rec.Plan, rec.Operator,
				(*string)(nil), (*string)(nil), (*string)(nil), rec.Status, rec.CreatedAt, rec.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		saved, err := repo.Save(ctx, rec)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateSimID", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		rec := &domain.SimRecord{MSISDN: "919876543210", SimID: "SIM001", Plan: "P"}

		mockPool.ExpectExec(`INSERT INTO sim_records`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_sim_records_sim_id"})

		_, err := repo.Save(ctx, rec)
		require.ErrorIs(t, err, domain.ErrDuplicateSimID)
	})

	t.Run("DuplicateMSISDN", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		rec := &domain.SimRecord{MSISDN: "919876543210", SimID: "SIM002", Plan: "P"}

		mockPool.ExpectExec(`INSERT INTO sim_records`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_sim_records_msisdn"})

		_, err := repo.Save(ctx, rec)
		require.ErrorIs(t, err, domain.ErrDuplicateMSISDN)
	})
}

func TestPgSimRepository_GetBySimID(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("FoundWithAllowances", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		id := uuid.New()
		data, sms := "50GB", "1000"

		rows := mockPool.NewRows([]string{"id", "msisdn", "sim_id", "endpoint", "plan", "operator",
			"data_allowance", "sms_allowance", "voice_allowance", "status", "created_at", "updated_at"}).
			AddRow(id, "919876543210", "SIM001", "NOT_SPECIFIED", "PREPAID_UNLIMITED", "Airtel",
				&data, &sms, (*string)(nil), "ACTIVE", now, now)

		mockPool.ExpectQuery(`SELECT .+ FROM sim_records WHERE sim_id = \$1`).
			WithArgs("SIM001").
			WillReturnRows(rows)

		rec, err := repo.GetBySimID(ctx, "SIM001")
		require.NoError(t, err)
		assert.Equal(t, "SIM001", rec.SimID)
		require.NotNil(t, rec.Allowances)
		assert.Equal(t, "50GB", rec.Allowances.DataAllowance)
		assert.Equal(t, "", rec.Allowances.VoiceAllowance)
	})
}

func TestPgSimRepository_GetBySimID_NotFound(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	mockPool.ExpectQuery(`SELECT .+ FROM sim_records WHERE sim_id = \$1`).
		WithArgs("SIM404").
		WillReturnRows(mockPool.NewRows([]string{"id", "msisdn", "sim_id", "endpoint", "plan", "operator",
			"data_allowance", "sms_allowance", "voice_allowance", "status", "created_at", "updated_at"}))

	_, err := repo.GetBySimID(context.Background(), "SIM404")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPgSimRepository_ExistsBySimID(t *testing.T) {
	repo, mockPool := newTestRepo(t)

	mockPool.ExpectQuery(`SELECT EXISTS`).
		WithArgs("SIM001").
		WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsBySimID(context.Background(), "SIM001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPgSimRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "msisdn", "sim_id", "endpoint", "plan", "operator",
		"data_allowance", "sms_allowance", "voice_allowance", "status", "created_at", "updated_at"}

	t.Run("All", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		rows := mockPool.NewRows(cols).
			AddRow(uuid.New(), "919876543210", "SIM001", "NOT_SPECIFIED", "P1", "",
				(*string)(nil), (*string)(nil), (*string)(nil), "ACTIVE", now, now).
			AddRow(uuid.New(), "919876543211", "SIM002", "backend1", "P2", "",
				(*string)(nil), (*string)(nil), (*string)(nil), "ACTIVE", now, now)

		mockPool.ExpectQuery(`SELECT .+ FROM sim_records ORDER BY created_at ASC`).
			WillReturnRows(rows)

		records, err := repo.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Nil(t, records[0].Allowances)
	})

	t.Run("FilteredByStatus", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		rows := mockPool.NewRows(cols).
			AddRow(uuid.New(), "919876543210", "SIM001", "NOT_SPECIFIED", "P1", "",
				(*string)(nil), (*string)(nil), (*string)(nil), "SUSPENDED", now, now)

		mockPool.ExpectQuery(`SELECT .+ FROM sim_records WHERE status = \$1 ORDER BY created_at ASC`).
			WithArgs("SUSPENDED").
			WillReturnRows(rows)

		records, err := repo.List(ctx, "SUSPENDED")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestPgSimRepository_DeleteBySimID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		mockPool.ExpectExec(`DELETE FROM sim_records WHERE sim_id = \$1`).
			WithArgs("SIM001").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteBySimID(ctx, "SIM001"))
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newTestRepo(t)
		mockPool.ExpectExec(`DELETE FROM sim_records WHERE sim_id = \$1`).
			WithArgs("SIM404").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.ErrorIs(t, repo.DeleteBySimID(ctx, "SIM404"), domain.ErrNotFound)
	})
}

func TestPgSimRepository_CountByStatus(t *testing.T) {
	repo, mockPool := newTestRepo(t)
	mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM sim_records WHERE status = \$1`).
		WithArgs("ACTIVE").
		WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountByStatus(context.Background(), "ACTIVE")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
