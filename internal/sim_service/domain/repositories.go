package domain

import "context"

// SimRepository defines persistence for canonical SIM records. The storage
// layer's unique constraints on sim_id and msisdn are the authoritative
// duplicate check; implementations must surface violations as
// ErrDuplicateSimID / ErrDuplicateMSISDN.
type SimRepository interface {
	Save(ctx context.Context, rec *SimRecord) (*SimRecord, error)
	GetBySimID(ctx context.Context, simID string) (*SimRecord, error)
	GetByMSISDN(ctx context.Context, msisdn string) (*SimRecord, error)
	ExistsBySimID(ctx context.Context, simID string) (bool, error)
	List(ctx context.Context, status string) ([]*SimRecord, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	DeleteBySimID(ctx context.Context, simID string) error
}
