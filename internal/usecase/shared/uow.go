package shared

import (
	"context"
	"time"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
}

type Tx interface {
	Vouchers() VoucherRepository
	Attempts() AttemptRepository
	Audit() AuditRepository
	DB() db.DBTX
}

// VoucherRepository is the write-side store contract. Both uniqueness and
// at-most-once redemption are enforced here, by the backing store, not by
// in-process locks.
type VoucherRepository interface {
	// InsertIfDigestUnused fails with KindDuplicateKey when code_digest is
	// already taken, so the caller can retry generation.
	InsertIfDigestUnused(ctx context.Context, v *voucher.Voucher) error
	FindByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error)
	FindByDigest(ctx context.Context, digest []byte) (*voucher.Voucher, error)
	// CompareAndTransition applies mut as a single conditional UPDATE guarded
	// by the expected statuses. Zero affected rows surfaces KindStaleState.
	CompareAndTransition(ctx context.Context, id uuid.UUID, expected []voucher.Status, mut voucher.Mutation, now time.Time) (*voucher.Voucher, error)
}

type AttemptRepository interface {
	Record(ctx context.Context, attempt voucher.RedemptionAttempt) error
	CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error)
	CountSuccessesByActorSince(ctx context.Context, actorID string, since time.Time) (int, error)
}

type AuditRepository interface {
	Append(ctx context.Context, record voucher.AuditRecord) error
}

// Notifier is the fire-and-forget outbound messaging port. Implementations
// must never block a committed transition on delivery.
type Notifier interface {
	RedemptionCompleted(ctx context.Context, n RedemptionNotice)
	ExpiryApproaching(ctx context.Context, warnings []ExpiryWarning)
}

type RedemptionNotice struct {
	VoucherID    uuid.UUID
	HolderName   string
	RedeemedByID string
	ExpiresAt    time.Time
}

type ExpiryWarning struct {
	VoucherID  uuid.UUID
	HolderName string
	ExpiresAt  time.Time
}
