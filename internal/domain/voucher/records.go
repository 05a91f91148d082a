package voucher

import (
	"time"

	"github.com/google/uuid"
)

type AttemptOutcome string

const (
	AttemptSuccess AttemptOutcome = "success"
	AttemptFailure AttemptOutcome = "failure"
)

// RedemptionAttempt is recorded once per redemption attempt, success or
// failure. Attempts are never mutated; the rolling rate-limit windows are
// derived from this log so the limit holds across restarts and instances.
type RedemptionAttempt struct {
	ID          uuid.UUID
	VoucherID   *uuid.UUID // nil when the code resolved to no voucher
	ActorID     string
	Outcome     AttemptOutcome
	Reason      string
	AttemptedAt time.Time
}

func NewRedemptionAttempt(voucherID *uuid.UUID, actorID string, outcome AttemptOutcome, reason string, at time.Time) RedemptionAttempt {
	return RedemptionAttempt{
		ID:          uuid.New(),
		VoucherID:   voucherID,
		ActorID:     actorID,
		Outcome:     outcome,
		Reason:      reason,
		AttemptedAt: at,
	}
}

// AuditRecord captures one lifecycle transition. Append-only; never updated
// or deleted once written.
type AuditRecord struct {
	ID         uuid.UUID
	VoucherID  uuid.UUID
	Action     Action
	ActorID    *string
	Metadata   map[string]any
	RecordedAt time.Time
}

func NewAuditRecord(voucherID uuid.UUID, action Action, actorID *string, metadata map[string]any, at time.Time) AuditRecord {
	return AuditRecord{
		ID:         uuid.New(),
		VoucherID:  voucherID,
		Action:     action,
		ActorID:    actorID,
		Metadata:   metadata,
		RecordedAt: at,
	}
}
