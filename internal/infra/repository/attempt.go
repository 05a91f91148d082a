package repository

import (
	"context"
	"time"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra"
	"edupass/internal/infra/db"
)

type AttemptRepository struct {
	db db.DBTX
}

func NewAttemptRepository(dbtx db.DBTX) *AttemptRepository {
	return &AttemptRepository{db: dbtx}
}

const insertAttemptSQL = `
	INSERT INTO redemption_attempts (id, voucher_id, actor_id, outcome, reason, attempted_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

func (r *AttemptRepository) Record(ctx context.Context, attempt voucher.RedemptionAttempt) error {
	_, err := r.db.Exec(ctx, insertAttemptSQL,
		attempt.ID,
		attempt.VoucherID,
		attempt.ActorID,
		string(attempt.Outcome),
		attempt.Reason,
		attempt.AttemptedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to record redemption attempt", err)
	}
	return nil
}

func (r *AttemptRepository) CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM redemption_attempts WHERE actor_id = $1 AND attempted_at >= $2`,
		actorID, since,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count redemption attempts", err)
	}
	return count, nil
}

func (r *AttemptRepository) CountSuccessesByActorSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM redemption_attempts
		 WHERE actor_id = $1 AND outcome = $2 AND attempted_at >= $3`,
		actorID, string(voucher.AttemptSuccess), since,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count successful redemptions", err)
	}
	return count, nil
}
