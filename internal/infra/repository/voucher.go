package repository

import (
	"context"
	"errors"
	"time"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra"
	"edupass/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation = "23505"

	voucherColumns = `id, code, code_digest, salt, salted_digest, value_minor_units,
		learner_count, holder_name, notes, status, institution_id, issued_by_user_id,
		issued_at, redeemed_by_user_id, redeemed_at, expires_at`
)

type VoucherRepository struct {
	db db.DBTX
}

func NewVoucherRepository(dbtx db.DBTX) *VoucherRepository {
	return &VoucherRepository{db: dbtx}
}

const insertVoucherSQL = `
	INSERT INTO vouchers (
		id, code, code_digest, salt, salted_digest, value_minor_units,
		learner_count, holder_name, notes, status, institution_id,
		issued_by_user_id, issued_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (r *VoucherRepository) InsertIfDigestUnused(ctx context.Context, v *voucher.Voucher) error {
	_, err := r.db.Exec(ctx, insertVoucherSQL,
		v.ID(),
		v.Code(),
		v.CodeDigest(),
		v.Salt(),
		v.SaltedDigest(),
		v.Value().MinorUnits(),
		v.LearnerCount().Value(),
		v.HolderName().String(),
		v.Notes().String(),
		v.Status().String(),
		v.InstitutionID(),
		v.IssuedByUserID(),
		v.IssuedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("code digest already in use", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert voucher", err)
	}
	return nil
}

func (r *VoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	row := r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id)
	return scanVoucher(row)
}

func (r *VoucherRepository) FindByDigest(ctx context.Context, digest []byte) (*voucher.Voucher, error) {
	row := r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code_digest = $1`, digest)
	return scanVoucher(row)
}

const compareAndTransitionSQL = `
	UPDATE vouchers
	SET status = $2,
		redeemed_by_user_id = $3,
		redeemed_at = $4,
		expires_at = $5,
		updated_at = $6
	WHERE id = $1 AND status = ANY($7)
	RETURNING ` + voucherColumns

// CompareAndTransition is the single atomic primitive behind every status
// change. The expected-status guard sits in the UPDATE itself, so two
// concurrent redemptions of the same voucher cannot both match the row.
func (r *VoucherRepository) CompareAndTransition(
	ctx context.Context,
	id uuid.UUID,
	expected []voucher.Status,
	mut voucher.Mutation,
	now time.Time,
) (*voucher.Voucher, error) {
	expectedStrs := make([]string, len(expected))
	for i, s := range expected {
		expectedStrs[i] = s.String()
	}

	row := r.db.QueryRow(ctx, compareAndTransitionSQL,
		id,
		mut.Status.String(),
		mut.RedeemedByUserID,
		mut.RedeemedAt,
		mut.ExpiresAt,
		now,
		expectedStrs,
	)

	v, err := scanVoucher(row)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, infra.WrapRepoErr("voucher not in expected status", nil, infra.KindStaleState)
		}
		return nil, err
	}
	return v, nil
}

func scanVoucher(row pgx.Row) (*voucher.Voucher, error) {
	var (
		id               uuid.UUID
		code             string
		codeDigest       []byte
		salt             []byte
		saltedDigest     []byte
		valueMinorUnits  int64
		learnerCount     int
		holderName       string
		notes            string
		status           string
		institutionID    string
		issuedByUserID   string
		issuedAt         time.Time
		redeemedByUserID *string
		redeemedAt       *time.Time
		expiresAt        *time.Time
	)

	err := row.Scan(
		&id, &code, &codeDigest, &salt, &saltedDigest, &valueMinorUnits,
		&learnerCount, &holderName, &notes, &status, &institutionID,
		&issuedByUserID, &issuedAt, &redeemedByUserID, &redeemedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("voucher not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan voucher row", err)
	}

	parsedStatus, err := voucher.NewStatus(status)
	if err != nil {
		return nil, infra.WrapRepoErr("voucher row has unknown status", err)
	}

	v, err := voucher.Reconstruct(
		id, code, codeDigest, salt, saltedDigest,
		valueMinorUnits, learnerCount, holderName, notes,
		parsedStatus, institutionID, issuedByUserID, issuedAt,
		redeemedByUserID, redeemedAt, expiresAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to reconstruct voucher", err)
	}
	return v, nil
}
