package readstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"edupass/internal/infra"
	"edupass/internal/infra/db"
	"edupass/internal/usecase/queries"
	"edupass/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VoucherReadStore serves the query side. Single-query reads run straight off
// the pool; snapshot reads rebind through WithTx to a read-only transaction.
type VoucherReadStore struct {
	db db.DBTX
}

func NewVoucherReadStore(pool *pgxpool.Pool) *VoucherReadStore {
	return &VoucherReadStore{db: pool}
}

func (s *VoucherReadStore) WithTx(dbtx db.DBTX) queries.VoucherReadStore {
	return &VoucherReadStore{db: dbtx}
}

const findViewSQL = `
	SELECT id, value_minor_units, learner_count, holder_name, notes, status,
		institution_id, issued_by_user_id, issued_at,
		redeemed_by_user_id, redeemed_at, expires_at
	FROM vouchers
	WHERE id = $1`

func (s *VoucherReadStore) FindViewByID(ctx context.Context, id uuid.UUID) (*queries.VoucherView, error) {
	var (
		view  queries.VoucherView
		notes string
	)
	err := s.db.QueryRow(ctx, findViewSQL, id).Scan(
		&view.ID, &view.ValueMinorUnits, &view.LearnerCount, &view.HolderName,
		&notes, &view.Status, &view.InstitutionID, &view.IssuedByUserID,
		&view.IssuedAt, &view.RedeemedByUserID, &view.RedeemedAt, &view.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("voucher not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read voucher view", err)
	}
	if notes != "" {
		view.Notes = &notes
	}
	return &view, nil
}

// buildListWhere assembles the WHERE clause shared by List, count and export.
// Filters are ANDed; the institution scope is always present.
func buildListWhere(institutionID string, filters queries.ListFilters) (string, []any) {
	conds := []string{"institution_id = $1"}
	args := []any{institutionID}

	if filters.Status != nil {
		args = append(args, filters.Status.String())
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.IssuedFrom != nil {
		args = append(args, *filters.IssuedFrom)
		conds = append(conds, fmt.Sprintf("issued_at >= $%d", len(args)))
	}
	if filters.IssuedTo != nil {
		args = append(args, *filters.IssuedTo)
		conds = append(conds, fmt.Sprintf("issued_at < $%d", len(args)))
	}
	if filters.HolderName != nil {
		args = append(args, "%"+*filters.HolderName+"%")
		conds = append(conds, fmt.Sprintf("holder_name ILIKE $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (s *VoucherReadStore) ListFiltered(
	ctx context.Context,
	institutionID string,
	filters queries.ListFilters,
	limit, offset int32,
) ([]queries.VoucherListItem, int64, error) {
	where, args := buildListWhere(institutionID, filters)

	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM vouchers WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count vouchers", err)
	}

	query := `
		SELECT id, value_minor_units, learner_count, holder_name, status,
			issued_at, redeemed_at, expires_at
		FROM vouchers
		WHERE ` + where + `
		ORDER BY issued_at DESC, id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to list vouchers", err)
	}
	defer rows.Close()

	items := make([]queries.VoucherListItem, 0)
	for rows.Next() {
		var item queries.VoucherListItem
		if err := rows.Scan(
			&item.ID, &item.ValueMinorUnits, &item.LearnerCount, &item.HolderName,
			&item.Status, &item.IssuedAt, &item.RedeemedAt, &item.ExpiresAt,
		); err != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan voucher list row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to iterate voucher list", err)
	}
	return items, total, nil
}

// Redeemed rows whose window has passed count as expired, matching the lazy
// classification the detail and list reads apply. status = 'redeemed'
// guarantees expires_at is set, so the comparison never hits NULL.
const aggregatesSQL = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'redeemed' AND expires_at > $2),
		COUNT(*) FILTER (WHERE status = 'active'),
		COUNT(*) FILTER (WHERE status = 'expired' OR (status = 'redeemed' AND expires_at <= $2)),
		COUNT(*) FILTER (WHERE status = 'cancelled'),
		COALESCE(SUM(value_minor_units), 0),
		COALESCE(SUM(value_minor_units) FILTER (WHERE status = 'redeemed' AND expires_at > $2), 0),
		COALESCE(SUM(value_minor_units) FILTER (WHERE status = 'active'), 0),
		COALESCE(SUM(learner_count), 0),
		COALESCE(SUM(learner_count) FILTER (WHERE status = 'active'), 0)
	FROM vouchers
	WHERE institution_id = $1`

func (s *VoucherReadStore) CountAggregates(ctx context.Context, institutionID string, now time.Time) (*queries.Statistics, error) {
	var stats queries.Statistics
	err := s.db.QueryRow(ctx, aggregatesSQL, institutionID, now).Scan(
		&stats.TotalIssued, &stats.TotalRedeemed, &stats.TotalActive,
		&stats.TotalExpired, &stats.TotalCancelled,
		&stats.TotalValue, &stats.RedeemedValue, &stats.ActiveValue,
		&stats.TotalLearners, &stats.ActiveLearners,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to aggregate voucher statistics", err)
	}
	return &stats, nil
}

const auditByVoucherSQL = `
	SELECT id, voucher_id, action, actor_id, metadata, recorded_at
	FROM audit_records
	WHERE voucher_id = $1
	ORDER BY recorded_at ASC, id ASC`

func (s *VoucherReadStore) AuditByVoucher(ctx context.Context, id uuid.UUID) ([]queries.AuditRecordView, error) {
	rows, err := s.db.Query(ctx, auditByVoucherSQL, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read audit trail", err)
	}
	defer rows.Close()

	records := make([]queries.AuditRecordView, 0)
	for rows.Next() {
		var (
			record   queries.AuditRecordView
			metadata []byte
		)
		if err := rows.Scan(
			&record.ID, &record.VoucherID, &record.Action,
			&record.ActorID, &metadata, &record.RecordedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan audit record", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
				return nil, infra.WrapRepoErr("failed to decode audit metadata", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate audit trail", err)
	}
	return records, nil
}

const timedOutRedeemedSQL = `
	SELECT id
	FROM vouchers
	WHERE status = 'redeemed' AND expires_at <= $1
	ORDER BY expires_at ASC
	LIMIT $2`

// ListTimedOutRedeemedIDs feeds the expiry sweep. The partial index on
// (expires_at) WHERE status = 'redeemed' keeps this cheap.
func (s *VoucherReadStore) ListTimedOutRedeemedIDs(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, timedOutRedeemedSQL, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list timed-out vouchers", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan timed-out voucher id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate timed-out vouchers", err)
	}
	return ids, nil
}

const expiringWithinSQL = `
	SELECT id, holder_name, expires_at
	FROM vouchers
	WHERE status = 'redeemed' AND expires_at > $1 AND expires_at <= $2
	ORDER BY expires_at ASC`

func (s *VoucherReadStore) ListExpiringWithin(ctx context.Context, from, until time.Time) ([]shared.ExpiryWarning, error) {
	rows, err := s.db.Query(ctx, expiringWithinSQL, from, until)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expiring vouchers", err)
	}
	defer rows.Close()

	warnings := make([]shared.ExpiryWarning, 0)
	for rows.Next() {
		var (
			warning   shared.ExpiryWarning
			expiresAt time.Time
		)
		if err := rows.Scan(&warning.VoucherID, &warning.HolderName, &expiresAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan expiring voucher", err)
		}
		warning.ExpiresAt = expiresAt
		warnings = append(warnings, warning)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expiring vouchers", err)
	}
	return warnings, nil
}

var _ queries.VoucherReadStore = (*VoucherReadStore)(nil)
