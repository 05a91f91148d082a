package queries

import (
	"context"
	"strconv"
	"time"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra/db"
	"edupass/internal/pkg/clock"
	"edupass/internal/pkg/errs"
	"edupass/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrVoucherNotFound = errs.New("voucher not found")

// Read models (DTO for read side). Views never carry the plaintext code;
// that is shown exactly once, at issuance.
type VoucherView struct {
	ID               uuid.UUID  `json:"id"`
	ValueMinorUnits  int64      `json:"value_minor_units"`
	LearnerCount     int        `json:"learner_count"`
	HolderName       string     `json:"holder_name"`
	Notes            *string    `json:"notes,omitempty"`
	Status           string     `json:"status"`
	InstitutionID    string     `json:"institution_id"`
	IssuedByUserID   string     `json:"issued_by_user_id"`
	IssuedAt         time.Time  `json:"issued_at"`
	RedeemedByUserID *string    `json:"redeemed_by_user_id,omitempty"`
	RedeemedAt       *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type VoucherListItem struct {
	ID              uuid.UUID  `json:"id"`
	ValueMinorUnits int64      `json:"value_minor_units"`
	LearnerCount    int        `json:"learner_count"`
	HolderName      string     `json:"holder_name"`
	Status          string     `json:"status"`
	IssuedAt        time.Time  `json:"issued_at"`
	RedeemedAt      *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type VoucherPage struct {
	Items  []VoucherListItem `json:"items"`
	Total  int64             `json:"total"`
	Limit  int32             `json:"limit"`
	Offset int32             `json:"offset"`
}

type ListFilters struct {
	Status     *voucher.Status
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	HolderName *string
}

// Statistics matches the reporting contract consumed by dashboards.
type Statistics struct {
	TotalIssued    int64 `json:"total_issued"`
	TotalRedeemed  int64 `json:"total_redeemed"`
	TotalActive    int64 `json:"total_active"`
	TotalExpired   int64 `json:"total_expired"`
	TotalCancelled int64 `json:"total_cancelled"`
	TotalValue     int64 `json:"total_value"`
	RedeemedValue  int64 `json:"redeemed_value"`
	ActiveValue    int64 `json:"active_value"`
	TotalLearners  int64 `json:"total_learners"`
	ActiveLearners int64 `json:"active_learners"`
}

type AuditRecordView struct {
	ID         uuid.UUID      `json:"id"`
	VoucherID  uuid.UUID      `json:"voucher_id"`
	Action     string         `json:"action"`
	ActorID    *string        `json:"actor_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// Export is a typed tabular payload; CSV/Excel rendering stays outside the
// core.
type Export struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type VoucherQueries interface {
	GetByID(ctx context.Context, institutionID string, id uuid.UUID) (*VoucherView, error)
	List(ctx context.Context, institutionID string, filters ListFilters, limit, offset int32) (*VoucherPage, error)
	Statistics(ctx context.Context, institutionID string) (*Statistics, error)
	AuditTrail(ctx context.Context, institutionID string, id uuid.UUID) ([]AuditRecordView, error)
	Export(ctx context.Context, institutionID string, filters ListFilters) (*Export, error)
}

type VoucherReadStore interface {
	FindViewByID(ctx context.Context, id uuid.UUID) (*VoucherView, error)
	ListFiltered(ctx context.Context, institutionID string, filters ListFilters, limit, offset int32) ([]VoucherListItem, int64, error)
	CountAggregates(ctx context.Context, institutionID string, now time.Time) (*Statistics, error)
	AuditByVoucher(ctx context.Context, id uuid.UUID) ([]AuditRecordView, error)
	// WithTx rebinds the store to a transaction for snapshot reads.
	WithTx(dbtx db.DBTX) VoucherReadStore
}

type voucherQueriesImpl struct {
	uow   shared.UnitOfWork
	store VoucherReadStore
	clock clock.Clock
}

func NewVoucherQueries(uow shared.UnitOfWork, store VoucherReadStore, clk clock.Clock) VoucherQueries {
	return &voucherQueriesImpl{uow: uow, store: store, clock: clk}
}

func (q *voucherQueriesImpl) GetByID(ctx context.Context, institutionID string, id uuid.UUID) (*VoucherView, error) {
	view, err := q.store.FindViewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Tenant scoping: a voucher from another institution does not exist as
	// far as the caller is concerned.
	if view.InstitutionID != institutionID {
		return nil, ErrVoucherNotFound
	}
	applyLazyExpiry(view, q.clock.Now())
	return view, nil
}

func (q *voucherQueriesImpl) List(ctx context.Context, institutionID string, filters ListFilters, limit, offset int32) (*VoucherPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := q.store.ListFiltered(ctx, institutionID, filters, limit, offset)
	if err != nil {
		return nil, err
	}
	lazyExpireItems(items, q.clock.Now())
	return &VoucherPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Statistics aggregates inside a read-only transaction so the counts come
// from one snapshot even under concurrent writes.
func (q *voucherQueriesImpl) Statistics(ctx context.Context, institutionID string) (*Statistics, error) {
	var stats *Statistics
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		var err error
		stats, err = q.store.WithTx(dbtx).CountAggregates(ctx, institutionID, q.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (q *voucherQueriesImpl) AuditTrail(ctx context.Context, institutionID string, id uuid.UUID) ([]AuditRecordView, error) {
	view, err := q.store.FindViewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.InstitutionID != institutionID {
		return nil, ErrVoucherNotFound
	}
	return q.store.AuditByVoucher(ctx, id)
}

var exportHeader = []string{
	"id", "holder_name", "value_minor_units", "learner_count", "status",
	"issued_at", "redeemed_at", "expires_at",
}

// Export reads the count and the rows inside one read-only transaction; an
// export must not interleave with concurrent issuance.
func (q *voucherQueriesImpl) Export(ctx context.Context, institutionID string, filters ListFilters) (*Export, error) {
	var items []VoucherListItem
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		var err error
		items, _, err = q.store.WithTx(dbtx).ListFiltered(ctx, institutionID, filters, 0, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	lazyExpireItems(items, q.clock.Now())

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID.String(),
			item.HolderName,
			strconv.FormatInt(item.ValueMinorUnits, 10),
			strconv.Itoa(item.LearnerCount),
			item.Status,
			item.IssuedAt.Format(time.RFC3339),
			formatOptionalTime(item.RedeemedAt),
			formatOptionalTime(item.ExpiresAt),
		})
	}
	return &Export{Header: exportHeader, Rows: rows}, nil
}

// applyLazyExpiry reports a redeemed voucher whose window has passed as
// expired without waiting for the sweep; the stored transition stays the
// scheduler's job.
func applyLazyExpiry(view *VoucherView, now time.Time) {
	if view.Status == voucher.StatusRedeemed.String() &&
		view.ExpiresAt != nil && now.After(*view.ExpiresAt) {
		view.Status = voucher.StatusExpired.String()
	}
}

func lazyExpireItems(items []VoucherListItem, now time.Time) {
	for i := range items {
		if items[i].Status == voucher.StatusRedeemed.String() &&
			items[i].ExpiresAt != nil && now.After(*items[i].ExpiresAt) {
			items[i].Status = voucher.StatusExpired.String()
		}
	}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
