//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra/db"
	"edupass/internal/pkg/clock"
	"edupass/internal/usecase/queries"
	"edupass/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

// fakeUoW only supports the read-only path; the query side must never open a
// write transaction.
type fakeUoW struct {
	readOnlyCalls int
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	panic("queries must not open write transactions")
}

func (u *fakeUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	u.readOnlyCalls++
	return fn(ctx, nil)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeReadStore struct {
	inTx bool

	view  *queries.VoucherView
	items []queries.VoucherListItem
	stats *queries.Statistics

	aggregatesInTx  bool
	aggregatesNow   time.Time
	listInTx        bool
	listFilteredErr error
}

func (s *fakeReadStore) WithTx(dbtx db.DBTX) queries.VoucherReadStore {
	s.inTx = true
	return s
}

func (s *fakeReadStore) FindViewByID(ctx context.Context, id uuid.UUID) (*queries.VoucherView, error) {
	view := *s.view
	return &view, nil
}

func (s *fakeReadStore) ListFiltered(ctx context.Context, institutionID string, filters queries.ListFilters, limit, offset int32) ([]queries.VoucherListItem, int64, error) {
	if s.listFilteredErr != nil {
		return nil, 0, s.listFilteredErr
	}
	s.listInTx = s.inTx
	items := make([]queries.VoucherListItem, len(s.items))
	copy(items, s.items)
	return items, int64(len(items)), nil
}

func (s *fakeReadStore) CountAggregates(ctx context.Context, institutionID string, now time.Time) (*queries.Statistics, error) {
	s.aggregatesInTx = s.inTx
	s.aggregatesNow = now
	return s.stats, nil
}

func (s *fakeReadStore) AuditByVoucher(ctx context.Context, id uuid.UUID) ([]queries.AuditRecordView, error) {
	return nil, nil
}

func timedOutItem(holder string) queries.VoucherListItem {
	passed := testNow.Add(-time.Hour)
	return queries.VoucherListItem{
		ID:         uuid.New(),
		HolderName: holder,
		Status:     voucher.StatusRedeemed.String(),
		ExpiresAt:  &passed,
	}
}

func TestStatistics(t *testing.T) {
	t.Run("aggregates inside a read-only transaction", func(t *testing.T) {
		uow := &fakeUoW{}
		store := &fakeReadStore{stats: &queries.Statistics{TotalIssued: 3}}
		q := queries.NewVoucherQueries(uow, store, clock.NewMockClock(testNow))

		stats, err := q.Statistics(context.Background(), "inst-001")
		require.NoError(t, err)

		assert.Equal(t, int64(3), stats.TotalIssued)
		assert.Equal(t, 1, uow.readOnlyCalls)
		assert.True(t, store.aggregatesInTx, "aggregates must run on the transaction-bound store")
		assert.Equal(t, testNow, store.aggregatesNow)
	})
}

func TestExport(t *testing.T) {
	t.Run("rows come from one read-only snapshot", func(t *testing.T) {
		uow := &fakeUoW{}
		upcoming := testNow.Add(24 * time.Hour)
		store := &fakeReadStore{items: []queries.VoucherListItem{
			{ID: uuid.New(), HolderName: "Ada", Status: voucher.StatusRedeemed.String(), ExpiresAt: &upcoming},
		}}
		q := queries.NewVoucherQueries(uow, store, clock.NewMockClock(testNow))

		export, err := q.Export(context.Background(), "inst-001", queries.ListFilters{})
		require.NoError(t, err)

		require.Len(t, export.Rows, 1)
		assert.Equal(t, 1, uow.readOnlyCalls)
		assert.True(t, store.listInTx, "export must list on the transaction-bound store")
	})

	t.Run("timed-out redeemed rows export as expired", func(t *testing.T) {
		uow := &fakeUoW{}
		store := &fakeReadStore{items: []queries.VoucherListItem{timedOutItem("Grace")}}
		q := queries.NewVoucherQueries(uow, store, clock.NewMockClock(testNow))

		export, err := q.Export(context.Background(), "inst-001", queries.ListFilters{})
		require.NoError(t, err)

		require.Len(t, export.Rows, 1)
		assert.Equal(t, voucher.StatusExpired.String(), export.Rows[0][4])
	})
}

func TestList(t *testing.T) {
	t.Run("timed-out redeemed rows list as expired", func(t *testing.T) {
		uow := &fakeUoW{}
		store := &fakeReadStore{items: []queries.VoucherListItem{timedOutItem("Grace")}}
		q := queries.NewVoucherQueries(uow, store, clock.NewMockClock(testNow))

		page, err := q.List(context.Background(), "inst-001", queries.ListFilters{}, 50, 0)
		require.NoError(t, err)

		require.Len(t, page.Items, 1)
		assert.Equal(t, voucher.StatusExpired.String(), page.Items[0].Status)
	})
}
