//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables between tests
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}

// SetVoucherExpiry rewrites a voucher's stored expiry so tests can move a
// redeemed voucher past its window without waiting for wall-clock time.
func SetVoucherExpiry(t *testing.T, db DBLike, voucherID uuid.UUID, expiresAt time.Time) {
	t.Helper()

	tag, err := db.Exec(context.Background(),
		"UPDATE vouchers SET expires_at = $2 WHERE id = $1", voucherID, expiresAt)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected(), "voucher not found when backdating expiry")
}

// CountAttemptsByActor returns how many redemption attempts (any outcome) are
// recorded for an actor.
func CountAttemptsByActor(t *testing.T, db DBLike, actorID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM redemption_attempts WHERE actor_id = $1", actorID).Scan(&count)
	require.NoError(t, err)
	return count
}
