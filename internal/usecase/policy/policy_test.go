//go:build unit

package policy_test

import (
	"context"
	"testing"
	"time"

	"edupass/internal/domain/actor"
	"edupass/internal/domain/voucher"
	"edupass/internal/pkg/config"
	"edupass/internal/usecase/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttempts struct {
	attempts  []voucher.RedemptionAttempt
	successes []voucher.RedemptionAttempt
}

func (f *fakeAttempts) Record(_ context.Context, attempt voucher.RedemptionAttempt) error {
	f.attempts = append(f.attempts, attempt)
	if attempt.Outcome == voucher.AttemptSuccess {
		f.successes = append(f.successes, attempt)
	}
	return nil
}

func (f *fakeAttempts) CountByActorSince(_ context.Context, actorID string, since time.Time) (int, error) {
	count := 0
	for _, a := range f.attempts {
		if a.ActorID == actorID && !a.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttempts) CountSuccessesByActorSince(_ context.Context, actorID string, since time.Time) (int, error) {
	count := 0
	for _, a := range f.successes {
		if a.ActorID == actorID && !a.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func newPolicy() *policy.RedemptionPolicy {
	return policy.NewRedemptionPolicy(config.VoucherConfig{
		AttemptsPerHour:      3,
		MonthlyRedemptionCap: 2,
	})
}

func parent() actor.Actor {
	return actor.Actor{ID: "user-parent-001", InstitutionID: "inst-001", Role: actor.RoleParent}
}

func teacher() actor.Actor {
	return actor.Actor{ID: "user-teacher-001", InstitutionID: "inst-001", Role: actor.RoleTeacher}
}

func admin() actor.Actor {
	return actor.Actor{ID: "user-admin-001", InstitutionID: "inst-001", Role: actor.RoleAdmin}
}

func TestCheckIssueEligibility(t *testing.T) {
	p := newPolicy()

	assert.NoError(t, p.CheckIssueEligibility(teacher()))
	assert.NoError(t, p.CheckIssueEligibility(admin()))
	assert.ErrorIs(t, p.CheckIssueEligibility(parent()), policy.ErrRoleNotPermitted)
}

func TestCheckRedeemEligibility(t *testing.T) {
	p := newPolicy()

	assert.NoError(t, p.CheckRedeemEligibility(parent()))
	assert.NoError(t, p.CheckRedeemEligibility(teacher()))
	assert.ErrorIs(t, p.CheckRedeemEligibility(admin()), policy.ErrRoleNotPermitted)
}

func TestCheckRateLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	a := parent()

	record := func(f *fakeAttempts, at time.Time, outcome voucher.AttemptOutcome) {
		require.NoError(t, f.Record(ctx, voucher.NewRedemptionAttempt(nil, a.ID, outcome, "", at)))
	}

	t.Run("under the limit", func(t *testing.T) {
		f := &fakeAttempts{}
		record(f, now.Add(-10*time.Minute), voucher.AttemptFailure)
		record(f, now.Add(-20*time.Minute), voucher.AttemptFailure)

		assert.NoError(t, newPolicy().CheckRateLimit(ctx, f, a, now))
	})

	t.Run("failures count toward the limit", func(t *testing.T) {
		f := &fakeAttempts{}
		record(f, now.Add(-10*time.Minute), voucher.AttemptFailure)
		record(f, now.Add(-20*time.Minute), voucher.AttemptFailure)
		record(f, now.Add(-30*time.Minute), voucher.AttemptSuccess)

		assert.ErrorIs(t, newPolicy().CheckRateLimit(ctx, f, a, now), policy.ErrRateLimited)
	})

	t.Run("attempts outside the rolling hour do not count", func(t *testing.T) {
		f := &fakeAttempts{}
		record(f, now.Add(-2*time.Hour), voucher.AttemptFailure)
		record(f, now.Add(-90*time.Minute), voucher.AttemptFailure)
		record(f, now.Add(-61*time.Minute), voucher.AttemptFailure)
		record(f, now.Add(-5*time.Minute), voucher.AttemptFailure)

		assert.NoError(t, newPolicy().CheckRateLimit(ctx, f, a, now))
	})

	t.Run("other actors do not count", func(t *testing.T) {
		f := &fakeAttempts{}
		other := "user-parent-002"
		for i := 0; i < 5; i++ {
			require.NoError(t, f.Record(ctx, voucher.NewRedemptionAttempt(nil, other, voucher.AttemptFailure, "", now.Add(-time.Minute))))
		}

		assert.NoError(t, newPolicy().CheckRateLimit(ctx, f, a, now))
	})
}

func TestCheckMonthlyCap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	a := parent()

	success := func(f *fakeAttempts, at time.Time) {
		require.NoError(t, f.Record(ctx, voucher.NewRedemptionAttempt(nil, a.ID, voucher.AttemptSuccess, "", at)))
	}

	t.Run("under the cap", func(t *testing.T) {
		f := &fakeAttempts{}
		success(f, now.Add(-24*time.Hour))

		assert.NoError(t, newPolicy().CheckMonthlyCap(ctx, f, a, now))
	})

	t.Run("at the cap", func(t *testing.T) {
		f := &fakeAttempts{}
		success(f, now.Add(-24*time.Hour))
		success(f, now.Add(-48*time.Hour))

		assert.ErrorIs(t, newPolicy().CheckMonthlyCap(ctx, f, a, now), policy.ErrMonthlyCapExceeded)
	})

	t.Run("failures do not count toward the cap", func(t *testing.T) {
		f := &fakeAttempts{}
		success(f, now.Add(-24*time.Hour))
		for i := 0; i < 5; i++ {
			require.NoError(t, f.Record(ctx, voucher.NewRedemptionAttempt(nil, a.ID, voucher.AttemptFailure, "expired", now.Add(-time.Hour))))
		}

		assert.NoError(t, newPolicy().CheckMonthlyCap(ctx, f, a, now))
	})

	t.Run("successes older than 30 days roll off", func(t *testing.T) {
		f := &fakeAttempts{}
		success(f, now.Add(-31*24*time.Hour))
		success(f, now.Add(-32*24*time.Hour))

		assert.NoError(t, newPolicy().CheckMonthlyCap(ctx, f, a, now))
	})

	t.Run("teachers are not capped", func(t *testing.T) {
		f := &fakeAttempts{}
		tch := teacher()
		for i := 0; i < 10; i++ {
			require.NoError(t, f.Record(ctx, voucher.NewRedemptionAttempt(nil, tch.ID, voucher.AttemptSuccess, "", now.Add(-time.Hour))))
		}

		assert.NoError(t, newPolicy().CheckMonthlyCap(ctx, f, tch, now))
	})
}

func TestCanCancel(t *testing.T) {
	p := newPolicy()

	issuer := teacher()
	assert.True(t, p.CanCancel(issuer, issuer.ID))
	assert.False(t, p.CanCancel(issuer, "user-teacher-999"))
	assert.True(t, p.CanCancel(admin(), "user-teacher-999"))
	assert.False(t, p.CanCancel(parent(), "user-teacher-999"))
}
