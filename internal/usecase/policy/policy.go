package policy

import (
	"context"
	"time"

	"edupass/internal/domain/actor"
	"edupass/internal/pkg/config"
	"edupass/internal/pkg/errs"
	"edupass/internal/usecase/shared"
)

var (
	ErrRoleNotPermitted   = errs.New("role is not permitted to perform this operation")
	ErrRateLimited        = errs.New("too many redemption attempts")
	ErrMonthlyCapExceeded = errs.New("monthly redemption cap reached")
)

const (
	rateLimitWindow  = time.Hour
	monthlyCapWindow = 30 * 24 * time.Hour
)

// RedemptionPolicy gates who may redeem and how often, independent of the
// state of any particular voucher. Checks read the attempt log inside the
// caller's transaction so that limit decisions and the attempt row they
// produce see the same data.
type RedemptionPolicy struct {
	attemptsPerHour int
	monthlyCap      int
}

func NewRedemptionPolicy(cfg config.VoucherConfig) *RedemptionPolicy {
	return &RedemptionPolicy{
		attemptsPerHour: cfg.AttemptsPerHour,
		monthlyCap:      cfg.MonthlyRedemptionCap,
	}
}

// CheckIssueEligibility verifies the actor's role may issue vouchers.
// Parents receive and redeem; issuance belongs to staff.
func (p *RedemptionPolicy) CheckIssueEligibility(a actor.Actor) error {
	switch a.Role {
	case actor.RoleTeacher, actor.RoleAdmin:
		return nil
	default:
		return ErrRoleNotPermitted
	}
}

// CheckRedeemEligibility verifies the actor's role may redeem at all.
// Admins administer vouchers; they do not consume them.
func (p *RedemptionPolicy) CheckRedeemEligibility(a actor.Actor) error {
	switch a.Role {
	case actor.RoleParent, actor.RoleTeacher:
		return nil
	default:
		return ErrRoleNotPermitted
	}
}

// CheckRateLimit counts every attempt, failed ones included, over a rolling
// hour. Counting failures is what makes the limit useful against guessing.
func (p *RedemptionPolicy) CheckRateLimit(ctx context.Context, attempts shared.AttemptRepository, a actor.Actor, now time.Time) error {
	count, err := attempts.CountByActorSince(ctx, a.ID, now.Add(-rateLimitWindow))
	if err != nil {
		return err
	}
	if count >= p.attemptsPerHour {
		return ErrRateLimited
	}
	return nil
}

// CheckMonthlyCap bounds successful redemptions per parent over a rolling 30
// days. Teachers redeem on behalf of their class and are not capped.
func (p *RedemptionPolicy) CheckMonthlyCap(ctx context.Context, attempts shared.AttemptRepository, a actor.Actor, now time.Time) error {
	if a.Role != actor.RoleParent {
		return nil
	}
	count, err := attempts.CountSuccessesByActorSince(ctx, a.ID, now.Add(-monthlyCapWindow))
	if err != nil {
		return err
	}
	if count >= p.monthlyCap {
		return ErrMonthlyCapExceeded
	}
	return nil
}

// CanCancel restricts cancellation to the issuing user or an admin of the
// same institution.
func (p *RedemptionPolicy) CanCancel(a actor.Actor, issuedByUserID string) bool {
	return a.Role == actor.RoleAdmin || a.ID == issuedByUserID
}
