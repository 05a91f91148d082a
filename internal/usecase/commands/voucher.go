package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"edupass/internal/domain/actor"
	"edupass/internal/domain/voucher"
	reqdto "edupass/internal/handler/dto/request"
	"edupass/internal/infra"
	"edupass/internal/pkg/clock"
	"edupass/internal/pkg/config"
	"edupass/internal/pkg/errs"
	"edupass/internal/usecase/policy"
	"edupass/internal/usecase/queries"
	"edupass/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrDomainValidation       = errs.New("domain validation error")
	ErrMalformedCode          = errs.New("malformed voucher code")
	ErrVoucherNotFound        = errs.New("voucher not found")
	ErrInstitutionMismatch    = errs.New("voucher belongs to another institution")
	ErrAlreadyRedeemed        = errs.New("voucher already redeemed")
	ErrAlreadyRedeemedByActor = errs.New("voucher already redeemed by this actor")
	ErrVoucherExpired         = errs.New("voucher expired")
	ErrVoucherCancelled       = errs.New("voucher cancelled")
	ErrInvalidTransition      = errs.New("invalid voucher state transition")
	ErrCodeSpaceExhausted     = errs.New("could not allocate a unique voucher code")
	ErrStoreUnavailable       = errs.New("voucher store unavailable")
)

// CreateVoucherResult carries the plaintext code exactly once; it is never
// readable again after this response.
type CreateVoucherResult struct {
	Voucher *queries.VoucherView
	Code    string
}

type VoucherCommands interface {
	Create(ctx context.Context, a actor.Actor, req reqdto.CreateVoucherRequest) (*CreateVoucherResult, error)
	Redeem(ctx context.Context, a actor.Actor, code string) (*queries.VoucherView, error)
	Cancel(ctx context.Context, a actor.Actor, id uuid.UUID) error
	ExtendExpiry(ctx context.Context, a actor.Actor, id uuid.UUID, until time.Time) (*queries.VoucherView, error)
	// Expire moves one timed-out redeemed voucher to expired. It reports
	// whether this call performed the transition; losing the race to another
	// sweeper is not an error.
	Expire(ctx context.Context, id uuid.UUID) (bool, error)
}

type voucherUseCaseImpl struct {
	uow      shared.UnitOfWork
	policy   *policy.RedemptionPolicy
	notifier shared.Notifier
	cfg      config.VoucherConfig
	clock    clock.Clock
}

func NewVoucherUseCase(
	uow shared.UnitOfWork,
	pol *policy.RedemptionPolicy,
	notifier shared.Notifier,
	cfg config.VoucherConfig,
	clk clock.Clock,
) VoucherCommands {
	return &voucherUseCaseImpl{
		uow:      uow,
		policy:   pol,
		notifier: notifier,
		cfg:      cfg,
		clock:    clk,
	}
}

func (u *voucherUseCaseImpl) Create(ctx context.Context, a actor.Actor, req reqdto.CreateVoucherRequest) (*CreateVoucherResult, error) {
	if err := u.policy.CheckIssueEligibility(a); err != nil {
		return nil, err
	}

	// Each attempt runs in its own transaction: a unique violation aborts a
	// Postgres transaction, so the retry cannot share one.
	for attempt := 0; attempt < u.cfg.MaxGenerationAttempts; attempt++ {
		code, err := voucher.GenerateCode()
		if err != nil {
			return nil, errs.Mark(err, ErrStoreUnavailable)
		}

		now := u.clock.Now()
		v, err := voucher.NewVoucher(voucher.NewVoucherParams{
			Code:            code,
			ValueMinorUnits: req.ValueMinorUnits,
			LearnerCount:    req.LearnerCount,
			HolderName:      req.HolderName,
			Notes:           req.Notes,
			InstitutionID:   a.InstitutionID,
			IssuedByUserID:  a.ID,
			IssuedAt:        now,
		}, u.cfg.Denominations)
		if err != nil {
			return nil, errs.Mark(err, ErrDomainValidation)
		}

		err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Vouchers().InsertIfDigestUnused(ctx, v); err != nil {
				return err
			}
			return tx.Audit().Append(ctx, voucher.NewAuditRecord(
				v.ID(), voucher.ActionCreated, &a.ID,
				map[string]any{"value_minor_units": req.ValueMinorUnits, "learner_count": req.LearnerCount},
				now,
			))
		})
		if err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				slog.Warn("voucher code collision, regenerating", "attempt", attempt+1)
				continue
			}
			return nil, errs.Mark(err, ErrStoreUnavailable)
		}

		return &CreateVoucherResult{Voucher: viewFromVoucher(v), Code: code}, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func (u *voucherUseCaseImpl) Redeem(ctx context.Context, a actor.Actor, code string) (*queries.VoucherView, error) {
	if err := u.policy.CheckRedeemEligibility(a); err != nil {
		return nil, err
	}

	var (
		redeemed      *voucher.Voucher
		notice        shared.RedemptionNotice
		failVoucherID *uuid.UUID
	)

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := u.clock.Now()

		if err := u.policy.CheckRateLimit(ctx, tx.Attempts(), a, now); err != nil {
			return err
		}

		// Accept sloppy input (lowercase, stray hyphens) by reformatting
		// before the strict format check.
		formatted, ferr := voucher.FormatCode(code)
		if ferr != nil || !voucher.ValidateFormat(formatted) {
			return ErrMalformedCode
		}
		code = formatted

		v, err := tx.Vouchers().FindByDigest(ctx, voucher.Digest(code))
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrVoucherNotFound
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}
		id := v.ID()
		failVoucherID = &id

		// The salted digest guards against a tampered row resolving through
		// the plain lookup index.
		if !voucher.VerifySaltedDigest(code, v.Salt(), v.SaltedDigest()) {
			slog.Error("voucher failed salted digest verification", "voucher_id", id)
			return ErrVoucherNotFound
		}

		if v.InstitutionID() != a.InstitutionID {
			return ErrInstitutionMismatch
		}

		if err := u.policy.CheckMonthlyCap(ctx, tx.Attempts(), a, now); err != nil {
			return err
		}

		if !v.IsActive() {
			return classifyNonActive(v, a.ID, now)
		}

		mut, err := v.RedeemMutation(a.ID, now, u.cfg.RedemptionValidity)
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}

		updated, err := tx.Vouchers().CompareAndTransition(ctx, id, []voucher.Status{voucher.StatusActive}, mut, now)
		if err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				// Lost a race; re-read to tell the caller what actually won.
				current, readErr := tx.Vouchers().FindByID(ctx, id)
				if readErr != nil {
					return errs.Mark(readErr, ErrStoreUnavailable)
				}
				return classifyNonActive(current, a.ID, now)
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}

		if err := tx.Attempts().Record(ctx, voucher.NewRedemptionAttempt(&id, a.ID, voucher.AttemptSuccess, "", now)); err != nil {
			return errs.Mark(err, ErrStoreUnavailable)
		}
		if err := tx.Audit().Append(ctx, voucher.NewAuditRecord(
			id, voucher.ActionRedeemed, &a.ID,
			map[string]any{"expires_at": mut.ExpiresAt},
			now,
		)); err != nil {
			return errs.Mark(err, ErrStoreUnavailable)
		}

		redeemed = updated
		notice = shared.RedemptionNotice{
			VoucherID:    id,
			HolderName:   updated.HolderName().String(),
			RedeemedByID: a.ID,
			ExpiresAt:    *mut.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		// Denials roll back with the transaction, so the failed attempt gets
		// its own commit. Without that row the rate limit has nothing to
		// count. Rate-limited attempts are deliberately not recorded;
		// recording them would let a hammering client extend its own lockout
		// forever.
		if reason, denied := denialReason(err); denied {
			u.recordFailedAttempt(ctx, failVoucherID, a, reason)
		}
		return nil, err
	}

	// Delivery happens after commit and never blocks the response.
	go u.notifier.RedemptionCompleted(context.WithoutCancel(ctx), notice)

	return viewFromVoucher(redeemed), nil
}

func (u *voucherUseCaseImpl) Cancel(ctx context.Context, a actor.Actor, id uuid.UUID) error {
	return u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := u.clock.Now()

		v, err := tx.Vouchers().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrVoucherNotFound
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}
		if v.InstitutionID() != a.InstitutionID {
			return ErrVoucherNotFound
		}
		if !u.policy.CanCancel(a, v.IssuedByUserID()) {
			return policy.ErrRoleNotPermitted
		}

		mut, err := v.CancelMutation(now)
		if err != nil {
			if v.HasTimedOut(now) || v.Status() == voucher.StatusExpired {
				return ErrVoucherExpired
			}
			if v.Status() == voucher.StatusCancelled {
				return ErrVoucherCancelled
			}
			return errs.Mark(err, ErrInvalidTransition)
		}

		// Expected status pins the snapshot the mutation was derived from, so
		// a concurrent redemption cannot be silently overwritten.
		if _, err := tx.Vouchers().CompareAndTransition(ctx, id, []voucher.Status{v.Status()}, mut, now); err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				return ErrInvalidTransition
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}

		return tx.Audit().Append(ctx, voucher.NewAuditRecord(
			id, voucher.ActionCancelled, &a.ID,
			map[string]any{"previous_status": v.Status().String()},
			now,
		))
	})
}

func (u *voucherUseCaseImpl) ExtendExpiry(ctx context.Context, a actor.Actor, id uuid.UUID, until time.Time) (*queries.VoucherView, error) {
	if a.Role != actor.RoleAdmin {
		return nil, policy.ErrRoleNotPermitted
	}

	var updated *voucher.Voucher
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := u.clock.Now()

		v, err := tx.Vouchers().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrVoucherNotFound
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}
		if v.InstitutionID() != a.InstitutionID {
			return ErrVoucherNotFound
		}

		mut, err := v.ExtendMutation(until)
		if err != nil {
			if errors.Is(err, voucher.ErrExtensionInPast) {
				return errs.Mark(err, ErrDomainValidation)
			}
			return errs.Mark(err, ErrInvalidTransition)
		}

		var previous *time.Time
		if v.ExpiresAt() != nil {
			prev := *v.ExpiresAt()
			previous = &prev
		}

		updated, err = tx.Vouchers().CompareAndTransition(ctx, id, []voucher.Status{voucher.StatusRedeemed}, mut, now)
		if err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				return ErrInvalidTransition
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}

		return tx.Audit().Append(ctx, voucher.NewAuditRecord(
			id, voucher.ActionExpiryExtended, &a.ID,
			map[string]any{"previous_expires_at": previous, "expires_at": until},
			now,
		))
	})
	if err != nil {
		return nil, err
	}
	return viewFromVoucher(updated), nil
}

func (u *voucherUseCaseImpl) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	transitioned := false
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := u.clock.Now()

		v, err := tx.Vouchers().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}
		if !v.HasTimedOut(now) {
			return nil
		}

		mut, err := v.ExpireMutation(now)
		if err != nil {
			return nil
		}

		if _, err := tx.Vouchers().CompareAndTransition(ctx, id, []voucher.Status{voucher.StatusRedeemed}, mut, now); err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				return nil
			}
			return errs.Mark(err, ErrStoreUnavailable)
		}

		transitioned = true
		return tx.Audit().Append(ctx, voucher.NewAuditRecord(
			id, voucher.ActionExpired, nil,
			map[string]any{"expired_at": v.ExpiresAt()},
			now,
		))
	})
	return transitioned, err
}

// recordFailedAttempt best-effort persists a denied attempt in its own
// transaction. WithoutCancel keeps the row even when the client hangs up
// mid-denial.
func (u *voucherUseCaseImpl) recordFailedAttempt(ctx context.Context, voucherID *uuid.UUID, a actor.Actor, reason string) {
	attempt := voucher.NewRedemptionAttempt(voucherID, a.ID, voucher.AttemptFailure, reason, u.clock.Now())
	err := u.uow.Within(context.WithoutCancel(ctx), func(ctx context.Context, tx shared.Tx) error {
		return tx.Attempts().Record(ctx, attempt)
	})
	if err != nil {
		slog.Error("failed to record redemption attempt", "actor_id", a.ID, "reason", reason, "error", err.Error())
	}
}

func classifyNonActive(v *voucher.Voucher, actorID string, now time.Time) error {
	switch v.Status() {
	case voucher.StatusRedeemed:
		if v.HasTimedOut(now) {
			return ErrVoucherExpired
		}
		if v.WasRedeemedBy(actorID) {
			return ErrAlreadyRedeemedByActor
		}
		return ErrAlreadyRedeemed
	case voucher.StatusExpired:
		return ErrVoucherExpired
	case voucher.StatusCancelled:
		return ErrVoucherCancelled
	default:
		return ErrInvalidTransition
	}
}

// denialReason maps a redemption denial to the reason string stored on the
// attempt row. Infrastructure failures and the rate limit itself are not
// denials in this sense and produce no attempt row.
func denialReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrMalformedCode):
		return "malformed_code", true
	case errors.Is(err, ErrVoucherNotFound):
		return "unknown_code", true
	case errors.Is(err, ErrInstitutionMismatch):
		return "institution_mismatch", true
	case errors.Is(err, policy.ErrMonthlyCapExceeded):
		return "monthly_cap_exceeded", true
	case errors.Is(err, ErrAlreadyRedeemedByActor):
		return "already_redeemed_by_actor", true
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed", true
	case errors.Is(err, ErrVoucherExpired):
		return "expired", true
	case errors.Is(err, ErrVoucherCancelled):
		return "cancelled", true
	default:
		return "", false
	}
}

func viewFromVoucher(v *voucher.Voucher) *queries.VoucherView {
	view := &queries.VoucherView{
		ID:               v.ID(),
		ValueMinorUnits:  v.Value().MinorUnits(),
		LearnerCount:     v.LearnerCount().Value(),
		HolderName:       v.HolderName().String(),
		Status:           v.Status().String(),
		InstitutionID:    v.InstitutionID(),
		IssuedByUserID:   v.IssuedByUserID(),
		IssuedAt:         v.IssuedAt(),
		RedeemedByUserID: v.RedeemedByUserID(),
		RedeemedAt:       v.RedeemedAt(),
		ExpiresAt:        v.ExpiresAt(),
	}
	if notes := v.Notes().String(); notes != "" {
		view.Notes = &notes
	}
	return view
}
