package voucher

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotRedeemable   = errors.New("voucher is not redeemable")
	ErrNotCancellable  = errors.New("voucher is not cancellable")
	ErrNotExtendable   = errors.New("only redeemed vouchers can have expiry extended")
	ErrExtensionInPast = errors.New("extended expiry must be after current expiry")
	ErrInconsistentRow = errors.New("voucher record violates redemption invariant")
)

// Voucher is an immutable snapshot of a voucher record. Status changes never
// mutate a snapshot; they are expressed as a Mutation applied atomically by
// the store's compare-and-transition primitive.
type Voucher struct {
	id               uuid.UUID
	code             string
	codeDigest       []byte
	salt             []byte
	saltedDigest     []byte
	value            Value
	learnerCount     LearnerCount
	holderName       HolderName
	notes            Notes
	status           Status
	institutionID    string
	issuedByUserID   string
	issuedAt         time.Time
	redeemedByUserID *string
	redeemedAt       *time.Time
	expiresAt        *time.Time
}

type NewVoucherParams struct {
	Code            string
	ValueMinorUnits int64
	LearnerCount    int
	HolderName      string
	Notes           string
	InstitutionID   string
	IssuedByUserID  string
	IssuedAt        time.Time
}

// NewVoucher validates the creation guards and returns an active voucher with
// its digests computed. allowedValues is the institution's denomination
// whitelist in minor units.
func NewVoucher(p NewVoucherParams, allowedValues []int64) (*Voucher, error) {
	value, err := NewValue(p.ValueMinorUnits, allowedValues)
	if err != nil {
		return nil, err
	}
	learnerCount, err := NewLearnerCount(p.LearnerCount)
	if err != nil {
		return nil, err
	}
	holderName, err := NewHolderName(p.HolderName)
	if err != nil {
		return nil, err
	}
	notes, err := NewNotes(p.Notes)
	if err != nil {
		return nil, err
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	return &Voucher{
		id:             uuid.New(),
		code:           p.Code,
		codeDigest:     Digest(p.Code),
		salt:           salt,
		saltedDigest:   SaltedDigest(p.Code, salt),
		value:          value,
		learnerCount:   learnerCount,
		holderName:     holderName,
		notes:          notes,
		status:         StatusActive,
		institutionID:  p.InstitutionID,
		issuedByUserID: p.IssuedByUserID,
		issuedAt:       p.IssuedAt,
	}, nil
}

// Reconstruct rebuilds a snapshot from a persisted row. The redemption triple
// must be all-or-nothing; a row breaking that invariant is corrupted.
func Reconstruct(
	id uuid.UUID,
	code string,
	codeDigest, salt, saltedDigest []byte,
	valueMinorUnits int64,
	learnerCount int,
	holderName string,
	notes string,
	status Status,
	institutionID, issuedByUserID string,
	issuedAt time.Time,
	redeemedByUserID *string,
	redeemedAt, expiresAt *time.Time,
) (*Voucher, error) {
	if (redeemedByUserID == nil) != (redeemedAt == nil) {
		return nil, ErrInconsistentRow
	}

	return &Voucher{
		id:               id,
		code:             code,
		codeDigest:       codeDigest,
		salt:             salt,
		saltedDigest:     saltedDigest,
		value:            ReconstructValue(valueMinorUnits),
		learnerCount:     LearnerCount{value: learnerCount},
		holderName:       HolderName{value: holderName},
		notes:            Notes{value: notes},
		status:           status,
		institutionID:    institutionID,
		issuedByUserID:   issuedByUserID,
		issuedAt:         issuedAt,
		redeemedByUserID: redeemedByUserID,
		redeemedAt:       redeemedAt,
		expiresAt:        expiresAt,
	}, nil
}

func (v *Voucher) ID() uuid.UUID              { return v.id }
func (v *Voucher) Code() string               { return v.code }
func (v *Voucher) CodeDigest() []byte         { return v.codeDigest }
func (v *Voucher) Salt() []byte               { return v.salt }
func (v *Voucher) SaltedDigest() []byte       { return v.saltedDigest }
func (v *Voucher) Value() Value               { return v.value }
func (v *Voucher) LearnerCount() LearnerCount { return v.learnerCount }
func (v *Voucher) HolderName() HolderName     { return v.holderName }
func (v *Voucher) Notes() Notes               { return v.notes }
func (v *Voucher) Status() Status             { return v.status }
func (v *Voucher) InstitutionID() string      { return v.institutionID }
func (v *Voucher) IssuedByUserID() string     { return v.issuedByUserID }
func (v *Voucher) IssuedAt() time.Time        { return v.issuedAt }
func (v *Voucher) RedeemedByUserID() *string  { return v.redeemedByUserID }
func (v *Voucher) RedeemedAt() *time.Time     { return v.redeemedAt }
func (v *Voucher) ExpiresAt() *time.Time      { return v.expiresAt }

func (v *Voucher) IsActive() bool {
	return v.status == StatusActive
}

// HasTimedOut reports whether a redeemed voucher's access window is over.
func (v *Voucher) HasTimedOut(now time.Time) bool {
	return v.status == StatusRedeemed && v.expiresAt != nil && now.After(*v.expiresAt)
}

// WasRedeemedBy reports whether this exact actor performed the redemption,
// for the idempotency-flavoured "you already redeemed this" message.
func (v *Voucher) WasRedeemedBy(actorID string) bool {
	return v.redeemedByUserID != nil && *v.redeemedByUserID == actorID
}

// Mutation describes a status transition for compare-and-transition. The
// redemption triple is set together or not at all.
type Mutation struct {
	Status           Status
	RedeemedByUserID *string
	RedeemedAt       *time.Time
	ExpiresAt        *time.Time
}

// RedeemMutation moves active -> redeemed, stamping the redemption triple.
func (v *Voucher) RedeemMutation(actorID string, now time.Time, validity time.Duration) (Mutation, error) {
	if v.status != StatusActive {
		return Mutation{}, ErrNotRedeemable
	}
	expires := now.Add(validity)
	return Mutation{
		Status:           StatusRedeemed,
		RedeemedByUserID: &actorID,
		RedeemedAt:       &now,
		ExpiresAt:        &expires,
	}, nil
}

// CancelMutation moves active|redeemed -> cancelled. A voucher whose access
// window already ran out is expired by policy, not cancellable.
func (v *Voucher) CancelMutation(now time.Time) (Mutation, error) {
	if !v.status.CanTransitionTo(StatusCancelled) {
		return Mutation{}, ErrNotCancellable
	}
	if v.HasTimedOut(now) {
		return Mutation{}, ErrNotCancellable
	}
	// expires_at is cleared: it is only meaningful for redeemed/expired rows.
	// The redemption pair survives for the audit trail.
	return Mutation{
		Status:           StatusCancelled,
		RedeemedByUserID: v.redeemedByUserID,
		RedeemedAt:       v.redeemedAt,
	}, nil
}

// ExpireMutation moves redeemed -> expired once the window has passed.
func (v *Voucher) ExpireMutation(now time.Time) (Mutation, error) {
	if v.status != StatusRedeemed {
		return Mutation{}, ErrNotRedeemable
	}
	if !v.HasTimedOut(now) {
		return Mutation{}, ErrNotRedeemable
	}
	return Mutation{
		Status:           StatusExpired,
		RedeemedByUserID: v.redeemedByUserID,
		RedeemedAt:       v.redeemedAt,
		ExpiresAt:        v.expiresAt,
	}, nil
}

// ExtendMutation pushes a redeemed voucher's expiry forward.
func (v *Voucher) ExtendMutation(until time.Time) (Mutation, error) {
	if v.status != StatusRedeemed {
		return Mutation{}, ErrNotExtendable
	}
	if v.expiresAt != nil && !until.After(*v.expiresAt) {
		return Mutation{}, ErrExtensionInPast
	}
	return Mutation{
		Status:           StatusRedeemed,
		RedeemedByUserID: v.redeemedByUserID,
		RedeemedAt:       v.redeemedAt,
		ExpiresAt:        &until,
	}, nil
}
