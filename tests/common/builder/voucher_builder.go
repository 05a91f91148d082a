//go:build unit || e2e

package builder

import (
	"time"

	domvoucher "edupass/internal/domain/voucher"
	reqdto "edupass/internal/handler/dto/request"
	"edupass/internal/usecase/queries"

	"github.com/google/uuid"
)

// DefaultDenominations mirrors the default VOUCHER_DENOMINATIONS set.
var DefaultDenominations = []int64{5, 10, 15, 20, 25, 30, 35, 40, 45}

type VoucherBuilder struct {
	Code            string
	ValueMinorUnits int64
	LearnerCount    int
	HolderName      string
	Notes           string
	InstitutionID   string
	IssuedByUserID  string
	IssuedAt        time.Time
}

func NewVoucherBuilder() *VoucherBuilder {
	return &VoucherBuilder{
		Code:            "ABCD-EFGH-JKLM-NPQR",
		ValueMinorUnits: 25,
		LearnerCount:    3,
		HolderName:      "Riverdale Primary",
		Notes:           "Term 2 enrolment drive",
		InstitutionID:   "inst-001",
		IssuedByUserID:  "user-teacher-001",
		IssuedAt:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (b *VoucherBuilder) With(mutate func(*VoucherBuilder)) *VoucherBuilder {
	mutate(b)
	return b
}

func (b *VoucherBuilder) BuildDomain() (*domvoucher.Voucher, error) {
	return domvoucher.NewVoucher(domvoucher.NewVoucherParams{
		Code:            b.Code,
		ValueMinorUnits: b.ValueMinorUnits,
		LearnerCount:    b.LearnerCount,
		HolderName:      b.HolderName,
		Notes:           b.Notes,
		InstitutionID:   b.InstitutionID,
		IssuedByUserID:  b.IssuedByUserID,
		IssuedAt:        b.IssuedAt,
	}, DefaultDenominations)
}

func (b *VoucherBuilder) BuildCreateRequestDTO() reqdto.CreateVoucherRequest {
	return reqdto.CreateVoucherRequest{
		ValueMinorUnits: b.ValueMinorUnits,
		LearnerCount:    b.LearnerCount,
		HolderName:      b.HolderName,
		Notes:           b.Notes,
	}
}

func (b *VoucherBuilder) BuildViewQuery() *queries.VoucherView {
	notes := b.Notes
	return &queries.VoucherView{
		ID:              uuid.New(),
		ValueMinorUnits: b.ValueMinorUnits,
		LearnerCount:    b.LearnerCount,
		HolderName:      b.HolderName,
		Notes:           &notes,
		Status:          domvoucher.StatusActive.String(),
		InstitutionID:   b.InstitutionID,
		IssuedByUserID:  b.IssuedByUserID,
		IssuedAt:        b.IssuedAt,
	}
}
