package response

import (
	"time"

	"edupass/internal/usecase/commands"
	"edupass/internal/usecase/queries"

	"github.com/google/uuid"
)

type VoucherResponse struct {
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

// VoucherCreatedResponse is the only payload that ever carries the plaintext
// code.
type VoucherCreatedResponse struct {
	Code    string          `json:"code"`
	Voucher VoucherResponse `json:"voucher"`
}

type VoucherListResponse struct {
	Items  []queries.VoucherListItem `json:"items"`
	Total  int64                     `json:"total"`
	Limit  int32                     `json:"limit"`
	Offset int32                     `json:"offset"`
}

type AuditTrailResponse struct {
	Records []queries.AuditRecordView `json:"records"`
}

func FromVoucherView(view *queries.VoucherView) VoucherResponse {
	return VoucherResponse{
		ID:               view.ID,
		ValueMinorUnits:  view.ValueMinorUnits,
		LearnerCount:     view.LearnerCount,
		HolderName:       view.HolderName,
		Notes:            view.Notes,
		Status:           view.Status,
		InstitutionID:    view.InstitutionID,
		IssuedByUserID:   view.IssuedByUserID,
		IssuedAt:         view.IssuedAt,
		RedeemedByUserID: view.RedeemedByUserID,
		RedeemedAt:       view.RedeemedAt,
		ExpiresAt:        view.ExpiresAt,
	}
}

func FromCreateResult(result *commands.CreateVoucherResult) VoucherCreatedResponse {
	return VoucherCreatedResponse{
		Code:    result.Code,
		Voucher: FromVoucherView(result.Voucher),
	}
}

func FromVoucherPage(page *queries.VoucherPage) VoucherListResponse {
	return VoucherListResponse{
		Items:  page.Items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}
