package request

import "time"

type CreateVoucherRequest struct {
	ValueMinorUnits int64  `json:"value_minor_units" binding:"required"`
	LearnerCount    int    `json:"learner_count" binding:"required"`
	HolderName      string `json:"holder_name" binding:"required"`
	Notes           string `json:"notes"`
}

type RedeemVoucherRequest struct {
	Code string `json:"code" binding:"required"`
}

type ExtendVoucherRequest struct {
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

// ListVouchersQuery binds the list/export filter query string. Times are
// RFC 3339.
type ListVouchersQuery struct {
	Status     string `form:"status"`
	IssuedFrom string `form:"issued_from"`
	IssuedTo   string `form:"issued_to"`
	HolderName string `form:"holder_name"`
	Limit      int32  `form:"limit,default=50"`
	Offset     int32  `form:"offset,default=0"`
}
