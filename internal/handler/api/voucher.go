package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"time"

	"edupass/internal/domain/voucher"
	reqdto "edupass/internal/handler/dto/request"
	resdto "edupass/internal/handler/dto/response"
	"edupass/internal/handler/httperr"
	"edupass/internal/handler/middleware"
	"edupass/internal/usecase/commands"
	"edupass/internal/usecase/policy"
	"edupass/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errActorMissing = errors.New("actor not set in context")

type VoucherHandler struct {
	commands commands.VoucherCommands
	queries  queries.VoucherQueries
}

func NewVoucherHandler(cmds commands.VoucherCommands, qs queries.VoucherQueries) *VoucherHandler {
	return &VoucherHandler{
		commands: cmds,
		queries:  qs,
	}
}

// @Summary Issue voucher
// @Description Issue a new voucher; the plaintext code appears only in this response
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateVoucherRequest true "Voucher request"
// @Success 201 {object} resdto.VoucherCreatedResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /vouchers [post]
func (h *VoucherHandler) CreateVoucher(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	var req reqdto.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.commands.Create(c.Request.Context(), a, req)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromCreateResult(result))
}

// @Summary Redeem voucher
// @Description Redeem a voucher code for the authenticated actor
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.RedeemVoucherRequest true "Redemption request"
// @Success 200 {object} resdto.VoucherResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /vouchers/redeem [post]
func (h *VoucherHandler) RedeemVoucher(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	var req reqdto.RedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	view, err := h.commands.Redeem(c.Request.Context(), a, req.Code)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromVoucherView(view))
}

// @Summary Get voucher
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Voucher ID"
// @Success 200 {object} resdto.VoucherResponse
// @Failure 404 {object} map[string]string
// @Router /vouchers/{id} [get]
func (h *VoucherHandler) GetVoucher(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID", nil)
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), a.InstitutionID, id)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromVoucherView(view))
}

// @Summary List vouchers
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.VoucherListResponse
// @Failure 400 {object} map[string]string
// @Router /vouchers [get]
func (h *VoucherHandler) ListVouchers(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	var q reqdto.ListVouchersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query parameters", nil)
		return
	}

	filters, err := parseListFilters(q)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	page, err := h.queries.List(c.Request.Context(), a.InstitutionID, filters, q.Limit, q.Offset)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromVoucherPage(page))
}

// @Summary Cancel voucher
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Voucher ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /vouchers/{id}/cancel [post]
func (h *VoucherHandler) CancelVoucher(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID", nil)
		return
	}

	if err := h.commands.Cancel(c.Request.Context(), a, id); err != nil {
		respondVoucherError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Extend voucher expiry
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Voucher ID"
// @Param request body reqdto.ExtendVoucherRequest true "New expiry"
// @Success 200 {object} resdto.VoucherResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /vouchers/{id}/extend [post]
func (h *VoucherHandler) ExtendVoucher(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID", nil)
		return
	}

	var req reqdto.ExtendVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	view, err := h.commands.ExtendExpiry(c.Request.Context(), a, id, req.ExpiresAt)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromVoucherView(view))
}

// @Summary Voucher statistics
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} queries.Statistics
// @Router /vouchers/stats [get]
func (h *VoucherHandler) GetStatistics(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	stats, err := h.queries.Statistics(c.Request.Context(), a.InstitutionID)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Summary Voucher audit trail
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Voucher ID"
// @Success 200 {object} resdto.AuditTrailResponse
// @Failure 404 {object} map[string]string
// @Router /vouchers/{id}/audit [get]
func (h *VoucherHandler) GetAuditTrail(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid voucher ID", nil)
		return
	}

	records, err := h.queries.AuditTrail(c.Request.Context(), a.InstitutionID, id)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.AuditTrailResponse{Records: records})
}

// @Summary Export vouchers as CSV
// @Tags vouchers
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV payload"
// @Router /vouchers/export [get]
func (h *VoucherHandler) ExportVouchers(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errActorMissing, "Internal server error", nil)
		return
	}

	var q reqdto.ListVouchersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query parameters", nil)
		return
	}

	filters, err := parseListFilters(q)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	export, err := h.queries.Export(c.Request.Context(), a.InstitutionID, filters)
	if err != nil {
		respondVoucherError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="vouchers.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(export.Header)
	_ = w.WriteAll(export.Rows)
}

func parseListFilters(q reqdto.ListVouchersQuery) (queries.ListFilters, error) {
	var filters queries.ListFilters

	if q.Status != "" {
		status, err := voucher.NewStatus(q.Status)
		if err != nil {
			return filters, errors.New("invalid status filter")
		}
		filters.Status = &status
	}
	if q.IssuedFrom != "" {
		t, err := time.Parse(time.RFC3339, q.IssuedFrom)
		if err != nil {
			return filters, errors.New("issued_from must be RFC 3339")
		}
		filters.IssuedFrom = &t
	}
	if q.IssuedTo != "" {
		t, err := time.Parse(time.RFC3339, q.IssuedTo)
		if err != nil {
			return filters, errors.New("issued_to must be RFC 3339")
		}
		filters.IssuedTo = &t
	}
	if q.HolderName != "" {
		name := q.HolderName
		filters.HolderName = &name
	}

	return filters, nil
}

func respondVoucherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrMalformedCode):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Malformed voucher code", nil)
	case errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	case errors.Is(err, commands.ErrVoucherNotFound), errors.Is(err, queries.ErrVoucherNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Voucher not found", nil)
	case errors.Is(err, commands.ErrInstitutionMismatch):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Voucher belongs to another institution", nil)
	case errors.Is(err, policy.ErrRoleNotPermitted):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions", nil)
	case errors.Is(err, commands.ErrAlreadyRedeemedByActor):
		httperr.AbortWithError(c, http.StatusConflict, err, "You have already redeemed this voucher", nil)
	case errors.Is(err, commands.ErrAlreadyRedeemed):
		httperr.AbortWithError(c, http.StatusConflict, err, "Voucher already redeemed", nil)
	case errors.Is(err, commands.ErrVoucherExpired):
		httperr.AbortWithError(c, http.StatusGone, err, "Voucher expired", nil)
	case errors.Is(err, commands.ErrVoucherCancelled):
		httperr.AbortWithError(c, http.StatusGone, err, "Voucher cancelled", nil)
	case errors.Is(err, commands.ErrInvalidTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Voucher state changed, retry", nil)
	case errors.Is(err, policy.ErrRateLimited):
		httperr.AbortWithError(c, http.StatusTooManyRequests, err, "Too many redemption attempts, try again later", nil)
	case errors.Is(err, policy.ErrMonthlyCapExceeded):
		httperr.AbortWithError(c, http.StatusTooManyRequests, err, "Monthly redemption cap reached", nil)
	case errors.Is(err, commands.ErrCodeSpaceExhausted), errors.Is(err, commands.ErrStoreUnavailable):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Service temporarily unavailable", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
