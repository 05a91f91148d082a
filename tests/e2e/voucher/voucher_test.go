//go:build e2e

package voucher_test

import (
	"fmt"
	"net/http"
	nethttptest "net/http/httptest"
	"strings"
	"testing"
	"time"

	"edupass/internal/domain/actor"
	reqdto "edupass/internal/handler/dto/request"
	resdto "edupass/internal/handler/dto/response"
	"edupass/internal/usecase/queries"
	"edupass/tests/common/authtest"
	"edupass/tests/common/builder"
	"edupass/tests/common/dbtest"
	"edupass/tests/common/httptest"
	"edupass/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	vouchersURL = "/api/vouchers"
	redeemURL   = "/api/vouchers/redeem"
	statsURL    = "/api/vouchers/stats"
	exportURL   = "/api/vouchers/export"

	institutionA = "inst-001"
	institutionB = "inst-002"
)

type VoucherSuite struct {
	e2e.SharedSuite
}

func TestVoucherSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(VoucherSuite))
}

func (s *VoucherSuite) teacherToken() string {
	return authtest.TokenFor(s.T(), s.Config.JWT, authtest.Teacher(institutionA))
}

func (s *VoucherSuite) parentToken() string {
	return authtest.TokenFor(s.T(), s.Config.JWT, authtest.Parent(institutionA))
}

func (s *VoucherSuite) adminToken() string {
	return authtest.TokenFor(s.T(), s.Config.JWT, authtest.Admin(institutionA))
}

// issueVoucher creates a voucher through the API and returns the one-time
// response carrying the plaintext code.
func (s *VoucherSuite) issueVoucher(token string, mutate ...func(*reqdto.CreateVoucherRequest)) resdto.VoucherCreatedResponse {
	t := s.T()

	reqBody := builder.NewVoucherBuilder().BuildCreateRequestDTO()
	for _, m := range mutate {
		m(&reqBody)
	}

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, vouchersURL, reqBody, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created resdto.VoucherCreatedResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
	require.NotEmpty(t, created.Code, "plaintext code missing from issuance response")
	return created
}

func (s *VoucherSuite) redeem(token, code string) *nethttptest.ResponseRecorder {
	return httptest.PerformRequest(s.T(), s.Router, http.MethodPost, redeemURL,
		reqdto.RedeemVoucherRequest{Code: code}, token)
}

// =============================================================================
// TestIssueVoucher
// =============================================================================

func (s *VoucherSuite) TestIssueVoucher() {
	s.Run("Normal case: teacher issues a voucher and sees the code once", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, "active", created.Voucher.Status)
		require.Equal(t, institutionA, created.Voucher.InstitutionID)
		require.Nil(t, created.Voucher.ExpiresAt)

		// Subsequent reads never expose the plaintext code
		detailURL := vouchersURL + "/" + created.Voucher.ID.String()
		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, dw.Code)

		var detail resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))

		expected := created.Voucher
		opts := []cmp.Option{
			cmpopts.IgnoreFields(resdto.VoucherResponse{}, "IssuedAt"),
		}
		if diff := cmp.Diff(expected, detail, opts...); diff != "" {
			t.Errorf("voucher detail mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("Error case: parent may not issue", func() {
		t := s.T()

		reqBody := builder.NewVoucherBuilder().BuildCreateRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, vouchersURL, reqBody, s.parentToken())
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: disallowed denomination is rejected", func() {
		t := s.T()

		reqBody := builder.NewVoucherBuilder().BuildCreateRequestDTO()
		reqBody.ValueMinorUnits = 37
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, vouchersURL, reqBody, s.teacherToken())
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("Auth test: unauthorized when not logged in", func() {
		t := s.T()

		reqBody := builder.NewVoucherBuilder().BuildCreateRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, vouchersURL, reqBody, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("Auth test: expired token is rejected", func() {
		t := s.T()

		token := authtest.ExpiredTokenFor(t, s.Config.JWT, authtest.Teacher(institutionA))
		reqBody := builder.NewVoucherBuilder().BuildCreateRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, vouchersURL, reqBody, token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestRedeemVoucher
// =============================================================================

func (s *VoucherSuite) TestRedeemVoucher() {
	s.Run("Normal case: parent redeems and access window opens", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())

		w := s.redeem(s.parentToken(), created.Code)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var redeemed resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &redeemed))
		require.Equal(t, "redeemed", redeemed.Status)
		require.NotNil(t, redeemed.RedeemedAt)
		require.NotNil(t, redeemed.ExpiresAt)
		require.Equal(t, authtest.Parent(institutionA).ID, *redeemed.RedeemedByUserID)

		wantExpiry := redeemed.RedeemedAt.Add(s.Config.Voucher.RedemptionValidity)
		require.True(t, wantExpiry.Equal(*redeemed.ExpiresAt), "expiry should be redemption time plus validity")

		// A success attempt is recorded for the cap window
		require.Equal(t, 1, dbtest.CountAttemptsByActor(t, s.DB, authtest.Parent(institutionA).ID))
	})

	s.Run("Normal case: code is accepted case-insensitively and without hyphens", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		sloppy := strings.ToLower(strings.ReplaceAll(created.Code, "-", ""))

		w := s.redeem(s.parentToken(), sloppy)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("Error case: redeeming twice by the same actor reports idempotent conflict", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		w := s.redeem(s.parentToken(), created.Code)
		require.Equal(t, http.StatusConflict, w.Code)
		require.Contains(t, w.Body.String(), "You have already redeemed this voucher")
	})

	s.Run("Error case: redeeming a voucher someone else won", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		other := authtest.TokenFor(t, s.Config.JWT,
			actor.Actor{ID: "user-parent-002", InstitutionID: institutionA, Role: actor.RoleParent})
		w := s.redeem(other, created.Code)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Error case: malformed and unknown codes fail without leaking which", func() {
		t := s.T()

		w := s.redeem(s.parentToken(), "not-a-code")
		require.Equal(t, http.StatusBadRequest, w.Code)

		w = s.redeem(s.parentToken(), "ABCD-EFGH-JKLM-NPQR")
		require.Equal(t, http.StatusNotFound, w.Code)

		// Both denials leave failure attempts behind
		require.Equal(t, 2, dbtest.CountAttemptsByActor(t, s.DB, authtest.Parent(institutionA).ID))
	})

	s.Run("Error case: admin may not redeem", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		w := s.redeem(s.adminToken(), created.Code)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: voucher from another institution", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())

		foreign := authtest.TokenFor(t, s.Config.JWT, authtest.Parent(institutionB))
		w := s.redeem(foreign, created.Code)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: hammering unknown codes trips the rate limit", func() {
		t := s.T()

		limit := s.Config.Voucher.AttemptsPerHour
		for range limit {
			w := s.redeem(s.parentToken(), "ABCD-EFGH-JKLM-NPQR")
			require.Equal(t, http.StatusNotFound, w.Code)
		}

		w := s.redeem(s.parentToken(), "ABCD-EFGH-JKLM-NPQR")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

// =============================================================================
// TestCancelVoucher
// =============================================================================

func (s *VoucherSuite) TestCancelVoucher() {
	s.Run("Normal case: issuer cancels an active voucher", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, s.teacherToken())
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			vouchersURL+"/"+created.Voucher.ID.String(), nil, s.teacherToken())
		var detail resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "cancelled", detail.Status)

		// Cancelled codes must not redeem
		rw := s.redeem(s.parentToken(), created.Code)
		require.Equal(t, http.StatusGone, rw.Code)
	})

	s.Run("Normal case: admin clawback of a redeemed voucher keeps the redemption record", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, s.adminToken())
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			vouchersURL+"/"+created.Voucher.ID.String(), nil, s.teacherToken())
		var detail resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "cancelled", detail.Status)
		require.NotNil(t, detail.RedeemedByUserID, "redemption history must survive cancellation")
		require.Nil(t, detail.ExpiresAt, "cancellation closes the access window")
	})

	s.Run("Error case: a teacher who did not issue the voucher may not cancel", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		otherTeacher := authtest.TokenFor(t, s.Config.JWT,
			actor.Actor{ID: "user-teacher-099", InstitutionID: institutionA, Role: actor.RoleTeacher})

		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, otherTeacher)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: cancelling twice reports the terminal state", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"

		require.Equal(t, http.StatusNoContent,
			httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, s.teacherToken()).Code)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, s.teacherToken())
		require.Equal(t, http.StatusGone, w.Code)
	})

	s.Run("Error case: vouchers of other institutions look like they do not exist", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		foreignTeacher := authtest.TokenFor(t, s.Config.JWT, authtest.Teacher(institutionB))

		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, foreignTeacher)
		require.Equal(t, http.StatusNotFound, w.Code)

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			vouchersURL+"/"+created.Voucher.ID.String(), nil, foreignTeacher)
		require.Equal(t, http.StatusNotFound, dw.Code)
	})
}

// =============================================================================
// TestExpiry
// =============================================================================

func (s *VoucherSuite) TestExpiry() {
	s.Run("Normal case: a timed-out redemption reads as expired", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		dbtest.SetVoucherExpiry(t, s.DB, created.Voucher.ID, time.Now().Add(-time.Hour))

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			vouchersURL+"/"+created.Voucher.ID.String(), nil, s.teacherToken())
		var detail resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "expired", detail.Status, "reads must treat a passed window as expired")
	})

	s.Run("Normal case: admin extends a redeemed voucher's window", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		until := time.Now().Add(90 * 24 * time.Hour).UTC().Truncate(time.Second)
		extendURL := vouchersURL + "/" + created.Voucher.ID.String() + "/extend"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, extendURL,
			reqdto.ExtendVoucherRequest{ExpiresAt: until}, s.adminToken())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var extended resdto.VoucherResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &extended))
		require.True(t, until.Equal(*extended.ExpiresAt))
	})

	s.Run("Error case: teacher may not extend", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		extendURL := vouchersURL + "/" + created.Voucher.ID.String() + "/extend"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, extendURL,
			reqdto.ExtendVoucherRequest{ExpiresAt: time.Now().Add(time.Hour)}, s.teacherToken())
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: extending an active voucher is a state conflict", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		extendURL := vouchersURL + "/" + created.Voucher.ID.String() + "/extend"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, extendURL,
			reqdto.ExtendVoucherRequest{ExpiresAt: time.Now().Add(time.Hour)}, s.adminToken())
		require.Equal(t, http.StatusConflict, w.Code)
	})
}

// =============================================================================
// TestAuditTrail
// =============================================================================

func (s *VoucherSuite) TestAuditTrail() {
	s.Run("Normal case: the trail records the full lifecycle in order", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)

		cancelURL := vouchersURL + "/" + created.Voucher.ID.String() + "/cancel"
		require.Equal(t, http.StatusNoContent,
			httptest.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, s.adminToken()).Code)

		auditURL := vouchersURL + "/" + created.Voucher.ID.String() + "/audit"
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, auditURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, w.Code)

		var trail resdto.AuditTrailResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &trail))
		require.Len(t, trail.Records, 3)
		require.Equal(t, "created", trail.Records[0].Action)
		require.Equal(t, "redeemed", trail.Records[1].Action)
		require.Equal(t, "cancelled", trail.Records[2].Action)
	})

	s.Run("Error case: parents have no audit access", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		auditURL := vouchersURL + "/" + created.Voucher.ID.String() + "/audit"
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, auditURL, nil, s.parentToken())
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// TestListStatsExport
// =============================================================================

func (s *VoucherSuite) TestListStatsExport() {
	s.Run("Normal case: list, stats and export agree after a mixed batch", func() {
		t := s.T()

		first := s.issueVoucher(s.teacherToken())
		s.issueVoucher(s.teacherToken(), func(r *reqdto.CreateVoucherRequest) {
			r.ValueMinorUnits = 10
			r.HolderName = "Hillcrest Academy"
		})
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), first.Code).Code)

		// List
		lw := httptest.PerformRequest(t, s.Router, http.MethodGet, vouchersURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, lw.Code)
		var page resdto.VoucherListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, lw.Body, &page))
		require.EqualValues(t, 2, page.Total)

		// Filter by status
		fw := httptest.PerformRequest(t, s.Router, http.MethodGet, vouchersURL+"?status=redeemed", nil, s.teacherToken())
		require.Equal(t, http.StatusOK, fw.Code)
		var filtered resdto.VoucherListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, fw.Body, &filtered))
		require.EqualValues(t, 1, filtered.Total)
		require.Equal(t, first.Voucher.ID, filtered.Items[0].ID)

		// Stats
		sw := httptest.PerformRequest(t, s.Router, http.MethodGet, statsURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, sw.Code)
		var stats queries.Statistics
		require.NoError(t, httptest.DecodeResponseBody(t, sw.Body, &stats))
		require.EqualValues(t, 2, stats.TotalIssued)
		require.EqualValues(t, 1, stats.TotalRedeemed)
		require.EqualValues(t, 1, stats.TotalActive)
		require.EqualValues(t, 35, stats.TotalValue)
		require.EqualValues(t, 25, stats.RedeemedValue)

		// Export
		ew := httptest.PerformRequest(t, s.Router, http.MethodGet, exportURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, ew.Code)
		require.Contains(t, ew.Header().Get("Content-Type"), "text/csv")
		require.Contains(t, ew.Body.String(), "Riverdale Primary")
		require.Contains(t, ew.Body.String(), "Hillcrest Academy")
		require.NotContains(t, ew.Body.String(), first.Code, "export must not leak plaintext codes")
	})

	s.Run("Normal case: stats count timed-out redeemed vouchers as expired", func() {
		t := s.T()

		created := s.issueVoucher(s.teacherToken())
		require.Equal(t, http.StatusOK, s.redeem(s.parentToken(), created.Code).Code)
		dbtest.SetVoucherExpiry(t, s.DB, created.Voucher.ID, time.Now().Add(-time.Hour))

		sw := httptest.PerformRequest(t, s.Router, http.MethodGet, statsURL, nil, s.teacherToken())
		require.Equal(t, http.StatusOK, sw.Code)

		var stats queries.Statistics
		require.NoError(t, httptest.DecodeResponseBody(t, sw.Body, &stats))
		require.EqualValues(t, 1, stats.TotalIssued)
		require.EqualValues(t, 0, stats.TotalRedeemed, "an unswept timed-out voucher must not count as redeemed")
		require.EqualValues(t, 1, stats.TotalExpired)
		require.EqualValues(t, 0, stats.RedeemedValue)
	})

	s.Run("Normal case: lists are scoped to the caller's institution", func() {
		t := s.T()

		s.issueVoucher(s.teacherToken())

		foreignTeacher := authtest.TokenFor(t, s.Config.JWT, authtest.Teacher(institutionB))
		lw := httptest.PerformRequest(t, s.Router, http.MethodGet, vouchersURL, nil, foreignTeacher)
		require.Equal(t, http.StatusOK, lw.Code)

		var page resdto.VoucherListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, lw.Body, &page))
		require.EqualValues(t, 0, page.Total)
	})

	s.Run("Error case: parents may not list or export", func() {
		t := s.T()

		require.Equal(t, http.StatusForbidden,
			httptest.PerformRequest(t, s.Router, http.MethodGet, vouchersURL, nil, s.parentToken()).Code)
		require.Equal(t, http.StatusForbidden,
			httptest.PerformRequest(t, s.Router, http.MethodGet, exportURL, nil, s.parentToken()).Code)
	})

	// Listing honors pagination bounds
	s.Run("Normal case: limit and offset page through results", func() {
		t := s.T()

		for i := range 3 {
			s.issueVoucher(s.teacherToken(), func(r *reqdto.CreateVoucherRequest) {
				r.HolderName = fmt.Sprintf("School %d", i)
			})
		}

		lw := httptest.PerformRequest(t, s.Router, http.MethodGet, vouchersURL+"?limit=2&offset=2", nil, s.teacherToken())
		require.Equal(t, http.StatusOK, lw.Code)

		var page resdto.VoucherListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, lw.Body, &page))
		require.EqualValues(t, 3, page.Total)
		require.Len(t, page.Items, 1)
	})
}
