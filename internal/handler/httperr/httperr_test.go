//go:build unit

package httperr_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"edupass/internal/handler/httperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("writes the payload and keeps the original error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		cause := errors.New("digest lookup failed")

		httperr.AbortWithError(c, http.StatusNotFound, cause, "Voucher not found", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Voucher not found"}`, rec.Body.String())
		assert.True(t, c.IsAborted())

		require.Len(t, c.Errors, 1)
		assert.Equal(t, cause, c.Errors[0].Err)
		assert.True(t, c.Errors[0].IsType(gin.ErrorTypePublic))

		resp, ok := c.Errors[0].Meta.(httperr.Response)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "Voucher not found", resp.Error)
	})

	t.Run("detail rides along when present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)

		httperr.AbortWithError(c, http.StatusBadRequest, errors.New("bad filter"),
			"Invalid query parameters", map[string]string{"status": "bogus"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid query parameters","detail":{"status":"bogus"}}`, rec.Body.String())
	})

	t.Run("panics on nil error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)

		assert.Panics(t, func() {
			httperr.AbortWithError(c, http.StatusInternalServerError, nil, "boom", nil)
		})
	})
}
