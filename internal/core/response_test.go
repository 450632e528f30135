// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResponderOK(t *testing.T) {
	rp := NewResponder(false, discardLogger())
	rec := httptest.NewRecorder()

	rp.OK(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
}

func TestResponderErrorOpaqueInProduction(t *testing.T) {
	rp := NewResponder(false, discardLogger())
	rec := httptest.NewRecorder()

	rp.Error(rec, fmt.Errorf("sign in: %w", ErrCredentialMismatch))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "CREDENTIAL_MISMATCH", body["code"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "stack")
}

func TestResponderErrorVerbose(t *testing.T) {
	rp := NewResponder(true, discardLogger())
	rec := httptest.NewRecorder()

	rp.Error(rec, fmt.Errorf("sign in: %w", ErrCredentialMismatch))

	body := decodeBody(t, rec)
	assert.Equal(t, "CREDENTIAL_MISMATCH", body["code"])
	assert.Contains(t, body["detail"], "sign in")
	// Stack only accompanies non-operational failures.
	assert.NotContains(t, body, "stack")
}

func TestResponderInternalError(t *testing.T) {
	t.Run("production hides internals", func(t *testing.T) {
		rp := NewResponder(false, discardLogger())
		rec := httptest.NewRecorder()

		rp.Error(rec, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "INTERNAL", body["code"])
		assert.NotContains(t, body, "detail")
	})

	t.Run("verbose attaches detail and stack", func(t *testing.T) {
		rp := NewResponder(true, discardLogger())
		rec := httptest.NewRecorder()

		rp.Error(rec, errors.New("pq: connection refused"))

		body := decodeBody(t, rec)
		assert.Contains(t, body["detail"], "connection refused")
		assert.NotEmpty(t, body["stack"])
	})
}

func TestResponderInvalid(t *testing.T) {
	rp := NewResponder(true, discardLogger())
	rec := httptest.NewRecorder()

	rp.Invalid(rec, "phone failed irphone")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Contains(t, body["detail"], "phone failed irphone")
}

func TestResponderNoContent(t *testing.T) {
	rp := NewResponder(false, discardLogger())
	rec := httptest.NewRecorder()

	rp.NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
