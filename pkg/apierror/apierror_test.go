package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   Code
		wantMsg    string
	}{
		{"not found", shared.NotFound("debtor"), http.StatusNotFound, CodeNotFound, "debtor not found"},
		{"conflict", shared.Conflict(`tax number "1234567890" already exists`, nil), http.StatusConflict, CodeConflict, `tax number "1234567890" already exists`},
		{"validation", shared.Validation("name", "name is required"), http.StatusUnprocessableEntity, CodeValidationFailed, "name is required"},
		{"wrapped sentinel", fmt.Errorf("%w: registry not found", shared.ErrNotFound), http.StatusNotFound, CodeNotFound, "registry not found"},
		{"raw driver error", errors.New(`pq: syntax error at or near "FROM"`), http.StatusInternalServerError, CodeInternalError, genericMessage},
		{"transaction failure", shared.Internal(errors.New("pq: deadlock detected")), http.StatusInternalServerError, CodeInternalError, genericMessage},
		{"api error passthrough", RateLimitExceeded(), http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestFromError_ValidationDetails(t *testing.T) {
	got := FromError(shared.Validation("amount", "amount must be positive"))
	assert.Equal(t, map[string]any{"field": "amount"}, got.Details)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(errors.New("secret schema detail")).WriteJSON(rec, "req-1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.NotContains(t, rec.Body.String(), "secret")

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error)
	assert.Equal(t, "req-1", body.RequestID)
}
