package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/testutil"
)

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   float64
		wantErrors bool
	}{
		{
			name:       "api error",
			err:        model.ErrUnknownChannel,
			wantStatus: http.StatusNotFound,
			wantCode:   10003,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("failed: %w", model.ErrMissingPermissions),
			wantStatus: http.StatusForbidden,
			wantCode:   50013,
		},
		{
			name:       "form errors",
			err:        model.InvalidForm("content", model.CodeBaseTypeMaxLength, "Must be 2000 or fewer in length."),
			wantStatus: http.StatusBadRequest,
			wantCode:   50035,
			wantErrors: true,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("failed to get: %w", model.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "internal",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			Error(rec, testutil.MakeNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			_, hasErrors := body["errors"]
			assert.Equal(t, tt.wantErrors, hasErrors)
		})
	}
}

func TestError_InternalHidesCause(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Error(rec, testutil.MakeNoopLogger(), errors.New("dial tcp 10.0.0.1:5432"))

	assert.JSONEq(t, `{"code":0,"message":"500: Internal Server Error"}`, rec.Body.String())
}
