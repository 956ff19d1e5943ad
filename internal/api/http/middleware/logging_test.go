package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "implicit ok", status: 0, wantLevel: "level=INFO"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "level=INFO"},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			lg := NewLogging(logger.NewWithWriter(&buf, 0))
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("{}"))
			})

			rec := httptest.NewRecorder()
			lg.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gateway", nil))

			assert.Contains(t, buf.String(), tt.wantLevel)
			assert.Contains(t, buf.String(), "path=/gateway")
		})
	}
}

func TestRecovery_Handle(t *testing.T) {
	t.Parallel()

	rc := NewRecovery(testutil.MakeNoopLogger())
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		rc.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
