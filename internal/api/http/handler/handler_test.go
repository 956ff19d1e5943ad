package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/yepcord/server-sub002/internal/api/http/context"
	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/testutil"
)

var (
	testSession = model.Session{ID: 3, UserID: 1, Signature: "sig"}
	testCM      = httpcontext.NewManager()
)

// newRequest builds a request with route variables and no session.
func newRequest(method, target, body string, vars map[string]string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

// authed attaches testSession to req.
func authed(req *http.Request) *http.Request {
	return req.WithContext(testCM.SetSessionToContext(req.Context(), testSession))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBase_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantCode   float64
	}{
		{
			name:       "no session",
			req:        newRequest(http.MethodGet, "/channels/10", "", map[string]string{"channel_id": "10"}),
			wantStatus: http.StatusUnauthorized,
			wantCode:   0,
		},
		{
			name:       "overflowing id",
			req:        authed(newRequest(http.MethodGet, "/channels/99999999999999999999", "", map[string]string{"channel_id": "99999999999999999999"})),
			wantStatus: http.StatusNotFound,
			wantCode:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewChannels(newMockChannelService(t), testCM, testutil.MakeNoopLogger())
			rec := serve(h.Get, tt.req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])
		})
	}
}

func TestBase_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := NewGuilds(newMockGuildService(t), testCM, testutil.MakeNoopLogger())
	rec := serve(h.Create, authed(newRequest(http.MethodPost, "/guilds", "{", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(50109), decodeBody(t, rec)["code"])
}

func TestBase_InvalidQuery(t *testing.T) {
	t.Parallel()

	h := NewMessages(newMockMessageService(t), testCM, testutil.MakeNoopLogger())
	rec := serve(h.List, authed(newRequest(http.MethodGet, "/channels/10/messages?limit=many", "", map[string]string{"channel_id": "10"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(50035), body["code"])
	assert.Contains(t, body["errors"], "limit")
}

func TestChannels_Get(t *testing.T) {
	t.Parallel()

	svc := newMockChannelService(t)
	svc.On("Get", mock.Anything, int64(1), int64(10)).Return(event.Channel{ID: 10, Type: model.ChannelGuildText}, nil)

	h := NewChannels(svc, testCM, testutil.MakeNoopLogger())
	rec := serve(h.Get, authed(newRequest(http.MethodGet, "/channels/10", "", map[string]string{"channel_id": "10"})))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", decodeBody(t, rec)["id"])
}

func TestChannels_RecipientErrors(t *testing.T) {
	t.Parallel()

	svc := newMockChannelService(t)
	svc.On("AddRecipient", mock.Anything, int64(1), int64(10), int64(2)).Return(model.ErrMissingAccess)

	h := NewChannels(svc, testCM, testutil.MakeNoopLogger())
	rec := serve(h.AddRecipient, authed(newRequest(http.MethodPut, "/channels/10/recipients/2", "", map[string]string{"channel_id": "10", "user_id": "2"})))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(50001), decodeBody(t, rec)["code"])
}

func TestGateway_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{host: "127.0.0.1:8001", want: "wss://127.0.0.1:8001"},
		{host: "ws://localhost:8001/", want: "ws://localhost:8001"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			rec := serve(NewGateway(tt.host).Get, newRequest(http.MethodGet, "/gateway", "", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["url"])
		})
	}
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

// mustField returns field of the i-th element of a JSON array.
func mustField(t *testing.T, raw []byte, i int, field string) json.RawMessage {
	t.Helper()
	var items []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &items))
	require.Greater(t, len(items), i)
	return items[i][field]
}
