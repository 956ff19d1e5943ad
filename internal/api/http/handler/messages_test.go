package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
	"github.com/yepcord/server-sub002/internal/testutil"
)

var channelVars = map[string]string{"channel_id": "10"}

func TestMessages_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantBefore int64
		wantAfter  int64
	}{
		{name: "defaults", query: ""},
		{name: "before", query: "?limit=50&before=99", wantLimit: 50, wantBefore: 99},
		{name: "after", query: "?after=7", wantAfter: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newMockMessageService(t)
			svc.On("List", mock.Anything, int64(1), int64(10), tt.wantLimit, tt.wantBefore, tt.wantAfter).
				Return([]event.Message{{ID: 5, ChannelID: 10}}, nil)

			h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
			rec := serve(h.List, authed(newRequest(http.MethodGet, "/channels/10/messages"+tt.query, "", channelVars)))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `"5"`, string(mustField(t, rec.Body.Bytes(), 0, "id")))
		})
	}
}

func TestMessages_SendJSON(t *testing.T) {
	t.Parallel()

	svc := newMockMessageService(t)
	svc.On("Send", mock.Anything, int64(1), int64(10), mock.MatchedBy(func(req service.SendMessageRequest) bool {
		return req.Content == "hello" && req.Nonce == "n1" && len(req.Files) == 0
	})).Return(event.Message{ID: 5, ChannelID: 10, Content: "hello"}, nil)

	h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
	rec := serve(h.Send, authed(newRequest(http.MethodPost, "/channels/10/messages", `{"content":"hello","nonce":"n1"}`, channelVars)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", decodeBody(t, rec)["content"])
}

func TestMessages_SendMultipart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("payload_json", `{"content":"files"}`))
	for _, f := range []struct{ key, name, body string }{
		{"files[1]", "second.txt", "two"},
		{"files[0]", "first.txt", "one"},
	} {
		part, err := mw.CreateFormFile(f.key, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	svc := newMockMessageService(t)
	var (
		names  []string
		bodies []string
	)
	svc.On("Send", mock.Anything, int64(1), int64(10), mock.Anything).
		Return(event.Message{ID: 5, ChannelID: 10}, nil).
		Run(func(args mock.Arguments) {
			req := args.Get(3).(service.SendMessageRequest)
			assert.Equal(t, "files", req.Content)
			for _, f := range req.Files {
				raw, err := io.ReadAll(f.Body)
				assert.NoError(t, err)
				names = append(names, f.Filename)
				bodies = append(bodies, string(raw))
			}
		})

	req := httptest.NewRequest(http.MethodPost, "/channels/10/messages", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
	rec := serve(h.Send, authed(withVars(req, channelVars)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first.txt", "second.txt"}, names)
	assert.Equal(t, []string{"one", "two"}, bodies)
}

func TestMessages_NoContentEndpoints(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"channel_id": "10", "message_id": "5", "emoji": "🔥"}

	tests := []struct {
		name   string
		method string
		args   []any
		call   func(h *Messages) http.HandlerFunc
		body   string
	}{
		{name: "delete", method: "Delete", args: []any{int64(5)}, call: func(h *Messages) http.HandlerFunc { return h.Delete }},
		{name: "ack", method: "Ack", args: []any{int64(5)}, call: func(h *Messages) http.HandlerFunc { return h.Ack }, body: `{"token":null}`},
		{name: "typing", method: "Typing", call: func(h *Messages) http.HandlerFunc { return h.Typing }},
		{name: "pin", method: "Pin", args: []any{int64(5)}, call: func(h *Messages) http.HandlerFunc { return h.Pin }},
		{name: "unpin", method: "Unpin", args: []any{int64(5)}, call: func(h *Messages) http.HandlerFunc { return h.Unpin }},
		{name: "react", method: "AddReaction", args: []any{int64(5), "🔥"}, call: func(h *Messages) http.HandlerFunc { return h.AddReaction }},
		{name: "unreact", method: "RemoveReaction", args: []any{int64(5), "🔥"}, call: func(h *Messages) http.HandlerFunc { return h.RemoveReaction }},
		{name: "bulk delete", method: "BulkDelete", args: []any{[]int64{5, 6}}, call: func(h *Messages) http.HandlerFunc { return h.BulkDelete }, body: `{"messages":["5","6"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newMockMessageService(t)
			args := append([]any{mock.Anything, int64(1), int64(10)}, tt.args...)
			svc.On(tt.method, args...).Return(nil)

			h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
			rec := serve(tt.call(h), authed(newRequest(http.MethodPost, "/", tt.body, vars)))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}
}

func TestMessages_EditForbidden(t *testing.T) {
	t.Parallel()

	svc := newMockMessageService(t)
	svc.On("Edit", mock.Anything, int64(1), int64(10), int64(5), mock.MatchedBy(func(req service.EditMessageRequest) bool {
		return req.Content == model.Some("edited") && !req.Embeds.Set
	})).Return(event.Message{}, model.ErrCannotEditOthers)

	h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
	vars := map[string]string{"channel_id": "10", "message_id": "5"}
	rec := serve(h.Edit, authed(newRequest(http.MethodPatch, "/channels/10/messages/5", `{"content":"edited"}`, vars)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(50005), decodeBody(t, rec)["code"])
}

func TestMessages_Search(t *testing.T) {
	t.Parallel()

	svc := newMockMessageService(t)
	svc.On("Search", mock.Anything, int64(1), int64(100), "hello", mock.MatchedBy(func(id *int64) bool {
		return id != nil && *id == 2
	}), (*int64)(nil), 25).Return(service.SearchResult{TotalResults: 1, Messages: [][]event.Message{{{ID: 5}}}}, nil)

	h := NewMessages(svc, testCM, testutil.MakeNoopLogger())
	req := newRequest(http.MethodGet, "/guilds/100/messages/search?content=hello&author_id=2&offset=25", "", map[string]string{"guild_id": "100"})
	rec := serve(h.Search, authed(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total_results"])
}
