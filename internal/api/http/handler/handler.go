// Package handler implements the REST endpoints on top of the services.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/yepcord/server-sub002/internal/api/http/response"
	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

const maxUploadSize = 25 << 20

// endpoint produces the body of a response. A nil body means 204.
type endpoint func(session model.Session) (any, error)

type base struct {
	contextManager model.ContextManager
	logger         *logger.Logger
}

// serve runs fn for the session the authentication middleware stored.
func (b base) serve(w http.ResponseWriter, r *http.Request, fn endpoint) {
	session, ok := b.contextManager.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, b.logger, model.ErrUnauthorized)
		return
	}
	body, err := fn(session)
	b.reply(w, body, err)
}

// serveAnon runs fn for an unauthenticated endpoint.
func (b base) serveAnon(w http.ResponseWriter, fn func() (any, error)) {
	body, err := fn()
	b.reply(w, body, err)
}

func (b base) reply(w http.ResponseWriter, body any, err error) {
	switch {
	case err != nil:
		response.Error(w, b.logger, err)
	case body == nil:
		response.NoContent(w)
	default:
		response.JSON(w, http.StatusOK, body)
	}
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return model.ErrInvalidJSON
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodePayload reads v from a JSON body or from the payload_json field of
// a multipart form.
func decodePayload(r *http.Request, v any) error {
	if !isMultipart(r) {
		return decodeJSON(r, v)
	}
	if err := parseMultipart(r); err != nil {
		return err
	}
	raw := r.FormValue("payload_json")
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return model.ErrInvalidJSON
	}
	return nil
}

func parseMultipart(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.ErrEntityTooLarge
		}
		return model.ErrInvalidJSON
	}
	return nil
}

// uploads opens the files[n] parts of a multipart form in index order. The
// returned func closes them and removes temporary files.
func uploads(r *http.Request) ([]service.Upload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	keys := make([]string, 0, len(r.MultipartForm.File))
	for key := range r.MultipartForm.File {
		if strings.HasPrefix(key, "files[") {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return fileIndex(keys[i]) < fileIndex(keys[j]) })

	var (
		files  []service.Upload
		opened []multipart.File
	)
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}
	for _, key := range keys {
		for _, fh := range r.MultipartForm.File[key] {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				return nil, noop, err
			}
			opened = append(opened, f)
			files = append(files, service.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			})
		}
	}
	return files, cleanup, nil
}

func fileIndex(key string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(key, "files["), "]"))
	if err != nil {
		return -1
	}
	return n
}

// pathID parses a numeric route variable. Routes constrain the pattern, so
// a failure means the id overflows and cannot exist.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, model.ErrNotFoundRoute
	}
	return id, nil
}

// userID parses a user route variable that may be "@me".
func userID(r *http.Request, name string, session model.Session) (int64, error) {
	if mux.Vars(r)[name] == "@me" {
		return session.UserID, nil
	}
	return pathID(r, name)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.InvalidForm(name, model.CodeNumberTypeCoerce, "Value \""+raw+"\" is not int.")
	}
	return n, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, model.InvalidForm(name, model.CodeNumberTypeCoerce, "Value \""+raw+"\" is not snowflake.")
	}
	return &id, nil
}

func snowflakes(ids []model.Snowflake) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
