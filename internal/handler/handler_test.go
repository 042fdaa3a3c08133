package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notekeep/internal/auth"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository/sqlite"
	"github.com/sakif/notekeep/internal/service"
)

// =========================================================================
// SHARED HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// asUser stands in for auth.RequireAuth: it reads the user id from the
// X-Test-User header so tests can switch identities per request.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			r = r.WithContext(auth.WithUser(r.Context(), &model.User{ID: id, Email: id + "@example.com"}))
		}
		next.ServeHTTP(w, r)
	})
}

// newNotesRouter mounts NoteHandler over an in-memory store.
func newNotesRouter(t *testing.T) http.Handler {
	t.Helper()
	db := newTestDB(t)
	h := NewNoteHandler(service.NewNoteService(db, discardLogger()), discardLogger())

	r := chi.NewRouter()
	r.Route("/api/notes", func(r chi.Router) {
		r.Use(asUser)
		h.Routes(r)
	})
	return r
}

// do sends a request and decodes the envelope. body may be nil, a string
// (sent verbatim) or any value (JSON-encoded).
func do(t *testing.T, h http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func createNote(t *testing.T, h http.Handler, user string, body map[string]any) model.Note {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/notes", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, env.Note)
	return *env.Note
}
