package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/auth"
	"github.com/sakif/notekeep/internal/service"
)

// NoteHandler serves /api/notes. Every route sits behind auth.RequireAuth,
// so the owner id is always in the request context.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// Routes mounts the note endpoints. The literal segments (search, filter,
// tag) are registered before {id}; chi prefers static matches anyway.
func (h *NoteHandler) Routes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/search", h.HandleSearch)
	r.Get("/filter", h.HandleFilter)
	r.Get("/tag/{tagName}", h.HandleByTag)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Put("/{id}/tags/add", h.HandleAddTag)
	r.Put("/{id}/tags/remove", h.HandleRemoveTag)
	r.Put("/{id}/pin", h.HandleTogglePin)
}

type createNoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color"`
	IsPinned bool     `json:"isPinned"`
}

type updateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

// HandleCreate: POST /api/notes → 201 {"success":true,"note":{...}}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.Create(r.Context(), ownerID(r), service.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Color:   req.Color,
		Pinned:  req.IsPinned,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Note: note})
}

// HandleList: GET /api/notes
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope(notes))
}

// HandleSearch: GET /api/notes/search?keyword=trip
func (h *NoteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.Search(r.Context(), ownerID(r), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope(notes))
}

// HandleFilter: GET /api/notes/filter?color=blue&pinned=true
func (h *NoteHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := service.ParseFilter(q.Get("color"), q.Get("pinned"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	notes, err := h.notes.Filter(r.Context(), ownerID(r), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	env := listEnvelope(notes)
	env.Filters = &f
	writeJSON(w, http.StatusOK, env)
}

// HandleByTag: GET /api/notes/tag/{tagName}. The segment is percent-decoded,
// so "/tag/to%20do" matches the tag "to do".
func (h *NoteHandler) HandleByTag(w http.ResponseWriter, r *http.Request) {
	tag, err := decodedParam(r, "tagName")
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("tag", "Invalid tag"))
		return
	}

	notes, err := h.notes.ByTag(r.Context(), ownerID(r), tag)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	env := listEnvelope(notes)
	env.Tag = tag
	writeJSON(w, http.StatusOK, env)
}

// HandleGet: GET /api/notes/{id}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Note: note})
}

// HandleUpdate: PUT /api/notes/{id} with {"title"?, "content"?}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Note: note})
}

// HandleDelete: DELETE /api/notes/{id}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Note deleted"})
}

// HandleAddTag: PUT /api/notes/{id}/tags/add with {"tag":"work"}
func (h *NoteHandler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.AddTag(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Note: note})
}

// HandleRemoveTag: PUT /api/notes/{id}/tags/remove with {"tag":"work"}
func (h *NoteHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	note, err := h.notes.RemoveTag(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Note: note})
}

// HandleTogglePin: PUT /api/notes/{id}/pin
func (h *NoteHandler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.TogglePin(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	msg := "Note unpinned"
	if note.Pinned {
		msg = "Note pinned"
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Note: note})
}

// decodedParam returns a percent-decoded path parameter. chi routes on
// URL.RawPath when it is set (an escaped "/" for instance), and the captured
// value is then still encoded; otherwise it was already decoded by net/http.
func decodedParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// ownerID returns the id RequireAuth stored. Routes in this file are only
// reachable through that middleware, so it is never empty in practice; an
// empty id matches no notes.
func ownerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
