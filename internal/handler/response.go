package handler

// Every response, success or failure, is an Envelope:
//
//	{"success":true,"notes":[...],"count":2}
//	{"success":false,"message":"Note not found"}
//
// Domain errors are mapped to status codes in writeError. Anything that is
// not an *apperror.AppError is logged and answered with a generic 500.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/service"
)

// maxBodyBytes caps request bodies. Notes are plain text.
const maxBodyBytes = 1 << 20

// Envelope is the body of every response.
//
// Notes uses omitzero (Go 1.24+), which drops only a nil slice, so an empty
// list still encodes as "notes":[]. omitempty would drop that too. Count is
// a pointer for the same reason: a count of 0 must be sent.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Token   string              `json:"token,omitempty"`
	User    *model.PublicUser   `json:"user,omitempty"`
	Note    *model.Note         `json:"note,omitempty"`
	Notes   []model.Note        `json:"notes,omitzero"`
	Count   *int                `json:"count,omitempty"`
	Filters *service.NoteFilter `json:"filters,omitempty"`
	Tag     string              `json:"tag,omitempty"`
}

func listEnvelope(notes []model.Note) Envelope {
	n := len(notes)
	return Envelope{Success: true, Notes: notes, Count: &n}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated), errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if status := statusFor(err); status != http.StatusInternalServerError {
			writeJSON(w, status, Envelope{Message: appErr.Message})
			return
		}
	}

	// Never echo internal details; they may hold SQL or file paths.
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, Envelope{Message: "An internal error occurred"})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed or oversized bodies are a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty body decodes as an empty object; required-field checks
			// downstream produce the right message.
			return nil
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// HandleNotFound answers unknown routes with the usual envelope.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Envelope{Message: "Route not found"})
}

// HandleMethodNotAllowed answers a known path with an unsupported method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, Envelope{Message: "Method not allowed"})
}
