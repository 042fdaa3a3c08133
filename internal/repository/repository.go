// Package repository declares the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, mongodb). Every NoteRepository
// method takes the owner id explicitly: there is no way to read or write a
// note without saying whose note it is.
package repository

import (
	"context"

	"github.com/sakif/notekeep/internal/model"
)

// NoteOrder selects how ListNotes sorts its result.
type NoteOrder int

const (
	// PinnedFirst puts pinned notes first, newest first within each group.
	PinnedFirst NoteOrder = iota
	// NewestFirst ignores the pinned flag.
	NewestFirst
)

// NoteQuery narrows ListNotes. Zero values mean "no constraint".
type NoteQuery struct {
	Color   model.Color // exact colour
	Pinned  *bool       // exact pinned state
	Tag     string      // exact tag membership
	Keyword string      // case-insensitive substring of title, content or any tag
	Order   NoteOrder
}

type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, ownerID, id string) (*model.Note, error)
	ListNotes(ctx context.Context, ownerID string, q NoteQuery) ([]model.Note, error)
	// UpdateNote persists every mutable field of note. The row is matched on
	// note.ID AND note.UserID; user_id itself is never rewritten.
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, ownerID, id string) error
}

type UserRepository interface {
	// CreateUser returns apperror.DuplicateUser when the email is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
