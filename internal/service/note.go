// Package service holds the business rules of the notes API.
//
//	Handler (HTTP) → Service (rules, ownership) → Repository (storage)
//
// Services take plain values and return domain errors from apperror; they
// know nothing about HTTP. Every NoteService method takes the owner id
// resolved by the auth middleware and passes it to every store call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in and stores a new note owned by ownerID.
// Color defaults to yellow and tags to an empty list.
func (s *NoteService) Create(ctx context.Context, ownerID string, in NoteInput) (*model.Note, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	color, err := model.ParseColor(in.Color)
	if err != nil {
		return nil, apperror.ValidationFailed("color", "Invalid color")
	}

	now := s.now()
	note := &model.Note{
		UserID:    ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		Pinned:    in.Pinned,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("service/note: creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.String("note_id", note.ID),
		slog.String("user_id", ownerID),
	)
	return note, nil
}

// List returns all of the owner's notes, pinned first, newest first.
func (s *NoteService) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	return s.list(ctx, ownerID, repository.NoteQuery{Order: repository.PinnedFirst})
}

func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	return s.repo.GetNote(ctx, ownerID, id)
}

// Update replaces title and/or content. Empty values leave the field as it
// was, so a request with neither is a no-op apart from UpdatedAt.
func (s *NoteService) Update(ctx context.Context, ownerID, id, title, content string) (*model.Note, error) {
	return s.mutate(ctx, ownerID, id, func(n *model.Note) error {
		if strings.TrimSpace(title) != "" {
			n.Title = title
		}
		if strings.TrimSpace(content) != "" {
			n.Content = content
		}
		return nil
	})
}

func (s *NoteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteNote(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("note deleted",
		slog.String("note_id", id),
		slog.String("user_id", ownerID),
	)
	return nil
}

// Search finds notes whose title, content or any tag contains keyword,
// ignoring case. The keyword is a literal string, not a pattern.
func (s *NoteService) Search(ctx context.Context, ownerID, keyword string) ([]model.Note, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperror.ValidationFailed("keyword", "Keyword required")
	}
	return s.list(ctx, ownerID, repository.NoteQuery{Keyword: keyword, Order: repository.NewestFirst})
}

// ParseFilter turns the raw color and pinned query values into a NoteFilter.
// Empty strings mean "no constraint".
func ParseFilter(color, pinned string) (NoteFilter, error) {
	var f NoteFilter

	if color = strings.TrimSpace(color); color != "" {
		c := model.Color(color)
		if !c.Valid() {
			return f, apperror.ValidationFailed("color", "Invalid color")
		}
		f.Color = c
	}

	if pinned = strings.TrimSpace(pinned); pinned != "" {
		b, err := strconv.ParseBool(pinned)
		if err != nil {
			return f, apperror.ValidationFailed("pinned", "Invalid pinned value")
		}
		f.Pinned = &b
	}

	return f, nil
}

// Filter returns the owner's notes matching every set field of f.
func (s *NoteService) Filter(ctx context.Context, ownerID string, f NoteFilter) ([]model.Note, error) {
	return s.list(ctx, ownerID, repository.NoteQuery{
		Color:  f.Color,
		Pinned: f.Pinned,
		Order:  repository.PinnedFirst,
	})
}

// ByTag returns the owner's notes carrying exactly tag, newest first.
func (s *NoteService) ByTag(ctx context.Context, ownerID, tag string) ([]model.Note, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, apperror.ValidationFailed("tag", "Tag required")
	}
	return s.list(ctx, ownerID, repository.NoteQuery{Tag: tag, Order: repository.NewestFirst})
}

// AddTag appends tag to the note. A tag the note already has is rejected
// with DuplicateTag.
func (s *NoteService) AddTag(ctx context.Context, ownerID, id, tag string) (*model.Note, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, apperror.ValidationFailed("tag", "Tag required")
	}

	return s.mutate(ctx, ownerID, id, func(n *model.Note) error {
		if n.HasTag(tag) {
			return apperror.DuplicateTag()
		}
		n.Tags = append(n.Tags, tag)
		return nil
	})
}

// RemoveTag removes every occurrence of tag. Removing a tag the note does
// not have succeeds and leaves the tags unchanged.
func (s *NoteService) RemoveTag(ctx context.Context, ownerID, id, tag string) (*model.Note, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, apperror.ValidationFailed("tag", "Tag required")
	}

	return s.mutate(ctx, ownerID, id, func(n *model.Note) error {
		if !n.RemoveTag(tag) {
			return errUnchanged
		}
		return nil
	})
}

// TogglePin inverts the pinned flag and returns the updated note.
func (s *NoteService) TogglePin(ctx context.Context, ownerID, id string) (*model.Note, error) {
	return s.mutate(ctx, ownerID, id, func(n *model.Note) error {
		n.Pinned = !n.Pinned
		return nil
	})
}

// errUnchanged tells mutate that apply left the note as it was, so nothing
// is written and updatedAt stays put.
var errUnchanged = errors.New("note unchanged")

// mutate is read-modify-write for a single owned note. Concurrent writers
// are last-write-wins.
func (s *NoteService) mutate(ctx context.Context, ownerID, id string, apply func(*model.Note) error) (*model.Note, error) {
	note, err := s.repo.GetNote(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := apply(note); err != nil {
		if errors.Is(err, errUnchanged) {
			return note, nil
		}
		return nil, err
	}
	note.UpdatedAt = s.now()

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) list(ctx context.Context, ownerID string, q repository.NoteQuery) ([]model.Note, error) {
	notes, err := s.repo.ListNotes(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("service/note: listing notes: %w", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}
