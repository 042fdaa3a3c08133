package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================

// fakeNoteRepo stores notes in a map and enforces the owner filter the same
// way the real stores do. It records the last query so tests can check what
// the service asked for; filtering and ordering are covered by the store tests.
type fakeNoteRepo struct {
	notes     map[string]*model.Note
	nextID    int
	lastQuery repository.NoteQuery
	updates   int

	listErr error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[string]*model.Note)}
}

func (f *fakeNoteRepo) CreateNote(_ context.Context, n *model.Note) error {
	f.nextID++
	n.ID = fmt.Sprintf("note-%d", f.nextID)
	stored := *n
	stored.Tags = append([]string{}, n.Tags...)
	f.notes[n.ID] = &stored
	return nil
}

func (f *fakeNoteRepo) GetNote(_ context.Context, ownerID, id string) (*model.Note, error) {
	n, ok := f.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, apperror.NotFound("note", id)
	}
	copied := *n
	copied.Tags = append([]string{}, n.Tags...)
	return &copied, nil
}

func (f *fakeNoteRepo) ListNotes(_ context.Context, ownerID string, q repository.NoteQuery) ([]model.Note, error) {
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Note
	for _, n := range f.notes {
		if n.UserID == ownerID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) UpdateNote(_ context.Context, n *model.Note) error {
	existing, ok := f.notes[n.ID]
	if !ok || existing.UserID != n.UserID {
		return apperror.NotFound("note", n.ID)
	}
	f.updates++
	stored := *n
	stored.Tags = append([]string{}, n.Tags...)
	f.notes[n.ID] = &stored
	return nil
}

func (f *fakeNoteRepo) DeleteNote(_ context.Context, ownerID, id string) error {
	n, ok := f.notes[id]
	if !ok || n.UserID != ownerID {
		return apperror.NotFound("note", id)
	}
	delete(f.notes, id)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestNoteService returns a service whose clock advances one minute per call.
func newTestNoteService(t *testing.T) (*NoteService, *fakeNoteRepo) {
	t.Helper()
	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, testLogger())

	tick := 0
	svc.now = func() time.Time {
		tick++
		return t0.Add(time.Duration(tick) * time.Minute)
	}
	return svc, repo
}

func mustCreate(t *testing.T, svc *NoteService, owner string, in NoteInput) *model.Note {
	t.Helper()
	n, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return n
}

// =========================================================================
// CREATE / GET
// =========================================================================

func TestCreate_RoundTrip(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, "alice", NoteInput{
		Title:   "  Plan ",
		Content: "    indented code\n",
		Tags:    []string{" work ", "", "errands"},
		Color:   "green",
		Pinned:  true,
	})

	got, err := svc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "  Plan ", got.Title)
	assert.Equal(t, "    indented code\n", got.Content)
	assert.Equal(t, []string{" work ", "", "errands"}, got.Tags)
	assert.Equal(t, model.ColorGreen, got.Color)
	assert.True(t, got.Pinned)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestCreate_Defaults(t *testing.T) {
	svc, _ := newTestNoteService(t)

	n := mustCreate(t, svc, "alice", NoteInput{Title: "T", Content: "C"})
	assert.Equal(t, model.ColorYellow, n.Color)
	assert.False(t, n.Pinned)
	assert.NotNil(t, n.Tags)
	assert.Empty(t, n.Tags)
}

func TestCreate_Validation(t *testing.T) {
	svc, repo := newTestNoteService(t)

	tests := []struct {
		name    string
		in      NoteInput
		wantMsg string
	}{
		{"missing title", NoteInput{Content: "c"}, "Title and Content required"},
		{"missing content", NoteInput{Title: "t"}, "Title and Content required"},
		{"blank title", NoteInput{Title: "   ", Content: "c"}, "Title and Content required"},
		{"blank content", NoteInput{Title: "t", Content: "\n\t"}, "Title and Content required"},
		{"unknown color", NoteInput{Title: "t", Content: "c", Color: "purple"}, "Invalid color"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", tc.in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}
	assert.Empty(t, repo.notes, "nothing may be stored on validation failure")
}

// =========================================================================
// OWNERSHIP
// =========================================================================

func TestNonOwnerSeesNotFound(t *testing.T) {
	svc, repo := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "secret", Content: "diary", Tags: []string{"x"}})

	ops := map[string]func() error{
		"get":        func() error { _, err := svc.Get(ctx, "mallory", n.ID); return err },
		"update":     func() error { _, err := svc.Update(ctx, "mallory", n.ID, "pwned", ""); return err },
		"delete":     func() error { return svc.Delete(ctx, "mallory", n.ID) },
		"add tag":    func() error { _, err := svc.AddTag(ctx, "mallory", n.ID, "y"); return err },
		"remove tag": func() error { _, err := svc.RemoveTag(ctx, "mallory", n.ID, "x"); return err },
		"toggle pin": func() error { _, err := svc.TogglePin(ctx, "mallory", n.ID); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.ErrorIs(t, err, apperror.ErrNotFound)
			assert.Equal(t, "Note not found", err.Error())
		})
	}

	stored := repo.notes[n.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "secret", stored.Title)
	assert.Equal(t, []string{"x"}, stored.Tags)
	assert.False(t, stored.Pinned)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_OnlyNonEmptyFieldsChange(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "old title", Content: "old content"})

	got, err := svc.Update(ctx, "alice", n.ID, "new title", "")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "old content", got.Content)
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt))

	got, err = svc.Update(ctx, "alice", n.ID, "  ", "new content")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "new content", got.Content)
	assert.Equal(t, n.CreatedAt, got.CreatedAt)
}

func TestUpdate_StoresTextAsSent(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "t", Content: "c"})

	_, err := svc.Update(ctx, "alice", n.ID, " Draft ", "\tstep one\n\tstep two\n")
	require.NoError(t, err)

	got, err := svc.Get(ctx, "alice", n.ID)
	require.NoError(t, err)
	assert.Equal(t, " Draft ", got.Title)
	assert.Equal(t, "\tstep one\n\tstep two\n", got.Content)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "t", Content: "c"})

	require.NoError(t, svc.Delete(ctx, "alice", n.ID))

	_, err := svc.Get(ctx, "alice", n.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "alice", n.ID), apperror.ErrNotFound)
}

// =========================================================================
// TAGS
// =========================================================================

func TestAddTag(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "t", Content: "c", Tags: []string{"work"}})

	got, err := svc.AddTag(ctx, "alice", n.ID, "urgent")
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "urgent"}, got.Tags)

	_, err = svc.AddTag(ctx, "alice", n.ID, "work")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Tag already exists", err.Error())

	after, err := svc.Get(ctx, "alice", n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "urgent"}, after.Tags)
}

func TestRemoveTag_AbsentTagIsNoOp(t *testing.T) {
	svc, repo := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "t", Content: "c", Tags: []string{"a", "b"}})

	got, err := svc.RemoveTag(ctx, "alice", n.ID, "never-there")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, n.UpdatedAt, got.UpdatedAt)
	assert.Zero(t, repo.updates, "nothing to write")

	stored, err := svc.Get(ctx, "alice", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.UpdatedAt, stored.UpdatedAt)

	got, err = svc.RemoveTag(ctx, "alice", n.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Tags)
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt))
	assert.Equal(t, 1, repo.updates)
}

func TestTagOperations_RequireTag(t *testing.T) {
	svc, repo := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.AddTag(ctx, "alice", "missing", " ")
	assert.ErrorIs(t, err, apperror.ErrValidation, "blank tag is checked before the lookup")

	_, err = svc.RemoveTag(ctx, "alice", "missing", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.ByTag(ctx, "alice", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Zero(t, repo.updates)
}

// =========================================================================
// PIN
// =========================================================================

func TestTogglePin(t *testing.T) {
	svc, _ := newTestNoteService(t)
	ctx := context.Background()
	n := mustCreate(t, svc, "alice", NoteInput{Title: "t", Content: "c"})

	got, err := svc.TogglePin(ctx, "alice", n.ID)
	require.NoError(t, err)
	assert.True(t, got.Pinned)
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt))
}

func TestTogglePin_TwiceIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, _ := newTestNoteService(t)
		ctx := context.Background()

		start := rapid.Bool().Draw(rt, "pinned")
		n, err := svc.Create(ctx, "alice", NoteInput{Title: "t", Content: "c", Pinned: start})
		if err != nil {
			rt.Fatalf("Create: %v", err)
		}

		flips := rapid.IntRange(0, 6).Draw(rt, "pairs") * 2
		for i := 0; i < flips; i++ {
			if _, err := svc.TogglePin(ctx, "alice", n.ID); err != nil {
				rt.Fatalf("TogglePin: %v", err)
			}
		}

		got, err := svc.Get(ctx, "alice", n.ID)
		if err != nil {
			rt.Fatalf("Get: %v", err)
		}
		if got.Pinned != start {
			rt.Fatalf("after %d toggles pinned = %v, want %v", flips, got.Pinned, start)
		}
	})
}

// =========================================================================
// QUERIES
// =========================================================================

func TestQueriesAskForTheRightOrder(t *testing.T) {
	svc, repo := newTestNoteService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, repository.NoteQuery{Order: repository.PinnedFirst}, repo.lastQuery)

	_, err = svc.Search(ctx, "alice", "  trip ")
	require.NoError(t, err)
	assert.Equal(t, repository.NoteQuery{Keyword: "trip", Order: repository.NewestFirst}, repo.lastQuery)

	_, err = svc.ByTag(ctx, "alice", "work")
	require.NoError(t, err)
	assert.Equal(t, repository.NoteQuery{Tag: "work", Order: repository.NewestFirst}, repo.lastQuery)

	pinned := true
	_, err = svc.Filter(ctx, "alice", NoteFilter{Color: model.ColorBlue, Pinned: &pinned})
	require.NoError(t, err)
	assert.Equal(t, model.ColorBlue, repo.lastQuery.Color)
	require.NotNil(t, repo.lastQuery.Pinned)
	assert.True(t, *repo.lastQuery.Pinned)
	assert.Equal(t, repository.PinnedFirst, repo.lastQuery.Order)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	svc, _ := newTestNoteService(t)

	notes, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestList_StoreErrorIsWrapped(t *testing.T) {
	svc, repo := newTestNoteService(t)
	boom := errors.New("database is locked")
	repo.listErr = boom

	_, err := svc.List(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
}

func TestSearch_RequiresKeyword(t *testing.T) {
	svc, _ := newTestNoteService(t)

	_, err := svc.Search(context.Background(), "alice", "   ")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Keyword required", err.Error())
}

func TestParseFilter(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		color, pinned string
		want          NoteFilter
		wantErr       bool
	}{
		{"", "", NoteFilter{}, false},
		{"blue", "", NoteFilter{Color: model.ColorBlue}, false},
		{"", "true", NoteFilter{Pinned: &yes}, false},
		{"", "false", NoteFilter{Pinned: &no}, false},
		{"pink", "1", NoteFilter{Color: model.ColorPink, Pinned: &yes}, false},
		{"purple", "", NoteFilter{}, true},
		{"", "maybe", NoteFilter{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.color+"/"+tc.pinned, func(t *testing.T) {
			got, err := ParseFilter(tc.color, tc.pinned)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
