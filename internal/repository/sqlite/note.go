package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

var _ repository.NoteRepository = (*DB)(nil)

const noteColumns = `id, user_id, title, content, tags, pinned, color, created_at, updated_at`

// CreateNote inserts a new note. ID is generated here when empty; the
// timestamps, owner and defaults are the caller's responsibility.
//
// xid IDs are 20 URL-safe characters and sort by creation time, which gives
// ListNotes a stable last-resort tie-break.
func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = xid.New().String()
	}

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		tags,
		note.Pinned,
		string(note.Color),
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	return nil
}

// GetNote returns the note with this id, but only if ownerID owns it.
// A note owned by someone else yields the same NotFound as a missing one.
func (db *DB) GetNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}

	return note, nil
}

// ListNotes returns the owner's notes that satisfy q.
//
// BUILDING THE WHERE CLAUSE:
// Every constraint appends a fragment with ? placeholders plus its argument.
// User input only ever travels as an argument, never as SQL text.
//
// TAG QUERIES:
// tags is a JSON array column. json_each(notes.tags) expands it into rows,
// so "has tag X" becomes an EXISTS over that expansion.
func (db *DB) ListNotes(ctx context.Context, ownerID string, q repository.NoteQuery) ([]model.Note, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}

	if q.Color != "" {
		where = append(where, "color = ?")
		args = append(args, string(q.Color))
	}
	if q.Pinned != nil {
		where = append(where, "pinned = ?")
		args = append(args, *q.Pinned)
	}
	if q.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)")
		args = append(args, q.Tag)
	}
	if q.Keyword != "" {
		// instr is a plain substring test, so the keyword needs no escaping.
		// Both sides go through fold() for Unicode case-insensitivity.
		kw := fold(q.Keyword)
		where = append(where, `(instr(fold(title), ?) > 0 OR instr(fold(content), ?) > 0
			OR EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE instr(fold(json_each.value), ?) > 0))`)
		args = append(args, kw, kw, kw)
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY ` + orderBy(q.Order)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return notes, nil
}

// UpdateNote writes all mutable fields. The WHERE clause matches on both id
// and user_id, and user_id is not in the SET list, so ownership can neither
// be bypassed nor reassigned here.
func (db *DB) UpdateNote(ctx context.Context, note *model.Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE notes
		 SET title = ?, content = ?, tags = ?, pinned = ?, color = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		note.Title,
		note.Content,
		tags,
		note.Pinned,
		string(note.Color),
		note.UpdatedAt,
		note.ID,
		note.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("note", note.ID)
	}

	return nil
}

// DeleteNote removes the owner's note. Same RowsAffected pattern as UpdateNote.
func (db *DB) DeleteNote(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("note", id)
	}

	return nil
}

func orderBy(o repository.NoteOrder) string {
	if o == repository.NewestFirst {
		return `created_at DESC, id DESC`
	}
	return `pinned DESC, created_at DESC, id DESC`
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*model.Note, error) {
	var (
		n     model.Note
		tags  string
		color string
	)
	if err := s.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &tags,
		&n.Pinned, &color, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of note %s: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.Color = model.Color(color)

	return &n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return string(raw), nil
}
