package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("note", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "Title and Content required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "DuplicateUser wraps ErrConflict",
			err:       DuplicateUser(),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "DuplicateTag wraps ErrConflict",
			err:       DuplicateTag(),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("Not authorized"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials(),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("getting note: %w", NotFound("note", "x")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("note", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "InvalidCredentials does NOT match ErrUnauthenticated",
			err:       InvalidCredentials(),
			target:    ErrUnauthenticated,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message names the resource, not the id",
			err:         NotFound("note", "abc123"),
			wantMessage: "Note not found",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("keyword", "Keyword required"),
			wantMessage: "Keyword required",
		},
		{
			name:        "DuplicateUser",
			err:         DuplicateUser(),
			wantMessage: "User already exists",
		},
		{
			name:        "DuplicateTag",
			err:         DuplicateTag(),
			wantMessage: "Tag already exists",
		},
		{
			name:        "InvalidCredentials",
			err:         InvalidCredentials(),
			wantMessage: "Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("note", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
	if err.ID != "abc123" {
		t.Errorf("ID = %q, want %q", err.ID, "abc123")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("color", "invalid color")
	if err.Field != "color" {
		t.Errorf("Field = %q, want %q", err.Field, "color")
	}
}
