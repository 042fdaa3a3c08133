// Package model holds the notes and users shared by the store, service and
// handler layers.
package model

import (
	"fmt"
	"time"
)

// Color is the category colour of a note. Only the values below are valid.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
)

// DefaultColor is applied when a note is created without a colour.
const DefaultColor = ColorYellow

// Colors lists every accepted colour in display order.
var Colors = []Color{ColorYellow, ColorBlue, ColorGreen, ColorPink}

// Valid reports whether c is one of the enumerated colours.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// ParseColor converts raw input into a Color.
// The empty string is accepted and means "use the default".
func ParseColor(s string) (Color, error) {
	if s == "" {
		return DefaultColor, nil
	}
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// Note is a user-owned piece of content.
//
// OWNERSHIP:
// UserID is bound when the note is created and never changes afterwards.
// Every store query filters on BOTH ID and UserID, so a note that belongs to
// someone else behaves exactly like a note that does not exist.
//
// The JSON names match what the web client already sends and expects
// (isPinned, userId, createdAt...).
type Note struct {
	ID        string    `json:"id"        bson:"_id"`
	UserID    string    `json:"userId"    bson:"user_id"`
	Title     string    `json:"title"     bson:"title"`
	Content   string    `json:"content"   bson:"content"`
	Tags      []string  `json:"tags"      bson:"tags"`
	Pinned    bool      `json:"isPinned"  bson:"pinned"`
	Color     Color     `json:"color"     bson:"color"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasTag reports whether the note carries exactly this tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RemoveTag drops every occurrence of tag and reports whether anything changed.
func (n *Note) RemoveTag(tag string) bool {
	kept := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(n.Tags)
	n.Tags = kept
	return removed
}
