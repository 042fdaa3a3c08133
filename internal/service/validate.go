package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole package.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// NoteInput is the payload for creating a note. Whitespace-only title or
// content counts as missing, but the text is stored exactly as sent.
type NoteInput struct {
	Title   string `validate:"notblank"`
	Content string `validate:"notblank"`
	Tags    []string
	Color   string `validate:"omitempty,oneof=yellow blue green pink"`
	Pinned  bool
}

// Credentials is the register/login payload.
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// NoteFilter is a parsed filter request. A nil Pinned means "either".
// It is echoed back to the client as-is.
type NoteFilter struct {
	Color  model.Color `json:"color,omitempty"`
	Pinned *bool       `json:"pinned,omitempty"`
}

// normalize trims the color and copies tags into a non-nil slice. Tags are
// kept verbatim and in order.
func (in *NoteInput) normalize() {
	in.Color = strings.TrimSpace(in.Color)
	in.Tags = append(make([]string, 0, len(in.Tags)), in.Tags...)
}

// validateStruct runs the struct tags on v and converts the first failure
// into an *apperror.AppError carrying the client-facing message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch field {
	case "title", "content":
		return apperror.ValidationFailed(field, "Title and Content required")
	case "color":
		return apperror.ValidationFailed(field, "Invalid color")
	case "email", "password":
		return apperror.ValidationFailed(field, "All fields required")
	default:
		return apperror.ValidationFailed(field, "Invalid "+field)
	}
}
