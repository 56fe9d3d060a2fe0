package session

import (
	"errors"

	"github.com/KaramelBytes/datalens/internal/loader"
)

// PreconditionError reports an action that needs a loaded table.
type PreconditionError struct {
	Action string
}

func (e *PreconditionError) Error() string {
	return "Please upload a file first."
}

// ValidationError reports an incomplete or invalid selection.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Dialog titles by error kind.
const (
	TitleUnsupported = "Unsupported Format"
	TitleMissing     = "Missing Input"
	TitleError       = "Error"
)

// Title returns the dialog title for err.
func Title(err error) string {
	var ue *loader.UnsupportedFormatError
	var ve *ValidationError
	switch {
	case errors.As(err, &ue):
		return TitleUnsupported
	case errors.As(err, &ve):
		return TitleMissing
	default:
		return TitleError
	}
}

// Message returns the dialog body for err. Parse failures show the
// underlying reader error rather than the wrapped path prefix.
func Message(err error) string {
	var pe *loader.ParseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}
