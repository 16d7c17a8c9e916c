package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the input file does not exist. No engine
	// is invoked in that case.
	ErrNotFound = errors.New("document not found")

	// ErrUnsupportedFormat is returned by an engine that cannot read the
	// input's format. It counts as an engine failure.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyResult is returned by an engine that read the input but found
	// no content.
	ErrEmptyResult = errors.New("engine produced no content")

	// ErrTooLarge is returned when the input exceeds the configured size
	// limit. No engine is invoked in that case.
	ErrTooLarge = errors.New("file too large")

	// ErrUnknownEngine is returned by the registry for unregistered names.
	ErrUnknownEngine = errors.New("unknown engine")
)

// EngineError reports a failed engine call.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
