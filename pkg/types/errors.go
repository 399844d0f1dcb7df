package types

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	// ErrResource indicates a gazetteer, coordinate, or cross-reference
	// resource is missing or malformed. Fatal at load time.
	ErrResource = errors.New("linking resource missing or malformed")

	// ErrInputShape indicates a strategy received a bare value where a
	// labeled record is required.
	ErrInputShape = errors.New("input has the wrong shape")

	// ErrExternalModel indicates an external model collaborator failed or
	// returned output that could not be decoded.
	ErrExternalModel = errors.New("external model call failed")

	// ErrNotLoaded indicates a component was used before its resources
	// were loaded.
	ErrNotLoaded = errors.New("resources not loaded")
)

// ResourceError reports which resource failed to load and why.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resource %s: missing or malformed", e.Path)
	}
	return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ResourceError.
// Both errors.Is(err, ErrResource) and errors.Is(err, &ResourceError{}) match.
func (e *ResourceError) Is(target error) bool {
	if target == ErrResource {
		return true
	}
	_, ok := target.(*ResourceError)
	return ok
}

// NewResourceError creates a resource error for the given path.
func NewResourceError(path string, err error) *ResourceError {
	return &ResourceError{Path: path, Err: err}
}

// InputShapeError reports a value passed across a strategy boundary in the
// wrong shape.
type InputShapeError struct {
	Want string
	Got  string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("input shape: want %s, got %s", e.Want, e.Got)
}

// Is implements errors.Is support for InputShapeError.
func (e *InputShapeError) Is(target error) bool {
	if target == ErrInputShape {
		return true
	}
	_, ok := target.(*InputShapeError)
	return ok
}

// NewInputShapeError creates an input shape error.
func NewInputShapeError(want, got string) *InputShapeError {
	return &InputShapeError{Want: want, Got: got}
}

// ExternalModelError reports a failed external model call, scoped to the
// document that was being processed so batch callers can mark it failed
// without aborting the rest of the batch.
type ExternalModelError struct {
	DocumentID string
	Err        error
}

func (e *ExternalModelError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("external model: %v", e.Err)
	}
	return fmt.Sprintf("external model (document %s): %v", e.DocumentID, e.Err)
}

func (e *ExternalModelError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ExternalModelError.
func (e *ExternalModelError) Is(target error) bool {
	if target == ErrExternalModel {
		return true
	}
	_, ok := target.(*ExternalModelError)
	return ok
}

// NewExternalModelError creates an external model error for a document.
func NewExternalModelError(documentID string, err error) *ExternalModelError {
	return &ExternalModelError{DocumentID: documentID, Err: err}
}
