package engine

import (
	"errors"
	"fmt"
)

var (
	// Build-time errors
	ErrDuplicateName = errors.New("duplicate stage name")
	ErrBuilderBound  = errors.New("stage builder already registered with another app builder")

	// Run-time command errors
	ErrStageNotFound     = errors.New("stage not found")
	ErrReferenceNotFound = errors.New("reference stage not busy")
	ErrNilStage          = errors.New("stage builder is nil")

	// Fatal errors abort the run loop
	ErrFatal           = errors.New("fatal engine error")
	ErrMissingResource = errors.New("required resource missing")
	ErrAlreadyRan      = errors.New("app already ran")
)

// DuplicateNameError rejects a stage registration and hands the builder back to the caller
// so none of its accumulated callbacks are lost
type DuplicateNameError struct {
	Name    string
	Builder *StageBuilder
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateName, e.Name)
}

// Unwrap lets errors.Is(err, ErrDuplicateName) match
func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }
