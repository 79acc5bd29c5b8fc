package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of a patch run.
type Stage string

const (
	StageLocate   Stage = "locate"
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
	StageMerge    Stage = "merge"
	StageCleanup  Stage = "cleanup"
	StageReadme   Stage = "readme"
)

// StageError ties a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] failed", e.Stage)
	}
	return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches any StageError of the same stage, so callers can write
// errors.Is(err, pipeline.ErrDownload).
func (e *StageError) Is(target error) bool {
	var t *StageError
	if errors.As(target, &t) {
		return t.Stage == e.Stage
	}
	return false
}

var (
	ErrLocate   = &StageError{Stage: StageLocate}
	ErrDownload = &StageError{Stage: StageDownload}
	ErrExtract  = &StageError{Stage: StageExtract}
	ErrMerge    = &StageError{Stage: StageMerge}
	ErrCleanup  = &StageError{Stage: StageCleanup}
	ErrReadme   = &StageError{Stage: StageReadme}
)

// StageOf returns the stage carried by err, or "" if err is not a StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
