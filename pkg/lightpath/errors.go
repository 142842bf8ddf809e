package lightpath

import (
	"errors"
	"fmt"
)

var (
	// ErrTopologyMismatch is returned when a computed path step has no
	// matching raw link, i.e. the snapshot changed between fetch and use.
	ErrTopologyMismatch = errors.New("lightpath: path step has no matching link")

	// ErrEmptyPath is returned when reconstruction is given no nodes.
	ErrEmptyPath = errors.New("lightpath: empty node sequence")
)

// Stage names the pipeline stage an error came from.
type Stage string

const (
	StageFetch       Stage = "fetch"
	StageFlatten     Stage = "flatten"
	StageSolve       Stage = "solve"
	StageReconstruct Stage = "reconstruct"
	StageProvision   Stage = "provision"
)

// StageError wraps a failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage of err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
