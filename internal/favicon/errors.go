package favicon

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is matched by errors.Is for a missing source image.
var ErrSourceNotFound = errors.New("source image not found")

// SourceNotFoundError reports that the source path did not exist when the
// run started. No decoding was attempted.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%v at %s", ErrSourceNotFound, e.Path)
}

func (e *SourceNotFoundError) Is(target error) bool {
	return target == ErrSourceNotFound
}

// Stage is one step of the processing pipeline.
type Stage int

const (
	StageDecode Stage = iota
	StageResize
	StageEncode
	StageWrite
)

func (s Stage) String() string {
	switch s {
	case StageDecode:
		return "decode"
	case StageResize:
		return "resize"
	case StageEncode:
		return "encode"
	case StageWrite:
		return "write"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// StageError is a failure inside the pipeline, tagged with the step that
// failed and, for file steps, the path involved.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
