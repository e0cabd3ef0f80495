package types

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrEmptyPool         = emptyPoolError{}
	ErrDurationSolver    = errors.New("duration solver failure")
	ErrMismatchedLengths = errors.New("mismatched selection and duration lengths")
	ErrRender            = errors.New("render failure")
)

// emptyPoolError also matches ErrInvalidArgument so callers can handle either
type emptyPoolError struct{}

func (emptyPoolError) Error() string { return "media pool is empty" }

func (emptyPoolError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// InvalidArgument wraps ErrInvalidArgument with a formatted reason
func InvalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// DurationSolverError carries the parameters the solver tried
type DurationSolverError struct {
	Mode           TimingMode
	Reason         string
	ClipDuration   float64
	TargetMin      float64
	TargetMax      float64
	TargetDuration float64
	UniqueCount    int
	ClipCount      int
	LoopCount      int
	LoopCap        int
}

func (e *DurationSolverError) Error() string {
	return fmt.Sprintf("%s: %s (mode=%s clip=%.3fs target=%.2fs window=[%.2f,%.2f] unique=%d clips=%d loops=%d cap=%d)",
		ErrDurationSolver, e.Reason, e.Mode, e.ClipDuration, e.TargetDuration, e.TargetMin, e.TargetMax,
		e.UniqueCount, e.ClipCount, e.LoopCount, e.LoopCap)
}

func (e *DurationSolverError) Unwrap() error { return ErrDurationSolver }

// RenderError is returned when the external renderer fails
type RenderError struct {
	Output      string
	Diagnostics string
	Err         error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrRender, e.Output)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostics != "" {
		msg += "\n" + e.Diagnostics
	}
	return msg
}

func (e *RenderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRender}
	}
	return []error{ErrRender, e.Err}
}
