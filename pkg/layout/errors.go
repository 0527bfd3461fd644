package layout

import (
	"errors"
	"fmt"
)

// ErrLayoutEngine matches every LayoutEngineError via errors.Is
var ErrLayoutEngine = errors.New("layout engine error")

// LayoutEngineError is returned when the engine rejects the input or produces
// an unusable result
type LayoutEngineError struct {
	Reason string
	Err    error
}

func (e *LayoutEngineError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("layout engine: %s: %v", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("layout engine: %v", e.Err)
	default:
		return fmt.Sprintf("layout engine: %s", e.Reason)
	}
}

func (e *LayoutEngineError) Is(target error) bool {
	return target == ErrLayoutEngine
}

func (e *LayoutEngineError) Unwrap() error {
	return e.Err
}
