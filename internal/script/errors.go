package script

import (
	"errors"
	"fmt"
)

// Errors for scene scripts.
var (
	// ErrClosed is returned when building from a closed runner.
	ErrClosed = errors.New("script runner closed")

	// ErrOpLimit is returned when a build records more operations than
	// allowed.
	ErrOpLimit = errors.New("scene operation limit exceeded")

	// ErrTimeout is returned when a build runs longer than allowed.
	ErrTimeout = errors.New("scene execution timeout")
)

// ScriptError is a failure while compiling or running a scene.
type ScriptError struct {
	// Path names the scene.
	Path string
	// Phase is "compile", "setup" or "build".
	Phase string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("scene %s: %s: %v", e.Path, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
