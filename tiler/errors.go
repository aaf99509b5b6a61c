package tiler

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by NextJob when no tile job became available before
// the timeout elapsed. It is a control-flow signal for workers, not a
// failure: the caller is expected to check for shutdown and poll again.
var ErrEmpty = errors.New("tiler: no pending tile jobs")

// InvalidArgumentError reports a configuration value that was rejected at
// the call which tried to set it. Field names match the Config field (or
// setter argument) that carried the bad value.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("tiler: invalid %s: %s", e.Field, e.Reason)
}

func invalidArg(field, format string, args ...any) error {
	return &InvalidArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
