package circuit

import (
	"errors"
	"fmt"

	"github.com/roach88/pulse/internal/ir"
)

// ConfigErrorCode classifies network construction failures.
type ConfigErrorCode string

const (
	ErrCodeEmptyID            ConfigErrorCode = "EMPTY_ID"
	ErrCodeDuplicateNode      ConfigErrorCode = "DUPLICATE_NODE"
	ErrCodeReservedID         ConfigErrorCode = "RESERVED_ID"
	ErrCodeInvalidKind        ConfigErrorCode = "INVALID_KIND"
	ErrCodeUnknownDestination ConfigErrorCode = "UNKNOWN_DESTINATION"
)

// ConfigError reports a network description that cannot be built.
type ConfigError struct {
	Code        ConfigErrorCode
	NodeID      ir.NodeID
	Destination ir.NodeID
	Message     string
}

func (e *ConfigError) Error() string {
	if e.Destination != "" {
		return fmt.Sprintf("%s: node %q -> %q: %s", e.Code, e.NodeID, e.Destination, e.Message)
	}
	return fmt.Sprintf("%s: node %q: %s", e.Code, e.NodeID, e.Message)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// MissingInputError is returned when a gate receives a signal from a source
// it has no memory slot for. With construction-time discovery this means the
// network invariant was broken, so it is fatal to the tick.
type MissingInputError struct {
	Gate   ir.NodeID
	Source ir.NodeID
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("gate %q has no remembered input for source %q", e.Gate, e.Source.String())
}

// IsMissingInputError reports whether err is or wraps a MissingInputError.
func IsMissingInputError(err error) bool {
	var me *MissingInputError
	return errors.As(err, &me)
}
