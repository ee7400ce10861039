package broker

import (
	"errors"
	"fmt"
)

// ErrInvalidEquipmentName is returned when an equipment name cannot be
// embedded in a topic. Use errors.Is() to check for it in calling code.
var ErrInvalidEquipmentName = errors.New("broker: invalid equipment name")

// ConfigurationError reports an invalid or missing option detected at
// startup or at a topic boundary. It is fatal for whoever constructs the
// Manager; the process must not limp along with a half-valid broker setup.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("broker configuration: %s: %s", e.Field, e.Reason)
}
