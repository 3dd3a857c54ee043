package sfa

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-sfa/sfa/config"
)

var (
	// ErrConfiguration marks invalid settings, whether detected by Fit or
	// while loading a config file. It is config.ErrInvalid.
	ErrConfiguration = config.ErrInvalid

	// ErrPrerequisite is returned when an operation depends on state that was not kept,
	// such as shortening bags without saved words.
	ErrPrerequisite = errors.New("sfa: prerequisite not met")

	// ErrInvalidInput marks malformed collections: ragged or short series,
	// non-finite samples, or a label count that does not match.
	ErrInvalidInput = errors.New("sfa: invalid input")
)

// ConfigError describes a rejected option.
//
// errors.Is(err, ErrConfiguration) holds for every ConfigError; the
// underlying cause, if any, is also reachable through errors.Is/As.
type ConfigError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.cause}
}

func configError(field string, cause error, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), cause: cause}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
