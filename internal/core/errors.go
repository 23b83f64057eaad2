package core

import (
	"errors"
	"fmt"
)

var ErrEmptyMessage = errors.New("message is empty")

// DetectionError reports that the entity detector could not analyze the text.
// Nothing is sent to the language model when it occurs.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("pii detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed call to the language model provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("language model request failed: %v", e.Err)
	}
	return fmt.Sprintf("language model request to %s failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports missing or invalid settings found at startup.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
