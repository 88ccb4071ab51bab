// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict marks a uniqueness violation in the store.
	ErrConflict = errors.New("unique constraint violated")

	// ErrRunAlreadyActive is returned when a campaign already has a non-terminal run.
	ErrRunAlreadyActive = errors.New("campaign already has an active run")

	// ErrRunFinished is returned when a terminal run is asked to change.
	ErrRunFinished = errors.New("run already finished")
)

// ConfigurationError reports a missing credential or setting.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Setting)
}

func NewConfigurationError(setting string) error {
	return &ConfigurationError{Setting: setting}
}

// UpstreamError is a non-2xx answer from the automation platform.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Operation, e.StatusCode, e.Body)
}

func NewUpstreamError(op string, status int, body string) error {
	return &UpstreamError{Operation: op, StatusCode: status, Body: body}
}

// StoreError wraps any persistence failure.
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Operation: op, Err: err}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return NewNotFound("campaign", id)
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
