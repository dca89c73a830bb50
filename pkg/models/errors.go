package models

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError indicates malformed input. It is surfaced to the caller
// immediately and never retried.
type ValidationError struct {
	// Field names the offending input field, if known.
	Field string
	// Message describes what was wrong.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Message)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError indicates a referenced task, template, or user does not exist.
type NotFoundError struct {
	// Kind is the entity kind ("task", "template", "user").
	Kind string
	// ID is the identifier that was looked up.
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictStateError indicates an attempted transition violates the state
// machine. Where possible the evaluator records a suppressed no-op decision
// instead of returning this error.
type ConflictStateError struct {
	// TaskID is the task whose transition was rejected.
	TaskID string
	// From is the status the task was in.
	From TaskStatus
	// To is the status the transition targeted.
	To TaskStatus
}

func (e *ConflictStateError) Error() string {
	return fmt.Sprintf("task %s: invalid transition %s -> %s", e.TaskID, e.From, e.To)
}

// EvaluationTimeoutError indicates a per-task evaluation exceeded its bound.
// The per-task lock is released and the event is eligible for bus-level retry.
type EvaluationTimeoutError struct {
	// TaskID is the task whose evaluation timed out.
	TaskID string
	// Timeout is the bound that was exceeded.
	Timeout time.Duration
}

func (e *EvaluationTimeoutError) Error() string {
	return fmt.Sprintf("task %s: evaluation exceeded %s", e.TaskID, e.Timeout)
}

// DependencyError indicates a persistence or event-bus call failed. The
// triggering operation must not be assumed to have completed.
type DependencyError struct {
	// Op names the operation that failed.
	Op string
	// Err is the underlying failure.
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTimeout reports whether err is an EvaluationTimeoutError.
func IsTimeout(err error) bool {
	var te *EvaluationTimeoutError
	return errors.As(err, &te)
}
