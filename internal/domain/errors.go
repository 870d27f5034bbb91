package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSessionNotFound is returned when a live quiz session does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionElsewhere is returned when the user's live session runs on another instance.
	ErrSessionElsewhere = errors.New("quiz session is running on another instance")
	// ErrSessionFinished is returned when acting on a session that already ended.
	ErrSessionFinished = errors.New("quiz session finished")
	// ErrEmptyQuestionSet indicates the configuration produced no questions.
	ErrEmptyQuestionSet = errors.New("configuration produces no questions")
	// ErrConfigurationMissing indicates no configuration was saved before starting.
	ErrConfigurationMissing = errors.New("no saved test configuration")
	// ErrEmptyRecords indicates an attempt to score a session without answers.
	ErrEmptyRecords = errors.New("cannot score an empty answer sequence")
	// ErrInvalidAnswer indicates a submission that is empty or not an integer.
	ErrInvalidAnswer = errors.New("answer must be a non-empty integer")
	// ErrNotAcceptingInput indicates a submission outside the awaiting-input state.
	ErrNotAcceptingInput = errors.New("question is not accepting input")
	// ErrProfileNotFound indicates an unknown user id.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDuplicateRegistration indicates the phone number is already registered.
	ErrDuplicateRegistration = errors.New("phone number already registered")
	// ErrInvalidCredentials indicates an unknown phone or a wrong password.
	ErrInvalidCredentials = errors.New("invalid phone or password")
	// ErrMalformedResult indicates a stored result that cannot be normalized.
	ErrMalformedResult = errors.New("malformed stored result")
)

// ConfigurationError reports a session that cannot start from its configuration.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Err.Error() }
func (e *ConfigurationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed read or write against a store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence error (%s): %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports rejected input, field by field. Err optionally carries a
// sentinel such as ErrDuplicateRegistration.
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msg := "validation failed:"
	for _, name := range sortedKeys(e.Fields) {
		msg += fmt.Sprintf(" %s: %s;", name, e.Fields[name])
	}
	return msg[:len(msg)-1]
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
