package tracker

import (
	"errors"
	"fmt"
)

// Kind classifies tracker failures.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindUsage         Kind = "usage"
	KindNotFound      Kind = "not_found"
	KindNoCalorieData Kind = "no_calorie_data"
	KindPrecondition  Kind = "precondition"
	KindUpstream      Kind = "upstream"
)

// Error is the single error type returned by tracker operations.
// Field names the input or command involved, e.g. "weight" or "log_water".
type Error struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := "tracker: " + string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code feeds the handler summary err_code attribute.
func (e *Error) Code() string { return string(e.Kind) + "_error" }

// Is matches sentinels of the same kind; sentinels carry neither Field nor Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Field != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidInput  = &Error{Kind: KindValidation}
	ErrUsage         = &Error{Kind: KindUsage}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrNoCalorieData = &Error{Kind: KindNoCalorieData}
	ErrProfileNotSet = &Error{Kind: KindPrecondition}
	ErrUpstream      = &Error{Kind: KindUpstream}

	// ErrNoActiveFlow is returned by Continue when the user has no conversation in progress.
	ErrNoActiveFlow = errors.New("tracker: no active flow")
)

// KindOf extracts the Kind of err, or "" when err is not a tracker error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// FieldOf extracts the Field of err.
func FieldOf(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Field
	}
	return ""
}

func invalid(field string, err error) error {
	return &Error{Kind: KindValidation, Field: field, Err: err}
}

func usage(command string) error {
	return &Error{Kind: KindUsage, Field: command}
}

func upstream(field string, err error) error {
	return &Error{Kind: KindUpstream, Field: field, Err: err}
}

func notFound(field string, err error) error {
	return &Error{Kind: KindNotFound, Field: field, Err: err}
}

func profileNotSet(op string) error {
	return &Error{Kind: KindPrecondition, Field: op, Err: fmt.Errorf("profile not set")}
}
