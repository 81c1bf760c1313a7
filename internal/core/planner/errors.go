package planner

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy from spec.md §7. Only the aborting kinds
// (InputValidation, NoFleet, Storage) ever surface as a Go error from
// Run; Oversize and EmptyInput are recoverable and handled locally —
// Oversize shows up as residue inside a plan's unplaceable-free
// pipeline, EmptyInput as a RunResult with no plans.
type Kind int

const (
	// KindInputValidation marks missing catalogue dimensions, a
	// non-positive vehicle floor, or an order with zero lines.
	KindInputValidation Kind = iota
	// KindNoFleet marks an empty fleet.
	KindNoFleet
	// KindStorage marks an external store failure.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "input_validation"
	case KindNoFleet:
		return "no_fleet"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the structured failure the orchestrator returns for any
// aborting condition. Detail lists the offenders (item codes, vehicle
// ids, order ids) so the caller can identify exactly what failed
// without parsing a message string.
type Error struct {
	Kind    Kind
	Message string
	Detail  []string
}

func (e *Error) Error() string {
	if len(e.Detail) == 0 {
		return fmt.Sprintf("planner: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("planner: %s: %s (%v)", e.Kind, e.Message, e.Detail)
}

// Sentinel errors for errors.Is comparisons: an *Error unwraps to the
// sentinel matching its Kind, in the style the retrieval pack's library
// packages use.
var (
	// ErrNoFleet indicates the run was given an empty fleet.
	ErrNoFleet = errors.New("planner: fleet is empty")
	// ErrInvalidInput indicates a validation failure prior to any
	// placement.
	ErrInvalidInput = errors.New("planner: input failed validation")
	// ErrStorage indicates the external store failed.
	ErrStorage = errors.New("planner: store operation failed")
)

func newInputValidationError(message string, detail ...string) *Error {
	return &Error{Kind: KindInputValidation, Message: message, Detail: detail}
}

func newNoFleetError() *Error {
	return &Error{Kind: KindNoFleet, Message: "fleet is empty"}
}

func newStorageError(message string, err error) *Error {
	detail := []string{}
	if err != nil {
		detail = append(detail, err.Error())
	}
	return &Error{Kind: KindStorage, Message: message, Detail: detail}
}

// Unwrap lets errors.Is(err, ErrNoFleet) etc. succeed against an *Error.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindNoFleet:
		return ErrNoFleet
	case KindInputValidation:
		return ErrInvalidInput
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}
