package cdgen

import (
	"errors"
	"fmt"
)

var (
	ErrNotEligible      = errors.New("cdgen: directive does not take a change detector")
	ErrUnknownLifecycle = errors.New("cdgen: unknown lifecycle")
	ErrUnknownMethod    = errors.New("cdgen: unknown update method")
	ErrNotStructPointer = errors.New("cdgen: directive must be a pointer to a struct")
	ErrUnknownProperty  = errors.New("cdgen: directive has no such property")
	ErrIncompatible     = errors.New("cdgen: value not assignable")
	ErrInvalidMetadata  = errors.New("cdgen: invalid directive metadata")
)

// ContractError is the panic value of Generate when called on a directive for
// which RequiresChangeDetector is false.
type ContractError struct {
	Directive string
	Reason    string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("cdgen: %s: %s", e.Directive, e.Reason)
}

func (e *ContractError) Unwrap() error { return ErrNotEligible }
