/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a registry failure for callers that must react to it,
// such as the REST surface choosing a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindForbidden
	KindNotFound
	KindIntegrity
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	// ErrIntegrity signals that the off-chain record and the ledger disagree.
	ErrIntegrity = errors.New("integrity violation")
)

var sentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindConflict:   ErrConflict,
	KindForbidden:  ErrForbidden,
	KindNotFound:   ErrNotFound,
	KindIntegrity:  ErrIntegrity,
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Error is a kinded error carrying a user-facing message and an optional cause.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message returns the message without the cause chain.
func (e *Error) Message() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Unwrap() error { return e.cause }

// Is reports a match against the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.kind]
	return ok && s == target
}

func newError(kind Kind, cause error, format string, args ...interface{}) error {
	return errors.WithStack(&Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause})
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, nil, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(KindForbidden, nil, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, nil, format, args...)
}

func Integrity(format string, args ...interface{}) error {
	return newError(KindIntegrity, nil, format, args...)
}

// Wrapf attaches a kind to an underlying error.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) error {
	return newError(kind, cause, format, args...)
}

// KindOf returns the kind of the first kinded error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindInternal
}

// Message returns the user-facing message of the first kinded error in the chain,
// or the full error text when there is none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
