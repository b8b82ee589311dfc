/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ErrorClass int

const (
	Unknown ErrorClass = iota
	UserCancelled
	InsufficientBalance
	NonceConflict
	TransientRPC
	Rejected
	// Aborted means the caller gave up, the signer was never involved.
	Aborted
)

func (c ErrorClass) String() string {
	switch c {
	case UserCancelled:
		return "user-cancelled"
	case InsufficientBalance:
		return "insufficient-balance"
	case NonceConflict:
		return "nonce-conflict"
	case TransientRPC:
		return "transient-rpc"
	case Rejected:
		return "rejected"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// LedgerError is a classified ledger failure. Error keeps the original cause,
// Summary is safe to show to users.
type LedgerError struct {
	Class  ErrorClass
	Reason string
	Cause  error
}

func NewLedgerError(class ErrorClass, reason string, cause error) *LedgerError {
	return &LedgerError{Class: class, Reason: reason, Cause: cause}
}

func (e *LedgerError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("ledger error (%s): %s", e.Class, e.Reason)
	}
	return fmt.Sprintf("ledger error (%s): %s: %v", e.Class, e.Reason, e.Cause)
}

func (e *LedgerError) Unwrap() error { return e.Cause }

// Retryable is true for nonce conflicts and transient RPC failures only.
func (e *LedgerError) Retryable() bool {
	return e.Class == NonceConflict || e.Class == TransientRPC
}

func (e *LedgerError) Summary() string {
	switch e.Class {
	case UserCancelled:
		return "transaction was cancelled by the signer"
	case InsufficientBalance:
		return "signer has insufficient balance to pay for the transaction"
	case NonceConflict:
		return "transaction nonce conflicted with another submission, please retry"
	case TransientRPC:
		return "ledger is temporarily unavailable, please retry"
	case Rejected:
		if len(e.Reason) != 0 {
			return "ledger rejected the transaction: " + e.Reason
		}
		return "ledger rejected the transaction"
	case Aborted:
		return "request was cancelled before the transaction completed"
	}
	return "ledger transaction failed"
}

var classPatterns = []struct {
	class    ErrorClass
	patterns []string
}{
	{UserCancelled, []string{"user rejected", "user denied", "user cancelled", "user canceled", "action_rejected"}},
	{InsufficientBalance, []string{"insufficient funds", "insufficient balance"}},
	{NonceConflict, []string{"nonce too low", "nonce too high", "replacement transaction underpriced", "already known", "nonce has already been used", "invalid nonce"}},
	{TransientRPC, []string{"timeout", "timed out", "connection refused", "connection reset", "unexpected eof", "temporarily unavailable", "too many requests", "bad gateway", "service unavailable", "header not found", "network error"}},
	{Rejected, []string{"execution reverted", "revert", "out of gas"}},
}

// Classify maps an arbitrary ledger client error to a LedgerError.
// Errors that are already classified pass through unchanged.
func Classify(err error) *LedgerError {
	if err == nil {
		return nil
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return le
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewLedgerError(TransientRPC, "deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewLedgerError(Aborted, "context cancelled", err)
	}
	msg := strings.ToLower(err.Error())
	for _, cp := range classPatterns {
		for _, p := range cp.patterns {
			if strings.Contains(msg, p) {
				reason := p
				if cp.class == Rejected {
					reason = revertReason(err.Error())
				}
				return NewLedgerError(cp.class, reason, err)
			}
		}
	}
	return NewLedgerError(Unknown, "unclassified failure", err)
}

// revertReason extracts the text following "reverted:" if any.
func revertReason(msg string) string {
	lower := strings.ToLower(msg)
	if i := strings.Index(lower, "reverted:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("reverted:"):])
	}
	return "execution reverted"
}
