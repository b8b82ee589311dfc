/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// classBackOff waits a short constant delay after a nonce conflict and backs
// off exponentially after anything else.
type classBackOff struct {
	exponential backoff.BackOff
	short       time.Duration
	last        driver.ErrorClass
}

func (b *classBackOff) NextBackOff() time.Duration {
	if b.last == driver.NonceConflict {
		return b.short
	}
	return b.exponential.NextBackOff()
}

func (b *classBackOff) Reset() { b.exponential.Reset() }

func (s *Service) retryPolicy(ctx context.Context) (*classBackOff, backoff.BackOff) {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.config.RetryDelay),
		backoff.WithMaxInterval(s.config.MaxRetryDelay),
		backoff.WithMaxElapsedTime(0),
	)
	cb := &classBackOff{exponential: exp, short: s.config.RetryDelay}
	return cb, backoff.WithContext(backoff.WithMaxRetries(cb, uint64(s.config.MaxAttempts-1)), ctx)
}

// submit runs the nonce, estimate, submit and confirm pipeline for call,
// retrying nonce conflicts and transient failures. The boolean reports
// whether a transaction reached the ledger.
func (s *Service) submit(ctx context.Context, signer string, call driver.Call) (*driver.Receipt, bool, error) {
	span := trace.SpanFromContext(ctx)
	cb, policy := s.retryPolicy(ctx)

	var pending *driver.PendingTx
	attempt := 0
	op := func() (*driver.Receipt, error) {
		attempt++
		span.AddEvent("attempt", trace.WithAttributes(attribute.Int("n", attempt)))
		r, err := s.attempt(ctx, signer, call, &pending)
		if err != nil {
			cb.last = driver.Classify(err).Class
			return nil, s.classify(err)
		}
		return r, nil
	}
	notify := func(err error, wait time.Duration) {
		le := driver.Classify(err)
		s.metrics.Retries.With("class", le.Class.String()).Add(1)
		logger.Warnf("%s of [%s] by [%s] failed (%s), retrying in %s: %v", call.Op, call.Fingerprint, signer, le.Class, wait, err)
	}

	r, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		var le *driver.LedgerError
		if errors.As(err, &le) && le.Class == driver.Unknown {
			logger.Errorf("%s of [%s] by [%s] failed: %v", call.Op, call.Fingerprint, signer, err)
		}
		return nil, pending != nil, err
	}
	return r, true, nil
}

// attempt sends call unless a transaction is already pending, then waits for it.
func (s *Service) attempt(ctx context.Context, signer string, call driver.Call, pending **driver.PendingTx) (*driver.Receipt, error) {
	if *pending == nil {
		tx, err := s.send(ctx, signer, call)
		if err != nil {
			return nil, err
		}
		*pending = tx
	}
	r, err := s.await(ctx, *pending)
	if err != nil {
		le := driver.Classify(err)
		if le.Class == driver.NonceConflict {
			// the transaction was dropped, build a new one
			*pending = nil
		}
		return nil, fatalError(le)
	}
	return r, nil
}

// classify marks everything but retryable ledger errors permanent.
func (s *Service) classify(err error) error {
	var le *driver.LedgerError
	if errs.KindOf(err) == errs.KindInternal && errors.As(err, &le) && le.Retryable() {
		return err
	}
	return backoff.Permanent(err)
}

func (s *Service) send(ctx context.Context, signer string, call driver.Call) (*driver.PendingTx, error) {
	nonce, err := s.resolveNonce(ctx, signer)
	if err != nil {
		return nil, err
	}
	gas, err := s.ledger.EstimateCost(ctx, signer, call)
	if err != nil {
		return nil, fatalError(driver.Classify(err))
	}
	price, err := s.ledger.GasPrice(ctx)
	if err != nil {
		return nil, driver.Classify(err)
	}
	opts := driver.TxOptions{
		Nonce:    nonce,
		GasLimit: GasLimit(gas, s.config.GasMarginPercent),
		GasPrice: new(big.Int).Set(price),
	}
	tx, err := s.ledger.Submit(ctx, signer, call, opts)
	if err != nil {
		return nil, driver.Classify(err)
	}
	trace.SpanFromContext(ctx).AddEvent("submitted", trace.WithAttributes(
		attribute.String("hash", tx.Hash),
		attribute.Int64("nonce", int64(nonce)),
	))
	logger.Debugf("%s of [%s] sent as [%s] with nonce %d, gas limit %d", call.Op, call.Fingerprint, tx.Hash, nonce, opts.GasLimit)
	return tx, nil
}

func (s *Service) await(ctx context.Context, tx *driver.PendingTx) (*driver.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ConfirmationTimeout)
	defer cancel()
	return s.ledger.AwaitConfirmation(ctx, tx)
}

// resolveNonce returns the next nonce of signer once the confirmed and pending
// views agree. Disagreement means a transaction is still in flight.
func (s *Service) resolveNonce(ctx context.Context, signer string) (uint64, error) {
	wait := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.config.NonceWaitInterval),
		backoff.WithMaxInterval(4*s.config.NonceWaitInterval),
		backoff.WithMaxElapsedTime(0),
	), uint64(s.config.NonceWaitAttempts-1)), ctx)

	return backoff.RetryWithData(func() (uint64, error) {
		confirmed, err := s.ledger.Nonce(ctx, signer, false)
		if err != nil {
			return 0, backoff.Permanent(driver.Classify(err))
		}
		pending, err := s.ledger.Nonce(ctx, signer, true)
		if err != nil {
			return 0, backoff.Permanent(driver.Classify(err))
		}
		if confirmed != pending {
			return 0, driver.NewLedgerError(driver.NonceConflict, "transactions of the signer are still pending", nil)
		}
		return pending, nil
	}, wait)
}

// fatalError turns a reverted execution into a fatal error carrying the
// decoded reason, or a conflict when the reason is a duplicate.
func fatalError(le *driver.LedgerError) error {
	if le.Retryable() || le.Class == driver.UserCancelled || le.Class == driver.InsufficientBalance || le.Class == driver.Aborted {
		return le
	}
	reason := strings.ToLower(le.Reason)
	if strings.Contains(reason, "already registered") || strings.Contains(reason, "already revoked") {
		return errs.Wrapf(errs.KindConflict, le, "%s", le.Reason)
	}
	if le.Class == driver.Unknown {
		le.Class = driver.Rejected
	}
	return le
}

// GasLimit adds marginPercent to the estimate.
func GasLimit(estimate uint64, marginPercent int) uint64 {
	return estimate * uint64(100+marginPercent) / 100
}
