/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/utils"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logger = logging.MustGetLogger("registry.anchor")

type Config struct {
	GasMarginPercent    int           `mapstructure:"gasMarginPercent" yaml:"gasMarginPercent"`
	MaxAttempts         int           `mapstructure:"maxAttempts" yaml:"maxAttempts"`
	RetryDelay          time.Duration `mapstructure:"retryDelay" yaml:"retryDelay"`
	MaxRetryDelay       time.Duration `mapstructure:"maxRetryDelay" yaml:"maxRetryDelay"`
	NonceWaitAttempts   int           `mapstructure:"nonceWaitAttempts" yaml:"nonceWaitAttempts"`
	NonceWaitInterval   time.Duration `mapstructure:"nonceWaitInterval" yaml:"nonceWaitInterval"`
	MinInterval         time.Duration `mapstructure:"minInterval" yaml:"minInterval"`
	DedupWindow         time.Duration `mapstructure:"dedupWindow" yaml:"dedupWindow"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmationTimeout" yaml:"confirmationTimeout"`
	QueueSize           int           `mapstructure:"queueSize" yaml:"queueSize"`
}

func DefaultConfig() Config {
	return Config{
		GasMarginPercent:    30,
		MaxAttempts:         3,
		RetryDelay:          500 * time.Millisecond,
		MaxRetryDelay:       10 * time.Second,
		NonceWaitAttempts:   5,
		NonceWaitInterval:   time.Second,
		MinInterval:         3 * time.Second,
		DedupWindow:         30 * time.Second,
		ConfirmationTimeout: 60 * time.Second,
		QueueSize:           64,
	}
}

// withDefaults fills zero values; negative intervals disable the corresponding wait.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GasMarginPercent == 0 {
		c.GasMarginPercent = d.GasMarginPercent
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = d.MaxRetryDelay
	}
	if c.NonceWaitAttempts <= 0 {
		c.NonceWaitAttempts = d.NonceWaitAttempts
	}
	if c.NonceWaitInterval == 0 {
		c.NonceWaitInterval = d.NonceWaitInterval
	}
	if c.MinInterval == 0 {
		c.MinInterval = d.MinInterval
	}
	if c.DedupWindow == 0 {
		c.DedupWindow = d.DedupWindow
	}
	if c.ConfirmationTimeout <= 0 {
		c.ConfirmationTimeout = d.ConfirmationTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

// ReplaceReceipt carries the receipts of a replacement. With an atomic ledger
// operation both point to the same transaction.
type ReplaceReceipt struct {
	Revocation   *driver.Receipt
	Registration *driver.Receipt
	Atomic       bool
}

// Service registers fingerprints on the ledger exactly once, on behalf of
// signing identities identified by their chain address.
type Service struct {
	ledger  driver.Ledger
	config  Config
	queues  utils.LazyProvider[string, *queue]
	dedup   *dedupCache
	tracer  trace.Tracer
	metrics *Metrics
	closed  atomic.Bool
}

func NewService(ledger driver.Ledger, c Config, tracerProvider trace.TracerProvider, m *Metrics) *Service {
	s := &Service{
		ledger:  ledger,
		config:  c.withDefaults(),
		tracer:  tracerProvider.Tracer("registry.anchor"),
		metrics: m,
	}
	s.dedup = newDedupCache(s.config.DedupWindow)
	s.queues = utils.NewLazyProvider(s.newQueue)
	return s
}

func (s *Service) newQueue(signer string) (*queue, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	minInterval := s.config.MinInterval
	if minInterval < 0 {
		minInterval = 0
	}
	q := newQueue(signer, s.config.QueueSize, minInterval)
	q.Start()
	return q, nil
}

// Ledger returns the ledger client the service submits to.
func (s *Service) Ledger() driver.Ledger { return s.ledger }

// Register binds fingerprint and metadata to signer on the ledger.
func (s *Service) Register(ctx context.Context, signer, fingerprint string, md driver.EntryMetadata) (*driver.Receipt, error) {
	call := driver.Call{Op: driver.Register, Fingerprint: fingerprint, Metadata: md}
	return s.do(ctx, signer, call, func(ctx context.Context) error {
		return s.checkAbsent(ctx, fingerprint)
	})
}

// Revoke marks fingerprint revoked. Only the original issuer can revoke.
func (s *Service) Revoke(ctx context.Context, signer, fingerprint, reason string) (*driver.Receipt, error) {
	if len(strings.TrimSpace(reason)) == 0 {
		return nil, errs.Validation("revocation reason is required")
	}
	call := driver.Call{Op: driver.Revoke, Fingerprint: fingerprint, Reason: reason}
	return s.do(ctx, signer, call, func(ctx context.Context) error {
		return s.checkRevocable(ctx, signer, fingerprint)
	})
}

// Replace revokes oldFingerprint and registers newFingerprint in its place.
// Without an atomic ledger operation the two run in sequence, and a failed
// registration yields a PartialReplaceError.
func (s *Service) Replace(ctx context.Context, signer, oldFingerprint, reason, newFingerprint string, md driver.EntryMetadata) (*ReplaceReceipt, error) {
	if len(strings.TrimSpace(reason)) == 0 {
		return nil, errs.Validation("revocation reason is required")
	}
	if oldFingerprint == newFingerprint {
		return nil, errs.Validation("replacement must have a different fingerprint")
	}
	if s.ledger.SupportsAtomicReplace() {
		call := driver.Call{Op: driver.Replace, Fingerprint: oldFingerprint, Reason: reason, NewFingerprint: newFingerprint, Metadata: md}
		r, err := s.do(ctx, signer, call, func(ctx context.Context) error {
			if err := s.checkRevocable(ctx, signer, oldFingerprint); err != nil {
				return err
			}
			return s.checkAbsent(ctx, newFingerprint)
		}, driver.Call{Op: driver.Register, Fingerprint: newFingerprint}.Key())
		if err != nil {
			return nil, err
		}
		return &ReplaceReceipt{Revocation: r, Registration: r, Atomic: true}, nil
	}

	revocation, err := s.Revoke(ctx, signer, oldFingerprint, reason)
	if err != nil {
		return nil, err
	}
	registration, err := s.Register(ctx, signer, newFingerprint, md)
	if err != nil {
		logger.Errorf("replacement of [%s] left it revoked without [%s]: %v", oldFingerprint, newFingerprint, err)
		return nil, &PartialReplaceError{
			OldFingerprint: oldFingerprint,
			NewFingerprint: newFingerprint,
			Revocation:     revocation,
			Cause:          err,
		}
	}
	return &ReplaceReceipt{Revocation: revocation, Registration: registration}, nil
}

// Close stops the serializer of every signer. Queued jobs fail with ErrClosed.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.queues.Range(func(_ string, q *queue) { q.Stop() })
	return nil
}

func (s *Service) do(ctx context.Context, signer string, call driver.Call, precheck func(context.Context) error, extraKeys ...string) (*driver.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "anchor_"+string(call.Op), trace.WithAttributes(
		attribute.String("signer", signer),
		attribute.String("fingerprint", call.Fingerprint),
	))
	defer span.End()
	start := time.Now()

	r, err := s.doTraced(ctx, signer, call, precheck, extraKeys)
	outcome := "confirmed"
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetAttributes(attribute.String("tx", r.TxRef), attribute.Int64("block", int64(r.BlockRef)))
		s.metrics.Duration.With("op", string(call.Op)).Observe(time.Since(start).Seconds())
	}
	s.metrics.Calls.With("op", string(call.Op), "outcome", outcome).Add(1)
	return r, err
}

func (s *Service) doTraced(ctx context.Context, signer string, call driver.Call, precheck func(context.Context) error, extraKeys []string) (*driver.Receipt, error) {
	if len(signer) == 0 {
		return nil, errs.Forbidden("no signing identity")
	}
	if len(call.Fingerprint) == 0 {
		return nil, errs.Validation("missing fingerprint")
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	keys := append([]string{call.Key()}, extraKeys...)
	if !s.dedup.Acquire(keys...) {
		s.metrics.Duplicates.Add(1)
		trace.SpanFromContext(ctx).AddEvent("duplicate")
		return nil, errs.Conflict("a %s of this fingerprint was submitted moments ago", call.Op)
	}

	q, err := s.queues.Get(signer)
	if err != nil {
		s.dedup.Release(keys...)
		return nil, err
	}
	trace.SpanFromContext(ctx).AddEvent("enqueue")
	r, err := q.Do(ctx, func(ctx context.Context) (*driver.Receipt, bool, error) {
		trace.SpanFromContext(ctx).AddEvent("dequeue")
		if err := precheck(ctx); err != nil {
			return nil, false, err
		}
		return s.submit(ctx, signer, call)
	})
	if err != nil {
		s.dedup.Release(keys...)
		return nil, err
	}
	logger.Infof("%s of [%s] by [%s] confirmed in [%s] at block %d", call.Op, call.Fingerprint, signer, r.TxRef, r.BlockRef)
	return r, nil
}

func (s *Service) checkAbsent(ctx context.Context, fingerprint string) error {
	ok, err := s.ledger.Exists(ctx, fingerprint)
	if err != nil {
		return driver.Classify(err)
	}
	if ok {
		return errs.Conflict("fingerprint already registered on the ledger")
	}
	return nil
}

func (s *Service) checkRevocable(ctx context.Context, signer, fingerprint string) error {
	e, err := s.ledger.GetEntry(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return driver.Classify(err)
	}
	if e.Revoked {
		return errs.Conflict("fingerprint already revoked on the ledger")
	}
	if !strings.EqualFold(e.Issuer, signer) {
		return errs.Forbidden("only the original issuer can revoke")
	}
	return nil
}

func outcomeOf(err error) string {
	var le *driver.LedgerError
	if errors.As(err, &le) {
		return le.Class.String()
	}
	var pe *PartialReplaceError
	if errors.As(err, &pe) {
		return "partial"
	}
	if errors.Is(err, ErrClosed) {
		return "closed"
	}
	return errs.KindOf(err).String()
}
