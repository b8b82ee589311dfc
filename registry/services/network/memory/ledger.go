/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("registry.network.memory")

// Gas used by each operation.
const (
	RegisterGas uint64 = 120000
	RevokeGas   uint64 = 60000
	ReplaceGas  uint64 = 180000
)

// Stage names a ledger call that can be made to fail.
type Stage string

const (
	StageExists   Stage = "exists"
	StageGetEntry Stage = "get-entry"
	StageNonce    Stage = "nonce"
	StageEstimate Stage = "estimate"
	StageSubmit   Stage = "submit"
	StageConfirm  Stage = "confirm"
)

type Option func(*Ledger)

// WithLatency delays every confirmation.
func WithLatency(d time.Duration) Option { return func(l *Ledger) { l.latency = d } }

func WithAtomicReplace(enabled bool) Option { return func(l *Ledger) { l.atomicReplace = enabled } }

func WithGasPrice(p *big.Int) Option { return func(l *Ledger) { l.gasPrice = new(big.Int).Set(p) } }

// WithRequireFunds makes submissions fail when the sender cannot pay gasLimit*gasPrice.
func WithRequireFunds() Option { return func(l *Ledger) { l.requireFunds = true } }

type submitted struct {
	from   string
	call   driver.Call
	opts   driver.TxOptions
	hash   string
	mined  bool
	result *driver.Receipt
	err    error
}

// Ledger simulates the registry contract on an account-based chain:
// per-address nonces with a confirmed and a pending view, gas, balances and blocks.
type Ledger struct {
	mu            sync.Mutex
	entries       map[string]*driver.Entry
	byIssuer      map[string][]string
	confirmed     map[string]uint64
	pending       map[string]uint64
	balances      map[string]*big.Int
	txs           map[string]*submitted
	faults        map[Stage][]error
	gasPrice      *big.Int
	block         uint64
	latency       time.Duration
	atomicReplace bool
	requireFunds  bool
	submissions   []driver.Call
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries:   map[string]*driver.Entry{},
		byIssuer:  map[string][]string{},
		confirmed: map[string]uint64{},
		pending:   map[string]uint64{},
		balances:  map[string]*big.Int{},
		txs:       map[string]*submitted{},
		faults:    map[Stage][]error{},
		gasPrice:  big.NewInt(1000000000),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Fund credits address with wei.
func (l *Ledger) Fund(address string, wei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(address)
	b.Add(b, wei)
}

func (l *Ledger) Balance(address string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(address))
}

// FailNext makes the next call at stage return err. Calls queue up.
func (l *Ledger) FailNext(stage Stage, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults[stage] = append(l.faults[stage], err)
}

// InjectPending simulates n transactions of address sent elsewhere and not yet mined.
func (l *Ledger) InjectPending(address string, n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[address] = l.pendingNonce(address) + n
}

// Settle mines whatever InjectPending left outstanding.
func (l *Ledger) Settle(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmed[address] = l.pendingNonce(address)
}

// Submissions returns the calls accepted by Submit, in order.
func (l *Ledger) Submissions() []driver.Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]driver.Call{}, l.submissions...)
}

func (l *Ledger) BlockNumber() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.block
}

func (l *Ledger) SupportsAtomicReplace() bool { return l.atomicReplace }

func (l *Ledger) Exists(_ context.Context, fingerprint string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fault(StageExists); err != nil {
		return false, err
	}
	_, ok := l.entries[fingerprint]
	return ok, nil
}

func (l *Ledger) GetEntry(_ context.Context, fingerprint string) (*driver.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fault(StageGetEntry); err != nil {
		return nil, err
	}
	e, ok := l.entries[fingerprint]
	if !ok {
		return nil, errs.NotFound("fingerprint not registered on the ledger")
	}
	return copyEntry(e), nil
}

func (l *Ledger) Entries(_ context.Context, issuer string) ([]*driver.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]*driver.Entry, 0, len(l.byIssuer[issuer]))
	for _, fp := range l.byIssuer[issuer] {
		res = append(res, copyEntry(l.entries[fp]))
	}
	return res, nil
}

func (l *Ledger) Nonce(_ context.Context, address string, pending bool) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fault(StageNonce); err != nil {
		return 0, err
	}
	if pending {
		return l.pendingNonce(address), nil
	}
	return l.confirmed[address], nil
}

func (l *Ledger) GasPrice(context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.gasPrice), nil
}

func (l *Ledger) EstimateCost(_ context.Context, from string, call driver.Call) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fault(StageEstimate); err != nil {
		return 0, err
	}
	if err := l.check(from, call); err != nil {
		return 0, err
	}
	return gasOf(call.Op), nil
}

func (l *Ledger) Submit(_ context.Context, from string, call driver.Call, opts driver.TxOptions) (*driver.PendingTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fault(StageSubmit); err != nil {
		return nil, err
	}
	next := l.pendingNonce(from)
	switch {
	case opts.Nonce < next:
		return nil, errors.Errorf("nonce too low: next nonce %d, tx nonce %d", next, opts.Nonce)
	case opts.Nonce > next:
		return nil, errors.Errorf("nonce too high: next nonce %d, tx nonce %d", next, opts.Nonce)
	}
	price := opts.GasPrice
	if price == nil {
		price = l.gasPrice
	}
	if l.requireFunds {
		cost := new(big.Int).Mul(new(big.Int).SetUint64(opts.GasLimit), price)
		if l.balance(from).Cmp(cost) < 0 {
			return nil, errors.Errorf("insufficient funds for gas * price + value: have %s want %s", l.balance(from), cost)
		}
	}
	hash, err := newHash()
	if err != nil {
		return nil, err
	}
	opts.GasPrice = new(big.Int).Set(price)
	l.txs[hash] = &submitted{from: from, call: call, opts: opts, hash: hash}
	l.pending[from] = next + 1
	l.submissions = append(l.submissions, call)
	logger.Debugf("accepted %s of [%s] from [%s] with nonce %d", call.Op, call.Fingerprint, from, opts.Nonce)
	return &driver.PendingTx{Hash: hash, From: from, Nonce: opts.Nonce}, nil
}

// AwaitConfirmation mines the transaction after the configured latency.
func (l *Ledger) AwaitConfirmation(ctx context.Context, tx *driver.PendingTx) (*driver.Receipt, error) {
	if l.latency > 0 {
		t := time.NewTimer(l.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "timed out waiting for [%s]", tx.Hash)
		case <-t.C:
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.txs[tx.Hash]
	if !ok {
		return nil, errors.Errorf("unknown transaction [%s]", tx.Hash)
	}
	if err := l.fault(StageConfirm); err != nil {
		return nil, err
	}
	if !s.mined {
		s.result, s.err = l.mine(s)
		s.mined = true
	}
	return s.result, s.err
}

func (l *Ledger) mine(s *submitted) (*driver.Receipt, error) {
	l.block++
	if s.opts.Nonce >= l.confirmed[s.from] {
		l.confirmed[s.from] = s.opts.Nonce + 1
	}
	gas := gasOf(s.call.Op)
	used := gas
	if s.opts.GasLimit < gas {
		used = s.opts.GasLimit
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(used), s.opts.GasPrice)
	l.balance(s.from).Sub(l.balance(s.from), fee)

	if s.opts.GasLimit < gas {
		return nil, errors.Errorf("transaction [%s] failed: out of gas", s.hash)
	}
	if err := l.check(s.from, s.call); err != nil {
		return nil, errors.WithMessagef(err, "transaction [%s] failed", s.hash)
	}
	now := time.Now().UTC()
	switch s.call.Op {
	case driver.Register:
		l.register(s.from, s.call.Fingerprint, s.call.Metadata, s.hash, now)
	case driver.Revoke:
		l.revoke(s.call.Fingerprint, s.call.Reason, "", s.hash, now)
	case driver.Replace:
		l.revoke(s.call.Fingerprint, s.call.Reason, s.call.NewFingerprint, s.hash, now)
		l.register(s.from, s.call.NewFingerprint, s.call.Metadata, s.hash, now)
	}
	return &driver.Receipt{TxRef: s.hash, BlockRef: l.block, GasUsed: used}, nil
}

func (l *Ledger) register(from, fp string, md driver.EntryMetadata, hash string, at time.Time) {
	l.entries[fp] = &driver.Entry{
		Fingerprint:  fp,
		Metadata:     md,
		Issuer:       from,
		TxRef:        hash,
		BlockRef:     l.block,
		RegisteredAt: at,
	}
	l.byIssuer[from] = append(l.byIssuer[from], fp)
}

func (l *Ledger) revoke(fp, reason, replacedBy, hash string, at time.Time) {
	e := l.entries[fp]
	e.Revoked = true
	e.RevocationReason = reason
	e.RevokedAt = &at
	e.RevocationTxRef = hash
	e.ReplacedBy = replacedBy
}

// check applies the contract rules; failures read like a reverted execution.
func (l *Ledger) check(from string, call driver.Call) error {
	switch call.Op {
	case driver.Register:
		if _, ok := l.entries[call.Fingerprint]; ok {
			return errors.New("execution reverted: Already registered")
		}
		return nil
	case driver.Revoke, driver.Replace:
		if call.Op == driver.Replace {
			if !l.atomicReplace {
				return errors.New("execution reverted: replace not supported")
			}
			if _, ok := l.entries[call.NewFingerprint]; ok {
				return errors.New("execution reverted: Already registered")
			}
		}
		e, ok := l.entries[call.Fingerprint]
		switch {
		case !ok:
			return errors.New("execution reverted: Not registered")
		case e.Issuer != from:
			return errors.New("execution reverted: Not issuer")
		case e.Revoked:
			return errors.New("execution reverted: Already revoked")
		}
		return nil
	}
	return errors.Errorf("execution reverted: unknown operation %s", call.Op)
}

func (l *Ledger) fault(stage Stage) error {
	q := l.faults[stage]
	if len(q) == 0 {
		return nil
	}
	l.faults[stage] = q[1:]
	return q[0]
}

func (l *Ledger) pendingNonce(address string) uint64 {
	if p, ok := l.pending[address]; ok && p > l.confirmed[address] {
		return p
	}
	return l.confirmed[address]
}

func (l *Ledger) balance(address string) *big.Int {
	b, ok := l.balances[address]
	if !ok {
		b = new(big.Int)
		l.balances[address] = b
	}
	return b
}

func gasOf(op driver.Operation) uint64 {
	switch op {
	case driver.Revoke:
		return RevokeGas
	case driver.Replace:
		return ReplaceGas
	}
	return RegisterGas
}

func newHash() (string, error) {
	b, err := uuid.GenerateRandomBytes(32)
	if err != nil {
		return "", errors.Wrap(err, "failed generating transaction hash")
	}
	return "0x" + hex.EncodeToString(b), nil
}

func copyEntry(e *driver.Entry) *driver.Entry {
	c := *e
	if e.RevokedAt != nil {
		at := *e.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}
