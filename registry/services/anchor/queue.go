/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"context"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/pkg/errors"
)

var ErrClosed = errors.New("anchor service closed")

type job struct {
	ctx    context.Context
	run    func(ctx context.Context) (*driver.Receipt, bool, error)
	result chan result
}

type result struct {
	receipt *driver.Receipt
	err     error
}

// queue serializes the submissions of one signing identity. Jobs run in
// arrival order and two submissions are at least minInterval apart.
type queue struct {
	signer      string
	logger      logging.Logger
	minInterval time.Duration
	jobs        chan *job
	stop        chan struct{}
	done        chan struct{}
	last        time.Time
}

func newQueue(signer string, size int, minInterval time.Duration) *queue {
	return &queue{
		signer:      signer,
		logger:      logging.ServiceLogger("registry.anchor.queue", signer),
		minInterval: minInterval,
		jobs:        make(chan *job, size),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (q *queue) Start() {
	go q.loop()
	q.logger.Debugf("queue started")
}

func (q *queue) Stop() {
	close(q.stop)
	<-q.done
	q.logger.Debugf("queue stopped")
}

func (q *queue) loop() {
	defer func() {
		// fail whatever is still queued
		for {
			select {
			case j := <-q.jobs:
				j.result <- result{err: ErrClosed}
			default:
				close(q.done)
				return
			}
		}
	}()
	for {
		select {
		case <-q.stop:
			return
		case j := <-q.jobs:
			q.process(j)
		}
	}
}

func (q *queue) process(j *job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- result{err: errors.Wrap(err, "cancelled while queued")}
		return
	}
	if wait := time.Until(q.last.Add(q.minInterval)); wait > 0 && !q.last.IsZero() {
		q.logger.Debugf("holding job for [%s] to keep submissions apart", wait)
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-j.ctx.Done():
			t.Stop()
			j.result <- result{err: errors.Wrap(j.ctx.Err(), "cancelled while queued")}
			return
		case <-q.stop:
			t.Stop()
			j.result <- result{err: ErrClosed}
			return
		}
	}
	r, submitted, err := j.run(j.ctx)
	if submitted {
		q.last = time.Now()
	}
	if err != nil {
		q.logger.Debugf("job failed (submitted: %v): %v", submitted, err)
	}
	j.result <- result{receipt: r, err: err}
}

// Do enqueues run and waits for its outcome or for ctx to end.
func (q *queue) Do(ctx context.Context, run func(ctx context.Context) (*driver.Receipt, bool, error)) (*driver.Receipt, error) {
	j := &job{ctx: ctx, run: run, result: make(chan result, 1)}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "cancelled before being queued")
	case <-q.stop:
		return nil, ErrClosed
	}
	select {
	case r := <-j.result:
		return r.receipt, r.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "cancelled while waiting for submission")
	case <-q.done:
		select {
		case r := <-j.result:
			return r.receipt, r.err
		default:
			return nil, ErrClosed
		}
	}
}
