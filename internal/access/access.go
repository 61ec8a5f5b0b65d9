// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package access wraps an apml.Source with bounded retries.
//
// Every operation is attempted up to a fixed number of times with a fixed
// sleep in between. The calling goroutine blocks for the whole backoff, so
// the worst case per operation is attempts times the interval.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"
)

const (
	DefaultAttempts = 20
	DefaultInterval = 10 * time.Second
)

// ErrRetryExhausted is matched by every error returned after the last
// attempt of an operation failed.
var ErrRetryExhausted = errors.New("retries exhausted")

// RetryError reports an operation that failed on every attempt.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts: %v", e.Op, ErrRetryExhausted, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Err}
}

// PartialLeafError reports an extended identification leaf of which one
// word could not be read.
type PartialLeafError struct {
	Leaf     uint32
	Register apml.Register
	Err      error
}

func (e *PartialLeafError) Error() string {
	return fmt.Sprintf("cpuid leaf 0x%x: failed to read %s: %v", e.Leaf, e.Register, e.Err)
}

func (e *PartialLeafError) Unwrap() error {
	return e.Err
}

// Options configure the retry policy.
type Options struct {
	Attempts int
	Interval time.Duration
}

// Access performs register operations against a Source with retries.
type Access struct {
	source  apml.Source
	backoff wait.Backoff
	log     logr.Logger
	metrics *metrics.Recorder
}

// New creates an Access. Zero options fall back to DefaultAttempts and
// DefaultInterval.
func New(log logr.Logger, source apml.Source, recorder *metrics.Recorder, opts Options) *Access {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Access{
		source: source,
		backoff: wait.Backoff{
			Steps:    opts.Attempts,
			Duration: opts.Interval,
			Factor:   1.0,
			Jitter:   0,
		},
		log:     log.WithName("access"),
		metrics: recorder,
	}
}

// retry runs fn until it succeeds or the attempts are used up.
func (a *Access) retry(ctx context.Context, op string, socket uint8, fn func(ctx context.Context) error) error {
	var (
		lastErr error
		attempt int
	)
	err := wait.ExponentialBackoffWithContext(ctx, a.backoff, func(ctx context.Context) (bool, error) {
		attempt++
		if err := fn(ctx); err != nil {
			lastErr = err
			if attempt < a.backoff.Steps {
				a.metrics.ObserveRetry(op)
				a.log.V(1).Info("Register operation failed, retrying",
					"op", op, "socket", socket, "attempt", attempt, "error", err.Error())
			}
			return false, nil
		}
		return true, nil
	})
	if err == nil {
		a.metrics.ObserveRead(op, nil)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		a.metrics.ObserveRead(op, ctxErr)
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if lastErr == nil {
		lastErr = err
	}
	retryErr := &RetryError{Op: op, Attempts: attempt, Err: lastErr}
	a.metrics.ObserveRead(op, retryErr)
	a.log.Error(retryErr, "Register operation failed", "op", op, "socket", socket)
	return retryErr
}

// QueryIdentification reads CPUID function 1 of thread 0.
func (a *Access) QueryIdentification(ctx context.Context, socket uint8) (apml.Quad, error) {
	var q apml.Quad
	err := a.retry(ctx, "cpuid", socket, func(ctx context.Context) error {
		var err error
		q, err = a.source.CPUID(ctx, socket, 0, apml.FnIdentification, 0)
		return err
	})
	if err != nil {
		return apml.Quad{}, err
	}
	return q, nil
}

// ReadMailbox performs a mailbox read.
func (a *Access) ReadMailbox(ctx context.Context, socket uint8, cmd apml.MailboxCommand, arg uint32) (uint32, error) {
	var value uint32
	err := a.retry(ctx, "mailbox/"+cmd.String(), socket, func(ctx context.Context) error {
		var err error
		value, err = a.source.ReadMailbox(ctx, socket, cmd, arg)
		return err
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (a *Access) readRegister(ctx context.Context, socket uint8, fn uint32, reg apml.Register) (uint32, error) {
	var value uint32
	err := a.retry(ctx, "cpuid-register", socket, func(ctx context.Context) error {
		var err error
		value, err = a.source.CPUIDRegister(ctx, socket, 0, fn, 0, reg)
		return err
	})
	return value, err
}

// QueryExtendedIdentification reads the four words of an extended leaf as
// separate operations. The first word that cannot be read aborts the leaf.
func (a *Access) QueryExtendedIdentification(ctx context.Context, socket uint8, leaf uint32) (apml.Quad, error) {
	var words [4]uint32
	for i, reg := range []apml.Register{apml.EAX, apml.EBX, apml.ECX, apml.EDX} {
		value, err := a.readRegister(ctx, socket, leaf, reg)
		if err != nil {
			return apml.Quad{}, &PartialLeafError{Leaf: leaf, Register: reg, Err: err}
		}
		words[i] = value
	}
	return apml.Quad{EAX: words[0], EBX: words[1], ECX: words[2], EDX: words[3]}, nil
}

// ThreadsPerCore reads CPUID 0x8000001E EBX[15:8] (ThreadsPerCore - 1).
func (a *Access) ThreadsPerCore(ctx context.Context, socket uint8) (uint32, error) {
	ebx, err := a.readRegister(ctx, socket, apml.FnTopology, apml.EBX)
	if err != nil {
		return 0, err
	}
	return ((ebx >> 8) & 0xFF) + 1, nil
}

// ThreadsPerSocket reads CPUID 1 EBX[23:16], the logical processor count.
func (a *Access) ThreadsPerSocket(ctx context.Context, socket uint8) (uint32, error) {
	ebx, err := a.readRegister(ctx, socket, apml.FnIdentification, apml.EBX)
	if err != nil {
		return 0, err
	}
	return (ebx >> 16) & 0xFF, nil
}
