// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package apml

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotAvailable is returned by FakeSource for registers it has no value for.
var ErrNotAvailable = errors.New("register not available")

// OpKind distinguishes the request types seen by FakeSource.
type OpKind string

const (
	OpCPUID         OpKind = "cpuid"
	OpCPUIDRegister OpKind = "cpuid-register"
	OpMailbox       OpKind = "mailbox"
)

// Op describes one request made against a FakeSource.
type Op struct {
	Kind   OpKind
	Socket uint8
	Fn     uint32
	Reg    Register
	Cmd    MailboxCommand
	Arg    uint32
}

func (o Op) String() string {
	switch o.Kind {
	case OpMailbox:
		return fmt.Sprintf("%s socket=%d cmd=%s arg=%d", o.Kind, o.Socket, o.Cmd, o.Arg)
	case OpCPUIDRegister:
		return fmt.Sprintf("%s socket=%d fn=0x%x reg=%s", o.Kind, o.Socket, o.Fn, o.Reg)
	}
	return fmt.Sprintf("%s socket=%d fn=0x%x", o.Kind, o.Socket, o.Fn)
}

// MailboxKey addresses one mailbox response of a FakeSocket.
type MailboxKey struct {
	Cmd MailboxCommand
	Arg uint32
}

// FakeSocket holds the register contents of one simulated CPU.
type FakeSocket struct {
	CPUID   map[uint32]Quad
	Mailbox map[MailboxKey]uint32
}

// FakeSource is an in-memory Source. It backs the simulate mode of the
// binary and the package tests.
type FakeSource struct {
	mu      sync.Mutex
	sockets map[uint8]*FakeSocket
	ops     []Op

	// Fail, when set, is consulted before every request; a non-nil result
	// is returned instead of the register value.
	Fail func(op Op) error
}

var _ Source = &FakeSource{}

// NewFakeSource returns a FakeSource serving the given sockets.
func NewFakeSource(sockets map[uint8]*FakeSocket) *FakeSource {
	if sockets == nil {
		sockets = map[uint8]*FakeSocket{}
	}
	return &FakeSource{sockets: sockets}
}

// Ops returns the requests seen so far.
func (f *FakeSource) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Op(nil), f.ops...)
}

// Count returns how many recorded requests match pred.
func (f *FakeSource) Count(pred func(Op) bool) int {
	n := 0
	for _, op := range f.Ops() {
		if pred(op) {
			n++
		}
	}
	return n
}

func (f *FakeSource) record(op Op) (*FakeSocket, error) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	fail := f.Fail
	s := f.sockets[op.Socket]
	f.mu.Unlock()

	if fail != nil {
		if err := fail(op); err != nil {
			return nil, err
		}
	}
	if s == nil {
		return nil, fmt.Errorf("socket %d: %w", op.Socket, ErrNotAvailable)
	}
	return s, nil
}

func (s *FakeSocket) quad(fn uint32) (Quad, error) {
	q, ok := s.CPUID[fn]
	if !ok {
		return Quad{}, fmt.Errorf("cpuid 0x%x: %w", fn, ErrNotAvailable)
	}
	return q, nil
}

func (f *FakeSource) CPUID(_ context.Context, socket uint8, _ uint32, fn, _ uint32) (Quad, error) {
	s, err := f.record(Op{Kind: OpCPUID, Socket: socket, Fn: fn})
	if err != nil {
		return Quad{}, err
	}
	return s.quad(fn)
}

func (f *FakeSource) CPUIDRegister(_ context.Context, socket uint8, _ uint32, fn, _ uint32, reg Register) (uint32, error) {
	s, err := f.record(Op{Kind: OpCPUIDRegister, Socket: socket, Fn: fn, Reg: reg})
	if err != nil {
		return 0, err
	}
	q, err := s.quad(fn)
	if err != nil {
		return 0, err
	}
	return q.Word(reg), nil
}

func (f *FakeSource) ReadMailbox(_ context.Context, socket uint8, cmd MailboxCommand, arg uint32) (uint32, error) {
	s, err := f.record(Op{Kind: OpMailbox, Socket: socket, Cmd: cmd, Arg: arg})
	if err != nil {
		return 0, err
	}
	v, ok := s.Mailbox[MailboxKey{Cmd: cmd, Arg: arg}]
	if !ok {
		return 0, fmt.Errorf("mailbox %s arg %d: %w", cmd, arg, ErrNotAvailable)
	}
	return v, nil
}
