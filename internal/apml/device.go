// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package apml

import (
	"context"
	"fmt"
)

const (
	DefaultDevicePattern = "/dev/sbrmi-%x"
)

// DefaultSocketAddresses are the SB-RMI target addresses of socket 0 and 1.
var DefaultSocketAddresses = []uint8{0x3c, 0x38}

// DeviceOptions configure a DeviceSource.
type DeviceOptions struct {
	// DevicePattern is a fmt pattern receiving the socket's SB-RMI address.
	DevicePattern string
	// SocketAddresses maps a socket index to its SB-RMI address.
	SocketAddresses []uint8
}

type transferFunc func(ctx context.Context, path string, m *message) error

// DeviceSource is a Source backed by the apml_sbrmi character devices.
type DeviceSource struct {
	pattern   string
	addresses []uint8
	xfer      transferFunc
}

var _ Source = &DeviceSource{}

// NewDeviceSource creates a DeviceSource. Empty options fall back to the
// default device pattern and socket addresses.
func NewDeviceSource(opts DeviceOptions) *DeviceSource {
	if opts.DevicePattern == "" {
		opts.DevicePattern = DefaultDevicePattern
	}
	if len(opts.SocketAddresses) == 0 {
		opts.SocketAddresses = DefaultSocketAddresses
	}
	return &DeviceSource{
		pattern:   opts.DevicePattern,
		addresses: opts.SocketAddresses,
		xfer:      ioctlTransfer,
	}
}

func (d *DeviceSource) devicePath(socket uint8) (string, error) {
	if int(socket) >= len(d.addresses) {
		return "", fmt.Errorf("no SB-RMI address configured for socket %d", socket)
	}
	return fmt.Sprintf(d.pattern, d.addresses[socket]), nil
}

func (d *DeviceSource) do(ctx context.Context, socket uint8, m *message) error {
	path, err := d.devicePath(socket)
	if err != nil {
		return err
	}
	if err := d.xfer(ctx, path, m); err != nil {
		return fmt.Errorf("apml transfer on %s: %w", path, err)
	}
	if code := m.retCode(); code != 0 {
		return &FirmwareError{Cmd: m.cmd(), Code: code}
	}
	return nil
}

func (d *DeviceSource) cpuidHalf(ctx context.Context, socket uint8, thread, fn, ext uint32, upper bool) (uint32, uint32, error) {
	m := newCPUIDMessage(thread, fn, ext, upper)
	if err := d.do(ctx, socket, m); err != nil {
		return 0, 0, err
	}
	return m.outLow(), m.outHigh(), nil
}

// CPUID reads all four words of fn. It performs two transfers, EAX/EBX first.
func (d *DeviceSource) CPUID(ctx context.Context, socket uint8, thread uint32, fn, ext uint32) (Quad, error) {
	var q Quad
	var err error
	if q.EAX, q.EBX, err = d.cpuidHalf(ctx, socket, thread, fn, ext, false); err != nil {
		return Quad{}, err
	}
	if q.ECX, q.EDX, err = d.cpuidHalf(ctx, socket, thread, fn, ext, true); err != nil {
		return Quad{}, err
	}
	return q, nil
}

// CPUIDRegister reads a single word of fn.
func (d *DeviceSource) CPUIDRegister(ctx context.Context, socket uint8, thread uint32, fn, ext uint32, reg Register) (uint32, error) {
	upper := reg == ECX || reg == EDX
	low, high, err := d.cpuidHalf(ctx, socket, thread, fn, ext, upper)
	if err != nil {
		return 0, err
	}
	if reg == EAX || reg == ECX {
		return low, nil
	}
	return high, nil
}

// ReadMailbox issues a mailbox read for cmd with the given argument.
func (d *DeviceSource) ReadMailbox(ctx context.Context, socket uint8, cmd MailboxCommand, arg uint32) (uint32, error) {
	m := newMailboxMessage(cmd, arg)
	if err := d.do(ctx, socket, m); err != nil {
		return 0, err
	}
	return m.outLow(), nil
}
