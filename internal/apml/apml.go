// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package apml provides access to the AMD Advanced Platform Management Link
// (APML) side-band remote management interface (SB-RMI) of the host CPUs.
//
// The package only issues single request/response exchanges. Retries and
// interpretation of the returned words live in the access and decode
// packages.
package apml

import (
	"context"
	"fmt"
)

// Quad holds the four 32-bit words returned by one CPUID query.
type Quad struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
}

// Register selects one word of a CPUID result.
type Register int

const (
	EAX Register = iota
	EBX
	ECX
	EDX
)

func (r Register) String() string {
	switch r {
	case EAX:
		return "eax"
	case EBX:
		return "ebx"
	case ECX:
		return "ecx"
	case EDX:
		return "edx"
	}
	return fmt.Sprintf("register(%d)", int(r))
}

// Word returns the word of q selected by r.
func (q Quad) Word(r Register) uint32 {
	switch r {
	case EAX:
		return q.EAX
	case EBX:
		return q.EBX
	case ECX:
		return q.ECX
	default:
		return q.EDX
	}
}

// MailboxCommand is an SB-RMI mailbox message id.
type MailboxCommand uint32

const (
	ReadCPUBaseFrequency MailboxCommand = 0x43
	ReadPPINFuse         MailboxCommand = 0x60
	ReadUcodeRevision    MailboxCommand = 0x62
)

// Mailbox arguments selecting the 32-bit half of a 64-bit fuse value.
const (
	LoWord uint32 = 0
	HiWord uint32 = 1
)

func (c MailboxCommand) String() string {
	switch c {
	case ReadCPUBaseFrequency:
		return "ReadCPUBaseFrequency"
	case ReadPPINFuse:
		return "ReadPPINFuse"
	case ReadUcodeRevision:
		return "ReadUcodeRevision"
	}
	return fmt.Sprintf("Mailbox(0x%x)", uint32(c))
}

// CPUID functions used by the collector.
const (
	FnIdentification uint32 = 0x00000001
	FnBrandString1   uint32 = 0x80000002
	FnBrandString2   uint32 = 0x80000003
	FnBrandString3   uint32 = 0x80000004
	FnTopology       uint32 = 0x8000001E
)

// BrandStringLeaves are the extended identification leaves holding the
// processor part number, in assembly order.
var BrandStringLeaves = [3]uint32{FnBrandString1, FnBrandString2, FnBrandString3}

// Source is a single-shot SB-RMI endpoint for every socket of the board.
type Source interface {
	// CPUID reads all four words of a CPUID function on the given thread.
	CPUID(ctx context.Context, socket uint8, thread uint32, fn, ext uint32) (Quad, error)

	// CPUIDRegister reads one word of a CPUID function on the given thread.
	CPUIDRegister(ctx context.Context, socket uint8, thread uint32, fn, ext uint32, reg Register) (uint32, error)

	// ReadMailbox issues a mailbox read and returns the 32-bit response.
	ReadMailbox(ctx context.Context, socket uint8, cmd MailboxCommand, arg uint32) (uint32, error)
}
