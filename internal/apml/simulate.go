// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package apml

import "encoding/binary"

// SimulatedBrandString is the part number reported by simulated sockets.
const SimulatedBrandString = "AMD EPYC 9654 96-Core Processor"

// NewSimulatedSource returns a FakeSource with sockets sockets of a
// 96-core family 19h part. Socket i reports a distinct PPIN.
func NewSimulatedSource(sockets int) *FakeSource {
	m := make(map[uint8]*FakeSocket, sockets)
	for i := range sockets {
		m[uint8(i)] = SimulatedSocket(uint32(i))
	}
	return NewFakeSource(m)
}

// SimulatedSocket returns the register contents of one simulated CPU.
func SimulatedSocket(seed uint32) *FakeSocket {
	cpuid := BrandLeaves(SimulatedBrandString)
	cpuid[FnIdentification] = Quad{EAX: 0x00A10F11, EBX: 0x00C00800}
	cpuid[FnTopology] = Quad{EBX: 0x0100}
	return &FakeSocket{
		CPUID: cpuid,
		Mailbox: map[MailboxKey]uint32{
			{Cmd: ReadCPUBaseFrequency}:      2400,
			{Cmd: ReadPPINFuse, Arg: LoWord}: 0x89ABCDEF + seed,
			{Cmd: ReadPPINFuse, Arg: HiWord}: 0x01234567,
			{Cmd: ReadUcodeRevision}:         0x0A101148,
		},
	}
}

// BrandLeaves packs s into the three brand string leaves, zero padded.
func BrandLeaves(s string) map[uint32]Quad {
	buf := make([]byte, len(BrandStringLeaves)*16)
	copy(buf, s)
	leaves := make(map[uint32]Quad, len(BrandStringLeaves))
	for i, fn := range BrandStringLeaves {
		b := buf[i*16:]
		leaves[fn] = Quad{
			EAX: binary.LittleEndian.Uint32(b[0:]),
			EBX: binary.LittleEndian.Uint32(b[4:]),
			ECX: binary.LittleEndian.Uint32(b[8:]),
			EDX: binary.LittleEndian.Uint32(b[12:]),
		}
	}
	return leaves
}
