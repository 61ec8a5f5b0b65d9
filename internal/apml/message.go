// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package apml

import (
	"encoding/binary"
	"fmt"
)

// Message protocol ids above the mailbox range.
const (
	protocolCPUID uint32 = 0x1000
)

const (
	messageSize = 24

	offsetCmd     = 0
	offsetDataOut = 4
	offsetDataIn  = 12
	offsetRetCode = 20

	// byte index inside data_in carrying the read flag
	readFlagIndex = 7
)

// sbrmiIoctlCmd is _IOWR(0xF9, 0, struct apml_message).
const sbrmiIoctlCmd uint32 = 3<<30 | messageSize<<16 | 0xF9<<8 | 0

// message mirrors the packed struct apml_message of the apml_sbrmi driver:
//
//	__u32 cmd; union data_out (8 bytes); union data_in (8 bytes); __u32 fw_ret_code;
type message [messageSize]byte

func (m *message) setCmd(cmd uint32) {
	binary.LittleEndian.PutUint32(m[offsetCmd:], cmd)
}

func (m *message) cmd() uint32 {
	return binary.LittleEndian.Uint32(m[offsetCmd:])
}

func (m *message) dataIn() []byte {
	return m[offsetDataIn : offsetDataIn+8]
}

func (m *message) outLow() uint32 {
	return binary.LittleEndian.Uint32(m[offsetDataOut:])
}

func (m *message) outHigh() uint32 {
	return binary.LittleEndian.Uint32(m[offsetDataOut+4:])
}

func (m *message) retCode() uint32 {
	return binary.LittleEndian.Uint32(m[offsetRetCode:])
}

func newMailboxMessage(cmd MailboxCommand, arg uint32) *message {
	m := &message{}
	m.setCmd(uint32(cmd))
	in := m.dataIn()
	binary.LittleEndian.PutUint32(in, arg)
	in[readFlagIndex] = 1
	return m
}

// newCPUIDMessage builds a CPUID request. The driver returns EAX/EBX when
// upper is false and ECX/EDX when it is true.
func newCPUIDMessage(thread, fn, ext uint32, upper bool) *message {
	m := &message{}
	m.setCmd(protocolCPUID)
	in := m.dataIn()
	binary.LittleEndian.PutUint32(in, fn)
	binary.LittleEndian.PutUint16(in[4:], uint16(thread))
	sel := byte(ext&0xF) << 4
	if upper {
		sel |= 1
	}
	in[6] = sel
	in[readFlagIndex] = 1
	return m
}

// FirmwareError is returned when the SMU answers a request with a non-zero
// status code.
type FirmwareError struct {
	Cmd  uint32
	Code uint32
}

func (e *FirmwareError) Error() string {
	return fmt.Sprintf("apml command 0x%x failed with firmware status 0x%x", e.Cmd, e.Code)
}
