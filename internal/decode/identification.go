// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package decode turns raw APML register words into processor identity
// values. All functions are pure.
package decode

import "fmt"

// Identification is the family/model/stepping split of CPUID 1 EAX.
type Identification struct {
	BaseFamily     uint32
	ExtendedFamily uint32
	BaseModel      uint32
	ExtendedModel  uint32
	Step           uint32
}

// DecodeIdentification splits the EAX word of CPUID function 1.
func DecodeIdentification(eax uint32) Identification {
	return Identification{
		BaseFamily:     (eax >> 8) & 0xF,
		ExtendedFamily: (eax >> 20) & 0xFF,
		BaseModel:      (eax >> 4) & 0xF,
		ExtendedModel:  (eax >> 16) & 0xF,
		Step:           eax & 0xF,
	}
}

// Family returns the effective family, base plus extended family.
func (i Identification) Family() uint32 {
	return i.BaseFamily + i.ExtendedFamily
}

// Model returns the effective model, extended model in the high nibble.
func (i Identification) Model() uint32 {
	return i.ExtendedModel*16 + i.BaseModel
}

// FormatHexDec renders v as "<hex> (<decimal>)".
func FormatHexDec(v uint32) string {
	return fmt.Sprintf("%x (%d)", v, v)
}
