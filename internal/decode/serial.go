// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package decode

import (
	"fmt"
	"strconv"
)

const (
	lotShift   = 21
	lotLength  = 7
	lotRadix   = 37
	deviceMask = 0x3FFF
	dateMask   = 0x1FC000
	dateShift  = 14
)

// monthCodes maps a manufacturing month to its serial number letter.
var monthCodes = map[uint32]string{
	1:  "M",
	2:  "N",
	3:  "O",
	4:  "P",
	5:  "Q",
	6:  "R",
	7:  "S",
	8:  "T",
	9:  "U",
	10: "V",
	11: "W",
	12: "X",
}

// AssemblePPIN joins the low and high fuse words.
func AssemblePPIN(lo, hi uint32) uint64 {
	return uint64(lo) | uint64(hi)<<32
}

// FormatPPIN renders p in hexadecimal.
func FormatPPIN(p uint64) string {
	return fmt.Sprintf("0x%x", p)
}

// Lot decodes the seven character lot string from PPIN bits 21 to 63.
// Digits 0 to 26 map to '@' to 'Z', digits 27 to 36 to '0' to '9', most
// significant digit first.
func Lot(p uint64) string {
	var lot [lotLength]byte
	v := p >> lotShift
	for i := lotLength - 1; i >= 0; i-- {
		d := byte(v % lotRadix)
		v /= lotRadix
		if d < 27 {
			lot[i] = d + 64
		} else {
			lot[i] = d + 21
		}
	}
	return string(lot[:])
}

// DeviceNumber returns PPIN bits 0 to 13.
func DeviceNumber(p uint64) uint32 {
	return uint32(p & deviceMask)
}

// DateCode returns PPIN bits 14 to 20.
func DateCode(p uint64) uint32 {
	return uint32((p & dateMask) >> dateShift)
}

// MonthCode returns the letter for month, or "" outside 1 to 12.
func MonthCode(month uint32) string {
	return monthCodes[month]
}

// DateUnit renders the month letter, the year digit and the zero padded
// device number.
func DateUnit(p uint64) string {
	date := DateCode(p)
	month := date/10 + 1
	year := date % 10
	return MonthCode(month) + strconv.FormatUint(uint64(year), 10) + fmt.Sprintf("%04d", DeviceNumber(p))
}

// Serial decodes the processor serial number from a PPIN.
func Serial(p uint64) string {
	return Lot(p) + DateUnit(p)
}
