// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package decode

import (
	"bytes"

	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
)

// PartNumberLength is the maximum length of an assembled part number.
const PartNumberLength = 47

// AssemblePartNumber concatenates the bytes of the three brand string leaves,
// A, B, C then D of each leaf, least significant byte first. The result is
// cut at the first zero byte and never exceeds PartNumberLength characters.
func AssemblePartNumber(leaves [3]apml.Quad) string {
	buf := make([]byte, 0, len(leaves)*16)
	for _, q := range leaves {
		for _, word := range [4]uint32{q.EAX, q.EBX, q.ECX, q.EDX} {
			buf = append(buf,
				byte(word&0xFF),
				byte((word>>8)&0xFF),
				byte((word>>16)&0xFF),
				byte((word>>24)&0xFF),
			)
		}
	}
	buf = buf[:PartNumberLength]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}
