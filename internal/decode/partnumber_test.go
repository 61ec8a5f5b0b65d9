// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package decode_test

import (
	"encoding/binary"
	"strings"

	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/decode"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// brandLeaves packs s into three CPUID quads the way the processor reports
// its brand string.
func brandLeaves(s string) [3]apml.Quad {
	buf := make([]byte, 48)
	copy(buf, s)
	var leaves [3]apml.Quad
	for i := range leaves {
		chunk := buf[i*16:]
		leaves[i] = apml.Quad{
			EAX: binary.LittleEndian.Uint32(chunk[0:]),
			EBX: binary.LittleEndian.Uint32(chunk[4:]),
			ECX: binary.LittleEndian.Uint32(chunk[8:]),
			EDX: binary.LittleEndian.Uint32(chunk[12:]),
		}
	}
	return leaves
}

var _ = Describe("AssemblePartNumber", func() {
	It("should decode a brand string", func() {
		Expect(decode.AssemblePartNumber(brandLeaves("AMD EPYC 9654 96-Core Processor"))).
			To(Equal("AMD EPYC 9654 96-Core Processor"))
	})

	It("should take bytes least significant first", func() {
		leaves := [3]apml.Quad{{EAX: 0x20444D41}}
		Expect(decode.AssemblePartNumber(leaves)).To(Equal("AMD "))
	})

	It("should return an empty string for all zero words", func() {
		Expect(decode.AssemblePartNumber([3]apml.Quad{})).To(BeEmpty())
	})

	It("should stop at the first zero byte", func() {
		leaves := brandLeaves("100-000000789")
		leaves[2].EAX = 0x41414141
		Expect(decode.AssemblePartNumber(leaves)).To(Equal("100-000000789"))
	})

	It("should cap the result at 47 characters", func() {
		full := strings.Repeat("A", 48)
		pn := decode.AssemblePartNumber(brandLeaves(full))
		Expect(pn).To(HaveLen(decode.PartNumberLength))
		Expect(pn).To(Equal(full[:47]))
	})

	It("should keep trailing padding", func() {
		Expect(decode.AssemblePartNumber(brandLeaves("AMD EPYC 9124   "))).To(Equal("AMD EPYC 9124   "))
	})
})
