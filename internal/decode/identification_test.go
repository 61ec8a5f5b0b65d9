// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package decode_test

import (
	"github.com/ironcore-dev/cpuinfo-collector/internal/decode"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identification", func() {
	DescribeTable("should split CPUID 1 EAX",
		func(eax uint32, family, model, step string) {
			id := decode.DecodeIdentification(eax)
			Expect(decode.FormatHexDec(id.Family())).To(Equal(family))
			Expect(decode.FormatHexDec(id.Model())).To(Equal(model))
			Expect(decode.FormatHexDec(id.Step)).To(Equal(step))
		},
		Entry("Genoa", uint32(0x00A10F11), "19 (25)", "11 (17)", "1 (1)"),
		Entry("Milan", uint32(0x00A00F11), "19 (25)", "1 (1)", "1 (1)"),
		Entry("Turin", uint32(0x00B00F21), "1a (26)", "2 (2)", "1 (1)"),
		Entry("zero", uint32(0), "0 (0)", "0 (0)", "0 (0)"),
		Entry("all ones", uint32(0xFFFFFFFF), "10e (270)", "ff (255)", "f (15)"),
	)

	It("should keep the base values", func() {
		id := decode.DecodeIdentification(0x00A10F11)
		Expect(id.BaseFamily).To(Equal(uint32(0xF)))
		Expect(id.ExtendedFamily).To(Equal(uint32(0xA)))
		Expect(id.BaseModel).To(Equal(uint32(0x1)))
		Expect(id.ExtendedModel).To(Equal(uint32(0x1)))
	})

	It("should always format as hex followed by decimal", func() {
		for _, eax := range []uint32{0, 1, 0x00A10F11, 0x0FF0FFFF, 0x12345678, 0xFFFFFFFF} {
			id := decode.DecodeIdentification(eax)
			for _, v := range []uint32{id.Family(), id.Model(), id.Step} {
				Expect(decode.FormatHexDec(v)).To(MatchRegexp(`^[0-9a-f]+ \(\d+\)$`))
			}
		}
	})
})
