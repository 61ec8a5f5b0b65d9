// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package boardid

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FWEnvSource", func() {
	var (
		source *FWEnvSource
		out    string
		runErr error
		called []string
	)

	BeforeEach(func() {
		out, runErr, called = "", nil, nil
		source = NewFWEnvSource("", "")
		source.run = func(_ context.Context, name string, args ...string) (string, error) {
			called = append([]string{name}, args...)
			return out, runErr
		}
	})

	It("should invoke fw_printenv for board_id", func(ctx SpecContext) {
		out = "4a\n"
		id, err := source.ReadBoardID(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(byte(0x4A)))
		Expect(called).To(Equal([]string{"/sbin/fw_printenv", "-n", "board_id"}))
	})

	It("should fail when the command fails", func(ctx SpecContext) {
		runErr = errors.New("exit status 1")
		_, err := source.ReadBoardID(ctx)
		Expect(err).To(MatchError(runErr))
	})

	DescribeTable("Parse",
		func(value string, expected byte, ok bool) {
			id, err := Parse(value)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(expected))
		},
		Entry("lower case", "3d", byte(0x3D), true),
		Entry("upper case", "4E\n", byte(0x4E), true),
		Entry("prefixed", "0x62", byte(0x62), true),
		Entry("single digit", "7", byte(0x07), true),
		Entry("only the first two digits", "4567", byte(0x45), true),
		Entry("empty", "\n", byte(0), false),
		Entry("garbage", "zz", byte(0), false),
	)

	It("should serve static ids", func(ctx SpecContext) {
		id, err := Static(0x43).ReadBoardID(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(byte(0x43)))
	})
})
