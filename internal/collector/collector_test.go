// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package collector_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ironcore-dev/cpuinfo-collector/internal/access"
	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/collector"
	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"
	"github.com/ironcore-dev/cpuinfo-collector/internal/presence"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const brand = "AMD EPYC 9654 96-Core Processor"

type socketCount struct {
	n     int
	calls atomic.Int32
}

func (s *socketCount) SocketCount(context.Context) int {
	s.calls.Add(1)
	return s.n
}

func newSocket(threadsEBX uint32) *apml.FakeSocket {
	cpuid := apml.BrandLeaves(brand)
	cpuid[apml.FnIdentification] = apml.Quad{EAX: 0x00A10F11, EBX: threadsEBX}
	cpuid[apml.FnTopology] = apml.Quad{EBX: 0x0100}
	return &apml.FakeSocket{
		CPUID: cpuid,
		Mailbox: map[apml.MailboxKey]uint32{
			{Cmd: apml.ReadCPUBaseFrequency}:           2400,
			{Cmd: apml.ReadPPINFuse, Arg: apml.LoWord}: 0x89ABCDEF,
			{Cmd: apml.ReadPPINFuse, Arg: apml.HiWord}: 0x01234567,
			{Cmd: apml.ReadUcodeRevision}:              0x0A101148,
		},
	}
}

// zeroThreadsPerCore reports a threads per core value of zero.
type zeroThreadsPerCore struct {
	collector.Reader
}

func (zeroThreadsPerCore) ThreadsPerCore(context.Context, uint8) (uint32, error) {
	return 0, nil
}

var _ = Describe("Collector", func() {
	var (
		fake      *apml.FakeSource
		recorder  *publish.Recorder
		registry  *prometheus.Registry
		counter   *socketCount
		presenceS presence.Source
		boom      = errors.New("bus busy")
	)

	newCollector := func() *collector.Collector {
		m := metrics.NewRecorder(registry)
		acc := access.New(GinkgoLogr, fake, m, access.Options{Attempts: 2, Interval: time.Millisecond})
		return collector.New(GinkgoLogr, acc, presenceS, recorder, counter, m, collector.Options{})
	}

	BeforeEach(func() {
		fake = apml.NewFakeSource(map[uint8]*apml.FakeSocket{
			0: newSocket(0x00800000),
			1: newSocket(0x00800000),
		})
		recorder = publish.NewRecorder()
		registry = prometheus.NewRegistry()
		counter = &socketCount{n: 1}
		presenceS = presence.Static{true, true}
	})

	It("should publish every property of a present socket", func(ctx SpecContext) {
		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Err()).NotTo(HaveOccurred())

		Expect(recorder.Properties(0)).To(Equal(map[publish.Property]any{
			publish.Present:         true,
			publish.EffectiveFamily: "19 (25)",
			publish.Family:          "f (15)",
			publish.EffectiveModel:  "11 (17)",
			publish.Model:           "1 (1)",
			publish.Step:            "1 (1)",
			publish.Socket:          "0",
			publish.Manufacturer:    "AMD",
			publish.VendorID:        "AuthenticAMD",
			publish.MaxSpeedInMhz:   uint32(2400),
			publish.PPIN:            "0x123456789abcdef",
			publish.SerialNumber:    "OH1LJYOQ73567",
			publish.ThreadCount:     uint16(128),
			publish.CoreCount:       uint16(64),
			publish.Microcode:       "0xa101148",
			publish.PartNumber:      brand,
		}))
		Expect(s.PPIN).To(Equal(uint64(0x0123456789ABCDEF)))
	})

	It("should publish Present before any other property", func(ctx SpecContext) {
		_, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())

		records := recorder.Records()
		Expect(records).NotTo(BeEmpty())
		Expect(records[0]).To(Equal(publish.Record{
			Socket: 0, Name: publish.Present, Value: true, Interface: publish.InterfaceItem,
		}))
	})

	It("should only publish Present=false for an absent socket", func(ctx SpecContext) {
		presenceS = presence.Static{false}

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Present).To(BeFalse())
		Expect(recorder.Records()).To(ConsistOf(publish.Record{
			Socket: 0, Name: publish.Present, Value: false, Interface: publish.InterfaceItem,
		}))
		Expect(fake.Count(func(op apml.Op) bool { return op.Kind == apml.OpMailbox })).To(BeZero())
	})

	It("should treat a socket as present when presence is unavailable", func(ctx SpecContext) {
		presenceS = presence.Static{}

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Present).To(BeTrue())
		Expect(recorder.Properties(0)).To(HaveKeyWithValue(publish.Present, true))
		Expect(recorder.Properties(0)).To(HaveKey(publish.SerialNumber))
	})

	It("should skip a socket that cannot be identified", func(ctx SpecContext) {
		fake.Fail = func(op apml.Op) error {
			if op.Kind == apml.OpCPUID {
				return boom
			}
			return nil
		}

		_, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).To(MatchError(access.ErrRetryExhausted))
		Expect(err).To(MatchError(boom))
		Expect(recorder.Records()).To(BeEmpty())
	})

	It("should compute the core count with floor division", func(ctx SpecContext) {
		fake = apml.NewFakeSource(map[uint8]*apml.FakeSocket{0: newSocket(0x007F0000)})

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.ThreadCount).To(Equal(uint16(127)))
		Expect(recorder.Properties(0)).To(HaveKeyWithValue(publish.CoreCount, uint16(63)))
	})

	It("should not publish a core count when threads per core is zero", func(ctx SpecContext) {
		m := metrics.NewRecorder(registry)
		acc := access.New(GinkgoLogr, fake, m, access.Options{Attempts: 2, Interval: time.Millisecond})
		c := collector.New(GinkgoLogr, zeroThreadsPerCore{acc}, presenceS, recorder, counter, m, collector.Options{})

		s, err := c.CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Err()).To(MatchError(collector.ErrCoreCountUndefined))
		Expect(s.CoreCount).To(BeZero())
		props := recorder.Properties(0)
		Expect(props).To(HaveKeyWithValue(publish.ThreadCount, uint16(128)))
		Expect(props).NotTo(HaveKey(publish.CoreCount))
		Expect(props).To(HaveKey(publish.Microcode))
	})

	It("should not publish a core count when a thread count read fails", func(ctx SpecContext) {
		fake.Fail = func(op apml.Op) error {
			if op.Kind == apml.OpCPUIDRegister && op.Fn == apml.FnIdentification {
				return boom
			}
			return nil
		}

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Err()).To(MatchError(boom))
		props := recorder.Properties(0)
		Expect(props).NotTo(HaveKey(publish.ThreadCount))
		Expect(props).NotTo(HaveKey(publish.CoreCount))
		Expect(props).To(HaveKey(publish.Microcode))
		Expect(props).To(HaveKey(publish.PartNumber))
	})

	It("should not publish a part number when one leaf word fails", func(ctx SpecContext) {
		fake.Fail = func(op apml.Op) error {
			if op.Kind == apml.OpCPUIDRegister && op.Fn == apml.FnBrandString2 && op.Reg == apml.ECX {
				return boom
			}
			return nil
		}

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		var leafErr *access.PartialLeafError
		Expect(errors.As(s.Err(), &leafErr)).To(BeTrue())
		Expect(leafErr.Leaf).To(Equal(apml.FnBrandString2))
		Expect(leafErr.Register).To(Equal(apml.ECX))
		Expect(recorder.Properties(0)).NotTo(HaveKey(publish.PartNumber))
		Expect(fake.Count(func(op apml.Op) bool {
			return op.Fn == apml.FnBrandString3 || (op.Fn == apml.FnBrandString2 && op.Reg == apml.EDX)
		})).To(BeZero())
	})

	It("should publish an empty part number for zero leaves", func(ctx SpecContext) {
		socket := newSocket(0x00800000)
		for _, fn := range apml.BrandStringLeaves {
			socket.CPUID[fn] = apml.Quad{}
		}
		fake = apml.NewFakeSource(map[uint8]*apml.FakeSocket{0: socket})

		_, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Properties(0)).To(HaveKeyWithValue(publish.PartNumber, ""))
	})

	It("should continue after a failing step", func(ctx SpecContext) {
		fake.Fail = func(op apml.Op) error {
			if op.Kind == apml.OpMailbox && op.Cmd == apml.ReadPPINFuse {
				return boom
			}
			return nil
		}

		s, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Errors).To(HaveLen(1))
		props := recorder.Properties(0)
		Expect(props).NotTo(HaveKey(publish.PPIN))
		Expect(props).NotTo(HaveKey(publish.SerialNumber))
		Expect(props).To(HaveKey(publish.ThreadCount))
		Expect(props).To(HaveKey(publish.Microcode))
	})

	It("should keep publishing after a publish failure", func(ctx SpecContext) {
		recorder.Fail = func(r publish.Record) error {
			if r.Name == publish.Family {
				return errors.New("no reply")
			}
			return nil
		}

		_, err := newCollector().CollectSocket(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		props := recorder.Properties(0)
		Expect(props).NotTo(HaveKey(publish.Family))
		Expect(props).To(HaveKey(publish.EffectiveModel))
		Expect(props).To(HaveLen(15))
		Expect(testutil.GatherAndCount(registry, "cpuinfo_publish_total")).To(Equal(16))
	})

	It("should collect the sockets in order", func(ctx SpecContext) {
		counter.n = 2

		sockets := newCollector().RunPass(ctx)
		Expect(sockets).To(HaveLen(2))
		Expect(sockets[0].Index).To(Equal(0))
		Expect(sockets[1].Index).To(Equal(1))
		Expect(recorder.Properties(1)).To(HaveKeyWithValue(publish.Socket, "1"))

		records := recorder.Records()
		firstOfSocket1 := -1
		for i, r := range records {
			if r.Socket == 1 {
				firstOfSocket1 = i
				break
			}
		}
		Expect(firstOfSocket1).To(BeNumerically(">", 0))
		for _, r := range records[firstOfSocket1:] {
			Expect(r.Socket).To(Equal(1))
		}
	})

	It("should leave an unidentified socket out of the pass", func(ctx SpecContext) {
		counter.n = 2
		fake.Fail = func(op apml.Op) error {
			if op.Kind == apml.OpCPUID && op.Socket == 0 {
				return boom
			}
			return nil
		}

		sockets := newCollector().RunPass(ctx)
		Expect(sockets).To(HaveLen(1))
		Expect(sockets[0].Index).To(Equal(1))
		Expect(recorder.Properties(0)).To(BeEmpty())
	})

	Describe("Run", func() {
		It("should run a pass per host start and stop when updates end", func(ctx SpecContext) {
			c := newCollector()
			states := make(chan publish.HostState)
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- c.Run(ctx, states)
			}()

			Eventually(counter.calls.Load).Should(Equal(int32(1)))
			states <- publish.HostOff
			states <- publish.HostRunning
			close(states)

			Eventually(done).Should(Receive(BeNil()))
			Expect(counter.calls.Load()).To(Equal(int32(2)))
		})

		It("should return when the context is cancelled", func(ctx SpecContext) {
			c := newCollector()
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- c.Run(runCtx, make(chan publish.HostState))
			}()

			Eventually(counter.calls.Load).Should(BeNumerically(">=", 1))
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
