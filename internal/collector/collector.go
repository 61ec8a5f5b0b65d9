// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package collector sequences the register reads of every CPU socket and
// publishes the decoded values.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/cpuinfo-collector/internal/access"
	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/decode"
	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"
	"github.com/ironcore-dev/cpuinfo-collector/internal/presence"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
)

// ErrCoreCountUndefined is recorded when the threads per core read returns zero.
var ErrCoreCountUndefined = errors.New("threads per core is zero, core count undefined")

// SocketCounter reports how many sockets the board carries.
type SocketCounter interface {
	SocketCount(ctx context.Context) int
}

// Reader performs the retried register reads of one socket. access.Access
// implements it.
type Reader interface {
	QueryIdentification(ctx context.Context, socket uint8) (apml.Quad, error)
	QueryExtendedIdentification(ctx context.Context, socket uint8, leaf uint32) (apml.Quad, error)
	ReadMailbox(ctx context.Context, socket uint8, cmd apml.MailboxCommand, arg uint32) (uint32, error)
	ThreadsPerSocket(ctx context.Context, socket uint8) (uint32, error)
	ThreadsPerCore(ctx context.Context, socket uint8) (uint32, error)
}

var _ Reader = &access.Access{}

// MailboxCommands names the mailbox message ids of each read.
type MailboxCommands struct {
	BaseFrequency apml.MailboxCommand
	PPINFuse      apml.MailboxCommand
	UcodeRevision apml.MailboxCommand
}

// DefaultMailboxCommands returns the built-in message ids.
func DefaultMailboxCommands() MailboxCommands {
	return MailboxCommands{
		BaseFrequency: apml.ReadCPUBaseFrequency,
		PPINFuse:      apml.ReadPPINFuse,
		UcodeRevision: apml.ReadUcodeRevision,
	}
}

// Options are the constants published for every socket.
type Options struct {
	Manufacturer string
	VendorID     string
	Mailbox      MailboxCommands
}

// Collector runs collection passes. At most one pass is in flight.
type Collector struct {
	reader    Reader
	presence  presence.Source
	publisher publish.Publisher
	topology  SocketCounter
	metrics   *metrics.Recorder
	opts      Options
	log       logr.Logger

	mu sync.Mutex
}

// New creates a Collector.
func New(log logr.Logger, a Reader, p presence.Source, pub publish.Publisher, topo SocketCounter, recorder *metrics.Recorder, opts Options) *Collector {
	if opts.Manufacturer == "" {
		opts.Manufacturer = "AMD"
	}
	if opts.VendorID == "" {
		opts.VendorID = "AuthenticAMD"
	}
	if opts.Mailbox == (MailboxCommands{}) {
		opts.Mailbox = DefaultMailboxCommands()
	}
	return &Collector{
		reader:    a,
		presence:  p,
		publisher: pub,
		topology:  topo,
		metrics:   recorder,
		opts:      opts,
		log:       log.WithName("collector"),
	}
}

// RunPass resolves the socket count and collects every socket in order.
// The returned slice holds one entry per socket that was identified.
func (c *Collector) RunPass(ctx context.Context) []Socket {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	count := c.topology.SocketCount(ctx)
	c.log.Info("Starting collection pass", "sockets", count)

	sockets := make([]Socket, 0, count)
	for i := range count {
		s, err := c.CollectSocket(ctx, i)
		if err != nil {
			c.log.Error(err, "Skipping socket", "socket", i)
			continue
		}
		sockets = append(sockets, s)
	}

	c.metrics.ObservePass(time.Since(start))
	c.log.Info("Finished collection pass", "sockets", len(sockets), "duration", time.Since(start).String())
	return sockets
}

// CollectSocket collects and publishes one socket. It only returns an error
// when the socket could not be identified, in which case nothing is
// published. Every later step fails on its own and is recorded in
// Socket.Errors.
func (c *Collector) CollectSocket(ctx context.Context, index int) (Socket, error) {
	log := c.log.WithValues("socket", index)
	s := Socket{Index: index}
	socket := uint8(index)

	q, err := c.reader.QueryIdentification(ctx, socket)
	if err != nil {
		return s, fmt.Errorf("failed to identify socket %d: %w", index, err)
	}

	present, err := c.presence.IsPresent(ctx, index)
	if err != nil {
		log.Info("Presence unavailable, assuming socket is present", "error", err.Error())
		present = true
	}
	s.Present = present
	c.publish(ctx, log, index, publish.Present, present, publish.InterfaceItem)
	if !present {
		log.Info("Socket is not populated")
		return s, nil
	}

	c.collectIdentification(ctx, log, &s, q)
	c.collectBaseFrequency(ctx, log, &s)
	c.collectPPIN(ctx, log, &s)
	c.collectThreadCounts(ctx, log, &s)
	c.collectMicrocode(ctx, log, &s)
	c.collectPartNumber(ctx, log, &s)

	if err := s.Err(); err != nil {
		log.V(1).Info("Socket collected with failures", "failures", len(s.Errors))
	}
	return s, nil
}

func (c *Collector) collectIdentification(ctx context.Context, log logr.Logger, s *Socket, q apml.Quad) {
	id := decode.DecodeIdentification(q.EAX)
	s.EffectiveFamily = decode.FormatHexDec(id.Family())
	s.Family = decode.FormatHexDec(id.BaseFamily)
	s.EffectiveModel = decode.FormatHexDec(id.Model())
	s.Model = decode.FormatHexDec(id.BaseModel)
	s.Step = decode.FormatHexDec(id.Step)
	s.Manufacturer = c.opts.Manufacturer
	s.VendorID = c.opts.VendorID

	c.publish(ctx, log, s.Index, publish.EffectiveFamily, s.EffectiveFamily, publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.Family, s.Family, publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.EffectiveModel, s.EffectiveModel, publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.Model, s.Model, publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.Step, s.Step, publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.Socket, strconv.Itoa(s.Index), publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.Manufacturer, s.Manufacturer, publish.InterfaceAsset)
	c.publish(ctx, log, s.Index, publish.VendorID, s.VendorID, publish.InterfaceCPU)
}

func (c *Collector) collectBaseFrequency(ctx context.Context, log logr.Logger, s *Socket) {
	freq, err := c.reader.ReadMailbox(ctx, uint8(s.Index), c.opts.Mailbox.BaseFrequency, 0)
	if err != nil {
		s.fail(fmt.Errorf("base frequency: %w", err))
		log.Error(err, "Failed to read base frequency")
		return
	}
	s.MaxSpeedInMhz = freq
	c.publish(ctx, log, s.Index, publish.MaxSpeedInMhz, freq, publish.InterfaceCPU)
}

func (c *Collector) collectPPIN(ctx context.Context, log logr.Logger, s *Socket) {
	socket := uint8(s.Index)
	lo, err := c.reader.ReadMailbox(ctx, socket, c.opts.Mailbox.PPINFuse, apml.LoWord)
	if err != nil {
		s.fail(fmt.Errorf("ppin low word: %w", err))
		log.Error(err, "Failed to read PPIN low word")
		return
	}
	hi, err := c.reader.ReadMailbox(ctx, socket, c.opts.Mailbox.PPINFuse, apml.HiWord)
	if err != nil {
		s.fail(fmt.Errorf("ppin high word: %w", err))
		log.Error(err, "Failed to read PPIN high word")
		return
	}
	p := decode.AssemblePPIN(lo, hi)
	s.PPIN = p
	s.SerialNumber = decode.Serial(p)
	log.V(1).Info("Decoded PPIN", "ppin", decode.FormatPPIN(p), "serial", s.SerialNumber)

	c.publish(ctx, log, s.Index, publish.PPIN, decode.FormatPPIN(p), publish.InterfaceCPU)
	c.publish(ctx, log, s.Index, publish.SerialNumber, s.SerialNumber, publish.InterfaceAsset)
}

func (c *Collector) collectThreadCounts(ctx context.Context, log logr.Logger, s *Socket) {
	socket := uint8(s.Index)
	perSocket, socketErr := c.reader.ThreadsPerSocket(ctx, socket)
	if socketErr != nil {
		s.fail(fmt.Errorf("threads per socket: %w", socketErr))
		log.Error(socketErr, "Failed to read threads per socket")
	} else {
		s.ThreadCount = uint16(perSocket)
		c.publish(ctx, log, s.Index, publish.ThreadCount, s.ThreadCount, publish.InterfaceCPU)
	}

	perCore, coreErr := c.reader.ThreadsPerCore(ctx, socket)
	if coreErr != nil {
		s.fail(fmt.Errorf("threads per core: %w", coreErr))
		log.Error(coreErr, "Failed to read threads per core")
	}
	if socketErr != nil || coreErr != nil {
		return
	}
	if perCore == 0 {
		s.fail(ErrCoreCountUndefined)
		log.Info("Not publishing core count", "reason", ErrCoreCountUndefined.Error())
		return
	}
	s.CoreCount = uint16(perSocket / perCore)
	c.publish(ctx, log, s.Index, publish.CoreCount, s.CoreCount, publish.InterfaceCPU)
}

func (c *Collector) collectMicrocode(ctx context.Context, log logr.Logger, s *Socket) {
	ucode, err := c.reader.ReadMailbox(ctx, uint8(s.Index), c.opts.Mailbox.UcodeRevision, 0)
	if err != nil {
		s.fail(fmt.Errorf("microcode revision: %w", err))
		log.Error(err, "Failed to read microcode revision")
		return
	}
	s.Microcode = fmt.Sprintf("0x%x", ucode)
	c.publish(ctx, log, s.Index, publish.Microcode, s.Microcode, publish.InterfaceCPU)
}

func (c *Collector) collectPartNumber(ctx context.Context, log logr.Logger, s *Socket) {
	var leaves [3]apml.Quad
	for i, leaf := range apml.BrandStringLeaves {
		q, err := c.reader.QueryExtendedIdentification(ctx, uint8(s.Index), leaf)
		if err != nil {
			s.fail(fmt.Errorf("part number: %w", err))
			log.Error(err, "Failed to read part number")
			return
		}
		leaves[i] = q
	}
	s.PartNumber = decode.AssemblePartNumber(leaves)
	c.publish(ctx, log, s.Index, publish.PartNumber, s.PartNumber, publish.InterfaceAsset)
}

// publish writes one property. Failures are logged and counted only.
func (c *Collector) publish(ctx context.Context, log logr.Logger, socket int, name publish.Property, value any, iface publish.Interface) {
	err := c.publisher.Publish(ctx, socket, name, value, iface)
	c.metrics.ObservePublish(string(name), err)
	if err != nil {
		log.Error(err, "Failed to publish property", "property", name)
		return
	}
	log.V(1).Info("Published property", "property", name, "value", value)
}
