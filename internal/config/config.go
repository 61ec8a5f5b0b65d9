// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the collector configuration. A Config is built once
// at startup and passed by value to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/cpuinfo-collector/internal/access"
	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/boardid"
	"github.com/ironcore-dev/cpuinfo-collector/internal/collector"
	"github.com/ironcore-dev/cpuinfo-collector/internal/presence"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
)

// Config is the collector configuration.
type Config struct {
	Retry    RetryConfig    `json:"retry"`
	APML     APMLConfig     `json:"apml"`
	Presence PresenceConfig `json:"presence"`
	BoardID  BoardIDConfig  `json:"boardID"`
	Topology TopologyConfig `json:"topology"`
	DBus     DBusConfig     `json:"dbus"`
	Metrics  MetricsConfig  `json:"metrics"`

	// Manufacturer and VendorID are published verbatim for every socket.
	Manufacturer string `json:"manufacturer"`
	VendorID     string `json:"vendorID"`
}

// RetryConfig is the retry policy of every register operation.
type RetryConfig struct {
	Attempts int             `json:"attempts"`
	Interval metav1.Duration `json:"interval"`
}

// APMLConfig locates the SB-RMI devices and names the mailbox commands.
type APMLConfig struct {
	DevicePattern   string        `json:"devicePattern"`
	SocketAddresses []int         `json:"socketAddresses"`
	Mailbox         MailboxConfig `json:"mailbox"`
}

// MailboxConfig holds the mailbox message ids used by the collector.
type MailboxConfig struct {
	BaseFrequency uint32 `json:"baseFrequency"`
	PPINFuse      uint32 `json:"ppinFuse"`
	UcodeRevision uint32 `json:"ucodeRevision"`
}

// PresenceConfig selects the presence GPIO lines.
type PresenceConfig struct {
	// Disabled treats every socket as present.
	Disabled bool     `json:"disabled"`
	Lines    []string `json:"lines"`
}

// BoardIDConfig locates the board identity in the bootloader environment.
type BoardIDConfig struct {
	Command  string `json:"command"`
	Variable string `json:"variable"`
}

// TopologyConfig extends the built-in platform table.
type TopologyConfig struct {
	DualSocketBoardIDs []int `json:"dualSocketBoardIDs"`
}

// DBusConfig names the inventory and host state objects.
type DBusConfig struct {
	InventoryService     string `json:"inventoryService"`
	ProcessorPathPattern string `json:"processorPathPattern"`
	HostStatePath        string `json:"hostStatePath"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	// BindAddress is the listen address of the metrics endpoint. Empty
	// disables it.
	BindAddress string `json:"bindAddress"`
}

// Default returns the built-in configuration.
func Default() Config {
	addresses := make([]int, 0, len(apml.DefaultSocketAddresses))
	for _, a := range apml.DefaultSocketAddresses {
		addresses = append(addresses, int(a))
	}
	return Config{
		Retry: RetryConfig{
			Attempts: access.DefaultAttempts,
			Interval: metav1.Duration{Duration: access.DefaultInterval},
		},
		APML: APMLConfig{
			DevicePattern:   apml.DefaultDevicePattern,
			SocketAddresses: addresses,
			Mailbox: MailboxConfig{
				BaseFrequency: uint32(apml.ReadCPUBaseFrequency),
				PPINFuse:      uint32(apml.ReadPPINFuse),
				UcodeRevision: uint32(apml.ReadUcodeRevision),
			},
		},
		Presence: PresenceConfig{
			Lines: append([]string(nil), presence.DefaultLines...),
		},
		BoardID: BoardIDConfig{
			Command:  boardid.DefaultCommand,
			Variable: boardid.DefaultVariable,
		},
		DBus: DBusConfig{
			InventoryService:     publish.DefaultService,
			ProcessorPathPattern: publish.DefaultPathPattern,
			HostStatePath:        publish.DefaultHostStatePath,
		},
		Manufacturer: "AMD",
		VendorID:     "AuthenticAMD",
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts))
	}
	if c.Retry.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("retry.interval must be positive, got %s", c.Retry.Interval.Duration))
	}
	if len(c.APML.SocketAddresses) == 0 {
		errs = append(errs, errors.New("apml.socketAddresses must not be empty"))
	}
	for i, a := range c.APML.SocketAddresses {
		if a < 0 || a > 0x7F {
			errs = append(errs, fmt.Errorf("apml.socketAddresses[%d] is not a 7-bit address: %d", i, a))
		}
	}
	for i, id := range c.Topology.DualSocketBoardIDs {
		if id < 0 || id > 0xFF {
			errs = append(errs, fmt.Errorf("topology.dualSocketBoardIDs[%d] out of range: %d", i, id))
		}
	}
	return errors.Join(errs...)
}

// RetryOptions converts the retry policy for the access package.
func (c Config) RetryOptions() access.Options {
	return access.Options{
		Attempts: c.Retry.Attempts,
		Interval: c.Retry.Interval.Duration,
	}
}

// DeviceOptions converts the APML settings for apml.NewDeviceSource.
func (c Config) DeviceOptions() apml.DeviceOptions {
	addresses := make([]uint8, 0, len(c.APML.SocketAddresses))
	for _, a := range c.APML.SocketAddresses {
		addresses = append(addresses, uint8(a))
	}
	return apml.DeviceOptions{
		DevicePattern:   c.APML.DevicePattern,
		SocketAddresses: addresses,
	}
}

// CollectorOptions returns the published constants and mailbox ids.
func (c Config) CollectorOptions() collector.Options {
	return collector.Options{
		Manufacturer: c.Manufacturer,
		VendorID:     c.VendorID,
		Mailbox: collector.MailboxCommands{
			BaseFrequency: apml.MailboxCommand(c.APML.Mailbox.BaseFrequency),
			PPINFuse:      apml.MailboxCommand(c.APML.Mailbox.PPINFuse),
			UcodeRevision: apml.MailboxCommand(c.APML.Mailbox.UcodeRevision),
		},
	}
}

// DualSocketBoardIDs returns the extra two-socket board ids.
func (c Config) DualSocketBoardIDs() []byte {
	ids := make([]byte, 0, len(c.Topology.DualSocketBoardIDs))
	for _, id := range c.Topology.DualSocketBoardIDs {
		ids = append(ids, byte(id))
	}
	return ids
}

// WorstCaseBlocking is the longest a single register operation may block.
func (c Config) WorstCaseBlocking() time.Duration {
	return time.Duration(c.Retry.Attempts) * c.Retry.Interval.Duration
}
