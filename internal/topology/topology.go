// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package topology maps the board identity to the number of CPU sockets.
package topology

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

const DefaultSocketCount = 1

// Platform describes a reference board by its board id.
type Platform struct {
	Name    string
	Sockets int
}

// platforms lists every known board id. Ids missing here resolve to a
// single socket.
var platforms = map[byte]Platform{
	0x3D: {"Onyx SLT", 1},
	0x40: {"Onyx 1", 1},
	0x41: {"Onyx 2", 1},
	0x42: {"Onyx 3", 1},
	0x52: {"Onyx FR4", 1},
	0x3E: {"Quartz DAP", 2},
	0x43: {"Quartz 1", 2},
	0x44: {"Quartz 2", 2},
	0x45: {"Quartz 3", 2},
	0x51: {"Quartz FR4", 2},
	0x46: {"Ruby 1", 1},
	0x47: {"Ruby 2", 1},
	0x48: {"Ruby 3", 1},
	0x49: {"Titanite 1", 2},
	0x4A: {"Titanite 2", 2},
	0x4B: {"Titanite 3", 2},
	0x4C: {"Titanite 4", 2},
	0x4D: {"Titanite 5", 2},
	0x4E: {"Titanite 6", 2},
	0x62: {"Shale 1", 1},
	0x65: {"Shale 2", 1},
	0x59: {"Shale 3", 1},
	0x63: {"Cinnabar", 1},
	0x61: {"Sunstone 1", 1},
	0x64: {"Sunstone 2", 1},
}

// Lookup returns the platform registered for id.
func Lookup(id byte) (Platform, bool) {
	p, ok := platforms[id]
	return p, ok
}

// PlatformName returns a display name for id.
func PlatformName(id byte) string {
	if p, ok := platforms[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("unknown (0x%02x)", id)
}

// BoardIDSource reads the board identity byte.
type BoardIDSource interface {
	ReadBoardID(ctx context.Context) (byte, error)
}

// Resolver maps the board identity to a socket count.
type Resolver struct {
	source     BoardIDSource
	dualSocket map[byte]struct{}
	log        logr.Logger
}

// NewResolver creates a Resolver. extraDualSocket adds board ids on top of
// the built-in table that should resolve to two sockets.
func NewResolver(log logr.Logger, source BoardIDSource, extraDualSocket []byte) *Resolver {
	dual := make(map[byte]struct{}, len(extraDualSocket))
	for _, id := range extraDualSocket {
		dual[id] = struct{}{}
	}
	return &Resolver{
		source:     source,
		dualSocket: dual,
		log:        log.WithName("topology"),
	}
}

// Resolve maps a board id to its socket count.
func (r *Resolver) Resolve(id byte) int {
	if _, ok := r.dualSocket[id]; ok {
		return 2
	}
	return Resolve(id)
}

// Resolve maps a board id to its socket count using the built-in table.
func Resolve(id byte) int {
	if p, ok := platforms[id]; ok {
		return p.Sockets
	}
	return DefaultSocketCount
}

// SocketCount reads the board id and resolves it. A failed read is logged
// and yields DefaultSocketCount.
func (r *Resolver) SocketCount(ctx context.Context) int {
	id, err := r.source.ReadBoardID(ctx)
	if err != nil {
		r.log.Error(err, "Failed to read board id, assuming single socket")
		return DefaultSocketCount
	}
	count := r.Resolve(id)
	r.log.Info("Resolved platform", "boardID", fmt.Sprintf("0x%02x", id), "platform", PlatformName(id), "sockets", count)
	return count
}
