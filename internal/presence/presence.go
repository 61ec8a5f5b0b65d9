// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package presence reports whether a CPU socket is populated.
package presence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/siderolabs/go-cmd/pkg/cmd"
)

// ErrUnavailable is returned when the presence state cannot be determined.
var ErrUnavailable = errors.New("presence unavailable")

// DefaultLines are the GPIO line names of socket 0 and 1.
var DefaultLines = []string{"P0_PRESENT_L", "P1_PRESENT_L"}

// Source reports socket presence.
type Source interface {
	IsPresent(ctx context.Context, socket int) (bool, error)
}

type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// GPIOSource reads active-low presence lines with the libgpiod tools.
type GPIOSource struct {
	lines []string
	run   runFunc
}

var _ Source = &GPIOSource{}

// NewGPIOSource creates a GPIOSource for the given line names, indexed by
// socket. Nil lines select DefaultLines.
func NewGPIOSource(lines []string) *GPIOSource {
	if lines == nil {
		lines = DefaultLines
	}
	return &GPIOSource{
		lines: lines,
		run:   cmd.RunContext,
	}
}

// IsPresent resolves the socket's line with gpiofind and samples it with
// gpioget. A low level means the socket is populated.
func (g *GPIOSource) IsPresent(ctx context.Context, socket int) (bool, error) {
	if socket < 0 || socket >= len(g.lines) || g.lines[socket] == "" {
		return false, fmt.Errorf("no presence line for socket %d: %w", socket, ErrUnavailable)
	}
	line := g.lines[socket]

	out, err := g.run(ctx, "gpiofind", line)
	if err != nil {
		return false, fmt.Errorf("failed to find gpio line %s: %w: %w", line, ErrUnavailable, err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return false, fmt.Errorf("unexpected gpiofind output %q for %s: %w", strings.TrimSpace(out), line, ErrUnavailable)
	}

	out, err = g.run(ctx, "gpioget", fields[0], fields[1])
	if err != nil {
		return false, fmt.Errorf("failed to read gpio line %s: %w: %w", line, ErrUnavailable, err)
	}
	switch strings.TrimSpace(out) {
	case "0":
		return true, nil
	case "1":
		return false, nil
	}
	return false, fmt.Errorf("unexpected gpioget value %q for %s: %w", strings.TrimSpace(out), line, ErrUnavailable)
}

// Static reports fixed presence values indexed by socket.
type Static []bool

func (s Static) IsPresent(_ context.Context, socket int) (bool, error) {
	if socket < 0 || socket >= len(s) {
		return false, fmt.Errorf("socket %d: %w", socket, ErrUnavailable)
	}
	return s[socket], nil
}
