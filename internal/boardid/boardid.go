// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package boardid reads the board identity byte stored in the bootloader
// environment.
package boardid

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/siderolabs/go-cmd/pkg/cmd"
)

const (
	DefaultCommand  = "/sbin/fw_printenv"
	DefaultVariable = "board_id"
)

type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// FWEnvSource reads the board id with fw_printenv.
type FWEnvSource struct {
	command  string
	variable string
	run      runFunc
}

// NewFWEnvSource creates a FWEnvSource. Empty arguments select the defaults.
func NewFWEnvSource(command, variable string) *FWEnvSource {
	if command == "" {
		command = DefaultCommand
	}
	if variable == "" {
		variable = DefaultVariable
	}
	return &FWEnvSource{
		command:  command,
		variable: variable,
		run:      cmd.RunContext,
	}
}

// ReadBoardID runs `fw_printenv -n <variable>` and parses its value.
func (s *FWEnvSource) ReadBoardID(ctx context.Context) (byte, error) {
	out, err := s.run(ctx, s.command, "-n", s.variable)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s from bootloader environment: %w", s.variable, err)
	}
	return Parse(out)
}

// Parse reads a board id given as up to two hexadecimal digits, with or
// without a 0x prefix.
func Parse(value string) (byte, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if len(v) > 2 {
		v = v[:2]
	}
	if v == "" {
		return 0, fmt.Errorf("empty board id")
	}
	id, err := strconv.ParseUint(v, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid board id %q: %w", value, err)
	}
	return byte(id), nil
}

// Static always returns the same board id.
type Static byte

func (s Static) ReadBoardID(context.Context) (byte, error) {
	return byte(s), nil
}
