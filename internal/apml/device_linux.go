// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package apml

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctlTransfer(ctx context.Context, path string, m *message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer func() {
		_ = unix.Close(fd)
	}()

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(sbrmiIoctlCmd), uintptr(unsafe.Pointer(&m[0])))
	if errno != 0 {
		return fmt.Errorf("SBRMI_IOCTL_CMD: %w", errno)
	}
	return nil
}
