// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package apml

import (
	"context"
	"errors"
)

func ioctlTransfer(_ context.Context, _ string, _ *message) error {
	return errors.New("apml devices are only supported on linux")
}
