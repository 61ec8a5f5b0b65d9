// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"errors"
)

// Socket is the result of collecting one CPU socket. Zero values mark
// properties that could not be read; Errors lists why.
type Socket struct {
	Index   int  `json:"index"`
	Present bool `json:"present"`

	EffectiveFamily string `json:"effectiveFamily,omitempty"`
	Family          string `json:"family,omitempty"`
	EffectiveModel  string `json:"effectiveModel,omitempty"`
	Model           string `json:"model,omitempty"`
	Step            string `json:"step,omitempty"`

	Manufacturer string `json:"manufacturer,omitempty"`
	VendorID     string `json:"vendorID,omitempty"`
	PartNumber   string `json:"partNumber,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	PPIN         uint64 `json:"ppin,omitempty"`

	ThreadCount   uint16 `json:"threadCount,omitempty"`
	CoreCount     uint16 `json:"coreCount,omitempty"`
	MaxSpeedInMhz uint32 `json:"maxSpeedInMhz,omitempty"`
	Microcode     string `json:"microcode,omitempty"`

	Errors []error `json:"-"`
}

// Err joins the step failures of the socket.
func (s *Socket) Err() error {
	return errors.Join(s.Errors...)
}

func (s *Socket) fail(err error) {
	s.Errors = append(s.Errors, err)
}
