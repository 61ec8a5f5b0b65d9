// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package publish writes collected processor properties to the inventory.
package publish

import (
	"context"
	"errors"
	"fmt"
)

// Interface is the inventory interface a property belongs to.
type Interface string

const (
	InterfaceCPU   Interface = "xyz.openbmc_project.Inventory.Item.Cpu"
	InterfaceAsset Interface = "xyz.openbmc_project.Inventory.Decorator.Asset"
	InterfaceItem  Interface = "xyz.openbmc_project.Inventory.Item"
)

// Property is an inventory property name.
type Property string

const (
	EffectiveFamily Property = "EffectiveFamily"
	Family          Property = "Family"
	EffectiveModel  Property = "EffectiveModel"
	Model           Property = "Model"
	Step            Property = "Step"
	Socket          Property = "Socket"
	Manufacturer    Property = "Manufacturer"
	VendorID        Property = "VendorId"
	ThreadCount     Property = "ThreadCount"
	CoreCount       Property = "CoreCount"
	MaxSpeedInMhz   Property = "MaxSpeedInMhz"
	Microcode       Property = "Microcode"
	PPIN            Property = "PPIN"
	SerialNumber    Property = "SerialNumber"
	PartNumber      Property = "PartNumber"
	Present         Property = "Present"
)

// ErrUnsupportedValue is returned for values other than string, uint32,
// uint16 and bool.
var ErrUnsupportedValue = errors.New("unsupported property value type")

// Publisher writes one property of one socket. Publish returns once the
// write has been acknowledged.
type Publisher interface {
	Publish(ctx context.Context, socket int, name Property, value any, iface Interface) error
}

// ValidateValue checks that value has one of the supported types.
func ValidateValue(value any) error {
	switch value.(type) {
	case string, uint32, uint16, bool:
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
}
