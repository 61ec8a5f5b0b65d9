// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"
)

const (
	DefaultService     = "xyz.openbmc_project.Inventory.Manager"
	DefaultPathPattern = "/xyz/openbmc_project/inventory/system/processor/P%d"

	propertiesSet = "org.freedesktop.DBus.Properties.Set"
)

type setFunc func(ctx context.Context, path dbus.ObjectPath, iface, name string, value dbus.Variant) error

// DBusPublisher sets inventory properties through org.freedesktop.DBus.Properties.
type DBusPublisher struct {
	pathPattern string
	set         setFunc
	log         logr.Logger
}

var _ Publisher = &DBusPublisher{}

// NewDBusPublisher creates a DBusPublisher writing to service over conn.
// Empty service and pathPattern select the defaults.
func NewDBusPublisher(log logr.Logger, conn *dbus.Conn, service, pathPattern string) *DBusPublisher {
	if service == "" {
		service = DefaultService
	}
	if pathPattern == "" {
		pathPattern = DefaultPathPattern
	}
	return &DBusPublisher{
		pathPattern: pathPattern,
		set: func(ctx context.Context, path dbus.ObjectPath, iface, name string, value dbus.Variant) error {
			return conn.Object(service, path).CallWithContext(ctx, propertiesSet, 0, iface, name, value).Err
		},
		log: log.WithName("dbus-publisher"),
	}
}

// ObjectPath returns the inventory object of socket.
func (p *DBusPublisher) ObjectPath(socket int) (dbus.ObjectPath, error) {
	path := dbus.ObjectPath(fmt.Sprintf(p.pathPattern, socket))
	if socket < 0 || !path.IsValid() {
		return "", fmt.Errorf("invalid inventory object for socket %d", socket)
	}
	return path, nil
}

// Publish sets name on the socket's inventory object and waits for the reply.
func (p *DBusPublisher) Publish(ctx context.Context, socket int, name Property, value any, iface Interface) error {
	if err := ValidateValue(value); err != nil {
		return err
	}
	path, err := p.ObjectPath(socket)
	if err != nil {
		return err
	}
	p.log.V(1).Info("Setting property", "path", path, "interface", iface, "property", name)
	if err := p.set(ctx, path, string(iface), string(name), dbus.MakeVariant(value)); err != nil {
		return fmt.Errorf("failed to set %s.%s on %s: %w", iface, name, path, err)
	}
	return nil
}
