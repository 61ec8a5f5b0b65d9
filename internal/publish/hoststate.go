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
	DefaultHostStatePath = "/xyz/openbmc_project/state/host0"

	hostStateInterface  = "xyz.openbmc_project.State.Host"
	hostStateProperty   = "CurrentHostState"
	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesChanged   = "PropertiesChanged"
)

// HostState is a value of xyz.openbmc_project.State.Host.CurrentHostState.
type HostState string

const (
	HostRunning HostState = "xyz.openbmc_project.State.Host.HostState.Running"
	HostOff     HostState = "xyz.openbmc_project.State.Host.HostState.Off"
)

// HostStateWatcher follows CurrentHostState changes of the host.
type HostStateWatcher struct {
	conn *dbus.Conn
	path dbus.ObjectPath
	log  logr.Logger
}

// NewHostStateWatcher creates a watcher for the host state object at path.
// An empty path selects DefaultHostStatePath.
func NewHostStateWatcher(log logr.Logger, conn *dbus.Conn, path string) *HostStateWatcher {
	if path == "" {
		path = DefaultHostStatePath
	}
	return &HostStateWatcher{
		conn: conn,
		path: dbus.ObjectPath(path),
		log:  log.WithName("host-state"),
	}
}

// Watch subscribes to host state changes. The returned channel is closed
// once ctx is done.
func (w *HostStateWatcher) Watch(ctx context.Context) (<-chan HostState, error) {
	matchOpts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(w.path),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember(propertiesChanged),
	}
	if err := w.conn.AddMatchSignal(matchOpts...); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", w.path, err)
	}

	signals := make(chan *dbus.Signal, 8)
	w.conn.Signal(signals)

	states := make(chan HostState, 1)
	go func() {
		defer close(states)
		defer func() {
			w.conn.RemoveSignal(signals)
			if err := w.conn.RemoveMatchSignal(matchOpts...); err != nil {
				w.log.Error(err, "Failed to remove host state match")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Path != w.path {
					continue
				}
				state, ok := ParseHostState(sig.Body)
				if !ok {
					continue
				}
				w.log.Info("Host state changed", "state", state)
				select {
				case states <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return states, nil
}

// ParseHostState extracts CurrentHostState from a PropertiesChanged body.
func ParseHostState(body []any) (HostState, bool) {
	if len(body) < 2 {
		return "", false
	}
	iface, ok := body[0].(string)
	if !ok || iface != hostStateInterface {
		return "", false
	}
	changed, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false
	}
	v, ok := changed[hostStateProperty]
	if !ok {
		return "", false
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", false
	}
	return HostState(s), true
}
