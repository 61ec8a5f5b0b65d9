// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmds

import (
	"context"
	"fmt"
	"io"

	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/collector"
	"github.com/ironcore-dev/cpuinfo-collector/internal/presence"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
)

type collectOptions struct {
	dryRun   bool
	simulate int
}

// collectResult is printed after a single pass.
type collectResult struct {
	Sockets   []collector.Socket `json:"sockets"`
	Published []publish.Record   `json:"published,omitempty"`
}

func NewCollectCommand(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Runs a single collection pass and prints the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Record properties instead of publishing them on D-Bus.")
	cmd.Flags().IntVar(&opts.simulate, "simulate", 0,
		"Read from the given number of simulated sockets instead of the SB-RMI devices. Implies --dry-run.")
	return cmd
}

func runCollect(ctx context.Context, out io.Writer, root *rootOptions, opts *collectOptions) error {
	var (
		source apml.Source
		p      presence.Source
	)
	if opts.simulate > 0 {
		if opts.simulate > 2 {
			return fmt.Errorf("at most 2 sockets can be simulated, got %d", opts.simulate)
		}
		opts.dryRun = true
		source = apml.NewSimulatedSource(opts.simulate)
		p = presence.Static{true, true}
		if root.boardID < 0 {
			root.boardID = 0x3D
			if opts.simulate == 2 {
				root.boardID = 0x3E
			}
		}
	} else {
		source = apml.NewDeviceSource(root.cfg.DeviceOptions())
		p = root.presenceSource()
	}

	var (
		pub      publish.Publisher
		recorder *publish.Recorder
	)
	if opts.dryRun {
		recorder = publish.NewRecorder()
		pub = recorder
	} else {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to connect to system bus: %w", err)
		}
		defer func() {
			_ = conn.Close()
		}()
		pub = publish.NewDBusPublisher(root.log, conn, root.cfg.DBus.InventoryService, root.cfg.DBus.ProcessorPathPattern)
	}

	sockets := root.newCollector(source, p, pub, prometheus.NewRegistry()).RunPass(ctx)
	result := collectResult{Sockets: sockets}
	if recorder != nil {
		result.Published = recorder.Records()
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = out.Write(data)
	return err
}
