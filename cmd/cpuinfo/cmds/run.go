// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmds

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
)

func NewRunCommand(root *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collects on startup and on every host power on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("metrics-bind-address") {
				root.cfg.Metrics.BindAddress = metricsAddr
			}
			return runDaemon(cmd.Context(), root)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-bind-address", "",
		"The address the metrics endpoint binds to. Empty disables the endpoint.")
	return cmd
}

func runDaemon(ctx context.Context, root *rootOptions) error {
	log := root.log.WithName("setup")

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error(err, "Failed to close system bus connection")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cfg := root.cfg
	pub := publish.NewDBusPublisher(root.log, conn, cfg.DBus.InventoryService, cfg.DBus.ProcessorPathPattern)
	c := root.newCollector(apml.NewDeviceSource(cfg.DeviceOptions()), root.presenceSource(), pub, reg)

	states, err := publish.NewHostStateWatcher(root.log, conn, cfg.DBus.HostStatePath).Watch(ctx)
	if err != nil {
		return err
	}

	if cfg.Metrics.BindAddress != "" {
		go func() {
			if err := metrics.NewServer(root.log, cfg.Metrics.BindAddress, reg).Start(ctx); err != nil {
				log.Error(err, "Metrics server failed")
			}
		}()
	}

	log.Info("Starting collector", "retryAttempts", cfg.Retry.Attempts, "retryInterval", cfg.Retry.Interval.Duration.String())
	return c.Run(ctx, states)
}
