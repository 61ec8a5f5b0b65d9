// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmds

import (
	"flag"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ironcore-dev/cpuinfo-collector/internal/access"
	"github.com/ironcore-dev/cpuinfo-collector/internal/apml"
	"github.com/ironcore-dev/cpuinfo-collector/internal/boardid"
	"github.com/ironcore-dev/cpuinfo-collector/internal/collector"
	"github.com/ironcore-dev/cpuinfo-collector/internal/config"
	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"
	"github.com/ironcore-dev/cpuinfo-collector/internal/presence"
	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
	"github.com/ironcore-dev/cpuinfo-collector/internal/topology"
)

const Name string = "cpuinfo"

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configFile string
	boardID    int
	zap        zap.Options

	cfg config.Config
	log logr.Logger
}

func NewCommand() *cobra.Command {
	opts := &rootOptions{
		boardID: -1,
		zap: zap.Options{
			Development: true,
		},
	}

	root := &cobra.Command{
		Use:           Name,
		Short:         "Collects AMD CPU inventory over APML and publishes it on D-Bus",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.complete()
		},
	}

	goFlags := flag.NewFlagSet(Name, flag.ContinueOnError)
	opts.zap.BindFlags(goFlags)
	root.PersistentFlags().AddGoFlagSet(goFlags)
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to the YAML configuration file.")
	root.PersistentFlags().IntVar(&opts.boardID, "board-id", -1,
		"Board id to use instead of reading it from the bootloader environment.")

	root.AddCommand(
		NewRunCommand(opts),
		NewCollectCommand(opts),
		NewDecodeCommand(),
	)
	return root
}

func (o *rootOptions) complete() error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&o.zap)))
	o.log = ctrl.Log.WithName(Name)

	o.cfg = config.Default()
	if o.configFile != "" {
		cfg, err := config.Load(o.configFile)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}
	if o.boardID > 0xFF {
		return fmt.Errorf("board id out of range: %d", o.boardID)
	}
	return nil
}

// boardIDSource returns the override from --board-id or the bootloader
// environment reader.
func (o *rootOptions) boardIDSource() topology.BoardIDSource {
	if o.boardID >= 0 {
		return boardid.Static(o.boardID)
	}
	return boardid.NewFWEnvSource(o.cfg.BoardID.Command, o.cfg.BoardID.Variable)
}

func (o *rootOptions) presenceSource() presence.Source {
	if o.cfg.Presence.Disabled {
		return presence.Static{true, true}
	}
	return presence.NewGPIOSource(o.cfg.Presence.Lines)
}

// newCollector wires a Collector reading from source and publishing to pub.
func (o *rootOptions) newCollector(source apml.Source, p presence.Source, pub publish.Publisher, reg prometheus.Registerer) *collector.Collector {
	recorder := metrics.NewRecorder(reg)
	return collector.New(o.log,
		access.New(o.log, source, recorder, o.cfg.RetryOptions()),
		p,
		pub,
		topology.NewResolver(o.log, o.boardIDSource(), o.cfg.DualSocketBoardIDs()),
		recorder,
		o.cfg.CollectorOptions(),
	)
}
