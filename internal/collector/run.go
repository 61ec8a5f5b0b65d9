// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"

	"github.com/ironcore-dev/cpuinfo-collector/internal/publish"
)

// Run performs an initial pass and then one pass each time the host enters
// the running state. Transitions seen while a pass is in flight coalesce
// into a single follow-up pass. Run returns when ctx is done, or when
// states is closed and the last scheduled pass has finished.
func (c *Collector) Run(ctx context.Context, states <-chan publish.HostState) error {
	pending := make(chan struct{}, 1)
	pending <- struct{}{}
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.work(ctx, pending, stop)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			c.log.Info("Collector stopped")
			return nil
		case state, ok := <-states:
			if !ok {
				close(stop)
				<-done
				c.log.Info("Host state updates closed, collector stopped")
				return nil
			}
			if state != publish.HostRunning {
				c.log.V(1).Info("Ignoring host state change", "state", state)
				continue
			}
			c.log.Info("Host is running, scheduling collection pass")
			select {
			case pending <- struct{}{}:
			default:
				c.log.V(1).Info("Collection pass already scheduled")
			}
		}
	}
}

func (c *Collector) work(ctx context.Context, pending <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			c.RunPass(ctx)
		case <-stop:
			select {
			case <-pending:
				c.RunPass(ctx)
			default:
			}
			return
		}
	}
}
