// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironcore-dev/cpuinfo-collector/internal/metrics"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	It("should expose the registered collectors", func() {
		reg := prometheus.NewRegistry()
		metrics.NewRecorder(reg).ObserveRetry("cpuid")
		srv := metrics.NewServer(GinkgoLogr, "127.0.0.1:0", reg)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`cpuinfo_register_retries_total{op="cpuid"} 1`))
	})

	It("should answer health checks", func() {
		srv := metrics.NewServer(GinkgoLogr, "127.0.0.1:0", prometheus.NewRegistry())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should stop when the context is cancelled", func(ctx SpecContext) {
		srv := metrics.NewServer(GinkgoLogr, "127.0.0.1:0", prometheus.NewRegistry())
		done := make(chan error, 1)
		runCtx, cancel := context.WithCancel(ctx)
		go func() {
			done <- srv.Start(runCtx)
		}()
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
