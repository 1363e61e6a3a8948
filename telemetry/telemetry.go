// Package telemetry exposes build health over Prometheus: rebuild
// counters, build duration, and gauges for graph size and diagnostic
// counts. The /metrics endpoint is served in watch mode.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/tracegraph/graph"
)

// Collector holds the tracegraph metric set on its own registry.
type Collector struct {
	registry *prometheus.Registry

	buildsTotal   prometheus.Counter
	buildDuration prometheus.Histogram
	nodesByKind   *prometheus.GaugeVec
	diagnostics   *prometheus.GaugeVec
	pendingLinks  prometheus.Gauge
}

// NewCollector creates and registers the metric set.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		buildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracegraph_builds_total",
			Help: "Number of graph rebuilds.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracegraph_build_duration_seconds",
			Help:    "Graph rebuild duration.",
			Buckets: prometheus.DefBuckets,
		}),
		nodesByKind: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracegraph_nodes",
			Help: "Nodes in the current graph, by kind.",
		}, []string{"kind"}),
		diagnostics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracegraph_diagnostics",
			Help: "Diagnostics from the last build, by severity.",
		}, []string{"severity"}),
		pendingLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracegraph_unresolved_references",
			Help: "Broken plus suppressed references in the last build.",
		}),
	}
	c.registry.MustRegister(
		c.buildsTotal,
		c.buildDuration,
		c.nodesByKind,
		c.diagnostics,
		c.pendingLinks,
	)
	return c
}

// ObserveBuild records one completed rebuild.
func (c *Collector) ObserveBuild(g *graph.Graph, diags graph.Diagnostics, elapsed time.Duration) {
	c.buildsTotal.Inc()
	c.buildDuration.Observe(elapsed.Seconds())

	kinds := make(map[graph.NodeKind]int)
	unresolved := 0
	for n := range g.Nodes() {
		kinds[n.Kind]++
		for e := range g.Outgoing(n.ID) {
			if e.State == graph.StateBroken || e.State == graph.StateSuppressed {
				unresolved++
			}
		}
	}
	c.nodesByKind.Reset()
	for kind, count := range kinds {
		c.nodesByKind.WithLabelValues(string(kind)).Set(float64(count))
	}
	c.pendingLinks.Set(float64(unresolved))

	c.diagnostics.Reset()
	for _, sev := range []graph.Severity{graph.SeverityError, graph.SeverityWarning, graph.SeverityInfo} {
		c.diagnostics.WithLabelValues(string(sev)).Set(float64(len(diags.BySeverity(sev))))
	}
}

// Serve exposes /metrics on addr until ctx is canceled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("telemetry listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
