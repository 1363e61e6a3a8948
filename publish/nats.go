// Package publish pushes graph entities to NATS so downstream consumers
// (dashboards, knowledge graphs) can ingest the traceability model
// without reading source trees themselves.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/tracegraph/graph"
)

// NodeMessage is the wire format for one published node.
type NodeMessage struct {
	Node      *graph.Node          `json:"node"`
	Metrics   *graph.RollupMetrics `json:"metrics,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// EdgeMessage is the wire format for one published edge.
type EdgeMessage struct {
	Edge      *graph.Edge `json:"edge"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Publisher publishes graph entities to NATS subjects under a prefix:
// <prefix>.node.<kind> and <prefix>.edge.<kind>.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server and returns a ready publisher.
func Connect(url, prefix string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("tracegraph-publisher"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// PublishGraph publishes every node (with its metrics, when annotated)
// and every resolved edge. Broken and suppressed edges stay local; they
// are findings, not facts.
func (p *Publisher) PublishGraph(ctx context.Context, g *graph.Graph) error {
	now := time.Now()
	nodes, edges := 0, 0

	for n := range g.Nodes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := NodeMessage{Node: n, Metrics: g.Metrics(n.ID), UpdatedAt: now}
		if err := p.publishJSON(fmt.Sprintf("%s.node.%s", p.prefix, n.Kind), msg); err != nil {
			return fmt.Errorf("failed to publish node %s: %w", n.ID, err)
		}
		nodes++

		for e := range g.Outgoing(n.ID) {
			if e.Kind == graph.EdgeContains || e.State != graph.StateResolved {
				continue
			}
			msg := EdgeMessage{Edge: e, UpdatedAt: now}
			if err := p.publishJSON(fmt.Sprintf("%s.edge.%s", p.prefix, e.Kind), msg); err != nil {
				return fmt.Errorf("failed to publish edge %s -> %s: %w", e.Source, e.Target, err)
			}
			edges++
		}
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush publications: %w", err)
	}
	p.logger.Info("graph published",
		slog.Int("nodes", nodes),
		slog.Int("edges", edges),
		slog.String("prefix", p.prefix))
	return nil
}

func (p *Publisher) publishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains the connection, delivering anything still buffered.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
