package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsSink publishes each event's JSON encoding to a fixed subject over a
// single long-lived connection. Per spec.md §9's redesign note, this
// replaces the source's connect/publish/drain-per-event NatsSink with one
// connection shared across every Emit call.
type NatsSink struct {
	conn    *nats.Conn
	subject string
}

func NewNatsSink(url, subject string) (*NatsSink, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NatsSink{conn: conn, subject: subject}, nil
}

func (s *NatsSink) Name() string { return "nats" }

func (s *NatsSink) Emit(_ context.Context, payload map[string]any) error {
	b, err := marshal(payload)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.subject, b)
}

// Close drains and closes the underlying connection, for clean shutdown.
func (s *NatsSink) Close() error {
	return s.conn.Drain()
}
