package events

import (
	"context"
	"fmt"
	"os"
)

// StdoutSink writes compact JSON events to stdout, for container log
// collectors to pick up.
type StdoutSink struct{}

func NewStdoutSink() *StdoutSink { return &StdoutSink{} }

func (s *StdoutSink) Name() string { return "stdout" }

func (s *StdoutSink) Emit(_ context.Context, payload map[string]any) error {
	b, err := marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
