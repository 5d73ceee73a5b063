package events

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// HttpSink POSTs each event as JSON to a fixed URL, best-effort.
type HttpSink struct {
	url    string
	client *http.Client
}

func NewHTTPSink(url string, timeout time.Duration) *HttpSink {
	return &HttpSink{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HttpSink) Name() string { return "http" }

func (s *HttpSink) Emit(ctx context.Context, payload map[string]any) error {
	b, err := marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
