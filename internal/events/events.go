// Package events implements the pluggable event emitter: each emit fans a
// payload out to every configured sink, one goroutine per sink, without
// blocking the caller. Sink failures are logged and never propagate.
//
// Grounded on lore_ingest/events.py. Per spec.md §9's redesign note, the
// NATS sink holds a single long-lived connection instead of the source's
// connect-publish-drain-per-event pattern.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Sink delivers a single event payload. Emit must not block for long; it
// returns its error to Manager, which logs it and never retries.
type Sink interface {
	Name() string
	Emit(ctx context.Context, payload map[string]any) error
}

// Manager fans an event out to every configured sink on its own goroutine.
type Manager struct {
	sinks []Sink
	log   *slog.Logger
}

// NewManager wraps a fixed sink set.
func NewManager(log *slog.Logger, sinks ...Sink) *Manager {
	return &Manager{sinks: sinks, log: log}
}

// SinkNames reports the configured sink names, for a debug/status endpoint.
func (m *Manager) SinkNames() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}

// EmitAsync fans payload out to every sink on its own goroutine, returning
// immediately. Mirrors emit_async's fire-and-forget semantics.
func (m *Manager) EmitAsync(payload map[string]any) {
	if len(m.sinks) == 0 {
		return
	}
	for _, s := range m.sinks {
		go func(s Sink) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Emit(ctx, payload); err != nil {
				m.log.Warn("event sink failed", "sink", s.Name(), "error", err)
			}
		}(s)
	}
}

// UTCNowISO formats now in the same second-resolution UTC form as the
// source's utc_now_iso.
func UTCNowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// BuildIngestedEvent constructs the document.ingested payload.
func BuildIngestedEvent(workID, path, title, author, contentSHA1, profile, runID string, sizes map[string]int) map[string]any {
	payload := map[string]any{
		"type":         "document.ingested",
		"work_id":      workID,
		"path":         path,
		"title":        emptyToNil(title),
		"author":       emptyToNil(author),
		"content_sha1": emptyToNil(contentSHA1),
		"sizes":        sizes,
		"profile":      emptyToNil(profile),
		"created_at":   UTCNowISO(),
	}
	if runID != "" {
		payload["run_id"] = runID
	}
	return payload
}

// BuildFailedEvent constructs the document.failed payload.
func BuildFailedEvent(path, title, author, reason, stage, profile string) map[string]any {
	return map[string]any{
		"type":       "document.failed",
		"path":       path,
		"title":      emptyToNil(title),
		"author":     emptyToNil(author),
		"reason":     reason,
		"stage":      stage,
		"profile":    emptyToNil(profile),
		"created_at": UTCNowISO(),
	}
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SinksFromEnv builds the configured sink set from EMIT_SINK and its
// per-sink env vars, mirroring get_sinks_from_env.
func SinksFromEnv(log *slog.Logger) []Sink {
	raw := strings.TrimSpace(getenv("EMIT_SINK", "stdout"))
	if raw == "" || raw == "none" || raw == "off" || raw == "false" {
		return nil
	}

	var sinks []Sink
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "stdout":
			sinks = append(sinks, NewStdoutSink())
		case "http":
			if url := strings.TrimSpace(os.Getenv("EMIT_HTTP_URL")); url != "" {
				sinks = append(sinks, NewHTTPSink(url, 5*time.Second))
			}
		case "redis":
			url := getenv("EMIT_REDIS_URL", "redis://redis:6379/0")
			list := getenv("EMIT_REDIS_LIST", "ingest_events")
			sink, err := NewRedisSink(url, list)
			if err != nil {
				log.Warn("skipping redis event sink", "error", err)
				continue
			}
			sinks = append(sinks, sink)
		case "nats":
			url := getenv("EMIT_NATS_URL", "nats://nats:4222")
			subject := getenv("EMIT_NATS_SUBJECT", "ingest.events")
			sink, err := NewNatsSink(url, subject)
			if err != nil {
				log.Warn("skipping nats event sink", "error", err)
				continue
			}
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func marshal(payload map[string]any) ([]byte, error) {
	return json.Marshal(payload)
}
