package metrics

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushIngest and PushResegment mirror push_ingest/push_resegment: a
// best-effort, swallow-all-errors push of the relevant counter/histogram
// pair to a Pushgateway, configured entirely from env vars. A push that
// fails or that has no PUSHGATEWAY_URL configured is a silent no-op, by
// design of the source.
func PushIngest(outcome string, durationSeconds float64) {
	pushPair(IngestTotal.WithLabelValues(outcome), IngestDuration.WithLabelValues(outcome), durationSeconds, "lore_ingest")
}

func PushResegment(outcome string, durationSeconds float64) {
	pushPair(ResegmentTotal.WithLabelValues(outcome), ResegmentDuration.WithLabelValues(outcome), durationSeconds, "lore_resegment")
}

func pushPair(counter prometheus.Counter, hist prometheus.Observer, durationSeconds float64, defaultJob string) {
	url := strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL"))
	if url == "" {
		return
	}
	if durationSeconds >= 0 {
		hist.Observe(durationSeconds)
	}
	safePush(url, defaultJob, counter.(prometheus.Collector), hist.(prometheus.Collector))
}

func safePush(url, defaultJob string, collectors ...prometheus.Collector) {
	defer func() { _ = recover() }()

	job := getenv("PUSHGATEWAY_JOB", defaultJob)
	instance := os.Getenv("PUSHGATEWAY_INSTANCE")
	mode := strings.ToLower(getenv("PUSHGATEWAY_MODE", "push"))
	timeout := getenvDuration("PUSHGATEWAY_TIMEOUT", 3*time.Second)

	pusher := push.New(url, job)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	for _, c := range collectors {
		pusher = pusher.Collector(c)
	}
	pusher = pusher.Client(&http.Client{Timeout: timeout})

	var err error
	if mode == "pushadd" {
		err = pusher.Add()
	} else {
		err = pusher.Push()
	}
	_ = err // best-effort: never surfaced to the caller
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}
