package httpapi

import (
	"net/http"
	"time"

	"github.com/ljramones/lore-ingest-go/internal/metrics"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "InvalidInput", "q is required")
		return
	}

	start := time.Now()
	hits, err := s.store.Search(r.Context(), query, q.Get("work_id"), atoiOr(q.Get("limit"), 20))
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	metrics.SearchTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "hits": hits})
}
