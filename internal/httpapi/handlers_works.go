package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
)

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sqlite.ListWorksFilter{
		Query:  q.Get("q"),
		Author: q.Get("author"),
		Limit:  atoiOr(q.Get("limit"), 50),
		Offset: atoiOr(q.Get("offset"), 0),
	}

	works, err := s.store.ListWorks(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "works": works})
}

func (s *Server) handleWorkIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.WorkIDs(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ids": ids})
}

// handleWorksSummary is the same projection as handleListWorks but without
// query filters, per GET /v1/works/summary.
func (s *Server) handleWorksSummary(w http.ResponseWriter, r *http.Request) {
	works, err := s.store.ListWorks(r.Context(), sqlite.ListWorksFilter{Limit: 1000})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "works": works})
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	work, err := s.store.GetWork(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "work": work})
}

func (s *Server) handleGetScenes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	scenes, err := s.store.GetScenes(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "scenes": scenes})
}

func (s *Server) handleGetChunks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	chunks, err := s.store.GetChunks(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "chunks": chunks})
}

// handleSlice returns norm_text[start:end], answering 416 for bad bounds
// per GET /v1/works/{id}/slice?start&end.
func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()
	start, ok1 := atoi(q.Get("start"))
	end, ok2 := atoi(q.Get("end"))
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "InvalidInput", "start and end must be integers")
		return
	}

	text, err := s.store.Slice(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "text": text})
}

func atoiOr(s string, def int) int {
	if n, ok := atoi(s); ok {
		return n
	}
	return def
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
