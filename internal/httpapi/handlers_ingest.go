package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ljramones/lore-ingest-go/internal/domain"
	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
	"github.com/ljramones/lore-ingest-go/internal/metrics"
)

type ingestJSONBody struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Profile string `json:"profile"`
}

// handleIngest accepts either a JSON body ({"path": "..."}) or a multipart
// form carrying a "file" upload or a "path" field, mirroring http_app.py's
// content-type dispatch with a final JSON-without-header fallback. Every
// path records ingest_total/ingest_duration_seconds and a best-effort
// Pushgateway push; a document.ingested/document.failed event is emitted
// only once the orchestrator has run, not for a rejected request body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ct := r.Header.Get("Content-Type")

	switch {
	case hasMediaType(ct, "application/json"):
		var body ingestJSONBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
			s.recordIngestOutcome("fail", start)
			writeError(w, http.StatusBadRequest, "InvalidInput", "JSON requires 'path'")
			return
		}
		s.doIngestPath(w, r, body.Path, body.Title, body.Author, body.Profile, "ingest-json", start)

	case hasMediaType(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			s.recordIngestOutcome("fail", start)
			writeError(w, http.StatusBadRequest, "InvalidInput", "invalid multipart body")
			return
		}
		title := r.FormValue("title")
		author := r.FormValue("author")
		profile := r.FormValue("profile")

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			s.doIngestUpload(w, r, file, header, title, author, profile, start)
			return
		}

		path := r.FormValue("path")
		if path == "" {
			s.recordIngestOutcome("fail", start)
			writeError(w, http.StatusBadRequest, "InvalidInput", "provide file=@... or form field 'path'")
			return
		}
		s.doIngestPath(w, r, path, title, author, profile, "ingest-formpath", start)

	default:
		// Last attempt: a JSON body sent without a matching Content-Type header.
		var body ingestJSONBody
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			s.doIngestPath(w, r, body.Path, body.Title, body.Author, body.Profile, "ingest-json", start)
			return
		}
		s.recordIngestOutcome("fail", start)
		writeError(w, http.StatusUnsupportedMediaType, "UnsupportedMediaType",
			"use application/json or multipart/form-data")
	}
}

func (s *Server) doIngestUpload(w http.ResponseWriter, r *http.Request, file multipart.File, header *multipart.FileHeader, title, author, profile string, start time.Time) {
	tmp, err := os.CreateTemp("", "ingest-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		s.recordIngestOutcome("fail", start)
		writeError(w, http.StatusInternalServerError, "InternalError", "creating temp file")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.recordIngestOutcome("fail", start)
		writeError(w, http.StatusInternalServerError, "InternalError", "buffering upload")
		return
	}
	tmp.Close()

	src := "multipart:" + header.Filename
	res, err := s.orch.IngestFile(r.Context(), ingest.Options{
		Path: tmpPath, Title: title, Author: author, Profile: profile,
	})
	s.finishIngest(w, r, res, err, src, title, author, profile, "ingest-multipart", start)
}

func (s *Server) doIngestPath(w http.ResponseWriter, r *http.Request, path, title, author, profile, stage string, start time.Time) {
	res, err := s.orch.IngestFile(r.Context(), ingest.Options{
		Path: path, Title: title, Author: author, Profile: profile,
	})
	s.finishIngest(w, r, res, err, path, title, author, profile, stage, start)
}

func (s *Server) finishIngest(w http.ResponseWriter, r *http.Request, res ingest.Result, err error, src, title, author, profile, stage string, start time.Time) {
	if err != nil {
		s.recordIngestOutcome("fail", start)
		if s.events != nil {
			s.events.EmitAsync(events.BuildFailedEvent(src, title, author, err.Error(), stage, profile))
		}
		writeDomainError(w, err)
		return
	}

	s.recordIngestOutcome("ok", start)
	if s.events != nil {
		s.events.EmitAsync(events.BuildIngestedEvent(res.WorkID, src, title, author, res.ContentSHA1, profile, "",
			map[string]int{"chars": res.Sizes.Chars, "scenes": res.Sizes.Scenes, "chunks": res.Sizes.Chunks}))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":           true,
		"work_id":      res.WorkID,
		"content_sha1": res.ContentSHA1,
		"sizes":        res.Sizes,
	})
}

func (s *Server) recordIngestOutcome(outcome string, start time.Time) {
	d := time.Since(start).Seconds()
	metrics.IngestTotal.WithLabelValues(outcome).Inc()
	metrics.IngestDuration.WithLabelValues(outcome).Observe(d)
	metrics.PushIngest(outcome, d)
}

type resegmentBody struct {
	Profile     string `json:"profile"`
	WindowChars int    `json:"window_chars"`
	StrideChars int    `json:"stride_chars"`
}

// handleResegment recomputes scenes/chunks for an existing work under a
// (possibly new) profile/window/stride, per POST /v1/works/{id}/resegment.
func (s *Server) handleResegment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	start := time.Now()

	var body resegmentBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "InvalidInput", "invalid JSON body")
			return
		}
	}
	if body.WindowChars == 0 {
		body.WindowChars = 512
	}
	if body.StrideChars == 0 {
		body.StrideChars = 384
	}

	work, err := s.store.GetWork(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sizes, err := s.orch.ResegmentWork(r.Context(), id, body.Profile, body.WindowChars, body.StrideChars)
	src := work.Source
	if src == "" {
		src = "resegment:" + id
	}

	if err != nil {
		d := time.Since(start).Seconds()
		metrics.ResegmentTotal.WithLabelValues("fail").Inc()
		metrics.ResegmentDuration.WithLabelValues("fail").Observe(d)
		metrics.PushResegment("fail", d)
		if s.events != nil {
			s.events.EmitAsync(events.BuildFailedEvent(src, work.Title, work.Author, err.Error(), "resegment", body.Profile))
		}
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NotFound", "work not found")
			return
		}
		writeDomainError(w, err)
		return
	}

	d := time.Since(start).Seconds()
	metrics.ResegmentTotal.WithLabelValues("ok").Inc()
	metrics.ResegmentDuration.WithLabelValues("ok").Observe(d)
	metrics.PushResegment("ok", d)
	if s.events != nil {
		s.events.EmitAsync(events.BuildIngestedEvent(id, src, work.Title, work.Author, work.ContentSHA1, body.Profile, "", map[string]int{
			"chars": sizes.Chars, "scenes": sizes.Scenes, "chunks": sizes.Chunks,
		}))
	}

	profile := body.Profile
	if profile == "" {
		profile = "default"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "work_id": id, "sizes": sizes, "profile": profile,
	})
}

// hasMediaType reports whether contentType's media type (ignoring
// parameters like charset/boundary) matches want.
func hasMediaType(contentType, want string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(contentType), want)
	}
	return mt == want
}
