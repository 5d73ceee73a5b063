package features

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/httpapi"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
	"github.com/ljramones/lore-ingest-go/internal/parsers"
	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
)

type ingestWorld struct {
	dir       string
	filePath  string
	server    *httptest.Server
	client    *http.Client
	responses []ingestResponse
}

type ingestResponse struct {
	Status      int
	ContentSHA1 string `json:"content_sha1"`
	OK          bool   `json:"ok"`
}

func (w *ingestWorld) runningAPIBackedByFreshDatabase(ctx context.Context) error {
	dbPath := filepath.Join(w.dir, "lore.db")
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := db.EnsureChunkFTS(ctx); err != nil {
		return err
	}

	store := sqlite.NewWorkStore(db)
	orch := ingest.New(parsers.DefaultRegistry(), store)
	ev := events.NewManager(discardLogger())

	cfg := httpapi.DefaultConfig()
	srv := httpapi.New(cfg, discardLogger(), store, orch, parsers.DefaultRegistry(), ev)
	w.server = httptest.NewServer(srv.Handler())
	w.client = w.server.Client()
	return nil
}

func (w *ingestWorld) aTextFileWithContent(name, content string) error {
	w.filePath = filepath.Join(w.dir, name)
	return os.WriteFile(w.filePath, []byte(content), 0o644)
}

func (w *ingestWorld) iPostWithThatFilesPath(string) error {
	return w.postIngest()
}

func (w *ingestWorld) iPostWithThatFilesPathAgain(string) error {
	return w.postIngest()
}

func (w *ingestWorld) postIngest() error {
	body, err := json.Marshal(map[string]string{"path": w.filePath})
	if err != nil {
		return err
	}
	resp, err := w.client.Post(w.server.URL+"/v1/ingest", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var parsed ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	parsed.Status = resp.StatusCode
	w.responses = append(w.responses, parsed)
	return nil
}

func (w *ingestWorld) bothResponsesHaveStatus(status int) error {
	if len(w.responses) != 2 {
		return fmt.Errorf("expected 2 responses, got %d", len(w.responses))
	}
	for i, r := range w.responses {
		if r.Status != status {
			return fmt.Errorf("response %d: expected status %d, got %d", i, status, r.Status)
		}
	}
	return nil
}

func (w *ingestWorld) bothResponsesReportTheSameContentSHA1() error {
	if len(w.responses) != 2 {
		return fmt.Errorf("expected 2 responses, got %d", len(w.responses))
	}
	if w.responses[0].ContentSHA1 == "" {
		return fmt.Errorf("first response has no content_sha1")
	}
	if w.responses[0].ContentSHA1 != w.responses[1].ContentSHA1 {
		return fmt.Errorf("content_sha1 mismatch: %q vs %q", w.responses[0].ContentSHA1, w.responses[1].ContentSHA1)
	}
	return nil
}

func (w *ingestWorld) endpointReportsExactlyNWorks(_ string, n int) error {
	resp, err := w.client.Get(w.server.URL + "/v1/works")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Works []json.RawMessage `json:"works"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if len(payload.Works) != n {
		return fmt.Errorf("expected %d works, got %d", n, len(payload.Works))
	}
	return nil
}

func registerIngestSteps(ctx *godog.ScenarioContext, w *ingestWorld) {
	ctx.Step(`^a running ingest API backed by a fresh database$`, w.runningAPIBackedByFreshDatabase)
	ctx.Step(`^a text file "([^"]*)" with content "([^"]*)"$`, w.aTextFileWithContent)
	ctx.Step(`^I POST "([^"]*)" with that file's path$`, w.iPostWithThatFilesPath)
	ctx.Step(`^I POST "([^"]*)" with that file's path again$`, w.iPostWithThatFilesPathAgain)
	ctx.Step(`^both responses have status (\d+)$`, w.bothResponsesHaveStatus)
	ctx.Step(`^both responses report the same content_sha1$`, w.bothResponsesReportTheSameContentSHA1)
	ctx.Step(`^"([^"]*)" reports exactly (\d+) works?$`, w.endpointReportsExactlyNWorks)
}
