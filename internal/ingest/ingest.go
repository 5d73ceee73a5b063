// Package ingest is the orchestrator: it wires parse -> normalize -> segment
// -> chunk -> persist behind a single entry point, and the resegment path
// that recomputes scenes/chunks for an already-persisted work.
//
// Grounded on lore_ingest/api.py's ingest_file.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ljramones/lore-ingest-go/internal/chunk"
	"github.com/ljramones/lore-ingest-go/internal/domain"
	"github.com/ljramones/lore-ingest-go/internal/normalize"
	"github.com/ljramones/lore-ingest-go/internal/parsers"
	"github.com/ljramones/lore-ingest-go/internal/profiles"
	"github.com/ljramones/lore-ingest-go/internal/segment"
	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
)

// Result is what a successful ingest (or an idempotency hit) reports back.
type Result struct {
	WorkID      string
	ContentSHA1 string
	Sizes       domain.Sizes
}

// Options parameterizes a single ingest call. Window/Stride of 0 defer to
// the profile's own chunk rules.
type Options struct {
	Path      string
	Title     string
	Author    string
	Profile   string
	Window    int
	Stride    int
	RunParams map[string]any
}

// PostIngestHook is invoked after a successful ingest that created a new
// work (not on an idempotency hit). The default NoopHook does nothing;
// callers that want e.g. embedding pipeline kickoff can supply their own.
// A hook's error is discarded and never fails the ingest.
type PostIngestHook interface {
	OnIngestSuccess(ctx context.Context, workID, contentSHA1, profile string) error
}

type NoopHook struct{}

func (NoopHook) OnIngestSuccess(context.Context, string, string, string) error { return nil }

// Orchestrator wires the registry, store, and post-ingest hook.
type Orchestrator struct {
	Parsers *parsers.Registry
	Store   *sqlite.WorkStore
	Hook    PostIngestHook
}

func New(reg *parsers.Registry, store *sqlite.WorkStore) *Orchestrator {
	return &Orchestrator{Parsers: reg, Store: store, Hook: NoopHook{}}
}

// IngestFile parses, normalizes, segments, chunks, and persists a single
// file, short-circuiting on a content_sha1 match against a prior ingest.
func (o *Orchestrator) IngestFile(ctx context.Context, opts Options) (Result, error) {
	pr, err := o.Parsers.Parse(opts.Path)
	if err != nil {
		return Result{}, err
	}

	contentSHA1 := sha1Hex(pr.Raw)

	if existing, err := o.Store.FindExistingWorkByDigest(ctx, contentSHA1); err != nil {
		return Result{}, domain.NewIngestError(domain.KindPersistenceError, domain.StagePersist,
			"looking up existing work", err)
	} else if existing != "" {
		sizes, err := o.Store.Sizes(ctx, existing)
		if err != nil {
			return Result{}, domain.NewIngestError(domain.KindPersistenceError, domain.StagePersist,
				"computing sizes for existing work", err)
		}
		return Result{WorkID: existing, ContentSHA1: contentSHA1, Sizes: sizes}, nil
	}

	norm := normalize.Text(pr.Text)
	profile := profiles.Get(opts.Profile)
	scenes := segment.Scenes(norm, profile)
	chunks := chunk.Make(scenes, opts.Window, opts.Stride, profile)

	runMeta := map[string]any{
		"profile":    profileNameOrDefault(opts.Profile),
		"source_ext": strings.ToLower(filepath.Ext(opts.Path)),
	}
	if v, ok := pr.Meta["parser"]; ok {
		runMeta["parser"] = v
	}
	if v, ok := pr.Meta["encoding"]; ok {
		runMeta["encoding"] = v
	}
	for k, v := range opts.RunParams {
		runMeta[k] = v
	}
	runParamsJSON, err := json.Marshal(runMeta)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling run params: %w", err)
	}

	source := filepath.Base(opts.Path)
	workID, err := o.Store.PersistWorkAndChildren(ctx,
		opts.Title, opts.Author, source, "",
		pr.Raw, norm, scenes, chunks, contentSHA1, string(runParamsJSON))
	if err != nil {
		return Result{}, domain.NewIngestError(domain.KindPersistenceError, domain.StagePersist,
			"persisting work", err)
	}

	if o.Hook != nil {
		_ = o.Hook.OnIngestSuccess(ctx, workID, contentSHA1, profileNameOrDefault(opts.Profile))
	}

	return Result{
		WorkID:      workID,
		ContentSHA1: contentSHA1,
		Sizes: domain.Sizes{
			Chars:  len([]rune(norm)),
			Scenes: len(scenes),
			Chunks: len(chunks),
		},
	}, nil
}

// ResegmentWork recomputes scenes and chunks for an already-persisted work
// under a (possibly new) profile/window/stride, replacing its scene/chunk
// rows. The work row (raw_text, norm_text) is untouched.
func (o *Orchestrator) ResegmentWork(ctx context.Context, workID, profileName string, window, stride int) (domain.Sizes, error) {
	normText, ok, err := o.Store.GetNormText(ctx, workID)
	if err != nil {
		return domain.Sizes{}, domain.NewIngestError(domain.KindPersistenceError, domain.StageResegment,
			"reading norm_text", err)
	}
	if !ok {
		return domain.Sizes{}, domain.ErrNotFound
	}

	profile := profiles.Get(profileName)
	scenes := segment.Scenes(normText, profile)
	chunks := chunk.Make(scenes, window, stride, profile)

	if err := o.Store.ResegmentChildren(ctx, workID, scenes, chunks, normText); err != nil {
		return domain.Sizes{}, domain.NewIngestError(domain.KindPersistenceError, domain.StageResegment,
			"rewriting scenes/chunks", err)
	}

	return domain.Sizes{
		Chars:  len([]rune(normText)),
		Scenes: len(scenes),
		Chunks: len(chunks),
	}, nil
}

func sha1Hex(raw []byte) string {
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}

func profileNameOrDefault(name string) string {
	if name == "" {
		return "default"
	}
	return strings.ToLower(name)
}
