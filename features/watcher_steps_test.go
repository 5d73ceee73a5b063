package features

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cucumber/godog"

	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
	"github.com/ljramones/lore-ingest-go/internal/parsers"
	"github.com/ljramones/lore-ingest-go/internal/store/sqlite"
	"github.com/ljramones/lore-ingest-go/internal/watcher"
)

type watcherWorld struct {
	dir     string
	db      *sqlite.DB
	store   *sqlite.WorkStore
	w       *watcher.Watcher
	cfg     watcher.Config
	cancel  context.CancelFunc
	placed  string
	watched bool
}

func (w *watcherWorld) runningDirectoryWatcherOverFreshInbox(ctx context.Context) error {
	inbox := filepath.Join(w.dir, "inbox")
	success := filepath.Join(w.dir, "success")
	fail := filepath.Join(w.dir, "fail")

	db, err := sqlite.Open(ctx, filepath.Join(w.dir, "lore.db"))
	if err != nil {
		return err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := db.EnsureChunkFTS(ctx); err != nil {
		return err
	}
	w.db = db
	w.store = sqlite.NewWorkStore(db)

	orch := ingest.New(parsers.DefaultRegistry(), w.store)
	ev := events.NewManager(discardLogger())

	w.cfg = watcher.Config{
		Inbox:      inbox,
		SuccessDir: success,
		FailDir:    fail,
		AllowedExt: map[string]struct{}{".txt": {}, ".md": {}, ".pdf": {}, ".docx": {}},
		MaxFileMB:  50,
		Workers:    2,
		MaxQueue:   16,
		StableMs:   50,
		PollEvery:  100 * time.Millisecond,
		Retries:    2,
		BackoffMs:  50,
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.w = watcher.New(w.cfg, orch, ev, discardLogger())
	w.watched = true
	return w.w.Start(runCtx)
}

func (w *watcherWorld) iPlaceAFileWithContentInTheInbox(name, content string) error {
	if err := os.MkdirAll(w.cfg.Inbox, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.cfg.Inbox, name)
	w.placed = name
	return os.WriteFile(path, []byte(content), 0o644)
}

func (w *watcherWorld) iWaitUpToSecondsForItToBeDisposed(seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for time.Now().Before(deadline) {
		entries, err := os.ReadDir(w.cfg.SuccessDir)
		if err == nil && len(entries) > 0 {
			return nil
		}
		entries, err = os.ReadDir(w.cfg.FailDir)
		if err == nil && len(entries) > 0 {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("file was not disposed within %ds", seconds)
}

func (w *watcherWorld) aFileMatchingExistsInTheSuccessDirectory(pattern string) error {
	entries, err := os.ReadDir(w.cfg.SuccessDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			return nil
		}
	}
	return fmt.Errorf("no file matching %q in %s (entries: %v)", pattern, w.cfg.SuccessDir, entries)
}

func (w *watcherWorld) databaseContainsExactlyNWorksWithAtLeastSceneAndChunk(n, minScenes, minChunks int) error {
	ids, err := w.store.WorkIDs(context.Background())
	if err != nil {
		return err
	}
	if len(ids) != n {
		return fmt.Errorf("expected %d works, got %d", n, len(ids))
	}
	sizes, err := w.store.Sizes(context.Background(), ids[0])
	if err != nil {
		return err
	}
	if sizes.Scenes < minScenes {
		return fmt.Errorf("expected >= %d scenes, got %d", minScenes, sizes.Scenes)
	}
	if sizes.Chunks < minChunks {
		return fmt.Errorf("expected >= %d chunks, got %d", minChunks, sizes.Chunks)
	}
	return nil
}

func (w *watcherWorld) theFailDirectoryIsEmpty() error {
	entries, err := os.ReadDir(w.cfg.FailDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected empty fail dir, found %v", entries)
	}
	return nil
}

func registerWatcherSteps(ctx *godog.ScenarioContext, w *watcherWorld) {
	ctx.Step(`^a running directory watcher over a fresh inbox$`, w.runningDirectoryWatcherOverFreshInbox)
	ctx.Step(`^I place a file "([^"]*)" with content "([^"]*)" in the inbox$`, w.iPlaceAFileWithContentInTheInbox)
	ctx.Step(`^I wait up to (\d+) seconds for it to be disposed$`, w.iWaitUpToSecondsForItToBeDisposed)
	ctx.Step(`^a file matching "([^"]*)" exists in the success directory$`, w.aFileMatchingExistsInTheSuccessDirectory)
	ctx.Step(`^the database contains exactly (\d+) works? with at least (\d+) scene and (\d+) chunk$`, w.databaseContainsExactlyNWorksWithAtLeastSceneAndChunk)
	ctx.Step(`^the fail directory is empty$`, w.theFailDirectoryIsEmpty)
}
