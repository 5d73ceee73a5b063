// Package watcher polls an inbox directory, stability-checks and
// dedups candidate files, and runs them through the ingest orchestrator on a
// bounded-queue worker pool with retry/backoff and atomic
// success/fail disposition.
//
// Grounded on service/watcher.py's run_watcher, with the worker-pool
// start/stop shape taken from internal/worker/worker.go. Per spec.md §4.8's
// resolution, fsnotify is wired only as an optional poll-wake signal that
// never changes the poll loop's authority over discovery and stability.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ljramones/lore-ingest-go/internal/events"
	"github.com/ljramones/lore-ingest-go/internal/ingest"
)

// workItem is a single queued candidate file, carrying its 0-based retry
// attempt count.
type workItem struct {
	path    string
	attempt int
}

// Watcher is the dispatcher + worker pool over a single inbox directory.
type Watcher struct {
	cfg  Config
	orch *ingest.Orchestrator
	ev   *events.Manager
	log  *slog.Logger

	queue chan workItem

	mu      sync.Mutex
	seen    map[string]struct{}
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(cfg Config, orch *ingest.Orchestrator, ev *events.Manager, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		cfg:   cfg,
		orch:  orch,
		ev:    ev,
		log:   log,
		queue: make(chan workItem, cfg.MaxQueue),
		seen:  make(map[string]struct{}),
	}
}

// Start creates the inbox/success/fail directories, launches the worker
// pool, and begins the poll-driven dispatch loop. It returns immediately;
// call Stop to shut down gracefully.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	for _, dir := range []string{w.cfg.Inbox, w.cfg.SuccessDir, w.cfg.FailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	w.log.Info("watcher starting",
		"inbox", w.cfg.Inbox, "recursive", w.cfg.Recursive,
		"success_dir", w.cfg.SuccessDir, "fail_dir", w.cfg.FailDir,
		"profile", w.cfg.Profile, "workers", w.cfg.Workers, "queue", w.cfg.MaxQueue,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.workerLoop(ctx, id)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	go w.dispatchLoop(ctx)

	return nil
}

// Stop signals the dispatch and worker loops to exit and blocks until they
// have drained.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.log.Info("watcher stopped")
}

// dispatchLoop scans the inbox on every poll tick, optionally woken early by
// an fsnotify event. fsnotify is best-effort: if the watch cannot be
// established, the loop falls back to pure polling silently.
func (w *Watcher) dispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollEvery)
	defer ticker.Stop()

	wake := w.watchFSNotify(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		case <-wake:
			w.scan()
		}
	}
}

// watchFSNotify establishes an optional early-wake channel. A nil/failed
// fsnotify.Watcher yields a channel that never fires; the poll ticker alone
// then drives discovery.
func (w *Watcher) watchFSNotify(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Debug("fsnotify unavailable, falling back to pure polling", "error", err)
		return wake
	}
	if err := fsw.Add(w.cfg.Inbox); err != nil {
		w.log.Debug("fsnotify could not watch inbox, falling back to pure polling", "error", err)
		fsw.Close()
		return wake
	}

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case _, ok := <-fsw.Events:
				if !ok {
					return
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return wake
}

func (w *Watcher) scan() {
	var paths []string
	if w.cfg.Recursive {
		_ = filepath.Walk(w.cfg.Inbox, func(path string, info os.FileInfo, err error) error {
			if err != nil || info == nil || info.IsDir() {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
	} else {
		entries, err := os.ReadDir(w.cfg.Inbox)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDir() {
				paths = append(paths, filepath.Join(w.cfg.Inbox, e.Name()))
			}
		}
	}

	for _, p := range paths {
		w.enqueueCandidate(p)
	}
}

// enqueueCandidate applies the ignorable-name filter, extension/size
// prechecks, a stability re-stat, and bounded-queue backpressure, mirroring
// enqueue_candidate.
func (w *Watcher) enqueueCandidate(path string) {
	name := filepath.Base(path)
	if isIgnorable(name) {
		return
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := w.cfg.AllowedExt[ext]; !ok {
		reason := fmt.Sprintf("Unsupported extension: %s", ext)
		w.disposeFail(path, reason, "precheck")
		if w.ev != nil {
			w.ev.EmitAsync(events.BuildFailedEvent(path, "", "", reason, "precheck", w.cfg.Profile))
		}
		return
	}

	info1, err := os.Stat(path)
	if err != nil {
		return
	}
	size1 := info1.Size()
	key := fmt.Sprintf("%s:%d", path, info1.ModTime().UnixNano())

	w.mu.Lock()
	_, already := w.seen[key]
	w.mu.Unlock()
	if already {
		return
	}

	maxBytes := int64(w.cfg.MaxFileMB) * 1024 * 1024
	if size1 > maxBytes {
		reason := fmt.Sprintf("File too large (> %d MB)", w.cfg.MaxFileMB)
		w.disposeFail(path, reason, "precheck")
		if w.ev != nil {
			w.ev.EmitAsync(events.BuildFailedEvent(path, "", "", reason, "precheck", w.cfg.Profile))
		}
		return
	}

	if w.cfg.StableMs > 0 {
		time.Sleep(time.Duration(w.cfg.StableMs) * time.Millisecond)
		info2, err := os.Stat(path)
		if err != nil {
			return
		}
		if info2.Size() != size1 {
			return
		}
	}

	select {
	case w.queue <- workItem{path: path}:
		w.mu.Lock()
		w.seen[key] = struct{}{}
		w.mu.Unlock()
	default:
		// Backpressure: drop for now, the next scan tries again.
	}
}

func (w *Watcher) workerLoop(ctx context.Context, id int) {
	log := w.log.With("worker_id", id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case item := <-w.queue:
			w.processItem(ctx, item, log)
		}
	}
}

func (w *Watcher) processItem(ctx context.Context, item workItem, log *slog.Logger) {
	path := item.path
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	res, err := w.orch.IngestFile(ctx, ingest.Options{
		Path:      path,
		Profile:   w.cfg.Profile,
		RunParams: map[string]any{"invoked_by": "watcher"},
	})
	if err != nil {
		w.retryOrFail(item, err, log)
		return
	}

	dst, moveErr := uniqueMove(w.cfg.SuccessDir, path, res.WorkID+"__")
	if moveErr != nil {
		log.Warn("ingested but failed to move to success dir", "path", path, "error", moveErr)
		dst = path
	}
	log.Info("ingested", "work_id", res.WorkID, "moved_to", dst)

	if w.ev != nil {
		w.ev.EmitAsync(events.BuildIngestedEvent(
			res.WorkID, path, "", "", res.ContentSHA1, w.cfg.Profile, "",
			map[string]int{"chars": res.Sizes.Chars, "scenes": res.Sizes.Scenes, "chunks": res.Sizes.Chunks},
		))
	}
}

// retryOrFail re-enqueues with exponential backoff + jitter up to
// cfg.Retries attempts, then disposes the file to the fail directory.
// Mirrors worker_loop's except-block.
func (w *Watcher) retryOrFail(item workItem, cause error, log *slog.Logger) {
	if item.attempt < w.cfg.Retries {
		backoff := time.Duration(w.cfg.BackoffMs) * time.Millisecond * (1 << item.attempt)
		jitter := 0.8 + 0.4*rand.Float64()
		backoff = time.Duration(float64(backoff) * jitter)
		log.Info("retrying after backoff", "attempt", item.attempt+1, "backoff", backoff, "path", item.path, "error", cause)
		time.Sleep(backoff)
		select {
		case w.queue <- workItem{path: item.path, attempt: item.attempt + 1}:
		default:
			// Queue saturated: drop, file stays in inbox for the next scan.
			if info, err := os.Stat(item.path); err == nil {
				w.mu.Lock()
				delete(w.seen, fmt.Sprintf("%s:%d", item.path, info.ModTime().UnixNano()))
				w.mu.Unlock()
			}
		}
		return
	}

	reason := cause.Error()
	failed, err := w.disposeFail(item.path, reason, "ingest")
	if err != nil {
		log.Error("failed to move to fail dir", "path", item.path, "error", err)
	} else {
		log.Warn("ingest failed, moved to fail dir", "path", item.path, "moved_to", failed, "reason", reason)
	}
	if w.ev != nil {
		w.ev.EmitAsync(events.BuildFailedEvent(item.path, "", "", reason, "ingest", w.cfg.Profile))
	}
}

func isIgnorable(name string) bool {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "."), strings.HasPrefix(n, "._"):
		return true
	case strings.HasPrefix(n, "~$"), strings.HasPrefix(n, ".~lock"):
		return true
	case strings.HasSuffix(n, ".tmp"), strings.HasSuffix(n, ".crdownload"), strings.HasSuffix(n, ".partial"):
		return true
	}
	return false
}
