package features

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/cucumber/godog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// InitializeScenario wires fresh ingestWorld/watcherWorld instances for each
// scenario, so S5 and S6 never share state or a temp directory.
func InitializeScenario(sc *godog.ScenarioContext) {
	iw := &ingestWorld{}
	ww := &watcherWorld{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "lore-ingest-bdd-*")
		if err != nil {
			return ctx, err
		}
		iw.dir = dir
		ww.dir = dir
		return ctx, nil
	})

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if iw.server != nil {
			iw.server.Close()
		}
		if ww.w != nil {
			ww.w.Stop()
		}
		if ww.cancel != nil {
			ww.cancel()
		}
		if ww.db != nil {
			ww.db.Close()
		}
		dir := iw.dir
		if dir == "" {
			dir = ww.dir
		}
		if dir != "" {
			os.RemoveAll(dir)
		}
		return ctx, nil
	})

	registerIngestSteps(sc, iw)
	registerWatcherSteps(sc, ww)
}
