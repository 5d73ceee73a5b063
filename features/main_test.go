// Package features runs the S5/S6 end-to-end scenarios from spec.md §8 as
// godog BDD features, exercising the full HTTP and watcher stacks against a
// real (temp-file) SQLite database. S1-S4 are covered at the unit level in
// internal/segment and internal/chunk.
package features

import (
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"."},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
