package watcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// uniqueMove moves src into dstDir, appending "-1", "-2", ... to the stem if
// a same-named file already exists. prefix is prepended to the base name
// (e.g. a work id). Mirrors _unique_move.
func uniqueMove(dstDir, src, prefix string) (string, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}

	base := prefix + filepath.Base(src)
	target := filepath.Join(dstDir, base)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := os.Rename(src, target); err != nil {
			return "", err
		}
		return target, nil
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		alt := filepath.Join(dstDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(alt); os.IsNotExist(err) {
			if err := os.Rename(src, alt); err != nil {
				return "", err
			}
			return alt, nil
		}
	}
}

// disposeFail moves src into the fail directory (timestamp-prefixed) and
// writes a sidecar .err.json describing the failure. Mirrors
// _write_fail_err.
func (w *Watcher) disposeFail(src, reason, stage string) (string, error) {
	prefix := fmt.Sprintf("%d__", time.Now().Unix())
	moved, err := uniqueMove(w.cfg.FailDir, src, prefix)
	if err != nil {
		return "", err
	}

	sidecar := moved + ".err.json"
	body, _ := json.MarshalIndent(map[string]string{
		"message":    reason,
		"stage":      stage,
		"created_at": time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}, "", "  ")
	if err := os.WriteFile(sidecar, body, 0o644); err != nil {
		return moved, err
	}
	return moved, nil
}
