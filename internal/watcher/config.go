package watcher

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the directory watcher's tunables. Grounded on
// service/watcher.py's WatcherConfig/load_config_from_env.
type Config struct {
	Inbox      string
	SuccessDir string
	FailDir    string
	DBPath     string
	AllowedExt map[string]struct{}
	MaxFileMB  int
	Profile    string
	Workers    int
	MaxQueue   int
	StableMs   int
	PollEvery  time.Duration
	Retries    int
	BackoffMs  int
	Recursive  bool
}

// LoadConfigFromEnv mirrors load_config_from_env's env var table.
func LoadConfigFromEnv() Config {
	allowed := map[string]struct{}{}
	for _, e := range strings.Split(getenv("ALLOWED_EXT", ".txt,.md,.pdf,.docx"), ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}

	return Config{
		Inbox:      getenv("INBOX", "./inbox"),
		SuccessDir: getenv("SUCCESS_DIR", "./success"),
		FailDir:    getenv("FAIL_DIR", "./fail"),
		DBPath:     getenv("DB_PATH", "./tropes.db"),
		AllowedExt: allowed,
		MaxFileMB:  getenvInt("MAX_FILE_MB", 20),
		Profile:    os.Getenv("INGEST_PROFILE"),
		Workers:    max(1, getenvInt("WATCH_WORKERS", 2)),
		MaxQueue:   max(1, getenvInt("WATCH_MAX_QUEUE", 100)),
		StableMs:   maxInt0(getenvInt("WATCH_STABLE_MS", 750)),
		PollEvery:  time.Duration(getenvFloatMs("WATCH_POLL_SECONDS", 1.0)) * time.Millisecond,
		Retries:    maxInt0(getenvInt("WATCH_RETRIES", 2)),
		BackoffMs:  max(1, getenvInt("WATCH_BACKOFF_BASE_MS", 250)),
		Recursive:  getenvBool("WATCH_RECURSIVE", false),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvFloatMs(key string, defSeconds float64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	seconds := defSeconds
	if v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			seconds = f
		}
	}
	return int64(seconds * 1000)
}

func getenvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt0(a int) int {
	if a < 0 {
		return 0
	}
	return a
}
