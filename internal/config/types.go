package config

// Config is the on-disk configuration (JSON, or YAML by file extension).
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Telegram TelegramConfig `json:"telegram"`
	Preview  PreviewConfig  `json:"preview"`
	Pprof    PprofConfig    `json:"pprof"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls where publication tasks are persisted.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/pubsched.db", "busy_timeout": "2s" }
//
// Driver values: "file", "sqlite", "" / "none" (disabled).
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// LogChatID receives task change notifications (0 disables them).
	LogChatID int64 `json:"log_chat_id,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
	// RatePerSec limits commands handled per chat.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// PreviewConfig tunes live previews of cron expressions.
//
// Defaults (when fields are omitted/zero):
//   - next_runs: 5
type PreviewConfig struct {
	NextRuns int `json:"next_runs,omitempty"`
}

const DefaultPreviewRuns = 5

// PreviewRuns returns the configured number of upcoming runs to show.
func (c *Config) PreviewRuns() int {
	if c == nil || c.Preview.NextRuns <= 0 {
		return DefaultPreviewRuns
	}
	return c.Preview.NextRuns
}

// PprofConfig enables the debug HTTP server (pprof and /healthz) in bot mode.
// Addr defaults to 127.0.0.1:6060; binding elsewhere requires Token.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Token   string `json:"token,omitempty"`
}
