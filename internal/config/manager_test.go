package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{
		"logging": {"level": "debug", "console": true},
		"storage": {"driver": "file", "path": "./tasks"},
		"telegram": {"token": "x", "owner_user_ids": [42], "poll_timeout": "15s"},
		"preview": {"next_runs": 3}
	}`)

	cfg, err := NewConfigManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Storage.Driver != "file" || cfg.PreviewRuns() != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Telegram.OwnerUserIDs) != 1 || cfg.Telegram.OwnerUserIDs[0] != 42 {
		t.Fatalf("owner ids = %v", cfg.Telegram.OwnerUserIDs)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "logging:\n  level: warn\nstorage:\n  driver: sqlite\n  path: ./db.sqlite\n  busy_timeout: 2s\n")

	cfg, err := NewConfigManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.PreviewRuns() != DefaultPreviewRuns {
		t.Fatalf("PreviewRuns default = %d", cfg.PreviewRuns())
	}
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"logging": {"level": "info"}, "scheduler": {}}`},
		{name: "trailing data", body: `{"logging": {}} {"logging": {}}`},
		{name: "bad duration", body: `{"telegram": {"poll_timeout": "soon"}}`},
		{name: "bad driver", body: `{"storage": {"driver": "mongo"}}`},
		{name: "negative preview", body: `{"preview": {"next_runs": -1}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.json")
			writeFile(t, path, tt.body)
			if _, err := NewConfigManager(path).Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Logging: LoggingConfig{Level: "info"}}
	newCfg := &Config{Logging: LoggingConfig{Level: "debug"}, Preview: PreviewConfig{NextRuns: 8}}
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if len(changed) != 2 || changed[0] != "logging" || changed[1] != "preview" {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}
	if changed, _ := SummarizeConfigChange(newCfg, newCfg); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestWatchPublishesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"preview": {"next_runs": 2}}`)

	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, path, `{"preview": {"next_runs": 9}}`)

	select {
	case cfg := <-ch:
		if cfg.PreviewRuns() != 9 {
			t.Fatalf("PreviewRuns = %d, want 9", cfg.PreviewRuns())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if got := m.Get().PreviewRuns(); got != 9 {
		t.Fatalf("Get().PreviewRuns = %d", got)
	}

	cancel()
	<-done
}

func TestParseDurations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		def     time.Duration
		want    time.Duration
		wantErr bool
	}{
		{raw: "", def: time.Second, want: time.Second},
		{raw: " 0s ", def: time.Second, want: time.Second},
		{raw: "250ms", def: time.Second, want: 250 * time.Millisecond},
		{raw: "-1s", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDurationOrDefault("x.timeout", tt.raw, tt.def)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseDurationOrDefault(%q) = %v, %v", tt.raw, got, err)
		}
	}
}

func TestEmptyYAMLIsEmptyConfig(t *testing.T) {
	t.Parallel()
	cfg, err := decode("config.yml", []byte("# nothing yet\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.PreviewRuns() != DefaultPreviewRuns {
		t.Fatalf("cfg = %+v", cfg)
	}
}
