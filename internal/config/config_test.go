package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
sources:
  live:
    base_url: https://live.example.com/v1
    api_key: live-key
    requests_per_window: 10
    window: 1s
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-monitor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-monitor")
	}
	if cfg.Sources.Live.BaseURL != "https://live.example.com/v1" {
		t.Errorf("Sources.Live.BaseURL = %q", cfg.Sources.Live.BaseURL)
	}
	if cfg.Sources.Live.RequestsPerWindow != 10 {
		t.Errorf("Sources.Live.RequestsPerWindow = %d, want 10", cfg.Sources.Live.RequestsPerWindow)
	}
	if cfg.Sources.Live.Window != time.Second {
		t.Errorf("Sources.Live.Window = %v, want 1s", cfg.Sources.Live.Window)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_HISTORY_KEY", "secret123")

	yaml := `
instance:
  id: test-monitor
sources:
  history:
    base_url: https://stats.example.com/v1
    api_key: ${TEST_HISTORY_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sources.History.APIKey != "secret123" {
		t.Errorf("APIKey = %q, want env-substituted %q", cfg.Sources.History.APIKey, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
sources:
  live:
    base_url: https://live.example.com/v1
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Sources.Live.RequestsPerWindow != DefaultRequestsPerWindow {
		t.Errorf("RequestsPerWindow = %d, want default %d", cfg.Sources.Live.RequestsPerWindow, DefaultRequestsPerWindow)
	}
	if cfg.Sources.History.MaxWait != DefaultMaxWait {
		t.Errorf("MaxWait = %v, want default %v", cfg.Sources.History.MaxWait, DefaultMaxWait)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Monitor.Interval != DefaultInterval {
		t.Errorf("Monitor.Interval = %v, want default %v", cfg.Monitor.Interval, DefaultInterval)
	}
	if cfg.Monitor.Cooldown != DefaultCooldown {
		t.Errorf("Monitor.Cooldown = %v, want default %v", cfg.Monitor.Cooldown, DefaultCooldown)
	}
	if len(cfg.Detect.ClearanceKeywords) == 0 {
		t.Errorf("ClearanceKeywords not defaulted")
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
}

func TestLoadAndValidate(t *testing.T) {
	valid := `
instance:
  id: test-monitor
sources:
  live:
    base_url: https://live.example.com/v1
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: test_db
  user: testuser
  password: testpass
`
	if _, err := LoadAndValidate(writeTempFile(t, valid)); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing instance id",
			yaml: `
sources:
  live:
    base_url: https://live.example.com/v1
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: d
  user: u
  password: p
`,
		},
		{
			name: "missing live base url",
			yaml: `
instance:
  id: m
sources:
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: d
  user: u
  password: p
`,
		},
		{
			name: "missing db password",
			yaml: `
instance:
  id: m
sources:
  live:
    base_url: https://live.example.com/v1
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: d
  user: u
`,
		},
		{
			name: "kafka brokers without topic",
			yaml: `
instance:
  id: m
sources:
  live:
    base_url: https://live.example.com/v1
  history:
    base_url: https://stats.example.com/v1
database:
  host: localhost
  name: d
  user: u
  password: p
notify:
  kafka_brokers: ["localhost:9092"]
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadAndValidate(writeTempFile(t, tc.yaml)); err == nil {
				t.Errorf("expected validation error, got nil")
			}
		})
	}
}

func TestLoadWatchlist(t *testing.T) {
	yaml := `
items:
  - id: B0ABC123
    label: standing desk
    target_buy_price: 120.50
  - id: B0XYZ999
`
	entries, err := LoadWatchlist(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadWatchlist failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "B0ABC123" || entries[0].Label != "standing desk" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[0].TargetBuyPrice == nil || *entries[0].TargetBuyPrice != 120.50 {
		t.Errorf("entry 0 target buy price = %v, want 120.50", entries[0].TargetBuyPrice)
	}
	if entries[1].TargetBuyPrice != nil {
		t.Errorf("entry 1 target buy price should be nil")
	}
}

func TestLoadWatchlist_MissingID(t *testing.T) {
	yaml := `
items:
  - label: no id here
`
	if _, err := LoadWatchlist(writeTempFile(t, yaml)); err == nil {
		t.Errorf("expected error for missing id, got nil")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
