package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfig(t, "server.json", `{
		"listen_addr": ":9090",
		"database_path": "/tmp/obs.db",
		"site_latitude_deg": 57.3937,
		"telescopes": ["vale"],
		"update_interval": "500ms"
	}`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if got := cfg.GetListenAddr(); got != ":9090" {
		t.Errorf("listen addr = %q", got)
	}
	if got := cfg.GetDatabasePath(); got != "/tmp/obs.db" {
		t.Errorf("database path = %q", got)
	}
	if got := cfg.GetUpdateInterval(); got != 500*time.Millisecond {
		t.Errorf("update interval = %v", got)
	}
	if got := cfg.GetTelescopes(); len(got) != 1 || got[0] != "vale" {
		t.Errorf("telescopes = %v", got)
	}
	// Longitude was omitted and falls back to the default site.
	if got := cfg.GetSiteLongitudeDeg(); got != defaultSiteLongitudeDeg {
		t.Errorf("longitude = %v, want default", got)
	}
}

func TestLoadServerConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{}`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if got := cfg.GetListenAddr(); got != defaultListenAddr {
		t.Errorf("listen addr = %q, want default", got)
	}
	if got := cfg.GetTelescopes(); len(got) != 2 {
		t.Errorf("telescopes = %v, want defaults", got)
	}
	if got := cfg.GetUpdateInterval(); got != time.Second {
		t.Errorf("update interval = %v, want 1s", got)
	}
}

func TestLoadServerConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "server.yaml", `{}`},
		{"bad json", "bad.json", `{`},
		{"bad latitude", "lat.json", `{"site_latitude_deg": 120}`},
		{"bad interval", "interval.json", `{"update_interval": "soon"}`},
		{"empty telescope id", "scopes.json", `{"telescopes": [""]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			if _, err := LoadServerConfig(path); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
