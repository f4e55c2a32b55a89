package peers

import (
	"os"
	"testing"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PEERS_DEBUG", "PEERS_LOG_LEVEL", "COLUMNS"} {
		unsetenv(t, key)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug || cfg.LogLevel != "warn" || cfg.Columns != "" || cfg.Width() != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PEERS_DEBUG", "true")
	t.Setenv("PEERS_LOG_LEVEL", "debug")
	t.Setenv("COLUMNS", "120")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Debug: true, LogLevel: "debug", Columns: "120"}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
	if cfg.Width() != 120 {
		t.Fatalf("width %d, want 120", cfg.Width())
	}
}

func TestLoadConfigBadColumnsFallsBack(t *testing.T) {
	for _, columns := range []string{"wide", "-5", "0", "80x"} {
		t.Setenv("COLUMNS", columns)
		cfg, err := LoadConfig()
		if err != nil {
			t.Errorf("COLUMNS=%q: %v", columns, err)
			continue
		}
		if w := cfg.Width(); w != 0 {
			t.Errorf("COLUMNS=%q: width %d, want 0", columns, w)
		}
		d := New("peers", "", MustRegistry(), cfg)
		if d.Width != 0 {
			t.Errorf("COLUMNS=%q: dispatcher width %d, want terminal detection", columns, d.Width)
		}
	}
}

func TestNewUsesConfig(t *testing.T) {
	d := New("peers", "", MustRegistry(), Config{Debug: true, LogLevel: "info", Columns: "30"})
	if !d.Debug || d.LogLevel != "info" {
		t.Fatalf("unexpected dispatcher %+v", d)
	}
	if w := d.width(); w != MinWidth {
		t.Fatalf("width %d, want %d", w, MinWidth)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := NewLogger(false, level); err != nil {
			t.Errorf("level %s: %v", level, err)
		}
	}
	if _, err := NewLogger(false, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := NewLogger(true, "loud"); err != nil {
		t.Fatalf("debug logger ignores the level: %v", err)
	}
}
