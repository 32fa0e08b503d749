package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRootCommandSubcommands(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"serve":      false,
		"replay":     false,
		"cache":      false,
		"watch":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestNewEngineWithConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "overrides.toml")
	config := `
canvas_width = 1280
canvas_height = 960
mode = "fill"
snapshot_backend = "file"
snapshot_path = "` + filepath.ToSlash(filepath.Join(dir, "placements.json")) + `"

[producers.scoreboard]
prefixes = { score_ = "score" }
`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	eng, err := c.newEngine(context.Background(), configPath)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	if got := eng.Table().Config().Mode; got != "fill" {
		t.Errorf("mode = %q", got)
	}
}

func TestNewEngineDefaults(t *testing.T) {
	// Default config uses the file backend under the user cache dir; point
	// it somewhere disposable instead.
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(&bytes.Buffer{}, LogInfo)
	eng, err := c.newEngine(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	cfg := eng.Table().Config()
	if cfg.CanvasWidth != 1280 || cfg.CanvasHeight != 960 {
		t.Errorf("default canvas = %gx%g", cfg.CanvasWidth, cfg.CanvasHeight)
	}
}

func TestNewEngineBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.toml")
	if err := os.WriteFile(path, []byte("canvas_width = }"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	if _, err := c.newEngine(context.Background(), path); err == nil {
		t.Error("malformed config must fail engine construction")
	}
}
