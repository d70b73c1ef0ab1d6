package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"photomerge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PHOTOMERGE_OUTPUT_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "photomerge", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, "Pictures", "takeout"); cfg.Paths.OutputDir != want {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "photomerge", "dedup.json.gz"); cfg.Paths.DedupStore != want {
		t.Fatalf("dedup store = %q, want %q", cfg.Paths.DedupStore, want)
	}
	if cfg.Metadata.Codec != config.CodecXMP {
		t.Fatalf("codec = %q, want %q", cfg.Metadata.Codec, config.CodecXMP)
	}
	if cfg.Metadata.LocationSource != config.LocationGPhotos {
		t.Fatalf("location source = %q", cfg.Metadata.LocationSource)
	}
	if cfg.Archive.FoldExtensionCase {
		t.Fatal("expected case-sensitive extension matching by default")
	}
	if cfg.Dedup.SaveEvery != config.Default().Dedup.SaveEvery {
		t.Fatalf("save every = %d", cfg.Dedup.SaveEvery)
	}
}

func TestLoadHonoursOutputDirEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out := t.TempDir()
	t.Setenv("PHOTOMERGE_OUTPUT_DIR", out)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != out {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, out)
	}
}

func TestLoadCustomFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PHOTOMERGE_OUTPUT_DIR", "")
	dir := t.TempDir()

	custom := config.Default()
	custom.Paths.OutputDir = filepath.Join(dir, "out")
	custom.Paths.DedupStore = filepath.Join(dir, "state", "dedup.json.gz")
	custom.Archive.FoldExtensionCase = true
	custom.Metadata.Codec = " Passthrough "
	custom.Metadata.LocationSource = "EXIF"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, "photomerge.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if !cfg.Archive.FoldExtensionCase {
		t.Fatal("expected fold_extension_case from file")
	}
	if cfg.Metadata.Codec != config.CodecPassthrough || cfg.Metadata.LocationSource != config.LocationExif {
		t.Fatalf("metadata not normalized: %+v", cfg.Metadata)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, filepath.Dir(cfg.Paths.DedupStore)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[paths]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.OutputDir = "/srv/photos"
		cfg.Paths.DedupStore = "/var/lib/photomerge/dedup.json.gz"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(*config.Config) {}},
		{name: "bad codec", mutate: func(c *config.Config) { c.Metadata.Codec = "exiftool" }, wantErr: "metadata.codec"},
		{name: "bad location", mutate: func(c *config.Config) { c.Metadata.LocationSource = "gps" }, wantErr: "metadata.location_source"},
		{name: "bad format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "empty output", mutate: func(c *config.Config) { c.Paths.OutputDir = "" }, wantErr: "paths.output_dir"},
		{name: "store inside output", mutate: func(c *config.Config) { c.Paths.DedupStore = "/srv/photos/dedup.json.gz" }, wantErr: "must not live inside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PHOTOMERGE_OUTPUT_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Dedup.SaveEvery != 100 {
		t.Fatalf("save every = %d", cfg.Dedup.SaveEvery)
	}
}
