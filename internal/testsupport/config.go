package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"leadlens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to the in-memory store and a loopback listener on a free port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Backend = config.StoreMemory
	cfgVal.Store.SQLitePath = filepath.Join(base, "data", "leads.db")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Client.BaseURL = "http://127.0.0.1:8016"
	cfgVal.Client.RetryDelayMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStoreBackend selects the lead table backend.
func WithStoreBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithAdminToken sets the bearer token for the admin listing.
func WithAdminToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.AdminToken = token
	}
}

// WithLens sets the lens provider wiring.
func WithLens(token, group, defaultLens string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lens.APIToken = token
		b.cfg.Lens.GroupID = group
		b.cfg.Lens.DefaultLensID = defaultLens
	}
}

// WithStaticSite writes a minimal build directory and points the server at it.
func WithStaticSite(files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "build")
		if _, ok := files["index.html"]; !ok {
			files["index.html"] = "<!doctype html><title>leadlens</title>"
		}
		for name, content := range files {
			target := filepath.Join(dir, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				b.t.Fatalf("mkdir for %s: %v", name, err)
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				b.t.Fatalf("write %s: %v", name, err)
			}
		}
		b.cfg.Server.StaticDir = dir
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
