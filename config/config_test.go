package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/pipekit/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// unsetEnv removes keys for the duration of the test, including any values
// a .env file loads into the process.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "PROGRESS_BASE_URL", "MANIFEST", "LOGGING_LEVEL")

	cfg, err := Load(WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "pipekit" || cfg.Environment != "development" {
		t.Errorf("unexpected identity %q/%q", cfg.Name, cfg.Environment)
	}
	if cfg.Manifest != DefaultManifest {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if cfg.Progress.Enabled() {
		t.Error("progress should be disabled without a base URL")
	}
	if cfg.Progress.Timeout != 10*time.Second {
		t.Errorf("progress timeout = %v", cfg.Progress.Timeout)
	}
	if cfg.Tracing.Enabled() {
		t.Error("tracing should be disabled without an endpoint")
	}
}

func TestLoadYAML(t *testing.T) {
	unsetEnv(t, "PROGRESS_BASE_URL", "MANIFEST", "LOGGING_LEVEL")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "pipekit.yml"), `
name: builds
environment: ci
manifest: deploy/manifest.yml
logging:
  level: debug
  format: json
progress:
  base_url: http://progress.local:8080
  timeout: 3s
tracing:
  endpoint: localhost:4318
  sample_rate: 0.25
`)

	cfg, err := Load(WithDir(dir))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := map[string]any{
		"name":       "builds",
		"env":        "ci",
		"manifest":   "deploy/manifest.yml",
		"level":      "debug",
		"format":     "json",
		"baseURL":    "http://progress.local:8080",
		"timeout":    3 * time.Second,
		"endpoint":   "localhost:4318",
		"sampleRate": 0.25,
	}
	got := map[string]any{
		"name":       cfg.Name,
		"env":        cfg.Environment,
		"manifest":   cfg.Manifest,
		"level":      cfg.Logging.Level,
		"format":     cfg.Logging.Format,
		"baseURL":    cfg.Progress.BaseURL,
		"timeout":    cfg.Progress.Timeout,
		"endpoint":   cfg.Tracing.Endpoint,
		"sampleRate": cfg.Tracing.SampleRate,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvFile(t *testing.T) {
	unsetEnv(t, "PROGRESS_BASE_URL", "PROGRESS_CORRELATION_HEADER")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"),
		"PROGRESS_BASE_URL=http://localhost:9000\nPROGRESS_CORRELATION_HEADER=X-Run-Id\n")

	cfg, err := Load(WithDir(dir))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Progress.BaseURL != "http://localhost:9000" {
		t.Errorf("base url = %q", cfg.Progress.BaseURL)
	}
	if cfg.Progress.CorrelationHeader != "X-Run-Id" {
		t.Errorf("correlation header = %q", cfg.Progress.CorrelationHeader)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	unsetEnv(t, "PROGRESS_BASE_URL")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pipekit.yml"), "progress:\n  base_url: http://from-file\n")
	t.Setenv("PROGRESS_BASE_URL", "http://from-env")

	cfg, err := Load(WithDir(dir))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Progress.BaseURL != "http://from-env" {
		t.Errorf("base url = %q, want environment value", cfg.Progress.BaseURL)
	}
}

func TestLoadInvalid(t *testing.T) {
	unsetEnv(t, "PROGRESS_BASE_URL", "LOGGING_LEVEL")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad base url", "progress:\n  base_url: not-a-url\n", "progress.base_url: must be a valid URL"},
		{"bad log level", "logging:\n  level: loud\n", "logging"},
		{"bad environment", "environment: moon\n", "environment: must be one of"},
		{"bad sample rate", "tracing:\n  sample_rate: 3\n", "tracing.sample_rate: must be at most 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "pipekit.yml"), tc.content)

			_, err := Load(WithDir(dir))
			if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadExplicitFilesMustExist(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(WithConfigFile(filepath.Join(dir, "missing.yml")))
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing config file: expected INVALID_CONFIG, got %v", err)
	}

	_, err = Load(WithDir(dir), WithEnvFile(filepath.Join(dir, "missing.env")))
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing env file: expected INVALID_CONFIG, got %v", err)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  ResolvedFiles
	}{
		{"none", nil, ResolvedFiles{}},
		{"root wins", []string{"pipekit.yml", "config/pipekit.yml", ".env", "config/.env"},
			ResolvedFiles{ConfigFile: "pipekit.yml", EnvFile: ".env"}},
		{"config dir", []string{"config/pipekit.yaml", "config/.env"},
			ResolvedFiles{ConfigFile: "config/pipekit.yaml", EnvFile: "config/.env"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			if diff := cmp.Diff(tc.want, r.ResolveFiles(LoaderConfig{})); diff != "" {
				t.Errorf("resolved mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	r := &Resolver{FileSystem: &mockFS{files: map[string]bool{"pipekit.yml": true}}}
	got := r.ResolveFiles(LoaderConfig{ConfigFile: "/etc/pipekit.yml", EnvFile: "/etc/pipekit.env"})
	want := ResolvedFiles{ConfigFile: "/etc/pipekit.yml", EnvFile: "/etc/pipekit.env"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadUsesFileSystemForEnv(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env": true}}
	var cfg Config
	if err := LoadInto(&cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if diff := cmp.Diff([]string{".env"}, fs.loaded); diff != "" {
		t.Errorf("env files loaded (-want +got):\n%s", diff)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"NAME", []string{"name"}},
		{"LOGGING_LEVEL", []string{"logging_level", "logging.level"}},
		{"PROGRESS_BASE_URL", []string{
			"progress_base_url",
			"progress.base.url",
			"progress.base_url",
			"progress_base.url",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, generateEnvKeyVariants(tc.key)); diff != "" {
				t.Errorf("variants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithDir("/srv")(&lc)
	WithConfigFile("/path/to/pipekit.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)

	if lc.FileSystem != fs || lc.Dir != "/srv" {
		t.Errorf("unexpected loader config %+v", lc)
	}
	if lc.ConfigFile != "/path/to/pipekit.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected file overrides %+v", lc)
	}
}
