package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"
watch_paths = ["./src"]

[exclude]
dirs = [".git"]
files = ["*.log"]

[watch]
debounce = "1s"

[shard_store]
driver = "sqlite"
path = "shards.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GrammarsPath != "./grammars" {
		t.Errorf("Expected GrammarsPath ./grammars, got %s", cfg.GrammarsPath)
	}
	if len(cfg.WatchPaths) != 1 || cfg.WatchPaths[0] != "./src" {
		t.Errorf("Unexpected WatchPaths: %v", cfg.WatchPaths)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.ShardStore.Path != "shards.db" {
		t.Errorf("Expected shard store path shards.db, got %s", cfg.ShardStore.Path)
	}
}

func TestLoadDefaultDebounce(t *testing.T) {
	path := writeTempConfig(t, `grammars_path = "./grammars"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
}

func TestLoadDefaultsShardStoreAndIndex(t *testing.T) {
	path := writeTempConfig(t, `grammars_path = "./grammars"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ShardStore.Driver != "sqlite" {
		t.Errorf("expected default shard store driver sqlite, got %q", cfg.ShardStore.Driver)
	}
	if cfg.ShardStore.BusyTimeout != 5*time.Second {
		t.Errorf("expected default busy timeout 5s, got %v", cfg.ShardStore.BusyTimeout)
	}
	if cfg.Index.ThreadPoolSize != 4 {
		t.Errorf("expected default thread pool size 4, got %d", cfg.Index.ThreadPoolSize)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}

	path := writeTempConfig(t, "bad = toml = format")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestLoad_VersionRejectsOutOfRange(t *testing.T) {
	path := writeTempConfig(t, "version = 3\ngrammars_path = \"./grammars\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected version validation error")
	}
}

func TestLoad_ShardStoreValidation(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[shard_store]
driver = "postgres"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected shard store driver validation error")
	}
	if !strings.Contains(err.Error(), "shard_store.driver") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_IndexValidation(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[index]
thread_pool_size = 0
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected index thread_pool_size validation error")
	}
	if !strings.Contains(err.Error(), "index.thread_pool_size") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_ProjectsValidation(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[projects]
active = "default"

[[projects.entries]]
name = "default"
root = "."

[[projects.entries]]
name = "default"
root = "./other"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected duplicate project error")
	}
	if !strings.Contains(err.Error(), "duplicate project name") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_ExcludeOverlapValidation(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[exclude]
dirs = ["internal", "internal/core"]
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected exclude overlap validation error")
	}
	if !strings.Contains(err.Error(), "exclude.dirs") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_GrammarVerificationDefaultsEnabled(t *testing.T) {
	path := writeTempConfig(t, `grammars_path = "./grammars"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.GrammarVerification.IsEnabled() {
		t.Fatal("expected grammar verification default to enabled")
	}
}

func TestLoad_GrammarVerificationCanBeDisabled(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[grammar_verification]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GrammarVerification.IsEnabled() {
		t.Fatal("expected grammar verification to be disabled")
	}
}

func TestLoad_LanguagesValidationRejectsEmptyOverrides(t *testing.T) {
	path := writeTempConfig(t, `
grammars_path = "./grammars"

[languages.javascript]
extensions = ["", ".js"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected language validation error")
	}
}

func TestResolveActiveProject(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Projects: Projects{
			Entries: []ProjectEntry{
				{Name: "root", Root: tmpDir, DBNamespace: "root"},
				{Name: "nested", Root: filepath.Join(tmpDir, "pkg", "sub"), DBNamespace: "nested"},
			},
		},
	}

	cwd := filepath.Join(tmpDir, "pkg", "sub")
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		t.Fatal(err)
	}

	project, err := ResolveActiveProject(cfg, cwd)
	if err != nil {
		t.Fatal(err)
	}
	if project.Name != "nested" {
		t.Fatalf("expected nested project match, got %q", project.Name)
	}
}
