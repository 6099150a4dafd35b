// # cmd/codeindex/app_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeindex/internal/core/config"
)

func writeTestConfig(t *testing.T, watchPaths []string) *config.Config {
	cfg := &config.Config{
		WatchPaths:   watchPaths,
		GrammarsPath: "",
		Index:        config.Index{ThreadPoolSize: 2},
		Watch:        config.Watch{Debounce: 10 * time.Millisecond},
	}
	return cfg
}

func TestApp_InitialScanIndexesGoFiles(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "codeindex-apptest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte("module example.com/app\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src := "package app\n\nfunc Greet() string { return \"hi\" }\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "app.go"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := writeTestConfig(t, []string{tmpDir})

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatalf("InitialScan: %v", err)
	}

	if !app.Indexer.BlockUntilIdle(5 * time.Second) {
		t.Fatal("queue did not drain within timeout")
	}

	stats := app.Stats()
	if stats.ShardCount != 1 {
		t.Errorf("expected 1 shard, got %d", stats.ShardCount)
	}
}

func TestApp_InitialScanSkipsUnsupportedFiles(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "codeindex-apptest-skip")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("# hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := writeTestConfig(t, []string{tmpDir})

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatalf("InitialScan: %v", err)
	}

	if !app.Indexer.BlockUntilIdle(time.Second) {
		t.Fatal("queue did not drain within timeout")
	}

	stats := app.Stats()
	if stats.ShardCount != 0 {
		t.Errorf("expected 0 shards for a non-source file, got %d", stats.ShardCount)
	}
}
