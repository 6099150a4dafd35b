// # cmd/codeindex/app.go
package main

import (
	"fmt"
	"log/slog"
	"time"

	"codeindex/internal/core/config"
	"codeindex/internal/core/index"
	"codeindex/internal/core/pipeline"
	"codeindex/internal/data/cdb"
	"codeindex/internal/data/osfs"
	"codeindex/internal/data/shardstore"
	"codeindex/internal/engine/collector"
	"codeindex/internal/engine/parser"
	"codeindex/internal/engine/queryindex"
)

// App wires together one configuration's adapters and the
// BackgroundIndexer they serve. It is the setup step clangd's
// ClangdServer does in its constructor: build the collaborators once,
// then hand them to the pipeline, which owns their lifetime from here.
type App struct {
	Config  *config.Config
	FS      *osfs.FS
	Parser  *parser.Parser
	CDB     *cdb.DB
	Store   *shardstore.Store
	Indexer *pipeline.BackgroundIndexer
}

func NewApp(cfg *config.Config) (*App, error) {
	loader, err := parser.NewGrammarLoader(cfg.GrammarsPath)
	if err != nil {
		return nil, fmt.Errorf("load grammars: %w", err)
	}

	p := parser.NewParser(loader)
	p.RegisterExtractor("go", &parser.GoExtractor{})

	fs := osfs.New()

	var store *shardstore.Store
	if cfg.ShardStore.Enabled {
		store, err = shardstore.Open(cfg.ShardStore.Path)
		if err != nil {
			return nil, fmt.Errorf("open shard store: %w", err)
		}
	}

	db := cdb.New(cfg.WatchPaths, cfg.Exclude.Dirs, cfg.Exclude.Files, cfg.Watch.Debounce, p, fs, cfg.Paths.ProjectRoot)
	goCollector := collector.NewGoCollector(fs, p)

	opts := pipeline.Options{
		ThreadPoolSize:   cfg.Index.ThreadPoolSize,
		BuildIndexPeriod: cfg.Index.BuildIndexPeriod,
		FS:               fs,
		Collector:        goCollector,
		CDB:              db,
		Builder:          queryindex.NewBuilder(),
	}
	if store != nil {
		opts.Store = store
	}

	bi := pipeline.NewBackgroundIndexer(opts)

	index.PreventStarvation.Store(cfg.Index.PreventStarvation)

	return &App{
		Config:  cfg,
		FS:      fs,
		Parser:  p,
		CDB:     db,
		Store:   store,
		Indexer: bi,
	}, nil
}

// InitialScan walks the configured watch paths once and enqueues every
// source file found at Background priority, mirroring BackgroundIndex's
// constructor-time pass over the whole compilation database.
func (a *App) InitialScan() error {
	files, err := a.CDB.ListSourceFiles()
	if err != nil {
		return fmt.Errorf("list source files: %w", err)
	}
	slog.Info("initial scan enqueuing files", "count", len(files))
	for _, file := range files {
		cmd, _, ok := a.CDB.GetCompileCommand(file)
		if !ok {
			continue
		}
		a.Indexer.Enqueue(cmd, index.PriorityBackground)
	}
	return nil
}

// Stats summarizes the indexer's current state, for the UI and the
// summary line logged by -once mode.
type Stats struct {
	ShardCount  int
	SymbolCount int
	IndexKind   index.IndexKind
	LastUpdate  time.Time
}

func (a *App) Stats() Stats {
	built, _ := a.Indexer.Live.Load().(*queryindex.Index)
	return Stats{
		ShardCount:  a.Indexer.Aggregator.Len(),
		SymbolCount: built.Len(),
		IndexKind:   built.Kind(),
		LastUpdate:  time.Now(),
	}
}

// Close stops the indexer's worker pool and rebuild loop and closes the
// shard store, if one is open.
func (a *App) Close() error {
	a.Indexer.Stop()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
