package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"codeindex/internal/core/config/helpers"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration for the background indexer: where
// to watch, how many workers to run, how often to rebuild the query
// index, and where shards are persisted.
type Config struct {
	Version      int                 `toml:"version"`
	Paths        Paths               `toml:"paths"`
	ConfigFiles  ConfigFiles         `toml:"config"`
	ShardStore   ShardStore          `toml:"shard_store"`
	Projects     Projects            `toml:"projects"`
	Index        Index               `toml:"index"`
	GrammarsPath string              `toml:"grammars_path"`
	GrammarVerification GrammarVerification `toml:"grammar_verification"`
	Languages    map[string]Language `toml:"languages"`
	WatchPaths   []string            `toml:"watch_paths"`
	Exclude      Exclude             `toml:"exclude"`
	Watch        Watch               `toml:"watch"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	ConfigDir   string `toml:"config_dir"`
	StateDir    string `toml:"state_dir"`
	CacheDir    string `toml:"cache_dir"`
	DatabaseDir string `toml:"database_dir"`
}

type ConfigFiles struct {
	ActiveFile string   `toml:"active_file"`
	Includes   []string `toml:"includes"`
}

// ShardStore configures the SQLite-backed shard store (§4 "ShardStore").
type ShardStore struct {
	Enabled     bool          `toml:"enabled"`
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

// Index configures the priority work queue and periodic rebuilder
// (§4.1, §5).
type Index struct {
	ThreadPoolSize   int           `toml:"thread_pool_size"`
	BuildIndexPeriod time.Duration `toml:"build_index_period"`
	PreventStarvation bool         `toml:"prevent_starvation"`
}

type Projects struct {
	Active       string         `toml:"active"`
	RegistryFile string         `toml:"registry_file"`
	Entries      []ProjectEntry `toml:"entries"`
}

type ProjectEntry struct {
	Name        string `toml:"name"`
	Root        string `toml:"root"`
	DBNamespace string `toml:"db_namespace"`
	ConfigFile  string `toml:"config_file"`
}

type GrammarVerification struct {
	Enabled *bool `toml:"enabled"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}

	// An explicit thread_pool_size is validated as written; only an
	// absent one falls back to the default.
	if md.IsDefined("index", "thread_pool_size") {
		if err := validateIndex(&cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateProjects(&cfg); err != nil {
		return nil, err
	}
	if err := validateShardStore(&cfg); err != nil {
		return nil, err
	}
	if err := validateIndex(&cfg); err != nil {
		return nil, err
	}
	if err := validateLanguages(&cfg); err != nil {
		return nil, err
	}
	if err := validateExclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateGrammarsPath(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateGrammarsPath rejects a configured grammars_path that exists but
// is not a directory. A missing path is tolerated here; the grammar
// loader reports that failure itself when it tries to use it.
func validateGrammarsPath(cfg *Config) error {
	if strings.TrimSpace(cfg.GrammarsPath) == "" {
		return nil
	}
	info, err := os.Stat(cfg.GrammarsPath)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("grammars_path %q is not a directory", cfg.GrammarsPath)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.ConfigDir) == "" {
		cfg.Paths.ConfigDir = "data/config"
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		cfg.Paths.CacheDir = "data/cache"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if strings.TrimSpace(cfg.ConfigFiles.ActiveFile) == "" {
		cfg.ConfigFiles.ActiveFile = "codeindex.toml"
	}

	if strings.TrimSpace(cfg.ShardStore.Driver) == "" {
		cfg.ShardStore.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.ShardStore.Path) == "" {
		cfg.ShardStore.Path = "shards.db"
	}
	if cfg.ShardStore.BusyTimeout <= 0 {
		cfg.ShardStore.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Projects.RegistryFile) == "" {
		cfg.Projects.RegistryFile = "projects.toml"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}

	if cfg.Index.ThreadPoolSize <= 0 {
		cfg.Index.ThreadPoolSize = 4
	}
	if cfg.Index.BuildIndexPeriod < 0 {
		cfg.Index.BuildIndexPeriod = 0
	}
}

func (g GrammarVerification) IsEnabled() bool {
	if g.Enabled == nil {
		return true
	}
	return *g.Enabled
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 2 {
		return fmt.Errorf("unsupported config version %d; supported versions are 1 and 2", cfg.Version)
	}
	return nil
}

func validateShardStore(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.ShardStore.Driver))
	if driver != "sqlite" {
		return fmt.Errorf("shard_store.driver must be sqlite, got %q", cfg.ShardStore.Driver)
	}
	if strings.TrimSpace(cfg.ShardStore.Path) == "" {
		return fmt.Errorf("shard_store.path must not be empty")
	}
	return nil
}

func validateIndex(cfg *Config) error {
	if cfg.Index.ThreadPoolSize < 1 {
		return fmt.Errorf("index.thread_pool_size must be >= 1, got %d", cfg.Index.ThreadPoolSize)
	}
	return nil
}

func validateProjects(cfg *Config) error {
	entries := cfg.Projects.Entries
	if len(entries) == 0 {
		if strings.TrimSpace(cfg.Projects.Active) != "" {
			return fmt.Errorf("projects.active is set to %q but projects.entries is empty", cfg.Projects.Active)
		}
		return nil
	}

	seenNames := make(map[string]bool, len(entries))
	for i, entry := range entries {
		ref := fmt.Sprintf("projects.entries[%d]", i)
		name := strings.TrimSpace(entry.Name)
		root := strings.TrimSpace(entry.Root)
		if name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		if root == "" {
			return fmt.Errorf("%s.root must not be empty", ref)
		}
		if seenNames[name] {
			return fmt.Errorf("duplicate project name %q", name)
		}
		seenNames[name] = true
	}

	active := strings.TrimSpace(cfg.Projects.Active)
	if active != "" && !seenNames[active] {
		return fmt.Errorf("projects.active references unknown project %q", active)
	}
	return nil
}

// validateExclude rejects empty exclude.dirs entries and exclude.dirs
// patterns that overlap each other, since an overlapping pair makes one
// entry redundant. exclude.files patterns are not checked.
func validateExclude(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Exclude.Dirs))
	for i, dir := range cfg.Exclude.Dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
		for existing := range seen {
			if helpers.HasWildcard(dir) || helpers.HasWildcard(existing) {
				if helpers.WildcardPatternsOverlap(dir, existing) {
					return fmt.Errorf("exclude.dirs pattern %q overlaps with %q", dir, existing)
				}
				continue
			}
			if helpers.IsPathOverlap(dir, existing) {
				return fmt.Errorf("exclude.dirs pattern %q overlaps with %q", dir, existing)
			}
		}
		seen[dir] = true
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("languages key must not be empty")
		}
		for _, ext := range settings.Extensions {
			if strings.TrimSpace(ext) == "" {
				return fmt.Errorf("languages.%s.extensions must not include empty values", language)
			}
		}
		for _, name := range settings.Filenames {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("languages.%s.filenames must not include empty values", language)
			}
		}
	}
	return nil
}
