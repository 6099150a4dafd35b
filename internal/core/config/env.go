package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CODEINDEX_[SECTION]_[KEY] (e.g., CODEINDEX_INDEX_THREAD_POOL_SIZE).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "CODEINDEX_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.ConfigDir, "CODEINDEX_PATHS_CONFIG_DIR")
	setEnvString(&cfg.Paths.StateDir, "CODEINDEX_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.CacheDir, "CODEINDEX_PATHS_CACHE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "CODEINDEX_PATHS_DATABASE_DIR")

	// Shard store
	setEnvBool(&cfg.ShardStore.Enabled, "CODEINDEX_SHARD_STORE_ENABLED")
	setEnvString(&cfg.ShardStore.Driver, "CODEINDEX_SHARD_STORE_DRIVER")
	setEnvString(&cfg.ShardStore.Path, "CODEINDEX_SHARD_STORE_PATH")
	setEnvDuration(&cfg.ShardStore.BusyTimeout, "CODEINDEX_SHARD_STORE_BUSY_TIMEOUT")

	// Index
	setEnvInt(&cfg.Index.ThreadPoolSize, "CODEINDEX_INDEX_THREAD_POOL_SIZE")
	setEnvDuration(&cfg.Index.BuildIndexPeriod, "CODEINDEX_INDEX_BUILD_INDEX_PERIOD")
	setEnvBool(&cfg.Index.PreventStarvation, "CODEINDEX_INDEX_PREVENT_STARVATION")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CODEINDEX_WATCH_DEBOUNCE")

	// Projects
	setEnvString(&cfg.Projects.Active, "CODEINDEX_PROJECTS_ACTIVE")
	setEnvString(&cfg.Projects.RegistryFile, "CODEINDEX_PROJECTS_REGISTRY_FILE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
