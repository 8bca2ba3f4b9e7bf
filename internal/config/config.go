package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"gl-analytics/internal/gitlab"
)

// DefaultCacheTTL is how long fetched issues stay fresh in the cache.
const DefaultCacheTTL = time.Hour

// AppConfig holds the complete application configuration.
type AppConfig struct {
	GitLab   gitlab.Config
	Group    string
	DataPath string
	CacheDir string
	CacheTTL time.Duration
	Profile  WorkflowProfile
}

// Load loads the configuration from .env files and environment variables, then the
// workflow profile. profilePath overrides WORKFLOW_PROFILE.
func Load(profilePath string) (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables")
	}

	// 3. Resolve Data Paths
	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	// 4. Workflow profile
	if profilePath == "" {
		profilePath = getEnv("WORKFLOW_PROFILE", "")
	}
	profile := DefaultProfile()
	if profilePath != "" {
		profile, err = LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", profilePath).Strs("stages", profile.Stages).Msg("Loaded workflow profile")
	}

	cfg := &AppConfig{
		GitLab: gitlab.Config{
			BaseURL:     getEnv("GITLAB_BASE_URL", gitlab.DefaultBaseURL),
			Token:       getEnv("TOKEN", ""),
			Concurrency: getEnvInt("GITLAB_REQUEST_CONCURRENCY", gitlab.DefaultConcurrency),
			LabelScope:  profile.LabelScope,
			TypeScope:   profile.TypeScope,
		},
		Group:    getEnv("GITLAB_GROUP", ""),
		DataPath: dataPath,
		CacheDir: filepath.Join(dataPath, "cache"),
		CacheTTL: getEnvDuration("CACHE_TTL", DefaultCacheTTL),
		Profile:  profile,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid duration")
	}
	return fallback
}
