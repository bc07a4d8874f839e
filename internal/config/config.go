// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Resolution defaults
const (
	DefaultStepBudgetValue      = 60
	DefaultTargetChunkSizeValue = 40
	DefaultMaxCandidatesValue   = 20
)

// Config holds all configuration for the MCP server.
type Config struct {
	// Resolution pipeline
	StepBudget      int // STEP_BUDGET, default 60
	TargetChunkSize int // TARGET_CHUNK_SIZE, default 40 (candidate URLs per oracle call)
	MaxCandidates   int // MAX_CANDIDATES, default 20 (producers handed to pick-simplest)

	// Corpus ingestion
	DecodeWorkers   int    // DECODE_WORKERS, default 8 (HAR body decode pool)
	MaxBodyBytes    int    // MAX_BODY_BYTES, default 1_000_000 (bodies truncated past this)
	IndexBodyTokens bool   // INDEX_BODY_TOKENS, default true (roaring posting lists)
	NoiseDomainsCSV string // NOISE_DOMAINS, comma-separated suffixes excluded from "interesting"
	MinTokenLen     int    // MIN_TOKEN_LEN, default 6 (dynamic values are rarely shorter)

	// Oracle
	OracleModel     string        // ORACLE_MODEL, default "gemini-2.5-flash"
	OracleTimeout   time.Duration // ORACLE_TIMEOUT_MS, default 30000ms
	OracleCacheSize int           // ORACLE_CACHE_SIZE, default 256

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		StepBudget:      getEnvInt("STEP_BUDGET", DefaultStepBudgetValue),
		TargetChunkSize: getEnvInt("TARGET_CHUNK_SIZE", DefaultTargetChunkSizeValue),
		MaxCandidates:   getEnvInt("MAX_CANDIDATES", DefaultMaxCandidatesValue),

		DecodeWorkers:   getEnvInt("DECODE_WORKERS", 8),
		MaxBodyBytes:    getEnvInt("MAX_BODY_BYTES", 1_000_000),
		IndexBodyTokens: getEnvBool("INDEX_BODY_TOKENS", true),
		NoiseDomainsCSV: getEnvString("NOISE_DOMAINS", "doubleclick.net,google-analytics.com,googletagmanager.com,sentry.io,segment.io"),
		MinTokenLen:     getEnvInt("MIN_TOKEN_LEN", 6),

		OracleModel:     getEnvString("ORACLE_MODEL", "gemini-2.5-flash"),
		OracleTimeout:   getEnvDurationMs("ORACLE_TIMEOUT_MS", 30000),
		OracleCacheSize: getEnvInt("ORACLE_CACHE_SIZE", 256),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
