package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Storage StorageConfig
	AI      AIConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds session-related configuration
type GameConfig struct {
	MaxPlayers      int
	RoundGraceDelay time.Duration // pause after a correct guess before the next round
	CorpusFloor     int           // minimum stored words before first-ever init skips generation
	CorpusBatchSize int           // words requested per generated batch
}

// StorageConfig holds durable storage configuration
type StorageConfig struct {
	DBPath string
}

// ProviderConfig selects one completion backend
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled reports whether this provider is configured at all
func (p ProviderConfig) Enabled() bool {
	return p.Model != "" && (p.APIKey != "" || p.BaseURL != "")
}

// AIConfig holds completion backend selection. The backend answering
// in-session questions and the one generating corpus batches may differ,
// and corpus generation can fall back to a second provider.
type AIConfig struct {
	Query          ProviderConfig
	Corpus         ProviderConfig
	CorpusFallback ProviderConfig
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			MaxPlayers:      getEnvInt("MAX_PLAYERS", 8),
			RoundGraceDelay: getEnvDuration("ROUND_GRACE_DELAY_SECONDS", 5) * time.Second,
			CorpusFloor:     getEnvInt("CORPUS_MIN_WORDS", 5),
			CorpusBatchSize: getEnvInt("CORPUS_BATCH_SIZE", 10),
		},
		Storage: StorageConfig{
			DBPath: getEnv("DB_PATH", "data/words.db"),
		},
		AI: AIConfig{
			Query: ProviderConfig{
				APIKey:  getEnv("AI_API_KEY", ""),
				BaseURL: getEnv("AI_BASE_URL", ""),
				Model:   getEnv("AI_QUERY_MODEL", "gpt-4o-mini"),
			},
			Corpus: ProviderConfig{
				APIKey:  getEnv("AI_CORPUS_API_KEY", getEnv("AI_API_KEY", "")),
				BaseURL: getEnv("AI_CORPUS_BASE_URL", getEnv("AI_BASE_URL", "")),
				Model:   getEnv("AI_CORPUS_MODEL", "gpt-4o-mini"),
			},
			CorpusFallback: ProviderConfig{
				APIKey:  getEnv("AI_CORPUS_FALLBACK_API_KEY", ""),
				BaseURL: getEnv("AI_CORPUS_FALLBACK_BASE_URL", ""),
				Model:   getEnv("AI_CORPUS_FALLBACK_MODEL", ""),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration returns an environment variable as a duration count or a default
func getEnvDuration(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue))
}
