// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Session  SessionConfig  `mapstructure:"session"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig tunes the orchestration engine itself.
type SearchConfig struct {
	// LocalBackend selects the catalog backend: "postgres" or "elasticsearch".
	LocalBackend string `mapstructure:"local_backend"`
	// MinLocalResults gates the external call under hybrid_local_first.
	MinLocalResults int `mapstructure:"min_local_results"`
	MaxResults      int `mapstructure:"max_results"`
	// ResultCacheTTL is the external result cache TTL in minutes.
	ResultCacheTTL int `mapstructure:"result_cache_ttl_minutes"`
	// DefaultCurrency is stamped on listings whose source omits one.
	DefaultCurrency string `mapstructure:"default_currency"`
}

// SessionConfig tunes the conversation context store.
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"genai"`

	WebSearch struct {
		BaseURL  string  `mapstructure:"base_url"`
		APIKey   string  `mapstructure:"api_key"`
		EngineID string  `mapstructure:"engine_id"`
		Timeout  int     `mapstructure:"timeout"` // milliseconds
		RateRPS  float64 `mapstructure:"rate_rps"`
	} `mapstructure:"web_search"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
