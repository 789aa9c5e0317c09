package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Auth         AuthConfig         `json:"auth"`
	Logging      LoggingConfig      `json:"logging"`
	Redis        RedisConfig        `json:"redis"`
	Extractor    ExtractorConfig    `json:"extractor"`
	Embedder     EmbedderConfig     `json:"embedder"`
	Generator    GeneratorConfig    `json:"generator"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Retrieval    RetrievalConfig    `json:"retrieval"`
}

type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
	MaxLifetime  int    `json:"max_lifetime"`
}

// AuthConfig configures the HMAC-signed opaque API key scheme (auth/apikey.go),
// generalized from the teacher's JWKS-fetched bearer-token config.
type AuthConfig struct {
	APIKeySecret   string   `json:"api_key_secret"`
	APIKeyTTL      int      `json:"api_key_ttl"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// RedisConfig backs both the Spec Registry cache and the retrieval result cache.
type RedisConfig struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Password         string `json:"password"`
	DB               int    `json:"db"`
	RetrievalCacheTTL int   `json:"retrieval_cache_ttl"`
	EnableCache      bool   `json:"enable_cache"`
}

// ExtractorConfig configures the external PDF byte->text provider (spec.md §4.1, §6).
type ExtractorConfig struct {
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	Timeout    int    `json:"timeout"`
	MaxRetries int    `json:"max_retries"`
}

// EmbedderConfig configures the external text->vector provider (spec.md §4.9, §6).
type EmbedderConfig struct {
	BaseURL       string `json:"base_url"`
	APIKey        string `json:"api_key"`
	Model         string `json:"model"`
	Timeout       int    `json:"timeout"`
	MaxRetries    int    `json:"max_retries"`
	BatchSize     int    `json:"batch_size"`
	MaxInFlight   int    `json:"max_in_flight"`
	EmbeddingDim  int    `json:"embedding_dim"`
}

// GeneratorConfig configures the external text->text provider called by the ask
// endpoint over the retrieval engine's context pack (spec.md §6).
type GeneratorConfig struct {
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	Timeout    int    `json:"timeout"`
	MaxRetries int    `json:"max_retries"`
}

// OrchestratorConfig configures the ingestion worker pool (spec.md §5).
type OrchestratorConfig struct {
	WorkerCount                    int `json:"worker_count"`
	JobQueueSize                   int `json:"job_queue_size"`
	GracefulShutdownTimeoutSeconds int `json:"graceful_shutdown_timeout_seconds"`
}

// RetrievalConfig configures the hybrid search / RRF / context-pack pipeline
// (spec.md §4.10).
type RetrievalConfig struct {
	VectorTopK         int     `json:"vector_top_k"`
	LexicalTopK        int     `json:"lexical_top_k"`
	RRFK               int     `json:"rrf_k"`
	ContextTokenBudget int     `json:"context_token_budget"`
	DefaultTolerance   float64 `json:"default_tolerance"`
}

func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "catalog"),
			Password:     getEnv("DB_PASSWORD", "catalog"),
			Name:         getEnv("DB_NAME", "catalog"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
		},
		Auth: AuthConfig{
			APIKeySecret:   getEnv("API_KEY_SECRET", "your-secret-key-change-in-production"),
			APIKeyTTL:      getEnvAsInt("API_KEY_TTL", 0),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Redis: RedisConfig{
			Host:              getEnv("REDIS_HOST", "localhost"),
			Port:              getEnvAsInt("REDIS_PORT", 6379),
			Password:          getEnv("REDIS_PASSWORD", ""),
			DB:                getEnvAsInt("REDIS_DB", 0),
			RetrievalCacheTTL: getEnvAsInt("REDIS_RETRIEVAL_CACHE_TTL", 1800),
			EnableCache:       getEnvAsBool("REDIS_ENABLE_CACHE", true),
		},
		Extractor: ExtractorConfig{
			BaseURL:    getEnv("EXTRACTOR_BASE_URL", "http://localhost:8091"),
			APIKey:     getEnv("EXTRACTOR_API_KEY", ""),
			Timeout:    getEnvAsInt("EXTRACTOR_TIMEOUT", 30),
			MaxRetries: getEnvAsInt("EXTRACTOR_MAX_RETRIES", 5),
		},
		Embedder: EmbedderConfig{
			BaseURL:      getEnv("EMBEDDER_BASE_URL", "http://localhost:8092"),
			APIKey:       getEnv("EMBEDDER_API_KEY", ""),
			Model:        getEnv("EMBEDDER_MODEL", "catalog-embed-v1"),
			Timeout:      getEnvAsInt("EMBEDDER_TIMEOUT", 20),
			MaxRetries:   getEnvAsInt("EMBEDDER_MAX_RETRIES", 5),
			BatchSize:    getEnvAsInt("EMBEDDER_BATCH_SIZE", 16),
			MaxInFlight:  getEnvAsInt("EMBEDDER_MAX_IN_FLIGHT", 4),
			EmbeddingDim: getEnvAsInt("EMBEDDER_DIM", 1024),
		},
		Generator: GeneratorConfig{
			BaseURL:    getEnv("GENERATOR_BASE_URL", "http://localhost:8093"),
			APIKey:     getEnv("GENERATOR_API_KEY", ""),
			Model:      getEnv("GENERATOR_MODEL", "catalog-generate-v1"),
			Timeout:    getEnvAsInt("GENERATOR_TIMEOUT", 60),
			MaxRetries: getEnvAsInt("GENERATOR_MAX_RETRIES", 3),
		},
		Orchestrator: OrchestratorConfig{
			WorkerCount:                    getEnvAsInt("ORCHESTRATOR_WORKER_COUNT", 0),
			JobQueueSize:                   getEnvAsInt("ORCHESTRATOR_QUEUE_SIZE", 256),
			GracefulShutdownTimeoutSeconds: getEnvAsInt("ORCHESTRATOR_SHUTDOWN_TIMEOUT", 30),
		},
		Retrieval: RetrievalConfig{
			VectorTopK:         getEnvAsInt("RETRIEVAL_VECTOR_TOPK", 40),
			LexicalTopK:        getEnvAsInt("RETRIEVAL_LEXICAL_TOPK", 40),
			RRFK:               getEnvAsInt("RETRIEVAL_RRF_K", 60),
			ContextTokenBudget: getEnvAsInt("RETRIEVAL_CONTEXT_TOKEN_BUDGET", 3000),
			DefaultTolerance:   getEnvAsFloat("RETRIEVAL_DEFAULT_TOLERANCE", 0.05),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func validateConfig(config *Config) error {
	if config.Database.Password == "" {
		return fmt.Errorf("database password is required (DB_PASSWORD)")
	}

	if config.Auth.APIKeySecret == "your-secret-key-change-in-production" {
		return fmt.Errorf("API key secret must be changed from default value (API_KEY_SECRET)")
	}

	if config.Embedder.EmbeddingDim <= 0 {
		return fmt.Errorf("embedder dimension must be positive (EMBEDDER_DIM)")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
