package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MilvusConfig holds the connection settings for the Milvus vector store.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus service address
	Collection string `yaml:"collection"` // collection holding personal-data fragments
}

// MongoConfig holds the connection settings for MongoDB, which stores
// extracted calendar events.
type MongoConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	EventCollection string `yaml:"eventCollection"`
}

// MySQLConfig holds the connection settings for the MySQL directory of
// users, circles and friend privacy settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// RedisConfig holds the connection settings for the Redis cache in front of
// the directory.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // cache entry lifetime in seconds
}

// KafkaConfig holds the settings for the usage-event publisher. Leave
// Brokers empty to disable publishing.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	UsageTopic string   `yaml:"usageTopic"`
}

// ProviderConfig selects and configures one model provider.
type ProviderConfig struct {
	Provider string `yaml:"provider"` // "openai", "ollama" or "gemini"

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Ollama struct {
		Address string `yaml:"address"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`

	Gemini struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`
}

// EngineConfig holds the tunables of the query engine itself.
type EngineConfig struct {
	PersonalTopK    int `yaml:"personalTopK"`    // nearest neighbours for a plain personal query
	CountTopK       int `yaml:"countTopK"`       // expanded recall for counting queries
	CircleTopK      int `yaml:"circleTopK"`      // nearest neighbours for a circle query
	EventLimit      int `yaml:"eventLimit"`      // max extracted events per query
	MaxContextChars int `yaml:"maxContextChars"` // hard cap on assembled context text
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	HTTPAddr string `yaml:"httpAddr"`
}

// RateLimiterConfig throttles queries per user. Each answered query spends
// provider tokens, so the limit protects the model budget.
type RateLimiterConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"`  // requests replenished per second, per user
	Burst   int     `yaml:"burst"` // burst size per user
}

// CircuitBreakerConfig guards outbound chat-completion calls.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Cooldown         int    `yaml:"cooldown"` // seconds the circuit stays open
}

// MiddlewareConfig groups the optional resilience middleware.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// DatabasesConfig groups all storage backends.
type DatabasesConfig struct {
	Milvus MilvusConfig `yaml:"milvus"`
	Mongo  MongoConfig  `yaml:"mongo"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// AppConfig is the root configuration for the query service.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Databases  DatabasesConfig  `yaml:"databases"`
	Embedding  ProviderConfig   `yaml:"embedding"`
	Chat       ProviderConfig   `yaml:"chat"`
	Engine     EngineConfig     `yaml:"engine"`
}

// LoadConfig reads and parses the yaml configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}
