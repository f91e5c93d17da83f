package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	// YouTube Data API
	APIKey      string        `yaml:"api_key"`
	APIKeyFile  string        `yaml:"api_key_file"`
	APIBaseURL  string        `yaml:"api_base_url"`
	QuotaUser   string        `yaml:"quota_user"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Record store
	StoreBackend  string `yaml:"store_backend"`
	DBDir         string `yaml:"db_dir"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	SQLitePath    string `yaml:"sqlite_path"`

	// Worker and HTTP API
	NATSUrl       string        `yaml:"nats_url"`
	FetchInterval time.Duration `yaml:"fetch_interval"`
	RateLimit     time.Duration `yaml:"rate_limit"`
	CrawlChannels []string      `yaml:"crawl_channels"`
	Addr          string        `yaml:"addr"`

	// Tokenization and shards
	Language     string `yaml:"language"`
	LegacyRescan bool   `yaml:"legacy_rescan"`
	NumShards    int    `yaml:"num_shards"`
	ShardDir     string `yaml:"shard_dir"`
	ShardPrefix  string `yaml:"shard_prefix"`
	HashSeed     uint64 `yaml:"hash_seed"`
	WordFreqPath string `yaml:"word_freq_path"`

	// CBOW
	MinCount   int `yaml:"min_count"`
	WindowSize int `yaml:"window_size"`
}

// Default returns the configuration used when neither a file nor the environment overrides anything.
func Default() *Config {
	return &Config{
		APIKeyFile:    "api_key.txt",
		APIBaseURL:    "https://www.googleapis.com/youtube/v3/",
		QuotaUser:     "user1",
		MaxAttempts:   10,
		RetryDelay:    time.Second,
		HTTPTimeout:   30 * time.Second,
		StoreBackend:  BackendFile,
		DBDir:         "db",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "youtubedb",
		SQLitePath:    "db/records.sqlite",
		NATSUrl:       "nats://localhost:4222",
		FetchInterval: 24 * time.Hour,
		RateLimit:     time.Second,
		Addr:          ":8080",
		Language:      "russian",
		NumShards:     1000,
		ShardDir:      "db/cbow/tokenized",
		ShardPrefix:   "data.tfrecord",
		WordFreqPath:  "db/word_freq.tsv",
		MinCount:      2000,
		WindowSize:    2,
	}
}

// Load builds the config from defaults, then the YAML file named by CONFIG_FILE
// (or ./config.yaml when present), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded - Store: %s, Shards: %d, Window: %d, MinCount: %d",
		cfg.StoreBackend, cfg.NumShards, cfg.WindowSize, cfg.MinCount)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("YOUTUBE_API_KEY", c.APIKey)
	c.APIKeyFile = getEnv("YOUTUBE_API_KEY_FILE", c.APIKeyFile)
	c.APIBaseURL = getEnv("YOUTUBE_API_URL", c.APIBaseURL)
	c.QuotaUser = getEnv("YOUTUBE_QUOTA_USER", c.QuotaUser)
	c.MaxAttempts = getIntEnv("MAX_RETRIES", c.MaxAttempts)
	c.RetryDelay = getDurationEnv("RETRY_DELAY", c.RetryDelay)
	c.HTTPTimeout = getDurationEnv("HTTP_TIMEOUT", c.HTTPTimeout)

	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.DBDir = getEnv("DB_DIR", c.DBDir)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.NATSUrl = getEnv("NATS_URL", c.NATSUrl)
	c.FetchInterval = getDurationEnv("FETCH_INTERVAL", c.FetchInterval)
	c.RateLimit = getDurationEnv("RATE_LIMIT", c.RateLimit)
	c.CrawlChannels = getListEnv("CRAWL_CHANNELS", c.CrawlChannels)
	c.Addr = getEnv("ADDR", c.Addr)

	c.Language = getEnv("TOKENIZER_LANGUAGE", c.Language)
	c.LegacyRescan = getBoolEnv("TOKENIZER_LEGACY_RESCAN", c.LegacyRescan)
	c.NumShards = getIntEnv("NUM_SHARDS", c.NumShards)
	c.ShardDir = getEnv("SHARD_DIR", c.ShardDir)
	c.ShardPrefix = getEnv("SHARD_PREFIX", c.ShardPrefix)
	c.HashSeed = uint64(getIntEnv("SHARD_HASH_SEED", int(c.HashSeed)))
	c.WordFreqPath = getEnv("WORD_FREQ_PATH", c.WordFreqPath)

	c.MinCount = getIntEnv("VOCAB_MIN_COUNT", c.MinCount)
	c.WindowSize = getIntEnv("WINDOW_SIZE", c.WindowSize)
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.NumShards < 1 {
		return fmt.Errorf("num_shards must be positive, got %d", c.NumShards)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// ResolveAPIKey returns the configured key, falling back to the first line of APIKeyFile.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	data, err := os.ReadFile(c.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("YOUTUBE_API_KEY is not set and %s is unreadable: %w", c.APIKeyFile, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s is empty", c.APIKeyFile)
	}
	return key, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("[WARN] Invalid duration for %s: %q", key, value)
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("[WARN] Invalid integer for %s: %q", key, value)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
