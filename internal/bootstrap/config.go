package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineModeLocal  = "local"
	EngineModeRemote = "remote"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	IsLocalCors bool   `mapstructure:"LOCAL_CORS"`

	MongoUri      string        `mapstructure:"MONGO_URI"`
	MongoDatabase string        `mapstructure:"MONGO_DATABASE"`
	RedisUrl      string        `mapstructure:"REDIS_URL"`
	EvalCacheTTL  time.Duration `mapstructure:"EVAL_CACHE_TTL"`

	EngineMode     string `mapstructure:"ENGINE_MODE"`
	EnginePath     string `mapstructure:"ENGINE_PATH"`
	EngineGrpcAddr string `mapstructure:"ENGINE_GRPC_ADDR"`
	EngineGrpcPort string `mapstructure:"ENGINE_GRPC_PORT"`
	EnginePoolSize int    `mapstructure:"ENGINE_POOL_SIZE"`
	EngineDepth    int    `mapstructure:"ENGINE_DEPTH"`
	EngineHashMB   int    `mapstructure:"ENGINE_HASH_MB"`
	EngineThreads  int    `mapstructure:"ENGINE_THREADS"`

	BatchConcurrency  int           `mapstructure:"BATCH_CONCURRENCY"`
	BatchItemTimeout  time.Duration `mapstructure:"BATCH_ITEM_TIMEOUT"`
	BatchChunkSize    int           `mapstructure:"BATCH_CHUNK_SIZE"`
	BookPlies         int           `mapstructure:"BOOK_PLIES"`
	TacticalThreshold float64       `mapstructure:"TACTICAL_THRESHOLD"`

	MistralApiKey     string        `mapstructure:"MISTRAL_API_KEY"`
	MistralModel      string        `mapstructure:"MISTRAL_MODEL"`
	AnnotationTimeout time.Duration `mapstructure:"ANNOTATION_TIMEOUT"`

	LichessBaseUrl  string        `mapstructure:"LICHESS_BASE_URL"`
	ChessComBaseUrl string        `mapstructure:"CHESSCOM_BASE_URL"`
	PlatformTimeout time.Duration `mapstructure:"PLATFORM_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":        "8080",
	"LOG_LEVEL":          "info",
	"LOCAL_CORS":         false,
	"MONGO_URI":          "mongodb://localhost:27017",
	"MONGO_DATABASE":     "rookify",
	"REDIS_URL":          "localhost:6379",
	"EVAL_CACHE_TTL":     "24h",
	"ENGINE_MODE":        EngineModeLocal,
	"ENGINE_PATH":        "stockfish",
	"ENGINE_GRPC_ADDR":   "localhost:8082",
	"ENGINE_GRPC_PORT":   "8082",
	"ENGINE_POOL_SIZE":   4,
	"ENGINE_DEPTH":       15,
	"ENGINE_HASH_MB":     64,
	"ENGINE_THREADS":     1,
	"BATCH_CONCURRENCY":  4,
	"BATCH_ITEM_TIMEOUT": "60s",
	"BATCH_CHUNK_SIZE":   50,
	"BOOK_PLIES":         8,
	"TACTICAL_THRESHOLD": 0.4,
	"MISTRAL_API_KEY":    "",
	"MISTRAL_MODEL":      "mistral-large-latest",
	"ANNOTATION_TIMEOUT": "20s",
	"LICHESS_BASE_URL":   "https://lichess.org",
	"CHESSCOM_BASE_URL":  "https://api.chess.com",
	"PLATFORM_TIMEOUT":   "15s",
}

// Setup reads cfgPath (a .env file) and lets environment variables override
// it. A missing file is not an error; defaults and env cover everything.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			v.SetConfigFile(cfgPath)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	switch c.EngineMode {
	case EngineModeLocal:
		if c.EnginePath == "" {
			problems = append(problems, "ENGINE_PATH is required in local mode")
		}
	case EngineModeRemote:
		if c.EngineGrpcAddr == "" {
			problems = append(problems, "ENGINE_GRPC_ADDR is required in remote mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("ENGINE_MODE must be %q or %q, got %q", EngineModeLocal, EngineModeRemote, c.EngineMode))
	}

	if c.EnginePoolSize < 1 {
		problems = append(problems, "ENGINE_POOL_SIZE must be positive")
	}
	if c.EngineDepth < 1 {
		problems = append(problems, "ENGINE_DEPTH must be positive")
	}
	if c.BatchConcurrency < 1 {
		problems = append(problems, "BATCH_CONCURRENCY must be positive")
	}
	if c.BatchChunkSize < 1 {
		problems = append(problems, "BATCH_CHUNK_SIZE must be positive")
	}
	if c.BatchItemTimeout <= 0 {
		problems = append(problems, "BATCH_ITEM_TIMEOUT must be positive")
	}
	if c.BookPlies < 0 {
		problems = append(problems, "BOOK_PLIES must not be negative")
	}
	if c.TacticalThreshold < 0 || c.TacticalThreshold > 1 {
		problems = append(problems, "TACTICAL_THRESHOLD must be within [0,1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
