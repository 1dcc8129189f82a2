package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	EnginePath        string `mapstructure:"ENGINE_PATH"`
	EngineWeights     string `mapstructure:"ENGINE_WEIGHTS"`
	EngineEnabled     bool   `mapstructure:"ENGINE_ENABLED"`
	EngineAddr        string `mapstructure:"ENGINE_ADDR"`
	EngineRPCPort     string `mapstructure:"ENGINE_RPC_PORT"`
	MaxAnalyzeSeconds int    `mapstructure:"MAX_ANALYZE_SECONDS"`
	RequestTimeoutSec int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	RedisUrl               string `mapstructure:"REDIS_URL"`
	MongoUri               string `mapstructure:"MONGO_URI"`
	MongoDatabase          string `mapstructure:"MONGO_DATABASE"`
	ArchiveBackend         string `mapstructure:"ARCHIVE_BACKEND"`
	ArchiveDBDir           string `mapstructure:"ARCHIVE_DB_DIR"`
	ArchiveDir             string `mapstructure:"ARCHIVE_DIR"`
	ArchiveCacheTTLMinutes int    `mapstructure:"ARCHIVE_CACHE_TTL_MINUTES"`

	IsLocalCors    bool `mapstructure:"LOCAL_CORS"`
	PageLimitGames int  `mapstructure:"PAGE_LIMIT_GAMES"`
}

// MaxAnalyzeTime is how long the engine may ponder one position.
func (c *Config) MaxAnalyzeTime() time.Duration {
	return time.Duration(c.MaxAnalyzeSeconds) * time.Second
}

// RequestTimeout bounds a heatmap or genmove request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// ArchiveCacheTTL is the lifetime of a cached archive record.
func (c *Config) ArchiveCacheTTL() time.Duration {
	return time.Duration(c.ArchiveCacheTTLMinutes) * time.Minute
}

var keys = []string{
	"SERVER_PORT",
	"ENGINE_PATH", "ENGINE_WEIGHTS", "ENGINE_ENABLED", "ENGINE_ADDR", "ENGINE_RPC_PORT",
	"MAX_ANALYZE_SECONDS", "REQUEST_TIMEOUT_SECONDS",
	"REDIS_URL", "MONGO_URI", "MONGO_DATABASE", "ARCHIVE_BACKEND", "ARCHIVE_DB_DIR", "ARCHIVE_DIR", "ARCHIVE_CACHE_TTL_MINUTES",
	"LOCAL_CORS", "PAGE_LIMIT_GAMES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENGINE_PATH", "./leelaz")
	v.SetDefault("ENGINE_WEIGHTS", "network.gz")
	v.SetDefault("ENGINE_ENABLED", true)
	v.SetDefault("ENGINE_ADDR", "")
	v.SetDefault("ENGINE_RPC_PORT", "8082")
	v.SetDefault("MAX_ANALYZE_SECONDS", 600)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "omega")
	v.SetDefault("ARCHIVE_BACKEND", "badger")
	v.SetDefault("ARCHIVE_DB_DIR", "")
	v.SetDefault("ARCHIVE_DIR", "archive")
	v.SetDefault("ARCHIVE_CACHE_TTL_MINUTES", 60)
	v.SetDefault("LOCAL_CORS", false)
	v.SetDefault("PAGE_LIMIT_GAMES", 20)
}

// Setup reads cfgPath; environment variables win over the file. A missing
// file is not an error, the defaults and the environment are used instead.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	// Unmarshal only sees env-only keys that viper already knows about.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
