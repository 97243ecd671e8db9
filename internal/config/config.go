package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Print types control when request/response text is emitted.
const (
	PrintOrder = "ORDER"
	PrintLine  = "LINE"
	PrintMerge = "MERGE"
)

// Strategies select the interceptor hooks.
const (
	StrategyVerbose = "verbose"
	StrategyMinimal = "minimal"
)

// Overflow policies for the operation log worker pool.
const (
	OverflowDropNewest = "drop_newest"
	OverflowDropOldest = "drop_oldest"
	OverflowBlock      = "block"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	OperationLog OperationLogConfig `mapstructure:"operation_log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// ContextPath is stripped from request paths before exclude matching.
	ContextPath string `mapstructure:"context_path"`
}

// LogConfig drives the request/response print pipeline.
type LogConfig struct {
	Level             string   `mapstructure:"level"`
	Format            string   `mapstructure:"format"` // json | console
	PrintType         string   `mapstructure:"print_type"`
	RequestLogFormat  bool     `mapstructure:"request_log_format"`  // pretty-print request JSON
	ResponseLogFormat bool     `mapstructure:"response_log_format"` // pretty-print response JSON
	ExcludePaths      []string `mapstructure:"exclude_paths"`
	Strategy          string   `mapstructure:"strategy"`
	Color             bool     `mapstructure:"color"`
	RedactKeys        []string `mapstructure:"redact_keys"`
}

// OperationLogConfig drives the asynchronous audit persistence.
type OperationLogConfig struct {
	Enable       bool     `mapstructure:"enable"`
	ExcludePaths []string `mapstructure:"exclude_paths"`
	QueueSize    int      `mapstructure:"queue_size"`
	Workers      int      `mapstructure:"workers"`
	Overflow     string   `mapstructure:"overflow"`
	FileDir      string   `mapstructure:"file_dir"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr              string `mapstructure:"addr"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	OperationLogKey   string `mapstructure:"operation_log_key"`
	OperationLogMax   int    `mapstructure:"operation_log_max"`
	IPCacheTTLSeconds int    `mapstructure:"ip_cache_ttl_seconds"`
}

type JWTConfig struct {
	TokenName string `mapstructure:"token_name"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.context_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.print_type", PrintOrder)
	v.SetDefault("log.request_log_format", false)
	v.SetDefault("log.response_log_format", false)
	v.SetDefault("log.exclude_paths", []string{"/health", "/metrics"})
	v.SetDefault("log.strategy", StrategyVerbose)
	v.SetDefault("log.color", true)
	v.SetDefault("log.redact_keys", []string{"password"})

	v.SetDefault("operation_log.enable", true)
	v.SetDefault("operation_log.exclude_paths", []string{})
	v.SetDefault("operation_log.queue_size", 1000)
	v.SetDefault("operation_log.workers", 2)
	v.SetDefault("operation_log.overflow", OverflowDropNewest)
	v.SetDefault("operation_log.file_dir", "./logs")

	v.SetDefault("redis.operation_log_key", "sys_operation_log")
	v.SetDefault("redis.operation_log_max", 10000)
	v.SetDefault("redis.ip_cache_ttl_seconds", 3600)

	v.SetDefault("jwt.token_name", "token")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads config.yaml from . or ./configs, overlaid with OPLOG_* env vars.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. OPLOG_LOG_PRINT_TYPE=MERGE
	v.SetEnvPrefix("oplog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}
	return decode(v)
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Log.PrintType = strings.ToUpper(strings.TrimSpace(cfg.Log.PrintType))
	cfg.Log.Strategy = strings.ToLower(strings.TrimSpace(cfg.Log.Strategy))
	cfg.OperationLog.Overflow = strings.ToLower(strings.TrimSpace(cfg.OperationLog.Overflow))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Log.PrintType {
	case PrintOrder, PrintLine, PrintMerge:
	default:
		return fmt.Errorf("invalid log.print_type %q", c.Log.PrintType)
	}
	switch c.Log.Strategy {
	case StrategyVerbose, StrategyMinimal:
	default:
		return fmt.Errorf("invalid log.strategy %q", c.Log.Strategy)
	}
	switch c.OperationLog.Overflow {
	case OverflowDropNewest, OverflowDropOldest, OverflowBlock:
	default:
		return fmt.Errorf("invalid operation_log.overflow %q", c.OperationLog.Overflow)
	}
	if c.OperationLog.QueueSize <= 0 {
		return fmt.Errorf("operation_log.queue_size must be positive")
	}
	if c.OperationLog.Workers <= 0 {
		return fmt.Errorf("operation_log.workers must be positive")
	}
	return nil
}
