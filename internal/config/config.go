package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SiYuan  SiYuanConfig  `yaml:"siyuan" mapstructure:"siyuan"`
	Jina    JinaConfig    `yaml:"jina" mapstructure:"jina"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Lang    string        `yaml:"lang" mapstructure:"lang"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SiYuanConfig locates the kernel and the plugin's storage namespace.
type SiYuanConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Token      string  `yaml:"token" mapstructure:"token"`
	PluginName string  `yaml:"plugin_name" mapstructure:"plugin_name"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// JinaConfig holds Jina Reader settings.
type JinaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HTTPConfig configures outbound HTTP clients.
type HTTPConfig struct {
	// TimeoutSecs bounds each outbound request. Zero means no timeout.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the request timeout, zero when unset.
func (h HTTPConfig) Timeout() time.Duration {
	if h.TimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(h.TimeoutSecs) * time.Second
}

// ScrapeConfig configures provider calls.
type ScrapeConfig struct {
	// MaxAttempts is the total attempts per provider call. 1 disables retry.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// HistoryConfig configures the local fetch history.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that required configuration is present for the given mode.
// Modes: "cli" (kernel-backed commands), "serve" (cli plus server).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "cli", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if u, err := url.Parse(c.SiYuan.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "siyuan.base_url must be an absolute URL")
	}
	if strings.TrimSpace(c.SiYuan.PluginName) == "" {
		errs = append(errs, "siyuan.plugin_name is required")
	}
	if c.SiYuan.RateLimit < 0 {
		errs = append(errs, "siyuan.rate_limit must be >= 0")
	}
	if c.HTTP.TimeoutSecs < 0 {
		errs = append(errs, "http.timeout_secs must be >= 0")
	}
	if c.Scrape.MaxAttempts < 1 || c.Scrape.MaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("scrape.max_attempts must be between 1 and 10 (got %d)", c.Scrape.MaxAttempts))
	}
	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WEBFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("siyuan.base_url", "http://127.0.0.1:6806")
	v.SetDefault("siyuan.token", "")
	v.SetDefault("siyuan.plugin_name", "siyuan-plugin-web-fetch")
	v.SetDefault("siyuan.rate_limit", 10)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("http.timeout_secs", 0)
	v.SetDefault("scrape.max_attempts", 1)
	v.SetDefault("history.path", "")
	v.SetDefault("lang", "en_US")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
