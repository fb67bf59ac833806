package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`

	SessionIdleSeconds int64         `mapstructure:"session_idle_seconds"`
	SessionIdleTTL     time.Duration `mapstructure:"-"`
	MaxSessions        int           `mapstructure:"max_sessions"`

	FeedURL               string        `mapstructure:"feed_url"`
	ProxyBase             string        `mapstructure:"proxy_base"`
	PlaceholderImageURL   string        `mapstructure:"placeholder_image_url"`
	UserAgent             string        `mapstructure:"user_agent"`
	RefreshIntervalSecond int64         `mapstructure:"refresh_interval"`
	RefreshInterval       time.Duration `mapstructure:"-"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	MaxResponseBytes      int           `mapstructure:"max_response_bytes"`

	ArticleExtractor string `mapstructure:"article_extractor"`
	ArticleSelector  string `mapstructure:"article_selector"`
	// ArticleStripSelectors is one comma separated selector group.
	ArticleStripSelectors string `mapstructure:"article_strip_selectors"`

	PublishersFile string `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

const (
	DefaultFeedURL             = "https://www.formula1.com/en/latest/all.xml"
	DefaultProxyBase           = "https://api.allorigins.win/raw"
	DefaultPlaceholderImageURL = domain.PlaceholderImageURL
	DefaultArticleSelector     = ".f1-article--body"
	DefaultStripSelectors      = `a[href^="/"], button, .f-modal, .f1-button`
	DefaultRefreshSeconds      = 300
	DefaultMaxResponseBytes    = 4 << 20
)

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "paddock-news")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("session_idle_seconds", 1800)
	v.SetDefault("max_sessions", 1024)
	v.SetDefault("feed_url", DefaultFeedURL)
	v.SetDefault("proxy_base", DefaultProxyBase)
	v.SetDefault("placeholder_image_url", DefaultPlaceholderImageURL)
	v.SetDefault("user_agent", "paddock-news/1.0")
	v.SetDefault("refresh_interval", DefaultRefreshSeconds) // seconds
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("max_response_bytes", DefaultMaxResponseBytes)
	v.SetDefault("article_extractor", "selector")
	v.SetDefault("article_selector", DefaultArticleSelector)
	v.SetDefault("article_strip_selectors", DefaultStripSelectors)
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/headlines.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
}

func (cfg *Config) normalize() error {
	cfg.FeedURL = strings.TrimSpace(cfg.FeedURL)
	if _, err := url.ParseRequestURI(cfg.FeedURL); err != nil {
		return fmt.Errorf("invalid feed_url %q: %w", cfg.FeedURL, err)
	}
	cfg.ProxyBase = strings.TrimSpace(cfg.ProxyBase)
	if cfg.ProxyBase != "" {
		if _, err := url.ParseRequestURI(cfg.ProxyBase); err != nil {
			return fmt.Errorf("invalid proxy_base %q: %w", cfg.ProxyBase, err)
		}
	}
	if strings.TrimSpace(cfg.PlaceholderImageURL) == "" {
		cfg.PlaceholderImageURL = DefaultPlaceholderImageURL
	}

	if cfg.SessionIdleSeconds <= 0 {
		return fmt.Errorf("invalid session_idle_seconds (must be positive seconds)")
	}
	cfg.SessionIdleTTL = time.Duration(cfg.SessionIdleSeconds) * time.Second
	if cfg.MaxSessions <= 0 {
		return fmt.Errorf("invalid max_sessions (must be positive)")
	}

	if cfg.RefreshIntervalSecond <= 0 {
		return fmt.Errorf("invalid refresh_interval (must be positive seconds)")
	}
	cfg.RefreshInterval = time.Duration(cfg.RefreshIntervalSecond) * time.Second

	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if cfg.MaxResponseBytes < 0 {
		return fmt.Errorf("invalid max_response_bytes (0 disables the limit)")
	}

	cfg.ArticleExtractor = strings.ToLower(strings.TrimSpace(cfg.ArticleExtractor))
	if strings.TrimSpace(cfg.ArticleSelector) == "" {
		return fmt.Errorf("article_selector must not be empty")
	}
	cfg.ArticleStripSelectors = strings.TrimSpace(cfg.ArticleStripSelectors)

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
