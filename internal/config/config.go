// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Institution describes one configured source portal. The registry is loaded
// once at process start and never mutated afterwards.
type Institution struct {
	BaseURL string `mapstructure:"base_url"`
	Region  string `mapstructure:"region"`
	Name    string `mapstructure:"name"`
}

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging      LoggingConfig          `mapstructure:"logging"`
	HTTP         HTTPConfig             `mapstructure:"http"`
	Crawler      CrawlerConfig          `mapstructure:"crawler"`
	DB           DBConfig               `mapstructure:"db"`
	Server       ServerConfig           `mapstructure:"server"`
	Courses      CoursesConfig          `mapstructure:"courses"`
	Institutions map[string]Institution `mapstructure:"institutions"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the portal HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// CrawlerConfig governs listing pagination and detail fetch fan-out.
type CrawlerConfig struct {
	PageSize      int `mapstructure:"page_size"`
	MaxConcurrent int `mapstructure:"max_concurrent"`
	PageDelayMs   int `mapstructure:"page_delay_ms"`
}

// DBConfig holds the SQLite file locations for both stores.
type DBConfig struct {
	RawPath  string `mapstructure:"raw_path"`
	MartPath string `mapstructure:"mart_path"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CoursesConfig tunes the optional course-name unification utility.
type CoursesConfig struct {
	SimilarityThreshold int `mapstructure:"similarity_threshold"`
}

// Load builds a Config from disk/environment. The institution registry is
// part of the config file; a missing or empty registry is a structural fault
// reported here, before any stage begins.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INTEGRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("integra")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "integra-harvester/0.1")
	v.SetDefault("crawler.page_size", 50)
	v.SetDefault("crawler.max_concurrent", 50)
	v.SetDefault("crawler.page_delay_ms", 50)
	v.SetDefault("db.raw_path", "integra.db")
	v.SetDefault("db.mart_path", "datamart.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("courses.similarity_threshold", 85)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Institutions) == 0 {
		return fmt.Errorf("institutions registry is empty; refusing to run with no sources")
	}
	for code, inst := range c.Institutions {
		if inst.BaseURL == "" {
			return fmt.Errorf("institutions.%s.base_url is required", code)
		}
	}
	if c.Crawler.PageSize <= 0 {
		return fmt.Errorf("crawler.page_size must be > 0")
	}
	if c.Crawler.MaxConcurrent <= 0 {
		return fmt.Errorf("crawler.max_concurrent must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.DB.RawPath == "" {
		return fmt.Errorf("db.raw_path is required")
	}
	if c.DB.MartPath == "" {
		return fmt.Errorf("db.mart_path is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Courses.SimilarityThreshold <= 0 || c.Courses.SimilarityThreshold > 100 {
		return fmt.Errorf("courses.similarity_threshold must be in (0, 100]")
	}
	return nil
}

// Codes returns the registry's institution codes in sorted order. Crawl runs
// and surrogate id assignment both rely on this ordering being stable.
func (c Config) Codes() []string {
	codes := make([]string, 0, len(c.Institutions))
	for code := range c.Institutions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the registry entry for a code.
func (c Config) Lookup(code string) (Institution, bool) {
	inst, ok := c.Institutions[code]
	return inst, ok
}

// HTTPTimeout converts the configured timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PageDelay is the pause between listing page requests.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Crawler.PageDelayMs) * time.Millisecond
}
