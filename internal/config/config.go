// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	LLM      LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	Maps     MapsConfig     `mapstructure:"maps" yaml:"maps"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the MongoDB connection details. The Atlas vector index
// must exist on the listings collection's embedding field.
type DatabaseConfig struct {
	URI                string        `mapstructure:"uri" yaml:"-"`
	Name               string        `mapstructure:"name" yaml:"name"`
	ListingsCollection string        `mapstructure:"listings_collection" yaml:"listings_collection"`
	ReportsCollection  string        `mapstructure:"reports_collection" yaml:"reports_collection"`
	VectorIndex        string        `mapstructure:"vector_index" yaml:"vector_index"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// ServerConfig tunes the HTTP API server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	EmbeddingModel       string                    `mapstructure:"embedding_model" yaml:"embedding_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"-"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// MapsConfig configures the Google Maps geocoding client.
type MapsConfig struct {
	APIKey         string        `mapstructure:"api_key" yaml:"-"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
}

// SearchConfig tunes semantic search behavior.
type SearchConfig struct {
	Limit         int     `mapstructure:"limit" yaml:"limit"`
	NumCandidates int     `mapstructure:"num_candidates" yaml:"num_candidates"`
	MinScore      float64 `mapstructure:"min_score" yaml:"min_score"`
}

// ReportConfig holds report generation defaults.
type ReportConfig struct {
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ecoestate")
	v.SetDefault("logger.log_file", "ecoestate.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Database --
	v.SetDefault("database.name", "ecoestate")
	v.SetDefault("database.listings_collection", "listings")
	v.SetDefault("database.reports_collection", "reports")
	v.SetDefault("database.vector_index", "listing_embedding_index")
	v.SetDefault("database.connect_timeout", "10s")

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "gemini-2.5-flash")
	v.SetDefault("llm.default_powerful_model", "gemini-2.5-pro")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")

	// -- Maps --
	v.SetDefault("maps.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("maps.timeout", "10s")
	v.SetDefault("maps.rate_per_second", 5.0)

	// -- Search --
	v.SetDefault("search.limit", 10)
	v.SetDefault("search.num_candidates", 100)
	v.SetDefault("search.min_score", 0.75)

	// -- Report --
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.default_format", "pdf")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("database.uri", "ECOESTATE_DATABASE_URI")
	v.BindEnv("maps.api_key", "ECOESTATE_MAPS_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be a positive integer")
	}
	if c.Search.NumCandidates < c.Search.Limit {
		return fmt.Errorf("search.num_candidates must be >= search.limit")
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return fmt.Errorf("search.min_score must be between 0.0 and 1.0")
	}
	switch c.Report.DefaultFormat {
	case "pdf", "json":
	default:
		return fmt.Errorf("report.default_format must be 'pdf' or 'json'")
	}
	for name, m := range c.LLM.Models {
		if m.Provider != ProviderGemini && m.Provider != ProviderOpenAI {
			return fmt.Errorf("llm.models.%s: unsupported provider %q", name, m.Provider)
		}
	}
	return nil
}
