package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonnyWalker81/daylog/internal/analysis"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/reflection"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Log      LogConfig      `mapstructure:"log"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// SupabaseConfig holds Supabase-specific configuration
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Backend   string `mapstructure:"backend"`
	AddSource bool   `mapstructure:"add_source"`
}

// AnalysisConfig holds the tunables of the correlation, similarity and
// reflection engines
type AnalysisConfig struct {
	CorrelationMinSampleSize   int     `mapstructure:"correlation_min_sample_size"`
	CorrelationThreshold       float64 `mapstructure:"correlation_threshold"`
	HighSignificanceSampleSize int     `mapstructure:"high_significance_sample_size"`
	SimilarDaysK               int     `mapstructure:"similar_days_k"`
	HistoryDays                int     `mapstructure:"history_days"` // 0 means full history
	ReflectionWindowDays       int     `mapstructure:"reflection_window_days"`
	MaxPreviousSessions        int     `mapstructure:"max_previous_sessions"`
}

// CORSConfig holds cross-origin configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScanOptions converts the analysis section into correlation scan options
func (a AnalysisConfig) ScanOptions() analysis.ScanOptions {
	return analysis.ScanOptions{
		MinSampleSize:              a.CorrelationMinSampleSize,
		Threshold:                  a.CorrelationThreshold,
		HighSignificanceSampleSize: a.HighSignificanceSampleSize,
	}
}

// LoggerConfig converts the log section into a logger configuration
func (l LogConfig) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(l.Level)
	if l.Format != "" {
		cfg.Format = l.Format
	}
	if l.Backend != "" {
		cfg.Backend = l.Backend
	}
	cfg.AddSource = l.AddSource
	return cfg
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables always win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("DAYLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables used by hosting platforms
	v.BindEnv("server.port", "DAYLOG_SERVER_PORT", "PORT")
	v.BindEnv("supabase.url", "DAYLOG_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("supabase.service_key", "DAYLOG_SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// cors.allowed_origins arrives as a single comma separated string from env
	config.CORS.AllowedOrigins = splitOrigins(config.CORS.AllowedOrigins)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.backend", logger.BackendSlog)
	v.SetDefault("log.add_source", false)

	v.SetDefault("analysis.correlation_min_sample_size", analysis.DefaultMinSampleSize)
	v.SetDefault("analysis.correlation_threshold", analysis.DefaultCorrelationThreshold)
	v.SetDefault("analysis.high_significance_sample_size", analysis.DefaultHighSignificanceSampleSize)
	v.SetDefault("analysis.similar_days_k", analysis.DefaultSimilarDays)
	v.SetDefault("analysis.history_days", 90)
	v.SetDefault("analysis.reflection_window_days", reflection.DefaultWindowDays)
	v.SetDefault("analysis.max_previous_sessions", reflection.DefaultMaxPreviousSessions)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func splitOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}

	switch c.Log.Backend {
	case logger.BackendSlog, logger.BackendZap:
	default:
		return fmt.Errorf("log.backend must be %q or %q, got %q", logger.BackendSlog, logger.BackendZap, c.Log.Backend)
	}

	a := c.Analysis
	if a.CorrelationMinSampleSize < 2 {
		return fmt.Errorf("analysis.correlation_min_sample_size must be at least 2")
	}
	if a.CorrelationThreshold < 0 || a.CorrelationThreshold > 1 {
		return fmt.Errorf("analysis.correlation_threshold must be in [0, 1]")
	}
	if a.HighSignificanceSampleSize < a.CorrelationMinSampleSize {
		return fmt.Errorf("analysis.high_significance_sample_size must not be below correlation_min_sample_size")
	}
	if a.SimilarDaysK < 1 {
		return fmt.Errorf("analysis.similar_days_k must be positive")
	}
	if a.HistoryDays < 0 {
		return fmt.Errorf("analysis.history_days must not be negative (0 loads full history)")
	}
	if a.ReflectionWindowDays < 1 {
		return fmt.Errorf("analysis.reflection_window_days must be positive")
	}
	if a.MaxPreviousSessions < 0 {
		return fmt.Errorf("analysis.max_previous_sessions must not be negative")
	}
	return nil
}
