package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete mrsurvey configuration
type Config struct {
	Survey  SurveyParams  `json:"survey" yaml:"survey" mapstructure:"survey"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format        string `json:"format" yaml:"format" mapstructure:"format"` // text, json, yaml, markdown, html
	Path          string `json:"path" yaml:"path" mapstructure:"path"`       // empty = stdout
	Verbose       bool   `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `json:"include_footer" yaml:"include_footer" mapstructure:"include_footer"`
}

// CacheConfig controls report caching. Only seeded runs are cached since an
// unseeded run is not reproducible.
type CacheConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `json:"dir" yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `json:"disk_ttl" yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"` // empty disables the endpoint
}

// LogConfig controls the logger
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// ProgressInterval bounds how often a running survey logs progress.
const ProgressInterval = 2 * time.Second

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Survey: DefaultSurveyParams(),
		Output: OutputConfig{
			Format:        "text",
			IncludeFooter: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mrsurvey")
	}
	return filepath.Join(dir, "mrsurvey")
}
