// Package config loads the service configuration from defaults, an optional
// JSON file and environment overrides, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/logging"
)

// Config holds the application configuration
type Config struct {
	LogLevel string        `json:"log_level"`
	Regions  RegionsConfig `json:"regions"`
	Ingest   IngestConfig  `json:"ingest"`
	Cache    CacheConfig   `json:"cache"`
	Catalog  CatalogConfig `json:"catalog"`
	FaceBox  FaceBoxConfig `json:"face_box"`
	HTTP     HTTPConfig    `json:"http"`
}

// RegionsConfig overrides the sampling boxes used by the extractor.
type RegionsConfig struct {
	Skin features.RegionBox `json:"skin"`
	Hair features.RegionBox `json:"hair"`
}

// IngestConfig holds configuration for batch ingestion
type IngestConfig struct {
	Source             string  `json:"source"`
	StorageDir         string  `json:"storage_dir"`
	BatchSize          int     `json:"batch_size"`
	ThumbnailSize      int     `json:"thumbnail_size"`
	AutoLabel          bool    `json:"auto_label"`
	AutoLabelThreshold float64 `json:"auto_label_threshold"`
	DedupDistance      int     `json:"dedup_distance"`
}

// CacheConfig holds configuration for the Redis result cache
type CacheConfig struct {
	Enabled bool     `json:"enabled"`
	Addr    string   `json:"addr"`
	DB      int      `json:"db"`
	TTL     Duration `json:"ttl"`
}

// CatalogConfig holds configuration for the Postgres catalog
type CatalogConfig struct {
	// Enabled turns on the HTTP label review routes. Ingestion always uses
	// the catalog.
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

// FaceBoxConfig holds configuration for the vision face-box provider
type FaceBoxConfig struct {
	Enabled bool     `json:"enabled"`
	URL     string   `json:"url"`
	Model   string   `json:"model"`
	Timeout Duration `json:"timeout"`
}

// HTTPConfig holds configuration for the HTTP API
type HTTPConfig struct {
	Addr          string `json:"addr"`
	MaxUploadSize int64  `json:"max_upload_size"`
	// JWTSecret enables bearer auth on the POST routes when set.
	JWTSecret   string `json:"jwt_secret,omitempty"`
	JWTAudience string `json:"jwt_audience,omitempty"`
}

// Duration is a time.Duration that reads and writes as a string like "5m".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Regions: RegionsConfig{
			Skin: features.SkinBox,
			Hair: features.HairBox,
		},
		Ingest: IngestConfig{
			Source:             "local",
			StorageDir:         "./data",
			BatchSize:          50,
			ThumbnailSize:      256,
			AutoLabel:          true,
			AutoLabelThreshold: 0.7,
			DedupDistance:      10,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     Duration(24 * time.Hour),
		},
		Catalog: CatalogConfig{
			DSN: "host=localhost user=postgres password=postgres dbname=coloring port=5432 sslmode=disable",
		},
		FaceBox: FaceBoxConfig{
			Enabled: false,
			URL:     "http://localhost:11434",
			Model:   "llava",
			Timeout: Duration(60 * time.Second),
		},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			MaxUploadSize: 10 << 20,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load builds the effective configuration: defaults, then the file named by
// COLORING_CONFIG (if set), then environment overrides.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("COLORING_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("COLORING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Catalog.DSN = v
		c.Catalog.Enabled = true
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.FaceBox.URL = v
		c.FaceBox.Enabled = true
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.FaceBox.Model = v
	}
	if v := os.Getenv("COLORING_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.HTTP.JWTSecret = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		c.HTTP.JWTAudience = v
	}
	if v := os.Getenv("COLORING_STORAGE_DIR"); v != "" {
		c.Ingest.StorageDir = v
	}
	if v := os.Getenv("COLORING_AUTO_LABEL_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("COLORING_AUTO_LABEL_THRESHOLD: %w", err)
		}
		c.Ingest.AutoLabelThreshold = f
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := c.Regions.Skin.Validate(); err != nil {
		return fmt.Errorf("regions.skin: %w", err)
	}
	if err := c.Regions.Hair.Validate(); err != nil {
		return fmt.Errorf("regions.hair: %w", err)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be positive")
	}
	if c.Ingest.ThumbnailSize < 1 {
		return fmt.Errorf("ingest.thumbnail_size must be positive")
	}
	if c.Ingest.AutoLabelThreshold < 0 || c.Ingest.AutoLabelThreshold > 1 {
		return fmt.Errorf("ingest.auto_label_threshold must be between 0 and 1")
	}
	if c.Ingest.DedupDistance < 0 || c.Ingest.DedupDistance > 64 {
		return fmt.Errorf("ingest.dedup_distance must be between 0 and 64")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}
	if c.FaceBox.Enabled && (c.FaceBox.URL == "" || c.FaceBox.Model == "") {
		return fmt.Errorf("face_box.url and face_box.model are required when face_box is enabled")
	}
	if c.Catalog.Enabled && c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required when the catalog is enabled")
	}
	if c.HTTP.MaxUploadSize < 1 {
		return fmt.Errorf("http.max_upload_size must be positive")
	}
	if c.HTTP.JWTAudience != "" && c.HTTP.JWTSecret == "" {
		return fmt.Errorf("http.jwt_secret is required when http.jwt_audience is set")
	}
	return nil
}
