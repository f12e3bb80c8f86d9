// Package config handles tool configuration loading and management.
package config

// Config holds all gltf-transform tool settings.
type Config struct {
	Weld    WeldConfig    `yaml:"weld"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Remote  RemoteConfig  `yaml:"remote"`
	Logging LoggingConfig `yaml:"logging"`
}

// WeldConfig holds vertex welding settings.
type WeldConfig struct {
	Tolerance   float64 `yaml:"tolerance"`
	Overwrite   bool    `yaml:"overwrite"`
	Parallelism int     `yaml:"parallelism"`
}

// OutputConfig holds serialization settings.
type OutputConfig struct {
	Generator string `yaml:"generator"` // asset.generator string written to output
	Codec     string `yaml:"codec"`     // "go-json" or "json"
}

// CacheConfig holds the local blob cache settings.
type CacheConfig struct {
	Dir string `yaml:"dir"` // empty disables caching
}

// RemoteConfig holds settings for buffers fetched from remote stores.
type RemoteConfig struct {
	RateLimit float64 `yaml:"rate_limit"` // fetches per second, 0 = unlimited
	Burst     int     `yaml:"burst"`
	S3Bucket  string  `yaml:"s3_bucket"`
	Endpoint  string  `yaml:"endpoint"` // non-empty selects a MinIO-compatible endpoint
	AccessKey string  `yaml:"access_key"`
	SecretKey string  `yaml:"secret_key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Weld: WeldConfig{
			Tolerance:   1e-4,
			Overwrite:   true,
			Parallelism: 1,
		},
		Output: OutputConfig{
			Generator: "gltfx",
			Codec:     "go-json",
		},
		Remote: RemoteConfig{
			RateLimit: 0,
			Burst:     1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
