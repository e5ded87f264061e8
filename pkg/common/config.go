package common

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables read from the optional YAML configuration file.
// Zero values are replaced by the defaults in DefaultConfig.
type Config struct {
	Device             int  `yaml:"device"`
	ChunkSize          int  `yaml:"chunk_size"`
	PollIntervalMs     int  `yaml:"poll_interval_ms"`
	MaxPollAttempts    int  `yaml:"max_poll_attempts"`
	InterimIntervalMs  int  `yaml:"interim_interval_ms"`
	MaxInterimAttempts int  `yaml:"max_interim_attempts"`
	Verbose            bool `yaml:"verbose"`
}

// Defaults used when no configuration file is present
const (
	DefaultChunkSize          = 0x100000
	DefaultPollIntervalMs     = 100
	DefaultInterimIntervalMs  = 100
	DefaultMaxInterimAttempts = 4
)

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		ChunkSize:          DefaultChunkSize,
		PollIntervalMs:     DefaultPollIntervalMs,
		InterimIntervalMs:  DefaultInterimIntervalMs,
		MaxInterimAttempts: DefaultMaxInterimAttempts,
	}
}

// LoadConfig reads a YAML configuration file. A missing file is not an
// error and yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogDebug("Config file %s not found, using defaults", path)
			return cfg, nil
		}
		return cfg, FormatError(ErrFailedToReadConfig, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), FormatError(ErrFailedToParseConfig, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ChunkSize <= 24 {
		c.ChunkSize = def.ChunkSize
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = def.PollIntervalMs
	}
	if c.InterimIntervalMs <= 0 {
		c.InterimIntervalMs = def.InterimIntervalMs
	}
	if c.MaxInterimAttempts <= 0 {
		c.MaxInterimAttempts = def.MaxInterimAttempts
	}
	if c.MaxPollAttempts < 0 {
		c.MaxPollAttempts = 0
	}
}

// PollInterval is the base interval between reply-length polls
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// InterimInterval is the base interval of the interim retry schedule
func (c Config) InterimInterval() time.Duration {
	return time.Duration(c.InterimIntervalMs) * time.Millisecond
}
