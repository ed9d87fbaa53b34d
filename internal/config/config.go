// Package config loads formulate settings from YAML and FORMULATE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid reports a configuration value outside its allowed set.
var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Forms   FormsConfig   `mapstructure:"forms"`
	Locales LocalesConfig `mapstructure:"locales"`
	Submit  SubmitConfig  `mapstructure:"submit"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type FormsConfig struct {
	Dir string `mapstructure:"dir"`
}

type LocalesConfig struct {
	Dir     string `mapstructure:"dir"`
	Default string `mapstructure:"default"`
}

type SubmitConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(8<<20))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "formulate")
	v.SetDefault("storage.mongo.collection", "submissions")
	v.SetDefault("forms.dir", "forms")
	v.SetDefault("locales.dir", "")
	v.SetDefault("locales.default", "en")
	v.SetDefault("submit.timeout", 30*time.Second)
}

// Load reads configPath, when given, and overlays FORMULATE_ environment
// variables (server.addr becomes FORMULATE_SERVER_ADDR).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FORMULATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageMongo:
	default:
		return fmt.Errorf("%w: storage.type %q", ErrInvalid, c.Storage.Type)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Submit.Timeout <= 0 {
		return fmt.Errorf("%w: submit.timeout must be positive", ErrInvalid)
	}
	return nil
}
