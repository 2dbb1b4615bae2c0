package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	S3       S3Config       `mapstructure:"s3" yaml:"s3"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`

	Port string `mapstructure:"port" yaml:"port"`
}

type S3Config struct {
	Region         string `mapstructure:"region" yaml:"region"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey      string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey      string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket         string `mapstructure:"bucket" yaml:"bucket"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
	DisableSSL     bool   `mapstructure:"disable_ssl" yaml:"disable_ssl"`
}

type DownloadConfig struct {
	PartSize       int64  `mapstructure:"part_size" yaml:"part_size"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

type ResolverConfig struct {
	Binary     string `mapstructure:"binary" yaml:"binary"`
	CookieFile string `mapstructure:"cookie_file" yaml:"cookie_file"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// FALLBACK: containerized deployments mount config at /config
		if path == "config.yaml" {
			if _, errEx := os.Stat("/config/config.yaml"); errEx == nil {
				path = "/config/config.yaml"
			} else {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("download.part_size", 5*1024*1024) // store minimum part size
	v.SetDefault("download.timeout_seconds", 120)
	v.SetDefault("resolver.binary", "yt-dlp")
	v.SetDefault("store.sqlite_path", "vodarc.db")
	v.SetDefault("log.path", "vodarc.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	// Read config File
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	// Support Environment Variables
	v.SetEnvPrefix("VODARC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.S3.Bucket == "" {
		return errors.New("s3.bucket is required")
	}

	if c.S3.Region == "" && c.S3.Endpoint == "" {
		return errors.New("either s3.region or s3.endpoint must be set")
	}

	// All parts except the last must satisfy the store's 5 MiB minimum
	if c.Download.PartSize < 5*1024*1024 {
		return fmt.Errorf("download.part_size must be at least 5 MiB, got %d", c.Download.PartSize)
	}

	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = 120
	}

	return nil
}
