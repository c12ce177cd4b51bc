package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Digest  DigestConfig  `yaml:"digest" envconfig:"DIGEST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/digest.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	SchemasDir string `yaml:"schemas_dir" envconfig:"SCHEMAS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DigestConfig contains defaults for the digest operations
type DigestConfig struct {
	Rig          string  `yaml:"rig" envconfig:"RIG" default:"te38"`
	Format       string  `yaml:"format" envconfig:"FORMAT" default:"tsv" validate:"oneof=tsv csv xlsx"`
	LengthFactor float64 `yaml:"length_factor" envconfig:"LENGTH_FACTOR" validate:"gte=0,lte=1"`
	Summarize    bool    `yaml:"summarize" envconfig:"SUMMARIZE"`
}

var validate = validator.New()

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("COMPEND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if isDefault(envConfig.Logging.Level, "info") && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if isDefault(envConfig.Logging.Output, "console") && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if isDefault(envConfig.Logging.FilePath, "logs/digest.log") && fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}

	if envConfig.Paths.DataDir == "" {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if envConfig.Paths.OutputDir == "" {
		envConfig.Paths.OutputDir = fileConfig.Paths.OutputDir
	}
	if envConfig.Paths.SchemasDir == "" {
		envConfig.Paths.SchemasDir = fileConfig.Paths.SchemasDir
	}
	if envConfig.Paths.LogsDir == "" {
		envConfig.Paths.LogsDir = fileConfig.Paths.LogsDir
	}

	if isDefault(envConfig.Digest.Rig, "te38") && fileConfig.Digest.Rig != "" {
		envConfig.Digest.Rig = fileConfig.Digest.Rig
	}
	if isDefault(envConfig.Digest.Format, "tsv") && fileConfig.Digest.Format != "" {
		envConfig.Digest.Format = fileConfig.Digest.Format
	}
	if envConfig.Digest.LengthFactor == 0 && fileConfig.Digest.LengthFactor != 0 {
		envConfig.Digest.LengthFactor = fileConfig.Digest.LengthFactor
	}
	if !envConfig.Digest.Summarize && fileConfig.Digest.Summarize {
		envConfig.Digest.Summarize = true
	}

	return envConfig
}

func isDefault(value, def string) bool {
	return value == "" || strings.EqualFold(value, def)
}

// Validate checks configuration constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the config file path, honoring an override
func getConfigFilePath() string {
	if path := os.Getenv("COMPEND_CONFIG_FILE"); path != "" {
		return path
	}
	return "compend.yaml"
}
