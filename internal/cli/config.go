package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datafields/internal/paths"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend               = "backend"
	cfgKeyDataDir               = "data_dir"
	cfgKeyBlobFormat            = "blob_format"
	cfgKeyValidateTypes         = "validate_types"
	cfgKeyIgnoreMappingFailures = "ignore_mapping_failures"
	cfgKeyLogLevel              = "log.level"
	cfgKeyLogFormat             = "log.format"
	cfgKeyLogOutputs            = "log.outputs"
	cfgKeyLogRotationEnable     = "log.rotation.enable"
)

// defaultConfigFile is the content written to config.yaml on first run.
type defaultConfigFile struct {
	Backend       string           `yaml:"backend"`
	BlobFormat    string           `yaml:"blob_format"`
	ValidateTypes []string         `yaml:"validate_types"`
	Log           defaultLogConfig `yaml:"log"`
}

type defaultLogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. A missing config.yaml is not
// an error. Log output defaults to fieldctl.log in configDir.
func loadConfig(configDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir)); err != nil {
		return types.Config{}, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyBlobFormat, types.BlobFormatJSON)
	v.SetDefault(cfgKeyValidateTypes, types.DefaultValidateTypes)
	v.SetDefault(cfgKeyIgnoreMappingFailures, false)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)
	v.SetDefault(cfgKeyLogOutputs, []string{})
	v.SetDefault(cfgKeyLogRotationEnable, false)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = []string{filepath.Join(configDir, paths.LogFileName)}
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config %s: %w", paths.ConfigFile(configDir), err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&defaultConfigFile{
		Backend:       types.BackendSQLite,
		BlobFormat:    types.BlobFormatJSON,
		ValidateTypes: types.DefaultValidateTypes,
		Log:           defaultLogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
