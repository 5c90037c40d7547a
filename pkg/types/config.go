package types

import (
	"errors"
	"fmt"
)

// Config holds backend selection and codec parameters.
type Config struct {
	Backend               string    `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir               string    `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	BlobFormat            string    `json:"blob_format" yaml:"blob_format" mapstructure:"blob_format"`
	ValidateTypes         []string  `json:"validate_types" yaml:"validate_types" mapstructure:"validate_types"`
	IgnoreMappingFailures bool      `json:"ignore_mapping_failures" yaml:"ignore_mapping_failures" mapstructure:"ignore_mapping_failures"`
	Log                   LogConfig `json:"log" yaml:"log" mapstructure:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string         `json:"level" yaml:"level" mapstructure:"level"`
	Format      string         `json:"format" yaml:"format" mapstructure:"format"` // "console" or "json"
	Outputs     []string       `json:"outputs" yaml:"outputs" mapstructure:"outputs"`
	Development bool           `json:"development" yaml:"development" mapstructure:"development"`
	Rotation    RotationConfig `json:"rotation" yaml:"rotation" mapstructure:"rotation"`
}

// RotationConfig configures lumberjack file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `json:"enable" yaml:"enable" mapstructure:"enable"`
	Filename   string `json:"filename" yaml:"filename" mapstructure:"filename"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported blob formats.
const (
	BlobFormatJSON = "json"
	BlobFormatCBOR = "cbor"
)

// DefaultValidateTypes are the element types whose references are checked
// by default.
var DefaultValidateTypes = []string{string(ElementTypeDocument), string(ElementTypeAsset)}

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrBlobFormatUnknown   = errors.New("unknown blob format")
	ErrInternalTypeUnknown = errors.New("unknown internal element type")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownBlobFormats = map[string]bool{
	BlobFormatJSON: true,
	BlobFormatCBOR: true,
}

// Validate checks that the Config is well-formed. An empty BlobFormat is
// accepted and means JSON.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.BlobFormat != "" && !knownBlobFormats[c.BlobFormat] {
		return fmt.Errorf("%w: %q", ErrBlobFormatUnknown, c.BlobFormat)
	}
	for _, t := range c.ValidateTypes {
		if _, err := ParseElementType(t); err != nil {
			return err
		}
	}
	return nil
}

// GetBlobFormat returns the configured blob format, defaulting to JSON.
func (c Config) GetBlobFormat() string {
	if c.BlobFormat == "" {
		return BlobFormatJSON
	}
	return c.BlobFormat
}

// GetValidateTypes returns the element types to validate, defaulting to
// DefaultValidateTypes when none are configured.
func (c Config) GetValidateTypes() []ElementType {
	names := c.ValidateTypes
	if len(names) == 0 {
		names = DefaultValidateTypes
	}
	out := make([]ElementType, 0, len(names))
	for _, n := range names {
		out = append(out, ElementType(n))
	}
	return out
}
