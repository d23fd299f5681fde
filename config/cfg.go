package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// RegistryConfig describes additional registry the main one depends on.
	RegistryConfig struct {
		Name    string   `yaml:"name" validate:"required,excludesall=/\\ "`
		Classes []string `yaml:"classes" validate:"dive,required"`
	}

	BuildConfig struct {
		Minify    bool           `yaml:"minify"`
		Layout    Layout         `yaml:"layout" validate:"gte=0"`
		Pretty    bool           `yaml:"pretty"`
		Name      string         `yaml:"name" validate:"required,excludesall=/\\ "`
		Prefix    string         `yaml:"prefix" validate:"omitempty,excludesall=. #:"`
		KeepNames []string       `yaml:"keep_names" validate:"dive,required"`
		Critical  RegistryConfig `yaml:"critical"`
		Manifest  string         `yaml:"manifest" validate:"omitempty,excludesall=/\\"`
		CacheSize int            `yaml:"selector_cache" validate:"min=16"`
		Charset   string         `yaml:"charset"`
		HTML      HTMLConfig     `yaml:"html"`
	}

	HTMLConfig struct {
		Rewrite      bool `yaml:"rewrite"`
		InlineStyles bool `yaml:"inline_styles"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Build     BuildConfig    `yaml:"build"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so yaml.Unmarshal cannot be used
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
