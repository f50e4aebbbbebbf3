package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"mdsync/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	HighlightConfig struct {
		Enable bool   `yaml:"enable"`
		Style  string `yaml:"style" validate:"required_if=Enable true"`
	}

	CacheConfig struct {
		Enable     bool          `yaml:"enable"`
		Expiration time.Duration `yaml:"expiration" validate:"gte=0"`
		Cleanup    time.Duration `yaml:"cleanup" validate:"gte=0"`
	}

	InitialConfig struct {
		Markdown string `yaml:"markdown"`
		CSS      string `yaml:"css"`
	}

	DocumentConfig struct {
		DiagramLanguage string          `yaml:"diagram_language" validate:"required,excludesall= {}"`
		AutoHeadingIDs  bool            `yaml:"auto_heading_ids"`
		Highlight       HighlightConfig `yaml:"highlight"`
		Cache           CacheConfig     `yaml:"cache"`
		Initial         InitialConfig   `yaml:"initial"`
	}

	FilesConfig struct {
		Markdown string `yaml:"markdown" validate:"required"`
		HTML     string `yaml:"html" validate:"required"`
		CSS      string `yaml:"css" validate:"required"`
	}

	SessionConfig struct {
		Reentry         common.ReentryPolicy `yaml:"reentry" validate:"gte=0"`
		ScrollLock      time.Duration        `yaml:"scroll_lock" validate:"gte=0"`
		Debounce        time.Duration        `yaml:"debounce" validate:"gte=0"`
		SelectionMarker string               `yaml:"selection_marker" validate:"required,excludesall= ."`
		StorePath       string               `yaml:"store_path,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
		Files           FilesConfig          `yaml:"files"`
	}

	NATSConfig struct {
		URL      string       `yaml:"url,omitempty" validate:"omitempty,url"`
		User     string       `yaml:"user,omitempty"`
		Password SecretString `yaml:"password,omitempty"`
		Token    SecretString `yaml:"token,omitempty"`
	}

	RedisConfig struct {
		Addr     string       `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
		Username string       `yaml:"username,omitempty"`
		Password SecretString `yaml:"password,omitempty"`
		DB       int          `yaml:"db" validate:"gte=0"`
	}

	TransportConfig struct {
		Kind    common.TransportKind `yaml:"kind" validate:"gte=0"`
		Channel string               `yaml:"channel" validate:"required"`
		Timeout time.Duration        `yaml:"timeout" validate:"gte=0"`
		NATS    NATSConfig           `yaml:"nats"`
		Redis   RedisConfig          `yaml:"redis"`
	}

	PreviewConfig struct {
		Title        string `yaml:"title"`
		TemplatePath string `yaml:"template_path,omitempty" sanitize:"assure_file_access"`
		PageTemplate string `yaml:"page_template"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig  `yaml:"document"`
		Session   SessionConfig   `yaml:"session"`
		Transport TransportConfig `yaml:"transport"`
		Preview   PreviewConfig   `yaml:"preview"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	PageTemplateFieldName TemplateFieldName = "page_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(PageTemplateFieldName)),
)

// transportChecks makes sure selected transport has enough settings to
// connect.
func transportChecks(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	switch cfg.Transport.Kind {
	case common.TransportKindNats:
		if cfg.Transport.NATS.URL == "" {
			sl.ReportError(cfg.Transport.NATS.URL, "Transport.NATS.URL", "URL", "required_for_nats", "")
		}
	case common.TransportKindRedis:
		if cfg.Transport.Redis.Addr == "" {
			sl.ReportError(cfg.Transport.Redis.Addr, "Transport.Redis.Addr", "Addr", "required_for_redis", "")
		}
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitization failed: %w", err)
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(transportChecks)); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadEnvironment loads variables from .env file (if present) in current
// directory, so configuration template could reference them. Already set
// variables are not overwritten.
func LoadEnvironment(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to load environment from %q: %w", f, err)
		}
	}
	return nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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

	// overwrite cfg values with values from the file
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
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
