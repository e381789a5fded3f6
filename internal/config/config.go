package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPrompt      = ": "
	DefaultHistoryName = ".smallsh_history"
	DefaultHistorySize = 1000
	DefaultMaxLine     = 2048
	DefaultMaxArgs     = 512
	// MinJobs is the smallest background job table the shell runs with.
	MinJobs = 512
)

type Config struct {
	Prompt      string `yaml:"prompt"`
	HomeDir     string `yaml:"home_dir"`
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size" validate:"gte=0"`
	MaxLine     int    `yaml:"max_line" validate:"gte=1"`
	MaxArgs     int    `yaml:"max_args" validate:"gte=1"`
	MaxJobs     int    `yaml:"max_jobs" validate:"gte=512"`
	LineEditing bool   `yaml:"line_editing"`
	Color       bool   `yaml:"color"`
	LogFile     string `yaml:"log_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Prompt:      DefaultPrompt,
		HistorySize: DefaultHistorySize,
		MaxLine:     DefaultMaxLine,
		MaxArgs:     DefaultMaxArgs,
		MaxJobs:     MinJobs,
		LineEditing: true,
		Color:       true,
	}
}

// Load reads file from fsys over the defaults. A missing file is not an
// error.
func Load(fsys afero.Fs, file string) (*Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fsys, file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", file, err)
		}
	}

	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() error {
	if c.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("home directory: %w", err)
		}
		c.HomeDir = home
	}

	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HomeDir, DefaultHistoryName)
	}
	return nil
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	return validate.Struct(c)
}
