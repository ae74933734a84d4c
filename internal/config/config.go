package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds the application configuration
type Config struct {
	Display DisplayConfig `json:"display"`
	Suggest SuggestConfig `json:"suggest"`
	Output  OutputConfig  `json:"output"`
	Log     LogConfig     `json:"log"`
	Store   StoreConfig   `json:"store"`
}

// DisplayConfig holds the defaults for the image shown on the drawing surface
type DisplayConfig struct {
	MaxWidth  int     `json:"max_width" validate:"gt=0"`
	MaxHeight int     `json:"max_height" validate:"gt=0"`
	LineWidth float64 `json:"line_width" validate:"gt=0"`
	UseSpace  bool    `json:"use_space"`
	Format    string  `json:"format" validate:"oneof=png jpg jpeg webp"`
	Quality   int     `json:"quality" validate:"min=1,max=100"`
}

// SuggestConfig holds configuration for vision-model box suggestions
type SuggestConfig struct {
	Backend       string  `json:"backend" validate:"oneof=ollama llamacpp"`
	URL           string  `json:"url"`
	Model         string  `json:"model"`
	SendFormat    string  `json:"send_format" validate:"oneof=png jpg jpeg webp"`
	SendSize      int     `json:"send_size" validate:"gt=0"`
	SendQuality   int     `json:"send_quality" validate:"min=1,max=100"`
	MinConfidence float64 `json:"min_confidence" validate:"min=0,max=1"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir string `json:"output_dir"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `json:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	File  string `json:"file"`
}

// StoreConfig holds the annotation database location; empty disables it
type StoreConfig struct {
	Path string `json:"path"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			MaxWidth:  512,
			MaxHeight: 512,
			LineWidth: 5,
			Format:    "png",
			Quality:   90,
		},
		Suggest: SuggestConfig{
			Backend:       "ollama",
			URL:           "http://localhost:11434",
			Model:         "llava",
			SendFormat:    "jpg",
			SendSize:      1536,
			SendQuality:   85,
			MinConfidence: 0.2,
		},
		Output: OutputConfig{
			OutputDir: "./output",
			Suffix:    "_annotated",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads the file at filename when it exists, falls back to defaults
// otherwise, then applies environment overrides
func Load(filename string) (*Config, error) {
	config := Default()
	if filename != "" {
		loaded, err := LoadFromFile(filename)
		switch {
		case err == nil:
			config = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings from LP_* environment variables. A .env file
// in the working directory is loaded first if present.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	strs := map[string]*string{
		"LP_DISPLAY_FORMAT":  &c.Display.Format,
		"LP_SUGGEST_BACKEND": &c.Suggest.Backend,
		"LP_SUGGEST_URL":     &c.Suggest.URL,
		"LP_SUGGEST_MODEL":   &c.Suggest.Model,
		"LP_OUTPUT_DIR":      &c.Output.OutputDir,
		"LP_LOG_LEVEL":       &c.Log.Level,
		"LP_LOG_FILE":        &c.Log.File,
		"LP_STORE_PATH":      &c.Store.Path,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LP_MAX_WIDTH":  &c.Display.MaxWidth,
		"LP_MAX_HEIGHT": &c.Display.MaxHeight,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv("LP_LINE_WIDTH"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LP_LINE_WIDTH: %w", err)
		}
		c.Display.LineWidth = f
	}
	if v, ok := os.LookupEnv("LP_USE_SPACE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LP_USE_SPACE: %w", err)
		}
		c.Display.UseSpace = b
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "location-processor", "config.json")
}
