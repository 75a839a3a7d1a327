package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Generator GeneratorConfig `toml:"generator"`
	Logging   LoggingConfig   `toml:"logging"`
}

type GeneratorConfig struct {
	DebugComparisons bool   `toml:"debug_comparisons"`
	Package          string `toml:"package"` // empty: the output directory name
	OutputDir        string `toml:"output_dir"`
	FileSuffix       string `toml:"file_suffix"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Generator: GeneratorConfig{
			DebugComparisons: false,
			OutputDir:        ".",
			FileSuffix:       "_detector.go",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over defaults. A missing or empty file
// leaves the defaults untouched.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Generator.OutputDir) == "" {
		return errors.New("generator.output_dir is required")
	}
	if pkg := c.Generator.Package; pkg != "" && !token.IsIdentifier(pkg) {
		return fmt.Errorf("invalid generator.package: %q", pkg)
	}
	if !strings.HasSuffix(c.Generator.FileSuffix, ".go") || strings.HasSuffix(c.Generator.FileSuffix, "_test.go") {
		return fmt.Errorf("invalid generator.file_suffix: %q", c.Generator.FileSuffix)
	}
	if strings.ContainsRune(c.Generator.FileSuffix, filepath.Separator) {
		return fmt.Errorf("generator.file_suffix must not contain a path separator: %q", c.Generator.FileSuffix)
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}
