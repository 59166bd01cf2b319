// Package config loads and validates the .reqtrace.yaml project
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file discovered in the
// working directory or one of its parents.
const FileName = ".reqtrace.yaml"

// Output controls where and how the report is written.
type Output struct {
	Format string `yaml:"format" json:"format"`
	Path   string `yaml:"path" json:"path"`
}

// Config describes which files are traced and how results are
// reported.
type Config struct {
	SourceDirs      []string          `yaml:"source_dirs" json:"source_dirs"`
	SpecDirs        []string          `yaml:"spec_dirs" json:"spec_dirs"`
	SourcePatterns  []string          `yaml:"source_patterns" json:"source_patterns"`
	ExcludePatterns []string          `yaml:"exclude_patterns" json:"exclude_patterns"`
	ArtifactTypes   []string          `yaml:"artifact_types" json:"artifact_types"`
	TestTypes       map[string]string `yaml:"test_types" json:"test_types"`
	Output          Output            `yaml:"output" json:"output"`
	Verbose         bool              `yaml:"verbose" json:"verbose"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		SourceDirs:     []string{"."},
		SpecDirs:       []string{"."},
		SourcePatterns: []string{"**/*"},
		ExcludePatterns: []string{
			"**/.git/**",
			"**/node_modules/**",
			"**/vendor/**",
		},
		ArtifactTypes: []string{"feat", "req", "arch", "dsn", "impl", "utest", "itest"},
		TestTypes: map[string]string{
			"_test.": "utest",
			"itest":  "itest",
		},
		Output: Output{
			Format: "html",
			Path:   "reqtrace-report.html",
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Discover walks from start up through its parents looking for the
// configuration file. When none exists, defaults apply and the
// returned path is empty.
func Discover(start string) (*Config, string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			cfg, loadErr := Load(candidate)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return cfg, candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), "", nil
		}
		dir = parent
	}
}

// defaultTemplate is the scaffold written by init. It mirrors
// Default() and keeps the comments yaml.Marshal would drop.
const defaultTemplate = `# reqtrace project configuration.
# Directories are relative to this file.

# Markdown documents declaring specification items.
spec_dirs:
  - .

# Source trees scanned for coverage tags.
source_dirs:
  - .

# Glob patterns (doublestar) selecting source files to scan.
source_patterns:
  - "**/*"

exclude_patterns:
  - "**/.git/**"
  - "**/node_modules/**"
  - "**/vendor/**"

# Known artifact types; items outside this list log a warning.
artifact_types: [feat, req, arch, dsn, impl, utest, itest]

# Artifact type implied for [covers:...] tags, by path substring.
test_types:
  "_test.": utest
  "itest": itest

output:
  format: html # html or json
  path: reqtrace-report.html

verbose: false
`

// WriteDefault writes the commented scaffold configuration.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0600)
}

// Save writes the configuration with restrictive permissions.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func applyDefaults(cfg *Config) {
	def := Default()
	if len(cfg.SourceDirs) == 0 {
		cfg.SourceDirs = def.SourceDirs
	}
	if len(cfg.SpecDirs) == 0 {
		cfg.SpecDirs = def.SpecDirs
	}
	if len(cfg.SourcePatterns) == 0 {
		cfg.SourcePatterns = def.SourcePatterns
	}
	if len(cfg.ExcludePatterns) == 0 {
		cfg.ExcludePatterns = def.ExcludePatterns
	}
	if len(cfg.ArtifactTypes) == 0 {
		cfg.ArtifactTypes = def.ArtifactTypes
	}
	if len(cfg.TestTypes) == 0 {
		cfg.TestTypes = def.TestTypes
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = def.Output.Format
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = def.Output.Path
	}
}

// schema guards shape and value constraints before the config is
// trusted by the rest of the pipeline.
const schema = `{
  "type": "object",
  "properties": {
    "source_dirs": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "spec_dirs": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "source_patterns": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "exclude_patterns": {"type": "array", "items": {"type": "string"}},
    "artifact_types": {"type": "array", "items": {"type": "string", "pattern": "^[A-Za-z][A-Za-z0-9]*$"}},
    "test_types": {"type": "object", "additionalProperties": {"type": "string", "pattern": "^[A-Za-z][A-Za-z0-9]*$"}},
    "output": {
      "type": "object",
      "properties": {
        "format": {"type": "string", "enum": ["html", "json"]},
        "path": {"type": "string", "minLength": 1}
      }
    },
    "verbose": {"type": "boolean"}
  }
}`

func validate(cfg *Config) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(cfg),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}
