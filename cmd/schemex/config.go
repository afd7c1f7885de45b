package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fwojciec/schemex"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultOutputDir receives result files when neither flag nor config set one.
const defaultOutputDir = "output"

// Config is the optional YAML configuration file. Flags override it.
type Config struct {
	Fields       []string            `yaml:"fields"`
	Descriptions map[string]string   `yaml:"descriptions"`
	Synonyms     map[string][]string `yaml:"synonyms"`
	URLs         []string            `yaml:"urls"`
	Output       string              `yaml:"output"`
	Model        string              `yaml:"model"`
	Concurrency  int                 `yaml:"concurrency"`
}

// LoadConfig reads the configuration file at path. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, schemex.Errorf(schemex.EINVALID, "cannot read config %q: %v", path, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig parses a YAML configuration. An empty document is a valid,
// empty configuration.
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, schemex.Errorf(schemex.EINVALID, "invalid config: %v", err)
	}
	if cfg.Concurrency < 0 {
		return nil, schemex.Errorf(schemex.EINVALID, "config concurrency must not be negative")
	}
	return &cfg, nil
}

// ReadTargets returns the target URLs listed in r, one per line.
// Blank lines and lines starting with '#' are ignored.
func ReadTargets(r io.Reader) ([]string, error) {
	var targets []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return targets, nil
}

// readTargetsFile is ReadTargets over a file.
func readTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, schemex.Errorf(schemex.EINVALID, "cannot read URLs file %q: %v", path, err)
	}
	defer f.Close()
	return ReadTargets(f)
}

// loadDotEnv loads environment variables from path if it exists. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
