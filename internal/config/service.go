package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServiceConfigNames are the file names FindServiceConfig looks for.
var ServiceConfigNames = []string{"latticed.yaml", "latticed.yml"}

// ServiceConfig represents the latticed.yaml configuration of the gRPC
// service.
type ServiceConfig struct {
	// Listen is the TCP address the service binds (e.g. "127.0.0.1:7457").
	Listen string `yaml:"listen,omitempty"`

	// Declarations lists class declaration files loaded on top of the
	// prelude, in order. Relative paths are resolved against the config
	// file's directory.
	Declarations []string `yaml:"declarations,omitempty"`

	// Journal is the SQLite database requests are recorded in.
	Journal string `yaml:"journal,omitempty"`

	// Record enables the request journal.
	Record bool `yaml:"record,omitempty"`

	// MaxMessageBytes caps the size of a single request; 0 keeps the gRPC
	// default.
	MaxMessageBytes int `yaml:"max_message_bytes,omitempty"`
}

// DefaultServiceConfig returns the configuration used when no file is given.
func DefaultServiceConfig() *ServiceConfig {
	cfg := &ServiceConfig{}
	cfg.setDefaults()
	return cfg
}

// LoadServiceConfig reads and parses a latticed.yaml file.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseServiceConfig(data, path)
}

// ParseServiceConfig parses latticed.yaml content from bytes.
// The path argument is used for error messages and to resolve relative
// declaration paths.
func ParseServiceConfig(data []byte, path string) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	cfg.resolvePaths(filepath.Dir(path))
	return &cfg, nil
}

// FindServiceConfig searches for latticed.yaml starting from dir and walking
// up to parent directories. It returns "" and a nil error when none is found.
func FindServiceConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ServiceConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *ServiceConfig) validate(path string) error {
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return fmt.Errorf("%s: listen: %w", path, err)
		}
	}
	seen := make(map[string]bool, len(c.Declarations))
	for i, d := range c.Declarations {
		if d == "" {
			return fmt.Errorf("%s: declarations[%d]: empty path", path, i)
		}
		if seen[d] {
			return fmt.Errorf("%s: declarations[%d]: %s listed twice", path, i, d)
		}
		seen[d] = true
	}
	if c.MaxMessageBytes < 0 {
		return fmt.Errorf("%s: max_message_bytes must not be negative", path)
	}
	return nil
}

func (c *ServiceConfig) setDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
	if c.Journal == "" {
		c.Journal = DefaultJournalPath
	}
}

func (c *ServiceConfig) resolvePaths(base string) {
	for i, d := range c.Declarations {
		if !filepath.IsAbs(d) {
			c.Declarations[i] = filepath.Join(base, d)
		}
	}
	if c.Journal != ":memory:" && !filepath.IsAbs(c.Journal) {
		c.Journal = filepath.Join(base, c.Journal)
	}
}
