package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/shared"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Root kinds accepted in Config.Roots.
const (
	RootArray = "array"
	RootMap   = "map"
)

// Config describes one replica: who it is and which root types its
// document declares up front.
type Config struct {
	ClientName string            `json:"client_name" yaml:"client_name"`
	ClientID   uint64            `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	GUID       string            `json:"guid,omitempty" yaml:"guid,omitempty"`
	LogLevel   string            `json:"log_level" yaml:"log_level"`
	Roots      map[string]string `json:"roots,omitempty" yaml:"roots,omitempty"`
}

func Default() *Config {
	return &Config{
		ClientName: "local",
		LogLevel:   log.LevelSilent.String(),
		Roots:      map[string]string{},
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) Validate() error {
	if c.ClientName == "" && c.ClientID == 0 {
		return fmt.Errorf("%w: client_name or client_id is required", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Roots)) {
		switch c.Roots[name] {
		case RootArray, RootMap:
		default:
			return fmt.Errorf("%w: root %q has kind %q", ErrInvalidConfig, name, c.Roots[name])
		}
	}
	return nil
}

// ResolvedClientID returns ClientID, or a stable id hashed from ClientName.
func (c *Config) ResolvedClientID() uint64 {
	if c.ClientID != 0 {
		return c.ClientID
	}
	return shared.ClientIDFromName(c.ClientName)
}

// ResolvedGUID returns GUID, or a fresh random one.
func (c *Config) ResolvedGUID() string {
	if c.GUID != "" {
		return c.GUID
	}
	return uuid.NewString()
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelSilent
	}
	return level
}
