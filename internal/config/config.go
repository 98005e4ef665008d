package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Session holds the settings a run can take from a session file.
type Session struct {
	Breakpoints []int    `yaml:"breakpoints" toml:"breakpoints"`
	Watch       []string `yaml:"watch" toml:"watch"`
	MaxSteps    int      `yaml:"max_steps" toml:"max_steps"`
	Encoding    string   `yaml:"encoding" toml:"encoding"`
	Snapshot    Snapshot `yaml:"snapshot" toml:"snapshot"`
}

// Snapshot selects the database used for named state snapshots.
type Snapshot struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

var ErrUnknownFormat = errors.New("unknown config format")

// Load reads a session file, choosing the decoder by extension.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// ParseYAML decodes a YAML session. Unknown keys are rejected.
func ParseYAML(data []byte) (*Session, error) {
	var s Session
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		// an empty document decodes to the zero session
		if errors.Is(err, io.EOF) {
			return &s, s.Validate()
		}
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	return &s, s.Validate()
}

// ParseTOML decodes a TOML session. Unknown keys are rejected.
func ParseTOML(data []byte) (*Session, error) {
	var s Session
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, fmt.Errorf("decode toml config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode toml config: unknown field %q", undecoded[0].String())
	}
	return &s, s.Validate()
}

// Validate checks value ranges.
func (s *Session) Validate() error {
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", s.MaxSteps)
	}
	for _, line := range s.Breakpoints {
		if line <= 0 {
			return fmt.Errorf("breakpoint line must be positive, got %d", line)
		}
	}
	if s.Snapshot.DSN != "" && s.Snapshot.Driver == "" {
		return errors.New("snapshot dsn given without a driver")
	}
	return nil
}

// Merge overlays the non-zero fields of o onto s.
func (s *Session) Merge(o Session) {
	if len(o.Breakpoints) > 0 {
		s.Breakpoints = mergeUnique(s.Breakpoints, o.Breakpoints)
	}
	if len(o.Watch) > 0 {
		s.Watch = mergeUnique(s.Watch, o.Watch)
	}
	if o.MaxSteps > 0 {
		s.MaxSteps = o.MaxSteps
	}
	if o.Encoding != "" {
		s.Encoding = o.Encoding
	}
	if o.Snapshot.Driver != "" {
		s.Snapshot.Driver = o.Snapshot.Driver
	}
	if o.Snapshot.DSN != "" {
		s.Snapshot.DSN = o.Snapshot.DSN
	}
}

func mergeUnique[T comparable](base, extra []T) []T {
	out := slices.Clone(base)
	for _, v := range extra {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
