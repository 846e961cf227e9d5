// Package config loads CLI settings from defaults, an optional TOML file, and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/meigma/toc"
)

const (
	configDirName  = "toc"
	configFileName = "config.toml"

	// DefaultTimeout bounds a whole resolution.
	DefaultTimeout = 30 * time.Second
)

// Environment variables read by Load.
const (
	EnvConfig    = "TOC_CONFIG"
	EnvChunkSize = "TOC_CHUNK_SIZE"
	EnvTailSize  = "TOC_TAIL_SIZE"
	EnvMinSize   = "TOC_MIN_SIZE"
	EnvTimeout   = "TOC_TIMEOUT"
	EnvUserAgent = "TOC_USER_AGENT"
	EnvLogLevel  = "TOC_LOG_LEVEL"
	EnvPlainHTTP = "TOC_PLAIN_HTTP"
)

// Config holds the CLI settings.
type Config struct {
	ChunkSize int64
	TailSize  int64
	MinSize   int64
	Timeout   time.Duration
	UserAgent string
	LogLevel  slog.Level
	PlainHTTP bool

	// Headers are added to every HTTP request.
	Headers map[string]string

	// Path is the config file that was read, or empty if none was.
	Path string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ChunkSize: toc.DefaultChunkSize,
		TailSize:  toc.DefaultTailSize,
		Timeout:   DefaultTimeout,
		LogLevel:  slog.LevelWarn,
		Headers:   map[string]string{},
	}
}

// DefaultPath returns <UserConfigDir>/toc/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Load builds a Config from defaults, the config file, and the environment
// as reported by lookup (os.LookupEnv in production). The file named by
// TOC_CONFIG must exist; the default file is optional.
func Load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	path, explicit := lookup(EnvConfig)
	if !explicit || path == "" {
		explicit = false
		// Without a user config dir there is no default file to read.
		path, _ = DefaultPath() //nolint:errcheck // absence is not an error
	}

	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readFile applies the file at path. A missing file is only an error when it
// was named explicitly.
func (c *Config) readFile(path string, explicit bool) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := c.applyFile(f); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

func (c *Config) applyFile(r io.Reader) error {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}

	sizes := []struct {
		key string
		dst *int64
	}{
		{"chunk_size", &c.ChunkSize},
		{"tail_size", &c.TailSize},
		{"min_size", &c.MinSize},
	}
	for _, s := range sizes {
		v := tree.Get(s.key)
		if v == nil {
			continue
		}
		n, err := sizeValue(v)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = n
	}

	if v, ok := tree.Get("timeout").(string); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if v, ok := tree.Get("user_agent").(string); ok {
		c.UserAgent = v
	}
	if v, ok := tree.Get("log_level").(string); ok {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if v, ok := tree.Get("plain_http").(bool); ok {
		c.PlainHTTP = v
	}
	if headers, ok := tree.Get("headers").(*toml.Tree); ok {
		for key, value := range headers.ToMap() {
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("headers.%s: want string, got %T", key, value)
			}
			c.Headers[key] = s
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	sizes := []struct {
		key string
		dst *int64
	}{
		{EnvChunkSize, &c.ChunkSize},
		{EnvTailSize, &c.TailSize},
		{EnvMinSize, &c.MinSize},
	}
	for _, s := range sizes {
		v, ok := lookup(s.key)
		if !ok || v == "" {
			continue
		}
		n, err := ParseSize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = n
	}

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	if v, ok := lookup(EnvPlainHTTP); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPlainHTTP, err)
		}
		c.PlainHTTP = b
	}
	return nil
}

func sizeValue(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("invalid size %d", v)
		}
		return v, nil
	case string:
		return ParseSize(v)
	default:
		return 0, fmt.Errorf("want size, got %T", v)
	}
}

// ParseSize parses a byte count with an optional k, kb, m, mb, g or gb
// suffix (binary multiples, case-insensitive), e.g. "64k" or "1MB".
func ParseSize(value string) (int64, error) {
	text := strings.ToLower(strings.TrimSpace(value))

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"kb", 1 << 10}, {"k", 1 << 10},
		{"mb", 1 << 20}, {"m", 1 << 20},
		{"gb", 1 << 30}, {"g", 1 << 30},
		{"b", 1},
	} {
		if strings.HasSuffix(text, unit.suffix) {
			multiplier = unit.mult
			text = strings.TrimSpace(strings.TrimSuffix(text, unit.suffix))
			break
		}
	}

	if text == "" {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	raw, err := strconv.ParseInt(text, 10, 64)
	if err != nil || raw < 0 {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if raw > 0 && multiplier > (1<<63-1)/raw {
		return 0, fmt.Errorf("size %q overflows", value)
	}
	return raw * multiplier, nil
}
