// Package config holds the quadstream configuration file format.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aleksaelezovic/quadstream/internal/bulk"
	"github.com/aleksaelezovic/quadstream/internal/grammar"
	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/source"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	Parser  Parser  `toml:"parser"`
	Loader  Loader  `toml:"loader"`
	Storage Storage `toml:"storage"`
	Log     Log     `toml:"log"`
}

// Parser configures every parse session.
type Parser struct {
	// Dialect is "w3c" or "legacy".
	Dialect string `toml:"dialect"`
	// Queue is "eager", "buffered" or "async".
	Queue      string `toml:"queue"`
	BufferSize int    `toml:"buffer-size"`
	// ReadBufferSize above zero reads the input in fixed blocks of that many
	// bytes instead of straight from the stream.
	ReadBufferSize int `toml:"read-buffer-size"`
	// Charset is "auto" or an encoding name such as "utf-16le" or "latin1".
	Charset     string `toml:"charset"`
	BaseURI     string `toml:"base-uri"`
	TraceTokens bool   `toml:"trace-tokens"`
}

type Loader struct {
	Workers   int    `toml:"workers"`
	BatchSize int    `toml:"batch-size"`
	OnError   string `toml:"on-error"`
}

// Storage selects the Badger directory. InMemory ignores Path.
type Storage struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in-memory"`
}

type Log struct {
	// Level is a zap level name.
	Level string `toml:"level"`
	// Format is "console" or "json".
	Format string `toml:"format"`
}

var defaultConf = Config{
	Parser: Parser{
		Dialect:    "w3c",
		Queue:      "buffered",
		BufferSize: tokenqueue.DefaultBufferSize,
		Charset:    "auto",
	},
	Loader: Loader{
		Workers:   bulk.DefaultWorkers,
		BatchSize: bulk.DefaultBatchSize,
		OnError:   string(bulk.Skip),
	},
	Storage: Storage{
		Path: "./data",
	},
	Log: Log{
		Level:  "info",
		Format: "console",
	},
}

// NewConfig creates a new config instance with default values.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// Load overlays the values of a TOML file on c. Unknown keys are an error.
func (c *Config) Load(confFile string) error {
	meta, err := toml.DecodeFile(confFile, c)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", confFile, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, confFile, strings.Join(keys, ", "))
	}
	return nil
}

// Valid checks every field that has a closed set of values.
func (c *Config) Valid() error {
	if _, ok := grammar.ParseDialect(c.Parser.Dialect); !ok {
		return fmt.Errorf("%w: unknown dialect %q", ErrInvalidConfig, c.Parser.Dialect)
	}
	if _, err := tokenqueue.ParseMode(c.Parser.Queue); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Parser.BufferSize < 0 {
		return fmt.Errorf("%w: buffer-size must not be negative", ErrInvalidConfig)
	}
	if c.Parser.ReadBufferSize < 0 {
		return fmt.Errorf("%w: read-buffer-size must not be negative", ErrInvalidConfig)
	}
	if err := source.CheckCharset(c.Parser.Charset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Loader.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.Loader.BatchSize < 1 {
		return fmt.Errorf("%w: batch-size must be at least 1", ErrInvalidConfig)
	}
	if _, err := bulk.ParsePolicy(c.Loader.OnError); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is empty", ErrInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// ParserSettings converts the [parser] table. Call Valid first.
func (c *Config) ParserSettings(logger *zap.Logger) parsing.Settings {
	dialect, _ := grammar.ParseDialect(c.Parser.Dialect)
	mode, _ := tokenqueue.ParseMode(c.Parser.Queue)
	return parsing.Settings{
		Dialect:        dialect,
		QueueMode:      mode,
		BufferSize:     c.Parser.BufferSize,
		ReadBufferSize: c.Parser.ReadBufferSize,
		Charset:        c.Parser.Charset,
		BaseURI:        c.Parser.BaseURI,
		TraceTokens:    c.Parser.TraceTokens,
		Logger:         logger,
	}
}

// LoaderConfig converts the [loader] table. Call Valid first.
func (c *Config) LoaderConfig(logger *zap.Logger) bulk.Config {
	policy, _ := bulk.ParsePolicy(c.Loader.OnError)
	return bulk.Config{
		Workers:   c.Loader.Workers,
		BatchSize: c.Loader.BatchSize,
		OnError:   policy,
		Settings:  c.ParserSettings(logger),
	}
}
