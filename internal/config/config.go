// Package config loads tally settings from a YAML file, a .env file and TALLY_* variables.
//
// Precedence, lowest first: built-in defaults, the YAML file, the .env file, the
// process environment. Command-line flags are applied on top by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tally/internal/logging"
	"github.com/aretw0/tally/pkg/numeric"
	"github.com/aretw0/tally/pkg/persistence/middleware"
)

const (
	// DefaultFile is read when no config file is named and it exists.
	DefaultFile = "tally.yaml"
	// DefaultEnvFile is read when no env file is named and it exists.
	DefaultEnvFile = ".env"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the complete runtime configuration.
type Config struct {
	Store   StoreConfig    `yaml:"store" mapstructure:"store"`
	Redis   RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Log     LogConfig      `yaml:"log" mapstructure:"log"`
	Limits  numeric.Limits `yaml:"limits" mapstructure:"limits"`
	Session SessionConfig  `yaml:"session" mapstructure:"session"`
	REPL    REPLConfig     `yaml:"repl" mapstructure:"repl"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"`
	Path string `yaml:"path" mapstructure:"path"`
	// Key enables encryption at rest: a base64 encoded 32-byte AES key.
	Key string `yaml:"key" mapstructure:"key"`
	// PreviousKeys still decrypt sessions sealed before a key rotation.
	PreviousKeys []string `yaml:"previous_keys" mapstructure:"previous_keys"`
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s StoreConfig) Keys() (active []byte, previous [][]byte, err error) {
	if s.Key == "" {
		if len(s.PreviousKeys) > 0 {
			return nil, nil, errors.New("store previous_keys need an active store key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.Key); err != nil {
		return nil, nil, fmt.Errorf("store key: %w", err)
	}
	for i, k := range s.PreviousKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store previous key %d: %w", i+1, err)
		}
		previous = append(previous, key)
	}
	return active, previous, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != middleware.KeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", middleware.KeySize, len(key))
	}
	return key, nil
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Lock enables the distributed session lock.
	Lock bool `yaml:"lock" mapstructure:"lock"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type SessionConfig struct {
	ID          string `yaml:"id" mapstructure:"id"`
	HistorySize int    `yaml:"history_size" mapstructure:"history_size"`
}

type REPLConfig struct {
	HistoryFile  string `yaml:"history_file" mapstructure:"history_file"`
	MaxInputSize int    `yaml:"max_input_size" mapstructure:"max_input_size"`
	Color        bool   `yaml:"color" mapstructure:"color"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:  StoreConfig{Kind: StoreMemory, Path: ".tally/sessions"},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "tally:session:"},
		Log:    LogConfig{Level: "info", Format: string(logging.FormatText)},
		Limits: numeric.DefaultLimits(),
		Session: SessionConfig{
			ID:          "default",
			HistorySize: 100,
		},
		REPL:   REPLConfig{HistoryFile: ".tally/history", MaxInputSize: 4096, Color: true},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// envKeys maps TALLY_* variables onto dotted config keys.
var envKeys = map[string]string{
	"TALLY_STORE":           "store.kind",
	"TALLY_STORE_PATH":      "store.path",
	"TALLY_STORE_KEY":       "store.key",
	"TALLY_STORE_PREV_KEYS": "store.previous_keys",
	"TALLY_REDIS_ADDR":      "redis.addr",
	"TALLY_REDIS_PASSWORD":  "redis.password",
	"TALLY_REDIS_DB":        "redis.db",
	"TALLY_REDIS_PREFIX":    "redis.prefix",
	"TALLY_REDIS_TTL":       "redis.ttl",
	"TALLY_REDIS_LOCK":      "redis.lock",
	"TALLY_LOG_LEVEL":       "log.level",
	"TALLY_LOG_FORMAT":      "log.format",
	"TALLY_LIMIT_SIEVE":     "limits.sieve",
	"TALLY_LIMIT_FACTORIZE": "limits.factorize",
	"TALLY_LIMIT_FACTORIAL": "limits.factorial",
	"TALLY_SESSION":         "session.id",
	"TALLY_HISTORY_SIZE":    "session.history_size",
	"TALLY_HISTORY_FILE":    "repl.history_file",
	"TALLY_MAX_INPUT_SIZE":  "repl.max_input_size",
	"TALLY_COLOR":           "repl.color",
	"TALLY_HTTP_ADDR":       "server.addr",
}

// Options names the files Load reads. Empty names fall back to the defaults,
// which are skipped silently when absent.
type Options struct {
	File    string
	EnvFile string
}

// Load builds the configuration from defaults, files and the environment.
func Load(opts Options) (*Config, error) {
	raw := map[string]any{}

	if err := readYAML(opts.File, raw); err != nil {
		return nil, err
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	for env, key := range envKeys {
		val, ok := os.LookupEnv(env)
		if !ok {
			val, ok = dotenv[env]
		}
		if ok && val != "" {
			set(raw, key, val)
		}
	}

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown store kinds, malformed keys, log settings and negative sizes.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q (want memory, file or redis)", c.Store.Kind)
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if c.Session.HistorySize < 0 {
		return fmt.Errorf("history size must not be negative, got %d", c.Session.HistorySize)
	}
	if c.REPL.MaxInputSize < 0 {
		return fmt.Errorf("max input size must not be negative, got %d", c.REPL.MaxInputSize)
	}
	return nil
}

func readYAML(path string, into map[string]any) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &into); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return env, nil
}

// set stores val under a dotted key, creating intermediate maps.
func set(m map[string]any, key, val string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
