// This file maps config file, environment and CLI context to the config struct.

package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/integration"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Storage StoreConfig
	Pool    PoolConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	Logging LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type StoreConfig struct {
	InMemory bool
	CacheMB  int
	Handles  int
}

type PoolConfig struct {
	Rules    string
	Preset   string
	Accounts int
}

// ChainDir is where the chain database lives.
func (c Config) ChainDir() string {
	return filepath.Join(c.Node.DataDir, "chaindata")
}

// PoolRules resolves the configured rule set.
func (c Config) PoolRules() (ido.Rules, error) {
	return ido.RulesByName(c.Pool.Rules)
}

// Validate checks the values no later stage re-checks.
func (c Config) Validate() error {
	if _, err := c.PoolRules(); err != nil {
		return err
	}
	if _, err := integration.GetPresetByName(c.Pool.Preset); err != nil {
		return err
	}
	if c.Pool.Accounts <= 0 {
		return fmt.Errorf("accounts must be positive, got %d", c.Pool.Accounts)
	}
	if _, err := verbosityLevel(c.Node.Logging.Verbosity); err != nil {
		return err
	}
	switch c.Node.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", c.Node.Logging.Format)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

//	Default config function creates a default config object using the DefaultConfig function from defaults.go file in launcher package
//	This keeps this main config file clean and in sync with the defaults.go file

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(d.Node.DataDir),
			Name:    d.Node.Name,
			Logging: LoggingConfig{
				Verbosity: d.Logging.Verbosity,
				Format:    d.Logging.Format,
				Color:     d.Logging.Color,
				SentryDSN: d.Logging.SentryDSN,
			},
		},
		Storage: StoreConfig{
			InMemory: d.Storage.InMemory,
			CacheMB:  d.Storage.CacheSizeMB,
			Handles:  d.Storage.Handles,
		},
		Pool: PoolConfig{
			Rules:    d.Pool.Rules,
			Preset:   d.Pool.Preset,
			Accounts: d.Pool.Accounts,
		},
	}
}

// MakeAllConfigs merges defaults, the optional config file, the environment
// (after loading the dotenv file) and CLI overrides into a single config struct,
// in that order of precedence.

func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := loadEnvFile(ctx.GlobalString("envfile")); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	applyCLIOverrides(ctx, &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if !cfg.Storage.InMemory {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / environment / CLI wiring
// -----------------------------------------------------------------------------

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return err
	}
	cfg.Node.DataDir = resolvePath(cfg.Node.DataDir)
	return nil
}

// dumpConfig writes cfg in the format loadConfigFile reads.
func dumpConfig(w io.Writer, cfg Config) error {
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// loadEnvFile loads a dotenv file into the process environment. A missing
// file is not an error; variables already set are left alone.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Environment variables read by applyEnvOverrides.
const (
	envDataDir   = "IDOPOOL_DATADIR"
	envRules     = "IDOPOOL_RULES"
	envPreset    = "IDOPOOL_PRESET"
	envAccounts  = "IDOPOOL_ACCOUNTS"
	envVerbosity = "IDOPOOL_LOG_VERBOSITY"
	envSentryDSN = "IDOPOOL_SENTRY_DSN"
)

func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv(envDataDir); ok && v != "" {
		cfg.Node.DataDir = resolvePath(v)
	}
	if v, ok := os.LookupEnv(envRules); ok && v != "" {
		cfg.Pool.Rules = v
	}
	if v, ok := os.LookupEnv(envPreset); ok && v != "" {
		cfg.Pool.Preset = v
	}
	if v, ok := os.LookupEnv(envAccounts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envAccounts, err)
		}
		cfg.Pool.Accounts = n
	}
	if v, ok := os.LookupEnv(envVerbosity); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envVerbosity, err)
		}
		cfg.Node.Logging.Verbosity = n
	}
	if v, ok := os.LookupEnv(envSentryDSN); ok && v != "" {
		cfg.Node.Logging.SentryDSN = v
	}
	return nil
}

// applyCLIOverrides reads the global flags, so it works the same from the
// app's action and from a subcommand.
func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.GlobalString("datadir"))
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Node.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Node.Logging.Color = ctx.GlobalBool("log.color")
	}
	if ctx.GlobalIsSet("sentry.dsn") {
		cfg.Node.Logging.SentryDSN = ctx.GlobalString("sentry.dsn")
	}

	if ctx.GlobalIsSet("cache") {
		cfg.Storage.CacheMB = ctx.GlobalInt("cache")
	}
	if ctx.GlobalIsSet("handles") {
		cfg.Storage.Handles = ctx.GlobalInt("handles")
	}
	if ctx.GlobalIsSet("memory") {
		cfg.Storage.InMemory = ctx.GlobalBool("memory")
	}

	if ctx.GlobalIsSet("rules") {
		cfg.Pool.Rules = ctx.GlobalString("rules")
	}
	if ctx.GlobalIsSet("preset") {
		cfg.Pool.Preset = ctx.GlobalString("preset")
	}
	if ctx.GlobalIsSet("accounts") {
		cfg.Pool.Accounts = ctx.GlobalInt("accounts")
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
