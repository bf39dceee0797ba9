package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/untangl/scoutlink/internal/app"
	"github.com/untangl/scoutlink/internal/state"
)

// Config captures runtime configuration for the application.
type Config struct {
	App        app.Config
	Logging    Logging
	File       string
	FileLoaded bool
	Flags      map[string]string
	Args       []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envConfig      = "SCOUTLINK_CONFIG"
	envHostURL     = "SCOUTLINK_HOST_URL"
	envWidth       = "SCOUTLINK_WIDTH"
	envHeight      = "SCOUTLINK_HEIGHT"
	envShowFooter  = "SCOUTLINK_FOOTER"
	envSharePrefix = "SCOUTLINK_SHARE_PREFIX"
	envTimeout     = "SCOUTLINK_TIMEOUT"
	envTrace       = "SCOUTLINK_TRACE"
	envLogFile     = "SCOUTLINK_LOG_FILE"
)

const (
	defaultConfigPath = "~/.config/scoutlink/config.toml"
	DefaultHostURL    = "ws://127.0.0.1:7488/ws"
	defaultTimeout    = 5 * time.Second
)

// fileConfig mirrors config.toml. Pointers distinguish absent keys from zero
// values.
type fileConfig struct {
	HostURL        *string `toml:"host_url"`
	Width          *int    `toml:"width"`
	Height         *int    `toml:"height"`
	Footer         *bool   `toml:"footer"`
	SharePrefix    *string `toml:"share_prefix"`
	CommandTimeout *string `toml:"command_timeout"`
	LogFile        *string `toml:"log_file"`
	Trace          *bool   `toml:"trace"`
}

// Load parses configuration from CLI arguments, environment variables, and
// the config file.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Precedence is
// flags, then environment, then the config file, then defaults.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("scoutlink", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	configPath := fs.String("config", "", "path to the config file (default "+defaultConfigPath+")")
	hostURL := fs.String("host", DefaultHostURL, "websocket URL of the scout host")
	width := fs.Int("width", 0, "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", 0, "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", false, "enable footer hint and link health rows")
	sharePrefix := fs.String("share-prefix", state.DefaultSharePrefix, "prefix prepended to the live data URL for share links")
	timeout := fs.Duration("timeout", defaultTimeout, "timeout for host commands")
	trace := fs.Bool("trace", false, "enable verbose JSON trace logging")
	logFile := fs.String("log-file", "", "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	path := envOrDefault(env, envConfig, "")
	if set["config"] {
		path = *configPath
	}
	file, resolved, loaded, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: app.Config{
			HostURL:        DefaultHostURL,
			SharePrefix:    state.DefaultSharePrefix,
			CommandTimeout: defaultTimeout,
		},
		File:       resolved,
		FileLoaded: loaded,
	}

	// config file
	if file.HostURL != nil {
		cfg.App.HostURL = *file.HostURL
	}
	if file.Width != nil {
		cfg.App.Width = *file.Width
	}
	if file.Height != nil {
		cfg.App.Height = *file.Height
	}
	if file.Footer != nil {
		cfg.App.ShowFooter = *file.Footer
	}
	if file.SharePrefix != nil {
		cfg.App.SharePrefix = *file.SharePrefix
	}
	if file.CommandTimeout != nil {
		d, err := time.ParseDuration(*file.CommandTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: command_timeout: %w", err)
		}
		cfg.App.CommandTimeout = d
	}
	if file.LogFile != nil {
		cfg.Logging.FilePath = *file.LogFile
	}
	if file.Trace != nil {
		cfg.Logging.Trace = *file.Trace
	}

	// environment
	cfg.App.HostURL = envOrDefault(env, envHostURL, cfg.App.HostURL)
	cfg.App.Width = envOrInt(env, envWidth, cfg.App.Width)
	cfg.App.Height = envOrInt(env, envHeight, cfg.App.Height)
	cfg.App.ShowFooter = envOrBool(env, envShowFooter, cfg.App.ShowFooter)
	cfg.App.SharePrefix = envOrDefault(env, envSharePrefix, cfg.App.SharePrefix)
	cfg.App.CommandTimeout = envOrDuration(env, envTimeout, cfg.App.CommandTimeout)
	cfg.Logging.FilePath = envOrDefault(env, envLogFile, cfg.Logging.FilePath)
	cfg.Logging.Trace = envOrBool(env, envTrace, cfg.Logging.Trace)

	// flags
	if set["host"] {
		cfg.App.HostURL = *hostURL
	}
	if set["width"] {
		cfg.App.Width = *width
	}
	if set["height"] {
		cfg.App.Height = *height
	}
	if set["footer"] {
		cfg.App.ShowFooter = *footer
	}
	if set["share-prefix"] {
		cfg.App.SharePrefix = *sharePrefix
	}
	if set["timeout"] {
		cfg.App.CommandTimeout = *timeout
	}
	if set["log-file"] {
		cfg.Logging.FilePath = *logFile
	}
	if set["trace"] {
		cfg.Logging.Trace = *trace
	}

	if cfg.App.Width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", cfg.App.Width)
	}
	if cfg.App.Height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", cfg.App.Height)
	}

	cfg.Flags = map[string]string{
		"config":      resolved,
		"host":        cfg.App.HostURL,
		"width":       strconv.Itoa(cfg.App.Width),
		"height":      strconv.Itoa(cfg.App.Height),
		"footer":      strconv.FormatBool(cfg.App.ShowFooter),
		"sharePrefix": cfg.App.SharePrefix,
		"timeout":     cfg.App.CommandTimeout.String(),
		"trace":       strconv.FormatBool(cfg.Logging.Trace),
		"logFile":     cfg.Logging.FilePath,
	}
	cfg.Args = append([]string(nil), args...)
	return cfg, nil
}

// loadFile reads the TOML config. A missing file yields an empty config.
func loadFile(path string) (fileConfig, string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		if explicit {
			return fileConfig{}, "", false, err
		}
		return fileConfig{}, "", false, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, resolved, false, nil
		}
		return fileConfig{}, "", false, fmt.Errorf("read config: %w", err)
	}
	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fileConfig{}, "", false, fmt.Errorf("parse config: %w", err)
	}
	return raw, resolved, true, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate checks values that parse fine but cannot work.
func Validate(cfg Config) error {
	u, err := url.Parse(cfg.App.HostURL)
	if err != nil {
		return fmt.Errorf("host url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("host url must use ws or wss (got %q)", cfg.App.HostURL)
	}
	if u.Host == "" {
		return fmt.Errorf("host url has no host (got %q)", cfg.App.HostURL)
	}
	if cfg.App.CommandTimeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", cfg.App.CommandTimeout)
	}
	return nil
}
