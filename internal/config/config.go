// Package config loads mindflow settings from defaults, an optional
// .mindflow.yaml file and MINDFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/alexanderramin/mindflow/internal/llm"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

const (
	envPrefix      = "MINDFLOW"
	configName     = ".mindflow"
	configPathEnv  = "MINDFLOW_CONFIG_PATH"
	defaultHomeDir = "~/.mindflow"
)

// StoreConfig selects and locates the plan store.
type StoreConfig struct {
	Backend        string
	Path           string
	FirebaseURL    string
	FirebaseAuth   string
	Timeout        time.Duration
	ReconnectDelay time.Duration
}

// Config is the fully resolved application configuration.
type Config struct {
	Store      StoreConfig
	DeviceDir  string
	DraftQuiet time.Duration
	LogFile    string
	LogLevel   slog.Level
	LLM        llm.LLMConfig
	// File is the config file that was read, empty when none was found.
	File string
}

// Options control where Load looks for a config file.
type Options struct {
	// File names an explicit config file. It must exist.
	File string
	// SearchPaths replaces the default search directories.
	SearchPaths []string
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.path", defaultHomeDir+"/mindflow.db")
	v.SetDefault("store.firebase_url", "")
	v.SetDefault("store.firebase_auth", "")
	v.SetDefault("store.timeout_ms", 15000)
	v.SetDefault("store.reconnect_ms", 3000)
	v.SetDefault("device.dir", defaultHomeDir+"/device")
	v.SetDefault("draft.quiet_ms", 1500)
	v.SetDefault("log.file", defaultHomeDir+"/mindflow.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("llm.provider", string(llmDefaults.Provider))
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout_ms", llmDefaults.TimeoutMs)
	v.SetDefault("llm.max_retries", llmDefaults.MaxRetries)
	v.SetDefault("llm.log_calls", llmDefaults.LogCalls)
}

// Load resolves the configuration. A missing config file is not an error.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key: %w", err)
	}

	if err := readFile(v, opts); err != nil {
		return nil, err
	}
	return decode(v)
}

func readFile(v *viper.Viper, opts Options) error {
	if opts.File != "" {
		path, err := homedir.Expand(opts.File)
		if err != nil {
			return fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	paths := opts.SearchPaths
	if paths == nil {
		if override := os.Getenv(configPathEnv); override != "" {
			paths = append(paths, override)
		}
		paths = append(paths, ".", defaultHomeDir)
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(p)
		if err != nil {
			return fmt.Errorf("expanding config search path: %w", err)
		}
		v.AddConfigPath(expanded)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{File: v.ConfigFileUsed()}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("store.backend")))
	switch backend {
	case BackendSQLite, BackendFirebase, BackendMemory:
	default:
		return nil, fmt.Errorf("store.backend: unknown backend %q (want sqlite, firebase or memory)", backend)
	}

	var err error
	cfg.Store = StoreConfig{
		Backend:        backend,
		FirebaseURL:    strings.TrimSpace(v.GetString("store.firebase_url")),
		FirebaseAuth:   v.GetString("store.firebase_auth"),
		Timeout:        millis(v.GetInt("store.timeout_ms")),
		ReconnectDelay: millis(v.GetInt("store.reconnect_ms")),
	}
	if backend == BackendFirebase && cfg.Store.FirebaseURL == "" {
		return nil, errors.New("store.firebase_url is required for the firebase backend")
	}
	if cfg.Store.Path, err = expand("store.path", v.GetString("store.path")); err != nil {
		return nil, err
	}
	if cfg.DeviceDir, err = expand("device.dir", v.GetString("device.dir")); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = expand("log.file", v.GetString("log.file")); err != nil {
		return nil, err
	}

	quiet := v.GetInt("draft.quiet_ms")
	if quiet <= 0 {
		return nil, fmt.Errorf("draft.quiet_ms must be positive, got %d", quiet)
	}
	cfg.DraftQuiet = millis(quiet)

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	cfg.LLM, err = decodeLLM(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeLLM(v *viper.Viper) (llm.LLMConfig, error) {
	cfg := llm.DefaultConfig()
	provider, err := llm.ParseProvider(strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))))
	if err != nil {
		return cfg, fmt.Errorf("llm.provider: %w", err)
	}
	cfg.Provider = provider
	cfg.Endpoint = strings.TrimRight(v.GetString("llm.endpoint"), "/")
	cfg.Model = v.GetString("llm.model")
	cfg.APIKey = v.GetString("llm.api_key")
	cfg.LogCalls = v.GetBool("llm.log_calls")
	if t := v.GetInt("llm.timeout_ms"); t > 0 {
		cfg.TimeoutMs = t
	}
	if r := v.GetInt("llm.max_retries"); r >= 0 {
		cfg.MaxRetries = r
	}
	return cfg.WithProviderDefaults(), nil
}

func expand(key, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	out, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
