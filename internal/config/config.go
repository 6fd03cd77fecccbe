package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Config represents the colsolve configuration.
type Config struct {
	Oracle OracleConfig `json:"oracle"`
	Solver SolverConfig `json:"solver"`
	Refine RefineConfig `json:"refine"`
	Cache  CacheConfig  `json:"cache"`
	Format string       `json:"format" validate:"oneof=text json jsonl markdown yaml"`
	Log    LogConfig    `json:"log"`
	Server ServerConfig `json:"server"`
}

// OracleConfig selects the plausibility oracle. An empty endpoint with the
// completions provider disables refinement.
type OracleConfig struct {
	Provider          string  `json:"provider" validate:"oneof=completions openai ollama lmstudio"`
	Endpoint          string  `json:"endpoint,omitempty" validate:"omitempty,url"`
	Model             string  `json:"model,omitempty"`
	APIKey            string  `json:"-"`
	MaxTokens         int     `json:"maxTokens" validate:"min=1"`
	Temperature       float64 `json:"temperature" validate:"min=0,max=2"`
	TimeoutSeconds    int     `json:"timeoutSeconds" validate:"min=1"`
	RequestsPerSecond float64 `json:"requestsPerSecond" validate:"min=0"`
}

// SolverConfig tunes the permutation search and the result filter.
type SolverConfig struct {
	ExhaustiveLimit int     `json:"exhaustiveLimit" validate:"min=1,max=9"`
	Samples         int     `json:"samples" validate:"min=1"`
	Strategy        string  `json:"strategy" validate:"oneof=random climb"`
	Seed            uint64  `json:"seed,omitempty"`
	PerDimension    int     `json:"perDimension" validate:"min=1"`
	SignalThreshold float64 `json:"signalThreshold"`
	RelativeWindow  float64 `json:"relativeWindow" validate:"min=0"`
	MaxResults      int     `json:"maxResults" validate:"min=1"`
	FallbackResults int     `json:"fallbackResults" validate:"min=1"`
}

// RefineConfig controls the oracle pass over the top candidates.
type RefineConfig struct {
	Enabled    bool    `json:"enabled"`
	TopN       int     `json:"topN" validate:"min=0,max=15"`
	Similarity float64 `json:"similarity" validate:"min=0,max=1"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Backend    string `json:"backend" validate:"oneof=file badger"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" validate:"min=0"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string `json:"level" validate:"oneof=trace debug info warn error off"`
	Format string `json:"format" validate:"oneof=console json"`
}

// ServerConfig configures `colsolve serve`.
type ServerConfig struct {
	Addr           string   `json:"addr" validate:"required"`
	AllowedOrigins []string `json:"allowedOrigins"`
	MaxConcurrent  int      `json:"maxConcurrent" validate:"min=1"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			Provider:          "completions",
			MaxTokens:         500,
			Temperature:       0.1,
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
		},
		Solver: SolverConfig{
			ExhaustiveLimit: 7,
			Samples:         100,
			Strategy:        "random",
			PerDimension:    10,
			SignalThreshold: -20,
			RelativeWindow:  10,
			MaxResults:      15,
			FallbackResults: 10,
		},
		Refine: RefineConfig{
			Enabled:    true,
			TopN:       3,
			Similarity: 0.9,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "file",
			TTLSeconds: 86400,
		},
		Format: "text",
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: []string{"*"},
			MaxConcurrent:  4,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for colsolve.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "colsolve"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "colsolve"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "colsolve"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "colsolve"), nil
	default:
		return filepath.Join(home, ".config", "colsolve"), nil
	}
}

// ConfigPath returns the full path to the config file. COLSOLVE_CONFIG wins
// over the platform default.
func ConfigPath() (string, error) {
	if p := os.Getenv("COLSOLVE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile returns the defaults overlaid with the config file. A missing
// file is not an error.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	// Unmarshal on top of the defaults so keys absent from the file keep
	// their default and explicit false values still apply.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set)
// and uses the same keys as SetField.
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if cfg.Oracle.APIKey == "" && cfg.Oracle.Provider == "openai" {
		cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps config keys to their environment variables.
var envKeys = []struct {
	key string
	env string
}{
	{"oracle.provider", "COLSOLVE_ORACLE_PROVIDER"},
	{"oracle.endpoint", "COLSOLVE_ORACLE_ENDPOINT"},
	{"oracle.model", "COLSOLVE_ORACLE_MODEL"},
	{"oracle.maxTokens", "COLSOLVE_ORACLE_MAX_TOKENS"},
	{"oracle.temperature", "COLSOLVE_ORACLE_TEMPERATURE"},
	{"oracle.timeoutSeconds", "COLSOLVE_ORACLE_TIMEOUT_SECONDS"},
	{"oracle.requestsPerSecond", "COLSOLVE_ORACLE_RPS"},
	{"solver.exhaustiveLimit", "COLSOLVE_SOLVER_EXHAUSTIVE_LIMIT"},
	{"solver.samples", "COLSOLVE_SOLVER_SAMPLES"},
	{"solver.strategy", "COLSOLVE_SOLVER_STRATEGY"},
	{"solver.seed", "COLSOLVE_SOLVER_SEED"},
	{"solver.perDimension", "COLSOLVE_SOLVER_PER_DIMENSION"},
	{"solver.signalThreshold", "COLSOLVE_SOLVER_SIGNAL_THRESHOLD"},
	{"solver.relativeWindow", "COLSOLVE_SOLVER_RELATIVE_WINDOW"},
	{"solver.maxResults", "COLSOLVE_SOLVER_MAX_RESULTS"},
	{"solver.fallbackResults", "COLSOLVE_SOLVER_FALLBACK_RESULTS"},
	{"refine.enabled", "COLSOLVE_REFINE_ENABLED"},
	{"refine.topN", "COLSOLVE_REFINE_TOP_N"},
	{"refine.similarity", "COLSOLVE_REFINE_SIMILARITY"},
	{"cache.enabled", "COLSOLVE_CACHE_ENABLED"},
	{"cache.backend", "COLSOLVE_CACHE_BACKEND"},
	{"cache.dir", "COLSOLVE_CACHE_DIR"},
	{"cache.ttlSeconds", "COLSOLVE_CACHE_TTL_SECONDS"},
	{"format", "COLSOLVE_FORMAT"},
	{"log.level", "COLSOLVE_LOG_LEVEL"},
	{"log.format", "COLSOLVE_LOG_FORMAT"},
	{"server.addr", "COLSOLVE_SERVER_ADDR"},
	{"server.allowedOrigins", "COLSOLVE_SERVER_ALLOWED_ORIGINS"},
	{"server.maxConcurrent", "COLSOLVE_SERVER_MAX_CONCURRENT"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		if v := os.Getenv(e.env); v != "" {
			if err := SetField(cfg, e.key, v); err != nil {
				return fmt.Errorf("%s: %w", e.env, err)
			}
		}
	}
	// The API key is never read from the config file.
	if v := os.Getenv("COLSOLVE_ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	keys := make([]string, 0, len(envKeys))
	for _, e := range envKeys {
		keys = append(keys, e.key)
	}
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "oracle.provider":
		cfg.Oracle.Provider = value
	case "oracle.endpoint":
		cfg.Oracle.Endpoint = value
	case "oracle.model":
		cfg.Oracle.Model = value
	case "oracle.maxTokens":
		return setInt(&cfg.Oracle.MaxTokens, key, value)
	case "oracle.temperature":
		return setFloat(&cfg.Oracle.Temperature, key, value)
	case "oracle.timeoutSeconds":
		return setInt(&cfg.Oracle.TimeoutSeconds, key, value)
	case "oracle.requestsPerSecond":
		return setFloat(&cfg.Oracle.RequestsPerSecond, key, value)
	case "solver.exhaustiveLimit":
		return setInt(&cfg.Solver.ExhaustiveLimit, key, value)
	case "solver.samples":
		return setInt(&cfg.Solver.Samples, key, value)
	case "solver.strategy":
		cfg.Solver.Strategy = value
	case "solver.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an unsigned integer: %w", key, err)
		}
		cfg.Solver.Seed = n
	case "solver.perDimension":
		return setInt(&cfg.Solver.PerDimension, key, value)
	case "solver.signalThreshold":
		return setFloat(&cfg.Solver.SignalThreshold, key, value)
	case "solver.relativeWindow":
		return setFloat(&cfg.Solver.RelativeWindow, key, value)
	case "solver.maxResults":
		return setInt(&cfg.Solver.MaxResults, key, value)
	case "solver.fallbackResults":
		return setInt(&cfg.Solver.FallbackResults, key, value)
	case "refine.enabled":
		return setBool(&cfg.Refine.Enabled, key, value)
	case "refine.topN":
		return setInt(&cfg.Refine.TopN, key, value)
	case "refine.similarity":
		return setFloat(&cfg.Refine.Similarity, key, value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.backend":
		cfg.Cache.Backend = value
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "format":
		cfg.Format = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "server.addr":
		cfg.Server.Addr = value
	case "server.allowedOrigins":
		cfg.Server.AllowedOrigins = splitList(value)
	case "server.maxConcurrent":
		return setInt(&cfg.Server.MaxConcurrent, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so messages match config keys
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
	})
	return validate
}

// Validate checks field ranges and enumerations.
func Validate(cfg Config) error {
	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is Config.oracle.endpoint; drop the root type.
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value())))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", key, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", key, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
