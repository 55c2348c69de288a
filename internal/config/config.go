package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ent0n29/convo/internal/nlu"
)

// DefaultNLUBaseURL is used when no base URL source is set.
const DefaultNLUBaseURL = "http://localhost:5005"

// NLUBaseURLSources are consulted in order; the first non-empty value wins.
// The last two are the names browser build tools expose to front-end code.
var NLUBaseURLSources = []string{
	"NLU_BASE_URL",
	"VITE_RASA_URL",
	"REACT_APP_RASA_URL",
}

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	AllowAnyOrigin           bool
	LogLevel                 string

	NLUBaseURL string
	// NLUTimeout bounds each gateway call; zero disables the client timeout.
	NLUTimeout       time.Duration
	NLUTrainManifest string
	Training         nlu.TrainRequest
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	env := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Config{
		BindAddr:                 env("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         env("APP_METRICS_NAMESPACE", "convo"),
		LogLevel:                 strings.ToLower(env("APP_LOG_LEVEL", "info")),
		NLUBaseURL:               ResolveNLUBaseURL(lookup),
		NLUTrainManifest:         env("NLU_TRAIN_MANIFEST", ""),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		NLUTimeout:               30 * time.Second,
		Training:                 nlu.DefaultTrainRequest(),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv(env, "APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv(env, "APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.NLUTimeout, err = durationFromEnv(env, "NLU_TIMEOUT", cfg.NLUTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv(env, "APP_ALLOW_ANY_ORIGIN", false)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.NLUTimeout < 0 {
		return Config{}, fmt.Errorf("NLU_TIMEOUT must be >= 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("APP_LOG_LEVEL %q: expected debug|info|warn|error", cfg.LogLevel)
	}

	if cfg.NLUTrainManifest != "" {
		cfg.Training, err = LoadTrainManifest(cfg.NLUTrainManifest)
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// ResolveNLUBaseURL walks NLUBaseURLSources and falls back to DefaultNLUBaseURL.
func ResolveNLUBaseURL(lookup func(string) (string, bool)) string {
	for _, key := range NLUBaseURLSources {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return DefaultNLUBaseURL
}

// LoadTrainManifest reads a YAML file naming the domain, config and training
// files to send with a train request. Omitted keys keep their defaults.
func LoadTrainManifest(path string) (nlu.TrainRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nlu.TrainRequest{}, fmt.Errorf("read train manifest: %w", err)
	}
	req := nlu.DefaultTrainRequest()
	var parsed nlu.TrainRequest
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nlu.TrainRequest{}, fmt.Errorf("parse train manifest %s: %w", path, err)
	}
	if parsed.Domain != "" {
		req.Domain = parsed.Domain
	}
	if parsed.Config != "" {
		req.Config = parsed.Config
	}
	if len(parsed.TrainingFiles) > 0 {
		req.TrainingFiles = parsed.TrainingFiles
	}
	return req, nil
}

func durationFromEnv(env func(string, string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(env func(string, string) string, key string, fallback bool) (bool, error) {
	v := strings.ToLower(env(key, ""))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
