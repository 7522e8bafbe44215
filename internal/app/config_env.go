package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// envSpec maps environment variables onto Config. Pointer fields distinguish
// "unset" from an explicit false or zero.
type envSpec struct {
	LLMBaseURL       string        `envconfig:"LLM_BASE_URL"`
	LLMModel         string        `envconfig:"LLM_MODEL"`
	LLMAPIKey        string        `envconfig:"LLM_API_KEY"`
	LLMTemperature   float64       `envconfig:"LLM_TEMPERATURE"`
	LLMAttempts      int           `envconfig:"LLM_ATTEMPTS"`
	RateLimit        time.Duration `envconfig:"RATE_LIMIT"`
	RelayURL         string        `envconfig:"RELAY_URL"`
	UserAgent        string        `envconfig:"RELAY_UA"`
	FetchAttempts    int           `envconfig:"FETCH_ATTEMPTS"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT"`
	Style            string        `envconfig:"ROAST_STYLE"`
	HistoryPath      string        `envconfig:"HISTORY_DB"`
	NoHistory        *bool         `envconfig:"NO_HISTORY"`
	CacheDir         string        `envconfig:"CACHE_DIR"`
	CacheMaxAge      time.Duration `envconfig:"CACHE_MAX_AGE"`
	CacheClear       *bool         `envconfig:"CACHE_CLEAR"`
	CacheStrictPerms *bool         `envconfig:"CACHE_STRICT_PERMS"`
	Verbose          *bool         `envconfig:"VERBOSE"`
}

// ApplyEnvOverrides overwrites cfg fields with environment variables that are
// set. It runs after the config file and before explicit flags.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var env envSpec
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("env config: %w", err)
	}

	setString(&cfg.LLMBaseURL, env.LLMBaseURL)
	setString(&cfg.LLMModel, env.LLMModel)
	setString(&cfg.LLMAPIKey, env.LLMAPIKey)
	setString(&cfg.RelayURL, env.RelayURL)
	setString(&cfg.UserAgent, env.UserAgent)
	setString(&cfg.HistoryPath, env.HistoryPath)
	setString(&cfg.CacheDir, env.CacheDir)
	if env.LLMTemperature > 0 {
		cfg.LLMTemperature = env.LLMTemperature
	}
	if env.LLMAttempts > 0 {
		cfg.LLMAttempts = env.LLMAttempts
	}
	if env.FetchAttempts > 0 {
		cfg.FetchAttempts = env.FetchAttempts
	}
	if env.RateLimit > 0 {
		cfg.RateLimit = env.RateLimit
	}
	if env.FetchTimeout > 0 {
		cfg.FetchTimeout = env.FetchTimeout
	}
	if env.CacheMaxAge > 0 {
		cfg.CacheMaxAge = env.CacheMaxAge
	}
	if env.Style != "" {
		st, err := roast.ParseStyle(env.Style)
		if err != nil {
			return fmt.Errorf("env ROAST_STYLE: %w", err)
		}
		cfg.Style = st
	}
	setBool(&cfg.NoHistory, env.NoHistory)
	setBool(&cfg.CacheClear, env.CacheClear)
	setBool(&cfg.CacheStrictPerms, env.CacheStrictPerms)
	setBool(&cfg.Verbose, env.Verbose)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
