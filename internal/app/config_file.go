package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Style  string `yaml:"style" json:"style"`
	Output string `yaml:"output" json:"output"`
	PDF    string `yaml:"pdf" json:"pdf"`

	LLM struct {
		BaseURL     string        `yaml:"base" json:"base"`
		Model       string        `yaml:"model" json:"model"`
		APIKey      string        `yaml:"key" json:"key"`
		Temperature float64       `yaml:"temperature" json:"temperature"`
		Attempts    int           `yaml:"attempts" json:"attempts"`
		RateLimit   time.Duration `yaml:"rateLimit" json:"rateLimit"`
	} `yaml:"llm" json:"llm"`

	Relay struct {
		URL      string        `yaml:"url" json:"url"`
		UA       string        `yaml:"ua" json:"ua"`
		Attempts int           `yaml:"attempts" json:"attempts"`
		Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"relay" json:"relay"`

	History struct {
		Path    string `yaml:"path" json:"path"`
		Disable bool   `yaml:"disable" json:"disable"`
	} `yaml:"history" json:"history"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays the non-zero values of fc onto cfg. It runs on top
// of Defaults, before env and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	if fc.Style != "" {
		st, err := roast.ParseStyle(fc.Style)
		if err != nil {
			return fmt.Errorf("config file style: %w", err)
		}
		cfg.Style = st
	}
	setString(&cfg.OutputPath, fc.Output)
	setString(&cfg.PDFPath, fc.PDF)

	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	if fc.LLM.Temperature > 0 {
		cfg.LLMTemperature = fc.LLM.Temperature
	}
	if fc.LLM.Attempts > 0 {
		cfg.LLMAttempts = fc.LLM.Attempts
	}
	if fc.LLM.RateLimit > 0 {
		cfg.RateLimit = fc.LLM.RateLimit
	}

	setString(&cfg.RelayURL, fc.Relay.URL)
	setString(&cfg.UserAgent, fc.Relay.UA)
	if fc.Relay.Attempts > 0 {
		cfg.FetchAttempts = fc.Relay.Attempts
	}
	if fc.Relay.Timeout > 0 {
		cfg.FetchTimeout = fc.Relay.Timeout
	}

	setString(&cfg.HistoryPath, fc.History.Path)
	if fc.History.Disable {
		cfg.NoHistory = true
	}

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}

// ErrConfig marks configuration that cannot produce a run.
var ErrConfig = errors.New("config")

// ValidateConfig performs minimal validation for required settings. Listing
// styles or history needs no model credentials.
func ValidateConfig(cfg Config) error {
	if cfg.LLMAttempts < 0 || cfg.FetchAttempts < 0 || cfg.RateLimit < 0 || cfg.FetchTimeout < 0 || cfg.RerunHistory < 0 {
		return fmt.Errorf("%w: negative limits are not allowed", ErrConfig)
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be within 0..2", ErrConfig)
	}
	if !cfg.roasting() {
		return nil
	}
	if cfg.RerunHistory == 0 && strings.TrimSpace(cfg.URL) == "" {
		return fmt.Errorf("%w: a URL to roast is required", ErrConfig)
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return fmt.Errorf("%w: llm.model is required (or set LLM_MODEL)", ErrConfig)
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" && strings.TrimSpace(cfg.LLMBaseURL) == "" {
		return fmt.Errorf("%w: llm.key is required (or set LLM_API_KEY)", ErrConfig)
	}
	if cfg.RerunHistory > 0 && cfg.NoHistory {
		return fmt.Errorf("%w: history rerun needs history enabled", ErrConfig)
	}
	return nil
}
