package app

import (
	"time"

	"github.com/Shaxadhere/ai-roast-my-website/internal/critique"
	"github.com/Shaxadhere/ai-roast-my-website/internal/history"
	"github.com/Shaxadhere/ai-roast-my-website/internal/relay"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Request
	URL   string
	Style roast.Style

	// Output
	OutputPath string
	PDFPath    string
	JSON       bool

	// LLM
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float64
	LLMAttempts    int
	// RateLimit is the minimum spacing between model calls. Zero disables.
	RateLimit time.Duration

	// Relay
	RelayURL      string
	UserAgent     string
	FetchAttempts int
	FetchTimeout  time.Duration

	// History
	HistoryPath  string
	NoHistory    bool
	ListHistory  bool
	ClearHistory bool
	RerunHistory int
	ListStyles   bool

	// Relay cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

const (
	defaultModel         = critique.DefaultModel
	defaultRelayURL      = relay.DefaultEndpoint
	defaultFetchAttempts = 3
	defaultLLMAttempts   = 3
	defaultFetchTimeout  = 15 * time.Second
)

// Defaults returns the configuration before file, env and flags are applied.
func Defaults() Config {
	return Config{
		Style:         roast.DefaultStyle,
		LLMModel:      defaultModel,
		RelayURL:      defaultRelayURL,
		UserAgent:     userAgent(),
		FetchAttempts: defaultFetchAttempts,
		FetchTimeout:  defaultFetchTimeout,
		LLMAttempts:   defaultLLMAttempts,
		HistoryPath:   history.DefaultPath,
	}
}

// roasting reports whether this run calls the relay and the model.
func (c Config) roasting() bool {
	return !c.ListStyles && !c.ListHistory && !c.ClearHistory
}
