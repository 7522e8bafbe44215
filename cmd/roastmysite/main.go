package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Shaxadhere/ai-roast-my-website/internal/app"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(ctx, cfg); err != nil {
		var gerr *roast.GenerationError
		if errors.As(err, &gerr) {
			fmt.Fprintln(os.Stderr, roast.FriendlyGenerationMessage)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps run errors to the process status: 2 for bad input or
// configuration, 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, roast.ErrInvalidInput), errors.Is(err, app.ErrConfig):
		return 2
	default:
		return 1
	}
}

// parseConfig layers Defaults, an optional config file, the environment
// (after loading .env) and finally the flags that were set explicitly.
func parseConfig(args []string, stderr io.Writer) (app.Config, error) {
	fs := flag.NewFlagSet("roastmysite", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: roastmysite [flags] <url>")
		fs.PrintDefaults()
	}

	var (
		configPath   string
		envFile      string
		style        string
		outputPath   string
		pdfPath      string
		jsonOut      bool
		llmBaseURL   string
		llmModel     string
		llmKey       string
		rateLimit    time.Duration
		relayURL     string
		historyPath  string
		noHistory    bool
		listHistory  bool
		clearHistory bool
		rerun        int
		listStyles   bool
		cacheDir     string
		cacheMaxAge  time.Duration
		cacheClear   bool
		verbose      bool
	)

	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&envFile, "env", ".env", "Dotenv file loaded before reading the environment")
	fs.StringVar(&style, "style", "", "Roast style: light, savage, professional, genz, corporate")
	fs.StringVar(&outputPath, "out", "", "Also write the roast as Markdown to this path")
	fs.StringVar(&pdfPath, "pdf", "", "Also write a PDF roast card to this path")
	fs.BoolVar(&jsonOut, "json", false, "Print the result as JSON instead of Markdown")
	fs.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&llmModel, "llm.model", "", "Model name")
	fs.StringVar(&llmKey, "llm.key", "", "API key for the model server")
	fs.DurationVar(&rateLimit, "llm.rateLimit", 0, "Minimum spacing between model calls (0 disables)")
	fs.StringVar(&relayURL, "relay.url", "", "CORS relay endpoint, e.g. https://api.allorigins.win/get?url=")
	fs.StringVar(&historyPath, "history.db", "", "Path to the SQLite history database")
	fs.BoolVar(&noHistory, "history.off", false, "Do not read or write roast history")
	fs.BoolVar(&listHistory, "history", false, "List recent roasts and exit")
	fs.BoolVar(&clearHistory, "history.clear", false, "Clear roast history and exit")
	fs.IntVar(&rerun, "history.rerun", 0, "Roast the N-th history entry again (1 is newest)")
	fs.BoolVar(&listStyles, "styles", false, "List roast styles and exit")
	fs.StringVar(&cacheDir, "cache.dir", "", "Relay response cache directory (empty disables)")
	fs.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Purge cached relay responses older than this")
	fs.BoolVar(&cacheClear, "cache.clear", false, "Clear the relay cache before running")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}

	cfg := app.Defaults()
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}
	if err := app.LoadEnvFiles(envFile); err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "style":
			st, err := roast.ParseStyle(style)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Style = st
		case "out":
			cfg.OutputPath = outputPath
		case "pdf":
			cfg.PDFPath = pdfPath
		case "json":
			cfg.JSON = jsonOut
		case "llm.base":
			cfg.LLMBaseURL = llmBaseURL
		case "llm.model":
			cfg.LLMModel = llmModel
		case "llm.key":
			cfg.LLMAPIKey = llmKey
		case "llm.rateLimit":
			cfg.RateLimit = rateLimit
		case "relay.url":
			cfg.RelayURL = relayURL
		case "history.db":
			cfg.HistoryPath = historyPath
		case "history.off":
			cfg.NoHistory = noHistory
		case "history":
			cfg.ListHistory = listHistory
		case "history.clear":
			cfg.ClearHistory = clearHistory
		case "history.rerun":
			cfg.RerunHistory = rerun
		case "styles":
			cfg.ListStyles = listStyles
		case "cache.dir":
			cfg.CacheDir = cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = cacheClear
		case "v":
			cfg.Verbose = verbose
		}
	})
	if flagErr != nil {
		return cfg, flagErr
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.URL = strings.TrimSpace(fs.Arg(0))
	default:
		return cfg, fmt.Errorf("expected one URL, got %d arguments", fs.NArg())
	}
	return cfg, nil
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
