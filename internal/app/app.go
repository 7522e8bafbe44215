package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Shaxadhere/ai-roast-my-website/internal/cache"
	"github.com/Shaxadhere/ai-roast-my-website/internal/critique"
	"github.com/Shaxadhere/ai-roast-my-website/internal/export"
	"github.com/Shaxadhere/ai-roast-my-website/internal/extract"
	"github.com/Shaxadhere/ai-roast-my-website/internal/history"
	"github.com/Shaxadhere/ai-roast-my-website/internal/llm"
	"github.com/Shaxadhere/ai-roast-my-website/internal/relay"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

type App struct {
	cfg      Config
	ai       *llm.OpenAIProvider
	pipeline *roast.Pipeline
	history  *history.Store
	// Out receives the rendered roast and listings. Defaults to stdout.
	Out io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	// Reject a bad URL before anything touches the network.
	if cfg.roasting() && cfg.RerunHistory == 0 {
		if err := roast.ValidateURL(cfg.URL); err != nil {
			return nil, err
		}
	}
	a := &App{cfg: cfg, Out: os.Stdout}

	if !cfg.NoHistory {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		a.history = store
	}
	if !cfg.roasting() {
		return a, nil
	}

	httpClient := newHTTPClient()
	a.ai = llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMBaseURL, httpClient)

	var relayCache *cache.HTTPCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged relay cache")
			}
		}
		relayCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	}

	a.pipeline = &roast.Pipeline{
		Extractor: &extract.RelayExtractor{Fetcher: &relay.Client{
			HTTPClient:        httpClient,
			Endpoint:          cfg.RelayURL,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       cfg.FetchAttempts,
			PerRequestTimeout: cfg.FetchTimeout,
			Cache:             relayCache,
		}},
		Critic: &critique.Requester{
			Client:      a.ai,
			Model:       cfg.LLMModel,
			Temperature: float32(cfg.LLMTemperature),
			Limiter:     limiter,
			MaxAttempts: cfg.LLMAttempts,
			Verbose:     cfg.Verbose,
		},
	}

	// Preflight is best-effort: an unreachable model surfaces later as a
	// GenerationError with the friendly message.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if models, err := a.ai.ListModels(pctx); err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	} else {
		log.Debug().Int("count", len(models.Models)).Msg("LLM models available")
	}
	return a, nil
}

func (a *App) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
}

// Run performs the action selected by the configuration.
func (a *App) Run(ctx context.Context) error {
	switch {
	case a.cfg.ListStyles:
		return a.printStyles()
	case a.cfg.ClearHistory:
		return a.clearHistory(ctx)
	case a.cfg.ListHistory:
		return a.printHistory(ctx)
	case a.cfg.RerunHistory > 0:
		_, err := a.Rerun(ctx, a.cfg.RerunHistory)
		return err
	default:
		_, err := a.Roast(ctx, a.cfg.URL, a.cfg.Style)
		return err
	}
}

// Roast runs the pipeline for url, records the result in history and writes
// the configured outputs.
func (a *App) Roast(ctx context.Context, url string, style roast.Style) (roast.Result, error) {
	if a.pipeline == nil {
		return roast.Result{}, errors.New("roasting not configured")
	}
	res, err := a.pipeline.Run(ctx, url, style)
	if err != nil {
		return roast.Result{}, err
	}
	if a.history != nil {
		if _, err := a.history.Add(ctx, res); err != nil {
			log.Warn().Err(err).Msg("could not save history")
		}
	}
	if err := a.emit(res); err != nil {
		return res, err
	}
	return res, nil
}

// Rerun roasts the n-th history entry (1 is newest) again. The stored entry
// only holds a summary, so this is a fresh critique that may differ.
func (a *App) Rerun(ctx context.Context, n int) (roast.Result, error) {
	if a.history == nil {
		return roast.Result{}, errors.New("history disabled")
	}
	it, err := a.history.Get(ctx, n-1)
	if err != nil {
		return roast.Result{}, err
	}
	log.Info().Str("url", it.URL).Int("previous_score", it.VibeScore).Msg("re-roasting history entry")
	return a.Roast(ctx, it.URL, a.cfg.Style)
}

func (a *App) emit(res roast.Result) error {
	if a.cfg.JSON {
		b, err := export.JSON(res)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(a.Out, string(b))
	} else {
		fmt.Fprint(a.Out, export.Markdown(res))
	}
	if a.cfg.OutputPath != "" {
		if err := os.WriteFile(a.cfg.OutputPath, []byte(export.Markdown(res)), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPath).Msg("wrote roast")
	}
	if a.cfg.PDFPath != "" {
		if err := export.PDF(res, a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.PDFPath).Msg("wrote roast card")
	}
	return nil
}

func (a *App) printStyles() error {
	for _, st := range roast.Styles() {
		fmt.Fprintf(a.Out, "%-13s %-26s %s\n", string(st), st.Label(), st.Description())
	}
	return nil
}

func (a *App) printHistory(ctx context.Context) error {
	if a.history == nil {
		return errors.New("history disabled")
	}
	items, err := a.history.Load(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.Out, "No roasts yet.")
		return nil
	}
	for i, it := range items {
		fmt.Fprintf(a.Out, "%d. %2d/10  %s  %s  (%s)\n", i+1, it.VibeScore, it.Title, it.URL, it.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *App) clearHistory(ctx context.Context) error {
	if a.history == nil {
		return errors.New("history disabled")
	}
	if err := a.history.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "History cleared.")
	return nil
}
