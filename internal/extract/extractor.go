package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Shaxadhere/ai-roast-my-website/internal/relay"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// Extractor turns a URL into page metadata. Implementations never return an
// error; a degraded record stands in for any failure.
type Extractor interface {
	Extract(ctx context.Context, url string) roast.Metadata
}

// Fetcher retrieves a raw document. *relay.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (relay.Page, error)
}

// RelayExtractor fetches through the relay and parses the result, falling
// back to a URL-only record on any fetch or parse failure.
type RelayExtractor struct {
	Fetcher Fetcher
}

func (e *RelayExtractor) Extract(ctx context.Context, url string) (meta roast.Metadata) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("url", url).Str("panic", fmt.Sprint(r)).Msg("extraction panicked; using fallback")
			meta = Fallback(url)
		}
	}()
	if e.Fetcher == nil {
		return Fallback(url)
	}
	page, err := e.Fetcher.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("scrape failed; using fallback")
		return Fallback(url)
	}
	log.Debug().Str("url", url).Int("bytes", len(page.Body)).Bool("cached", page.FromCache).Msg("page fetched")
	return FromHTML(url, page.Body)
}
