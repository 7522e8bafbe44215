package roast

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MetadataSource turns a URL into page metadata. Implementations must not
// fail; a degraded record is returned instead.
type MetadataSource interface {
	Extract(ctx context.Context, url string) Metadata
}

// Critic produces a roast for extracted metadata.
type Critic interface {
	Critique(ctx context.Context, meta Metadata, style Style) (Result, error)
}

// Pipeline runs extraction then critique for a single request. It holds no
// per-request state and is safe to reuse.
type Pipeline struct {
	Extractor MetadataSource
	Critic    Critic
}

// Run validates url, extracts metadata and asks the critic for a roast.
// Invalid input is rejected before any network call.
func (p *Pipeline) Run(ctx context.Context, url string, style Style) (Result, error) {
	url = strings.TrimSpace(url)
	if err := ValidateURL(url); err != nil {
		return Result{}, err
	}
	if !style.Valid() {
		style = DefaultStyle
	}
	start := time.Now()
	meta := p.Extractor.Extract(ctx, url).Clamp()
	log.Debug().Str("url", url).Str("title", meta.Title).Int("headings", len(meta.Headings)).Int("images", meta.ImageCount).Dur("took", time.Since(start)).Msg("metadata extracted")
	if err := ctx.Err(); err != nil {
		return Result{}, &GenerationError{Reason: "cancelled", Err: err}
	}
	res, err := p.Critic.Critique(ctx, meta, style)
	if err != nil {
		return Result{}, err
	}
	log.Info().Str("url", url).Str("style", style.Label()).Int("vibe_score", res.VibeScore).Dur("took", time.Since(start)).Msg("roast ready")
	return res, nil
}
