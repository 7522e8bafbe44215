package critique

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Shaxadhere/ai-roast-my-website/internal/llm"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemMessage = "You are an expert web designer and stand-up comedian specialized in roasting websites. Respond with strict JSON only, no narration, matching the provided schema."

// Requester asks a chat model for a structured roast. A Requester holds no
// per-request state; concurrent calls are safe when Client is.
type Requester struct {
	Client      llm.Client
	Model       string
	Temperature float32
	// Limiter throttles calls to the metered service. Nil means unlimited.
	Limiter *rate.Limiter
	// MaxAttempts includes the initial call. Zero means 3.
	MaxAttempts int
	// Backoff is the delay before the first retry; it doubles per retry.
	Backoff time.Duration
	Verbose bool

	Now   func() time.Time
	NewID func() string
	Sleep func(ctx context.Context, d time.Duration) error
}

// Critique implements roast.Critic. Every failure is a *roast.GenerationError.
func (r *Requester) Critique(ctx context.Context, meta roast.Metadata, style roast.Style) (roast.Result, error) {
	if r.Client == nil {
		return roast.Result{}, &roast.GenerationError{Reason: "config", Err: errors.New("critic not configured")}
	}
	model := r.Model
	if model == "" {
		model = DefaultModel
	}
	user := BuildPrompt(meta, style)
	if r.Verbose {
		// Lengths only; page text stays out of the logs.
		log.Debug().Str("stage", "critique").Str("model", model).Int("system_len", len(systemMessage)).Int("user_len", len(user)).Msg("critique prompt")
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:    r.temperature(),
		N:              1,
		ResponseFormat: ResponseFormat(),
	}

	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return roast.Result{}, &roast.GenerationError{Reason: "throttle", Err: err}
			}
		}
		reply, err := r.once(ctx, req)
		if err == nil {
			return r.stamp(meta, style, reply), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return roast.Result{}, &roast.GenerationError{Reason: "cancelled", Err: ctx.Err()}
		}
		if !isTransient(err) || i == attempts-1 {
			break
		}
		delay := backoff << i
		log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", delay).Msg("critique call failed; retrying")
		if err := sleep(ctx, delay); err != nil {
			return roast.Result{}, &roast.GenerationError{Reason: "cancelled", Err: err}
		}
	}
	log.Error().Err(lastErr).Str("url", meta.URL).Msg("roast generation failed")
	return roast.Result{}, &roast.GenerationError{Reason: reasonFor(lastErr), Err: lastErr}
}

// errMalformed wraps replies that are not a JSON object at all. They are
// retried; a well-formed object that breaks the schema is not.
type errMalformed struct{ err error }

func (e *errMalformed) Error() string { return "malformed reply: " + e.err.Error() }
func (e *errMalformed) Unwrap() error { return e.err }

func (r *Requester) once(ctx context.Context, req openai.ChatCompletionRequest) (Reply, error) {
	resp, err := r.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("critique call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, &errMalformed{err: errors.New("no choices")}
	}
	return ParseReply(resp.Choices[0].Message.Content)
}

func (r *Requester) stamp(meta roast.Metadata, style roast.Style, reply Reply) roast.Result {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	newID := uuid.NewString
	if r.NewID != nil {
		newID = r.NewID
	}
	return roast.Result{
		ID:              newID(),
		URL:             meta.URL,
		WebsiteTitle:    meta.Title,
		Style:           style,
		FirstImpression: reply.FirstImpression,
		DesignUI:        reply.DesignUI,
		ContentCopy:     reply.ContentCopy,
		PerformanceUX:   reply.PerformanceUX,
		VibeScore:       reply.VibeScore,
		Timestamp:       now().UTC(),
		Summary:         reply.Summary,
	}
}

func (r *Requester) temperature() float32 {
	if r.Temperature > 0 {
		return r.Temperature
	}
	return 0.9
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var mal *errMalformed
	if errors.As(err, &mal) {
		return true
	}
	if errors.Is(err, roast.ErrIncompleteReply) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	// Transport-level failures.
	return true
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func reasonFor(err error) string {
	var mal *errMalformed
	switch {
	case errors.As(err, &mal):
		return "unparsable reply"
	case errors.Is(err, roast.ErrIncompleteReply):
		return "incomplete reply"
	default:
		return "upstream unavailable"
	}
}

// BuildPrompt renders the user message. Output depends only on its inputs.
func BuildPrompt(meta roast.Metadata, style roast.Style) string {
	var sb strings.Builder
	sb.WriteString("Roast this website based on the following metadata:\n\n")
	fmt.Fprintf(&sb, "URL: %s\n", meta.URL)
	fmt.Fprintf(&sb, "Title: %s\n", meta.Title)
	fmt.Fprintf(&sb, "Description: %s\n", meta.Description)
	fmt.Fprintf(&sb, "Headings Found: %s\n", strings.Join(meta.Headings, ", "))
	fmt.Fprintf(&sb, "Image Count: %d\n", meta.ImageCount)
	fmt.Fprintf(&sb, "Images have alt text? %t\n", meta.HasAltText)
	fmt.Fprintf(&sb, "Inline colors: %s\n", strings.Join(meta.PrimaryColors, ", "))
	fmt.Fprintf(&sb, "Text content preview: %s\n\n", meta.TextPreview)
	fmt.Fprintf(&sb, "The style of the roast must be: %s\n\n", style.Label())
	sb.WriteString("Tone Guidelines:\n")
	sb.WriteString("- Funny, witty, sarcastic, and slightly mean but never offensive or abusive.\n")
	sb.WriteString("- Focus on design, UX, copy, and overall \"vibe\".\n")
	sb.WriteString("- If the metadata is sparse (e.g., only URL), roast the concept of the site or its name. Do not invent details that are not in the metadata.\n\n")
	sb.WriteString("Return a JSON object with exactly these fields:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"firstImpression\": string,\n")
	sb.WriteString("  \"designUI\": string,\n")
	sb.WriteString("  \"contentCopy\": string,\n")
	sb.WriteString("  \"performanceUX\": string,\n")
	sb.WriteString("  \"vibeScore\": integer from 0 to 10,\n")
	sb.WriteString("  \"summary\": a short 1-sentence funny punchline for social media\n")
	sb.WriteString("}")
	return sb.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
