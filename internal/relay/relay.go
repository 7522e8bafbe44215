package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/Shaxadhere/ai-roast-my-website/internal/cache"
)

// DefaultEndpoint is the public CORS relay. The escaped target URL is appended.
const DefaultEndpoint = "https://api.allorigins.win/get?url="

// maxBodyBytes caps how much of a relayed page is read.
const maxBodyBytes = 8 << 20

// ErrBadEnvelope is returned when a JSON relay reply carries no document.
var ErrBadEnvelope = errors.New("relay envelope has no contents")

// StatusError is a non-2xx answer from the relay or, via the envelope, from
// the target site.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Page is a relayed document.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
	FromCache   bool
}

// Client fetches pages through a relay endpoint with timeouts and bounded
// retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	// Endpoint is the relay prefix. Empty means DefaultEndpoint.
	Endpoint  string
	UserAgent string
	// MaxAttempts includes the initial attempt. Zero means 3.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// Backoff is the delay before the first retry; it doubles per retry.
	// Zero means 200ms.
	Backoff time.Duration
	// Optional on-disk cache for relay bodies.
	Cache *cache.HTTPCache
	// If true, skip conditional requests but still store fresh bodies.
	BypassCache bool
	// Sleep waits between attempts. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RelayURL builds the relay request URL for target.
func (c *Client) RelayURL(target string) (string, error) {
	endpoint := c.Endpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if strings.HasSuffix(endpoint, "=") {
		return endpoint + url.QueryEscape(target), nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse relay endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch retrieves target through the relay and returns the raw document.
func (c *Client) Fetch(ctx context.Context, target string) (Page, error) {
	tu, err := url.Parse(target)
	if err != nil || !isHTTPScheme(tu) {
		return Page{}, fmt.Errorf("unsupported URL scheme: %q", target)
	}
	relayURL, err := c.RelayURL(target)
	if err != nil {
		return Page{}, err
	}

	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, target); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, relayURL, etag, lastMod)
		if err == nil {
			page, ferr := c.finish(ctx, target, res)
			var se *StatusError
			if errors.As(ferr, &se) && se.Code == http.StatusNotModified && (etag != "" || lastMod != "") {
				// Validators pointed at a body we no longer have; ask again
				// without them.
				log.Debug().Str("url", target).Msg("cached body missing, refetching unconditionally")
				etag, lastMod = "", ""
				if res, err = c.tryOnce(ctx, relayURL, "", ""); err == nil {
					return c.finish(ctx, target, res)
				}
			} else {
				return page, ferr
			}
		}
		lastErr = err
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		if !IsTransient(err) || i == attempts-1 {
			break
		}
		delay := backoff << i
		log.Debug().Err(err).Str("url", target).Int("attempt", i+1).Dur("backoff", delay).Msg("relay fetch retry")
		if err := sleep(ctx, delay); err != nil {
			return Page{}, err
		}
	}
	return Page{}, fmt.Errorf("relay fetch %s: %w", target, lastErr)
}

type attempt struct {
	body        []byte
	contentType string
	etag        string
	lastMod     string
	status      int
}

func (c *Client) finish(ctx context.Context, target string, res attempt) (Page, error) {
	if res.status == http.StatusNotModified {
		if c.Cache == nil {
			return Page{}, &StatusError{Code: res.status}
		}
		cached, err := c.Cache.LoadBody(ctx, target)
		if err != nil {
			return Page{}, &StatusError{Code: res.status}
		}
		ct := res.contentType
		if meta, err := c.Cache.LoadMeta(ctx, target); err == nil && meta != nil {
			ct = meta.ContentType
		}
		doc, err := Unwrap(cached, ct)
		if err != nil {
			return Page{}, err
		}
		return Page{URL: target, Body: doc, ContentType: ct, FromCache: true}, nil
	}
	doc, err := Unwrap(res.body, res.contentType)
	if err != nil {
		return Page{}, err
	}
	if c.Cache != nil && res.status == http.StatusOK {
		_ = c.Cache.Save(ctx, target, res.contentType, res.etag, res.lastMod, res.body)
	}
	return Page{URL: target, Body: doc, ContentType: res.contentType}, nil
}

func (c *Client) tryOnce(ctx context.Context, relayURL, etag, lastMod string) (attempt, error) {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return attempt{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return attempt{}, err
	}
	defer resp.Body.Close()

	out := attempt{
		contentType: resp.Header.Get("Content-Type"),
		etag:        resp.Header.Get("ETag"),
		lastMod:     resp.Header.Get("Last-Modified"),
		status:      resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return attempt{}, &StatusError{Code: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return attempt{}, fmt.Errorf("read body: %w", err)
	}
	out.body = b
	return out, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// envelope is the allorigins /get reply.
type envelope struct {
	Contents *string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

// Unwrap returns the document carried by a relay reply: the "contents" field
// of a JSON envelope, or the body itself decoded to UTF-8.
func Unwrap(body []byte, contentType string) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if looksJSON(contentType, trimmed) {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if env.Status.HTTPCode >= 400 {
				return nil, &StatusError{Code: env.Status.HTTPCode}
			}
			if env.Contents == nil || strings.TrimSpace(*env.Contents) == "" {
				return nil, ErrBadEnvelope
			}
			return []byte(*env.Contents), nil
		}
		if strings.Contains(strings.ToLower(contentType), "json") {
			return nil, fmt.Errorf("%w: malformed json", ErrBadEnvelope)
		}
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body, nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body, nil
	}
	return decoded, nil
}

func looksJSON(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	return len(body) > 0 && body[0] == '{'
}

// IsTransient reports whether err is worth another attempt: timeouts,
// transport failures, 5xx and 429. Other statuses and envelope errors are
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, ErrBadEnvelope) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
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
