package roast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	good := []string{"https://example.com", "http://example.com/a?b=c", "  HTTPS://Example.com  "}
	for _, u := range good {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected %q to be valid, got %v", u, err)
		}
	}
	bad := []string{"", "notaurl", "example.com", "ftp://example.com", "https://", "javascript:alert(1)"}
	for _, u := range bad {
		if err := ValidateURL(u); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", u, err)
		}
	}
}

func TestClamp_TruncatesBoundedFields(t *testing.T) {
	m := Metadata{
		URL:           "https://example.com",
		Headings:      []string{"1", "", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
		PrimaryColors: []string{"red", "red", "blue", "green", "#fff", "#000", "pink"},
		TextPreview:   strings.Repeat("é", 1500),
		ImageCount:    -3,
	}
	got := m.Clamp()
	if len(got.Headings) != MaxHeadings {
		t.Fatalf("headings: got %d", len(got.Headings))
	}
	for _, h := range got.Headings {
		if h == "" {
			t.Fatalf("empty heading kept")
		}
	}
	if strings.Join(got.PrimaryColors, ",") != "red,blue,green,#fff,#000" {
		t.Fatalf("colors: got %v", got.PrimaryColors)
	}
	if n := len([]rune(got.TextPreview)); n != MaxTextPreview {
		t.Fatalf("preview runes: got %d", n)
	}
	if got.ImageCount != 0 {
		t.Fatalf("negative image count not clamped")
	}
	if len(m.Headings) != 12 {
		t.Fatalf("clamp mutated input")
	}
}

func TestTruncateRunes_ShortStringUnchanged(t *testing.T) {
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("abc", 0); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestParseStyle(t *testing.T) {
	cases := map[string]Style{
		"savage":                   Savage,
		"Gen-Z":                    GenZ,
		"genz":                     GenZ,
		"Corporate Buzzword Roast": Corporate,
		"  light ":                 Light,
	}
	for in, want := range cases {
		got, err := ParseStyle(in)
		if err != nil || got != want {
			t.Fatalf("ParseStyle(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStyle("mild"); err == nil {
		t.Fatalf("expected error for unknown style")
	}
	if len(Styles()) != 5 {
		t.Fatalf("expected five styles")
	}
	for _, st := range Styles() {
		if st.Description() == "" || st.Label() == string(st) {
			t.Fatalf("style %q missing label or description", st)
		}
	}
}

func TestStyle_JSONUsesLabel(t *testing.T) {
	b, err := json.Marshal(Result{Style: GenZ})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"style":"Gen-Z Internet Roast"`) {
		t.Fatalf("unexpected json: %s", b)
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil || r.Style != GenZ {
		t.Fatalf("round trip style: %v %v", r.Style, err)
	}
}

func TestGenerationError_MessageAndUnwrap(t *testing.T) {
	err := error(&GenerationError{Reason: "parse", Err: ErrIncompleteReply})
	if !strings.HasPrefix(err.Error(), FriendlyGenerationMessage) {
		t.Fatalf("unexpected message: %s", err)
	}
	if !errors.Is(err, ErrIncompleteReply) {
		t.Fatalf("expected to unwrap to ErrIncompleteReply")
	}
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.Reason != "parse" {
		t.Fatalf("errors.As failed")
	}
}

type countingExtractor struct {
	calls int
	meta  Metadata
}

func (c *countingExtractor) Extract(_ context.Context, url string) Metadata {
	c.calls++
	m := c.meta
	m.URL = url
	return m
}

type stubCritic struct {
	calls int
	got   Metadata
	style Style
	err   error
}

func (s *stubCritic) Critique(_ context.Context, meta Metadata, style Style) (Result, error) {
	s.calls++
	s.got = meta
	s.style = style
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{URL: meta.URL, WebsiteTitle: meta.Title, Style: style, VibeScore: 4}, nil
}

func TestPipeline_InvalidInputMakesNoCalls(t *testing.T) {
	ex := &countingExtractor{}
	cr := &stubCritic{}
	p := &Pipeline{Extractor: ex, Critic: cr}
	_, err := p.Run(context.Background(), "notaurl", Savage)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if ex.calls != 0 || cr.calls != 0 {
		t.Fatalf("expected zero calls, got extract=%d critique=%d", ex.calls, cr.calls)
	}
}

func TestPipeline_ClampsBeforeCritique(t *testing.T) {
	ex := &countingExtractor{meta: Metadata{Title: "T", Headings: make([]string, 0, 20)}}
	for i := 0; i < 20; i++ {
		ex.meta.Headings = append(ex.meta.Headings, "h")
	}
	cr := &stubCritic{}
	p := &Pipeline{Extractor: ex, Critic: cr}
	res, err := p.Run(context.Background(), "https://example.com", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(cr.got.Headings) != MaxHeadings {
		t.Fatalf("critic saw %d headings", len(cr.got.Headings))
	}
	if cr.style != DefaultStyle || res.Style != DefaultStyle {
		t.Fatalf("expected default style, got %v", cr.style)
	}
}

func TestPipeline_PropagatesGenerationError(t *testing.T) {
	cr := &stubCritic{err: &GenerationError{Reason: "call", Err: errors.New("boom")}}
	p := &Pipeline{Extractor: &countingExtractor{}, Critic: cr}
	_, err := p.Run(context.Background(), "https://example.com", Light)
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestPipeline_CancelledContextSkipsCritique(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cr := &stubCritic{}
	p := &Pipeline{Extractor: &countingExtractor{}, Critic: cr}
	_, err := p.Run(ctx, "https://example.com", Light)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cr.calls != 0 {
		t.Fatalf("critic should not run after cancellation")
	}
}
