package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shaxadhere/ai-roast-my-website/internal/relay"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

func TestFromHTML_AllFields(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head>
        <title>  Test Page  </title>
        <meta name="viewport" content="width=device-width">
        <meta name="Description" content="A sample">
        <style>body { color: red }</style>
      </head>
      <body style="background-color: #fafafa">
        <h1>Main   Heading</h1>
        <h2> </h2>
        <h3>Third</h3>
        <h4>Ignored level</h4>
        <p style="color: rgb(1, 2, 3); background-color: blue">Hello <b>world</b></p>
        <img src="a.png">
        <img src="b.png" alt="  ">
        <img src="c.png" alt="logo">
        <script>var hidden = "nope";</script>
      </body>
    </html>`

	m := FromHTML("https://example.com", []byte(html))
	if m.Title != "Test Page" {
		t.Fatalf("title: %q", m.Title)
	}
	if m.Description != "A sample" {
		t.Fatalf("description: %q", m.Description)
	}
	if strings.Join(m.Headings, "|") != "Main   Heading|Third" {
		t.Fatalf("headings: %v", m.Headings)
	}
	if m.ImageCount != 3 || !m.HasAltText {
		t.Fatalf("images: count=%d alt=%v", m.ImageCount, m.HasAltText)
	}
	if strings.Join(m.PrimaryColors, "|") != "#fafafa|rgb(1, 2, 3)" {
		t.Fatalf("colors: %v", m.PrimaryColors)
	}
	if strings.Contains(m.TextPreview, "nope") || strings.Contains(m.TextPreview, "color: red") {
		t.Fatalf("script/style leaked into preview: %q", m.TextPreview)
	}
	if !strings.Contains(m.TextPreview, "Main Heading Third Ignored level Hello world") {
		t.Fatalf("preview: %q", m.TextPreview)
	}
}

func TestFromHTML_MissingTitleUsesURL(t *testing.T) {
	m := FromHTML("https://example.com/x", []byte(`<p>no title here</p>`))
	if m.Title != "https://example.com/x" {
		t.Fatalf("expected url as title, got %q", m.Title)
	}
	if m.Description != "" {
		t.Fatalf("expected empty description, got %q", m.Description)
	}
	if m.Headings == nil || m.PrimaryColors == nil {
		t.Fatalf("slices should be empty, not nil")
	}
}

func TestFromHTML_AltTextFalseWithoutImages(t *testing.T) {
	m := FromHTML("https://example.com", []byte(`<title>x</title><p>text</p>`))
	if m.ImageCount != 0 || m.HasAltText {
		t.Fatalf("expected no images and no alt text, got %d %v", m.ImageCount, m.HasAltText)
	}
	m = FromHTML("https://example.com", []byte(`<img src="a"><img alt="">`))
	if m.ImageCount != 2 || m.HasAltText {
		t.Fatalf("expected 2 images without alt text, got %d %v", m.ImageCount, m.HasAltText)
	}
}

func TestFromHTML_BoundsRespected(t *testing.T) {
	var b strings.Builder
	b.WriteString("<title>Big</title><body>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "<h2>Heading %d</h2>", i)
		fmt.Fprintf(&b, `<div style="color: #%06x">block</div>`, i)
	}
	b.WriteString("<p>")
	b.WriteString(strings.Repeat("lorem    ipsum\n\t", 400))
	b.WriteString("</p></body>")

	m := FromHTML("https://example.com", []byte(b.String()))
	if len(m.Headings) != roast.MaxHeadings {
		t.Fatalf("headings: %d", len(m.Headings))
	}
	if m.Headings[0] != "Heading 0" || m.Headings[9] != "Heading 9" {
		t.Fatalf("document order not kept: %v", m.Headings)
	}
	if len(m.PrimaryColors) != roast.MaxPrimaryColors {
		t.Fatalf("colors: %d", len(m.PrimaryColors))
	}
	if n := len([]rune(m.TextPreview)); n > roast.MaxTextPreview {
		t.Fatalf("preview too long: %d", n)
	}
	if strings.Contains(m.TextPreview, "  ") || strings.ContainsAny(m.TextPreview, "\n\t") {
		t.Fatalf("whitespace not collapsed")
	}
}

func TestFromHTML_ColorsDedupedInOrder(t *testing.T) {
	html := `<div style="color:red"></div><div style="background-color: red"></div>
	<span style="background: url(x.png)"></span><div style="color: blue !important"></div>
	<div style="COLOR: red"></div>`
	m := FromHTML("https://example.com", []byte(html))
	if strings.Join(m.PrimaryColors, ",") != "red,blue" {
		t.Fatalf("colors: %v", m.PrimaryColors)
	}
}

func TestFromHTML_MalformedMarkupDoesNotPanic(t *testing.T) {
	inputs := []string{
		"",
		"<<<>>>",
		"<html><head><title>Unclosed",
		"<h1>a<h2>b<h3>c",
		"<img alt=x <p>",
		"\x00\xff\xfe",
	}
	for _, in := range inputs {
		m := FromHTML("https://example.com", []byte(in))
		if m.URL != "https://example.com" {
			t.Fatalf("url lost for %q", in)
		}
	}
}

func TestFallback(t *testing.T) {
	m := Fallback("https://www.example.com:8443/path?q=1")
	if m.Title != "www.example.com" {
		t.Fatalf("title: %q", m.Title)
	}
	if m.Description != FallbackDescription {
		t.Fatalf("description: %q", m.Description)
	}
	if len(m.Headings) != 0 || m.ImageCount != 0 || m.HasAltText || len(m.PrimaryColors) != 0 {
		t.Fatalf("fallback should be empty: %+v", m)
	}
	if m.TextPreview != "Analysis based on URL: https://www.example.com:8443/path?q=1" {
		t.Fatalf("preview: %q", m.TextPreview)
	}
}

func TestFallback_MalformedURL(t *testing.T) {
	raw := "http://[::1"
	m := Fallback(raw)
	if m.Title != raw {
		t.Fatalf("expected raw url as title, got %q", m.Title)
	}
	long := "https://example.com/" + strings.Repeat("a", 2000)
	if n := len([]rune(Fallback(long).TextPreview)); n > roast.MaxTextPreview {
		t.Fatalf("fallback preview too long: %d", n)
	}
}

type fakeFetcher struct {
	page relay.Page
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (relay.Page, error) { return f.page, f.err }

func TestRelayExtractor_FailureFallsBack(t *testing.T) {
	e := &RelayExtractor{Fetcher: fakeFetcher{err: errors.New("network down")}}
	m := e.Extract(context.Background(), "https://example.com")
	if m.Title != "example.com" || len(m.Headings) != 0 || m.ImageCount != 0 || m.HasAltText {
		t.Fatalf("unexpected fallback record: %+v", m)
	}
}

func TestRelayExtractor_NonSuccessStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &relay.Client{Endpoint: srv.URL + "/get?url=", MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}
	e := &RelayExtractor{Fetcher: c}
	m := e.Extract(context.Background(), "https://example.com")
	if m.Title != "example.com" || m.Description != FallbackDescription {
		t.Fatalf("expected fallback, got %+v", m)
	}
}

func TestFromHTML_WhitespaceAltCounts(t *testing.T) {
	m := FromHTML("https://e.com", []byte(`<img src="a.png" alt=" ">`))
	if m.ImageCount != 1 || !m.HasAltText {
		t.Fatalf("a non-empty alt attribute should count, got %d %v", m.ImageCount, m.HasAltText)
	}
}

func TestFromHTML_KeepsDescriptionAndHeadingText(t *testing.T) {
	m := FromHTML("https://e.com", []byte("<meta name=\"description\" content=\" Two\n  lines \"><h1> A\n   B </h1>"))
	if m.Description != " Two\n  lines " {
		t.Fatalf("description should be kept as written, got %q", m.Description)
	}
	if len(m.Headings) != 1 || m.Headings[0] != "A\n   B" {
		t.Fatalf("headings should only be trimmed, got %q", m.Headings)
	}
}

func TestRelayExtractor_NotModifiedWithoutCacheFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	e := &RelayExtractor{Fetcher: &relay.Client{Endpoint: srv.URL + "/get?url=", MaxAttempts: 1}}
	m := e.Extract(context.Background(), "https://example.com")
	if m.Title != "example.com" || m.Description != FallbackDescription {
		t.Fatalf("expected fallback, got %+v", m)
	}
}

func TestRelayExtractor_ParsesRelayedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contents":"<title>Example</title><meta name=\"description\" content=\"A sample\">"}`))
	}))
	defer srv.Close()

	e := &RelayExtractor{Fetcher: &relay.Client{Endpoint: srv.URL + "/get?url="}}
	m := e.Extract(context.Background(), "https://example.com")
	if m.Title != "Example" || m.Description != "A sample" {
		t.Fatalf("unexpected metadata: %+v", m)
	}
}

func TestRelayExtractor_NilFetcher(t *testing.T) {
	m := (&RelayExtractor{}).Extract(context.Background(), "https://example.com")
	if m.Title != "example.com" {
		t.Fatalf("expected fallback, got %q", m.Title)
	}
}
