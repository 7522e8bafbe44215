package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// FallbackDescription is used when the page could not be fetched.
const FallbackDescription = "Unable to fetch site description due to CORS or blocking."

// FromHTML derives a bounded metadata record from a raw document. The parser
// tolerates malformed markup; every field falls back to its default on its
// own when the matching nodes are missing.
func FromHTML(pageURL string, input []byte) roast.Metadata {
	meta := roast.Metadata{
		URL:           pageURL,
		Title:         pageURL,
		Headings:      []string{},
		PrimaryColors: []string{},
	}
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return meta
	}
	doc := goquery.NewDocumentFromNode(root)

	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		meta.Title = t
	}
	meta.Description = findDescription(doc)
	meta.Headings = findHeadings(doc)

	imgs := doc.Find("img")
	meta.ImageCount = imgs.Length()
	meta.HasAltText = imgs.FilterFunction(func(_ int, s *goquery.Selection) bool {
		alt, ok := s.Attr("alt")
		return ok && alt != ""
	}).Length() > 0

	meta.PrimaryColors = inlineColors(doc)

	var b strings.Builder
	if body := doc.Find("body").First(); body.Length() > 0 {
		collectVisibleText(&b, body.Get(0))
	}
	meta.TextPreview = preview(b.String())

	return meta.Clamp()
}

// Fallback builds the record used when the page could not be fetched. It
// never fails, even for a URL that does not parse.
func Fallback(pageURL string) roast.Metadata {
	host := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return roast.Metadata{
		URL:           pageURL,
		Title:         host,
		Description:   FallbackDescription,
		Headings:      []string{},
		ImageCount:    0,
		HasAltText:    false,
		PrimaryColors: []string{},
		TextPreview:   "Analysis based on URL: " + pageURL,
	}.Clamp()
}

func findDescription(doc *goquery.Document) string {
	var desc string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "description") {
			return true
		}
		content, _ := s.Attr("content")
		desc = content
		return false
	})
	return desc
}

func findHeadings(doc *goquery.Document) []string {
	out := make([]string, 0, roast.MaxHeadings)
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
		return len(out) < roast.MaxHeadings
	})
	return out
}

// inlineColors scans style attributes only. Stylesheets and the cascade are
// not resolved, so this is a hint about the palette, not the palette.
func inlineColors(doc *goquery.Document) []string {
	out := make([]string, 0, roast.MaxPrimaryColors)
	seen := map[string]struct{}{}
	doc.Find("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		color := colorFromStyle(style)
		if color == "" {
			return true
		}
		if _, ok := seen[color]; !ok {
			seen[color] = struct{}{}
			out = append(out, color)
		}
		return len(out) < roast.MaxPrimaryColors
	})
	return out
}

// colorFromStyle returns the element's color declaration, or its
// background-color when no color is set. Later declarations win.
func colorFromStyle(style string) string {
	var fg, bg string
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		val = cleanValue(val)
		if val == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "color":
			fg = val
		case "background-color":
			bg = val
		}
	}
	if fg != "" {
		return fg
	}
	return bg
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(strings.ToLower(v), "!important"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return collapseSpaces(v)
}

// collectVisibleText appends rendered text under n, skipping elements that
// never render and separating block elements with a space.
func collectVisibleText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template", "head", "svg":
			return
		}
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, "hidden") {
				return
			}
		}
		if isBlock(n.Data) {
			b.WriteByte(' ')
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectVisibleText(b, c)
	}
	if n.Type == html.ElementNode && isBlock(n.Data) {
		b.WriteByte(' ')
	}
}

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "main", "header", "footer", "nav", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "table", "tr", "td", "th",
		"br", "hr", "blockquote", "pre", "form", "figure", "figcaption", "dl", "dt", "dd":
		return true
	}
	return false
}

func preview(text string) string {
	text = norm.NFC.String(collapseSpaces(strings.TrimSpace(text)))
	return roast.TruncateRunes(strings.TrimSpace(text), roast.MaxTextPreview)
}

// collapseSpaces folds every whitespace run, including non-breaking spaces,
// into a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v', '\u00a0':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
