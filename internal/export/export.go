package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// ShareText is the one-line social post for a roast.
func ShareText(r roast.Result) string {
	return fmt.Sprintf("I just got my website roasted by AI! Vibe Score: %d/10. %q", r.VibeScore, r.Summary)
}

// Verdict is a short label for a vibe score.
func Verdict(score int) string {
	switch {
	case score >= 8:
		return "Certified banger"
	case score >= 5:
		return "Mid, but salvageable"
	case score >= 3:
		return "Needs a redesign"
	default:
		return "Call the burn ward"
	}
}

// Markdown renders r as a shareable card.
func Markdown(r roast.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Roast: %s\n\n", r.WebsiteTitle)
	fmt.Fprintf(&b, "%s · %s · %s\n\n", r.URL, r.Style.Label(), r.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Vibe Score: %d/10** (%s)\n\n", r.VibeScore, Verdict(r.VibeScore))
	fmt.Fprintf(&b, "> %s\n\n", r.Summary)
	section := func(title, body string) {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
	}
	section("First Impression", r.FirstImpression)
	section("Design & UI", r.DesignUI)
	section("Content & Copy", r.ContentCopy)
	section("Performance & UX", r.PerformanceUX)
	b.WriteString(ShareText(r))
	b.WriteString("\n")
	return b.String()
}

// JSON renders r with indentation.
func JSON(r roast.Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
