package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

func sample() roast.Result {
	return roast.Result{
		ID:              "abc",
		URL:             "https://example.com",
		WebsiteTitle:    "Example",
		Style:           roast.Professional,
		FirstImpression: "Bland.",
		DesignUI:        "Plain.",
		ContentCopy:     "Minimal.",
		PerformanceUX:   "Fast.",
		VibeScore:       6,
		Timestamp:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Summary:         "It exists.",
	}
}

func TestShareText(t *testing.T) {
	got := ShareText(sample())
	if got != `I just got my website roasted by AI! Vibe Score: 6/10. "It exists."` {
		t.Fatalf("unexpected share text %q", got)
	}
}

func TestMarkdown_ContainsAllSections(t *testing.T) {
	md := Markdown(sample())
	for _, want := range []string{"# Roast: Example", "Vibe Score: 6/10", "Professional Critique", "## First Impression", "Bland.", "## Design & UI", "Plain.", "## Content & Copy", "Minimal.", "## Performance & UX", "Fast.", "> It exists."} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestVerdict(t *testing.T) {
	if Verdict(10) == Verdict(0) {
		t.Fatalf("expected different verdicts for extremes")
	}
}

func TestPDF_WritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roast.pdf")
	r := sample()
	r.Summary = "Café “quotes” survive — mostly."
	if err := PDF(r, out); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}
