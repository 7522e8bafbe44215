package export

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// PDF writes a one-page roast card to outPath. Core fonts are used, so text
// is translated to cp1252 and characters outside it are dropped.
func PDF(r roast.Result, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Roast: "+r.WebsiteTitle), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(r.WebsiteTitle), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  |  %s", r.URL, r.Style.Label())), "", 1, "L", false, 0, r.URL)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// Score badge
	pdf.SetFillColor(255, 87, 34)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(40, 18, fmt.Sprintf("%d/10", r.VibeScore), "", 0, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 18, "  "+tr(Verdict(r.VibeScore)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 12)
	pdf.MultiCell(0, 6, tr(r.Summary), "", "L", false)
	pdf.Ln(3)

	section := func(title, body string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(strings.TrimSpace(body)), "", "L", false)
		pdf.Ln(3)
	}
	section("First Impression", r.FirstImpression)
	section("Design & UI", r.DesignUI)
	section("Content & Copy", r.ContentCopy)
	section("Performance & UX", r.PerformanceUX)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(140, 140, 140)
	pdf.CellFormat(0, 5, r.Timestamp.UTC().Format("2006-01-02 15:04 MST")+"  |  "+r.ID, "", 1, "L", false, 0, "")

	return pdf.OutputFileAndClose(outPath)
}
