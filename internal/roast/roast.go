package roast

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Bounds applied to Metadata by Clamp.
const (
	MaxHeadings       = 10
	MaxPrimaryColors  = 5
	MaxTextPreview    = 1000
	MaxHistoryEntries = 5
	MinVibeScore      = 0
	MaxVibeScore      = 10
)

// Metadata is the bounded page summary handed to the critic.
type Metadata struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Headings      []string `json:"headings"`
	ImageCount    int      `json:"imageCount"`
	HasAltText    bool     `json:"hasAltText"`
	PrimaryColors []string `json:"primaryColors"`
	TextPreview   string   `json:"textPreview"`
}

// Clamp returns a copy of m with every bounded field truncated to its cap.
// Slices are copied so the result never aliases the input.
func (m Metadata) Clamp() Metadata {
	out := m
	out.Headings = clampStrings(m.Headings, MaxHeadings, true)
	out.PrimaryColors = clampStrings(dedupe(m.PrimaryColors), MaxPrimaryColors, true)
	if out.ImageCount < 0 {
		out.ImageCount = 0
	}
	out.TextPreview = TruncateRunes(m.TextPreview, MaxTextPreview)
	return out
}

// Sparse reports whether the record carries nothing beyond the URL.
func (m Metadata) Sparse() bool {
	return len(m.Headings) == 0 && m.ImageCount == 0 && strings.TrimSpace(m.Description) == ""
}

// TruncateRunes cuts s to at most n characters without splitting a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func clampStrings(in []string, max int, dropEmpty bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if dropEmpty && strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Result is one finished critique.
type Result struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	WebsiteTitle    string    `json:"websiteTitle"`
	Style           Style     `json:"style"`
	FirstImpression string    `json:"firstImpression"`
	DesignUI        string    `json:"designUI"`
	ContentCopy     string    `json:"contentCopy"`
	PerformanceUX   string    `json:"performanceUX"`
	VibeScore       int       `json:"vibeScore"`
	Timestamp       time.Time `json:"timestamp"`
	Summary         string    `json:"summary"`
}

// HistoryItem is the trimmed form of a Result kept in local history.
type HistoryItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	VibeScore int       `json:"vibeScore"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryItemFrom trims r to its history summary.
func HistoryItemFrom(r Result) HistoryItem {
	return HistoryItem{
		ID:        r.ID,
		URL:       r.URL,
		Title:     r.WebsiteTitle,
		VibeScore: r.VibeScore,
		Timestamp: r.Timestamp,
	}
}
