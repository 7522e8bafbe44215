package roast

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Style selects the voice of a roast. It is embedded in the prompt and has no
// effect on extraction.
type Style string

const (
	Light        Style = "light"
	Savage       Style = "savage"
	Professional Style = "professional"
	GenZ         Style = "genz"
	Corporate    Style = "corporate"
)

type styleInfo struct {
	label       string
	description string
}

var styleTable = map[Style]styleInfo{
	Light:        {"Light & Friendly", "A gentle poke at your margins. Good for sensitive souls."},
	Savage:       {"Savage but Smart", "No mercy. Your CSS will cry."},
	Professional: {"Professional Critique", "Constructive criticism, but with a side of salt."},
	GenZ:         {"Gen-Z Internet Roast", "No cap, your UI is giving mid vibes. Fr fr."},
	Corporate:    {"Corporate Buzzword Roast", "Leveraging synergies to pivot your design paradigm into a trash can."},
}

// Styles lists every style in display order.
func Styles() []Style {
	return []Style{Light, Savage, Professional, GenZ, Corporate}
}

// DefaultStyle is used when the caller does not pick one.
const DefaultStyle = Savage

// Label is the human-readable name sent to the model.
func (s Style) Label() string {
	if info, ok := styleTable[s]; ok {
		return info.label
	}
	return string(s)
}

// Description is display copy only.
func (s Style) Description() string {
	return styleTable[s].description
}

// Valid reports whether s is one of the five known styles.
func (s Style) Valid() bool {
	_, ok := styleTable[s]
	return ok
}

func (s Style) String() string { return s.Label() }

// ParseStyle accepts a style key ("savage", "gen-z") or its label.
func ParseStyle(v string) (Style, error) {
	key := strings.ToLower(strings.TrimSpace(v))
	switch key {
	case "gen-z", "gen_z":
		key = string(GenZ)
	}
	if st := Style(key); st.Valid() {
		return st, nil
	}
	for _, st := range Styles() {
		if strings.EqualFold(st.Label(), strings.TrimSpace(v)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", v)
}

// MarshalJSON writes the label, matching what history and exports display.
func (s Style) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

func (s *Style) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStyle(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
