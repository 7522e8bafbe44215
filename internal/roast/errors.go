package roast

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidInput is returned before any network activity when the URL lacks
// an http or https scheme.
var ErrInvalidInput = errors.New("invalid input: url must start with http:// or https://")

// ErrIncompleteReply marks a model reply that is missing a field, has a field
// of the wrong type, or carries an out-of-range score.
var ErrIncompleteReply = errors.New("incomplete reply")

// FriendlyGenerationMessage is what users see when no roast could be produced.
const FriendlyGenerationMessage = "AI failed to generate a roast. It was too shocked by the website's design."

// GenerationError reports that the critique step could not produce a result.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return FriendlyGenerationMessage
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s (%v)", FriendlyGenerationMessage, e.Err)
	}
	return fmt.Sprintf("%s (%s: %v)", FriendlyGenerationMessage, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidateURL checks the scheme and host of raw. It does no network I/O.
func ValidateURL(raw string) error {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidInput, raw)
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidInput, raw)
	}
	return nil
}
