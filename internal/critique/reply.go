package critique

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

// Reply is the six-field object the model must return.
type Reply struct {
	FirstImpression string `json:"firstImpression"`
	DesignUI        string `json:"designUI"`
	ContentCopy     string `json:"contentCopy"`
	PerformanceUX   string `json:"performanceUX"`
	VibeScore       int    `json:"vibeScore"`
	Summary         string `json:"summary"`
}

var textFields = []string{"firstImpression", "designUI", "contentCopy", "performanceUX", "summary"}

// Schema declares the reply shape. All six fields are required and nothing
// else is allowed.
func Schema() jsonschema.Definition {
	str := func(desc string) jsonschema.Definition {
		return jsonschema.Definition{Type: jsonschema.String, Description: desc}
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"firstImpression": str("Immediate reaction to the site"),
			"designUI":        str("Roast of the visual design and UI"),
			"contentCopy":     str("Roast of the copy and content"),
			"performanceUX":   str("Roast of performance and user experience"),
			"vibeScore":       {Type: jsonschema.Integer, Description: "Overall vibe from 0 to 10 inclusive"},
			"summary":         str("Short one-sentence punchline for social media"),
		},
		Required:             []string{"firstImpression", "designUI", "contentCopy", "performanceUX", "vibeScore", "summary"},
		AdditionalProperties: false,
	}
}

// ResponseFormat asks the service to constrain its output to Schema.
func ResponseFormat() *openai.ChatCompletionResponseFormat {
	def := Schema()
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "roast",
			Schema: &def,
			Strict: true,
		},
	}
}

// ParseReply decodes raw strictly. Missing fields, wrong types, blank text and
// scores outside 0..10 are ErrIncompleteReply; text that is not a JSON object
// is reported as malformed.
func ParseReply(raw string) (Reply, error) {
	body := stripFence(strings.TrimSpace(raw))
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Reply{}, &errMalformed{err: fmt.Errorf("parse roast json: %w", err)}
	}
	if fields == nil {
		return Reply{}, &errMalformed{err: fmt.Errorf("parse roast json: not an object")}
	}

	text := make(map[string]string, len(textFields))
	for _, name := range textFields {
		v, err := stringField(fields, name)
		if err != nil {
			return Reply{}, err
		}
		text[name] = v
	}
	score, err := scoreField(fields)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		FirstImpression: text["firstImpression"],
		DesignUI:        text["designUI"],
		ContentCopy:     text["contentCopy"],
		PerformanceUX:   text["performanceUX"],
		VibeScore:       score,
		Summary:         text["summary"],
	}, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%w: missing %s", roast.ErrIncompleteReply, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", roast.ErrIncompleteReply, name)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is empty", roast.ErrIncompleteReply, name)
	}
	return s, nil
}

func scoreField(fields map[string]json.RawMessage) (int, error) {
	raw, ok := fields["vibeScore"]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("%w: missing vibeScore", roast.ErrIncompleteReply)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%w: vibeScore is not a number", roast.ErrIncompleteReply)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: vibeScore %v is not an integer", roast.ErrIncompleteReply, f)
	}
	if f < roast.MinVibeScore || f > roast.MaxVibeScore {
		return 0, fmt.Errorf("%w: vibeScore %v outside %d..%d", roast.ErrIncompleteReply, f, roast.MinVibeScore, roast.MaxVibeScore)
	}
	return int(f), nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// stripFence removes a ```json ... ``` wrapper some models add despite the
// response format.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
