// Command genai-stub serves a minimal OpenAI-compatible API that answers every
// chat completion with a canned roast. It is used for offline runs and
// integration checks of roastmysite.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// cannedRoast is the reply for every prompt.
type cannedRoast struct {
	FirstImpression string `json:"firstImpression"`
	DesignUI        string `json:"designUI"`
	ContentCopy     string `json:"contentCopy"`
	PerformanceUX   string `json:"performanceUX"`
	VibeScore       int    `json:"vibeScore"`
	Summary         string `json:"summary"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("genai-stub stopped")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) < 2 {
			http.Error(w, `{"error":{"message":"expected system and user messages","type":"invalid_request_error"}}`, http.StatusBadRequest)
			return
		}
		reply := roastFor(req.Messages[1].Content)
		b, _ := json.Marshal(reply)
		log.Info().Str("model", req.Model).Int("prompt_len", len(req.Messages[1].Content)).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": string(b)},
			}},
		})
	})
	return mux
}

const stylePrefix = "The style of the roast must be: "

func roastFor(prompt string) cannedRoast {
	r := cannedRoast{
		FirstImpression: "Bland.",
		DesignUI:        "Plain.",
		ContentCopy:     "Minimal.",
		PerformanceUX:   "Fast.",
		VibeScore:       6,
		Summary:         "It exists.",
	}
	// Echo the requested style so callers can see the prompt reached the model.
	if i := strings.Index(prompt, stylePrefix); i >= 0 {
		line := prompt[i+len(stylePrefix):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		r.FirstImpression = "Bland, in a " + strings.TrimSpace(line) + " way."
	}
	return r
}
