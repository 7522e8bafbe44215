package main

import (
	"context"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Shaxadhere/ai-roast-my-website/internal/critique"
	"github.com/Shaxadhere/ai-roast-my-website/internal/llm"
	"github.com/Shaxadhere/ai-roast-my-website/internal/roast"
)

func TestStub_ServesParsableRoast(t *testing.T) {
	srv := httptest.NewServer(newMux("stub-model"))
	defer srv.Close()

	client := llm.NewOpenAIProvider("", srv.URL+"/v1", srv.Client())
	models, err := client.ListModels(context.Background())
	if err != nil || len(models.Models) != 1 || models.Models[0].ID != "stub-model" {
		t.Fatalf("models: %+v err=%v", models, err)
	}

	req := &critique.Requester{Client: client, Model: "stub-model"}
	meta := roast.Metadata{URL: "https://example.com", Title: "Example"}
	res, err := req.Critique(context.Background(), meta, roast.GenZ)
	if err != nil {
		t.Fatalf("critique: %v", err)
	}
	if res.VibeScore != 6 || res.Summary != "It exists." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.FirstImpression != "Bland, in a "+roast.GenZ.Label()+" way." {
		t.Fatalf("style not echoed: %q", res.FirstImpression)
	}
}

func TestStub_RejectsEmptyConversation(t *testing.T) {
	srv := httptest.NewServer(newMux("stub-model"))
	defer srv.Close()

	client := llm.NewOpenAIProvider("", srv.URL+"/v1", srv.Client())
	_, err := client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "stub-model",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected 400 for a single message")
	}
}
