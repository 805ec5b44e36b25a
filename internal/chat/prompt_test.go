package chat

import (
	"testing"

	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/pkg/llm"
)

func TestBuildContextLayout(t *testing.T) {
	pairs := []knowledge.TrainingPair{{Question: "Hours?", Answer: "9-5"}}
	history := []Turn{
		{UserMessage: "first q", AssistantResponse: "first a"},
		{UserMessage: "second q", AssistantResponse: "second a"},
	}

	got := BuildContext("We sell shoes.", pairs, history, "Do you sell boots?")
	want := []llm.Message{
		{Role: "system", Content: "You are a helpful chatbot that answers user queries based on the provided website knowledge."},
		{Role: "assistant", Content: "Website Knowledge: We sell shoes."},
		{Role: "user", Content: "Question: Hours?"},
		{Role: "assistant", Content: "Answer: 9-5"},
		{Role: "user", Content: "first q"},
		{Role: "assistant", Content: "first a"},
		{Role: "user", Content: "second q"},
		{Role: "assistant", Content: "second a"},
		{Role: "user", Content: "User asked: Do you sell boots?"},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildContextMinimal(t *testing.T) {
	got := BuildContext("", nil, nil, "hi")
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[1].Content != "Website Knowledge: " || got[2].Content != "User asked: hi" {
		t.Fatalf("unexpected context %+v", got)
	}
}
