package chat

import (
	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/pkg/llm"
)

const systemPrompt = "You are a helpful chatbot that answers user queries based on the provided website knowledge."

// BuildContext assembles the generation transcript. history must be ordered
// oldest first.
func BuildContext(summary string, pairs []knowledge.TrainingPair, history []Turn, message string) []llm.Message {
	msgs := make([]llm.Message, 0, 3+2*len(pairs)+2*len(history))
	msgs = append(msgs,
		llm.Message{Role: llm.RoleSystem, Content: systemPrompt},
		llm.Message{Role: llm.RoleAssistant, Content: "Website Knowledge: " + summary},
	)
	for _, p := range pairs {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: "Question: " + p.Question},
			llm.Message{Role: llm.RoleAssistant, Content: "Answer: " + p.Answer},
		)
	}
	for _, turn := range history {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: turn.UserMessage},
			llm.Message{Role: llm.RoleAssistant, Content: turn.AssistantResponse},
		)
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: "User asked: " + message})
}
