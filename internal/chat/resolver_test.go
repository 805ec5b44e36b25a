package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/pkg/llm"
)

type fakeKnowledge struct {
	entries map[int64]knowledge.Entry
}

func (f *fakeKnowledge) Get(_ context.Context, userID, websiteID int64) (knowledge.Entry, error) {
	e, ok := f.entries[websiteID]
	if !ok || e.UserID != userID {
		return knowledge.Entry{}, knowledge.ErrNotFound
	}
	return e, nil
}

type fakeTraining struct {
	pairs []knowledge.TrainingPair
	err   error
}

func (f *fakeTraining) List(context.Context, int64, int64) ([]knowledge.TrainingPair, error) {
	return f.pairs, f.err
}

type fakeHistory struct {
	turns     []Turn // newest first
	recentErr error
	appendErr error
	appended  []Turn
	limit     int
}

func (f *fakeHistory) Recent(_ context.Context, _, _ int64, limit int) ([]Turn, error) {
	f.limit = limit
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]Turn, 0, limit)
	for i := 0; i < len(f.turns) && i < limit; i++ {
		out = append(out, f.turns[i])
	}
	return out, nil
}

func (f *fakeHistory) Append(_ context.Context, _, websiteID int64, userMessage, response string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, Turn{WebsiteID: websiteID, UserMessage: userMessage, AssistantResponse: response})
	return nil
}

type scriptedProvider struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
	opts     llm.Options
}

func (p *scriptedProvider) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (llm.Stream, error) {
	p.calls++
	p.messages = messages
	p.opts = opts
	if p.err != nil {
		return nil, p.err
	}
	return &textStream{text: p.reply}, nil
}

type textStream struct {
	text string
	sent bool
}

func (s *textStream) Recv() (llm.Chunk, error) {
	if s.sent {
		return llm.Chunk{}, io.EOF
	}
	s.sent = true
	return llm.Chunk{Content: s.text}, nil
}

func (s *textStream) Close() error { return nil }

type resolverFixture struct {
	kb       *fakeKnowledge
	training *fakeTraining
	history  *fakeHistory
	provider *scriptedProvider
	resolver *Resolver
}

func newResolverFixture() *resolverFixture {
	f := &resolverFixture{
		kb: &fakeKnowledge{entries: map[int64]knowledge.Entry{
			3: {ID: 3, UserID: 7, Summary: "We sell shoes."},
			4: {ID: 4, UserID: 8, Summary: "Private notes."},
		}},
		training: &fakeTraining{pairs: []knowledge.TrainingPair{
			{ID: 1, WebsiteID: 3, Question: "What are your hours?", Answer: "9 to 5, Monday to Friday."},
		}},
		history:  &fakeHistory{},
		provider: &scriptedProvider{reply: "  Yes, we stock boots.  "},
	}
	f.resolver = NewResolver(f.kb, f.training, f.history, f.provider)
	return f
}

func TestAnswerRejectsEmptyMessage(t *testing.T) {
	f := newResolverFixture()
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := f.resolver.Answer(context.Background(), 7, 3, msg); !errors.Is(err, ErrMessageRequired) {
			t.Fatalf("Answer(%q) error = %v, want ErrMessageRequired", msg, err)
		}
	}
	if f.provider.calls != 0 {
		t.Fatal("provider must not be called for empty messages")
	}
}

func TestAnswerExactMatchSkipsGeneration(t *testing.T) {
	f := newResolverFixture()

	got, err := f.resolver.Answer(context.Background(), 7, 3, "what are your HOURS")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if got != "9 to 5, Monday to Friday." {
		t.Fatalf("unexpected answer %q", got)
	}
	if f.provider.calls != 0 {
		t.Fatal("exact match must not call the provider")
	}
	if len(f.history.appended) != 0 {
		t.Fatal("exact match must not be persisted")
	}
}

func TestAnswerForeignWebsiteIsNotFound(t *testing.T) {
	f := newResolverFixture()

	_, err := f.resolver.Answer(context.Background(), 7, 4, "What is in your notes?")
	if !errors.Is(err, knowledge.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatal("another user's knowledge must never reach the provider")
	}
}

func TestAnswerGeneratesWithOldestFirstHistory(t *testing.T) {
	f := newResolverFixture()
	f.history.turns = []Turn{
		{ID: 6, UserMessage: "q6", AssistantResponse: "a6"},
		{ID: 5, UserMessage: "q5", AssistantResponse: "a5"},
		{ID: 4, UserMessage: "q4", AssistantResponse: "a4"},
		{ID: 3, UserMessage: "q3", AssistantResponse: "a3"},
		{ID: 2, UserMessage: "q2", AssistantResponse: "a2"},
	}

	got, err := f.resolver.Answer(context.Background(), 7, 3, "Do you sell boots?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if got != "Yes, we stock boots." {
		t.Fatalf("unexpected answer %q", got)
	}
	if f.history.limit != 4 {
		t.Fatalf("expected 4 turns requested, got %d", f.history.limit)
	}
	if f.provider.opts.MaxTokens != 150 || f.provider.opts.Temperature != 0.7 {
		t.Fatalf("unexpected options %+v", f.provider.opts)
	}

	var historyUsers []string
	for _, m := range f.provider.messages {
		if m.Role == llm.RoleUser && strings.HasPrefix(m.Content, "q") {
			historyUsers = append(historyUsers, m.Content)
		}
	}
	if strings.Join(historyUsers, ",") != "q3,q4,q5,q6" {
		t.Fatalf("expected oldest-first history q3..q6, got %v", historyUsers)
	}
	if f.provider.messages[1].Content != "Website Knowledge: We sell shoes." {
		t.Fatalf("summary not in context: %+v", f.provider.messages[1])
	}
	last := f.provider.messages[len(f.provider.messages)-1]
	if last.Content != "User asked: Do you sell boots?" {
		t.Fatalf("unexpected final message %+v", last)
	}

	if len(f.history.appended) != 1 {
		t.Fatalf("expected one persisted turn, got %d", len(f.history.appended))
	}
	if turn := f.history.appended[0]; turn.UserMessage != "Do you sell boots?" || turn.AssistantResponse != "Yes, we stock boots." {
		t.Fatalf("unexpected persisted turn %+v", turn)
	}
}

func TestAnswerGenerationFailureIsNotPersisted(t *testing.T) {
	f := newResolverFixture()
	f.provider.err = errors.New("upstream 503")

	_, err := f.resolver.Answer(context.Background(), 7, 3, "Do you sell boots?")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if len(f.history.appended) != 0 {
		t.Fatal("failed generation must not be persisted")
	}
}

func TestAnswerPersistFailureStillAnswers(t *testing.T) {
	f := newResolverFixture()
	f.history.appendErr = errors.New("disk full")

	got, err := f.resolver.Answer(context.Background(), 7, 3, "Do you sell boots?")
	if err != nil {
		t.Fatalf("expected answer despite persistence failure, got %v", err)
	}
	if got != "Yes, we stock boots." {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestAnswerHistoryFailureFallsBackToNoMemory(t *testing.T) {
	f := newResolverFixture()
	f.history.recentErr = errors.New("timeout")

	if _, err := f.resolver.Answer(context.Background(), 7, 3, "Do you sell boots?"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// system + knowledge + 1 pair (2) + final question
	if len(f.provider.messages) != 5 {
		t.Fatalf("expected 5 context messages, got %d", len(f.provider.messages))
	}
}

func TestAnswerTrainingFailure(t *testing.T) {
	f := newResolverFixture()
	boom := errors.New("db down")
	f.training.err = boom

	if _, err := f.resolver.Answer(context.Background(), 7, 3, "hi"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped training error, got %v", err)
	}
}
