package summarize

import (
	"context"
	"time"

	"github.com/avion00/medicare-backend/pkg/llm"
	"github.com/avion00/medicare-backend/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	systemPrompt       = "You are a summarization assistant."
	userPromptPrefix   = "Summarize the following text:\n\n"
	DefaultMaxTokens   = 100
	defaultTemperature = 0.7
)

var summarizeCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "lookout",
		Name:      "summarize_calls_total",
		Help:      "Total page summarization calls",
	},
	[]string{"status"},
)

// Summarizer condenses page text with a language model. When the model call
// fails the first MaxTokens characters of the input are used instead.
type Summarizer struct {
	provider  llm.Provider
	logger    logging.Logger
	maxTokens int
	timeout   time.Duration
}

type Option func(*Summarizer)

func WithLogger(logger logging.Logger) Option {
	return func(s *Summarizer) { s.logger = logger }
}

func WithMaxTokens(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTimeout bounds each model call; zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Summarizer) { s.timeout = d }
}

func New(provider llm.Provider, opts ...Option) *Summarizer {
	s := &Summarizer{
		provider:  provider,
		logger:    logging.NewDiscardLogger(),
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize never fails: errors and empty completions fall back to a
// truncated copy of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	summary, err := llm.Generate(ctx, s.provider, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPromptPrefix + text},
	}, llm.Options{MaxTokens: s.maxTokens, Temperature: defaultTemperature})
	if err != nil {
		summarizeCallsTotal.WithLabelValues("fallback").Inc()
		s.logger.WithError(err).WithField("text_length", len(text)).Warn("Summarization failed, falling back to truncated text")
		return truncate(text, s.maxTokens)
	}
	summarizeCallsTotal.WithLabelValues("success").Inc()
	return summary
}

// truncate returns at most n runes of text.
func truncate(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
