package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/pkg/llm"
	"github.com/avion00/medicare-backend/pkg/logging"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrGeneration      = errors.New("failed to generate response")
)

const (
	defaultHistoryTurns = 4
	defaultMaxTokens    = 150
	defaultTemperature  = 0.7
	defaultTimeout      = 30 * time.Second
)

// Answer sources recorded under chat_answers_total.
const (
	sourceExactMatch = "exact_match"
	sourceGenerated  = "generated"
	sourceError      = "error"
)

type KnowledgeReader interface {
	Get(ctx context.Context, userID, websiteID int64) (knowledge.Entry, error)
}

type TrainingReader interface {
	List(ctx context.Context, userID, websiteID int64) ([]knowledge.TrainingPair, error)
}

type History interface {
	Recent(ctx context.Context, userID, websiteID int64, limit int) ([]Turn, error)
	Append(ctx context.Context, userID, websiteID int64, userMessage, response string) error
}

// Resolver answers a user's message about one of their websites: curated
// answers first, otherwise a generated reply grounded in the site summary,
// the curated pairs and the recent conversation.
type Resolver struct {
	knowledge    KnowledgeReader
	training     TrainingReader
	history      History
	provider     llm.Provider
	logger       logging.Logger
	historyTurns int
	maxTokens    int
	timeout      time.Duration
}

type ResolverOption func(*Resolver)

func WithLogger(logger logging.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// WithGenerationTimeout bounds each model call.
func WithGenerationTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithHistoryTurns(n int) ResolverOption {
	return func(r *Resolver) {
		if n >= 0 {
			r.historyTurns = n
		}
	}
}

func NewResolver(kb KnowledgeReader, training TrainingReader, history History, provider llm.Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		knowledge:    kb,
		training:     training,
		history:      history,
		provider:     provider,
		logger:       logging.NewDiscardLogger(),
		historyTurns: defaultHistoryTurns,
		maxTokens:    defaultMaxTokens,
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answer returns the reply to message. Errors: ErrMessageRequired for a blank
// message, knowledge.ErrNotFound when the website is missing or not owned by
// userID, ErrGeneration when the model call fails. Nothing is persisted for
// exact matches or failed generations.
func (r *Resolver) Answer(ctx context.Context, userID, websiteID int64, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrMessageRequired
	}

	log := r.logger.WithFields(logging.Fields{
		"user_id":    userID,
		"website_id": websiteID,
	})

	entry, err := r.knowledge.Get(ctx, userID, websiteID)
	if err != nil {
		return "", err
	}

	pairs, err := r.training.List(ctx, userID, websiteID)
	if err != nil {
		return "", fmt.Errorf("load training data: %w", err)
	}
	if pair, ok := MatchTraining(pairs, message); ok {
		answersTotal.WithLabelValues(sourceExactMatch).Inc()
		log.WithField("pair_id", pair.ID).Debug("Answered from training data")
		return pair.Answer, nil
	}

	recent, err := r.history.Recent(ctx, userID, websiteID, r.historyTurns)
	if err != nil {
		// Answer without memory rather than fail the request.
		log.WithError(err).Warn("Failed to load conversation history")
		recent = nil
	}
	slices.Reverse(recent)

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reply, err := llm.Generate(genCtx, r.provider, BuildContext(entry.Summary, pairs, recent, message), llm.Options{
		MaxTokens:   r.maxTokens,
		Temperature: defaultTemperature,
	})
	generationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		answersTotal.WithLabelValues(sourceError).Inc()
		log.WithError(err).Error("Answer generation failed")
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if err := r.history.Append(ctx, userID, websiteID, message, reply); err != nil {
		log.WithError(err).Warn("Failed to record conversation turn")
	}
	answersTotal.WithLabelValues(sourceGenerated).Inc()
	return reply, nil
}
