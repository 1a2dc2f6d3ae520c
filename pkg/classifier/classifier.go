// Package classifier derives sentiment labels and topic tags for customer
// reviews using an LLM backend.
package classifier

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/llm"
	"github.com/yuantang/AppReviewMontior/pkg/models"
	"github.com/yuantang/AppReviewMontior/pkg/prompts"
)

// Analysis is the classifier verdict for one review. Topics is an open
// vocabulary tag set; Sentiment is always one of the closed three-value set.
type Analysis struct {
	Sentiment string
	Topics    []string
}

// NeutralAnalysis is the fallback used whenever classification fails:
// neutral sentiment, no topics. Never nil, never a partial object.
func NeutralAnalysis() Analysis {
	return Analysis{Sentiment: models.SentimentNeutral, Topics: []string{}}
}

// Classifier labels review text. It never returns an error: any upstream
// failure resolves to the neutral fallback so one bad item cannot stall a
// reconciliation batch.
type Classifier interface {
	Classify(ctx context.Context, title, body string, rating int) Analysis
}

type llmClassifier struct {
	client llm.Client
	logger *zap.Logger
}

// New creates a classifier backed by the given LLM client.
func New(client llm.Client, logger *zap.Logger) Classifier {
	return &llmClassifier{
		client: client,
		logger: logger.Named("classifier"),
	}
}

var _ Classifier = (*llmClassifier)(nil)

// classifyTemperature keeps the labeling deterministic-ish.
const classifyTemperature = 0.1

// Classify runs sentiment and topic analysis on one review.
func (c *llmClassifier) Classify(ctx context.Context, title, body string, rating int) Analysis {
	sentiment, ok := c.classifySentiment(ctx, title, body, rating)
	if !ok {
		return NeutralAnalysis()
	}

	return Analysis{
		Sentiment: sentiment,
		Topics:    c.extractTopics(ctx, title, body),
	}
}

func (c *llmClassifier) classifySentiment(ctx context.Context, title, body string, rating int) (string, bool) {
	resp, err := c.client.GenerateResponse(ctx,
		prompts.BuildSentimentPrompt(title, body, rating),
		prompts.SentimentSystemMessage,
		classifyTemperature)
	if err != nil {
		c.logger.Warn("Sentiment classification failed, falling back to neutral", zap.Error(err))
		return "", false
	}

	return CoerceSentiment(resp), true
}

func (c *llmClassifier) extractTopics(ctx context.Context, title, body string) []string {
	resp, err := c.client.GenerateResponse(ctx,
		prompts.BuildTopicPrompt(title, body),
		prompts.TopicSystemMessage,
		classifyTemperature)
	if err != nil {
		c.logger.Warn("Topic extraction failed, falling back to empty set", zap.Error(err))
		return []string{}
	}

	topics, err := llm.ParseJSONResponse[[]string](resp)
	if err != nil {
		c.logger.Warn("Topic response was not a JSON array, falling back to empty set",
			zap.String("response", resp),
			zap.Error(err))
		return []string{}
	}

	// Normalize: lowercase, trimmed, no empties or duplicates.
	seen := make(map[string]bool, len(topics))
	cleaned := make([]string, 0, len(topics))
	for _, t := range topics {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}

	return cleaned
}

// CoerceSentiment maps free-form model output onto the closed sentiment set.
// Chatty responses that mention a label still resolve; anything else is
// neutral.
func CoerceSentiment(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, models.SentimentPositive):
		return models.SentimentPositive
	case strings.Contains(s, models.SentimentNegative):
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
