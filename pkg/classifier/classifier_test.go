package classifier

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/llm"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

func TestClassifyHappyPath(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"negative", `["crash", "ui"]`}}
	c := New(mock, zap.NewNop())

	analysis := c.Classify(context.Background(), "Keeps crashing", "App crashes on launch", 1)

	if analysis.Sentiment != models.SentimentNegative {
		t.Errorf("sentiment = %q, want negative", analysis.Sentiment)
	}
	if !reflect.DeepEqual(analysis.Topics, []string{"crash", "ui"}) {
		t.Errorf("topics = %v, want [crash ui]", analysis.Topics)
	}

	if len(mock.CapturedPrompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(mock.CapturedPrompts))
	}
	if !strings.Contains(mock.CapturedPrompts[0], "Keeps crashing") {
		t.Errorf("sentiment prompt missing review title: %q", mock.CapturedPrompts[0])
	}
}

func TestClassifyFallsBackToNeutralOnError(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("upstream timeout")}
	c := New(mock, zap.NewNop())

	analysis := c.Classify(context.Background(), "t", "b", 3)

	if analysis.Sentiment != models.SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral fallback", analysis.Sentiment)
	}
	if analysis.Topics == nil || len(analysis.Topics) != 0 {
		t.Errorf("topics = %v, want empty non-nil slice", analysis.Topics)
	}
}

func TestClassifyTopicsFallBackOnBadJSON(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"positive", "I could not find any topics, sorry!"}}
	c := New(mock, zap.NewNop())

	analysis := c.Classify(context.Background(), "t", "b", 5)

	if analysis.Sentiment != models.SentimentPositive {
		t.Errorf("sentiment = %q, want positive", analysis.Sentiment)
	}
	if len(analysis.Topics) != 0 {
		t.Errorf("topics = %v, want empty on unparsable response", analysis.Topics)
	}
}

func TestClassifyNormalizesTopics(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"neutral", `[" Crash ", "crash", "", "PAY"]`}}
	c := New(mock, zap.NewNop())

	analysis := c.Classify(context.Background(), "t", "b", 3)

	if !reflect.DeepEqual(analysis.Topics, []string{"crash", "pay"}) {
		t.Errorf("topics = %v, want [crash pay]", analysis.Topics)
	}
}

func TestCoerceSentiment(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"positive", models.SentimentPositive},
		{"  Positive  ", models.SentimentPositive},
		{"The sentiment is negative.", models.SentimentNegative},
		{"NEUTRAL", models.SentimentNeutral},
		{"mixed feelings overall", models.SentimentNeutral},
		{"", models.SentimentNeutral},
		// Both labels present: positive wins by precedence.
		{"positive, though slightly negative", models.SentimentPositive},
	}

	for _, tc := range cases {
		if got := CoerceSentiment(tc.raw); got != tc.want {
			t.Errorf("CoerceSentiment(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNeutralAnalysis(t *testing.T) {
	a := NeutralAnalysis()
	if a.Sentiment != models.SentimentNeutral {
		t.Errorf("sentiment = %q", a.Sentiment)
	}
	if a.Topics == nil || len(a.Topics) != 0 {
		t.Errorf("topics must be an empty non-nil slice, got %v", a.Topics)
	}
}
