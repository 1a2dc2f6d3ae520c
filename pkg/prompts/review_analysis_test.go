package prompts

import (
	"strings"
	"testing"
)

func TestBuildSentimentPrompt(t *testing.T) {
	prompt := BuildSentimentPrompt("Love it", "Best notes app I have used", 5)

	for _, want := range []string{`Title: "Love it"`, `Body: "Best notes app I have used"`, "Rating: 5 stars", "positive", "neutral", "negative"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("sentiment prompt missing %q", want)
		}
	}
}

func TestBuildTopicPrompt(t *testing.T) {
	prompt := BuildTopicPrompt("Crashes", "Closes immediately on my phone")

	if !strings.Contains(prompt, `Title: "Crashes"`) {
		t.Errorf("topic prompt missing review title")
	}
	for _, tag := range TopicTags {
		if !strings.Contains(prompt, tag.Tag) {
			t.Errorf("topic prompt missing tag %q", tag.Tag)
		}
	}
	if !strings.Contains(prompt, "JSON array") {
		t.Errorf("topic prompt missing output format instruction")
	}
}
