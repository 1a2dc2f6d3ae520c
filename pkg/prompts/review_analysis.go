// Package prompts builds the LLM prompts used to analyze customer reviews.
package prompts

import (
	"fmt"
	"strings"
)

// SentimentSystemMessage frames the sentiment classification task.
const SentimentSystemMessage = "You are an expert mobile app analytics AI. " +
	"You classify App Store review sentiment and reply with a single lowercase word."

// TopicSystemMessage frames the topic extraction task.
const TopicSystemMessage = "You are a product manager assistant. " +
	"You tag App Store reviews with issue topics and reply with a JSON array only."

// TopicTags is the suggested tag vocabulary offered to the model. The
// classifier accepts tags outside this list (open vocabulary).
var TopicTags = []struct {
	Tag         string
	Description string
}{
	{"crash", "app closes unexpectedly"},
	{"pay", "subscription, pricing, refunds"},
	{"ads", "too many ads, annoying ads"},
	{"feature_request", "asking for new features"},
	{"ui", "design, navigation, usability"},
	{"performance", "slow, laggy, battery drain"},
	{"content", "quality of content within app"},
	{"bug", "general functional errors"},
}

// BuildSentimentPrompt creates the prompt for sentiment classification.
// The model must answer with exactly one of: positive, neutral, negative.
func BuildSentimentPrompt(title, body string, rating int) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following user review.\n\n")
	prompt.WriteString("Review:\n")
	prompt.WriteString(fmt.Sprintf("Title: %q\n", title))
	prompt.WriteString(fmt.Sprintf("Body: %q\n", body))
	prompt.WriteString(fmt.Sprintf("Rating: %d stars\n\n", rating))
	prompt.WriteString("Task:\n")
	prompt.WriteString("Classify the sentiment of this review into exactly one of these categories: 'positive', 'neutral', 'negative'.\n")
	prompt.WriteString("Focus on the user's emotional tone and specific complaints or praises.\n\n")
	prompt.WriteString("Output Format:\n")
	prompt.WriteString("Return ONLY the category name (lowercase).\n")

	return prompt.String()
}

// BuildTopicPrompt creates the prompt for topic tag extraction.
// The model must answer with a JSON array of strings.
func BuildTopicPrompt(title, body string) string {
	var prompt strings.Builder

	prompt.WriteString("Identify the specific issues or topics mentioned in this review.\n\n")
	prompt.WriteString("Review:\n")
	prompt.WriteString(fmt.Sprintf("Title: %q\n", title))
	prompt.WriteString(fmt.Sprintf("Body: %q\n\n", body))
	prompt.WriteString("Potential Tags:\n")
	for _, t := range TopicTags {
		prompt.WriteString(fmt.Sprintf("- %s (%s)\n", t.Tag, t.Description))
	}
	prompt.WriteString("\nTask:\n")
	prompt.WriteString("Identify all relevant tags from the list above that apply to this review. If no specific tag applies, return an empty list.\n\n")
	prompt.WriteString("Output Format:\n")
	prompt.WriteString(`Return a JSON array of strings, e.g., ["crash", "performance"]. Do not include markdown or explanations.` + "\n")

	return prompt.String()
}
