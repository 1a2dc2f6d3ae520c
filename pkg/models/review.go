package models

import "time"

// Sentiment labels derived by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ValidSentiments contains the closed set of sentiment values.
var ValidSentiments = []string{SentimentPositive, SentimentNeutral, SentimentNegative}

// IsValidSentiment checks if the given sentiment is one of the closed set.
func IsValidSentiment(s string) bool {
	for _, v := range ValidSentiments {
		if v == s {
			return true
		}
	}
	return false
}

// Review is the central record. ReviewID is the vendor-assigned review
// identifier: unique, immutable, and the sole conflict key for upserts.
type Review struct {
	ID             int64      `json:"id"`
	AppID          int64      `json:"app_id"`
	ReviewID       string     `json:"review_id"`
	UserName       string     `json:"user_name"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Rating         int        `json:"rating"` // 1-5 stars
	Territory      string     `json:"territory"`
	IsEdited       bool       `json:"is_edited"`
	CreatedAtStore time.Time  `json:"created_at_store"`
	Sentiment      string     `json:"sentiment"`
	Topics         []string   `json:"topics"`
	NeedReply      bool       `json:"need_reply"`
	ReplyContent   *string    `json:"reply_content,omitempty"`
	RepliedAt      *time.Time `json:"replied_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasTopic reports whether the review carries the given topic tag.
func (r *Review) HasTopic(topic string) bool {
	for _, t := range r.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
