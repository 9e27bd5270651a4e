package domain

// Sentiment is the label the classifier assigns to a text.
type Sentiment int

const (
	SentimentNegative Sentiment = -1
	SentimentNeutral  Sentiment = 0
	SentimentPositive Sentiment = 1
)

// NumClasses is the number of sentiment classes the model predicts.
const NumClasses = 3

func (s Sentiment) String() string {
	switch s {
	case SentimentNegative:
		return "negative"
	case SentimentNeutral:
		return "neutral"
	case SentimentPositive:
		return "positive"
	default:
		return "unknown"
	}
}

func (s Sentiment) Valid() bool {
	return s == SentimentNegative || s == SentimentNeutral || s == SentimentPositive
}

// ClassIndex maps a sentiment label to the class index the boosting library
// trains on: -1 -> 0, 0 -> 1, 1 -> 2.
func (s Sentiment) ClassIndex() int {
	return int(s) + 1
}

// SentimentFromClass is the inverse of ClassIndex.
func SentimentFromClass(class int) (Sentiment, error) {
	s := Sentiment(class - 1)
	if !s.Valid() {
		return 0, ErrInvalidLabel
	}
	return s, nil
}

// ParseSentiment validates a raw dataset label.
func ParseSentiment(raw int) (Sentiment, error) {
	s := Sentiment(raw)
	if !s.Valid() {
		return 0, ErrInvalidLabel
	}
	return s, nil
}
