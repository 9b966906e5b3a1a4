package ai

import "context"

const maxKeyTopics = 10

// Sentiment is a 1-5 star rating with a 0-1 confidence score.
type Sentiment struct {
	Rating     float64 `json:"rating"`
	Confidence float64 `json:"confidence"`
}

var sentimentSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"rating":     {Type: "number"},
		"confidence": {Type: "number"},
	},
	Required: []string{"rating", "confidence"},
}

var topicsSchema = &Schema{
	Type:  "array",
	Items: &Schema{Type: "string"},
}

// AnalyzeSentiment rates the sentiment of text. On any failure it returns a
// neutral sentiment rather than an error; this analysis is advisory only.
func AnalyzeSentiment(ctx context.Context, gen StructuredGenerator, text string) Sentiment {
	systemPrompt := `You are a sentiment analysis expert.
Analyze the sentiment of the text and provide a rating from 1 to 5 stars and a confidence score between 0 and 1.
1 star = very negative, 2 stars = negative, 3 stars = neutral, 4 stars = positive, 5 stars = very positive.
Respond with JSON in this format: {'rating': number, 'confidence': number}`

	var result Sentiment
	if err := gen.GenerateJSON(ctx, systemPrompt, text, sentimentSchema, &result); err != nil {
		return Sentiment{Rating: 3, Confidence: 0.5}
	}
	return Sentiment{
		Rating:     clamp(result.Rating, 1, 5),
		Confidence: clamp(result.Confidence, 0, 1),
	}
}

// ExtractKeyTopics lists the main topics of text, at most ten. Returns an
// empty list on failure.
func ExtractKeyTopics(ctx context.Context, gen StructuredGenerator, text string) []string {
	systemPrompt := "Extract the main topics and themes from the given text. Return only a JSON array of strings, each representing a key topic or theme. Limit to maximum 10 topics."

	var topics []string
	if err := gen.GenerateJSON(ctx, systemPrompt, text, topicsSchema, &topics); err != nil {
		return []string{}
	}
	if len(topics) > maxKeyTopics {
		topics = topics[:maxKeyTopics]
	}
	return topics
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
