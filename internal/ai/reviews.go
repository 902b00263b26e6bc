package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrScoreOutOfRange is returned when the model's sentiment score falls
// outside [-1, 1].
var ErrScoreOutOfRange = errors.New("sentiment score out of range")

const reviewSystemPrompt = "You analyze event reviews and return structured JSON. No markdown, just valid JSON."

var analyzeReviewsTool = Tool{
	Type: "function",
	Function: FunctionDef{
		Name:        "analyze_reviews",
		Description: "Return structured review analysis",
		Parameters: json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "sentiment_score": {"type": "number", "minimum": -1, "maximum": 1},
    "sentiment_label": {"type": "string", "enum": ["positive", "neutral", "negative"]},
    "pros": {"type": "array", "items": {"type": "string"}},
    "cons": {"type": "array", "items": {"type": "string"}},
    "common_feedback": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["summary", "sentiment_score", "sentiment_label", "pros", "cons", "common_feedback"],
  "additionalProperties": false
}`),
	},
}

// ReviewAnalysis is the structured output of the analyze_reviews tool.
type ReviewAnalysis struct {
	Summary        string   `json:"summary"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	CommonFeedback []string `json:"common_feedback"`
}

// RatingContext is the numeric backdrop sent alongside the written reviews.
type RatingContext struct {
	AvgOrganization float64
	AvgDifficulty   float64
	AvgWorth        float64
}

func buildReviewPrompt(reviews []string, rc RatingContext) string {
	var b strings.Builder
	b.WriteString(`Analyze these event reviews and return JSON with:
- "summary": A 2-3 sentence summary of what participants are saying
- "sentiment_score": Number from -1.0 (very negative) to 1.0 (very positive)
- "sentiment_label": "positive", "neutral", or "negative"
- "pros": Array of 2-4 positive points mentioned
- "cons": Array of 2-4 negative points or areas for improvement
- "common_feedback": Array of 3-5 most common themes

Reviews:
`)
	for i, r := range reviews {
		fmt.Fprintf(&b, "%d. %q\n", i+1, r)
	}
	fmt.Fprintf(&b, "\nRatings context: Avg Organization: %.1f/5, Avg Difficulty: %.1f/5, Avg Worth: %.1f/5",
		rc.AvgOrganization, rc.AvgDifficulty, rc.AvgWorth)
	return b.String()
}

// AnalyzeReviews asks the model for a structured digest of written reviews.
func (c *ChatClient) AnalyzeReviews(ctx context.Context, reviews []string, rc RatingContext) (*ReviewAnalysis, error) {
	messages := []Message{
		{Role: "system", Content: reviewSystemPrompt},
		{Role: "user", Content: buildReviewPrompt(reviews, rc)},
	}
	args, err := c.CallTool(ctx, messages, analyzeReviewsTool)
	if err != nil {
		return nil, err
	}

	var out ReviewAnalysis
	if err := json.Unmarshal(args, &out); err != nil {
		return nil, fmt.Errorf("failed to parse review analysis: %w", err)
	}
	switch out.SentimentLabel {
	case "positive", "neutral", "negative":
	default:
		return nil, fmt.Errorf("unexpected sentiment label %q", out.SentimentLabel)
	}
	if !ValidScore(out.SentimentScore) {
		return nil, fmt.Errorf("%w: %v", ErrScoreOutOfRange, out.SentimentScore)
	}
	if out.Pros == nil {
		out.Pros = []string{}
	}
	if out.Cons == nil {
		out.Cons = []string{}
	}
	if out.CommonFeedback == nil {
		out.CommonFeedback = []string{}
	}
	return &out, nil
}

// ValidScore reports whether score fits the stored sentiment range.
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && score >= -1 && score <= 1
}
