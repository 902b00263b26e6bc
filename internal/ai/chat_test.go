package ai

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolResponse(args string) string {
	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"tool_calls": []any{
						map[string]any{
							"type":     "function",
							"function": map[string]any{"name": "analyze_reviews", "arguments": args},
						},
					},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestAnalyzeReviewsRequestShape(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Write([]byte(toolResponse(`{"summary":"Great event.","sentiment_score":0.8,"sentiment_label":"positive","pros":["talks"],"cons":[],"common_feedback":["food"]}`)))
	}))
	defer srv.Close()

	c := NewChatClient("secret", srv.URL, "", 5*time.Second, 0)
	got, err := c.AnalyzeReviews(context.Background(), []string{"Loved it", "Too long"}, RatingContext{4.5, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, "Great event.", got.Summary)
	assert.InDelta(t, 0.8, got.SentimentScore, 1e-9)
	assert.Equal(t, "positive", got.SentimentLabel)
	assert.Equal(t, []string{"talks"}, got.Pros)
	assert.Equal(t, []string{}, got.Cons)

	assert.Equal(t, DefaultModel, body["model"])
	choice := body["tool_choice"].(map[string]any)
	assert.Equal(t, "function", choice["type"])
	assert.Equal(t, "analyze_reviews", choice["function"].(map[string]any)["name"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, reviewSystemPrompt, messages[0].(map[string]any)["content"])
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, `1. "Loved it"`)
	assert.Contains(t, user, `2. "Too long"`)
	assert.Contains(t, user, "Avg Organization: 4.5/5, Avg Difficulty: 3.0/5, Avg Worth: 4.0/5")
}

func TestAnalyzeReviewsWithoutKey(t *testing.T) {
	c := NewChatClient("", "http://127.0.0.1:0", "", time.Second, 0)
	_, err := c.AnalyzeReviews(context.Background(), []string{"ok"}, RatingContext{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAnalyzeReviewsNoToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"I cannot help with that"}}]}`))
	}))
	defer srv.Close()

	c := NewChatClient("k", srv.URL, "", 5*time.Second, 0)
	_, err := c.AnalyzeReviews(context.Background(), []string{"meh"}, RatingContext{})
	assert.ErrorIs(t, err, ErrNoToolCall)
}

func TestAnalyzeReviewsRejectsUnknownLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(toolResponse(`{"summary":"x","sentiment_score":0,"sentiment_label":"mixed","pros":[],"cons":[],"common_feedback":[]}`)))
	}))
	defer srv.Close()

	c := NewChatClient("k", srv.URL, "", 5*time.Second, 0)
	_, err := c.AnalyzeReviews(context.Background(), []string{"meh"}, RatingContext{})
	assert.Error(t, err)
}

func TestAnalyzeReviewsRejectsScoreOutOfRange(t *testing.T) {
	for _, score := range []string{"1.7", "-1.01", "42"} {
		t.Run(score, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(toolResponse(`{"summary":"x","sentiment_score":` + score + `,"sentiment_label":"positive","pros":[],"cons":[],"common_feedback":[]}`)))
			}))
			defer srv.Close()

			c := NewChatClient("k", srv.URL, "", 5*time.Second, 0)
			_, err := c.AnalyzeReviews(context.Background(), []string{"meh"}, RatingContext{})
			assert.ErrorIs(t, err, ErrScoreOutOfRange)
		})
	}
}

func TestValidScore(t *testing.T) {
	assert.True(t, ValidScore(-1))
	assert.True(t, ValidScore(0.25))
	assert.True(t, ValidScore(1))
	assert.False(t, ValidScore(1.0001))
	assert.False(t, ValidScore(math.NaN()))
}

func TestCleanArguments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{`Sure! {"a":"}"} trailing`, `{"a":"}"}`},
		{`{"a":"say \"hi\" {"}`, `{"a":"say \"hi\" {"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanArguments(tt.in), "input %q", tt.in)
	}
}
