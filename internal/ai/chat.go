package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/david/campus-events/internal/upstream"
)

const (
	DefaultBaseURL = "https://ai.gateway.lovable.dev/v1"
	DefaultModel   = "google/gemini-2.5-flash"
)

var (
	ErrNotConfigured = errors.New("analysis service api key not configured")
	ErrNoToolCall    = errors.New("analysis response contained no tool call")
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *upstream.Client
}

func NewChatClient(apiKey, baseURL, model string, timeout time.Duration, maxRetries int) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &ChatClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Model:   model,
		Client:  upstream.New(timeout, maxRetries),
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatRequest struct {
	Model      string      `json:"model"`
	Messages   []Message   `json:"messages"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *toolChoice `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// CallTool sends messages with a single tool and forces the model to call
// it. It returns the raw JSON arguments of the first tool call.
func (c *ChatClient) CallTool(ctx context.Context, messages []Message, tool Tool) (json.RawMessage, error) {
	if c == nil || c.APIKey == "" {
		return nil, ErrNotConfigured
	}

	reqBody := chatRequest{
		Model:    c.Model,
		Messages: messages,
		Tools:    []Tool{tool},
	}
	reqBody.ToolChoice = &toolChoice{Type: "function"}
	reqBody.ToolChoice.Function.Name = tool.Function.Name

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.Client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return nil, ErrNoToolCall
	}

	args := cleanArguments(parsed.Choices[0].Message.ToolCalls[0].Function.Arguments)
	if !json.Valid([]byte(args)) {
		return nil, fmt.Errorf("tool call arguments are not valid JSON: %q", truncate(args, 200))
	}
	return json.RawMessage(args), nil
}

// cleanArguments strips markdown fences some gateways wrap around tool
// arguments and keeps the first balanced JSON object.
func cleanArguments(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if obj, ok := extractFirstJSONObject(cleaned); ok {
		return obj
	}
	return cleaned
}

// extractFirstJSONObject finds the first outermost balanced {...}
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' && inString {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch char {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
