package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	// APIKeyEnv must be set for the chat session; there is no fallback.
	APIKeyEnv = "GOOGLE_GENERATIVE_AI_API_KEY"
)

// Gemini implements Service against the Gemini REST API using server-sent
// events for streaming.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

type GeminiOption func(*Gemini)

func WithBaseURL(baseURL string) GeminiOption {
	return func(g *Gemini) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) {
		g.http = client
	}
}

func NewGemini(apiKey, model string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generative AI API key is not set; set the %s environment variable", APIKeyEnv)
	}
	if model == "" {
		return nil, errors.New("model name is required")
	}
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewGeminiFromEnv reads the API key from the environment.
func NewGeminiFromEnv(model string, opts ...GeminiOption) (*Gemini, error) {
	return NewGemini(os.Getenv(APIKeyEnv), model, opts...)
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiChunk struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) Stream(ctx context.Context, messages []Message, onChunk func(string)) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages to send")
	}
	payload := geminiRequest{}
	for _, msg := range messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var chunk geminiChunk
		if err := json.Unmarshal(data, &chunk); err == nil && chunk.Error != nil {
			return "", fmt.Errorf("model error (%d): %s", chunk.Error.Code, chunk.Error.Message)
		}
		return "", fmt.Errorf("model request failed: %s", resp.Status)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk geminiChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return full.String(), fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return full.String(), fmt.Errorf("model error (%d): %s", chunk.Error.Code, chunk.Error.Message)
		}
		for _, candidate := range chunk.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text == "" {
					continue
				}
				full.WriteString(part.Text)
				if onChunk != nil {
					onChunk(part.Text)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("stream interrupted: %w", err)
	}
	return full.String(), nil
}
