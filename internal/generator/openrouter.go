package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pr-analysis-service/internal/models"
)

const systemPrompt = `You are a senior code reviewer. You receive pull request metadata and a git diff.
Respond with a JSON object containing exactly three string fields:
- "summary": a markdown summary of what the change does
- "risks": potential risks and regressions a reviewer should check
- "tests": a concrete test plan for the change
All three fields must be non-empty. Respond with JSON only.`

// OpenRouterClient generates PR analyses through OpenRouter's
// chat-completions API.
type OpenRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewOpenRouterClient(baseURL, apiKey, model string, timeout time.Duration) *OpenRouterClient {
	return &OpenRouterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate produces the review triple for one diff. It is atomic from
// the caller's perspective: either the full triple is returned or a
// *GenerationError carrying the upstream status code.
func (c *OpenRouterClient) Generate(ctx context.Context, diff, prName, branchName string, ticketID *string) (*Result, error) {
	userPrompt := buildUserPrompt(diff, prName, branchName, ticketID)

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, c.failure(http.StatusInternalServerError, 0, "encode request: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, c.failure(http.StatusInternalServerError, 0, "build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, c.failure(http.StatusGatewayTimeout, 0, "AI request timeout - service did not respond in time")
		}
		return nil, c.failure(http.StatusBadGateway, 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failure(http.StatusBadGateway, 0, "read response: "+err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.failure(resp.StatusCode, 0, upstreamMessage(resp.StatusCode, body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, c.failure(http.StatusBadGateway, 0, "decode response: "+err.Error())
	}
	if parsed.Error != nil {
		code := parsed.Error.Code
		if code == 0 {
			code = http.StatusBadGateway
		}
		return nil, c.failure(code, parsed.Usage.TotalTokens, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, c.failure(http.StatusBadGateway, parsed.Usage.TotalTokens, "empty completion")
	}

	var triple models.AIResponse
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &triple); err != nil {
		return nil, c.failure(http.StatusBadGateway, parsed.Usage.TotalTokens, "malformed completion payload: "+err.Error())
	}
	if !triple.Generated() {
		return nil, c.failure(http.StatusBadGateway, parsed.Usage.TotalTokens, "completion missing summary, risks or tests")
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}

	return &Result{
		Response:   triple,
		TokenUsage: parsed.Usage.TotalTokens,
		Model:      model,
		StatusCode: http.StatusOK,
	}, nil
}

func (c *OpenRouterClient) failure(statusCode, tokenUsage int, message string) *GenerationError {
	return &GenerationError{
		Message:    message,
		StatusCode: statusCode,
		TokenUsage: tokenUsage,
		Model:      c.model,
	}
}

func buildUserPrompt(diff, prName, branchName string, ticketID *string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PR name: %s\nBranch: %s\n", prName, branchName)
	if ticketID != nil && *ticketID != "" {
		fmt.Fprintf(&b, "Ticket: %s\n", *ticketID)
	}
	b.WriteString("\nGit diff:\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")
	return b.String()
}

func upstreamMessage(statusCode int, body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return fmt.Sprintf("upstream returned status %d", statusCode)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
