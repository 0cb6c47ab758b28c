// filename: internal/guard/ai.go
package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailguard/mailguard/internal/models"
)

// AIVerdict вердикт AI коллаборатора по одному предикату
type AIVerdict struct {
	Matched bool   `json:"matched"`
	Reason  string `json:"reason"`
}

// AIClient интерфейс внешнего языкового коллаборатора.
// Инжектируется в оценщик и генератор, чтобы ядро тестировалось
// детерминированно с фейковой реализацией.
type AIClient interface {
	// EvaluatePrompt проверяет письмо против предиката на естественном языке
	EvaluatePrompt(ctx context.Context, prompt string, email *models.StructuredEmail) (*AIVerdict, error)
	// GenerateConfig переводит описание на естественном языке в явную конфигурацию
	GenerateConfig(ctx context.Context, description string) (*models.ExplicitConfig, error)
}

// OpenAIConfig конфигурация OpenAI-совместимого клиента
type OpenAIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBodySize int           `yaml:"max_body_size"`
}

// OpenAIClient реализация AIClient поверх OpenAI-совместимого chat completions API.
// Один запрос на оценку, без ретраев: таймаут ограничен, чтобы медленный
// вызов модели не задерживал цепочку правил.
type OpenAIClient struct {
	config OpenAIConfig
	client *http.Client
}

// NewOpenAIClient создает новый OpenAI клиент // v1.0
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 4000
	}

	return &OpenAIClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

const evaluateSystemPrompt = `You are an email rule evaluator. Given an email and a rule written in natural language, decide whether the email matches the rule. Respond with a single JSON object: {"matched": true|false, "reason": "<short justification>"}. No other text.`

const generateSystemPrompt = `You translate a plain-English email filtering rule into a JSON config. The config schema:
{"mode":"simple","subject":{"operator":"AND|OR","values":["..."]},"from":{"operator":"AND|OR","values":["..."]},"hasAttachment":true|false,"hasWords":{"operator":"AND|OR","values":["..."]}}
All sections are optional but at least one must be present. From values may use *@domain.com for domain-wide matches. Respond with the JSON object only.`

// EvaluatePrompt проверяет письмо против предиката // v1.0
func (c *OpenAIClient) EvaluatePrompt(ctx context.Context, prompt string, email *models.StructuredEmail) (*AIVerdict, error) {
	user := fmt.Sprintf("Rule: %s\n\nEmail:\n%s", prompt, email.Summary(c.config.MaxBodySize))

	content, err := c.complete(ctx, evaluateSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var verdict AIVerdict
	if err := json.Unmarshal([]byte(extractJSON(content)), &verdict); err != nil {
		return nil, fmt.Errorf("unparsable model verdict: %w", err)
	}

	return &verdict, nil
}

// GenerateConfig переводит описание в явную конфигурацию // v1.0
func (c *OpenAIClient) GenerateConfig(ctx context.Context, description string) (*models.ExplicitConfig, error) {
	content, err := c.complete(ctx, generateSystemPrompt, description)
	if err != nil {
		return nil, err
	}

	var cfg models.ExplicitConfig
	if err := json.Unmarshal([]byte(extractJSON(content)), &cfg); err != nil {
		return nil, fmt.Errorf("unparsable model config: %w", err)
	}

	return &cfg, nil
}

// chatRequest запрос к chat completions API // v1.0
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete выполняет один chat completions запрос // v1.0
func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("model error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// extractJSON вырезает JSON объект из ответа модели, отбрасывая
// markdown обертку если она есть // v1.0
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
