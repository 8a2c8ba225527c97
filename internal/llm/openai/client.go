package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/contracts-parser/internal/llm"
)

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " not configured")

// Complete implements llm.ChatCompleter with a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		c.logger.Error("llm.complete.missing_api_key", "env", APIKeyEnv)
		return "", ErrMissingAPIKey
	}
	start := time.Now()
	c.logger.Debug("llm.complete.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if c.cfg.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	content, err := replyContent(raw)
	if err != nil {
		c.logger.Error("llm.complete.no_content", "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	c.logger.Debug("llm.complete.ok", "content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

// replyContent looks for text in choices[0].message.content, then choices[0].text,
// then the top-level response, message and content keys.
func replyContent(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
			Text any `json:"text"`
		} `json:"choices"`
		Response any `json:"response"`
		Message  any `json:"message"`
		Content  any `json:"content"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}

	var candidates []any
	if len(cc.Choices) > 0 {
		candidates = append(candidates, cc.Choices[0].Message.Content, cc.Choices[0].Text)
	}
	candidates = append(candidates, cc.Response, cc.Message, cc.Content)
	for _, c := range candidates {
		if s, ok := c.(string); ok && s != "" {
			return s, nil
		}
	}
	return "", llm.ErrNoContent
}
