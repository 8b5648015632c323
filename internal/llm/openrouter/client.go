package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
)

var _ llm.Analyzer = (*Client)(nil)

// Complete sends the contract text with the audit system prompt and returns the
// first choice's message content. It returns nil content, not an error, when the
// endpoint answered without any. The call is made once; there are no retries.
func (c *Client) Complete(ctx context.Context, contractText string) (*string, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, c.logger)

	logger.Info("llm.audit.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(contractText),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": contractText},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if c.cfg.Referer != "" {
		headers["HTTP-Referer"] = c.cfg.Referer
	}
	if c.cfg.Title != "" {
		headers["X-Title"] = c.cfg.Title
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		logger.Error("llm.audit.http_error", "status", status, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.NewAppErrorWithDetail(common.KindUpstream, fmt.Sprintf("model endpoint failed (status %d)", status), string(raw), err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		logger.Error("llm.audit.decode_error", "error", err, "raw_bytes", len(raw))
		return nil, common.NewAppErrorWithDetail(common.KindUpstream, "decode completion response", string(raw), err)
	}
	if len(cc.Choices) == 0 {
		logger.Warn("llm.audit.no_choices", "raw_bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil
	}

	content := cc.Choices[0].Message.Content
	contentLen := 0
	if content != nil {
		contentLen = len(*content)
	}
	logger.Info("llm.audit.ok", "content_len", contentLen, "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}
