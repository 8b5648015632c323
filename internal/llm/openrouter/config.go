package openrouter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
)

// Config for the OpenRouter client.
type Config struct {
	APIKey      string        // required
	BaseURL     string        // default https://openrouter.ai/api/v1
	Model       string        // default meta-llama/llama-3.3-70b-instruct
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	Referer     string        // optional HTTP-Referer attribution header
	Title       string        // optional X-Title attribution header
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient fails when no API key is configured, so a misconfigured process
// stops at startup instead of on the first audit.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError(common.KindConfig, "OPENROUTER_API_KEY is not defined", common.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/llama-3.3-70b-instruct"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// ConfigFromApp maps the application LLM settings onto a client Config.
func ConfigFromApp(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
		Title:       "contract-auditor",
	}
}
