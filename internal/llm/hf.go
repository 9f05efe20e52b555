package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"compass/internal/logging"
)

// HFClient implements Client for the HuggingFace Inference API. This is
// the path used for CodeT5+-class open models, which expose plain
// text2text generation rather than a chat schema.
type HFClient struct {
	apiToken   string
	baseURL    string
	model      string
	httpClient *http.Client
}

// HFConfig holds configuration for the HuggingFace client.
type HFConfig struct {
	APIToken string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// DefaultHFConfig returns sensible defaults.
func DefaultHFConfig(apiToken string) HFConfig {
	return HFConfig{
		APIToken: apiToken,
		BaseURL:  "https://api-inference.huggingface.co/models",
		Model:    "Salesforce/codet5p-770m",
		Timeout:  120 * time.Second,
	}
}

// NewHFClient creates a new HuggingFace client with default config.
func NewHFClient(apiToken string) *HFClient {
	return NewHFClientWithConfig(DefaultHFConfig(apiToken))
}

// NewHFClientWithConfig creates a new HuggingFace client with custom config.
func NewHFClientWithConfig(config HFConfig) *HFClient {
	return &HFClient{
		apiToken: config.APIToken,
		baseURL:  config.BaseURL,
		model:    config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// hfRequest represents the inference request.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	DoSample     bool    `json:"do_sample"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// hfGenerated is one element of the inference response array.
type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}

// hfError is the error payload the API returns on failure.
type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// Complete sends a prompt and returns the generated text.
func (c *HFClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with instructions prepended. The
// inference API has no system role, so the system prompt is folded into
// the input text.
func (c *HFClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiToken == "" {
		return "", fmt.Errorf("API token not configured")
	}

	input := userPrompt
	if systemPrompt != "" {
		input = systemPrompt + "\n\n" + userPrompt
	}

	reqBody := hfRequest{
		Inputs: input,
		Parameters: hfParameters{
			MaxNewTokens: 512,
			Temperature:  0.2,
			DoSample:     false,
		},
		Options: hfOptions{WaitForModel: true},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/" + c.model

	// Retry loop for 503 (model cold start) and 429.
	maxRetries := 4
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			// Backoff: 2s, 4s, 8s, 16s - cold starts take a while.
			time.Sleep(time.Duration(2<<uint(i-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var generated []hfGenerated
			if err := json.Unmarshal(body, &generated); err != nil {
				return "", fmt.Errorf("failed to parse response: %w", err)
			}
			if len(generated) == 0 {
				return "", fmt.Errorf("no generation returned")
			}
			return strings.TrimSpace(generated[0].GeneratedText), nil

		case http.StatusServiceUnavailable:
			var apiErr hfError
			_ = json.Unmarshal(body, &apiErr)
			lastErr = fmt.Errorf("model loading (503): %s", apiErr.Error)
			logging.APIDebug("huggingface: model cold start, est %.0fs, retry %d/%d",
				apiErr.EstimatedTime, i+1, maxRetries)
			continue

		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue

		default:
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Model returns the current model name.
func (c *HFClient) Model() string {
	return c.model
}
