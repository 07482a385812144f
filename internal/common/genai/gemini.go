// Package genai provides a thin client for the Gemini generateContent REST
// API, used by the narrative analyzer.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "kye-workers/internal/common/http"
)

// PlaceholderAPIKey is the sample key shipped in secrets templates. A client
// configured with it behaves as unconfigured.
const PlaceholderAPIKey = "your_gemini_api_key_here"

// Generation parameters for narrative analysis. Low temperature keeps the
// output stable across runs of the same case data.
var defaultGenerationConfig = GenerationConfig{
	Temperature:     0.3,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 1024,
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the Gemini REST API.
type Client struct {
	httpClient *httpclient.Client
	baseURL    string
	apiKey     string
	model      string
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		httpClient: httpclient.NewClient(cfg.Timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Available reports whether the client has a usable API key.
func (c *Client) Available() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderAPIKey
}

// GenerateText sends prompt to the model and returns the concatenated text
// of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("gemini client is not configured")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: defaultGenerationConfig,
	}

	body, status, err := c.httpClient.PostJSON(ctx, url, reqBody, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", status, truncate(string(body), 200))
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty candidate")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
