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

	"PackCurator/internal/config"
	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

// GeminiClient implements ports.Styler backed by the Gemini generateContent
// API. Failures here are expected and handled by the renderer pipeline.
type GeminiClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Styler = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Render asks the model for a styled channel post for the pack.
func (c *GeminiClient) Render(ctx context.Context, pack domain.Pack) (string, error) {
	if c == nil {
		return "", fmt.Errorf("gemini client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{
			{Parts: []part{{Text: c.buildPrompt(pack)}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(c.endpoint, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	for _, candidate := range decoded.Candidates {
		for _, p := range candidate.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text, nil
			}
		}
	}

	return "", fmt.Errorf("gemini returned no text candidates")
}

func (c *GeminiClient) buildPrompt(pack domain.Pack) string {
	var b strings.Builder
	b.WriteString(safePrompt(c.systemPrompt))
	b.WriteString("\n\nWrite the post for this modpack:\n")
	fmt.Fprintf(&b, "Title: %s\n", pack.Title)
	fmt.Fprintf(&b, "Minecraft versions: %s\n", pack.GameVersions)
	fmt.Fprintf(&b, "Description: %s\n", pack.Description)
	fmt.Fprintf(&b, "Categories: %s\n", strings.Join(pack.Categories, ", "))
	fmt.Fprintf(&b, "Loaders: %s\n", strings.Join(pack.Loaders, ", "))
	fmt.Fprintf(&b, "Platform: %s\n", pack.Platform)
	b.WriteString("\nUse emoji, short bullet lists, and hashtags. End the post with:\n❤️ - Love it\n👎 - Not for me")
	return b.String()
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a copywriter for a Telegram channel about Minecraft modpacks. " +
			"Write an engaging post with a bold title line, a short pitch, themed bullet sections, and hashtags."
	}
	return prompt
}
