package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/location-processor/pkg/client"
	"github.com/menta2k/location-processor/pkg/types"
)

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// SimpleQuery performs a simple query with an image without expecting JSON
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, nil)
}

// LocateFields asks the model where each field is and parses its answer
func (c *Client) LocateFields(ctx context.Context, model, prompt, imgB64 string) (*types.LocateResult, error) {
	content, err := c.chat(ctx, model, prompt, imgB64, modelOptions(model))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}
	return client.ParseLocateResult(content), nil
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64 string, options map[string]any) (string, error) {
	// Add timeout if context doesn't have one (CPU inference is slow)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	msg := api.Message{Role: "user", Content: prompt}
	if imgB64 != "" {
		imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 image: %w", err)
		}
		msg.Images = []api.ImageData{api.ImageData(imgBytes)}
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{msg},
		Stream:   &streamFalse,
		Options:  options,
	}

	var responseContent string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return responseContent, nil
}

// modelOptions returns sampling options tuned for known models
func modelOptions(model string) map[string]any {
	options := map[string]any{"temperature": 0.2}

	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v4") ||
		strings.Contains(modelLower, "minicpm-v-4") ||
		strings.Contains(modelLower, "minicpmv4") {
		options["temperature"] = 0.7
		options["top_p"] = 0.8
		options["num_ctx"] = 4096
	}
	return options
}

var _ client.VisionClient = (*Client)(nil)
