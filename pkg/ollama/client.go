package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/car-studio/pkg/client"
	"github.com/menta2k/car-studio/pkg/types"
)

// DefaultTimeout bounds a request whose context carries no deadline
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q has no scheme or host", ollamaURL)
	}

	// Drop any path such as /api/chat, the SDK appends its own
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// SimpleQuery sends a prompt with an image and returns the raw answer
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, nil)
}

// Classify asks the model for a label and confidence for the image
func (c *Client) Classify(ctx context.Context, model, prompt, imgB64 string) (*types.Classification, error) {
	// Low temperature keeps the JSON answer stable between runs
	options := map[string]any{
		"temperature": 0.1,
		"num_ctx":     4096,
	}

	content, err := c.chat(ctx, model, prompt, imgB64, options)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}
	return client.ParseClassification(content), nil
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64 string, options map[string]any) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	msg := api.Message{
		Role:    "user",
		Content: prompt,
	}
	if imgB64 != "" {
		imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 image: %v", err)
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
