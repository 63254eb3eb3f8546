package llm

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereChat implements Provider using the Cohere Chat API.
// Docs: https://docs.cohere.com/reference/chat
// SDK: github.com/cohere-ai/cohere-go/v2
type CohereChat struct {
	client *cohereclient.Client
	model  string
}

// NewCohereChat builds the client. HTTP/1.1 is forced because the Cohere
// endpoint intermittently resets HTTP/2 streams on long completions.
func NewCohereChat(apiKey, model string) *CohereChat {
	httpClient := &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereChat{client: client, model: model}
}

func (c *CohereChat) ModelName() string { return c.model }

func (c *CohereChat) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	request := &cohere.ChatRequest{
		Message:     req.Prompt,
		Model:       cohere.String(c.model),
		Temperature: cohere.Float64(req.Temperature),
	}
	if req.System != "" {
		request.Preamble = cohere.String(req.System)
	}

	resp, err := c.client.Chat(ctx, request)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}
