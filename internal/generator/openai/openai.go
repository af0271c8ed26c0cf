// Package openai generates images with the OpenAI image generations API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/creo-studio/internal/generator"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	imageSize      = "512x512"
)

// Generator calls POST {base}/v1/images/generations.
type Generator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ generator.Generator = (*Generator)(nil)

// New creates a Generator. An empty baseURL means DefaultBaseURL; tests point
// it at an httptest server.
func New(apiKey, baseURL string) *Generator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Generator{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type imagesRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imagesResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Generator) Generate(ctx context.Context, prompt string) (*generator.Result, error) {
	payload, err := json.Marshal(imagesRequest{
		Prompt:         prompt,
		N:              1,
		Size:           imageSize,
		ResponseFormat: "url",
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: calling images API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: reading response: %w", err)
	}

	var out imagesResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("OpenAI API error: %s", out.Error.Message)
		}
		return nil, fmt.Errorf("OpenAI API error: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("openai: decoding response: %w", decodeErr)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return nil, fmt.Errorf("openai: response contained no image")
	}

	enhanced := prompt
	if rp := strings.TrimSpace(out.Data[0].RevisedPrompt); rp != "" {
		enhanced = rp
	}

	return &generator.Result{
		ImageURL:       out.Data[0].URL,
		Description:    fmt.Sprintf("An AI-generated image of: %q.", enhanced),
		EnhancedPrompt: enhanced,
	}, nil
}
