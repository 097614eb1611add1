// Package gemini adapts the Google GenAI SDK to the narrow request/response
// shapes the try-on and chat services use.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	// ImageModel composes the try-on picture.
	ImageModel = "gemini-2.5-flash-image"
	// TextModel answers chat prompts.
	TextModel = "gemini-2.5-flash"
)

// ContentModel is the SDK surface in use. genai.Models satisfies it.
type ContentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Client struct {
	models ContentModel
	logger zerolog.Logger
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{models: client.Models, logger: opts.Logger}, nil
}

// NewWithModel wraps an existing ContentModel, typically a stub in tests.
func NewWithModel(models ContentModel, logger zerolog.Logger) *Client {
	return &Client{models: models, logger: logger}
}

// InlineImage is raw image bytes sent as model input.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// ImageRequest is one multimodal call: an instruction followed by images.
type ImageRequest struct {
	Prompt      string
	Images      []InlineImage
	AspectRatio string
}

// Part is one output part of a candidate.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Candidate is one alternative response.
type Candidate struct {
	Parts []Part
}

// GenerateImage sends the instruction and images in order and returns every
// candidate as-is. Scanning for an image part is left to the caller.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]Candidate, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := c.models.GenerateContent(ctx, ImageModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate image: %w", err)
	}
	return candidatesFrom(resp), nil
}

// GenerateText answers a plain text prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, TextModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate text: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}
	return resp.Text(), nil
}

func candidatesFrom(resp *genai.GenerateContentResponse) []Candidate {
	if resp == nil {
		return nil
	}
	out := make([]Candidate, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			out = append(out, Candidate{})
			continue
		}
		parts := make([]Part, 0, len(cand.Content.Parts))
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			part := Part{Text: p.Text}
			if p.InlineData != nil {
				part.MIMEType = p.InlineData.MIMEType
				part.Data = p.InlineData.Data
			}
			parts = append(parts, part)
		}
		out = append(out, Candidate{Parts: parts})
	}
	return out
}
