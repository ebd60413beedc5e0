// Package gemini implements the editing service interfaces using
// Google's Gemini API: image editing on an image-capable model, and
// tagging plus prompt enhancement on a text model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/config"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
)

// enhanceSystemPrompt steers the enhancement call toward a single
// improved prompt rather than a conversation.
const enhanceSystemPrompt = "You improve prompts for a generative image editor. " +
	"Rewrite the user's prompt to be more vivid and specific while keeping its intent. " +
	"Respond with the improved prompt only."

// Client talks to the Gemini API. It implements editing.EditService,
// editing.TagService, and editing.EnhanceService.
type Client struct {
	client *genai.Client
	cfg    config.LLMConfig
	logger *slog.Logger
}

// NewClient creates a Gemini client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", editing.ErrInvalidConfig)
	}
	if cfg.EditModel == "" || cfg.TagModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", editing.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", editing.ErrInvalidConfig, err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "gemini_client"),
	}, nil
}

// Edit submits the image and prompt to the edit model and returns the
// first image part of the response.
func (c *Client) Edit(ctx context.Context, data []byte, mediaType string, prompt string) (editing.EditedImage, error) {
	if len(data) == 0 {
		return editing.EditedImage{}, editing.ErrInvalidImage
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mediaType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	c.logger.Debug("calling edit model",
		"model", c.cfg.EditModel,
		"image_bytes", len(data),
		"prompt_length", len(prompt))

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.EditModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return editing.EditedImage{}, classifyErr(err)
	}

	cand, err := firstCandidate(resp)
	if err != nil {
		return editing.EditedImage{}, err
	}

	var refusal string
	for _, part := range cand.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return editing.EditedImage{
				Data:      part.InlineData.Data,
				MediaType: part.InlineData.MIMEType,
			}, nil
		}
		if part.Text != "" {
			refusal = part.Text
		}
	}

	if refusal != "" {
		return editing.EditedImage{}, fmt.Errorf("%w: model answered with text: %s",
			editing.ErrEmptyResponse, strings.TrimSpace(refusal))
	}
	return editing.EditedImage{}, fmt.Errorf("%w: no image part in response", editing.ErrEmptyResponse)
}

// Tag describes the image as comma-separated tags using the text model.
// Normalization is the tagging adapter's job, not this client's.
func (c *Client) Tag(ctx context.Context, data []byte, mediaType string, systemPrompt string) (string, error) {
	if len(data) == 0 {
		return "", editing.ErrInvalidImage
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mediaType),
			genai.NewPartFromText(systemPrompt),
		}, genai.RoleUser),
	}

	c.logger.Debug("calling tag model", "model", c.cfg.TagModel, "image_bytes", len(data))

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.TagModel, contents, nil)
	if err != nil {
		return "", classifyErr(err)
	}

	return responseText(resp)
}

// Enhance rewrites a freeform prompt into an improved one.
func (c *Client) Enhance(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", editing.ErrInvalidConfig)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.TagModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(enhanceSystemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", classifyErr(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// firstCandidate validates the response shape shared by all calls.
func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", editing.ErrEmptyResponse)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return nil, editing.ErrContentBlocked
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidate content", editing.ErrEmptyResponse)
	}
	return cand, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	cand, err := firstCandidate(resp)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text in response", editing.ErrEmptyResponse)
	}
	return sb.String(), nil
}

// classifyErr maps a transport error to the editing taxonomy: a 429 or
// RESOURCE_EXHAUSTED condition becomes ErrRateLimited, everything else
// stays a generic failure.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("%w: %s", editing.ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("gemini request failed (%d %s): %s", apiErr.Code, apiErr.Status, apiErr.Message)
	}

	if strings.Contains(err.Error(), "429") {
		return fmt.Errorf("%w: %v", editing.ErrRateLimited, err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
