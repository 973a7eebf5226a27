// Package gemini implements the generation ports on Google Gemini
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dafterai/dafter/internal/generate"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Default models
const (
	DefaultTextModel  = "gemini-3-pro-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY not set")
	// ErrNoImage is returned when a response carries no inline image
	ErrNoImage = errors.New("no image returned from Gemini")
)

// Config selects the credentials and models
type Config struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	Temperature float32
}

// Client generates notebook content and illustrations with Gemini
type Client struct {
	client *genai.Client
	config Config
}

// New creates a Gemini client
func New(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.TextModel == "" {
		config.TextModel = DefaultTextModel
	}
	if config.ImageModel == "" {
		config.ImageModel = DefaultImageModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return &Client{client: client, config: config}, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Generate asks the text model for a notebook as structured JSON
func (c *Client) Generate(ctx context.Context, req generate.Request) (*generate.Response, error) {
	model := c.client.GenerativeModel(c.config.TextModel)
	if c.config.Temperature > 0 {
		model.SetTemperature(c.config.Temperature)
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = ResponseSchema()

	resp, err := model.GenerateContent(ctx, genai.Text(generate.Prompt(req)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

// GenerateImage asks the image model for an illustration and returns it as
// a data URL
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.config.ImageModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoImage
	}
	return imageFromParts(resp.Candidates[0].Content.Parts)
}

// ResponseSchema describes the JSON shape of a generated notebook
func ResponseSchema() *genai.Schema {
	page := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"content":     {Type: genai.TypeString},
			"imagePrompt": {Type: genai.TypeString},
			"isCover":     {Type: genai.TypeBoolean},
		},
		Required: []string{"title", "content", "imagePrompt"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"pages": {Type: genai.TypeArray, Items: page},
		},
		Required: []string{"title", "pages"},
	}
}

// ParseResponse decodes the model's JSON, tolerating a markdown code fence
func ParseResponse(text string) (*generate.Response, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var out generate.Response
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated notebook: %w", err)
	}
	if len(out.Pages) == 0 {
		return nil, generate.ErrEmptyResponse
	}
	return &out, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return b.String(), nil
}

func imageFromParts(parts []genai.Part) (string, error) {
	for _, part := range parts {
		if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
			return "data:" + blob.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(blob.Data), nil
		}
	}
	return "", ErrNoImage
}
