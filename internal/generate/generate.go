// Package generate turns a topic and source material into notebook pages
// through pluggable content and image generators.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTopic is returned when a request has no topic
	ErrMissingTopic = errors.New("topic is required")
	// ErrMissingContent is returned when a request has no source material
	ErrMissingContent = errors.New("source content is required")
	// ErrPageCount is returned when the requested page count is out of range
	ErrPageCount = errors.New("page count out of range")
	// ErrEmptyResponse is returned when the generator produced no pages
	ErrEmptyResponse = errors.New("generator returned no pages")
	// ErrNoContentGenerator is returned by a Service built without a content generator
	ErrNoContentGenerator = errors.New("no content generator configured")
)

// MaxPageCount is the largest page count a request may ask for
const MaxPageCount = 20

// Request describes the notebook to generate
type Request struct {
	Topic      string `json:"topic" yaml:"topic"`
	Grade      string `json:"grade" yaml:"grade"`
	RawContent string `json:"rawContent" yaml:"raw_content"`
	// PageCount of zero lets the model decide
	PageCount int `json:"pageCount" yaml:"page_count"`
}

// Validate checks the required fields and the page count
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrMissingTopic
	}
	if strings.TrimSpace(r.RawContent) == "" {
		return ErrMissingContent
	}
	if r.PageCount < 0 || r.PageCount > MaxPageCount {
		return fmt.Errorf("%w: %d (want 0..%d)", ErrPageCount, r.PageCount, MaxPageCount)
	}
	return nil
}

// PageDraft is one generated page before assembly
type PageDraft struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
	IsCover     bool   `json:"isCover,omitempty"`
}

// Response is the structured output of a content generator
type Response struct {
	Title string      `json:"title"`
	Pages []PageDraft `json:"pages"`
}

// ContentGenerator produces structured pages for a request
type ContentGenerator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ImageGenerator produces an illustration for a prompt, as a data URL
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ContentFunc adapts a function to ContentGenerator
type ContentFunc func(ctx context.Context, req Request) (*Response, error)

// Generate calls f
func (f ContentFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// ImageFunc adapts a function to ImageGenerator
type ImageFunc func(ctx context.Context, prompt string) (string, error)

// GenerateImage calls f
func (f ImageFunc) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
