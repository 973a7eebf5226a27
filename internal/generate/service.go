package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dafterai/dafter/internal/document"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options controls image generation
type Options struct {
	// Images disables illustration requests when false
	Images bool
	// ImageConcurrency bounds concurrent image requests
	ImageConcurrency int
	// ImagesPerSecond is the sustained image request rate
	ImagesPerSecond float64
	// ImageBurst is the token bucket size of the image limiter
	ImageBurst int
}

// DefaultOptions returns conservative image settings
func DefaultOptions() Options {
	return Options{
		Images:           true,
		ImageConcurrency: 3,
		ImagesPerSecond:  1,
		ImageBurst:       2,
	}
}

// Service generates whole notebooks
type Service struct {
	content ContentGenerator
	images  ImageGenerator
	options Options
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService creates a generation service. images may be nil, in which
// case pages are generated without illustrations.
func NewService(content ContentGenerator, images ImageGenerator) *Service {
	s := &Service{
		content: content,
		images:  images,
		logger:  slog.Default(),
	}
	s.SetOptions(DefaultOptions())
	return s
}

// SetOptions replaces the options, filling zero values with defaults
func (s *Service) SetOptions(options Options) {
	def := DefaultOptions()
	if options.ImageConcurrency <= 0 {
		options.ImageConcurrency = def.ImageConcurrency
	}
	if options.ImagesPerSecond <= 0 {
		options.ImagesPerSecond = def.ImagesPerSecond
	}
	if options.ImageBurst <= 0 {
		options.ImageBurst = def.ImageBurst
	}
	s.options = options
	s.limiter = rate.NewLimiter(rate.Limit(options.ImagesPerSecond), options.ImageBurst)
}

// SetLogger sets the logger used for swallowed image failures
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Generate validates req, generates content and illustrations, and returns
// doc with its title and every page replaced by the generated notebook.
func (s *Service) Generate(ctx context.Context, doc document.Document, req Request) (document.Document, error) {
	if err := req.Validate(); err != nil {
		return doc, err
	}
	if s.content == nil {
		return doc, ErrNoContentGenerator
	}

	s.logger.Info("generating notebook", "topic", req.Topic, "grade", req.Grade, "pages", req.PageCount)
	resp, err := s.content.Generate(ctx, req)
	if err != nil {
		return doc, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Pages) == 0 {
		return doc, ErrEmptyResponse
	}

	images, err := s.illustrate(ctx, resp.Pages)
	if err != nil {
		return doc, err
	}

	set, err := Assemble(resp, doc.Brand.Footer(), images)
	if err != nil {
		return doc, err
	}
	out := doc.WithPages(set)
	if title := strings.TrimSpace(resp.Title); title != "" {
		out.Title = title
	}
	s.logger.Info("notebook generated", "title", out.Title, "pages", set.Len())
	return out, nil
}

// illustrate requests one image per page with a prompt. The result is
// indexed like pages; failed requests leave an empty entry. Only
// cancellation of ctx is returned as an error.
func (s *Service) illustrate(ctx context.Context, pages []PageDraft) ([]string, error) {
	images := make([]string, len(pages))
	if s.images == nil || !s.options.Images {
		return images, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.ImageConcurrency)
	for i, p := range pages {
		if strings.TrimSpace(p.ImagePrompt) == "" {
			continue
		}
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			url, err := s.images.GenerateImage(gctx, ImagePrompt(p.ImagePrompt))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("image generation failed", "page", i, "error", err)
				return nil
			}
			images[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("image generation interrupted: %w", err)
	}
	return images, nil
}

// Assemble turns generated drafts into a page set with fresh ids and the
// brand footer. images is indexed like resp.Pages and may be shorter.
func Assemble(resp *Response, footer string, images []string) (document.PageSet, error) {
	pages := make([]document.Page, 0, len(resp.Pages))
	for i, d := range resp.Pages {
		p := document.Page{
			ID:      document.NewID(),
			Title:   strings.TrimSpace(d.Title),
			Content: d.Content,
			IsCover: d.IsCover,
			Footer:  footer,
		}
		if i < len(images) {
			p.ImageURL = images[i]
		}
		pages = append(pages, p)
	}
	return document.NewPageSet(pages...)
}
