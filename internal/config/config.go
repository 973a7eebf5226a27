// Package config loads the dafter settings file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/gemini"
	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the file
const (
	EnvAPIKey = "GEMINI_API_KEY"
	EnvAddr   = "DAFTER_ADDR"
)

// Settings is the content of config.toml
type Settings struct {
	Gemini     Gemini                `toml:"gemini"`
	Layout     document.LayoutConfig `toml:"layout"`
	Pagination Pagination            `toml:"pagination"`
	Server     Server                `toml:"server"`
	Export     Export                `toml:"export"`
}

// Gemini configures the generation backend
type Gemini struct {
	APIKey           string  `toml:"api_key,omitempty"`
	TextModel        string  `toml:"text_model"`
	ImageModel       string  `toml:"image_model"`
	Temperature      float32 `toml:"temperature"`
	Images           bool    `toml:"images"`
	ImageConcurrency int     `toml:"image_concurrency"`
	ImagesPerSecond  float64 `toml:"images_per_second"`
	ImageBurst       int     `toml:"image_burst"`
}

// Pagination overrides the overflow and split heuristics
type Pagination struct {
	BaseThresholdCover   float64 `toml:"base_threshold_cover"`
	BaseThresholdContent float64 `toml:"base_threshold_content"`
	BaseThresholdSplit   float64 `toml:"base_threshold_split"`
	FallbackSplitRatio   float64 `toml:"fallback_split_ratio"`
	MaxPages             int     `toml:"max_pages"`
}

// Server configures `dafter serve`
type Server struct {
	Addr string `toml:"addr"`
}

// Export configures the export sinks
type Export struct {
	Dir          string `toml:"dir"`
	Format       string `toml:"format"`
	InlineImages bool   `toml:"inline_images"`
	FontPath     string `toml:"font_path,omitempty"`
}

// Default returns the built-in settings
func Default() Settings {
	g := generate.DefaultOptions()
	p := pagination.DefaultOptions()
	return Settings{
		Gemini: Gemini{
			TextModel:        gemini.DefaultTextModel,
			ImageModel:       gemini.DefaultImageModel,
			Images:           g.Images,
			ImageConcurrency: g.ImageConcurrency,
			ImagesPerSecond:  g.ImagesPerSecond,
			ImageBurst:       g.ImageBurst,
		},
		Layout: document.DefaultLayout(),
		Pagination: Pagination{
			BaseThresholdCover:   p.BaseThresholdCover,
			BaseThresholdContent: p.BaseThresholdContent,
			BaseThresholdSplit:   p.BaseThresholdSplit,
			FallbackSplitRatio:   p.FallbackSplitRatio,
			MaxPages:             p.MaxPages,
		},
		Server: Server{Addr: ":8080"},
		Export: Export{Dir: ".", Format: "html", InlineImages: true},
	}
}

// DefaultPath returns ~/.dafter/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dafter", "config.toml"), nil
}

// Load reads the settings at path, or at DefaultPath when path is empty.
// A missing file yields the defaults. Environment overrides are applied last.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			s.applyEnv()
			return s, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	s.applyEnv()
	return s, nil
}

// Save writes settings to path, creating its directory
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (s *Settings) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		s.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		s.Server.Addr = v
	}
}

// Client returns the Gemini client configuration
func (g Gemini) Client() gemini.Config {
	return gemini.Config{
		APIKey:      g.APIKey,
		TextModel:   g.TextModel,
		ImageModel:  g.ImageModel,
		Temperature: g.Temperature,
	}
}

// Generation returns the image fan-out options
func (g Gemini) Generation() generate.Options {
	return generate.Options{
		Images:           g.Images,
		ImageConcurrency: g.ImageConcurrency,
		ImagesPerSecond:  g.ImagesPerSecond,
		ImageBurst:       g.ImageBurst,
	}
}

// Options merges the overrides into the pagination defaults. Zero values
// keep the default.
func (p Pagination) Options() pagination.Options {
	o := pagination.DefaultOptions()
	if p.BaseThresholdCover > 0 {
		o.BaseThresholdCover = p.BaseThresholdCover
	}
	if p.BaseThresholdContent > 0 {
		o.BaseThresholdContent = p.BaseThresholdContent
	}
	if p.BaseThresholdSplit > 0 {
		o.BaseThresholdSplit = p.BaseThresholdSplit
	}
	if p.FallbackSplitRatio > 0 && p.FallbackSplitRatio < 1 {
		o.FallbackSplitRatio = p.FallbackSplitRatio
	}
	if p.MaxPages > 0 {
		o.MaxPages = p.MaxPages
	}
	return o
}
