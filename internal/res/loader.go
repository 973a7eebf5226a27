package res

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNotImage is returned when an image was requested but the resource is not one
var ErrNotImage = errors.New("resource is not an image")

// DefaultMaxSize caps the size of a loaded resource
const DefaultMaxSize = 20 << 20

// ResourceType represents the type of resource
type ResourceType int

const (
	// ResourceTypeUnknown is an unknown resource type
	ResourceTypeUnknown ResourceType = iota
	// ResourceTypeImage is an image resource
	ResourceTypeImage
	// ResourceTypeFont is a font resource
	ResourceTypeFont
	// ResourceTypeCSS is a CSS resource
	ResourceTypeCSS
	// ResourceTypeOther is any other resource
	ResourceTypeOther
)

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// DataURL returns the resource encoded as a base64 data URL
func (r *Resource) DataURL() string {
	return ToDataURL(r.MimeType, r.Data)
}

// Loader loads page images and fonts from data URLs, files and the web
type Loader struct {
	// BaseDir resolves relative file paths
	BaseDir string
	// MaxSize caps the bytes read for one resource
	MaxSize int64

	cache     map[string]*Resource
	cacheLock sync.RWMutex

	searchPaths []string

	client *http.Client
}

// NewLoader creates a new resource loader resolving relative paths against baseDir
func NewLoader(baseDir string) *Loader {
	return &Loader{
		BaseDir:     baseDir,
		MaxSize:     DefaultMaxSize,
		cache:       make(map[string]*Resource),
		searchPaths: []string{},
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// AddSearchPath adds a directory to search for local resources
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads a resource from a data URL, an http(s) URL or a file path
func (l *Loader) Load(ctx context.Context, ref string) (*Resource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty resource reference")
	}

	l.cacheLock.RLock()
	if res, ok := l.cache[ref]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var (
		res *Resource
		err error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		res, err = ParseDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		res, err = l.loadRemote(ctx, ref)
	default:
		res, err = l.loadLocal(l.resolvePath(ref))
	}
	if err != nil {
		return nil, err
	}

	l.cacheLock.Lock()
	l.cache[ref] = res
	l.cacheLock.Unlock()
	return res, nil
}

// LoadImage loads a resource and checks that it is an image
func (l *Loader) LoadImage(ctx context.Context, ref string) (*Resource, error) {
	res, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, truncate(ref))
	}
	return res, nil
}

// LoadFont loads a font resource
func (l *Loader) LoadFont(ctx context.Context, ref string) (*Resource, error) {
	res, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeFont {
		return nil, fmt.Errorf("resource is not a font: %s", truncate(ref))
	}
	return res, nil
}

// InlineImage returns ref as a data URL, loading it when it is not one already
func (l *Loader) InlineImage(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	res, err := l.LoadImage(ctx, ref)
	if err != nil {
		return "", err
	}
	return res.DataURL(), nil
}

// ParseDataURL parses a data URL (RFC 2397) and returns a Resource.
//
//	data:image/png;base64,<base64>
//	data:text/plain,Hello%20World
func ParseDataURL(u string) (*Resource, error) {
	if !strings.HasPrefix(u, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}

	mime := "application/octet-stream"
	isBase64 := false
	comps := strings.Split(meta, ";")
	if comps[0] != "" {
		mime = strings.ToLower(strings.TrimSpace(comps[0]))
	}
	for _, c := range comps[1:] {
		if strings.EqualFold(strings.TrimSpace(c), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("invalid base64 data URL: %w", err)
			}
		}
	} else if d, err := url.PathUnescape(payload); err == nil {
		data = []byte(d)
	} else {
		data = []byte(payload)
	}

	r := &Resource{URL: u, Data: data, MimeType: mime}
	r.Type = determineResourceType(mime, "")
	return r, nil
}

// ToDataURL encodes data as a base64 data URL
func ToDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (l *Loader) resolvePath(ref string) string {
	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) || l.BaseDir == "" {
		return ref
	}
	return filepath.Join(l.BaseDir, ref)
}

// loadRemote loads a resource from a remote URL
func (l *Loader) loadRemote(ctx context.Context, urlStr string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := l.readAll(resp.Body)
	if err != nil {
		return nil, err
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	res := &Resource{URL: urlStr, Data: data, MimeType: strings.TrimSpace(mime)}
	res.Type = determineResourceType(res.MimeType, urlStr)
	return res, nil
}

// loadLocal loads a resource from a local file
func (l *Loader) loadLocal(path string) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.loadFromSearchPaths(path)
		}
		return nil, err
	}
	defer file.Close()

	data, err := l.readAll(file)
	if err != nil {
		return nil, err
	}

	res := &Resource{URL: path, Data: data, MimeType: determineMimeType(path)}
	res.Type = determineResourceType(res.MimeType, path)
	return res, nil
}

// loadFromSearchPaths tries to load a resource from the search paths
func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, base)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		res := &Resource{URL: path, Data: data, MimeType: determineMimeType(path)}
		res.Type = determineResourceType(res.MimeType, path)
		return res, nil
	}
	return nil, fmt.Errorf("resource not found: %s", filename)
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	limit := l.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("resource exceeds %d bytes", limit)
	}
	return data, nil
}

// mimeTypes maps the file extensions a notebook may reference
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".ttf":  "font/ttf",
	".otf":  "font/otf",
	".css":  "text/css",
}

func determineMimeType(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// determineResourceType classifies by MIME type, then by extension
func determineResourceType(mimeType, path string) ResourceType {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = determineMimeType(path)
	}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(mimeType, "font/"):
		return ResourceTypeFont
	case mimeType == "text/css":
		return ResourceTypeCSS
	}
	return ResourceTypeOther
}

func truncate(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
