package res

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Decoders for every format a generated or pasted page image may use.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageConfig returns the pixel size and format of encoded image data
// without decoding the pixels.
func ImageConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg, format, nil
}

// ToPNG re-encodes an image in any registered format as PNG.
// PNG and JPEG data is returned unchanged along with its fpdf image type.
func ToPNG(data []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	switch format {
	case "png":
		return data, "PNG", nil
	case "jpeg":
		return data, "JPG", nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to encode %s image as png: %w", format, err)
	}
	return buf.Bytes(), "PNG", nil
}
