package text

import (
	"unicode"
)

// Font describes the face text is measured in
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// TextShaper approximates advance widths for scripts that have no
// metrics in the core PDF fonts. Widths are in the unit of Font.Size.
type TextShaper struct {
	// BoldFactor widens bold text
	BoldFactor float64
}

// NewTextShaper creates a new text shaper
func NewTextShaper() *TextShaper {
	return &TextShaper{BoldFactor: 1.06}
}

// Advance returns the approximate advance of a rune as a fraction of the em
func Advance(r rune) float64 {
	switch {
	case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Me, r), unicode.Is(unicode.Cf, r):
		return 0
	case r == '\t':
		return 1.1
	case unicode.IsSpace(r):
		return 0.28
	case unicode.Is(unicode.Arabic, r):
		return 0.52
	case unicode.Is(unicode.Hebrew, r):
		return 0.55
	case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r),
		unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
		return 1.0
	case r >= 0x1F300 && r <= 0x1FAFF, r >= 0x2600 && r <= 0x27BF:
		return 1.2
	case unicode.IsDigit(r):
		return 0.56
	case unicode.IsUpper(r):
		return 0.66
	case unicode.IsPunct(r):
		return 0.33
	}
	return 0.52
}

// MeasureText returns the approximate width of a single line of text
func (s *TextShaper) MeasureText(text string, font Font) float64 {
	width := 0.0
	for _, r := range text {
		width += Advance(r)
	}
	width *= font.Size
	if font.Bold && s.BoldFactor > 0 {
		width *= s.BoldFactor
	}
	return width
}

// IsLatin1 reports whether every rune of text is within Latin-1,
// the range the core PDF fonts carry metrics for.
func IsLatin1(text string) bool {
	for _, r := range text {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}
