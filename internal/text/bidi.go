package text

import (
	"golang.org/x/text/unicode/bidi"
)

// Direction represents text direction
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

// String returns the HTML dir attribute value
func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// strongDirection classifies a rune by its bidi class.
// ok is false for neutral and weak characters.
func strongDirection(r rune) (Direction, bool) {
	props, _ := bidi.LookupRune(r)
	switch props.Class() {
	case bidi.L:
		return LeftToRight, true
	case bidi.R, bidi.AL:
		return RightToLeft, true
	}
	return LeftToRight, false
}

// DetectDirection returns the direction of the first strong character,
// or def when the text has none.
func DetectDirection(s string, def Direction) Direction {
	for _, r := range s {
		if d, ok := strongDirection(r); ok {
			return d
		}
	}
	return def
}

// IsRTL reports whether the text contains any strong right-to-left character
func IsRTL(s string) bool {
	for _, r := range s {
		if d, ok := strongDirection(r); ok && d == RightToLeft {
			return true
		}
	}
	return false
}
