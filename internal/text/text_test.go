package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDirection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Direction
	}{
		{"arabic", "مرحبا بالعالم", RightToLeft},
		{"hebrew", "שלום", RightToLeft},
		{"latin", "hello", LeftToRight},
		{"leading digits then arabic", "123 درس", RightToLeft},
		{"latin first", "Go لغة", LeftToRight},
		{"neutral only uses default", "123 !", RightToLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDirection(tt.in, RightToLeft))
		})
	}
}

func TestIsRTL(t *testing.T) {
	assert.True(t, IsRTL("Go لغة"))
	assert.False(t, IsRTL("plain ascii 123"))
	assert.Equal(t, "rtl", RightToLeft.String())
	assert.Equal(t, "ltr", LeftToRight.String())
}

func TestMeasureText(t *testing.T) {
	s := NewTextShaper()
	font := Font{Size: 20}

	short := s.MeasureText("درس", font)
	long := s.MeasureText("درس طويل جدا", font)
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)

	bold := s.MeasureText("درس", Font{Size: 20, Bold: true})
	assert.Greater(t, bold, short)

	// diacritics do not advance
	assert.InDelta(t, s.MeasureText("درس", font), s.MeasureText("دَرْس", font), 1e-9)

	assert.InDelta(t, 2*s.MeasureText("abc", Font{Size: 10}), s.MeasureText("abc", font), 1e-9)
}

func TestIsLatin1(t *testing.T) {
	assert.True(t, IsLatin1("café"))
	assert.False(t, IsLatin1("درس"))
}
