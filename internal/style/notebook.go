package style

import (
	"fmt"

	"github.com/dafterai/dafter/internal/document"
)

// Root typography of a page body
const (
	BaseFontSize   = 18.0
	BaseLineHeight = 1.9
)

// NotebookCSS styles page bodies. The estimator measures with these rules
// and the exports embed them, so measured and rendered heights agree.
const NotebookCSS = `
.page-content { font-size: 18px; line-height: 1.9; }
h1 { font-size: 32px; font-weight: bold; margin: 0 0 20px 0; line-height: 1.4; }
h2 { font-size: 28px; font-weight: bold; margin: 24px 0 16px 0; line-height: 1.4; color: var(--primary); }
h3 { font-size: 22px; font-weight: bold; margin: 20px 0 12px 0; line-height: 1.5; color: var(--secondary); }
h4 { font-size: 19px; font-weight: bold; margin: 16px 0 8px 0; }
p { margin: 0 0 16px 0; }
ul, ol { margin: 0 0 16px 0; padding-right: 28px; }
li { margin: 0 0 6px 0; }
b, strong { font-weight: bold; }
i, em { font-style: italic; }
blockquote { margin: 16px 0; padding: 12px 20px; border-right: 4px solid var(--accent); }
pre { margin: 16px 0; padding: 12px; font-family: monospace; font-size: 15px; white-space: pre; }
hr { margin: 24px 0; border-top: 1px solid #e5e7eb; }
table { margin: 16px 0; }
th, td { padding: 8px; border: 1px solid #e5e7eb; }
.insight-box { margin: 24px 0; padding: 20px 24px; border-right: 8px solid var(--accent); background-color: #fffbeb; }
.pro-tip { margin: 24px 0; padding: 20px 24px; border-right: 8px solid var(--secondary); background-color: #eff6ff; }
.quiz-section { margin: 28px 0; padding: 24px; border: 2px dashed var(--primary); }
.callout { margin: 24px 0; padding: 24px; border-right: 10px solid; }
.callout-title { margin: 0 0 12px 0; font-size: 18px; font-weight: bold; }
.callout-body { font-size: 16px; line-height: 1.8; }
`

// ThemeVariables returns the :root custom properties for a brand palette
func ThemeVariables(brand document.Brand) string {
	t := brand.Palette()
	return fmt.Sprintf(
		":root { --primary: %s; --secondary: %s; --accent: %s; --page-bg: %s; --font: '%s'; }",
		t.Primary, t.Secondary, t.Accent, t.Background, brand.Font(),
	)
}

// RootStyle returns the computed style of a page body container
func RootStyle(brand document.Brand) ComputedStyle {
	return ComputedStyle{
		"font-size":   {Name: "font-size", Value: fmt.Sprintf("%gpx", BaseFontSize)},
		"line-height": {Name: "line-height", Value: fmt.Sprintf("%g", BaseLineHeight)},
		"font-family": {Name: "font-family", Value: brand.Font()},
		"direction":   {Name: "direction", Value: "rtl"},
	}
}
