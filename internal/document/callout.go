package document

import (
	"errors"
	"fmt"
	"html"
)

// ErrUnknownCallout is returned for a callout kind that is not defined
var ErrUnknownCallout = errors.New("unknown callout kind")

// CalloutKind identifies an insertable styled box
type CalloutKind string

const (
	CalloutInfo       CalloutKind = "info"
	CalloutWarning    CalloutKind = "warning"
	CalloutDefinition CalloutKind = "definition"
	CalloutExample    CalloutKind = "example"
)

// CalloutStyle holds the colours and labels of a callout kind
type CalloutStyle struct {
	Background string
	Border     string
	Text       string
	Icon       string
	Title      string
}

var callouts = map[CalloutKind]CalloutStyle{
	CalloutInfo:       {Background: "#f0f9ff", Border: "#0ea5e9", Text: "#0369a1", Icon: "💡", Title: "ملاحظة هامة"},
	CalloutWarning:    {Background: "#fffbeb", Border: "#f59e0b", Text: "#92400e", Icon: "⚠️", Title: "انتبه!"},
	CalloutDefinition: {Background: "#f0fdf4", Border: "#22c55e", Text: "#166534", Icon: "📖", Title: "المصطلح العلمي"},
	CalloutExample:    {Background: "#fdf2f8", Border: "#db2777", Text: "#9d174d", Icon: "✏️", Title: "تطبيق عملي"},
}

const calloutPlaceholder = "اكتب هنا الشرح المفصل لهذا المكون التعليمي..."

// LookupCallout returns the style of a callout kind
func LookupCallout(kind CalloutKind) (CalloutStyle, error) {
	s, ok := callouts[kind]
	if !ok {
		return CalloutStyle{}, fmt.Errorf("%w: %s", ErrUnknownCallout, kind)
	}
	return s, nil
}

// CalloutMarkup renders a callout block followed by an empty paragraph
// so the caret has somewhere to land after it. An empty body uses the placeholder.
func CalloutMarkup(kind CalloutKind, body string) (string, error) {
	s, err := LookupCallout(kind)
	if err != nil {
		return "", err
	}
	if body == "" {
		body = calloutPlaceholder
	}
	return fmt.Sprintf(
		`<div class="callout callout-%s" style="background-color: %s; border-color: %s;">`+
			`<div class="callout-title"><span>%s</span> <strong style="color: %s">%s</strong></div>`+
			`<div class="callout-body" style="color: %s;">%s</div>`+
			`</div><p><br></p>`,
		kind, s.Background, s.Border, s.Icon, s.Text, s.Title, s.Text, html.EscapeString(body),
	), nil
}

// InsertCallout returns a copy of the page with a callout appended to its content
func (p Page) InsertCallout(kind CalloutKind, body string) (Page, error) {
	markup, err := CalloutMarkup(kind, body)
	if err != nil {
		return p, err
	}
	p.Content += markup
	return p, nil
}
