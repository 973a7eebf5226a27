package style

import (
	"strings"

	"github.com/dafterai/dafter/internal/parser/css"
	"github.com/dafterai/dafter/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// Specificity represents the specificity of a CSS selector
type Specificity struct {
	ID      int
	Class   int
	Element int
}

// StyleProperty represents a computed style property
type StyleProperty struct {
	Name        string
	Value       string
	Important   bool
	Source      Source
	Specificity Specificity
	Inherited   bool
}

// Source represents the origin of a style property
type Source int

const (
	SourceNotebook Source = iota
	SourceAuthor
	SourceInline
)

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]StyleProperty

// Get returns the value of a property, or def when it is unset
func (s ComputedStyle) Get(name, def string) string {
	if p, ok := s[name]; ok && p.Value != "" {
		return p.Value
	}
	return def
}

// inheritedProperties flow from parent to child when the child does not set them
var inheritedProperties = map[string]bool{
	"color":          true,
	"direction":      true,
	"font-family":    true,
	"font-size":      true,
	"font-style":     true,
	"font-weight":    true,
	"line-height":    true,
	"text-align":     true,
	"letter-spacing": true,
	"white-space":    true,
	"word-spacing":   true,
}

// IsInherited reports whether a property is inherited by default
func IsInherited(name string) bool {
	return inheritedProperties[name]
}

// StyleEngine handles the CSS cascade and style computation
type StyleEngine struct {
	notebookStyles *css.Stylesheet
	authorStyles   []*css.Stylesheet
}

// NewStyleEngine creates a style engine seeded with the notebook stylesheet
func NewStyleEngine() *StyleEngine {
	return &StyleEngine{
		notebookStyles: notebookStylesheet(),
		authorStyles:   []*css.Stylesheet{},
	}
}

// AddStylesheet adds an author stylesheet to the style engine
func (e *StyleEngine) AddStylesheet(stylesheet *css.Stylesheet) {
	e.authorStyles = append(e.authorStyles, stylesheet)
}

// ComputeStyles computes styles for all elements under the document root.
// The root itself receives the root style; descendants inherit from it.
func (e *StyleEngine) ComputeStyles(doc *html.Document, root ComputedStyle) map[*html.Node]ComputedStyle {
	result := make(map[*html.Node]ComputedStyle)
	if doc == nil || doc.Root == nil {
		return result
	}
	if root == nil {
		root = ComputedStyle{}
	}
	result[doc.Root] = root
	for child := doc.Root.FirstChild; child != nil; child = child.NextSibling {
		e.computeStylesRecursive(child, root, result)
	}
	return result
}

// computeStylesRecursive computes styles for an element and its children
func (e *StyleEngine) computeStylesRecursive(node *html.Node, parent ComputedStyle, result map[*html.Node]ComputedStyle) {
	if node == nil {
		return
	}

	current := parent
	if node.Type == xhtml.ElementNode {
		current = e.computeStyleForElement(node, parent)
		result[node] = current
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.computeStylesRecursive(child, current, result)
	}
}

// computeStyleForElement computes the style for a single element
func (e *StyleEngine) computeStyleForElement(node *html.Node, parent ComputedStyle) ComputedStyle {
	style := make(ComputedStyle)

	e.applyStylesheet(style, node, e.notebookStyles, SourceNotebook)

	for _, stylesheet := range e.authorStyles {
		e.applyStylesheet(style, node, stylesheet, SourceAuthor)
	}

	e.applyInlineStyles(style, node)

	for name, prop := range parent {
		if !IsInherited(name) {
			continue
		}
		if _, set := style[name]; set {
			continue
		}
		prop.Inherited = true
		style[name] = prop
	}

	return style
}

// applyStylesheet applies styles from a stylesheet to an element
func (e *StyleEngine) applyStylesheet(style ComputedStyle, node *html.Node, stylesheet *css.Stylesheet, source Source) {
	if stylesheet == nil {
		return
	}
	for _, rule := range stylesheet.Rules {
		for _, selector := range rule.Selectors {
			if e.selectorMatches(node, selector) {
				specificity := calculateSpecificity(selector)
				e.applyDeclarations(style, rule.Declarations, specificity, source)
			}
		}
	}
}

// applyInlineStyles applies the style attribute of an element
func (e *StyleEngine) applyInlineStyles(style ComputedStyle, node *html.Node) {
	inline := node.GetAttr("style")
	if inline == "" {
		return
	}
	e.applyDeclarations(style, css.ParseDeclarations(inline), Specificity{ID: 1}, SourceInline)
}

// applyDeclarations applies CSS declarations to a style.
// A declaration wins over the existing one when it is important and the
// existing is not, or at equal importance when it comes from a later origin,
// or from the same origin with equal or higher specificity.
func (e *StyleEngine) applyDeclarations(style ComputedStyle, declarations []*css.Declaration, specificity Specificity, source Source) {
	for _, decl := range declarations {
		property := decl.Property
		existing, exists := style[property]

		wins := !exists ||
			(decl.Important && !existing.Important) ||
			(decl.Important == existing.Important && source > existing.Source) ||
			(decl.Important == existing.Important && source == existing.Source &&
				compareSpecificity(specificity, existing.Specificity) >= 0)

		if wins {
			style[property] = StyleProperty{
				Name:        property,
				Value:       decl.Value,
				Important:   decl.Important,
				Source:      source,
				Specificity: specificity,
			}
		}
	}
}

// selectorMatches checks if an element matches a descendant selector
func (e *StyleEngine) selectorMatches(node *html.Node, selector string) bool {
	parts := strings.Fields(selector)
	if len(parts) == 0 || node == nil {
		return false
	}
	if !matchCompoundSelector(node, parts[len(parts)-1]) {
		return false
	}

	current := node.Parent
	for i := len(parts) - 2; i >= 0; i-- {
		found := false
		for anc := current; anc != nil; anc = anc.Parent {
			if anc.Type == xhtml.ElementNode && matchCompoundSelector(anc, parts[i]) {
				found = true
				current = anc.Parent
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// matchCompoundSelector matches a single compound selector against a node.
// Compound selectors can be forms like:
//   - tag
//   - .class
//   - #id
//   - tag.class
//   - tag#id.class1.class2
//
// Attributes, pseudo-classes and combinators other than descendant never match.
func matchCompoundSelector(node *html.Node, sel string) bool {
	if node == nil || node.Type != xhtml.ElementNode || sel == "" {
		return false
	}

	var wantTag string
	var wantID string
	var wantClasses []string

	i := 0
	if sel[i] != '.' && sel[i] != '#' {
		j := i
		for j < len(sel) && sel[j] != '#' && sel[j] != '.' {
			j++
		}
		wantTag = strings.ToLower(sel[i:j])
		i = j
	}
	for i < len(sel) {
		if sel[i] != '#' && sel[i] != '.' {
			return false
		}
		j := i + 1
		for j < len(sel) && sel[j] != '.' && sel[j] != '#' {
			j++
		}
		if sel[i] == '#' {
			wantID = sel[i+1 : j]
		} else {
			wantClasses = append(wantClasses, sel[i+1:j])
		}
		i = j
	}

	if strings.ContainsAny(wantTag, ":[>+~") {
		return false
	}
	if wantTag != "" && wantTag != node.Data && wantTag != "*" {
		return false
	}

	if wantID != "" && node.GetAttr("id") != wantID {
		return false
	}

	if len(wantClasses) > 0 {
		have := strings.Fields(node.GetAttr("class"))
		set := make(map[string]struct{}, len(have))
		for _, c := range have {
			set[c] = struct{}{}
		}
		for _, need := range wantClasses {
			if strings.ContainsAny(need, ":[") {
				return false
			}
			if _, ok := set[need]; !ok {
				return false
			}
		}
	}

	return true
}

// calculateSpecificity calculates the specificity of a CSS selector
func calculateSpecificity(selector string) Specificity {
	specificity := Specificity{}

	specificity.ID = strings.Count(selector, "#")

	specificity.Class = strings.Count(selector, ".") +
		strings.Count(selector, "[") +
		strings.Count(selector, ":")

	for _, part := range strings.Fields(selector) {
		if part != "" && part[0] != '.' && part[0] != '#' && part[0] != '*' {
			specificity.Element++
		}
	}

	return specificity
}

// compareSpecificity compares two specificities
func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

func notebookStylesheet() *css.Stylesheet {
	stylesheet, _ := css.NewParser().ParseString(NotebookCSS)
	return stylesheet
}
