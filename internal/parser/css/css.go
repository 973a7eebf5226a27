package css

import (
	"errors"
	"io"
	"strings"
)

// Parser represents a CSS parser
type Parser struct {
	// Media is the medium @media blocks are matched against ("screen" or "print")
	Media string
}

// Rule represents a CSS rule
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
}

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []*Rule
	// Page holds the declarations of @page rules
	Page []*Declaration
}

// NewParser creates a new CSS parser for screen media
func NewParser() *Parser {
	return &Parser{Media: "screen"}
}

// ParseString parses CSS from a string
func (p *Parser) ParseString(content string) (*Stylesheet, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses CSS from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Stylesheet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	stylesheet := &Stylesheet{Rules: []*Rule{}}
	p.parseInto(stylesheet, removeComments(string(content)))
	return stylesheet, nil
}

func (p *Parser) parseInto(stylesheet *Stylesheet, content string) {
	for _, ruleStr := range splitRules(content) {
		if strings.HasPrefix(ruleStr, "@") {
			p.parseAtRule(stylesheet, ruleStr)
			continue
		}
		rule, err := parseRule(ruleStr)
		if err != nil {
			continue // Skip invalid rules
		}
		stylesheet.Rules = append(stylesheet.Rules, rule)
	}
}

// parseAtRule handles @media and @page; other at-rules are ignored
func (p *Parser) parseAtRule(stylesheet *Stylesheet, ruleStr string) {
	open := strings.Index(ruleStr, "{")
	if open < 0 {
		return
	}
	prelude := strings.TrimSpace(ruleStr[:open])
	body := strings.TrimSuffix(strings.TrimSpace(ruleStr[open+1:]), "}")

	name, query, _ := strings.Cut(prelude, " ")
	switch strings.ToLower(name) {
	case "@media":
		if p.mediaMatches(query) {
			p.parseInto(stylesheet, body)
		}
	case "@page":
		stylesheet.Page = append(stylesheet.Page, ParseDeclarations(body)...)
	}
}

func (p *Parser) mediaMatches(query string) bool {
	media := p.Media
	if media == "" {
		media = "screen"
	}
	for _, q := range strings.Split(query, ",") {
		q = strings.ToLower(strings.TrimSpace(q))
		q = strings.TrimPrefix(q, "only ")
		if q == "all" || strings.HasPrefix(q, media) {
			return true
		}
	}
	return false
}

// parseRule parses a single CSS rule
func parseRule(ruleStr string) (*Rule, error) {
	parts := strings.SplitN(ruleStr, "{", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid rule format")
	}

	selectorStr := strings.TrimSpace(parts[0])
	declarationsStr := strings.TrimSpace(parts[1])

	declarationsStr = strings.TrimSuffix(declarationsStr, "}")

	selectors := parseSelectors(selectorStr)
	if len(selectors) == 0 {
		return nil, errors.New("no selectors found")
	}

	return &Rule{
		Selectors:    selectors,
		Declarations: ParseDeclarations(declarationsStr),
	}, nil
}

// parseSelectors parses CSS selectors, collapsing inner whitespace
func parseSelectors(selectorStr string) []string {
	selectors := strings.Split(selectorStr, ",")
	result := make([]string, 0, len(selectors))

	for _, selector := range selectors {
		selector = strings.Join(strings.Fields(selector), " ")
		if selector != "" {
			result = append(result, selector)
		}
	}

	return result
}

// ParseDeclarations parses a declaration list such as a style attribute.
// Semicolons inside quotes or parentheses do not end a declaration.
func ParseDeclarations(declarationsStr string) []*Declaration {
	declarationStrings := splitTopLevel(declarationsStr, ';')
	result := make([]*Declaration, 0, len(declarationStrings))

	for _, declStr := range declarationStrings {
		declStr = strings.TrimSpace(declStr)
		if declStr == "" {
			continue
		}

		parts := strings.SplitN(declStr, ":", 2)
		if len(parts) != 2 {
			continue
		}

		property := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		important := false
		if strings.HasSuffix(value, "!important") {
			important = true
			value = strings.TrimSuffix(value, "!important")
			value = strings.TrimSpace(value)
		}

		result = append(result, &Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		})
	}

	return result
}

// splitTopLevel splits s on sep outside of quotes and parentheses
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// removeComments removes CSS comments
func removeComments(content string) string {
	var result strings.Builder
	i := 0

	for i < len(content) {
		if i+1 < len(content) && content[i] == '/' && content[i+1] == '*' {
			commentEnd := strings.Index(content[i+2:], "*/")
			if commentEnd == -1 {
				break
			}
			i += commentEnd + 4
		} else {
			result.WriteByte(content[i])
			i++
		}
	}

	return result.String()
}

// splitRules splits CSS content into top-level rules, at-rule blocks included.
// Statement at-rules such as @import end at their semicolon and are dropped.
func splitRules(content string) []string {
	var rules []string
	var currentRule strings.Builder
	braceCount := 0

	for i := 0; i < len(content); i++ {
		char := content[i]

		switch char {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				currentRule.WriteByte(char)
				rules = append(rules, strings.TrimSpace(currentRule.String()))
				currentRule.Reset()
				continue
			}
		case ';':
			if braceCount == 0 {
				currentRule.Reset()
				continue
			}
		}

		currentRule.WriteByte(char)
	}

	return rules
}
