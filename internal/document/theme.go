package document

import "sort"

// ThemeName identifies a built-in colour theme
type ThemeName string

const (
	ThemeProfessional ThemeName = "professional"
	ThemeCreative     ThemeName = "creative"
	ThemeAcademic     ThemeName = "academic"
	ThemeModern       ThemeName = "modern"
)

// Theme is the palette applied to headers, footers and callouts
type Theme struct {
	Name       ThemeName `json:"name"`
	Label      string    `json:"label"`
	Primary    string    `json:"primary"`
	Secondary  string    `json:"secondary"`
	Background string    `json:"background"`
	Accent     string    `json:"accent"`
}

var themes = map[ThemeName]Theme{
	ThemeProfessional: {
		Name: ThemeProfessional, Label: "الاحترافي",
		Primary: "#1e3a8a", Secondary: "#1d4ed8", Background: "#ffffff", Accent: "#fbbf24",
	},
	ThemeCreative: {
		Name: ThemeCreative, Label: "الإبداعي",
		Primary: "#7c3aed", Secondary: "#db2777", Background: "#faf5ff", Accent: "#22d3ee",
	},
	ThemeAcademic: {
		Name: ThemeAcademic, Label: "الأكاديمي",
		Primary: "#065f46", Secondary: "#047857", Background: "#f0fdf4", Accent: "#84cc16",
	},
	ThemeModern: {
		Name: ThemeModern, Label: "العصري",
		Primary: "#111827", Secondary: "#4b5563", Background: "#f9fafb", Accent: "#f97316",
	},
}

// LookupTheme returns the named theme, falling back to professional
func LookupTheme(name ThemeName) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[ThemeProfessional]
}

// Themes returns all built-in themes sorted by name
func Themes() []Theme {
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Font is a selectable body font family
type Font struct {
	Family string `json:"family"`
	Label  string `json:"label"`
}

// Fonts lists the Arabic font families offered by the editor
var Fonts = []Font{
	{Family: "Tajawal", Label: "تجول (عصري)"},
	{Family: "Cairo", Label: "كايرو (كلاسيكي)"},
	{Family: "Amiri", Label: "الأميري"},
	{Family: "Noto Sans Arabic", Label: "نوتو (نظيف)"},
	{Family: "Vazirmatn", Label: "وزير (تقني)"},
	{Family: "Lalezar", Label: "لاليزار (عريض)"},
	{Family: "Scheherazade New", Label: "شهرزاد (تراثي)"},
}
