package ui

import lipgloss "charm.land/lipgloss/v2"

const (
	ThemeNeon  = "neon"
	ThemeCozy  = "cozy"
	ThemeRetro = "retro"
)

// ThemeNames lists the accepted --theme values.
func ThemeNames() []string { return []string{ThemeNeon, ThemeCozy, ThemeRetro} }

type Theme struct {
	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Messages    lipgloss.Style
	Prompt      lipgloss.Style
	Fail        lipgloss.Style
}

// palette is the handful of colors a theme is derived from.
type palette struct {
	base, bar       string // header and status backgrounds
	title, text     string
	border, muted   string
	prompt, warning string
}

var palettes = map[string]palette{
	// Dark console with a cyan accent, the default.
	ThemeNeon: {
		base: "#0B1021", bar: "#1A2238",
		title: "#4FD6E8", text: "#E6EDF7",
		border: "#3E5A8C", muted: "#B3C1DA",
		prompt: "#7CF29C", warning: "#FF5F87",
	},
	ThemeCozy: {
		base: "#23201C", bar: "#3A342C",
		title: "#F0B66E", text: "#F5EFE6",
		border: "#6B5D4A", muted: "#B8AC9A",
		prompt: "#9CC6E8", warning: "#D9727E",
	},
	// Green phosphor.
	ThemeRetro: {
		base: "#041207", bar: "#0E2A14",
		title: "#D8CF6A", text: "#B8F5B0",
		border: "#2A6B38", muted: "#6E9B72",
		prompt: "#8CFF8C", warning: "#FF7A5C",
	},
}

func ThemeForVariant(variant string) Theme {
	p, ok := palettes[variant]
	if !ok {
		p = palettes[ThemeNeon]
	}
	return p.theme()
}

func (p palette) theme() Theme {
	c := lipgloss.Color
	return Theme{
		Header:      lipgloss.NewStyle().Background(c(p.base)).Foreground(c(p.title)).Bold(true).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(c(p.bar)).Foreground(c(p.text)).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(c(p.border)),
		PanelBody:   lipgloss.NewStyle().Foreground(c(p.text)),
		Messages:    lipgloss.NewStyle().Foreground(c(p.muted)),
		Prompt:      lipgloss.NewStyle().Foreground(c(p.prompt)).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(c(p.warning)).Bold(true),
	}
}
