// pattern: Functional Core

package cli

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type Styles struct {
	flavor catppuccin.Flavor
}

func NewStyles(themeName string) *Styles {
	return &Styles{flavor: flavorFromName(themeName)}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Subtext0().Hex)).
		Width(9)
}

func (s *Styles) ValueStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Text().Hex))
}

func (s *Styles) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.flavor.Mauve().Hex))
}

func (s *Styles) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Overlay0().Hex))
}

func (s *Styles) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Red().Hex)).
		Bold(true)
}

// Field is one labelled line of a report.
type Field struct {
	Label  string
	Value  string
	Accent bool
	Muted  bool // placeholder or negative values
}

// Report renders fields as aligned "label value" lines.
func (s *Styles) Report(fields []Field) string {
	var sb strings.Builder
	for _, f := range fields {
		value := s.ValueStyle()
		switch {
		case f.Accent:
			value = s.AccentStyle()
		case f.Muted:
			value = s.MutedStyle()
		}
		sb.WriteString(s.LabelStyle().Render(f.Label))
		sb.WriteString(value.Render(f.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Plain strips terminal styling from rendered text.
func Plain(s string) string {
	return ansi.Strip(s)
}
