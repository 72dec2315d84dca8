package draw

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tomz197/typefall/internal/game"
)

// wordColors maps word colors to their foreground.
var wordColors = map[game.Color]lipgloss.Color{
	game.ColorRed:    lipgloss.Color("#f87171"),
	game.ColorBlue:   lipgloss.Color("#60a5fa"),
	game.ColorGreen:  lipgloss.Color("#4ade80"),
	game.ColorYellow: lipgloss.Color("#facc15"),
	game.ColorPurple: lipgloss.Color("#c084fc"),
	game.ColorPink:   lipgloss.Color("#f472b6"),
}

// Palette holds the styles of one terminal. Each connection gets its own,
// since color support differs between clients.
type Palette struct {
	words  map[game.Color]lipgloss.Style
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Alert  lipgloss.Style
	Accent lipgloss.Style
	Input  lipgloss.Style
}

// NewPalette creates the styles for output written to w using profile.
func NewPalette(w io.Writer, profile termenv.Profile) *Palette {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	words := make(map[game.Color]lipgloss.Style, len(wordColors))
	for c, fg := range wordColors {
		words[c] = r.NewStyle().Foreground(fg).Bold(true)
	}

	return &Palette{
		words:  words,
		Title:  r.NewStyle().Foreground(lipgloss.Color("#22d3ee")).Bold(true),
		Muted:  r.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		Alert:  r.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true),
		Accent: r.NewStyle().Foreground(lipgloss.Color("#facc15")),
		Input:  r.NewStyle().Foreground(lipgloss.Color("#ffffff")).Underline(true),
	}
}

// Word renders text in the style of c. Unknown colors render plain.
func (p *Palette) Word(c game.Color, text string) string {
	s, ok := p.words[c]
	if !ok {
		return text
	}
	return s.Render(text)
}

// ProfileForTerm picks a color profile from a TERM and COLORTERM value.
// SSH clients do not share the server's environment, so their profile is
// derived from what the session reports.
func ProfileForTerm(term, colorTerm string) termenv.Profile {
	switch {
	case colorTerm == "truecolor" || colorTerm == "24bit":
		return termenv.TrueColor
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.HasSuffix(term, "256color"):
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}
