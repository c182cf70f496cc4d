package otp

import "github.com/charmbracelet/lipgloss"

// State is the visual state shared by a field and its cells.
type State int

const (
	StateNormal State = iota
	StateError
)

func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	default:
		return "normal"
	}
}

// CellStyle describes how a single cell is drawn.
type CellStyle struct {
	Foreground  lipgloss.Color
	Background  lipgloss.Color
	Border      lipgloss.Color
	BorderWidth int
}

// Appearance is the palette for the four cell variants.
type Appearance struct {
	Text lipgloss.Color

	NormalBackground lipgloss.Color
	ErrorBackground  lipgloss.Color
	BorderColor      lipgloss.Color
	BorderWidth      int

	SelectedNormalBackground lipgloss.Color
	SelectedNormalBorder     lipgloss.Color
	SelectedErrorBackground  lipgloss.Color
	SelectedErrorBorder      lipgloss.Color
	SelectedBorderWidth      int
}

// DefaultAppearance uses the Catppuccin Mocha palette.
func DefaultAppearance() Appearance {
	return Appearance{
		Text:                     lipgloss.Color("#cdd6f4"),
		NormalBackground:         lipgloss.Color("#313244"),
		ErrorBackground:          lipgloss.Color("#4a2a35"),
		BorderColor:              lipgloss.Color("#585b70"),
		BorderWidth:              0,
		SelectedNormalBackground: lipgloss.Color("#1e1e2e"),
		SelectedNormalBorder:     lipgloss.Color("#b4befe"),
		SelectedErrorBackground:  lipgloss.Color("#2a1e24"),
		SelectedErrorBorder:      lipgloss.Color("#f38ba8"),
		SelectedBorderWidth:      2,
	}
}

// Style maps a (selected, state) pair to its descriptor.
func (a Appearance) Style(selected bool, state State) CellStyle {
	s := CellStyle{Foreground: a.Text}
	switch {
	case state == StateError && selected:
		s.Background = a.SelectedErrorBackground
		s.Border = a.SelectedErrorBorder
		s.BorderWidth = a.SelectedBorderWidth
	case state == StateError:
		s.Background = a.ErrorBackground
		s.Border = a.BorderColor
		s.BorderWidth = a.BorderWidth
	case selected:
		s.Background = a.SelectedNormalBackground
		s.Border = a.SelectedNormalBorder
		s.BorderWidth = a.SelectedBorderWidth
	default:
		s.Background = a.NormalBackground
		s.Border = a.BorderColor
		s.BorderWidth = a.BorderWidth
	}
	return s
}
