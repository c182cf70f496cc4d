package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/otp"
)

const (
	// cellInner is the content width of a cell; its border adds one column
	// and one row on each side.
	cellInner  = 3
	cellWidth  = cellInner + 2
	cellHeight = 3

	// offsets of the cell row inside the view
	fieldLeft = 2
	fieldTop  = 3
)

var (
	colorText    = lipgloss.Color("#cdd6f4")
	colorMuted   = lipgloss.Color("#a6adc8")
	colorAccent  = lipgloss.Color("#89b4fa")
	colorSuccess = lipgloss.Color("#a6e3a1")
	colorError   = lipgloss.Color("#f38ba8")

	frameStyle   = lipgloss.NewStyle().Padding(1, fieldLeft).Foreground(colorText)
	titleStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle     = lipgloss.NewStyle().Foreground(colorError)
	spinnerStyle = lipgloss.NewStyle().Foreground(colorAccent)
)

func (a *App) View() string {
	title := titleStyle.Render(fmt.Sprintf("Enter the %d-digit code", a.field.Len()))

	lines := []string{
		title,
		"",
		renderField(a.field),
		"",
		a.statusLine(),
		a.statsLine(),
		"",
		a.help.View(a.keys),
	}
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderField(f *otp.Coordinator) string {
	cells := f.Cells()
	gap := strings.Repeat(" ", max(0, f.MinimumSpacing))
	parts := make([]string, 0, 2*len(cells))
	for i, c := range cells {
		if i > 0 && gap != "" {
			parts = append(parts, gap)
		}
		parts = append(parts, renderCell(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderCell(c *otp.Cell) string {
	st := c.Style()
	text := c.Text()
	if text == "" {
		text = " "
	}
	border := lipgloss.HiddenBorder()
	switch {
	case st.BorderWidth >= 2:
		border = lipgloss.ThickBorder()
	case st.BorderWidth == 1:
		border = lipgloss.RoundedBorder()
	}
	return lipgloss.NewStyle().
		Width(cellInner).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(st.Foreground).
		Background(st.Background).
		Border(border).
		BorderForeground(st.Border).
		Render(text)
}

func (a *App) statusLine() string {
	var b strings.Builder
	if a.busy {
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
	}
	switch {
	case a.status == "":
		if !a.field.IsFocused() {
			b.WriteString(mutedStyle.Render("keyboard hidden, enter to edit"))
		}
	case a.field.State() == otp.StateError:
		b.WriteString(errStyle.Render(a.status))
	case a.status == "code accepted":
		b.WriteString(okStyle.Render(a.status))
	default:
		b.WriteString(mutedStyle.Render(a.status))
	}
	return b.String()
}

func (a *App) statsLine() string {
	s := a.stats
	if s.Total == 0 {
		return mutedStyle.Render("no attempts yet")
	}
	line := fmt.Sprintf("attempts %d · accepted %d · rejected %d", s.Total, s.Accepted, s.Rejected)
	if len(a.recent) > 0 {
		parts := make([]string, 0, len(a.recent))
		for _, at := range a.recent {
			parts = append(parts, describeAttempt(at))
		}
		line += " · last: " + strings.Join(parts, ", ")
	}
	return mutedStyle.Render(line)
}

// describeAttempt renders one attempt as its outcome and source, e.g.
// "✗ sms (off by 1)".
func describeAttempt(at repository.Attempt) string {
	mark := "✗"
	if at.OK {
		mark = "✓"
	}
	s := mark + " " + at.Source
	if !at.OK && at.Distance != nil {
		s += fmt.Sprintf(" (off by %d)", *at.Distance)
	}
	return s
}

// cellAt maps a screen position to the cell drawn there.
func cellAt(x, y, n, spacing int) (int, bool) {
	if y < fieldTop || y >= fieldTop+cellHeight || x < fieldLeft {
		return 0, false
	}
	stride := cellWidth + max(0, spacing)
	x -= fieldLeft
	index := x / stride
	if index >= n || x%stride >= cellWidth {
		return 0, false
	}
	return index, true
}
