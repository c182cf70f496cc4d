// Package input is the platform side of the OTP field: it turns terminal
// keys, clipboard contents and SMS messages into the edit candidates the
// coordinator classifies.
package input

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/otpfield/internal/otp"
)

var (
	ErrNoResponder    = errors.New("input: no cell has keyboard focus")
	ErrCodeLength     = errors.New("input: code length does not match field")
	ErrTargetNotEmpty = errors.New("input: autofill needs an empty cell")
)

// Target is the part of a field the input layer talks to. Edits go through
// the cells' hooks; LastEdit reports what the field made of the last one.
// *otp.Coordinator satisfies it.
type Target interface {
	Len() int
	Responder() (int, bool)
	Cell(index int) *otp.Cell
	LastEdit() (otp.Action, error)
}

type Kind int

const (
	KindInsert Kind = iota + 1
	KindDeleteBackward
)

// Keystroke is one key press that edits the focused cell.
type Keystroke struct {
	Kind Kind
	Text string
}

// Translate maps a key message to a keystroke. Bracketed pastes are not
// keystrokes; they go through AutoFill.
func Translate(msg tea.KeyMsg) (Keystroke, bool) {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return Keystroke{Kind: KindDeleteBackward}, true
	case tea.KeySpace:
		return Keystroke{Kind: KindInsert, Text: " "}, true
	case tea.KeyRunes:
		if msg.Paste || len(msg.Runes) == 0 {
			return Keystroke{}, false
		}
		return Keystroke{Kind: KindInsert, Text: string(msg.Runes)}, true
	}
	return Keystroke{}, false
}

// Deliver sends a keystroke to the cell holding keyboard focus.
func Deliver(t Target, ks Keystroke) (otp.Action, error) {
	index, ok := t.Responder()
	if !ok {
		return otp.ActionNone, ErrNoResponder
	}
	cell := t.Cell(index)
	if cell == nil {
		return otp.ActionNone, otp.ErrIndexOutOfRange
	}
	switch ks.Kind {
	case KindDeleteBackward:
		cell.DeleteBackward()
	case KindInsert:
		cell.ShouldAccept(ks.Text)
	default:
		return otp.ActionNone, nil
	}
	return t.LastEdit()
}

// offer hands proposed to the cell at index and returns the field's verdict.
func offer(t Target, index int, proposed string) error {
	cell := t.Cell(index)
	if cell == nil {
		return otp.ErrIndexOutOfRange
	}
	cell.ShouldAccept(proposed)
	_, err := t.LastEdit()
	return err
}

// AutoFill replays a one-time-code fill the way a phone keyboard delivers
// it: an empty edit on the focused empty cell, then one write per cell from
// the first.
func AutoFill(t Target, code string) error {
	if len(code) != t.Len() {
		return fmt.Errorf("%w: got %d digits for %d cells", ErrCodeLength, len(code), t.Len())
	}
	index, ok := t.Responder()
	if !ok {
		index = 0
	}
	if cell := t.Cell(index); cell == nil || cell.Text() != "" {
		return ErrTargetNotEmpty
	}
	if err := offer(t, index, ""); err != nil {
		return fmt.Errorf("autofill start: %w", err)
	}
	for i := 0; i < len(code); i++ {
		if err := offer(t, i, code[i:i+1]); err != nil {
			return fmt.Errorf("autofill cell %d: %w", i, err)
		}
	}
	return nil
}
