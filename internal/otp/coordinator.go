package otp

import (
	"errors"
	"strings"
)

const noIndex = -1

var (
	ErrInvalidCharacter = errors.New("otp: candidate is not a single digit")
	ErrIndexOutOfRange  = errors.New("otp: cell index out of range")
)

// Delegate receives field notifications. Implementations must not call
// Reset, Reload, SetCode or HandleEdit on the same coordinator from inside a
// callback; queue the work and act after the triggering call returns.
type Delegate interface {
	// CharacterChanged reports a classified edit candidate before it is
	// applied, with the index that was current when it arrived.
	CharacterChanged(f *Coordinator, char string, index int)
	// Filled reports a complete code.
	Filled(f *Coordinator, code string)
}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are skipped.
type DelegateFuncs struct {
	OnCharacterChanged func(f *Coordinator, char string, index int)
	OnFilled           func(f *Coordinator, code string)
}

func (d DelegateFuncs) CharacterChanged(f *Coordinator, char string, index int) {
	if d.OnCharacterChanged != nil {
		d.OnCharacterChanged(f, char, index)
	}
}

func (d DelegateFuncs) Filled(f *Coordinator, code string) {
	if d.OnFilled != nil {
		d.OnFilled(f, code)
	}
}

// Coordinator owns a row of cells and turns platform edit candidates into
// focus moves, cell mutations and delegate notifications.
//
// The zero value is not usable; call NewCoordinator. NumberOfFields must be
// set before the first call that touches the cells, and changing it only
// takes effect after Reload.
type Coordinator struct {
	NumberOfFields     int
	MinimumSpacing     int
	ShouldHideIfFilled bool
	Appearance         Appearance

	delegate    Delegate
	cells       []*Cell
	current     int
	responder   int
	autoFilling bool
	state       State
	generation  uint64

	// outcome of the last edit that arrived through a cell hook
	lastAction Action
	lastErr    error
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		ShouldHideIfFilled: true,
		Appearance:         DefaultAppearance(),
		current:            noIndex,
		responder:          noIndex,
	}
}

func (c *Coordinator) SetDelegate(d Delegate) { c.delegate = d }

// Reload discards the cells and builds NumberOfFields new ones.
func (c *Coordinator) Reload() {
	c.build()
}

// Reset clears every cell, leaves auto-fill mode and returns to the normal
// state. With focusFirst the first cell becomes current.
func (c *Coordinator) Reset(focusFirst bool) {
	c.ensureCells()
	c.Update(StateNormal)
	for _, cell := range c.cells {
		cell.SetCharacter("")
	}
	c.autoFilling = false
	if focusFirst {
		c.activate(0)
	}
}

// Update applies state to the field and refreshes every cell.
func (c *Coordinator) Update(state State) {
	c.ensureCells()
	c.state = state
	for _, cell := range c.cells {
		cell.SetState(state)
	}
}

func (c *Coordinator) SetState(state State) { c.Update(state) }

func (c *Coordinator) State() State { return c.state }

// Code concatenates the cell digits in order.
func (c *Coordinator) Code() string {
	c.ensureCells()
	var b strings.Builder
	for _, cell := range c.cells {
		b.WriteString(cell.Text())
	}
	return b.String()
}

// SetCode writes the digits of code into the cells from the left, dropping
// anything past the last cell and clearing the cells it does not reach. An
// empty code clears the field. The keyboard is dismissed afterwards.
func (c *Coordinator) SetCode(code string) {
	c.ensureCells()
	digits := digitsOf(code)
	if len(digits) > len(c.cells) {
		digits = digits[:len(c.cells)]
	}
	for i, cell := range c.cells {
		if i < len(digits) {
			cell.SetCharacter(digits[i : i+1])
		} else {
			cell.SetCharacter("")
		}
	}
	if digits != "" {
		c.EndEditing()
	}
}

func (c *Coordinator) IsFilled() bool {
	c.ensureCells()
	return len(c.Code()) == len(c.cells)
}

// Len is the number of cells in the current sequence.
func (c *Coordinator) Len() int {
	c.ensureCells()
	return len(c.cells)
}

func (c *Coordinator) Cell(index int) *Cell {
	c.ensureCells()
	if index < 0 || index >= len(c.cells) {
		return nil
	}
	return c.cells[index]
}

func (c *Coordinator) Cells() []*Cell {
	c.ensureCells()
	out := make([]*Cell, len(c.cells))
	copy(out, c.cells)
	return out
}

func (c *Coordinator) CellText(index int) string {
	if cell := c.Cell(index); cell != nil {
		return cell.Text()
	}
	return ""
}

func (c *Coordinator) CurrentIndex() (int, bool) {
	return c.current, c.current != noIndex
}

// Responder is the cell holding keyboard focus, if any.
func (c *Coordinator) Responder() (int, bool) {
	return c.responder, c.responder != noIndex
}

func (c *Coordinator) IsFocused() bool { return c.responder != noIndex }

func (c *Coordinator) IsAutoFillInProgress() bool { return c.autoFilling }

// Generation changes on every rebuild of the cell sequence.
func (c *Coordinator) Generation() uint64 { return c.generation }

// Focus asks for index to become current and take the keyboard. It is a
// no-op while the field is filled and ShouldHideIfFilled is set.
func (c *Coordinator) Focus(index int) bool {
	c.ensureCells()
	if index < 0 || index >= len(c.cells) {
		return false
	}
	if c.IsFilled() && c.ShouldHideIfFilled {
		return false
	}
	c.activate(index)
	return true
}

// BeginEditing records that the platform gave the keyboard to index, for
// example after a click on the cell.
func (c *Coordinator) BeginEditing(index int) bool {
	c.ensureCells()
	if index < 0 || index >= len(c.cells) {
		return false
	}
	if index != c.current {
		c.setCurrent(index)
	}
	c.responder = index
	return true
}

// EndEditing dismisses the keyboard. The current index is kept.
func (c *Coordinator) EndEditing() {
	c.responder = noIndex
}

// HandleEdit classifies and applies one edit candidate for the cell at
// index. current is the text the platform sees in that cell. Candidates that
// are not "" or a single digit return ErrInvalidCharacter without touching
// anything; unmatched candidates return ActionNone and a nil error.
func (c *Coordinator) HandleEdit(index int, current, proposed string) (Action, error) {
	c.ensureCells()
	if index < 0 || index >= len(c.cells) {
		return ActionNone, ErrIndexOutOfRange
	}
	if !ValidCandidate(proposed) {
		return ActionNone, ErrInvalidCharacter
	}
	action := Classify(current, proposed, c.autoFilling)
	if action == ActionNone {
		return ActionNone, nil
	}
	c.apply(index, action, proposed)
	return action, nil
}

// DeleteBackward applies a backspace on index. An empty cell still moves
// focus back one cell.
func (c *Coordinator) DeleteBackward(index int) error {
	c.ensureCells()
	if index < 0 || index >= len(c.cells) {
		return ErrIndexOutOfRange
	}
	c.apply(index, ActionDelete, "")
	return nil
}

// LastEdit reports how the coordinator handled the last edit delivered
// through a cell's ShouldAccept or DeleteBackward hook.
func (c *Coordinator) LastEdit() (Action, error) {
	return c.lastAction, c.lastErr
}

func (c *Coordinator) shouldChange(index int, current, proposed string) bool {
	c.lastAction, c.lastErr = c.HandleEdit(index, current, proposed)
	return false
}

func (c *Coordinator) deleteBackward(index int) {
	if err := c.DeleteBackward(index); err != nil {
		c.lastAction, c.lastErr = ActionNone, err
		return
	}
	c.lastAction, c.lastErr = ActionDelete, nil
}

func (c *Coordinator) apply(index int, action Action, proposed string) {
	at := c.current
	if at == noIndex {
		at = 0
	}
	if c.delegate != nil {
		c.delegate.CharacterChanged(c, proposed, at)
	}

	switch action {
	case ActionAutoFillStart:
		// the platform fills every cell itself from here on
		c.autoFilling = true
		c.activate(0)
	case ActionWrite, ActionRewrite:
		c.cells[index].SetCharacter(proposed)
		if c.IsFilled() {
			c.activate(noIndex)
		} else {
			c.activate(min(len(c.cells)-1, index+1))
		}
	case ActionDelete:
		c.cells[index].SetCharacter("")
		c.activate(max(0, index-1))
	}

	if c.IsFilled() {
		c.autoFilling = false
		if c.delegate != nil {
			c.delegate.Filled(c, c.Code())
		}
	}
}

// activate moves the current index and hands the keyboard to it, unless the
// field is complete and should hide once filled.
func (c *Coordinator) activate(index int) {
	c.setCurrent(index)
	if c.IsFilled() && c.ShouldHideIfFilled {
		c.responder = noIndex
		return
	}
	if index != noIndex {
		c.responder = index
	}
}

// setCurrent keeps at most one cell selected, the current one. Nothing is
// selected while auto-filling.
func (c *Coordinator) setCurrent(next int) {
	if next == noIndex {
		for _, cell := range c.cells {
			cell.SetSelected(false)
		}
		c.current = noIndex
		return
	}
	if c.current != noIndex && c.current < len(c.cells) {
		c.cells[c.current].SetSelected(false)
	}
	if !c.autoFilling {
		c.cells[next].SetSelected(true)
	}
	c.current = next
}

func (c *Coordinator) ensureCells() {
	if c.cells == nil {
		c.build()
	}
}

func (c *Coordinator) build() {
	if c.NumberOfFields <= 0 {
		panic("otp: NumberOfFields must be set before the field is used")
	}
	cells := make([]*Cell, c.NumberOfFields)
	for i := range cells {
		cells[i] = newCell(i, c.Appearance, c)
	}
	c.cells = cells
	c.current = noIndex
	c.responder = noIndex
	c.autoFilling = false
	c.lastAction, c.lastErr = ActionNone, nil
	c.generation++
	c.Update(StateNormal)
}
