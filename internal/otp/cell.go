package otp

// editHandler receives the low-level edits a Cell intercepts.
type editHandler interface {
	shouldChange(index int, current, proposed string) bool
	deleteBackward(index int)
}

// Cell is one single-digit slot of a field.
type Cell struct {
	index      int
	char       string
	selected   bool
	state      State
	appearance Appearance
	style      CellStyle
	handler    editHandler
}

func newCell(index int, appearance Appearance, handler editHandler) *Cell {
	c := &Cell{index: index, appearance: appearance, handler: handler}
	c.refresh()
	return c
}

func (c *Cell) Index() int { return c.index }

// Text returns "" or the cell's digit.
func (c *Cell) Text() string { return c.char }

// SetCharacter sets or clears the digit. Anything other than "" or a
// single digit is ignored.
func (c *Cell) SetCharacter(ch string) {
	if ch != "" && !isDigit(ch) {
		return
	}
	c.char = ch
}

func (c *Cell) IsSelected() bool { return c.selected }

func (c *Cell) SetSelected(selected bool) {
	c.selected = selected
	c.refresh()
}

func (c *Cell) State() State { return c.state }

func (c *Cell) SetState(state State) {
	c.state = state
	c.refresh()
}

// Style returns the descriptor for the cell's current variant.
func (c *Cell) Style() CellStyle { return c.style }

// ShouldAccept is the platform edit hook. The owning coordinator applies the
// edit itself, so the native edit is always refused.
func (c *Cell) ShouldAccept(proposed string) bool {
	if c.handler == nil {
		return false
	}
	return c.handler.shouldChange(c.index, c.char, proposed)
}

// DeleteBackward forwards a backspace on this cell to the coordinator.
func (c *Cell) DeleteBackward() {
	if c.handler != nil {
		c.handler.deleteBackward(c.index)
	}
}

func (c *Cell) refresh() {
	c.style = c.appearance.Style(c.selected, c.state)
}
