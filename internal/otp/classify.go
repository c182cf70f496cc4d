package otp

// Action is the classification of one edit candidate.
type Action int

const (
	// ActionNone marks a candidate that is dropped without side effects.
	ActionNone Action = iota
	ActionAutoFillStart
	ActionWrite
	ActionRewrite
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionAutoFillStart:
		return "autofill-start"
	case ActionWrite:
		return "write"
	case ActionRewrite:
		return "rewrite"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Classify maps the text a cell currently holds and the replacement the
// platform proposes to an Action.
//
// One-time-code auto-fill announces itself with an empty replacement on an
// already empty cell. A keystroke cannot produce that pair, so it is the
// auto-fill trigger unless a fill is already running.
func Classify(current, proposed string, autoFilling bool) Action {
	switch {
	case current == "" && proposed == "" && !autoFilling:
		return ActionAutoFillStart
	case current == "" && proposed != "":
		return ActionWrite
	case current != "" && proposed != "":
		return ActionRewrite
	case current != "" && proposed == "":
		return ActionDelete
	}
	return ActionNone
}

// ValidCandidate reports whether proposed is empty or a single ASCII digit.
func ValidCandidate(proposed string) bool {
	return proposed == "" || isDigit(proposed)
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func digitsOf(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b = append(b, s[i])
		}
	}
	return string(b)
}
