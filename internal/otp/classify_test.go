package otp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     string
		proposed    string
		autoFilling bool
		want        Action
	}{
		{name: "empty pair starts autofill", want: ActionAutoFillStart},
		{name: "empty pair ignored while autofilling", autoFilling: true, want: ActionNone},
		{name: "write into empty cell", proposed: "4", want: ActionWrite},
		{name: "write while autofilling", proposed: "4", autoFilling: true, want: ActionWrite},
		{name: "rewrite", current: "1", proposed: "2", want: ActionRewrite},
		{name: "delete", current: "7", want: ActionDelete},
		{name: "delete while autofilling", current: "7", autoFilling: true, want: ActionDelete},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.current, tc.proposed, tc.autoFilling))
		})
	}
}

func TestValidCandidate(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"", "0", "5", "9"} {
		require.True(t, ValidCandidate(ok), ok)
	}
	for _, bad := range []string{"a", " ", "12", "-", "٣", "x1"} {
		require.False(t, ValidCandidate(bad), bad)
	}
}

func TestAppearanceStyleMatrix(t *testing.T) {
	t.Parallel()

	a := DefaultAppearance()
	seen := map[CellStyle]bool{}
	for _, selected := range []bool{false, true} {
		for _, state := range []State{StateNormal, StateError} {
			s := a.Style(selected, state)
			require.Equal(t, a.Text, s.Foreground)
			if selected {
				require.Equal(t, a.SelectedBorderWidth, s.BorderWidth)
			} else {
				require.Equal(t, a.BorderWidth, s.BorderWidth)
			}
			seen[s] = true
		}
	}
	require.Len(t, seen, 4, "each variant should be distinct")
	require.Equal(t, a.SelectedErrorBorder, a.Style(true, StateError).Border)
	require.Equal(t, a.ErrorBackground, a.Style(false, StateError).Background)
}
