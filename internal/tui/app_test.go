package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/otpfield/internal/config"
	"github.com/jask/otpfield/internal/database"
	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/otp"
	"github.com/jask/otpfield/internal/prefs"
	"github.com/jask/otpfield/internal/secrets"
	"github.com/jask/otpfield/internal/service"
)

func testConfig() config.Config {
	return config.Config{
		Field: config.FieldConfig{NumberOfFields: 4, MinimumSpacing: 1, HideIfFilled: true},
	}
}

func newTestApp(t *testing.T, expected string, sources Sources) *App {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	svc := &service.VerificationService{
		Verifier: &service.ExpectedCodeVerifier{Expected: expected},
		Key:      []byte("test-key"),
	}
	return New(context.Background(), testConfig(), Services{Verification: svc}, sources, nil)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collect runs cmd and every command it batches, returning the leaf messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func typeCode(a *App, code string) tea.Cmd {
	var last tea.Cmd
	for _, r := range code {
		_, last = a.Update(runeKey(r))
	}
	return last
}

func TestAppTypingAcceptedCode(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})

	cmd := typeCode(a, "1234")
	require.Equal(t, "1234", a.Field().Code())
	require.True(t, a.busy)
	require.False(t, a.Field().IsFocused())

	verified, ok := find[verifiedMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, verified.err)

	a.Update(verified)
	require.False(t, a.busy)
	require.Equal(t, otp.StateNormal, a.Field().State())
	require.Equal(t, "code accepted", a.status)
}

func TestAppRejectedCodeThenEditClearsError(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})

	verified, ok := find[verifiedMsg](collect(typeCode(a, "1235")))
	require.True(t, ok)
	a.Update(verified)
	require.Equal(t, otp.StateError, a.Field().State())

	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	idx, ok := a.Field().Responder()
	require.True(t, ok)
	require.Equal(t, 3, idx)

	a.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "123", a.Field().Code())
	require.Equal(t, otp.StateNormal, a.Field().State())
}

func TestAppDropsResultAfterReset(t *testing.T) {
	a := newTestApp(t, "9999", Sources{})

	cmd := typeCode(a, "1234")
	a.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, "", a.Field().Code())
	require.False(t, a.busy)

	verified, ok := find[verifiedMsg](collect(cmd))
	require.True(t, ok)
	a.Update(verified)
	require.Equal(t, otp.StateNormal, a.Field().State())
	require.Empty(t, a.status)
}

func TestAppResizeReloadsAndDropsStaleResult(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})

	cmd := typeCode(a, "1234")
	gen := a.Field().Generation()

	_, saveCmd := a.Update(runeKey('+'))
	require.Equal(t, 5, a.Field().Len())
	require.Greater(t, a.Field().Generation(), gen)
	require.Equal(t, "", a.Field().Code())
	idx, ok := a.Field().Responder()
	require.True(t, ok)
	require.Equal(t, 0, idx)

	require.Empty(t, collect(saveCmd))
	saved, found, err := prefs.LoadField()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 5, saved.NumberOfFields)

	verified, ok := find[verifiedMsg](collect(cmd))
	require.True(t, ok)
	a.Update(verified)
	require.Empty(t, a.status)

	a.Update(runeKey('-'))
	a.Update(runeKey('-'))
	require.Equal(t, 3, a.Field().Len())
}

func TestAppResizeStopsAtBounds(t *testing.T) {
	a := newTestApp(t, "1", Sources{})
	for range config.MaxFields + 2 {
		a.Update(runeKey('+'))
	}
	require.Equal(t, config.MaxFields, a.Field().Len())
	for range config.MaxFields + 2 {
		a.Update(runeKey('-'))
	}
	require.Equal(t, config.MinFields, a.Field().Len())
}

func TestAppClipboardAutoFill(t *testing.T) {
	a := newTestApp(t, "4821", Sources{
		Clipboard: func() (string, error) { return "Your code is 4821.", nil },
	})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	clip, ok := find[clipboardMsg](collect(cmd))
	require.True(t, ok)

	_, cmd = a.Update(clip)
	require.Equal(t, "4821", a.Field().Code())
	require.Equal(t, service.SourceClipboard, a.source)
	require.False(t, a.Field().IsAutoFillInProgress())

	verified, ok := find[verifiedMsg](collect(cmd))
	require.True(t, ok)
	a.Update(verified)
	require.Equal(t, "code accepted", a.status)
}

func TestAppClipboardError(t *testing.T) {
	a := newTestApp(t, "1234", Sources{
		Clipboard: func() (string, error) { return "", errors.New("no clipboard") },
	})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	clip, ok := find[clipboardMsg](collect(cmd))
	require.True(t, ok)
	a.Update(clip)
	require.Contains(t, a.status, "no clipboard")
	require.Equal(t, "", a.Field().Code())
}

func TestAppSMSReplacesPartialEntry(t *testing.T) {
	inbox := make(chan string, 1)
	a := newTestApp(t, "7301", Sources{Inbox: inbox})

	a.Update(runeKey('9'))
	require.Equal(t, "9", a.Field().Code())

	_, cmd := a.Update(smsMsg{body: "G-7301 is your verification code"})
	require.Equal(t, "7301", a.Field().Code())
	require.Equal(t, service.SourceSMS, a.source)

	inbox <- "next"
	close(inbox)
	msgs := collect(cmd)
	_, ok := find[verifiedMsg](msgs)
	require.True(t, ok)
	sms, ok := find[smsMsg](msgs)
	require.True(t, ok)
	require.Equal(t, "next", sms.body)
}

func TestAppSMSWithoutCode(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	a.Update(smsMsg{body: "hello there"})
	require.Equal(t, "no code found", a.status)
	require.Equal(t, "", a.Field().Code())
}

func TestAppRejectsNonDigitKeys(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	a.Update(runeKey('x'))
	a.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, "", a.Field().Code())
	idx, ok := a.Field().CurrentIndex()
	require.True(t, ok)
	require.Equal(t, 0, idx)
}

func TestAppFocusKeys(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})

	a.Update(tea.KeyMsg{Type: tea.KeyRight})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	idx, _ := a.Field().Responder()
	require.Equal(t, 2, idx)
	require.True(t, a.Field().Cell(2).IsSelected())

	a.Update(tea.KeyMsg{Type: tea.KeyLeft})
	a.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	a.Update(tea.KeyMsg{Type: tea.KeyLeft})
	idx, _ = a.Field().Responder()
	require.Equal(t, 0, idx)

	a.Update(runeKey('5'))
	require.Equal(t, "5", a.Field().CellText(0))
}

func TestAppMouseClickSelectsCell(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	stride := cellWidth + 1

	a.Update(tea.MouseMsg{
		X: fieldLeft + 2*stride + 1, Y: fieldTop + 1,
		Action: tea.MouseActionPress, Button: tea.MouseButtonLeft,
	})
	idx, ok := a.Field().Responder()
	require.True(t, ok)
	require.Equal(t, 2, idx)
}

func TestCellAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		x, y  int
		index int
		ok    bool
	}{
		{name: "first cell", x: fieldLeft, y: fieldTop, index: 0, ok: true},
		{name: "last column of first cell", x: fieldLeft + cellWidth - 1, y: fieldTop + 2, index: 0, ok: true},
		{name: "gap", x: fieldLeft + cellWidth, y: fieldTop, ok: false},
		{name: "second cell", x: fieldLeft + cellWidth + 1, y: fieldTop, index: 1, ok: true},
		{name: "above", x: fieldLeft, y: fieldTop - 1, ok: false},
		{name: "below", x: fieldLeft, y: fieldTop + cellHeight, ok: false},
		{name: "left margin", x: 0, y: fieldTop, ok: false},
		{name: "past last cell", x: fieldLeft + 4*(cellWidth+1), y: fieldTop, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			index, ok := cellAt(tc.x, tc.y, 4, 1)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.index, index)
			}
		})
	}
}

func TestAppView(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	typeCode(a, "12")
	view := a.View()
	require.Contains(t, view, "Enter the 4-digit code")
	require.Contains(t, view, "1")
	require.Contains(t, view, "2")
	require.Contains(t, view, "no attempts yet")
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
}

func TestAppHistoryShowsRecentAndClearRotatesKey(t *testing.T) {
	a := newTestApp(t, "1234", Sources{})
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "otp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewAttemptRepo(db)
	key, err := secrets.EnsureKey(secrets.DigestKey, secrets.DigestKeySize)
	require.NoError(t, err)
	a.services.Verification.Attempts = repo
	a.services.Verification.SetKey(key)
	a.services.Maintenance = &service.MaintenanceService{DB: db, Attempts: repo}

	verified, ok := find[verifiedMsg](collect(typeCode(a, "1235")))
	require.True(t, ok)
	stats, ok := find[statsMsg](collect(a.handleVerified(verified)))
	require.True(t, ok)
	a.Update(stats)
	require.Equal(t, 1, a.stats.Rejected)
	require.Len(t, a.recent, 1)
	require.Contains(t, a.statsLine(), "✗ manual (off by 1)")

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	cleared, ok := find[historyClearedMsg](collect(cmd))
	require.True(t, ok)
	_, cmd = a.Update(cleared)
	require.Equal(t, "history cleared", a.status)
	stats, ok = find[statsMsg](collect(cmd))
	require.True(t, ok)
	a.Update(stats)
	require.Zero(t, a.stats.Total)
	require.Empty(t, a.recent)

	rotated, err := secrets.FetchKey(secrets.DigestKey)
	require.NoError(t, err)
	require.NotEqual(t, key, rotated)
	require.Equal(t, rotated, a.services.Verification.Key)
}
