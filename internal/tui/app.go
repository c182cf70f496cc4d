package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/otpfield/internal/config"
	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/input"
	"github.com/jask/otpfield/internal/otp"
	"github.com/jask/otpfield/internal/prefs"
	"github.com/jask/otpfield/internal/service"
)

// App hosts one OTP field: it feeds keys and auto-fill sources into the
// coordinator, verifies filled codes behind a spinner and paints the result
// back onto the field.
type App struct {
	ctx      context.Context
	services Services
	sources  Sources
	log      *slog.Logger

	field   *otp.Coordinator
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	pending []fieldEvent
	source  service.Source

	busy         bool
	attempt      int
	cancelVerify context.CancelFunc

	status string
	stats  repository.AttemptStats
	recent []repository.Attempt
	width  int
	height int
}

const recentAttempts = 3

type Services struct {
	Verification *service.VerificationService
	Maintenance  *service.MaintenanceService
}

type Sources struct {
	Clipboard input.ClipboardReader
	// Inbox yields SMS bodies; nil disables SMS auto-fill.
	Inbox <-chan string
}

type eventKind int

const (
	eventChanged eventKind = iota
	eventFilled
)

type fieldEvent struct {
	kind  eventKind
	char  string
	index int
	code  string
}

func New(ctx context.Context, cfg config.Config, services Services, sources Sources, log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if sources.Clipboard == nil {
		sources.Clipboard = input.ReadClipboard
	}

	field := otp.NewCoordinator()
	field.NumberOfFields = cfg.Field.NumberOfFields
	field.MinimumSpacing = cfg.Field.MinimumSpacing
	field.ShouldHideIfFilled = cfg.Field.HideIfFilled

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	a := &App{
		ctx:      ctx,
		services: services,
		sources:  sources,
		log:      log,
		field:    field,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
		source:   service.SourceManual,
	}
	field.SetDelegate(a)
	field.Reset(true)
	return a
}

// Field exposes the coordinator for tests and embedding hosts.
func (a *App) Field() *otp.Coordinator { return a.field }

// CharacterChanged queues the event; it is handled once the coordinator call
// that produced it has returned.
func (a *App) CharacterChanged(_ *otp.Coordinator, char string, index int) {
	a.pending = append(a.pending, fieldEvent{kind: eventChanged, char: char, index: index})
}

func (a *App) Filled(_ *otp.Coordinator, code string) {
	a.pending = append(a.pending, fieldEvent{kind: eventFilled, code: code})
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadStats(), a.waitForSMS())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case tea.MouseMsg:
		return a.handleMouse(m)
	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case verifiedMsg:
		return a, a.handleVerified(m)
	case clipboardMsg:
		if m.err != nil {
			a.status = "clipboard: " + m.err.Error()
			return a, nil
		}
		return a, a.autoFill(m.text, service.SourceClipboard)
	case smsMsg:
		return a, tea.Batch(a.autoFill(m.body, service.SourceSMS), a.waitForSMS())
	case statsMsg:
		a.stats, a.recent = m.stats, m.recent
		return a, nil
	case historyClearedMsg:
		a.status = "history cleared"
		return a, a.loadStats()
	case errMsg:
		a.log.Warn("background task", "err", m.err)
		a.status = m.err.Error()
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		a.cancelVerification()
		return a, tea.Quit
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(m, a.keys.Reset):
		a.reset()
		return a, nil
	case key.Matches(m, a.keys.Paste):
		return a, a.readClipboard()
	case key.Matches(m, a.keys.More):
		return a, a.resize(1)
	case key.Matches(m, a.keys.Fewer):
		return a, a.resize(-1)
	case key.Matches(m, a.keys.ClearHistory):
		return a, a.clearHistory()
	case key.Matches(m, a.keys.Next):
		a.moveFocus(1)
		return a, nil
	case key.Matches(m, a.keys.Prev):
		a.moveFocus(-1)
		return a, nil
	case key.Matches(m, a.keys.Edit):
		a.reopen()
		return a, nil
	}

	if m.Paste {
		return a, a.autoFill(string(m.Runes), service.SourceClipboard)
	}

	ks, ok := input.Translate(m)
	if !ok {
		return a, nil
	}
	a.source = service.SourceManual
	action, err := input.Deliver(a.field, ks)
	if err != nil {
		a.log.Debug("keystroke dropped", "key", m.String(), "err", err)
	} else {
		a.log.Debug("keystroke", "key", m.String(), "action", action.String())
	}
	return a, a.drain()
}

func (a *App) handleMouse(m tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.Action != tea.MouseActionPress || m.Button != tea.MouseButtonLeft {
		return a, nil
	}
	if index, ok := cellAt(m.X, m.Y, a.field.Len(), a.field.MinimumSpacing); ok {
		a.field.BeginEditing(index)
	}
	return a, nil
}

// moveFocus steps the responder, or the current index when the keyboard is
// hidden.
func (a *App) moveFocus(delta int) {
	index, ok := a.field.Responder()
	if !ok {
		index, ok = a.field.CurrentIndex()
	}
	if !ok {
		index = 0
		delta = 0
	}
	next := min(max(index+delta, 0), a.field.Len()-1)
	a.field.Focus(next)
}

// reopen hands the keyboard back to the field after it was hidden, like a tap
// on the last cell.
func (a *App) reopen() {
	if a.field.IsFocused() {
		return
	}
	index, ok := a.field.CurrentIndex()
	if !ok {
		index = min(len(a.field.Code()), a.field.Len()-1)
	}
	a.field.BeginEditing(index)
}

// drain handles the delegate events queued by the last coordinator call.
func (a *App) drain() tea.Cmd {
	events := a.pending
	a.pending = nil

	var cmds []tea.Cmd
	for _, ev := range events {
		switch ev.kind {
		case eventChanged:
			a.log.Debug("character changed", "char", ev.char, "index", ev.index)
			a.field.SetState(otp.StateNormal)
			a.status = ""
		case eventFilled:
			a.log.Info("code filled", "source", string(a.source), "cells", len(ev.code))
			cmds = append(cmds, a.startVerification(ev.code))
		}
	}
	return tea.Batch(cmds...)
}

func (a *App) startVerification(code string) tea.Cmd {
	a.cancelVerification()
	if a.services.Verification == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelVerify = cancel
	a.busy = true
	a.attempt++
	a.status = "verifying…"
	return tea.Batch(a.spinner.Tick, a.verifyCmd(ctx, code, a.source, a.field.Generation(), a.attempt))
}

func (a *App) verifyCmd(ctx context.Context, code string, src service.Source, generation uint64, attempt int) tea.Cmd {
	svc := a.services.Verification
	return func() tea.Msg {
		res, err := svc.Verify(ctx, code, src, generation)
		return verifiedMsg{generation: generation, attempt: attempt, result: res, err: err}
	}
}

// handleVerified applies a verification result unless the field was rebuilt
// or another verification started since.
func (a *App) handleVerified(m verifiedMsg) tea.Cmd {
	if m.generation != a.field.Generation() || m.attempt != a.attempt {
		a.log.Debug("stale verification dropped", "generation", m.generation, "attempt", m.attempt)
		return nil
	}
	if errors.Is(m.err, context.Canceled) {
		return nil
	}
	a.busy = false
	a.cancelVerify = nil
	if m.err != nil {
		a.log.Warn("verification failed", "err", m.err)
		a.status = "verification failed: " + m.err.Error()
		return nil
	}
	if m.result.Verdict.OK {
		a.field.SetState(otp.StateNormal)
		a.status = "code accepted"
	} else {
		a.field.SetState(otp.StateError)
		a.status = "code rejected"
	}
	return a.loadStats()
}

// cancelVerification stops the in-flight check; its result, if it still
// arrives, no longer matches the attempt counter.
func (a *App) cancelVerification() {
	if a.cancelVerify != nil {
		a.cancelVerify()
		a.cancelVerify = nil
		a.attempt++
	}
	a.busy = false
}

func (a *App) reset() {
	a.cancelVerification()
	a.pending = nil
	a.source = service.SourceManual
	a.status = ""
	a.field.Reset(true)
}

// resize changes the number of cells, rebuilds the field and remembers the
// choice.
func (a *App) resize(delta int) tea.Cmd {
	n := min(max(a.field.NumberOfFields+delta, config.MinFields), config.MaxFields)
	if n == a.field.NumberOfFields {
		return nil
	}
	a.cancelVerification()
	a.field.NumberOfFields = n
	a.field.Reload()
	a.reset()
	a.log.Info("field reloaded", "cells", n, "generation", a.field.Generation())
	return func() tea.Msg {
		if err := prefs.SaveField(prefs.Field{NumberOfFields: n}); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// autoFill pulls a code out of text and replays it as a platform fill.
func (a *App) autoFill(text string, src service.Source) tea.Cmd {
	code, ok := input.ExtractCode(text, a.field.Len())
	if !ok {
		a.status = "no code found"
		a.log.Debug("autofill without code", "source", string(src))
		return nil
	}
	err := input.AutoFill(a.field, code)
	if errors.Is(err, input.ErrTargetNotEmpty) {
		a.reset()
		err = input.AutoFill(a.field, code)
	}
	a.source = src
	if err != nil {
		a.log.Warn("autofill", "source", string(src), "err", err)
		a.status = err.Error()
	}
	return a.drain()
}

func (a *App) readClipboard() tea.Cmd {
	read := a.sources.Clipboard
	return func() tea.Msg {
		text, err := read()
		return clipboardMsg{text: text, err: err}
	}
}

func (a *App) waitForSMS() tea.Cmd {
	ch := a.sources.Inbox
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		body, ok := <-ch
		if !ok {
			return nil
		}
		return smsMsg{body: body}
	}
}

func (a *App) loadStats() tea.Cmd {
	svc := a.services.Verification
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := svc.Stats(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		recent, err := svc.Recent(a.ctx, recentAttempts)
		if err != nil {
			return errMsg{err}
		}
		return statsMsg{stats: s, recent: recent}
	}
}

// clearHistory wipes the recorded attempts and rotates the digest key so the
// old digests cannot be linked to future codes.
func (a *App) clearHistory() tea.Cmd {
	m := a.services.Maintenance
	if m == nil {
		return nil
	}
	v := a.services.Verification
	return func() tea.Msg {
		if err := m.Reset(a.ctx); err != nil {
			return errMsg{err}
		}
		if v != nil {
			if err := v.RotateKey(); err != nil {
				return errMsg{err}
			}
		}
		return historyClearedMsg{}
	}
}
