// Package tui is the terminal presentation layer: login, signup, the day
// dashboard, and the category breakdown view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/ledger"
	"example.com/dayledger/internal/session"
)

type mode int

const (
	modeLogin mode = iota
	modeSignup
	modeDashboard
	modeBreakdown
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A90E2")).
			Bold(true)

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#44475A"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))
)

type field struct {
	label  string
	value  string
	secret bool
}

type authDoneMsg struct{ err error }

type opDoneMsg struct{ err error }

// Model is the bubbletea model driving the whole client.
type Model struct {
	ctx     context.Context
	auth    *identity.Client
	manager *session.Manager
	state   *ViewState

	mode     mode
	fields   []field
	focus    int
	selected int
	authBusy bool

	snapshot Snapshot
	width    int
	height   int
}

// NewModel builds the initial model. The manager must already be started so
// a replayed signed-in principal lands the user on the dashboard.
func NewModel(ctx context.Context, auth *identity.Client, manager *session.Manager, state *ViewState) Model {
	m := Model{
		ctx:     ctx,
		auth:    auth,
		manager: manager,
		state:   state,
	}
	if manager.Session() != nil {
		m.enterDashboard()
	} else {
		m.enterLogin()
	}
	return m
}

// Run starts the program and blocks until it exits.
func Run(ctx context.Context, auth *identity.Client, manager *session.Manager, state *ViewState) error {
	program := tea.NewProgram(NewModel(ctx, auth, manager, state), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) enterLogin() {
	m.mode = modeLogin
	m.focus = 0
	m.fields = []field{
		{label: "Email"},
		{label: "Password", secret: true},
	}
}

func (m *Model) enterSignup() {
	m.mode = modeSignup
	m.focus = 0
	m.fields = []field{
		{label: "Name"},
		{label: "Email"},
		{label: "Password", secret: true},
		{label: "Confirm password", secret: true},
	}
}

func (m *Model) enterDashboard() {
	m.mode = modeDashboard
	m.focus = 1
	m.selected = 0
	date := ""
	if s := m.manager.Session(); s != nil {
		date = s.Date()
	}
	m.fields = []field{
		{label: "Date", value: date},
		{label: "Activity"},
		{label: "Category"},
		{label: "Minutes"},
	}
	m.snapshot = m.state.Snapshot()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case authDoneMsg:
		m.authBusy = false
		if msg.err == nil {
			m.state.ClearMessage()
			m.enterDashboard()
		} else {
			m.state.ShowError(msg.err)
		}
		m.snapshot = m.state.Snapshot()
		return m, nil
	case opDoneMsg:
		m.syncForm()
		m.snapshot = m.state.Snapshot()
		m.clampSelection()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeLogin, modeSignup:
		return m.handleAuthKey(msg)
	case modeDashboard:
		return m.handleDashboardKey(msg)
	case modeBreakdown:
		switch msg.String() {
		case "esc", "b", "q":
			m.mode = modeDashboard
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.fields)
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.fields)) % len(m.fields)
		return m, nil
	case "ctrl+s":
		if m.mode == modeLogin {
			m.enterSignup()
		} else {
			m.enterLogin()
		}
		m.state.ClearMessage()
		m.snapshot = m.state.Snapshot()
		return m, nil
	case "enter":
		return m.submitAuth()
	case "backspace":
		m.editFocused(trimLastRune)
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		runes := string(msg.Runes)
		m.editFocused(func(v string) string { return v + runes })
	}
	return m, nil
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	if m.mode == modeSignup {
		name, email := m.fields[0].value, m.fields[1].value
		password, confirm := m.fields[2].value, m.fields[3].value
		if password != confirm {
			m.state.ShowError(fmt.Errorf("passwords do not match"))
			m.snapshot = m.state.Snapshot()
			return m, nil
		}
		m.authBusy = true
		return m, func() tea.Msg {
			_, err := m.auth.SignUp(m.ctx, name, email, password)
			return authDoneMsg{err: err}
		}
	}

	email, password := m.fields[0].value, m.fields[1].value
	m.authBusy = true
	return m, func() tea.Msg {
		_, err := m.auth.SignIn(m.ctx, email, password)
		return authDoneMsg{err: err}
	}
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.manager.Session()
	if s == nil {
		m.enterLogin()
		return m, nil
	}

	// A mutation round trip is in flight: swallow keys that would start
	// another one or move the editing cursor under it. The controller's
	// busy claim is the authoritative guard; this mirrors it in the UI.
	if s.Busy() {
		switch msg.String() {
		case "enter", "ctrl+e", "ctrl+d", "esc":
			return m, nil
		}
	}

	switch msg.String() {
	case "tab":
		m.focus = (m.focus + 1) % len(m.fields)
		return m, nil
	case "shift+tab":
		m.focus = (m.focus - 1 + len(m.fields)) % len(m.fields)
		return m, nil
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.snapshot.Entries)-1 {
			m.selected++
		}
		return m, nil
	case "esc":
		s.CancelEdit()
		m.syncForm()
		return m, nil
	case "ctrl+e":
		if entry, ok := m.selectedEntry(); ok {
			s.StartEdit(entry.ID)
			m.syncForm()
			m.focus = 1
		}
		return m, nil
	case "ctrl+d":
		if entry, ok := m.selectedEntry(); ok {
			id := entry.ID
			return m, func() tea.Msg {
				return opDoneMsg{err: s.Delete(m.ctx, id)}
			}
		}
		return m, nil
	case "ctrl+b":
		if m.snapshot.Totals.Complete() {
			m.mode = modeBreakdown
		} else {
			m.state.ShowError(fmt.Errorf("log all %d minutes to analyze the day", ledger.FullDayMinutes))
			m.snapshot = m.state.Snapshot()
		}
		return m, nil
	case "ctrl+o":
		m.auth.SignOut()
		m.state.ClearMessage()
		m.enterLogin()
		m.snapshot = m.state.Snapshot()
		return m, nil
	case "enter":
		if m.focus == 0 {
			date := m.fields[0].value
			return m, func() tea.Msg {
				return opDoneMsg{err: s.SetDate(m.ctx, date)}
			}
		}
		title, category, minutes := m.fields[1].value, m.fields[2].value, m.fields[3].value
		return m, func() tea.Msg {
			return opDoneMsg{err: s.Submit(m.ctx, title, category, minutes)}
		}
	case "backspace":
		m.editFocused(trimLastRune)
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		runes := string(msg.Runes)
		m.editFocused(func(v string) string { return v + runes })
	}
	return m, nil
}

func (m *Model) editFocused(edit func(string) string) {
	if m.focus >= 0 && m.focus < len(m.fields) {
		m.fields[m.focus].value = edit(m.fields[m.focus].value)
	}
}

// trimLastRune drops the final rune, not the final byte.
func trimLastRune(v string) string {
	if v == "" {
		return v
	}
	_, size := utf8.DecodeLastRuneInString(v)
	return v[:len(v)-size]
}

// maskSecret replaces each rune with a dot.
func maskSecret(v string) string {
	return strings.Repeat("•", utf8.RuneCountInString(v))
}

func (m *Model) selectedEntry() (ledger.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Entries) {
		return ledger.Entry{}, false
	}
	return m.snapshot.Entries[m.selected], true
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snapshot.Entries) {
		m.selected = len(m.snapshot.Entries) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// syncForm applies any pending controller form instruction to the input
// fields: a prefill when an edit starts, a reset when one ends.
func (m *Model) syncForm() {
	prefill, reset := m.state.TakeForm()
	if prefill != nil && m.mode == modeDashboard {
		m.fields[1].value = prefill.Title
		m.fields[2].value = prefill.Category
		m.fields[3].value = fmt.Sprintf("%d", int(prefill.Minutes))
	} else if reset && m.mode == modeDashboard {
		m.fields[1].value = ""
		m.fields[2].value = ""
		m.fields[3].value = ""
	}
}

func (m Model) View() string {
	switch m.mode {
	case modeLogin, modeSignup:
		return m.viewAuth()
	case modeBreakdown:
		return m.viewBreakdown()
	default:
		return m.viewDashboard()
	}
}

func (m Model) viewAuth() string {
	var b strings.Builder

	heading := "Log in"
	action := "enter: log in · ctrl+s: go to sign up"
	if m.mode == modeSignup {
		heading = "Create account"
		action = "enter: create account · ctrl+s: back to log in"
	}
	b.WriteString(titleStyle.Render("Day Ledger — "+heading) + "\n\n")

	for i, f := range m.fields {
		value := f.value
		if f.secret {
			value = maskSecret(value)
		}
		line := fmt.Sprintf("%-18s %s", f.label+":", value)
		if i == m.focus {
			line = focusedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if m.authBusy {
		b.WriteString("\n" + dimStyle.Render("Signing in...") + "\n")
	}
	b.WriteString("\n" + m.statusLine() + "\n")
	b.WriteString(dimStyle.Render(action+" · ctrl+c: quit") + "\n")

	return boxStyle.Render(b.String())
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	snap := m.snapshot

	email := ""
	if p := m.auth.Current(); p != nil {
		email = p.Email
	}
	b.WriteString(titleStyle.Render("Day Ledger") + "  " + dimStyle.Render(email) + "\n\n")

	for i, f := range m.fields {
		line := fmt.Sprintf("%-10s %s", f.label+":", f.value)
		if i == m.focus {
			line = focusedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	editing := ""
	if s := m.manager.Session(); s != nil && s.EditingID() != "" {
		editing = "  " + noticeStyle.Render("(editing — enter saves changes, esc cancels)")
	}
	b.WriteString(editing + "\n")

	b.WriteString(labelStyle.Render(fmt.Sprintf("  %-24s %-16s %8s", "Activity", "Category", "Minutes")) + "\n")
	if len(snap.Entries) == 0 {
		b.WriteString(dimStyle.Render("  No activities yet") + "\n")
	}
	for i, entry := range snap.Entries {
		category := entry.Activity.Category
		if category == "" {
			category = "-"
		}
		row := fmt.Sprintf("  %-24s %-16s %8d", entry.Activity.Title, category, int(entry.Activity.Minutes))
		if i == m.selected {
			row = selectedRowStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}

	totals := snap.Totals
	summary := fmt.Sprintf("\nTotal: %d min · Remaining: %d min · Activities: %d",
		totals.TotalMinutes, totals.Remaining(), totals.ActivityCount)
	b.WriteString(summary + "\n")
	if totals.Complete() {
		b.WriteString(noticeStyle.Render("Day complete — ctrl+b shows the category breakdown") + "\n")
	} else {
		b.WriteString(dimStyle.Render("Breakdown unlocks when the day sums to 1440 minutes") + "\n")
	}

	if snap.Busy {
		b.WriteString(dimStyle.Render("Saving...") + "\n")
	}
	b.WriteString("\n" + m.statusLine() + "\n")
	b.WriteString(dimStyle.Render("tab: next field · enter: save · ctrl+e: edit · ctrl+d: delete · ctrl+o: log out · ctrl+c: quit") + "\n")

	return b.String()
}

func (m Model) viewBreakdown() string {
	var b strings.Builder
	totals := m.snapshot.Totals

	b.WriteString(titleStyle.Render("Category breakdown") + "\n\n")

	barWidth := m.width - 40
	if barWidth < 20 {
		barWidth = 20
	}
	for _, cat := range totals.Categories {
		share := 0.0
		if totals.TotalMinutes > 0 {
			share = float64(cat.Minutes) / float64(totals.TotalMinutes)
		}
		filled := int(share * float64(barWidth))
		bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
		b.WriteString(fmt.Sprintf("%-16s %s %4d min (%.0f%%)\n", cat.Name, bar, cat.Minutes, share*100))
	}

	b.WriteString("\n" + dimStyle.Render("esc: back") + "\n")
	return boxStyle.Render(b.String())
}

func (m Model) statusLine() string {
	if m.snapshot.Message == "" {
		return ""
	}
	if m.snapshot.IsError {
		return errorStyle.Render(m.snapshot.Message)
	}
	return noticeStyle.Render(m.snapshot.Message)
}
