package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/dutyflow/internal/access"
	"github.com/kingrea/dutyflow/internal/dashboard"
	"github.com/kingrea/dutyflow/internal/storage"
)

// ThemeKey is the storage key holding the chosen theme name.
const ThemeKey = "theme"

const (
	navWidth       = 24
	defaultWidth   = 110
	logPanelHeight = 8
)

type theme struct {
	name    string
	accent  lipgloss.Color
	muted   lipgloss.Color
	danger  lipgloss.Color
	heading lipgloss.Style
	label   lipgloss.Style
	box     lipgloss.Style
	card    lipgloss.Style
	button  lipgloss.Style
	idle    lipgloss.Style
}

func newTheme(name string, accent, muted, danger, fg lipgloss.Color) theme {
	return theme{
		name:    name,
		accent:  accent,
		muted:   muted,
		danger:  danger,
		heading: lipgloss.NewStyle().Bold(true).Foreground(accent),
		label:   lipgloss.NewStyle().Bold(true).Foreground(fg),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			Width(30),
		button: lipgloss.NewStyle().Foreground(accent).Bold(true),
		idle:   lipgloss.NewStyle().Foreground(muted),
	}
}

var (
	darkTheme  = newTheme("dark", lipgloss.Color("#7D56F4"), lipgloss.Color("#626262"), lipgloss.Color("#FF6B6B"), lipgloss.Color("#FAFAFA"))
	lightTheme = newTheme("light", lipgloss.Color("#0369A1"), lipgloss.Color("#94A3B8"), lipgloss.Color("#DC2626"), lipgloss.Color("#1E293B"))
)

func themeByName(name string) theme {
	if strings.EqualFold(strings.TrimSpace(name), "light") {
		return lightTheme
	}
	return darkTheme
}

func (a *App) loadTheme() tea.Cmd {
	port := a.deps.Storage
	if port == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		data, err := port.Read(ctx, ThemeKey)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				a.deps.Log.Warn().Err(err).Msg("theme unreadable")
			}
			return themeLoadedMsg{}
		}
		return themeLoadedMsg{name: string(data)}
	}
}

// toggleTheme flips dark/light and persists the choice.
func (a *App) toggleTheme() tea.Cmd {
	if a.theme.name == "dark" {
		a.theme = lightTheme
	} else {
		a.theme = darkTheme
	}
	a.logInfo("Theme · %s", a.theme.name)
	port := a.deps.Storage
	if port == nil {
		return nil
	}
	name := a.theme.name
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		if err := port.Write(ctx, ThemeKey, []byte(name)); err != nil {
			a.deps.Log.Warn().Err(err).Msg("theme not persisted")
		}
		return nil
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width == 0 {
		width = defaultWidth
	}

	switch a.state {
	case stateRestoring:
		return a.spinner.View() + " Loading…"
	case stateLogin:
		return a.renderLogin(width)
	}

	header := a.renderHeader()
	contentWidth := max(30, width-navWidth-6)
	left := a.theme.box.Width(navWidth).Render(a.nav.View())
	right := a.theme.box.Width(contentWidth).Render(a.renderContent(contentWidth - 2))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.renderFooter())
}

func (a *App) renderHeader() string {
	title := a.theme.heading.Render("⬡ DUTYFLOW")
	who := ""
	if cur, ok := a.deps.Session.Current(); ok {
		who = fmt.Sprintf("  %s (%s)", cur.Email, cur.Role.Title())
	}
	return title + a.theme.idle.Render(who) + "\n"
}

func (a *App) renderLogin(width int) string {
	var b strings.Builder
	b.WriteString(a.theme.heading.Render("⬡ DUTYFLOW"))
	b.WriteString("\n\n")
	b.WriteString(a.theme.label.Render("Log in"))
	b.WriteString("\n")
	b.WriteString(a.theme.idle.Render("Paste the access token issued to you and press enter."))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	if a.pending > 0 {
		b.WriteString("\n" + a.spinner.View() + " Signing in…")
	}
	if a.loginErr != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(a.theme.danger).Render(a.loginErr))
	}
	if a.statusMsg != "" {
		b.WriteString("\n" + a.statusMsg)
	}
	b.WriteString("\n\n" + a.theme.idle.Render("[enter] log in  [esc] quit"))
	return a.theme.box.Width(min(width-4, 80)).Render(b.String())
}

func (a *App) renderContent(width int) string {
	switch a.section {
	case access.SectionDashboard:
		return a.renderDashboard()
	case access.SectionIssues:
		return a.renderIssues()
	case access.SectionLogs:
		return a.renderLogPanel(0)
	case access.SectionPalettes:
		return a.palettes.View(width)
	}
	return a.theme.heading.Render(sectionLabel(a.section)) + "\n\nNot implemented yet"
}

func (a *App) renderDashboard() string {
	snap := a.deps.Dashboard.Snapshot()
	role := a.deps.Session.Role()
	var b strings.Builder

	b.WriteString(a.theme.heading.Render("Duty Dashboard"))
	b.WriteString("\n\n")

	switch {
	case snap.State == dashboard.StateError && !snap.HasStatus:
		b.WriteString(lipgloss.NewStyle().Foreground(a.theme.danger).Render("⚠ Error loading data"))
		b.WriteString("\n" + a.theme.idle.Render(snap.Error))
		b.WriteString("\n")
	case !snap.HasStatus:
		b.WriteString(a.spinner.View() + " Loading…\n")
	default:
		currentDate, nextDate := dashboard.DutyDates(a.clock())
		cards := []string{
			a.renderCard("Current Duty", snap.Status.CurrentDuty.DisplayName(), dashboard.FormatDate(currentDate)),
			a.renderCard("Next in Rotation", snap.Status.NextInRotation.DisplayName(), dashboard.FormatDate(nextDate)),
			a.renderCard("System Status", "Last reminder run:", snap.Status.SystemStatus.LastReminderRun.Display()),
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderActions(snap, role))

	if access.Can(role, access.ActionSendCustomReminder) {
		b.WriteString("\n\n")
		b.WriteString(a.theme.label.Render("Custom reminder"))
		b.WriteString("\n")
		b.WriteString(a.composer.View())
		if a.composing {
			b.WriteString("\n" + a.theme.idle.Render("[ctrl+s] send  [esc] close"))
		}
	} else {
		b.WriteString("\n\n")
		b.WriteString(a.theme.idle.Render("Read-only access: rotation controls are hidden for your role."))
	}
	return b.String()
}

func (a *App) renderCard(title, primary, secondary string) string {
	body := a.theme.idle.Render(title) + "\n" + a.theme.label.Render(primary) + "\n" + secondary
	return a.theme.card.Render(body)
}

// renderActions draws only the controls role is allowed to use. Controls are
// dimmed while a request is in flight or the data is not loaded.
func (a *App) renderActions(snap dashboard.Snapshot, role access.Role) string {
	var buttons []string
	for _, action := range access.VisibleActions(role) {
		caption := fmt.Sprintf("[%s] %s", actionKey(action), action.Label())
		enabled := !snap.Busy && (!action.Mutating() || snap.State == dashboard.StateReady)
		if enabled {
			buttons = append(buttons, a.theme.button.Render(caption))
		} else {
			buttons = append(buttons, a.theme.idle.Render(caption))
		}
	}
	row := strings.Join(buttons, "   ")
	if snap.Busy {
		row += "   " + a.spinner.View()
	}
	return row
}

func (a *App) renderIssues() string {
	var b strings.Builder
	b.WriteString(a.theme.heading.Render("Issue Tracker"))
	b.WriteString("\n\n")
	switch {
	case a.pending > 0 && !a.issuesLoaded:
		b.WriteString(a.spinner.View() + " Loading…")
	case a.issuesErr != "":
		b.WriteString(lipgloss.NewStyle().Foreground(a.theme.danger).Render("⚠ " + a.issuesErr))
	case len(a.issues) == 0:
		b.WriteString(a.theme.idle.Render("No issues reported."))
	default:
		for _, issue := range a.issues {
			fmt.Fprintf(&b, "%s  %s\n", a.theme.label.Render(issue.Title), a.theme.idle.Render(orNA(issue.Status)))
			if issue.Description != "" {
				b.WriteString("  " + issue.Description + "\n")
			}
			fmt.Fprintf(&b, "  %s · %s\n", orNA(issue.ReportedBy), issue.CreatedAt.Display())
		}
	}
	b.WriteString("\n\n" + a.theme.idle.Render("[r] refresh"))
	return b.String()
}

// renderLogPanel shows the tail of the activity log. maxLines <= 0 uses the
// default panel height.
func (a *App) renderLogPanel(maxLines int) string {
	if maxLines <= 0 {
		maxLines = logPanelHeight * 2
	}
	var b strings.Builder
	b.WriteString(a.theme.heading.Render("Activity"))
	b.WriteString("\n\n")
	if a.deps.Logbook == nil {
		b.WriteString(a.theme.idle.Render("Logging unavailable."))
		return b.String()
	}
	lines, total := a.deps.Logbook.Tail(maxLines)
	if total == 0 {
		b.WriteString(a.theme.idle.Render("No activity yet."))
		return b.String()
	}
	if total > len(lines) {
		b.WriteString(a.theme.idle.Render(fmt.Sprintf("… %d earlier entries", total-len(lines))))
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (a *App) renderFooter() string {
	var parts []string
	if n, ok := a.deps.Notices.Last(); ok {
		text := n.Title
		if n.Description != "" {
			text += ": " + n.Description
		}
		style := a.theme.button
		if n.IsError() {
			style = lipgloss.NewStyle().Foreground(a.theme.danger).Bold(true)
		}
		parts = append(parts, style.Render(text))
	}
	if a.statusMsg != "" {
		parts = append(parts, a.statusMsg)
	}
	parts = append(parts, a.theme.idle.Render("[tab] focus  [enter] open  [t] theme  [ctrl+l] log out  [q] quit"))
	return strings.Join(parts, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
