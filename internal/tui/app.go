// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for DutyFlow.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// Anything that blocks (HTTP, storage) runs inside a tea.Cmd and reports
// back with one of the *Msg types below.

package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/access"
	"github.com/kingrea/dutyflow/internal/dashboard"
	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/logbook"
	"github.com/kingrea/dutyflow/internal/notify"
	"github.com/kingrea/dutyflow/internal/palette"
	"github.com/kingrea/dutyflow/internal/rotation"
	"github.com/kingrea/dutyflow/internal/session"
	"github.com/kingrea/dutyflow/internal/storage"
)

// appState represents which "screen" we're on
type appState int

const (
	stateRestoring appState = iota // Reading the persisted session
	stateLogin                     // Token prompt
	stateMain                      // Sidebar + section content
)

type focusArea int

const (
	focusNav focusArea = iota
	focusContent
)

// inputMode says what the single-line input is collecting, if anything.
type inputMode int

const (
	inputNone inputMode = iota
	inputToken
	inputKeywords
	inputPaletteName
)

const defaultRequestTimeout = 30 * time.Second

// IssueSource lists the public issue feed.
type IssueSource interface {
	PublicIssues(ctx context.Context) ([]rotation.Issue, error)
}

// Deps are the collaborators the TUI drives. Session and Dashboard are
// required; the rest may be nil and their screens degrade to a notice.
type Deps struct {
	Session   *session.Store
	Dashboard *dashboard.Controller
	Issues    IssueSource
	Palettes  *palette.Workbench
	Storage   storage.Port
	Logbook   *logbook.Logbook
	Notices   *notify.Recorder
	Log       zerolog.Logger
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the clock used for duty dates.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithTheme sets the starting theme when none is persisted.
func WithTheme(name string) AppOption {
	return func(a *App) {
		a.theme = themeByName(name)
	}
}

// WithRequestTimeout bounds every command's context.
func WithRequestTimeout(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

type restoreMsg struct{ err error }

type loginMsg struct {
	sess session.Session
	err  error
}

type dashboardMsg struct {
	action access.Action
	err    error
}

type issuesMsg struct {
	issues []rotation.Issue
	err    error
}

type paletteMsg struct {
	op  string
	err error
}

type themeLoadedMsg struct{ name string }

// navItem implements list.Item for the sidebar.
type navItem struct {
	item access.NavItem
}

func (i navItem) Title() string       { return i.item.Label }
func (i navItem) Description() string { return string(i.item.Path) }
func (i navItem) FilterValue() string { return i.item.Label }

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	focus   focusArea
	section access.Section
	deps    Deps
	clock   func() time.Time
	timeout time.Duration
	theme   theme

	// UI components
	nav       list.Model
	input     textinput.Model
	inputMode inputMode
	composer  textarea.Model
	composing bool
	spinner   spinner.Model
	pending   int

	statusMsg string
	loginErr  string

	issues       []rotation.Issue
	issuesLoaded bool
	issuesErr    string

	palettes *paletteView

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(deps Deps, opts ...AppOption) *App {
	nav := list.New(nil, list.NewDefaultDelegate(), 24, 20)
	nav.Title = "Navigate"
	nav.SetShowStatusBar(false)
	nav.SetFilteringEnabled(false)
	nav.SetShowHelp(false)

	input := textinput.New()
	input.CharLimit = 4096
	input.Width = 60

	composer := textarea.New()
	composer.Placeholder = "Enter your custom reminder message here..."
	composer.SetWidth(60)
	composer.SetHeight(3)
	composer.ShowLineNumbers = false

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	if deps.Notices == nil {
		deps.Notices = notify.NewRecorder()
	}

	app := &App{
		state:    stateRestoring,
		focus:    focusNav,
		section:  access.SectionDashboard,
		deps:     deps,
		clock:    time.Now,
		timeout:  defaultRequestTimeout,
		theme:    darkTheme,
		nav:      nav,
		input:    input,
		composer: composer,
		spinner:  spin,
	}
	app.palettes = newPaletteView(app)
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

func (a *App) logInfo(format string, args ...any) {
	if a.deps.Logbook == nil {
		return
	}
	a.deps.Logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.deps.Logbook == nil {
		return
	}
	a.deps.Logbook.Warn(format, args...)
}

func (a *App) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadTheme(), a.restoreSession())
}

func (a *App) restoreSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		return restoreMsg{err: a.deps.Session.Restore(ctx)}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.nav.SetSize(navWidth, max(5, msg.Height-10))
		a.composer.SetWidth(max(20, msg.Width-navWidth-12))
		return a, nil

	case themeLoadedMsg:
		if msg.name != "" {
			a.theme = themeByName(msg.name)
		}
		return a, nil

	case restoreMsg:
		if msg.err != nil {
			a.deps.Log.Error().Err(msg.err).Msg("session restore failed")
			a.statusMsg = "Could not read the saved session."
		}
		if a.deps.Session.IsAuthenticated() {
			return a.enterMain()
		}
		return a.showLogin("")

	case loginMsg:
		a.pending--
		if msg.err != nil {
			a.loginErr = failure.Message(msg.err)
			a.logWarn("Login rejected · %s", a.loginErr)
			return a.showLogin(a.loginErr)
		}
		a.logInfo("Logged in · %s (%s)", msg.sess.Email, msg.sess.Role.Title())
		return a.enterMain()

	case dashboardMsg:
		a.pending--
		if msg.err != nil {
			switch failure.KindOf(msg.err) {
			case failure.KindBusy:
				a.statusMsg = "Busy… please wait for the current request."
			case failure.KindValidation, failure.KindNotReady:
				a.statusMsg = failure.Message(msg.err)
			default:
				a.statusMsg = ""
			}
		} else {
			a.statusMsg = ""
			if msg.action == access.ActionSendCustomReminder {
				a.composer.Reset()
				a.composer.Blur()
				a.composing = false
			}
		}
		return a, nil

	case issuesMsg:
		a.pending--
		a.issuesLoaded = true
		if msg.err != nil {
			a.issues = nil
			a.issuesErr = failure.Message(msg.err)
			a.logWarn("Issues unavailable · %s", a.issuesErr)
		} else {
			a.issues = msg.issues
			a.issuesErr = ""
		}
		return a, nil

	case paletteMsg:
		a.pending--
		if msg.err == nil {
			a.statusMsg = ""
		}
		return a, nil

	case spinner.TickMsg:
		if a.pending <= 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state {
	case stateRestoring:
		return a, nil
	case stateLogin:
		return a.handleLoginKey(msg)
	}

	if !a.deps.Session.IsAuthenticated() {
		a.logWarn("Session expired")
		return a.showLogin("Your session has expired. Please log in again.")
	}
	if a.inputMode != inputNone {
		return a.handleInputKey(msg)
	}
	if a.composing {
		return a.handleComposerKey(msg)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "tab":
		if a.focus == focusNav {
			a.focus = focusContent
		} else {
			a.focus = focusNav
		}
		return a, nil
	case "t":
		return a, a.toggleTheme()
	case "ctrl+l":
		return a.logout()
	case "enter":
		if a.focus == focusNav {
			if item, ok := a.nav.SelectedItem().(navItem); ok {
				return a, a.openSection(item.item.Path)
			}
			return a, nil
		}
	}

	if a.focus == focusNav {
		var cmd tea.Cmd
		a.nav, cmd = a.nav.Update(msg)
		return a, cmd
	}

	switch a.section {
	case access.SectionDashboard:
		return a.handleDashboardKey(key)
	case access.SectionIssues:
		if key == "r" {
			return a, a.loadIssues()
		}
	case access.SectionPalettes:
		return a, a.palettes.Update(key)
	}
	return a, nil
}

func (a *App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a, tea.Quit
	case "enter":
		token := strings.TrimSpace(a.input.Value())
		if token == "" {
			a.loginErr = "A token is required."
			return a, nil
		}
		a.loginErr = ""
		a.pending++
		return a, tea.Batch(a.spinner.Tick, func() tea.Msg {
			ctx, cancel := a.ctx()
			defer cancel()
			sess, err := a.deps.Session.Login(ctx, token)
			return loginMsg{sess: sess, err: err}
		})
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) showLogin(reason string) (tea.Model, tea.Cmd) {
	a.state = stateLogin
	a.loginErr = reason
	a.inputMode = inputToken
	a.composing = false
	a.input.Reset()
	a.input.Placeholder = "Paste your access token"
	a.input.EchoMode = textinput.EchoPassword
	a.input.EchoCharacter = '•'
	return a, a.input.Focus()
}

// enterMain builds the sidebar for the current role and opens the dashboard.
func (a *App) enterMain() (tea.Model, tea.Cmd) {
	a.state = stateMain
	a.focus = focusNav
	a.inputMode = inputNone
	a.input.Reset()
	a.input.Blur()
	a.input.EchoMode = textinput.EchoNormal
	a.loginErr = ""
	a.refreshNav()
	return a, a.openSection(access.SectionDashboard)
}

func (a *App) refreshNav() {
	visible := access.VisibleNav(a.deps.Session.Role())
	items := make([]list.Item, len(visible))
	for i, item := range visible {
		items[i] = navItem{item: item}
	}
	a.nav.SetItems(items)
	a.nav.Select(0)
}

// openSection switches the content area. Sections the role may not open
// are never in the sidebar; the check here covers direct calls.
func (a *App) openSection(section access.Section) tea.Cmd {
	role := a.deps.Session.Role()
	if !access.CanOpen(role, section) {
		a.statusMsg = "That section is not available for your role."
		return nil
	}
	a.section = section
	a.focus = focusContent
	a.statusMsg = ""
	a.logInfo("Opened %s", sectionLabel(section))
	switch section {
	case access.SectionDashboard:
		return a.dashboardCmd(access.ActionRefresh)
	case access.SectionIssues:
		if !a.issuesLoaded {
			return a.loadIssues()
		}
	}
	return nil
}

func sectionLabel(section access.Section) string {
	for _, item := range access.NavItems {
		if item.Path == section {
			return item.Label
		}
	}
	return string(section)
}

func (a *App) handleDashboardKey(key string) (tea.Model, tea.Cmd) {
	action, ok := dashboardKeys[key]
	if !ok {
		return a, nil
	}
	if !access.Can(a.deps.Session.Role(), action) {
		return a, nil
	}
	if action == access.ActionSendCustomReminder {
		if a.deps.Dashboard.Snapshot().Busy {
			a.statusMsg = "Busy… please wait for the current request."
			return a, nil
		}
		a.composing = true
		a.composer.SetValue(a.deps.Dashboard.Draft())
		return a, a.composer.Focus()
	}
	return a, a.dashboardCmd(action)
}

var dashboardKeys = map[string]access.Action{
	"r": access.ActionRefresh,
	"s": access.ActionSendReminder,
	"c": access.ActionSendCustomReminder,
	"k": access.ActionSkipTurn,
	"a": access.ActionAdvanceTurn,
}

func actionKey(action access.Action) string {
	for key, a := range dashboardKeys {
		if a == action {
			return key
		}
	}
	return ""
}

func (a *App) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.composing = false
		a.composer.Blur()
		return a, nil
	case "ctrl+s":
		a.deps.Dashboard.SetDraft(a.composer.Value())
		return a, a.dashboardCmd(access.ActionSendCustomReminder)
	}
	var cmd tea.Cmd
	a.composer, cmd = a.composer.Update(msg)
	a.deps.Dashboard.SetDraft(a.composer.Value())
	return a, cmd
}

func (a *App) dashboardCmd(action access.Action) tea.Cmd {
	a.pending++
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		return dashboardMsg{action: action, err: a.deps.Dashboard.Do(ctx, action)}
	})
}

func (a *App) loadIssues() tea.Cmd {
	if a.deps.Issues == nil {
		a.issuesLoaded = true
		a.issuesErr = "The issue feed is not configured."
		return nil
	}
	a.pending++
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		issues, err := a.deps.Issues.PublicIssues(ctx)
		return issuesMsg{issues: issues, err: err}
	})
}

func (a *App) logout() (tea.Model, tea.Cmd) {
	ctx, cancel := a.ctx()
	defer cancel()
	email := ""
	if cur, ok := a.deps.Session.Current(); ok {
		email = cur.Email
	}
	a.deps.Session.Logout(ctx)
	a.logInfo("Logged out · %s", email)
	a.issues, a.issuesLoaded, a.issuesErr = nil, false, ""
	return a.showLogin("")
}
