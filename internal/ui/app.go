package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/reviewdeck/internal/forms"
	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
)

// Engine is the set of operations the dashboard drives.
type Engine interface {
	Start(ctx context.Context) error
	SelectWiki(ctx context.Context, id reviews.WikiID) error
	Sync(ctx context.Context, id reviews.WikiID) error
	Refresh(ctx context.Context, id reviews.WikiID) error
	ClearCache(ctx context.Context, id reviews.WikiID) error
	CycleSortOrder() order.Order
	ToggleConfiguration() bool
	EditForms(f forms.Forms)
	SaveConfiguration(ctx context.Context, id reviews.WikiID, blocking, groups string) error
	Autoreview(ctx context.Context, pageID int64) (reviews.AutoreviewResponse, error)
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Engine       Engine
	Store        *state.Store
	Prefs        *prefs.Store
	ThemeName    string
	DisplayLimit int
	LogPath      string
	APIBase      string
}

type viewKind int

const (
	viewDashboard viewKind = iota
	viewActivity
)

const (
	fieldBlocking = iota
	fieldGroups
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	engine  Engine
	store   *state.Store
	prefs   *prefs.Store
	limit   int
	logPath string
	apiBase string
	now     func() time.Time

	theme       Theme
	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	currentView viewKind
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	snapshot    state.Snapshot
	projection  state.View
	selectedRow int
	status      string

	// Configuration panel
	editing  bool
	fieldIdx int
	fields   [2]textarea.Model

	detail        viewport.Model
	activity      viewport.Model
	activityLines []string
	activityErr   string

	updates     <-chan struct{}
	unsubscribe func()
}

// New creates the dashboard model and subscribes it to the store.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.DisplayLimit
	if limit <= 0 {
		limit = state.DefaultDisplayLimit
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:         ctx,
		engine:      opts.Engine,
		store:       opts.Store,
		prefs:       opts.Prefs,
		limit:       limit,
		logPath:     opts.LogPath,
		apiBase:     opts.APIBase,
		now:         time.Now,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		currentView: viewDashboard,
		fields:      [2]textarea.Model{newField("One category per line"), newField("One group per line")},
		detail:      viewport.New(0, 0),
		activity:    viewport.New(0, 0),
	}
	m.applyThemeToWidgets()
	if m.store != nil {
		m.updates, m.unsubscribe = m.store.Subscribe()
		m.applySnapshot(m.store.Snapshot())
	}
	return m
}

func newField(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(configFieldHeight)
	ta.Blur()
	return ta
}

// storeChangedMsg signals that the store mutated.
type storeChangedMsg struct{}

// actionMsg reports the outcome of an engine call.
type actionMsg struct {
	action string
	err    error
}

type autoreviewMsg struct {
	page   reviews.Page
	result reviews.AutoreviewResponse
	err    error
}

type activityMsg struct {
	lines []string
	err   error
}

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until the store signals a change.
func (m Model) waitForChange() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch, ctx := m.updates, m.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return storeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// runAction runs fn off the event loop and reports its outcome.
func (m Model) runAction(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{action: action, err: fn(ctx)}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForChange(),
		m.spinner.Tick,
		tickCmd(DefaultUIInterval),
	}
	if m.engine != nil {
		cmds = append(cmds, m.runAction("load", m.engine.Start))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case storeChangedMsg:
		if m.store != nil {
			m.applySnapshot(m.store.Snapshot())
		}
		return m, m.waitForChange()

	case actionMsg:
		m.handleAction(msg)
		return m, nil

	case autoreviewMsg:
		if msg.err != nil {
			m.status = "Autoreview failed: " + reviews.Message(msg.err)
			return m, nil
		}
		m.status = ""
		m.modal = newAutoreviewModal(msg.page, msg.result)
		return m, nil

	case activityMsg:
		m.activityLines = msg.lines
		m.activityErr = ""
		if msg.err != nil {
			m.activityErr = msg.err.Error()
		}
		m.updateActivityViewport()
		return m, nil

	case tickMsg:
		var cmd tea.Cmd
		if m.currentView == viewActivity {
			cmd = m.loadActivity()
		}
		return m, tea.Batch(cmd, tickCmd(DefaultUIInterval))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.currentView == viewActivity {
		return m.renderActivity()
	}
	return m.renderDashboard()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if m.editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyThemeToWidgets()
		m.prefs.SaveTheme(m.theme.Name)
		m.updateDetailViewport()
		return m, nil
	}

	if m.currentView == viewActivity {
		return m.handleActivityKey(msg)
	}
	return m.handleDashboardKey(msg)
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	wiki := m.snapshot.SelectedWikiID

	switch {
	case key.Matches(msg, m.keys.ViewActivity):
		m.currentView = viewActivity
		return m, m.loadActivity()

	case key.Matches(msg, m.keys.NextWiki):
		return m, m.stepWiki(1)
	case key.Matches(msg, m.keys.PrevWiki):
		return m, m.stepWiki(-1)

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(m.selectedRow - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(m.selectedRow + 1)
	case key.Matches(msg, m.keys.Top):
		m.moveSelection(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveSelection(len(m.projection.VisiblePages) - 1)

	case key.Matches(msg, m.keys.ScrollDown):
		m.detail.HalfPageDown()
	case key.Matches(msg, m.keys.ScrollUp):
		m.detail.HalfPageUp()

	case key.Matches(msg, m.keys.Sync):
		if m.engine == nil || wiki.IsZero() {
			return m, nil
		}
		return m, m.runAction("reload", func(ctx context.Context) error {
			return m.engine.Sync(ctx, wiki)
		})

	case key.Matches(msg, m.keys.Refresh):
		if m.engine == nil || wiki.IsZero() {
			return m, nil
		}
		m.status = "Refreshing from wiki..."
		return m, m.runAction("refresh", func(ctx context.Context) error {
			return m.engine.Refresh(ctx, wiki)
		})

	case key.Matches(msg, m.keys.ClearCache):
		if m.engine == nil || wiki.IsZero() {
			return m, nil
		}
		return m, m.runAction("clear", func(ctx context.Context) error {
			return m.engine.ClearCache(ctx, wiki)
		})

	case key.Matches(msg, m.keys.CycleSort):
		if m.engine == nil {
			return m, nil
		}
		next := m.engine.CycleSortOrder()
		m.status = "Sorted by " + next.Label()

	case key.Matches(msg, m.keys.Autoreview):
		return m, m.autoreviewSelected()

	case key.Matches(msg, m.keys.ToggleConfig):
		if m.engine != nil {
			m.engine.ToggleConfiguration()
		}

	case key.Matches(msg, m.keys.EditConfig):
		if m.engine == nil || wiki.IsZero() {
			return m, nil
		}
		if !m.snapshot.ConfigurationOpen {
			m.engine.ToggleConfiguration()
		}
		m.startEditing()
		return m, textarea.Blink
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape):
		m.stopEditing()
		m.syncFieldsFromSnapshot()
		return m, nil
	case key.Matches(msg, m.keys.SwitchField):
		m.focusField((m.fieldIdx + 1) % len(m.fields))
		return m, nil
	case key.Matches(msg, m.keys.SaveConfig):
		wiki := m.snapshot.SelectedWikiID
		if m.engine == nil || wiki.IsZero() {
			return m, nil
		}
		blocking, groups := m.fields[fieldBlocking].Value(), m.fields[fieldGroups].Value()
		m.status = "Saving configuration..."
		return m, m.runAction("save", func(ctx context.Context) error {
			return m.engine.SaveConfiguration(ctx, wiki, blocking, groups)
		})
	}

	var cmd tea.Cmd
	m.fields[m.fieldIdx], cmd = m.fields[m.fieldIdx].Update(msg)
	if m.engine != nil {
		m.engine.EditForms(forms.Forms{
			BlockingCategories: m.fields[fieldBlocking].Value(),
			AutoApprovedGroups: m.fields[fieldGroups].Value(),
		})
	}
	return m, cmd
}

func (m *Model) handleAction(msg actionMsg) {
	if msg.err != nil {
		m.status = fmt.Sprintf("%s failed: %s", actionLabel(msg.action), reviews.Message(msg.err))
		return
	}
	switch msg.action {
	case "save":
		m.stopEditing()
		if m.store != nil {
			m.applySnapshot(m.store.Snapshot())
		}
		m.syncFieldsFromSnapshot()
		m.status = "Configuration saved"
	case "clear":
		m.status = "Cache cleared"
	case "refresh":
		m.status = "Refreshed"
	default:
		m.status = ""
	}
}

func actionLabel(action string) string {
	switch action {
	case "save":
		return "Saving configuration"
	case "clear":
		return "Clearing cache"
	case "refresh":
		return "Refresh"
	case "select":
		return "Switching wiki"
	case "load":
		return "Loading"
	default:
		return "Reload"
	}
}

// stepWiki selects the wiki delta positions away from the current one.
func (m *Model) stepWiki(delta int) tea.Cmd {
	wikis := m.snapshot.Wikis
	if m.engine == nil || len(wikis) == 0 {
		return nil
	}
	idx := -1
	for i, w := range wikis {
		if w.ID.Matches(m.snapshot.SelectedWikiID) {
			idx = i
			break
		}
	}
	next := 0
	if idx >= 0 {
		next = ((idx+delta)%len(wikis) + len(wikis)) % len(wikis)
	}
	id := wikis[next].ID
	if id.Matches(m.snapshot.SelectedWikiID) {
		return nil
	}
	m.selectedRow = 0
	m.status = ""
	return m.runAction("select", func(ctx context.Context) error {
		return m.engine.SelectWiki(ctx, id)
	})
}

func (m *Model) moveSelection(row int) {
	count := len(m.projection.VisiblePages)
	if count == 0 {
		m.selectedRow = 0
		return
	}
	if row < 0 {
		row = 0
	}
	if row >= count {
		row = count - 1
	}
	if row != m.selectedRow {
		m.selectedRow = row
		m.updateDetailViewport()
		m.detail.GotoTop()
	}
}

func (m Model) selectedPage() (reviews.Page, bool) {
	pages := m.projection.VisiblePages
	if m.selectedRow < 0 || m.selectedRow >= len(pages) {
		return reviews.Page{}, false
	}
	return pages[m.selectedRow], true
}

func (m *Model) autoreviewSelected() tea.Cmd {
	page, ok := m.selectedPage()
	if !ok || m.engine == nil {
		return nil
	}
	m.status = "Running autoreview..."
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		res, err := engine.Autoreview(ctx, page.PageID)
		return autoreviewMsg{page: page, result: res, err: err}
	}
}

// applySnapshot stores snap and derives everything rendered from it.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.projection = snap.Project(m.limit)
	if m.selectedRow >= len(m.projection.VisiblePages) {
		m.selectedRow = maxInt(len(m.projection.VisiblePages)-1, 0)
	}
	if !snap.ConfigurationOpen && m.editing {
		m.stopEditing()
	}
	if !m.editing {
		m.syncFieldsFromSnapshot()
	}
	m.updateDetailViewport()
}

func (m *Model) syncFieldsFromSnapshot() {
	if m.fields[fieldBlocking].Value() != m.snapshot.Forms.BlockingCategories {
		m.fields[fieldBlocking].SetValue(m.snapshot.Forms.BlockingCategories)
	}
	if m.fields[fieldGroups].Value() != m.snapshot.Forms.AutoApprovedGroups {
		m.fields[fieldGroups].SetValue(m.snapshot.Forms.AutoApprovedGroups)
	}
}

func (m *Model) startEditing() {
	m.editing = true
	m.focusField(fieldBlocking)
}

func (m *Model) stopEditing() {
	m.editing = false
	for i := range m.fields {
		m.fields[i].Blur()
	}
}

func (m *Model) focusField(idx int) {
	m.fieldIdx = idx
	for i := range m.fields {
		if i == idx {
			m.fields[i].Focus()
		} else {
			m.fields[i].Blur()
		}
	}
}

func (m *Model) applyThemeToWidgets() {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	m.help.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Faint))
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is canceled.
func Run(opts Options) error {
	m := New(opts)
	if m.unsubscribe != nil {
		defer m.unsubscribe()
	}
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
