package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/state"
	"github.com/tgienger/lumina/internal/ui/keys"
	"github.com/tgienger/lumina/internal/ui/styles"
)

const (
	cardWidth  = 36
	cardHeight = 6
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Dashboard is the signed-in screen: sidebar, summary tiles and the task
// grid or the analytics panel. It reads the shared state and reports every
// change as an intent message.
type Dashboard struct {
	state     *state.State
	analytics *AnalyticsPanel
	styles    *styles.Styles
	keys      keys.KeyMap
	filler    *analytics.Filler
	now       func() time.Time

	width  int
	height int

	cursor  int
	scrollY int // first visible grid row

	form     form
	taskForm *TaskForm // set while form is the task form
	profile  *Profile
	showHelp bool
}

// NewDashboard creates the dashboard over st
func NewDashboard(st *state.State, filler *analytics.Filler, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{
		state:     st,
		analytics: NewAnalyticsPanel(),
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		filler:    filler,
		now:       now,
	}
}

func (v *Dashboard) Init() tea.Cmd {
	return nil
}

// Analytics exposes the analytics panel
func (v *Dashboard) Analytics() *AnalyticsPanel { return v.analytics }

// FormOpen reports whether a form overlay is showing
func (v *Dashboard) FormOpen() bool { return v.form != nil }

// Cursor returns the index of the selected card
func (v *Dashboard) Cursor() int { return v.cursor }

// Reset closes overlays and clears per-session view state
func (v *Dashboard) Reset() {
	v.form = nil
	v.taskForm = nil
	v.profile = nil
	v.showHelp = false
	v.cursor = 0
	v.scrollY = 0
	v.analytics.Reset()
}

func (v *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		return v, v.analytics.tick(msg)

	case TaskCreated:
		if v.taskForm != nil {
			v.taskForm.saved(msg.Err)
			if msg.Err == nil {
				v.form = nil
				v.taskForm = nil
			}
		}
		return v, nil

	case InsightReady:
		v.analytics.Finish(msg.Insight)
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return v, tea.Quit
		}
		switch {
		case v.showHelp:
			v.showHelp = false
			return v, nil
		case v.form != nil:
			cmd, closed := v.form.update(msg)
			if closed {
				v.form = nil
				v.taskForm = nil
			}
			return v, cmd
		case v.profile != nil:
			return v.updateProfile(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *Dashboard) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Profile):
		v.profile = nil
	case key.Matches(msg, v.keys.Logout):
		v.profile = nil
		return v, func() tea.Msg { return Logout{} }
	}
	return v, nil
}

func (v *Dashboard) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := v.state.FilteredTasks()
	onAnalytics := v.state.ActiveView == state.ViewAnalytics

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelp = true

	case key.Matches(msg, v.keys.Inbox):
		return v, v.selectView(state.ViewInbox)

	case key.Matches(msg, v.keys.Analytics):
		return v, v.selectView(state.ViewAnalytics)

	case key.Matches(msg, v.keys.Tab):
		return v, v.selectView(v.cycleView(1))

	case key.Matches(msg, v.keys.ShiftTab):
		return v, v.selectView(v.cycleView(-1))

	case key.Matches(msg, v.keys.Profile):
		if v.state.User != nil {
			days := analytics.Activity(v.state.Tasks, v.now(), v.filler)
			v.profile = NewProfile(*v.state.User, v.state.Tasks, days)
		}

	case key.Matches(msg, v.keys.New):
		if !onAnalytics {
			v.taskForm = NewTaskForm(v.state)
			v.form = v.taskForm
			return v, v.taskForm.title.Focus()
		}

	case key.Matches(msg, v.keys.NewWorkspace):
		v.form = NewWorkspaceForm()

	case key.Matches(msg, v.keys.NewCategory):
		v.form = NewCategoryForm()

	case key.Matches(msg, v.keys.Dismiss):
		if v.state.Banner != "" {
			return v, func() tea.Msg { return DismissBanner{} }
		}

	case key.Matches(msg, v.keys.Logout):
		return v, func() tea.Msg { return Logout{} }

	case onAnalytics && key.Matches(msg, v.keys.Generate):
		return v, v.analytics.Generate()

	case key.Matches(msg, v.keys.Filter):
		next := state.FilterAll
		for i, f := range state.Filters {
			if f == v.state.Filter {
				next = state.Filters[(i+1)%len(state.Filters)]
			}
		}
		return v, v.selectFilter(next)

	case key.Matches(msg, v.keys.FilterAll):
		return v, v.selectFilter(state.FilterAll)

	case key.Matches(msg, v.keys.FilterOpen):
		return v, v.selectFilter(state.FilterPending)

	case key.Matches(msg, v.keys.FilterDone):
		return v, v.selectFilter(state.FilterCompleted)

	case key.Matches(msg, v.keys.Toggle):
		if len(tasks) > 0 && !onAnalytics {
			id := tasks[clamp(v.cursor, 0, len(tasks)-1)].ID
			return v, func() tea.Msg { return ToggleTask{ID: id} }
		}

	case key.Matches(msg, v.keys.Left):
		v.moveCursor(-1, len(tasks))

	case key.Matches(msg, v.keys.Right):
		v.moveCursor(1, len(tasks))

	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-v.columns(), len(tasks))

	case key.Matches(msg, v.keys.Down):
		v.moveCursor(v.columns(), len(tasks))
	}

	return v, nil
}

func (v *Dashboard) selectView(view state.View) tea.Cmd {
	if view != v.state.ActiveView && v.state.ActiveView == state.ViewAnalytics {
		v.analytics.Reset()
	}
	v.cursor = 0
	v.scrollY = 0
	return func() tea.Msg { return SelectView{View: view} }
}

func (v *Dashboard) selectFilter(f state.Filter) tea.Cmd {
	v.cursor = 0
	v.scrollY = 0
	return func() tea.Msg { return SelectFilter{Filter: f} }
}

// cycleView steps through Inbox, Analytics and the workspaces
func (v *Dashboard) cycleView(dir int) state.View {
	views := v.navItems()
	cur := 0
	for i, item := range views {
		if item == v.state.ActiveView {
			cur = i
		}
	}
	return views[(cur+dir+len(views))%len(views)]
}

func (v *Dashboard) navItems() []state.View {
	items := []state.View{state.ViewInbox, state.ViewAnalytics}
	for _, ws := range v.state.Workspaces {
		items = append(items, state.View(ws.ID))
	}
	return items
}

func (v *Dashboard) moveCursor(delta, count int) {
	if count == 0 {
		v.cursor = 0
		return
	}
	v.cursor = clamp(v.cursor+delta, 0, count-1)
	v.ensureVisible()
}

func (v *Dashboard) mainWidth() int {
	return styles.ContentWidth(v.width) - styles.SidebarWidth - 4
}

func (v *Dashboard) columns() int {
	return max(1, v.mainWidth()/cardWidth)
}

func (v *Dashboard) visibleRows() int {
	// header, tiles, banner and footer take about 14 lines
	return max(1, (v.height-14)/cardHeight)
}

func (v *Dashboard) ensureVisible() {
	row := v.cursor / v.columns()
	rows := v.visibleRows()
	if row < v.scrollY {
		v.scrollY = row
	}
	if row >= v.scrollY+rows {
		v.scrollY = row - rows + 1
	}
}

func (v *Dashboard) View() string {
	switch {
	case v.showHelp:
		return v.renderHelpPopup()
	case v.form != nil:
		return styles.Overlay(v.form.view(), v.width, v.height)
	case v.profile != nil:
		return styles.Overlay(v.profile.View(), v.width, v.height)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		v.renderBanner(),
		v.renderHeader(),
		v.renderBody(),
	)
	content := lipgloss.JoinHorizontal(lipgloss.Top, v.renderSidebar(), " ", main)
	content = lipgloss.JoinVertical(lipgloss.Left, content, v.renderHelp())
	return styles.CenterView(content, v.width, v.height)
}

func (v *Dashboard) renderSidebar() string {
	s := v.styles

	item := func(view state.View, label string) string {
		if view == v.state.ActiveView {
			return s.SidebarSelected.Render(label)
		}
		return s.SidebarItem.Render(label)
	}

	lines := []string{
		s.Brand.Render("◆ LUMINA"),
		"",
		item(state.ViewInbox, "▤ Inbox"),
		item(state.ViewAnalytics, "▥ Analytics"),
		s.SectionLabel.Render("WORKSPACES"),
	}
	for _, ws := range v.state.Workspaces {
		lines = append(lines, item(state.View(ws.ID), truncate(ws.Icon+" "+ws.Name, styles.SidebarWidth-6)))
	}
	if len(v.state.Categories) > 0 {
		lines = append(lines, s.SectionLabel.Render("CATEGORIES"))
		for _, c := range v.state.Categories {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
			lines = append(lines, s.SidebarItem.Render(dot+" "+truncate(c.Name, styles.SidebarWidth-8)))
		}
	}
	if u := v.state.User; u != nil {
		lines = append(lines, "", s.SidebarActive.Render(Initials(u.Name())+" "+truncate(u.Name(), styles.SidebarWidth-10)))
	}

	return s.Sidebar.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (v *Dashboard) renderBanner() string {
	if v.state.Banner == "" {
		return ""
	}
	return v.styles.Banner.Width(v.mainWidth()).Render("⚠ " + v.state.Banner + "   d: dismiss")
}

func (v *Dashboard) renderHeader() string {
	s := v.styles
	title := s.Title.Render(v.state.Title())
	if v.state.Filter != state.FilterAll && v.state.ActiveView != state.ViewAnalytics {
		title += s.TitleMuted.Render(" / " + string(v.state.Filter))
	}
	greeting := ""
	if u := v.state.User; u != nil {
		greeting = s.Muted.Render("Welcome back, " + u.Name())
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, greeting, "")
}

func (v *Dashboard) renderBody() string {
	if v.state.ActiveView == state.ViewAnalytics {
		return lipgloss.JoinVertical(lipgloss.Left,
			v.renderTiles(),
			v.analytics.View(v.state.ViewTasks(), v.state.Workspaces, v.mainWidth()),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.renderTiles(), v.renderGrid())
}

func (v *Dashboard) renderTiles() string {
	s := v.styles
	sum := v.state.Summary()
	width := max(12, (v.mainWidth()-6)/3-4)

	tile := func(label string, n int, f state.Filter, color lipgloss.Color) string {
		style := s.Tile
		if v.state.Filter == f {
			style = s.TileActive
		}
		fill := int(sum.Share(n) * float64(width))
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▰", fill)) +
			s.Subtle.Render(strings.Repeat("▱", width-fill))
		return style.Width(width + 4).Render(
			s.Muted.Render(label) + "\n" + s.TileValue.Render(fmt.Sprint(n)) + "\n" + bar,
		)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Omni Scope", sum.Total, state.FilterAll, styles.Current.Primary),
		tile("In Progress", sum.Pending, state.FilterPending, styles.Current.Pending),
		tile("Finalized", sum.Completed, state.FilterCompleted, styles.Current.Completed),
	)
}

func (v *Dashboard) renderGrid() string {
	s := v.styles
	tasks := v.state.FilteredTasks()
	if len(tasks) == 0 {
		return lipgloss.Place(v.mainWidth(), 8, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				s.Title.Render("No tasks found"),
				s.Muted.Render("Time to start something new!"),
			),
		)
	}

	v.cursor = clamp(v.cursor, 0, len(tasks)-1)
	cols := v.columns()
	rows := (len(tasks) + cols - 1) / cols
	v.scrollY = clamp(v.scrollY, 0, max(0, rows-1))
	last := min(rows, v.scrollY+v.visibleRows())

	var lines []string
	for r := v.scrollY; r < last; r++ {
		var row []string
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(tasks) {
				break
			}
			row = append(row, v.renderCard(tasks[i], i == v.cursor))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	if rows > last-v.scrollY {
		lines = append(lines, s.Muted.Render(fmt.Sprintf("%d of %d tasks", len(tasks), len(v.state.ViewTasks()))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *Dashboard) renderCard(t models.Task, selected bool) string {
	s := v.styles
	style := s.Card
	if selected {
		style = s.CardSelected
	}
	inner := cardWidth - 4

	check := "○"
	title := s.CardTitle.Render(truncate(t.Title, inner-2))
	if t.Status == models.StatusCompleted {
		check = "●"
		title = s.Muted.Strikethrough(true).Render(truncate(t.Title, inner-2))
	}
	statusColor := styles.StatusColor(string(t.Status))

	desc := t.Description
	if desc == "" {
		desc = "No description"
	}
	desc = strings.ReplaceAll(desc, "\n", " ")

	category := v.state.CategoryLabel(t)
	catStyle := s.Muted
	if c, ok := v.state.Category(t.CategoryID); ok {
		catStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color))
	}

	meta := s.Badge.Foreground(statusColor).Render(string(t.Status)) + catStyle.Render(truncate(category, 14))
	if !t.CreatedAt.IsZero() {
		meta += s.Subtle.Render(" " + t.CreatedAt.Local().Format("Jan 2"))
	}

	return style.Width(cardWidth - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(statusColor).Render(check)+" "+title,
		s.Muted.Render(truncate(desc, inner)),
		meta,
	))
}

func (v *Dashboard) renderHelp() string {
	s := v.styles
	if w := styles.ContentWidth(v.width); w > 0 && w < 80 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	if v.state.ActiveView == state.ViewAnalytics {
		return s.Help.Render(fmt.Sprintf("%s generate • %s views • %s inbox • %s profile • %s help • %s quit",
			s.HelpKey.Render("g"),
			s.HelpKey.Render("tab"),
			s.HelpKey.Render("i"),
			s.HelpKey.Render("p"),
			s.HelpKey.Render("?"),
			s.HelpKey.Render("q"),
		))
	}
	return s.Help.Render(fmt.Sprintf("%s new • %s toggle • %s filter • %s views • %s analytics • %s profile • %s help • %s quit",
		s.HelpKey.Render("n"),
		s.HelpKey.Render("space"),
		s.HelpKey.Render("f"),
		s.HelpKey.Render("tab"),
		s.HelpKey.Render("a"),
		s.HelpKey.Render("p"),
		s.HelpKey.Render("?"),
		s.HelpKey.Render("q"),
	))
}

func (v *Dashboard) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("tab") + "    next view",
		s.HelpKey.Render("i") + "      inbox",
		s.HelpKey.Render("a") + "      analytics",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("w") + "      new workspace",
		s.HelpKey.Render("c") + "      new category",
		s.HelpKey.Render("space") + "  toggle status",
		s.HelpKey.Render("f") + "      cycle filter (1/2/3)",
		s.HelpKey.Render("g") + "      generate insights",
		s.HelpKey.Render("p") + "      profile",
		s.HelpKey.Render("d") + "      dismiss banner",
		s.HelpKey.Render("L") + "      sign out",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return styles.Overlay(s.Panel.Render(content), v.width, v.height)
}
