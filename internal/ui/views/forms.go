package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/state"
	"github.com/tgienger/lumina/internal/ui/keys"
	"github.com/tgienger/lumina/internal/ui/styles"
)

const formWidth = 52

// form is a modal the dashboard shows on top of the grid. update reports
// closed when the form should be dismissed.
type form interface {
	update(msg tea.KeyMsg) (cmd tea.Cmd, closed bool)
	view() string
}

// TaskForm creates a task. It stays open until the app confirms the save.
type TaskForm struct {
	styles *styles.Styles
	keys   keys.KeyMap

	workspaces []models.Workspace
	categories []models.Category

	title    textinput.Model
	desc     textarea.Model
	wsIdx    int
	catIdx   int // 0 = Unassigned, i = categories[i-1]
	focusIdx int // 0=title, 1=desc, 2=workspace, 3=category, 4=save

	saving bool
	err    string
}

// NewTaskForm opens the form with the workspace preselected from the view
func NewTaskForm(st *state.State) *TaskForm {
	title := textinput.New()
	title.Placeholder = "What needs to be done?"
	title.CharLimit = 200
	title.Width = formWidth - 4

	desc := textarea.New()
	desc.Placeholder = "Details (optional)"
	desc.SetWidth(formWidth - 4)
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	f := &TaskForm{
		styles:     styles.NewStyles(),
		keys:       keys.DefaultKeyMap(),
		workspaces: st.Workspaces,
		categories: st.Categories,
		title:      title,
		desc:       desc,
	}
	defaultID := st.DefaultWorkspaceID()
	for i, ws := range f.workspaces {
		if ws.ID == defaultID {
			f.wsIdx = i
		}
	}
	f.updateFocus()
	return f
}

// Draft returns the task described by the form
func (f *TaskForm) Draft() models.Task {
	t := models.Task{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: strings.TrimSpace(f.desc.Value()),
	}
	if f.wsIdx < len(f.workspaces) {
		t.WorkspaceID = f.workspaces[f.wsIdx].ID
	}
	if f.catIdx > 0 && f.catIdx <= len(f.categories) {
		t.CategoryID = f.categories[f.catIdx-1].ID
	}
	return t
}

// saved is called with the outcome of the CreateTask intent
func (f *TaskForm) saved(err error) {
	f.saving = false
	if err != nil {
		f.err = err.Error()
	}
}

func (f *TaskForm) update(msg tea.KeyMsg) (tea.Cmd, bool) {
	if f.saving {
		return nil, false
	}

	switch {
	case key.Matches(msg, f.keys.Back):
		return nil, true

	case key.Matches(msg, f.keys.Submit):
		return f.submit(), false

	case key.Matches(msg, f.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % 5
		f.updateFocus()
		return nil, false

	case key.Matches(msg, f.keys.ShiftTab):
		f.focusIdx = (f.focusIdx + 4) % 5
		f.updateFocus()
		return nil, false

	case key.Matches(msg, f.keys.Enter):
		switch f.focusIdx {
		case 0, 2, 3:
			f.focusIdx++
			f.updateFocus()
			return nil, false
		case 4:
			return f.submit(), false
		}
		// newline in the description

	case msg.String() == "left", msg.String() == "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch f.focusIdx {
		case 2:
			if n := len(f.workspaces); n > 0 {
				f.wsIdx = (f.wsIdx + delta + n) % n
			}
			return nil, false
		case 3:
			n := len(f.categories) + 1
			f.catIdx = (f.catIdx + delta + n) % n
			return nil, false
		}
	}

	var cmd tea.Cmd
	switch f.focusIdx {
	case 0:
		f.title, cmd = f.title.Update(msg)
	case 1:
		f.desc, cmd = f.desc.Update(msg)
	}
	return cmd, false
}

func (f *TaskForm) submit() tea.Cmd {
	draft := f.Draft()
	switch {
	case draft.Title == "":
		f.err = "Title is required"
		return nil
	case draft.WorkspaceID == "":
		f.err = "Pick a workspace"
		return nil
	}
	f.err = ""
	f.saving = true
	return func() tea.Msg { return CreateTask{Draft: draft} }
}

func (f *TaskForm) updateFocus() {
	f.title.Blur()
	f.desc.Blur()
	switch f.focusIdx {
	case 0:
		f.title.Focus()
	case 1:
		f.desc.Focus()
	}
}

func (f *TaskForm) view() string {
	s := f.styles

	field := func(idx int) lipgloss.Style {
		if idx == f.focusIdx {
			return s.InputFocused.Width(formWidth)
		}
		return s.Input.Width(formWidth)
	}

	ws := "none"
	if f.wsIdx < len(f.workspaces) {
		w := f.workspaces[f.wsIdx]
		ws = w.Icon + " " + w.Name
	}
	cat := "Unassigned"
	if f.catIdx > 0 && f.catIdx <= len(f.categories) {
		c := f.categories[f.catIdx-1]
		cat = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("● ") + c.Name
	}

	button := s.Button
	if f.focusIdx == 4 {
		button = s.ButtonFocused
	}
	label := "Create Task"
	if f.saving {
		label = "Saving..."
	}

	parts := []string{
		s.Title.Render("New Task"),
		"",
		s.Label.Render("Title"),
		field(0).Render(f.title.View()),
		s.Label.Render("Description"),
		field(1).Render(f.desc.View()),
		s.Label.Render("Workspace"),
		field(2).Render("◀ " + ws + " ▶"),
		s.Label.Render("Category"),
		field(3).Render("◀ " + cat + " ▶"),
		"",
		button.Render(label),
	}
	if f.err != "" {
		parts = append(parts, "", s.ErrorText.Render("⚠ "+f.err))
	}
	parts = append(parts, "", s.Muted.Render("tab: next • ←/→: choose • ctrl+s: save • esc: cancel"))

	return s.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// PickerForm names a new workspace or category and picks one option from a
// fixed palette
type PickerForm struct {
	styles *styles.Styles
	keys   keys.KeyMap

	heading  string
	options  []string
	render   func(option string, selected bool) string
	intent   func(name, option string) tea.Msg
	name     textinput.Model
	optIdx   int
	focusIdx int // 0=name, 1=options, 2=save
	err      string
}

func newPickerForm(heading, placeholder string, options []string, preset string) *PickerForm {
	name := textinput.New()
	name.Placeholder = placeholder
	name.CharLimit = 60
	name.Width = formWidth - 4
	name.Focus()
	f := &PickerForm{
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		heading: heading,
		options: options,
		name:    name,
	}
	for i, o := range options {
		if o == preset {
			f.optIdx = i
		}
	}
	return f
}

// NewWorkspaceForm creates a workspace with an icon from models.WorkspaceIcons
func NewWorkspaceForm() *PickerForm {
	f := newPickerForm("New Workspace", "Workspace name", models.WorkspaceIcons, "💼")
	f.render = func(icon string, selected bool) string {
		if selected {
			return "[" + icon + "]"
		}
		return " " + icon + " "
	}
	f.intent = func(name, icon string) tea.Msg {
		return CreateWorkspace{Name: name, Icon: icon}
	}
	return f
}

// NewCategoryForm creates a category with a color from models.CategoryColors
func NewCategoryForm() *PickerForm {
	f := newPickerForm("New Category", "Category name", models.CategoryColors, "#8B5CF6")
	f.render = func(color string, selected bool) string {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		if selected {
			return dot.Render("[●]")
		}
		return dot.Render(" ● ")
	}
	f.intent = func(name, color string) tea.Msg {
		return CreateCategory{Name: name, Color: color}
	}
	return f
}

func (f *PickerForm) update(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, f.keys.Back):
		return nil, true

	case key.Matches(msg, f.keys.Submit):
		return f.submit()

	case key.Matches(msg, f.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % 3
		f.updateFocus()
		return nil, false

	case key.Matches(msg, f.keys.ShiftTab):
		f.focusIdx = (f.focusIdx + 2) % 3
		f.updateFocus()
		return nil, false

	case key.Matches(msg, f.keys.Enter):
		if f.focusIdx < 2 {
			f.focusIdx++
			f.updateFocus()
			return nil, false
		}
		return f.submit()

	case f.focusIdx == 1 && (msg.String() == "left" || msg.String() == "h"):
		f.optIdx = (f.optIdx + len(f.options) - 1) % len(f.options)
		return nil, false

	case f.focusIdx == 1 && (msg.String() == "right" || msg.String() == "l"):
		f.optIdx = (f.optIdx + 1) % len(f.options)
		return nil, false
	}

	if f.focusIdx == 0 {
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		return cmd, false
	}
	return nil, false
}

func (f *PickerForm) submit() (tea.Cmd, bool) {
	name := strings.TrimSpace(f.name.Value())
	if name == "" {
		f.err = "Name is required"
		return nil, false
	}
	option := f.options[f.optIdx]
	return func() tea.Msg { return f.intent(name, option) }, true
}

func (f *PickerForm) updateFocus() {
	if f.focusIdx == 0 {
		f.name.Focus()
	} else {
		f.name.Blur()
	}
}

func (f *PickerForm) view() string {
	s := f.styles

	nameStyle := s.Input.Width(formWidth)
	optStyle := s.Input.Width(formWidth)
	button := s.Button
	switch f.focusIdx {
	case 0:
		nameStyle = s.InputFocused.Width(formWidth)
	case 1:
		optStyle = s.InputFocused.Width(formWidth)
	case 2:
		button = s.ButtonFocused
	}

	var opts strings.Builder
	for i, o := range f.options {
		opts.WriteString(f.render(o, i == f.optIdx))
	}

	parts := []string{
		s.Title.Render(f.heading),
		"",
		s.Label.Render("Name"),
		nameStyle.Render(f.name.View()),
		optStyle.Render(opts.String()),
		"",
		button.Render("Create"),
	}
	if f.err != "" {
		parts = append(parts, "", s.ErrorText.Render("⚠ "+f.err))
	}
	parts = append(parts, "", s.Muted.Render("tab: next • ←/→: choose • enter: create • esc: cancel"))

	return s.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
