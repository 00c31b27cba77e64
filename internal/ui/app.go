package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/auth"
	"github.com/tgienger/lumina/internal/db"
	"github.com/tgienger/lumina/internal/insights"
	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/state"
	"github.com/tgienger/lumina/internal/tasks"
	"github.com/tgienger/lumina/internal/ui/styles"
	"github.com/tgienger/lumina/internal/ui/views"
)

// Phase is the top-level screen
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLogin
	PhaseDashboard
)

// Collections holds the locally stored workspaces and categories
type Collections interface {
	Workspaces() []models.Workspace
	Categories() []models.Category
	AddWorkspace(name, icon string) (models.Workspace, error)
	AddCategory(name, color string) (models.Category, error)
}

// Settings persists small UI preferences
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Deps are the services the app drives
type Deps struct {
	Auth     *auth.Gateway
	Tasks    *tasks.Store
	Local    Collections
	Settings Settings
	Analyst  *insights.Analyst
	Logger   *zap.Logger
	// Filler decorates the profile heat map; nil leaves empty days blank
	Filler *analytics.Filler
	Now    func() time.Time
}

type sessionMsg struct {
	user   *models.User
	closed bool
}

type taskUpdateMsg struct {
	gen    int
	update tasks.Update
	closed bool
}

// App is the root model. It owns the state and runs every service call as
// a command.
type App struct {
	deps Deps
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state    *state.State
	phase    Phase
	spinner  spinner.Model
	sessions <-chan *models.User

	subCancel    context.CancelFunc
	subUID       string
	updates      <-chan tasks.Update
	gen          int
	googleCancel context.CancelFunc

	login *views.LoginView
	dash  *views.Dashboard

	width  int
	height int
}

// NewApp creates the application
func NewApp(deps Deps) *App {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	st := state.New(deps.Local.Workspaces(), deps.Local.Categories())
	return &App{
		deps:     deps,
		log:      logging.OrNop(deps.Logger).Named("ui"),
		ctx:      ctx,
		cancel:   cancel,
		state:    st,
		phase:    PhaseLoading,
		spinner:  sp,
		sessions: deps.Auth.Sessions(ctx),
		login:    views.NewLoginView(),
		dash:     views.NewDashboard(st, deps.Filler, deps.Now),
	}
}

// Close stops the session and task subscriptions
func (a *App) Close() {
	if a.googleCancel != nil {
		a.googleCancel()
	}
	a.cancel()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.startAuth(), a.waitSession())
}

func (a *App) startAuth() tea.Cmd {
	ctx, gateway := a.ctx, a.deps.Auth
	return func() tea.Msg {
		gateway.Start(ctx)
		return nil
	}
}

func (a *App) waitSession() tea.Cmd {
	ch := a.sessions
	return func() tea.Msg {
		user, ok := <-ch
		return sessionMsg{user: user, closed: !ok}
	}
}

func waitTasks(gen int, ch <-chan tasks.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		return taskUpdateMsg{gen: gen, update: u, closed: !ok}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login.Update(msg)
		a.dash.Update(msg)
		return a, nil

	case spinner.TickMsg:
		// each spinner ignores ticks carrying another spinner's id
		var cmds []tea.Cmd
		if a.phase == PhaseLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		_, cmd := a.login.Update(msg)
		cmds = append(cmds, cmd)
		_, cmd = a.dash.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if a.phase == PhaseLoading {
			if msg.String() == "ctrl+c" || msg.String() == "q" {
				return a, tea.Quit
			}
			return a, nil
		}

	case sessionMsg:
		return a, a.handleSession(msg)

	case taskUpdateMsg:
		return a, a.handleTaskUpdate(msg)

	// Login intents
	case views.SignInRequested:
		gateway, ctx := a.deps.Auth, a.ctx
		return a, func() tea.Msg {
			return authFinished(gateway.SignIn(ctx, msg.Email, msg.Password))
		}

	case views.RegisterRequested:
		gateway, ctx := a.deps.Auth, a.ctx
		return a, func() tea.Msg {
			return authFinished(gateway.Register(ctx, msg.Name, msg.Email, msg.Password))
		}

	case views.GoogleRequested:
		if a.googleCancel != nil {
			a.googleCancel()
		}
		ctx, cancel := context.WithCancel(a.ctx)
		a.googleCancel = cancel
		gateway := a.deps.Auth
		return a, func() tea.Msg {
			return authFinished(gateway.SignInWithGoogle(ctx))
		}

	case views.GoogleCancelRequested:
		if a.googleCancel != nil {
			a.googleCancel()
		}
		return a, nil

	case views.AuthFinished:
		if a.googleCancel != nil {
			a.googleCancel()
			a.googleCancel = nil
		}
		_, cmd := a.login.Update(msg)
		return a, cmd

	// Dashboard intents
	case views.SelectView:
		a.state.SetView(msg.View)
		if err := a.deps.Settings.SetSetting(db.KeyLastView, string(msg.View)); err != nil {
			a.log.Warn("error saving last view", zap.Error(err))
		}
		return a, nil

	case views.SelectFilter:
		a.state.SetFilter(msg.Filter)
		return a, nil

	case views.ToggleTask:
		store, ctx := a.deps.Tasks, a.ctx
		current := append([]models.Task(nil), a.state.Tasks...)
		return a, func() tea.Msg {
			store.ToggleStatus(ctx, current, msg.ID)
			return nil
		}

	case views.CreateTask:
		if a.state.User == nil {
			a.log.Debug("task not created", zap.Error(tasks.ErrNoSession))
			return a, nil
		}
		store, ctx, uid := a.deps.Tasks, a.ctx, a.state.User.UID
		return a, func() tea.Msg {
			_, err := store.Create(ctx, msg.Draft, uid)
			return views.TaskCreated{Err: err}
		}

	case views.TaskCreated:
		if msg.Err != nil {
			a.state.ShowBanner(tasks.BannerSaveFailed)
		}
		_, cmd := a.dash.Update(msg)
		return a, cmd

	case views.CreateWorkspace:
		ws, err := a.deps.Local.AddWorkspace(msg.Name, msg.Icon)
		if err != nil {
			a.log.Error("error saving workspaces", zap.String("id", ws.ID), zap.Error(err))
		}
		a.state.Workspaces = a.deps.Local.Workspaces()
		return a, nil

	case views.CreateCategory:
		cat, err := a.deps.Local.AddCategory(msg.Name, msg.Color)
		if err != nil {
			a.log.Error("error saving categories", zap.String("id", cat.ID), zap.Error(err))
		}
		a.state.Categories = a.deps.Local.Categories()
		return a, nil

	case views.DismissBanner:
		a.state.DismissBanner()
		return a, nil

	case views.GenerateInsights:
		analyst, ctx := a.deps.Analyst, a.ctx
		list := append([]models.Task(nil), a.state.ViewTasks()...)
		workspaces := append([]models.Workspace(nil), a.state.Workspaces...)
		return a, func() tea.Msg {
			return views.InsightReady{Insight: analyst.Analyze(ctx, list, workspaces)}
		}

	case views.Logout:
		gateway, ctx := a.deps.Auth, a.ctx
		return a, func() tea.Msg {
			gateway.SignOut(ctx)
			return nil
		}
	}

	var cmd tea.Cmd
	switch a.phase {
	case PhaseLogin:
		_, cmd = a.login.Update(msg)
	case PhaseDashboard:
		_, cmd = a.dash.Update(msg)
	}
	return a, cmd
}

func authFinished(res auth.Result, err error) tea.Msg {
	return views.AuthFinished{VerifyEmail: res.VerifyEmail, Err: err}
}

func (a *App) handleSession(msg sessionMsg) tea.Cmd {
	if msg.closed {
		return nil
	}

	user := msg.user
	a.state.SetUser(user)

	if user == nil {
		a.unsubscribe()
		if a.phase != PhaseLogin {
			a.phase = PhaseLogin
			a.login.Reset()
			a.dash.Reset()
			a.state.DismissBanner()
			return tea.Batch(a.waitSession(), a.login.Init())
		}
		return a.waitSession()
	}

	cmds := []tea.Cmd{a.waitSession()}
	if a.subCancel == nil || a.subUID != user.UID {
		cmds = append(cmds, a.subscribe(user.UID))
	}
	if a.phase != PhaseDashboard {
		a.restoreView()
		a.login.Reset()
		a.phase = PhaseDashboard
	}
	return tea.Batch(cmds...)
}

func (a *App) subscribe(uid string) tea.Cmd {
	a.unsubscribe()
	ctx, cancel := context.WithCancel(a.ctx)
	a.subCancel = cancel
	a.subUID = uid
	a.gen++
	a.updates = a.deps.Tasks.Subscribe(ctx, uid)
	return waitTasks(a.gen, a.updates)
}

func (a *App) unsubscribe() {
	if a.subCancel != nil {
		a.subCancel()
		a.subCancel = nil
	}
	a.subUID = ""
	a.updates = nil
	// late updates from the old subscription are dropped by generation
	a.gen++
}

func (a *App) handleTaskUpdate(msg taskUpdateMsg) tea.Cmd {
	if msg.gen != a.gen || msg.closed {
		return nil
	}
	if msg.update.Err == nil {
		a.state.ApplySnapshot(msg.update.Tasks)
	} else if msg.update.Banner != "" {
		a.state.ShowBanner(msg.update.Banner)
	}
	return waitTasks(msg.gen, a.updates)
}

func (a *App) restoreView() {
	last, err := a.deps.Settings.GetSetting(db.KeyLastView)
	if err != nil {
		a.log.Warn("error reading last view", zap.Error(err))
		return
	}
	if v := state.View(last); last != "" && a.state.ViewValid(v) {
		a.state.SetView(v)
	}
}

func (a *App) View() string {
	switch a.phase {
	case PhaseLogin:
		return a.login.View()
	case PhaseDashboard:
		return a.dash.View()
	}
	s := styles.NewStyles()
	return styles.Overlay(lipgloss.JoinHorizontal(lipgloss.Center,
		a.spinner.View(), " ", s.Brand.Render("LUMINA"), s.Muted.Render(" connecting..."),
	), a.width, a.height)
}
