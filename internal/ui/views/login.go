package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/lumina/internal/ui/keys"
	"github.com/tgienger/lumina/internal/ui/styles"
)

// LoginMode is the screen the login view shows
type LoginMode int

const (
	ModeLogin LoginMode = iota
	ModeRegister
	ModeVerify
	ModeGoogle
)

// LoginView handles sign-in, registration and the verification notice
type LoginView struct {
	styles  *styles.Styles
	keys    keys.KeyMap
	spinner spinner.Model

	width  int
	height int

	mode     LoginMode
	origin   LoginMode // form a Google attempt started from
	name     textinput.Model
	email    textinput.Model
	password textinput.Model
	focusIdx int // index into inputs(), len(inputs()) = submit button

	busy        bool
	err         string
	verifyEmail string
}

// NewLoginView creates the login view
func NewLoginView() *LoginView {
	name := textinput.New()
	name.Placeholder = "Full Name"
	name.CharLimit = 100

	email := textinput.New()
	email.Placeholder = "Email Address"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "Secure Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	v := &LoginView{
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		spinner:  sp,
		name:     name,
		email:    email,
		password: password,
	}
	v.updateFocus()
	return v
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the current screen
func (v *LoginView) Mode() LoginMode { return v.mode }

// Err returns the inline error line
func (v *LoginView) Err() string { return v.err }

// Busy reports whether an attempt is in flight
func (v *LoginView) Busy() bool { return v.busy }

func (v *LoginView) inputs() []*textinput.Model {
	if v.mode == ModeRegister {
		return []*textinput.Model{&v.name, &v.email, &v.password}
	}
	return []*textinput.Model{&v.email, &v.password}
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case AuthFinished:
		v.busy = false
		switch {
		case msg.Err != nil:
			if v.mode == ModeGoogle {
				v.mode = v.origin
			}
			v.err = msg.Err.Error()
		case msg.VerifyEmail != "":
			v.mode = ModeVerify
			v.verifyEmail = msg.VerifyEmail
			v.err = ""
		default:
			// cancelled Google flow or a session that the app now shows
			if v.mode == ModeGoogle {
				v.mode = v.origin
			}
		}
		v.updateFocus()
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case ModeVerify:
			return v.updateVerify(msg)
		case ModeGoogle:
			return v.updateGoogle(msg)
		}
		return v.updateForm(msg)
	}

	// cursor blink
	if inputs := v.inputs(); v.focusIdx < len(inputs) {
		var cmd tea.Cmd
		*inputs[v.focusIdx], cmd = inputs[v.focusIdx].Update(msg)
		return v, cmd
	}
	return v, nil
}

// Reset returns the view to an empty sign-in form. The email is kept.
func (v *LoginView) Reset() {
	v.mode = ModeLogin
	v.origin = ModeLogin
	v.busy = false
	v.err = ""
	v.verifyEmail = ""
	v.name.Reset()
	v.password.Reset()
	v.focusIdx = 0
	v.updateFocus()
}

func (v *LoginView) updateVerify(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Back):
		v.mode = ModeLogin
		v.err = ""
		v.password.Reset()
		v.updateFocus()
		return v, textinput.Blink
	}
	return v, nil
}

func (v *LoginView) updateGoogle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return GoogleCancelRequested{} }
	}
	return v, nil
}

func (v *LoginView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// typing is blocked while a request is running
	if v.busy {
		if msg.String() == "ctrl+c" {
			return v, tea.Quit
		}
		return v, nil
	}

	fields := len(v.inputs())
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Tab), msg.String() == "down":
		v.focusIdx = (v.focusIdx + 1) % (fields + 1)
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab), msg.String() == "up":
		v.focusIdx = (v.focusIdx + fields) % (fields + 1)
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.SwitchMode):
		if v.mode == ModeLogin {
			v.mode = ModeRegister
		} else {
			v.mode = ModeLogin
		}
		v.err = ""
		v.focusIdx = 0
		v.updateFocus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Google):
		v.err = ""
		v.busy = true
		v.origin = v.mode
		v.mode = ModeGoogle
		return v, tea.Batch(v.spinner.Tick, func() tea.Msg { return GoogleRequested{} })

	case key.Matches(msg, v.keys.Enter):
		// Enter moves through the fields and submits from the last one
		if v.focusIdx < fields-1 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.submit()
	}

	if v.focusIdx < fields {
		var cmd tea.Cmd
		input := v.inputs()[v.focusIdx]
		*input, cmd = input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *LoginView) submit() tea.Cmd {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	if email == "" || password == "" {
		v.err = "Email and password are required"
		return nil
	}

	v.err = ""
	v.busy = true
	if v.mode == ModeRegister {
		name := strings.TrimSpace(v.name.Value())
		return tea.Batch(v.spinner.Tick, func() tea.Msg {
			return RegisterRequested{Name: name, Email: email, Password: password}
		})
	}
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		return SignInRequested{Email: email, Password: password}
	})
}

func (v *LoginView) updateFocus() {
	v.name.Blur()
	v.email.Blur()
	v.password.Blur()

	inputs := v.inputs()
	if v.focusIdx > len(inputs) {
		v.focusIdx = 0
	}
	if v.focusIdx < len(inputs) {
		inputs[v.focusIdx].Focus()
	}
}

func (v *LoginView) View() string {
	var body string
	switch v.mode {
	case ModeVerify:
		body = v.renderVerify()
	case ModeGoogle:
		body = v.renderGoogle()
	default:
		body = v.renderForm()
	}
	return styles.Overlay(body, v.width, v.height)
}

func (v *LoginView) renderForm() string {
	s := v.styles
	width := 44

	var b strings.Builder
	b.WriteString(s.Brand.Render("◆ LUMINA"))
	b.WriteString("\n")
	if v.mode == ModeRegister {
		b.WriteString(s.Title.Render("Create your account"))
	} else {
		b.WriteString(s.Title.Render("Welcome back"))
	}
	b.WriteString("\n\n")

	for i, input := range v.inputs() {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		b.WriteString(style.Width(width).Render(input.View()))
		b.WriteString("\n")
	}

	label := "Sign In"
	if v.mode == ModeRegister {
		label = "Register"
	}
	button := s.Button
	if v.focusIdx == len(v.inputs()) {
		button = s.ButtonFocused
	}
	if v.busy {
		label = v.spinner.View() + " " + label
	}
	b.WriteString(button.Render(label))
	b.WriteString("\n")

	if v.err != "" {
		b.WriteString("\n")
		b.WriteString(s.ErrorText.Width(width).Render("⚠ " + v.err))
		b.WriteString("\n")
	}

	switchHint := "ctrl+r: create an account"
	if v.mode == ModeRegister {
		switchHint = "ctrl+r: already registered? sign in"
	}
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(switchHint + "  •  ctrl+g: continue with Google"))

	return s.Modal.Render(b.String())
}

func (v *LoginView) renderVerify() string {
	s := v.styles
	text := lipgloss.JoinVertical(lipgloss.Center,
		s.Success.Render("✉"),
		"",
		s.Title.Render("Verify Identity"),
		"",
		lipgloss.NewStyle().Width(44).Align(lipgloss.Center).Render(
			"We have sent you a verification email to "+s.Title.Render(v.verifyEmail)+
				". Please verify it and log in."),
		"",
		s.ButtonPrimary.Render("Return to Login →"),
	)
	return s.Modal.Render(text)
}

func (v *LoginView) renderGoogle() string {
	s := v.styles
	text := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(v.spinner.View()+" Continue with Google"),
		"",
		s.Muted.Render("Finish signing in in your browser."),
		s.Muted.Render("esc: cancel"),
	)
	return s.Modal.Render(text)
}
