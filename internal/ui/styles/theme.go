package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Surface       lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Task status
	Pending   lipgloss.Color
	Completed lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color

	// Heat map, empty to busiest
	Heat [5]lipgloss.Color
}

// Midnight is the default color theme
var Midnight = Theme{
	Name: "Midnight",

	Background:    lipgloss.Color("#0b0b12"),
	Surface:       lipgloss.Color("#16161f"),
	Foreground:    lipgloss.Color("#e5e7eb"),
	ForegroundDim: lipgloss.Color("#6b7280"),

	Primary:   lipgloss.Color("#8B5CF6"),
	Secondary: lipgloss.Color("#EC4899"),
	Accent:    lipgloss.Color("#60A5FA"),

	Pending:   lipgloss.Color("#F59E0B"),
	Completed: lipgloss.Color("#10B981"),

	Success: lipgloss.Color("#10B981"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#EF4444"),

	Border:      lipgloss.Color("#2a2a3a"),
	BorderFocus: lipgloss.Color("#8B5CF6"),
	Selection:   lipgloss.Color("#2e2650"),

	Heat: [5]lipgloss.Color{"#1f1f2b", "#3b2a6b", "#5b3aa8", "#7c4fe0", "#a78bfa"},
}

// Current holds the active theme
var Current = Midnight

// MaxWidth caps the dashboard width; the sidebar needs room next to the grid
const MaxWidth = 120

// SidebarWidth is the fixed width of the navigation column
const SidebarWidth = 26

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Overlay centers a modal on the screen
func Overlay(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 || terminalHeight <= 0 {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// StatusColor returns the color of a task status label
func StatusColor(status string) lipgloss.Color {
	if status == "Completed" {
		return Current.Completed
	}
	return Current.Pending
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Headings
	Brand      lipgloss.Style
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Muted      lipgloss.Style
	Subtle     lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarActive   lipgloss.Style
	SectionLabel    lipgloss.Style

	// Summary tiles
	Tile       lipgloss.Style
	TileActive lipgloss.Style
	TileValue  lipgloss.Style

	// Task cards
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardTitle    lipgloss.Style
	Badge        lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Label        lipgloss.Style

	// Modals and panels
	Modal lipgloss.Style
	Panel lipgloss.Style

	// Feedback
	Banner    lipgloss.Style
	ErrorText lipgloss.Style
	Success   lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Brand: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Muted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Subtle: lipgloss.NewStyle().
			Foreground(t.Border),

		Sidebar: lipgloss.NewStyle().
			Width(SidebarWidth).
			Padding(1, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		SidebarItem: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		SidebarSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		SidebarActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Padding(0, 1).
			Bold(true),

		SectionLabel: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1).
			MarginTop(1),

		Tile: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		TileActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2),

		TileValue: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		CardSelected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		CardTitle: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Foreground).
			Padding(0, 2).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Bold(true),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(1, 3),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		Banner: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Error).
			Padding(0, 1).
			Bold(true),

		ErrorText: lipgloss.NewStyle().
			Foreground(t.Error),

		Success: lipgloss.NewStyle().
			Foreground(t.Success),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
	}
}
