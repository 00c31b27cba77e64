package views

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/ui/styles"
)

const heatRows = 7

// Profile is the account overlay with the activity heat map
type Profile struct {
	styles *styles.Styles
	user   models.User
	tasks  []models.Task
	days   []analytics.Day
}

// NewProfile snapshots the strip at open time so synthetic cells stay put
// while the overlay is visible
func NewProfile(user models.User, tasks []models.Task, days []analytics.Day) *Profile {
	return &Profile{styles: styles.NewStyles(), user: user, tasks: tasks, days: days}
}

// Initials returns up to two uppercase letters from the display name
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func (p *Profile) View() string {
	s := p.styles
	name := p.user.Name()
	summary := analytics.Summarize(p.tasks)

	avatar := lipgloss.NewStyle().
		Foreground(styles.Current.Background).
		Background(styles.Current.Primary).
		Bold(true).
		Padding(0, 1).
		Render(Initials(name))

	verified := s.Muted.Render("unverified")
	if p.user.EmailVerified {
		verified = s.Success.Render("verified")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		avatar, "  ",
		lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render(name),
			s.Muted.Render(p.user.Email)+"  "+verified,
		),
	)

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Tile.Render(s.Muted.Render("Tasks")+"\n"+s.TileValue.Render(fmt.Sprint(summary.Total))),
		s.Tile.Render(s.Muted.Render("Done")+"\n"+s.TileValue.Render(fmt.Sprint(summary.Completed))),
		s.Tile.Render(s.Muted.Render("Rate")+"\n"+s.TileValue.Render(fmt.Sprintf("%d%%", summary.CompletionRate()))),
	)

	return s.Modal.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		stats,
		"",
		s.SectionLabel.Render("ACTIVITY"),
		p.renderHeatmap(),
		p.renderLegend(),
		"",
		s.Muted.Render("esc: close • L: sign out"),
	))
}

// renderHeatmap lays the strip out column-major, one week per column
func (p *Profile) renderHeatmap() string {
	cols := (len(p.days) + heatRows - 1) / heatRows
	var b strings.Builder
	for r := 0; r < heatRows; r++ {
		for c := 0; c < cols; c++ {
			i := c*heatRows + r
			if i >= len(p.days) {
				b.WriteString("  ")
				continue
			}
			b.WriteString(cell(p.days[i]))
			b.WriteString(" ")
		}
		if r < heatRows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cell(d analytics.Day) string {
	color := styles.Current.Heat[analytics.Intensity(d.Count)]
	glyph := "■"
	if d.Synthetic {
		glyph = "□"
	}
	return lipgloss.NewStyle().Foreground(color).Render(glyph)
}

func (p *Profile) renderLegend() string {
	s := p.styles
	var scale strings.Builder
	for i := range styles.Current.Heat {
		scale.WriteString(lipgloss.NewStyle().Foreground(styles.Current.Heat[i]).Render("■"))
	}
	return s.Muted.Render("less ") + scale.String() + s.Muted.Render(" more   ■ tasks  □ filler")
}
