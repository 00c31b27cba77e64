package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/insights"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/ui/styles"
)

const barWidth = 30

// AnalyticsPanel renders the charts of the analytics view and the AI
// insight section
type AnalyticsPanel struct {
	styles  *styles.Styles
	spinner spinner.Model

	pending bool
	insight *insights.Insight

	renderer *glamour.TermRenderer
	wrap     int
}

// NewAnalyticsPanel creates an empty panel
func NewAnalyticsPanel() *AnalyticsPanel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return &AnalyticsPanel{styles: styles.NewStyles(), spinner: sp}
}

// Pending reports whether a generation request is in flight
func (p *AnalyticsPanel) Pending() bool { return p.pending }

// Insight returns the last result, nil before the first one
func (p *AnalyticsPanel) Insight() *insights.Insight { return p.insight }

// Generate starts a request unless one is already running
func (p *AnalyticsPanel) Generate() tea.Cmd {
	if p.pending {
		return nil
	}
	p.pending = true
	return tea.Batch(p.spinner.Tick, func() tea.Msg { return GenerateInsights{} })
}

// Finish stores a result. Results arriving after Reset are dropped.
func (p *AnalyticsPanel) Finish(in insights.Insight) {
	if !p.pending {
		return
	}
	p.pending = false
	p.insight = &in
}

// Reset forgets the insight when the analytics view is left
func (p *AnalyticsPanel) Reset() {
	p.pending = false
	p.insight = nil
}

func (p *AnalyticsPanel) tick(msg spinner.TickMsg) tea.Cmd {
	if !p.pending {
		return nil
	}
	var cmd tea.Cmd
	p.spinner, cmd = p.spinner.Update(msg)
	return cmd
}

// View renders the panel for the given tasks
func (p *AnalyticsPanel) View(tasks []models.Task, workspaces []models.Workspace, width int) string {
	s := p.styles
	summary := analytics.Summarize(tasks)

	numbers := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Tile.Render(s.Muted.Render("Total")+"\n"+s.TileValue.Render(fmt.Sprint(summary.Total))),
		s.Tile.Render(s.Muted.Render("Completion")+"\n"+s.TileValue.Render(fmt.Sprintf("%d%%", summary.CompletionRate()))),
		s.Tile.Render(s.Muted.Render("Active")+"\n"+s.TileValue.Render(fmt.Sprint(summary.Pending))),
	)

	var load strings.Builder
	load.WriteString(s.SectionLabel.Render("WORKSPACE LOAD"))
	load.WriteString("\n")
	bars := analytics.WorkspaceLoad(tasks, workspaces)
	peak := 0
	for _, wc := range bars {
		if wc.Tasks > peak {
			peak = wc.Tasks
		}
	}
	for _, wc := range bars {
		label := truncate(wc.Workspace.Icon+" "+wc.Workspace.Name, 20)
		fill := 0
		if peak > 0 {
			fill = wc.Tasks * barWidth / peak
		}
		bar := lipgloss.NewStyle().Foreground(styles.Current.Primary).Render(strings.Repeat("█", fill)) +
			s.Subtle.Render(strings.Repeat("░", barWidth-fill))
		load.WriteString(fmt.Sprintf("%-20s %s %d\n", label, bar, wc.Tasks))
	}

	var split strings.Builder
	split.WriteString(s.SectionLabel.Render("STATUS SPLIT"))
	split.WriteString("\n")
	for _, sl := range analytics.StatusSplit(tasks) {
		fill := int(summary.Share(sl.Count) * barWidth)
		color := styles.StatusColor(string(sl.Status))
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", fill)) +
			s.Subtle.Render(strings.Repeat("░", barWidth-fill))
		split.WriteString(fmt.Sprintf("%-20s %s %d\n", sl.Status, bar, sl.Count))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		numbers,
		load.String(),
		split.String(),
		p.renderInsight(width),
	)
}

func (p *AnalyticsPanel) renderInsight(width int) string {
	s := p.styles
	header := s.SectionLabel.Render("AI INSIGHTS")

	switch {
	case p.pending:
		return header + "\n" + s.Muted.Render(p.spinner.View()+" Analyzing your workload...")
	case p.insight == nil:
		return header + "\n" + s.Muted.Render("Press g to generate a review of your tasks.")
	}

	md := "### Project Review\n\n" + p.insight.Review +
		"\n\n### Recommendations\n\n" + p.insight.Recommendations + "\n"
	out := p.insight.Review + "\n\n" + p.insight.Recommendations
	if r := p.markdown(width); r != nil {
		if rendered, err := r.Render(md); err == nil {
			out = rendered
		}
	}
	return header + "\n" + strings.TrimRight(out, "\n") + "\n" + s.Muted.Render("g: regenerate")
}

func (p *AnalyticsPanel) markdown(width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	if p.renderer != nil && p.wrap == wrap {
		return p.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	p.renderer = r
	p.wrap = wrap
	return r
}

// truncate cuts s to n cells with an ellipsis
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
