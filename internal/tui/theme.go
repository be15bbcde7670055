package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"todo-demo/internal/models"
)

// ThemeNames lists the themes in the order `t` cycles through them.
var ThemeNames = []string{"classic", "neon", "mono"}

// Theme bundles palette, symbols and borders. All views pull from the model's theme.
type Theme struct {
	Name string

	Title, Accent, Muted, Success, Pending, Error lipgloss.Style
	Selected, Done                                lipgloss.Style
	Pane, FocusedPane                             lipgloss.Style

	Checked, Unchecked string
}

// ThemeNamed returns the named theme; unknown names get classic.
func ThemeNamed(name string) Theme {
	switch strings.ToLower(name) {
	case "neon":
		border := lipgloss.RoundedBorder()
		return Theme{
			Name:        "neon",
			Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
			Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
			Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			Pending:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("13")),
			Done:        lipgloss.NewStyle().Faint(true).Strikethrough(true),
			Pane:        lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("8")).Padding(0, 1),
			FocusedPane: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("13")).Padding(0, 1),
			Checked:     "◼",
			Unchecked:   "◻",
		}
	case "mono":
		plain := lipgloss.NewStyle()
		border := lipgloss.NormalBorder()
		return Theme{
			Name:        "mono",
			Title:       plain.Bold(true),
			Accent:      plain,
			Muted:       plain,
			Success:     plain,
			Pending:     plain,
			Error:       plain.Bold(true),
			Selected:    plain.Reverse(true),
			Done:        plain,
			Pane:        plain.Border(border).Padding(0, 1),
			FocusedPane: plain.Border(lipgloss.ThickBorder()).Padding(0, 1),
			Checked:     "[x]",
			Unchecked:   "[ ]",
		}
	default:
		border := lipgloss.RoundedBorder()
		return Theme{
			Name:        "classic",
			Title:       lipgloss.NewStyle().Bold(true),
			Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			Muted:       lipgloss.NewStyle().Faint(true),
			Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			Pending:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Selected:    lipgloss.NewStyle().Bold(true).Reverse(true),
			Done:        lipgloss.NewStyle().Faint(true).Strikethrough(true),
			Pane:        lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("8")).Padding(0, 1),
			FocusedPane: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("12")).Padding(0, 1),
			Checked:     "☑",
			Unchecked:   "☐",
		}
	}
}

// Next returns the theme after t in ThemeNames.
func (t Theme) Next() Theme {
	for i, n := range ThemeNames {
		if n == t.Name {
			return ThemeNamed(ThemeNames[(i+1)%len(ThemeNames)])
		}
	}
	return ThemeNamed(ThemeNames[0])
}

// PriorityStyle colours a priority badge.
func (t Theme) PriorityStyle(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityP1:
		return t.Error
	case models.PriorityP2:
		return t.Pending
	default:
		return t.Muted
	}
}
