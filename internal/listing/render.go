// SPDX-License-Identifier: MPL-2.0

package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette of the listing, shared with the CLI.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorWarning   = lipgloss.Color("#F59E0B")
)

type (
	// RenderConfig controls terminal output of a List.
	RenderConfig struct {
		UseColors bool
		// Command is the invocation shown in hints, e.g. "tusks list".
		Command string
	}

	styles struct {
		title   lipgloss.Style
		group   lipgloss.Style
		task    lipgloss.Style
		help    lipgloss.Style
		marker  lipgloss.Style
		summary lipgloss.Style
	}
)

func newStyles(useColors bool) styles {
	if !useColors {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		group:   lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
		task:    lipgloss.NewStyle().Foreground(ColorHighlight),
		help:    lipgloss.NewStyle().Foreground(ColorMuted),
		marker:  lipgloss.NewStyle().Foreground(ColorPrimary),
		summary: lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),
	}
}

// Render writes the list. Task names of one group are padded to a common
// width so their help text lines up.
func (l *List) Render(w io.Writer, cfg RenderConfig) error {
	st := newStyles(cfg.UseColors)
	if cfg.Command == "" {
		cfg.Command = "tusks list"
	}

	var sb strings.Builder
	sb.WriteString(st.title.Render("Tasks of " + l.Unit))
	sb.WriteString("\n")
	if len(l.Groups) == 0 {
		sb.WriteString(st.summary.Render("  (no tasks)"))
		sb.WriteString("\n")
	}

	for _, g := range l.Groups {
		sb.WriteString("\n")
		if header := groupHeader(g); header != "" {
			sb.WriteString(st.group.Render(header))
			if g.Help != "" {
				sb.WriteString("  ")
				sb.WriteString(st.help.Render(g.Help))
			}
			sb.WriteString("\n")
		}

		if g.Collapsed {
			fmt.Fprintf(&sb, "  %s\n", st.summary.Render(fmt.Sprintf(
				"%d tasks, run '%s --all' to show them", len(g.Tasks), cfg.Command)))
			continue
		}

		width := 0
		for _, t := range g.Tasks {
			width = max(width, len(t.Name))
		}
		for _, t := range g.Tasks {
			sb.WriteString("  ")
			sb.WriteString(st.task.Render(t.Name))
			line := strings.Repeat(" ", width-len(t.Name))
			if t.Help != "" {
				line += "  " + st.help.Render(t.Help)
			}
			if t.Default {
				line += " " + st.marker.Render("(default)")
			}
			sb.WriteString(strings.TrimRight(line, " "))
			sb.WriteString("\n")
		}
	}

	if l.Truncated > 0 {
		sb.WriteString("\n")
		sb.WriteString(st.summary.Render(fmt.Sprintf("%d scope(s) deeper than the maximum depth are not shown", l.Truncated)))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func groupHeader(g Group) string {
	switch {
	case g.Link != "":
		return g.Name + " -> " + g.Link
	default:
		return g.Name
	}
}
