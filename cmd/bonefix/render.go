package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/goopsie/bonefix/pkg/modbuild"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B92E5"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#C49C7B")).
			Padding(0, 1)
)

func statusStyle(s modbuild.Status) lipgloss.Style {
	switch s {
	case modbuild.StatusPatched:
		return okStyle
	case modbuild.StatusSkipped:
		return warnStyle
	default:
		return errStyle
	}
}

func renderSkeletonLine(rep modbuild.SkeletonReport) string {
	line := fmt.Sprintf("%-8s %s/%s", rep.Status, rep.Mod, filepath.Base(rep.Path))
	if rep.Status == modbuild.StatusPatched {
		line += dimStyle.Render(fmt.Sprintf("  bones=%d extras=%d animations=%d", rep.Bones, rep.Extras, len(rep.Animations)))
	}
	return statusStyle(rep.Status).Render(line)
}

// renderSummary formats a batch summary as a bordered block.
func renderSummary(s *modbuild.Summary) string {
	t := s.Totals()

	var lines []string
	lines = append(lines, titleStyle.Render("bonefix build"))
	lines = append(lines, fmt.Sprintf("mods: %d  time: %s", t.Mods, s.Duration.Round(time.Millisecond)))
	lines = append(lines, fmt.Sprintf("skeletons: %s  %s  %s",
		okStyle.Render(fmt.Sprintf("patched=%d", t.SkeletonsPatched)),
		warnStyle.Render(fmt.Sprintf("skipped=%d", t.SkeletonsSkipped)),
		errStyle.Render(fmt.Sprintf("failed=%d", t.SkeletonsFailed))))
	lines = append(lines, fmt.Sprintf("animations: %s  %s",
		okStyle.Render(fmt.Sprintf("patched=%d", t.AnimationsPatched)),
		errStyle.Render(fmt.Sprintf("failed=%d", t.AnimationsFailed))))
	if t.Warnings > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("warnings: %d", t.Warnings)))
	}

	for _, m := range s.Mods {
		if m.Err != nil {
			lines = append(lines, errStyle.Render(fmt.Sprintf("%s: %v", m.Name, m.Err)))
		}
		for _, rep := range m.Skeletons {
			if rep.Status == modbuild.StatusPatched {
				continue
			}
			lines = append(lines, renderSkeletonLine(rep))
			lines = append(lines, "  "+rep.Err.Error())
			if rep.Hint != "" {
				lines = append(lines, dimStyle.Render("  hint: "+rep.Hint))
			}
		}
	}

	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}
