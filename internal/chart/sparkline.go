package chart

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the counts of p as one line of block characters, scaled
// from zero to the largest count.
func Sparkline(p core.Plot) string {
	if len(p.Points) == 0 {
		return ""
	}
	var max int64
	for _, pt := range p.Points {
		if pt.Count > max {
			max = pt.Count
		}
	}

	var b strings.Builder
	for _, pt := range p.Points {
		i := 0
		if max > 0 {
			i = int(pt.Count * int64(len(blocks)-1) / max)
		}
		b.WriteRune(blocks[i])
	}
	return b.String()
}

// ColoredSparkline renders Sparkline in the plot's color.
func ColoredSparkline(p core.Plot) string {
	line := Sparkline(p)
	if line == "" || !view.ValidColor(p.Color) {
		return line
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render(line)
}
