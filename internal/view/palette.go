package view

import "regexp"

// DefaultColor is the chart color before the user picks one.
const DefaultColor = "#FFD700"

// Palette is the set of colors offered by the color picker, in display order.
var Palette = []string{
	"#FF6B6B", "#FF8787", "#FFA07A", "#FFD700", "#98FB98",
	"#87CEEB", "#00CED1", "#9370DB", "#FF69B4", "#DDA0DD",
	"#F0E68C", "#90EE90", "#87CEFA", "#DDA0DD", "#FFB6C1",
}

var colorPattern = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// ValidColor reports whether c is a #RGB or #RRGGBB hex color.
func ValidColor(c string) bool {
	return colorPattern.MatchString(c)
}
