package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/calvinalkan/todowork/internal/overlay"
	"github.com/calvinalkan/todowork/internal/todo"
)

const (
	// Average glyph width as a share of the font size.
	glyphWidth = 0.6

	minPreviewColumns = 12
	maxPreviewColumns = 100

	// Desktop gray the backdrop is blended over.
	desktopGray = 0x80
)

// renderPreview draws the overlay as a terminal box sized from its pixel
// width and font size. Colors are dropped when r has no color profile.
func renderPreview(r *lipgloss.Renderer, ov *overlay.Controller, pinned []todo.Task) string {
	if !ov.Visible() {
		return "(overlay hidden)"
	}

	look := ov.Appearance()

	style := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(previewColumns(ov.Geometry().Width, look.FontSize)).
		Foreground(lipgloss.Color(rgb(look.TextColor)))

	if alpha(look.TextColor)*look.TextOpacity < 0.5 {
		style = style.Faint(true)
	}

	if look.ShowBackground {
		style = style.Background(lipgloss.Color(backdrop(look.BackgroundOpacity)))
	}

	lines := make([]string, 0, len(pinned))
	for _, t := range pinned {
		lines = append(lines, "• "+t.Text)
	}

	if len(lines) == 0 {
		lines = append(lines, "no pinned tasks")
	}

	return style.Render(strings.Join(lines, "\n"))
}

func previewColumns(width, fontSize float64) int {
	if fontSize <= 0 {
		fontSize = overlay.DefaultFontSize
	}

	cols := int(width / (fontSize * glyphWidth))

	return min(maxPreviewColumns, max(minPreviewColumns, cols))
}

// rgb drops the alpha channel of a normalized #AARRGGBB color.
func rgb(color string) string {
	if len(color) == 9 {
		return "#" + color[3:]
	}

	return color
}

// alpha returns the alpha channel of a normalized #AARRGGBB color in [0,1].
func alpha(color string) float64 {
	if len(color) != 9 {
		return 1
	}

	v, err := strconv.ParseUint(color[1:3], 16, 8)
	if err != nil {
		return 1
	}

	return float64(v) / 255
}

// backdrop blends black at the given opacity over the desktop gray.
func backdrop(opacity float64) string {
	level := int(math.Round(desktopGray * (1 - opacity)))

	return fmt.Sprintf("#%02X%02X%02X", level, level, level)
}
