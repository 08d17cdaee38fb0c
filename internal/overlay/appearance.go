package overlay

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Appearance defaults and limits.
const (
	DefaultWidth             = 320.0
	DefaultHeight            = 200.0
	DefaultBackgroundOpacity = 0.67
	DefaultTextOpacity       = 1.0
	DefaultFontSize          = 16.0
	DefaultTextColor         = "#FFFFFFFF"

	MinFontSize = 6.0
	MaxFontSize = 72.0

	// A restored width above this share of the work-area falls back to
	// DefaultWidth.
	maxWidthShare = 0.95

	minMaxHeight   = 80.0
	maxHeightShare = 0.9
)

// ErrInvalidColor is returned for text colors that are not #RRGGBB or #AARRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// ErrInvalidSize is returned by Resize for non-positive or non-finite sizes.
var ErrInvalidSize = errors.New("invalid size")

// Appearance holds the overlay's visual settings.
type Appearance struct {
	ShowBackground    bool
	BackgroundOpacity float64
	TextOpacity       float64
	FontSize          float64
	// TextColor is normalized to upper-case #AARRGGBB.
	TextColor string
}

// DefaultAppearance returns the settings used when nothing was persisted.
func DefaultAppearance() Appearance {
	return Appearance{
		BackgroundOpacity: DefaultBackgroundOpacity,
		TextOpacity:       DefaultTextOpacity,
		FontSize:          DefaultFontSize,
		TextColor:         DefaultTextColor,
	}
}

// NormalizeColor validates a #RRGGBB or #AARRGGBB color and returns it as
// upper-case #AARRGGBB. Six-digit colors are fully opaque.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)

	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return "", fmt.Errorf("%w: %q (want #RRGGBB or #AARRGGBB)", ErrInvalidColor, s)
	}

	for _, c := range hex {
		if !isHexDigit(c) {
			return "", fmt.Errorf("%w: %q (want #RRGGBB or #AARRGGBB)", ErrInvalidColor, s)
		}
	}

	if len(hex) == 6 {
		hex = "FF" + hex
	}

	return "#" + strings.ToUpper(hex), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clampFontSize(v float64) float64 {
	return math.Min(MaxFontSize, math.Max(MinFontSize, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
