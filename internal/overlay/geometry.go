package overlay

import (
	"errors"
	"math"
)

// ErrNoWorkArea is returned by a [Screen] that cannot report a usable work-area.
var ErrNoWorkArea = errors.New("work area unavailable")

// Rect is a screen rectangle in device-independent units.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Screen reports the work-area: the part of the screen not covered by
// taskbars or docked panels.
type Screen interface {
	WorkArea() (Rect, error)
}

// StaticScreen is a [Screen] with a fixed work-area.
type StaticScreen Rect

// WorkArea returns the rectangle, or [ErrNoWorkArea] if it is empty.
func (s StaticScreen) WorkArea() (Rect, error) {
	r := Rect(s)
	if !(r.Width > 0) || !(r.Height > 0) {
		return Rect{}, ErrNoWorkArea
	}

	return r, nil
}

// LeftForRatio maps ratio to an absolute left coordinate for a window of
// the given width. Ratio 0 puts the window at the work-area's left edge and 1
// puts its right edge on the work-area's right edge. A window wider than the
// work-area is pinned to the left edge.
func LeftForRatio(wa Rect, width, ratio float64) float64 {
	return posForRatio(wa.Left, wa.Right(), width, ratio)
}

// TopForRatio is the vertical counterpart of [LeftForRatio].
func TopForRatio(wa Rect, height, ratio float64) float64 {
	return posForRatio(wa.Top, wa.Bottom(), height, ratio)
}

// RatioForLeft is the inverse of [LeftForRatio], clamped to [0,1]. It is 0
// when the window does not fit the work-area.
func RatioForLeft(wa Rect, width, left float64) float64 {
	return ratioForPos(wa.Left, wa.Right(), width, left)
}

// RatioForTop is the inverse of [TopForRatio].
func RatioForTop(wa Rect, height, top float64) float64 {
	return ratioForPos(wa.Top, wa.Bottom(), height, top)
}

// ClampLeft keeps a window of the given width inside the work-area
// horizontally.
func ClampLeft(wa Rect, width, left float64) float64 {
	return clampPos(wa.Left, wa.Right(), width, left)
}

// ClampTop keeps a window of the given height inside the work-area
// vertically.
func ClampTop(wa Rect, height, top float64) float64 {
	return clampPos(wa.Top, wa.Bottom(), height, top)
}

// MaxHeight is the tallest the overlay may be on the given work-area.
func MaxHeight(wa Rect) float64 {
	return math.Max(minMaxHeight, wa.Height*maxHeightShare)
}

func posForRatio(lo, hi, size, ratio float64) float64 {
	ratio = clampRatio(ratio)

	maxPos := hi - size
	if maxPos <= lo {
		return lo
	}

	return lo + (maxPos-lo)*ratio
}

func ratioForPos(lo, hi, size, pos float64) float64 {
	maxPos := hi - size
	if maxPos <= lo {
		return 0
	}

	return clampRatio((pos - lo) / (maxPos - lo))
}

func clampPos(lo, hi, size, pos float64) float64 {
	maxPos := hi - size
	if maxPos <= lo || math.IsNaN(pos) || pos < lo {
		return lo
	}

	return math.Min(pos, maxPos)
}

// clampRatio maps NaN to 0.
func clampRatio(r float64) float64 {
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
