// Package overlay keeps the overlay window's placement and appearance.
//
// Position is stored both as absolute coordinates and as a pair of ratios in
// [0,1] relative to the screen work-area, so the overlay lands in the same
// relative spot after a resolution change. Every change is persisted
// immediately through the injected persist callback. Screen failures are never
// surfaced: conversions fall back to ratio 0 and positions stay unchanged.
package overlay

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/todowork/internal/uistate"
)

// PersistFunc stores a snapshot of the overlay state.
type PersistFunc func(uistate.State) error

// Options configure a [Controller].
type Options struct {
	Screen  Screen
	Persist PersistFunc
	Logger  *log.Logger
}

// Geometry is the overlay window's absolute bounds.
type Geometry struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Controller is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	screen  Screen
	persist PersistFunc
	logger  *log.Logger

	geom      Geometry
	leftRatio float64
	topRatio  float64
	visible   bool
	look      Appearance
}

// NewController returns a visible overlay with default size and appearance,
// placed in the top-right corner of the work-area.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	screen := opts.Screen
	if screen == nil {
		screen = StaticScreen{}
	}

	c := &Controller{
		screen:    screen,
		persist:   opts.Persist,
		logger:    logger,
		geom:      Geometry{Width: DefaultWidth, Height: DefaultHeight},
		leftRatio: 1,
		topRatio:  0,
		visible:   true,
		look:      DefaultAppearance(),
	}

	if wa, ok := c.workArea(); ok {
		c.geom.Height = math.Min(c.geom.Height, MaxHeight(wa))
		c.geom.Left = LeftForRatio(wa, c.geom.Width, c.leftRatio)
		c.geom.Top = TopForRatio(wa, c.geom.Height, c.topRatio)
	}

	return c
}

// Geometry returns the current bounds.
func (c *Controller) Geometry() Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.geom
}

// Ratios returns the stored position ratios.
func (c *Controller) Ratios() (left, top float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.leftRatio, c.topRatio
}

// LeftToRatio derives the horizontal ratio from the current position.
// It is 0 when the work-area is unavailable or the overlay does not fit.
func (c *Controller) LeftToRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	wa, ok := c.workArea()
	if !ok {
		return 0
	}

	return RatioForLeft(wa, c.geom.Width, c.geom.Left)
}

// TopToRatio is the vertical counterpart of [Controller.LeftToRatio].
func (c *Controller) TopToRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	wa, ok := c.workArea()
	if !ok {
		return 0
	}

	return RatioForTop(wa, c.geom.Height, c.geom.Top)
}

// SetLeftRatio places the overlay horizontally at ratio (clamped to [0,1])
// and persists.
func (c *Controller) SetLeftRatio(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ratio = clampRatio(ratio)
	c.leftRatio = ratio

	if wa, ok := c.workArea(); ok {
		c.geom.Left = LeftForRatio(wa, c.geom.Width, ratio)
	}

	c.persistLocked()
}

// SetTopRatio places the overlay vertically at ratio (clamped to [0,1]) and
// persists.
func (c *Controller) SetTopRatio(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ratio = clampRatio(ratio)
	c.topRatio = ratio

	if wa, ok := c.workArea(); ok {
		c.geom.Top = TopForRatio(wa, c.geom.Height, ratio)
	}

	c.persistLocked()
}

// Move sets the absolute position, clamped into the work-area, and persists.
// Non-finite coordinates are ignored.
func (c *Controller) Move(left, top float64) {
	if !finite(left) || !finite(top) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.geom.Left, c.geom.Top = left, top
	c.clampLocked()
	c.persistLocked()
}

// Nudge moves the overlay horizontally by dx, clamped, and persists.
func (c *Controller) Nudge(dx float64) {
	if !finite(dx) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.geom.Left += dx
	c.clampLocked()
	c.persistLocked()
}

// Resize sets the overlay size. Height is capped to [MaxHeight] of the
// work-area and the position is re-clamped. The new state is persisted.
func (c *Controller) Resize(width, height float64) error {
	if !finite(width) || !finite(height) || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrInvalidSize, width, height)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.geom.Width, c.geom.Height = width, height
	c.clampLocked()
	c.persistLocked()

	return nil
}

// Visible reports whether the overlay should be shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.visible
}

// SetVisible shows or hides the overlay and persists.
func (c *Controller) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = visible
	c.persistLocked()
}

// ToggleVisible flips visibility, persists, and returns the new value.
func (c *Controller) ToggleVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = !c.visible
	c.persistLocked()

	return c.visible
}

// Appearance returns the current visual settings.
func (c *Controller) Appearance() Appearance {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.look
}

// SetShowBackground toggles the backdrop and persists.
func (c *Controller) SetShowBackground(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.look.ShowBackground = show
	c.persistLocked()
}

// SetBackgroundOpacity clamps v to [0,1] and persists. NaN is ignored.
func (c *Controller) SetBackgroundOpacity(v float64) {
	if math.IsNaN(v) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.look.BackgroundOpacity = clampUnit(v)
	c.persistLocked()
}

// SetTextOpacity clamps v to [0,1] and persists. NaN is ignored.
func (c *Controller) SetTextOpacity(v float64) {
	if math.IsNaN(v) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.look.TextOpacity = clampUnit(v)
	c.persistLocked()
}

// SetTextFontSize clamps v to [MinFontSize, MaxFontSize] and persists.
// NaN is ignored.
func (c *Controller) SetTextFontSize(v float64) {
	if math.IsNaN(v) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.look.FontSize = clampFontSize(v)
	c.persistLocked()
}

// SetTextColor validates and stores the text color, then persists.
func (c *Controller) SetTextColor(color string) error {
	normalized, err := NormalizeColor(color)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.look.TextColor = normalized
	c.persistLocked()

	return nil
}

// State returns a snapshot for persistence.
func (c *Controller) State() uistate.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stateLocked()
}

// Restore applies a persisted state without persisting it back. Unset
// values keep their defaults and out-of-range values are clamped. A width
// wider than 95% of the work-area resets to [DefaultWidth]. When no absolute
// position was saved the ratios place the overlay. The stored ratios are then
// re-derived from the final position.
func (c *Controller) Restore(s uistate.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = s.OverlayVisible

	if s.OverlayWidth.IsSet() && s.OverlayWidth > 0 {
		c.geom.Width = float64(s.OverlayWidth)
	}

	wa, haveWA := c.workArea()
	if haveWA && c.geom.Width > wa.Width*maxWidthShare {
		c.geom.Width = DefaultWidth
	}

	c.look.ShowBackground = s.OverlayShowBackground
	c.look.BackgroundOpacity = clampUnit(s.OverlayBackgroundOpacity.Or(DefaultBackgroundOpacity))
	c.look.TextOpacity = clampUnit(s.OverlayTextOpacity.Or(DefaultTextOpacity))
	c.look.FontSize = clampFontSize(s.OverlayTextFontSize.Or(DefaultFontSize))

	if s.OverlayTextColor != "" {
		color, err := NormalizeColor(s.OverlayTextColor)
		if err != nil {
			c.logger.Warn("ignoring saved overlay color", "err", err)
		} else {
			c.look.TextColor = color
		}
	}

	if s.OverlayLeftRatio.IsSet() {
		c.leftRatio = clampRatio(float64(s.OverlayLeftRatio))
	}

	if s.OverlayTopRatio.IsSet() {
		c.topRatio = clampRatio(float64(s.OverlayTopRatio))
	}

	if !haveWA {
		if s.OverlayLeft.IsSet() && s.OverlayTop.IsSet() {
			c.geom.Left, c.geom.Top = float64(s.OverlayLeft), float64(s.OverlayTop)
		}

		return
	}

	c.geom.Height = math.Min(c.geom.Height, MaxHeight(wa))

	if s.OverlayLeft.IsSet() && s.OverlayTop.IsSet() {
		c.geom.Left, c.geom.Top = float64(s.OverlayLeft), float64(s.OverlayTop)
	} else {
		c.geom.Left = LeftForRatio(wa, c.geom.Width, c.leftRatio)
		c.geom.Top = TopForRatio(wa, c.geom.Height, c.topRatio)
	}

	c.clampLocked()
}

// clampLocked caps the height, keeps the window inside the work-area and
// re-derives the ratios. Without a work-area the geometry is left alone.
func (c *Controller) clampLocked() {
	wa, ok := c.workArea()
	if !ok {
		return
	}

	c.geom.Height = math.Min(c.geom.Height, MaxHeight(wa))
	c.geom.Left = ClampLeft(wa, c.geom.Width, c.geom.Left)
	c.geom.Top = ClampTop(wa, c.geom.Height, c.geom.Top)
	c.leftRatio = RatioForLeft(wa, c.geom.Width, c.geom.Left)
	c.topRatio = RatioForTop(wa, c.geom.Height, c.geom.Top)
}

func (c *Controller) stateLocked() uistate.State {
	return uistate.State{
		OverlayLeft:              uistate.Float(c.geom.Left),
		OverlayTop:               uistate.Float(c.geom.Top),
		OverlayWidth:             uistate.Float(c.geom.Width),
		OverlayVisible:           c.visible,
		OverlayShowBackground:    c.look.ShowBackground,
		OverlayBackgroundOpacity: uistate.Float(c.look.BackgroundOpacity),
		OverlayTextOpacity:       uistate.Float(c.look.TextOpacity),
		OverlayTextFontSize:      uistate.Float(c.look.FontSize),
		OverlayTextColor:         c.look.TextColor,
		OverlayLeftRatio:         uistate.Float(c.leftRatio),
		OverlayTopRatio:          uistate.Float(c.topRatio),
	}
}

// persistLocked writes the state. Failures are logged, never returned.
func (c *Controller) persistLocked() {
	if c.persist == nil {
		return
	}

	if err := c.persist(c.stateLocked()); err != nil {
		c.logger.Warn("saving overlay state failed", "err", err)
	}
}

func (c *Controller) workArea() (Rect, bool) {
	wa, err := c.screen.WorkArea()
	if err != nil {
		c.logger.Debug("work area unavailable", "err", err)

		return Rect{}, false
	}

	return wa, true
}
