package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/calvinalkan/todowork/internal/overlay"

	flag "github.com/spf13/pflag"
)

var (
	errUnknownOverlayAction = errors.New("unknown overlay action")
	errNothingToChange      = errors.New("no settings given")
	errInvalidToggle        = errors.New("must be on or off")
	errNudgeArg             = errors.New("nudge requires a pixel offset")
)

// OverlayCmd returns the overlay command.
func OverlayCmd(rt *deps) *Command {
	fs := flag.NewFlagSet("overlay", flag.ContinueOnError)
	fs.Float64("left", 0, "Horizontal position ratio 0..1 (pos)")
	fs.Float64("top", 0, "Vertical position ratio 0..1 (pos)")
	fs.Float64("width", 0, "Overlay width (size)")
	fs.Float64("height", 0, "Overlay height (size)")
	fs.String("background", "", "Show the backdrop: on|off (style)")
	fs.Float64("background-opacity", 0, "Backdrop opacity 0..1 (style)")
	fs.Float64("text-opacity", 0, "Text opacity 0..1 (style)")
	fs.Float64("font-size", 0, "Font size 6..72 (style)")
	fs.String("color", "", "Text color #RRGGBB or #AARRGGBB (style)")

	return &Command{
		Flags: fs,
		Usage: "overlay [action] [flags]",
		Short: "Show or change the overlay",
		Long: `Show or change the pinned-task overlay.

Actions:
  status        Print placement and appearance (default)
  show, hide    Set visibility
  toggle        Flip visibility
  preview       Render the overlay in the terminal
  pos           Place by ratio: --left R --top R
  nudge <dx>    Move horizontally by dx (use -- before negative values)
  size          Resize: --width W --height H
  style         Change appearance flags`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execOverlay(io, rt, fs, args)
		},
	}
}

func execOverlay(io *IO, rt *deps, fs *flag.FlagSet, args []string) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "status", "show", "hide", "toggle", "preview", "pos", "nudge", "size", "style":
	default:
		return fmt.Errorf("%w: %s", errUnknownOverlayAction, action)
	}

	a, err := rt.app()
	if err != nil {
		return err
	}

	ov := a.Overlay()

	switch action {
	case "status":
		printOverlayStatus(io, ov)
	case "show":
		ov.SetVisible(true)
		io.Println("overlay visible")
	case "hide":
		ov.SetVisible(false)
		io.Println("overlay hidden")
	case "toggle":
		if ov.ToggleVisible() {
			io.Println("overlay visible")
		} else {
			io.Println("overlay hidden")
		}
	case "preview":
		io.Println(renderPreview(lipgloss.NewRenderer(io.Out()), ov, a.Store().Pinned()))
	case "pos":
		err = overlayPos(ov, fs)
	case "nudge":
		err = overlayNudge(ov, args[1:])
	case "size":
		err = overlaySize(io, ov, fs)
	case "style":
		err = overlayStyle(io, ov, fs)
	}

	if err != nil {
		return err
	}

	switch action {
	case "pos", "nudge", "size", "style":
		printOverlayStatus(io, ov)
	}

	return nil
}

func overlayPos(ov *overlay.Controller, fs *flag.FlagSet) error {
	if !fs.Changed("left") && !fs.Changed("top") {
		return fmt.Errorf("%w: pos needs --left and/or --top", errNothingToChange)
	}

	if fs.Changed("left") {
		left, _ := fs.GetFloat64("left")
		ov.SetLeftRatio(left)
	}

	if fs.Changed("top") {
		top, _ := fs.GetFloat64("top")
		ov.SetTopRatio(top)
	}

	return nil
}

func overlayNudge(ov *overlay.Controller, args []string) error {
	if len(args) == 0 {
		return errNudgeArg
	}

	dx, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q", errNudgeArg, args[0])
	}

	ov.Nudge(dx)

	return nil
}

func overlaySize(io *IO, ov *overlay.Controller, fs *flag.FlagSet) error {
	if !fs.Changed("width") && !fs.Changed("height") {
		return fmt.Errorf("%w: size needs --width and/or --height", errNothingToChange)
	}

	g := ov.Geometry()

	if fs.Changed("width") {
		g.Width, _ = fs.GetFloat64("width")
	}

	if fs.Changed("height") {
		g.Height, _ = fs.GetFloat64("height")
	}

	if err := ov.Resize(g.Width, g.Height); err != nil {
		return err
	}

	warnAdjusted(io, "height", g.Height, ov.Geometry().Height)

	return nil
}

func overlayStyle(io *IO, ov *overlay.Controller, fs *flag.FlagSet) error {
	names := []string{"background", "background-opacity", "text-opacity", "font-size", "color"}

	changed := false

	for _, name := range names {
		if fs.Changed(name) {
			changed = true
		}
	}

	if !changed {
		return fmt.Errorf("%w: style needs at least one of --%s, --%s, --%s, --%s, --%s",
			errNothingToChange, names[0], names[1], names[2], names[3], names[4])
	}

	// Validate everything before applying anything.
	var showBackground bool

	if fs.Changed("background") {
		v, _ := fs.GetString("background")

		switch v {
		case "on", "true", "yes":
			showBackground = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("--background %w, got %q", errInvalidToggle, v)
		}
	}

	var color string

	if fs.Changed("color") {
		v, _ := fs.GetString("color")

		normalized, err := overlay.NormalizeColor(v)
		if err != nil {
			return err
		}

		color = normalized
	}

	if fs.Changed("background") {
		ov.SetShowBackground(showBackground)
	}

	if fs.Changed("background-opacity") {
		v, _ := fs.GetFloat64("background-opacity")
		ov.SetBackgroundOpacity(v)
		warnAdjusted(io, "background opacity", v, ov.Appearance().BackgroundOpacity)
	}

	if fs.Changed("text-opacity") {
		v, _ := fs.GetFloat64("text-opacity")
		ov.SetTextOpacity(v)
		warnAdjusted(io, "text opacity", v, ov.Appearance().TextOpacity)
	}

	if fs.Changed("font-size") {
		v, _ := fs.GetFloat64("font-size")
		ov.SetTextFontSize(v)
		warnAdjusted(io, "font size", v, ov.Appearance().FontSize)
	}

	if color != "" {
		return ov.SetTextColor(color)
	}

	return nil
}

// warnAdjusted records a warning when a setter clamped the requested value.
func warnAdjusted(io *IO, what string, requested, applied float64) {
	if requested == applied {
		return
	}

	io.Warn(what+" "+num(requested)+" out of range", "using "+num(applied))
}

func printOverlayStatus(io *IO, ov *overlay.Controller) {
	g := ov.Geometry()
	look := ov.Appearance()
	leftRatio, topRatio := ov.Ratios()

	io.Printf("visible=%t\n", ov.Visible())
	io.Printf("position=%s,%s\n", num(g.Left), num(g.Top))
	io.Printf("size=%sx%s\n", num(g.Width), num(g.Height))
	io.Printf("ratio=%s,%s\n", num(leftRatio), num(topRatio))
	io.Printf("background=%s\n", onOff(look.ShowBackground))
	io.Printf("background_opacity=%s\n", num(look.BackgroundOpacity))
	io.Printf("text_opacity=%s\n", num(look.TextOpacity))
	io.Printf("font_size=%s\n", num(look.FontSize))
	io.Printf("color=%s\n", look.TextColor)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(b bool) string {
	if b {
		return "on"
	}

	return "off"
}
