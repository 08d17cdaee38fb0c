package overlay_test

import (
	"math"
	"testing"

	"github.com/calvinalkan/todowork/internal/overlay"
)

var workArea = overlay.Rect{Left: 100, Top: 50, Width: 1600, Height: 900}

func Test_Left_For_Ratio_Edges(t *testing.T) {
	t.Parallel()

	const width = 320.0

	if got := overlay.LeftForRatio(workArea, width, 0); got != workArea.Left {
		t.Errorf("LeftForRatio(0) = %v, want %v", got, workArea.Left)
	}

	if got := overlay.LeftForRatio(workArea, width, 1); got+width != workArea.Right() {
		t.Errorf("LeftForRatio(1) right edge = %v, want %v", got+width, workArea.Right())
	}

	if got := overlay.LeftForRatio(workArea, width, -3); got != workArea.Left {
		t.Errorf("LeftForRatio(-3) = %v, want clamp to %v", got, workArea.Left)
	}

	if got := overlay.LeftForRatio(workArea, width, 7); got+width != workArea.Right() {
		t.Errorf("LeftForRatio(7) should clamp to ratio 1, got left %v", got)
	}

	if got := overlay.LeftForRatio(workArea, width, math.NaN()); got != workArea.Left {
		t.Errorf("LeftForRatio(NaN) = %v, want %v", got, workArea.Left)
	}
}

func Test_Top_For_Ratio_Edges(t *testing.T) {
	t.Parallel()

	const height = 200.0

	if got := overlay.TopForRatio(workArea, height, 0); got != workArea.Top {
		t.Errorf("TopForRatio(0) = %v, want %v", got, workArea.Top)
	}

	if got := overlay.TopForRatio(workArea, height, 1); got+height != workArea.Bottom() {
		t.Errorf("TopForRatio(1) bottom edge = %v, want %v", got+height, workArea.Bottom())
	}
}

func Test_Ratio_Round_Trip(t *testing.T) {
	t.Parallel()

	const (
		width  = 320.0
		height = 240.0
		eps    = 1e-9
	)

	for i := 0; i <= 20; i++ {
		r := float64(i) / 20

		left := overlay.LeftForRatio(workArea, width, r)
		if got := overlay.RatioForLeft(workArea, width, left); math.Abs(got-r) > eps {
			t.Errorf("RatioForLeft(LeftForRatio(%v)) = %v", r, got)
		}

		top := overlay.TopForRatio(workArea, height, r)
		if got := overlay.RatioForTop(workArea, height, top); math.Abs(got-r) > eps {
			t.Errorf("RatioForTop(TopForRatio(%v)) = %v", r, got)
		}
	}
}

func Test_Ratio_Window_Does_Not_Fit(t *testing.T) {
	t.Parallel()

	tooWide := workArea.Width + 10

	for _, r := range []float64{0, 0.3, 1} {
		if got := overlay.LeftForRatio(workArea, tooWide, r); got != workArea.Left {
			t.Errorf("LeftForRatio(%v) with oversized window = %v, want %v", r, got, workArea.Left)
		}
	}

	if got := overlay.RatioForLeft(workArea, tooWide, 500); got != 0 {
		t.Errorf("RatioForLeft with oversized window = %v, want 0", got)
	}

	// Exactly filling the work-area degenerates the same way.
	if got := overlay.RatioForTop(workArea, workArea.Height, workArea.Top); got != 0 {
		t.Errorf("RatioForTop with full-height window = %v, want 0", got)
	}
}

func Test_Ratio_For_Left_Clamps_Outside_Positions(t *testing.T) {
	t.Parallel()

	if got := overlay.RatioForLeft(workArea, 320, -1000); got != 0 {
		t.Errorf("RatioForLeft(far left) = %v, want 0", got)
	}

	if got := overlay.RatioForLeft(workArea, 320, 10_000); got != 1 {
		t.Errorf("RatioForLeft(far right) = %v, want 1", got)
	}
}

func Test_Max_Height(t *testing.T) {
	t.Parallel()

	tests := []struct {
		height float64
		want   float64
	}{
		{height: 1000, want: 900},
		{height: 80, want: 80},
		{height: 40, want: 80},
	}

	for _, tt := range tests {
		if got := overlay.MaxHeight(overlay.Rect{Width: 100, Height: tt.height}); got != tt.want {
			t.Errorf("MaxHeight(h=%v) = %v, want %v", tt.height, got, tt.want)
		}
	}
}

func Test_Static_Screen_Empty_Is_Error(t *testing.T) {
	t.Parallel()

	if _, err := (overlay.StaticScreen{}).WorkArea(); err == nil {
		t.Error("empty StaticScreen should report an error")
	}

	wa, err := overlay.StaticScreen(workArea).WorkArea()
	if err != nil || wa != workArea {
		t.Errorf("WorkArea() = %v, %v", wa, err)
	}
}

func Test_Normalize_Color(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "#ffffff", want: "#FFFFFFFF"},
		{in: "#80ff0000", want: "#80FF0000"},
		{in: " #00aa11 ", want: "#FF00AA11"},
		{in: "ffffff", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#gg0000", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := overlay.NormalizeColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeColor(%q) = %q, want error", tt.in, got)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Errorf("NormalizeColor(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
