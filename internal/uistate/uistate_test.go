package uistate_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/todowork/internal/fs"
	"github.com/calvinalkan/todowork/internal/uistate"
)

// equateNaN makes unset Floats compare equal.
var equateNaN = cmp.Comparer(func(a, b uistate.Float) bool {
	return a == b || (!a.IsSet() && !b.IsSet())
})

func Test_Float_Unmarshal_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantSet bool
	}{
		{in: `0.25`, want: 0.25, wantSet: true},
		{in: `-12`, want: -12, wantSet: true},
		{in: `"0.5"`, want: 0.5, wantSet: true},
		{in: `null`},
		{in: `"NaN"`},
		{in: `"Infinity"`},
		{in: `"left"`},
		{in: `true`},
		{in: `{"x": 1}`},
		{in: `[1]`},
	}

	for _, tt := range tests {
		var f uistate.Float

		if err := f.UnmarshalJSON([]byte(tt.in)); err != nil {
			t.Errorf("UnmarshalJSON(%s): unexpected error %v", tt.in, err)

			continue
		}

		if f.IsSet() != tt.wantSet {
			t.Errorf("UnmarshalJSON(%s).IsSet() = %v, want %v", tt.in, f.IsSet(), tt.wantSet)

			continue
		}

		if tt.wantSet && float64(f) != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %v, want %v", tt.in, float64(f), tt.want)
		}
	}
}

func Test_Float_Or(t *testing.T) {
	t.Parallel()

	if got := uistate.Unset().Or(16); got != 16 {
		t.Errorf("Unset().Or(16) = %v, want 16", got)
	}

	if got := uistate.Float(12).Or(16); got != 12 {
		t.Errorf("Float(12).Or(16) = %v, want 12", got)
	}

	if uistate.Float(math.Inf(1)).IsSet() {
		t.Error("+Inf should count as unset")
	}
}

func Test_Parse_Absent_Keys_Keep_Defaults(t *testing.T) {
	t.Parallel()

	state, err := uistate.Parse([]byte(`{
		// hand-edited
		"OverlayLeftRatio": 0.75,
		"OverlayTopRatio": "garbage",
		"OverlayTextColor": "#FF00FF00",
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := uistate.Default()
	want.OverlayLeftRatio = 0.75
	want.OverlayTextColor = "#FF00FF00"

	if diff := cmp.Diff(want, state, equateNaN); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	if !state.OverlayVisible {
		t.Error("OverlayVisible should default to true when absent")
	}
}

func Test_Parse_Rejects_Non_Object(t *testing.T) {
	t.Parallel()

	if _, err := uistate.Parse([]byte(`{"OverlayLeft": `)); err == nil {
		t.Fatal("Parse(truncated) should fail")
	}
}

func Test_File_Save_Then_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", uistate.FileName)
	file := uistate.NewFile(path, fs.NewReal())

	state := uistate.Default()
	state.OverlayLeft = 100
	state.OverlayTop = 40
	state.OverlayVisible = false
	state.OverlayShowBackground = true
	state.OverlayTextFontSize = 20
	state.OverlayTextColor = "#FFFFFFFF"
	state.OverlayLeftRatio = 0

	if err := file.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if !strings.Contains(string(raw), `"OverlayWidth": null`) {
		t.Errorf("unset width should be written as null:\n%s", raw)
	}

	got, ok, err := file.Load()
	if err != nil || !ok {
		t.Fatalf("Load() ok=%v err=%v", ok, err)
	}

	if diff := cmp.Diff(state, got, equateNaN); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_File_Load_Missing_And_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := uistate.NewFile(filepath.Join(dir, uistate.FileName), fs.NewReal())

	state, ok, err := file.Load()
	if ok || err != nil {
		t.Fatalf("Load(missing) ok=%v err=%v, want false, nil", ok, err)
	}

	if !state.OverlayVisible || state.OverlayLeft.IsSet() {
		t.Errorf("Load(missing) should return defaults, got %+v", state)
	}

	if err := os.WriteFile(file.Path(), []byte("not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, ok, err = file.Load()
	if ok || err == nil {
		t.Fatalf("Load(corrupt) ok=%v err=%v, want false, error", ok, err)
	}
}
