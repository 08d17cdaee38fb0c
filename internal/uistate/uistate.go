// Package uistate persists overlay geometry and appearance in a small JSON
// file, independent of the task list.
//
// Numeric fields that have never been set hold NaN ([Unset]) and are written
// as null. On read, null, a missing key, "NaN" or any other non-numeric value
// decode as unset, so a damaged field falls back to its default instead of
// discarding the whole file.
package uistate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/todowork/internal/fs"
)

// FileName is the UI state file name inside the data directory.
const FileName = "ui.json"

// Float is a float64 whose NaN value means "unset, use the default".
type Float float64

// Unset returns the unset sentinel.
func Unset() Float {
	return Float(math.NaN())
}

// IsSet reports whether f holds a real value.
func (f Float) IsSet() bool {
	v := float64(f)

	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Or returns f if set, otherwise def.
func (f Float) Or(def float64) float64 {
	if f.IsSet() {
		return float64(f)
	}

	return def
}

// MarshalJSON writes unset values as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.IsSet() {
		return []byte("null"), nil
	}

	return json.Marshal(float64(f))
}

// UnmarshalJSON never fails: anything that is not a finite number, or a
// string holding one, decodes as unset.
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Unset()

	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = Float(num)

		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			*f = Float(v)
		}
	}

	if !f.IsSet() {
		*f = Unset()
	}

	return nil
}

// State is the persisted overlay state. JSON keys match the UI state file.
type State struct {
	OverlayLeft              Float  `json:"OverlayLeft"`
	OverlayTop               Float  `json:"OverlayTop"`
	OverlayWidth             Float  `json:"OverlayWidth"`
	OverlayVisible           bool   `json:"OverlayVisible"`
	OverlayShowBackground    bool   `json:"OverlayShowBackground"`
	OverlayBackgroundOpacity Float  `json:"OverlayBackgroundOpacity"`
	OverlayTextOpacity       Float  `json:"OverlayTextOpacity"`
	OverlayTextFontSize      Float  `json:"OverlayTextFontSize"`
	OverlayTextColor         string `json:"OverlayTextColor"`
	OverlayLeftRatio         Float  `json:"OverlayLeftRatio"`
	OverlayTopRatio          Float  `json:"OverlayTopRatio"`
}

// Default returns a state with every number unset and the overlay visible.
func Default() State {
	return State{
		OverlayLeft:              Unset(),
		OverlayTop:               Unset(),
		OverlayWidth:             Unset(),
		OverlayVisible:           true,
		OverlayBackgroundOpacity: Unset(),
		OverlayTextOpacity:       Unset(),
		OverlayTextFontSize:      Unset(),
		OverlayLeftRatio:         Unset(),
		OverlayTopRatio:          Unset(),
	}
}

// Parse decodes a UI state document. JSONC (comments, trailing commas) is
// accepted. Keys absent from data keep their [Default] values.
func Parse(data []byte) (State, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Default(), fmt.Errorf("invalid JSONC: %w", err)
	}

	state := Default()

	if err := json.Unmarshal(standardized, &state); err != nil {
		return Default(), fmt.Errorf("invalid JSON: %w", err)
	}

	return state, nil
}

// File reads and writes the UI state file.
type File struct {
	path string
	fs   fs.FS
}

// NewFile returns a File for path.
func NewFile(path string, fsys fs.FS) *File {
	return &File{path: path, fs: fsys}
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the state. ok is false when the file is missing or unreadable,
// in which case [Default] is returned together with the cause (nil when the
// file simply does not exist).
func (f *File) Load() (state State, ok bool, err error) {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}

		return Default(), false, fmt.Errorf("reading %s: %w", f.path, err)
	}

	state, err = Parse(data)
	if err != nil {
		return Default(), false, fmt.Errorf("parsing %s: %w", f.path, err)
	}

	return state, true, nil
}

// Save writes the state atomically, creating the directory if needed.
func (f *File) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ui state: %w", err)
	}

	if err := fs.ReplaceFile(f.fs, f.path, data); err != nil {
		return fmt.Errorf("writing ui state: %w", err)
	}

	return nil
}
