package fs

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func Test_Replace_File_Creates_Directory_And_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "todo.json")

	if err := ReplaceFile(NewReal(), path, []byte("[]")); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "[]" {
		t.Errorf("content = %q, want %q", got, "[]")
	}
}

func Test_Replace_File_Overwrites_Without_Leaving_Temp_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ui.json")

	for _, content := range []string{"first", "second"} {
		if err := ReplaceFile(NewReal(), path, []byte(content)); err != nil {
			t.Fatalf("ReplaceFile(%q): %v", content, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "ui.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v, want [ui.json]", names)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func Test_Replace_File_Falls_Back_To_Copy_When_Atomic_Write_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "todo.json")

	chaos := NewChaos(NewReal(), 1, ChaosConfig{})
	chaos.FailNext(OpWriteFileAtomic, path, 1, syscall.EXDEV)

	if err := ReplaceFile(chaos, path, []byte("copied")); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "copied" {
		t.Errorf("content = %q, want %q", got, "copied")
	}

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file should be deleted, stat err = %v", err)
	}
}

func Test_Real_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	realFS := NewReal()

	exists, err := realFS.Exists(filepath.Join(dir, "missing"))
	if err != nil || exists {
		t.Fatalf("Exists(missing) = %v, %v; want false, nil", exists, err)
	}

	exists, err = realFS.Exists(dir)
	if err != nil || !exists {
		t.Fatalf("Exists(dir) = %v, %v; want true, nil", exists, err)
	}
}

func Test_Replace_File_Reports_Both_Errors_When_Fallback_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "todo.json")

	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	chaos := NewChaos(NewReal(), 1, ChaosConfig{})
	chaos.FailNext(OpWriteFileAtomic, path, 1, syscall.EXDEV)
	chaos.FailNext(OpWriteFile, path+".tmp", 1, syscall.ENOSPC)

	err := ReplaceFile(chaos, path, []byte("new"))
	if !errors.Is(err, syscall.EXDEV) || !errors.Is(err, syscall.ENOSPC) {
		t.Fatalf("ReplaceFile error = %v, want EXDEV and ENOSPC", err)
	}

	if !IsInjected(err) {
		t.Errorf("error should be marked injected: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "old" {
		t.Errorf("content = %q, want untouched %q", got, "old")
	}
}
