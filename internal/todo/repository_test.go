package todo_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/todowork/internal/fs"
	"github.com/calvinalkan/todowork/internal/todo"
)

func Test_Repository_Load_Missing_File_Is_Empty(t *testing.T) {
	t.Parallel()

	repo := todo.NewRepository(filepath.Join(t.TempDir(), "todo.json"), fs.NewReal(), nil)

	items := repo.Load()
	if items == nil || len(items) != 0 {
		t.Fatalf("Load() = %#v, want empty non-nil slice", items)
	}
}

func Test_Repository_Save_Then_Load_Is_Fixed_Point(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	completed := created.Add(2 * time.Hour)

	want := []todo.Task{
		{ID: "a1", Text: "write report", IsPinned: true, CreatedAt: created},
		{ID: "b2", Text: "file taxes", IsCompleted: true, CreatedAt: created, CompletedAt: &completed},
		{ID: "c3", Text: "引用 \"quotes\"", CreatedAt: created.Add(time.Minute)},
	}

	path := filepath.Join(t.TempDir(), "data", "todo.json")
	repo := todo.NewRepository(path, fs.NewReal(), nil)

	if err := repo.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first := repo.Load()
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("Load after Save mismatch (-want +got):\n%s", diff)
	}

	if err := repo.Save(first); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	second := repo.Load()

	sortByID := cmpopts.SortSlices(func(a, b todo.Task) bool { return a.ID < b.ID })
	if diff := cmp.Diff(first, second, sortByID); diff != "" {
		t.Fatalf("save(load()) not a fixed point (-first +second):\n%s", diff)
	}
}

func Test_Repository_Save_Writes_Expected_Field_Names(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")
	repo := todo.NewRepository(path, fs.NewReal(), nil)

	err := repo.Save([]todo.Task{{ID: "x", Text: "t", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	for _, field := range []string{`"Id"`, `"Text"`, `"IsCompleted"`, `"IsPinned"`, `"CreatedAt"`, `"CompletedAt": null`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("saved file missing %s:\n%s", field, data)
		}
	}
}

func Test_Repository_Load_Corrupt_File_Is_Backed_Up_And_Reset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "todo.json")
	corrupt := []byte(`[{"Id": "a", "Text": `)

	if err := os.WriteFile(path, corrupt, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	repo := todo.NewRepository(path, fs.NewReal(), nil)

	if items := repo.Load(); len(items) != 0 {
		t.Fatalf("Load() = %d items, want 0", len(items))
	}

	backups, err := filepath.Glob(filepath.Join(dir, "todo.json.bad_*.json"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}

	if len(backups) != 1 {
		t.Fatalf("backups = %v, want exactly one", backups)
	}

	got, _ := os.ReadFile(backups[0])
	if string(got) != string(corrupt) {
		t.Errorf("backup content = %q, want %q", got, corrupt)
	}

	original, _ := os.ReadFile(path)
	if string(original) != string(corrupt) {
		t.Errorf("Load must not modify the original file, got %q", original)
	}
}

func Test_Repository_Load_Tolerates_Bad_Timestamps_And_Unknown_Fields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")
	content := `[
  {"Id": "a", "Text": "bad completedAt", "IsCompleted": true, "CreatedAt": "2024-01-01T00:00:00Z", "CompletedAt": 42},
  {"Id": "b", "Text": "bad createdAt", "CreatedAt": "yesterday", "Color": "red"},
  {"Text": "missing everything"}
]`

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	items := todo.NewRepository(path, fs.NewReal(), nil).Load()
	if len(items) != 3 {
		t.Fatalf("Load() = %d items, want 3", len(items))
	}

	if items[0].CompletedAt != nil {
		t.Errorf("non-timestamp CompletedAt should decode as unset, got %v", items[0].CompletedAt)
	}

	if !items[1].CreatedAt.IsZero() {
		t.Errorf("non-timestamp CreatedAt should decode as zero, got %v", items[1].CreatedAt)
	}

	if items[2].ID != "" || items[2].IsCompleted {
		t.Errorf("missing fields should default, got %+v", items[2])
	}
}

func Test_Repository_Load_Null_Document_Is_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")
	if err := os.WriteFile(path, []byte("null"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	items := todo.NewRepository(path, fs.NewReal(), nil).Load()
	if items == nil || len(items) != 0 {
		t.Fatalf("Load() = %#v, want empty", items)
	}
}

func Test_Store_With_Repository_Persists_Across_Restart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")

	store := todo.NewStore(todo.NewRepository(path, fs.NewReal(), nil), todo.StoreOptions{})
	store.Load()

	task, _ := store.Add("survives restart")
	_, _ = store.SetPinned(task.ID, true)

	store.Close()

	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened := todo.NewStore(todo.NewRepository(path, fs.NewReal(), nil), todo.StoreOptions{})
	defer reopened.Close()

	reopened.Load()

	got, ok := reopened.Get(task.ID)
	if !ok {
		t.Fatalf("task %s missing after reload", task.ID)
	}

	if got.Text != "survives restart" || !got.IsPinned {
		t.Errorf("reloaded task = %+v", got)
	}
}

func Test_Store_Invalid_UTF8_Text_Matches_After_Restart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")

	store := todo.NewStore(todo.NewRepository(path, fs.NewReal(), nil), todo.StoreOptions{})
	store.Load()

	added, _ := store.Add("  hi \xff ")
	edited, _ := store.Add("x")

	if _, err := store.SetText(edited.ID, "bad \xc3 tail"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	before := store.Tasks()

	store.Close()

	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened := todo.NewStore(todo.NewRepository(path, fs.NewReal(), nil), todo.StoreOptions{})
	defer reopened.Close()

	reopened.Load()

	if diff := cmp.Diff(before, reopened.Tasks()); diff != "" {
		t.Fatalf("tasks differ after restart (-before +after):\n%s", diff)
	}

	got, _ := reopened.Get(added.ID)
	if want := "hi \uFFFD"; got.Text != want {
		t.Errorf("text = %q, want %q", got.Text, want)
	}
}

func Test_Repository_Load_Unreadable_File_Is_Backed_Up(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "todo.json")

	if err := os.WriteFile(path, []byte(`[]`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	chaos := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{})
	chaos.FailNext(fs.OpReadFile, path, 1, syscall.EIO)

	if items := todo.NewRepository(path, chaos, nil).Load(); len(items) != 0 {
		t.Fatalf("Load() = %d items, want 0", len(items))
	}

	backups, _ := filepath.Glob(filepath.Join(dir, "todo.json.bad_*.json"))
	if len(backups) != 1 {
		t.Fatalf("backups = %v, want exactly one", backups)
	}
}

func Test_Repository_Save_Propagates_Write_Failure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")

	chaos := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{})
	chaos.FailNext(fs.OpWriteFileAtomic, path, 1, syscall.EROFS)
	chaos.FailNext(fs.OpWriteFile, path+".tmp", 1, syscall.EROFS)

	err := todo.NewRepository(path, chaos, nil).Save([]todo.Task{{ID: "a", Text: "x"}})
	if !fs.IsInjected(err) {
		t.Fatalf("Save() error = %v, want injected failure", err)
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("failed save should not create the file, stat err = %v", statErr)
	}
}

// Under random write faults a successful Save is always readable as
// written, and a failed one leaves either the previous list or a file that
// Load backs up and resets.
func Test_Repository_Save_Under_Chaos_Never_Yields_Partial_List(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "todo.json")

	chaos := fs.NewChaos(fs.NewReal(), 42, fs.ChaosConfig{
		WriteFailRate:    0.2,
		PartialWriteRate: 0.3,
	})
	chaos.SetMode(fs.ChaosModeInject)

	repo := todo.NewRepository(path, chaos, nil)
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	prev := []todo.Task{}
	failures := 0

	for i := range 60 {
		items := make([]todo.Task, 0, i%5+1)
		for j := range cap(items) {
			items = append(items, todo.Task{
				ID:        "t" + strconv.Itoa(i) + "-" + strconv.Itoa(j),
				Text:      strings.Repeat("x", j+1),
				CreatedAt: created.Add(time.Duration(i) * time.Minute),
			})
		}

		err := repo.Save(items)
		got := repo.Load()

		switch {
		case err == nil:
			if diff := cmp.Diff(items, got); diff != "" {
				t.Fatalf("round %d: successful save not readable (-want +got):\n%s", i, diff)
			}
		case len(got) == 0:
			failures++
		default:
			failures++

			if diff := cmp.Diff(prev, got); diff != "" {
				t.Fatalf("round %d: failed save changed the list (-prev +got):\n%s", i, diff)
			}
		}

		prev = got
	}

	if failures == 0 || chaos.Stats().WriteFails+chaos.Stats().PartialWrites == 0 {
		t.Fatalf("no faults were injected (failures=%d, stats=%+v)", failures, chaos.Stats())
	}
}
