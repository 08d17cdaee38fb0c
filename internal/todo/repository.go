package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/todowork/internal/fs"
)

// backupTimeLayout names corrupt-file backups, e.g. todo.json.bad_20240101_120000.json.
const backupTimeLayout = "20060102_150405"

// Repository reads and writes the task list file.
type Repository struct {
	path   string
	fs     fs.FS
	logger *log.Logger
	now    func() time.Time
}

// NewRepository returns a Repository for the file at path.
// A nil logger discards log output.
func NewRepository(path string, fsys fs.FS, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Repository{
		path:   path,
		fs:     fsys,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the task list file path.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the task list.
//
// A missing file yields an empty list. A file that cannot be read or parsed
// is copied aside to "<path>.bad_<timestamp>.json" (best-effort) and an empty
// list is returned. Load never returns an error.
func (r *Repository) Load() []Task {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Task{}
		}

		r.logger.Warn("task list unreadable, starting empty", "path", r.path, "err", err)
		r.backup(nil)

		return []Task{}
	}

	var items []Task

	if err := json.Unmarshal(data, &items); err != nil {
		r.logger.Warn("task list corrupt, starting empty", "path", r.path, "err", err)
		r.backup(data)

		return []Task{}
	}

	if items == nil {
		return []Task{}
	}

	return items
}

// Save writes the full task list, replacing the file atomically.
func (r *Repository) Save(items []Task) error {
	if items == nil {
		items = []Task{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding task list: %w", err)
	}

	if err := fs.ReplaceFile(r.fs, r.path, data); err != nil {
		return fmt.Errorf("writing task list: %w", err)
	}

	return nil
}

// backup copies the bad file aside. data is the content already read, or nil
// to read it again. Failures are logged and otherwise ignored.
func (r *Repository) backup(data []byte) {
	if data == nil {
		var err error

		data, err = r.fs.ReadFile(r.path)
		if err != nil {
			r.logger.Warn("could not back up task list", "path", r.path, "err", err)

			return
		}
	}

	backupPath := r.path + ".bad_" + r.now().Format(backupTimeLayout) + ".json"

	if err := r.fs.WriteFile(backupPath, data, fs.FilePerm); err != nil {
		r.logger.Warn("could not back up task list", "path", backupPath, "err", err)

		return
	}

	r.logger.Info("backed up corrupt task list", "backup", backupPath)
}
