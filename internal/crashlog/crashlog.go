// Package crashlog appends fault reports to a plain-text log shared by every
// todowork process.
//
// Each entry looks like:
//
//	----
//	2024-05-01 13:04:05
//	panic | pid=4242
//	<detail>
//
// Writers serialize through a lock file next to the log. Logging is best
// effort: if the lock is busy for too long the append goes ahead anyway, and
// an append that keeps failing is dropped.
package crashlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calvinalkan/todowork/internal/fs"
)

// FileName is the crash log name inside the data directory.
const FileName = "crash.log"

const (
	lockTimeout   = 250 * time.Millisecond
	appendRetries = 3
	retryBackoff  = 50 * time.Millisecond
)

// Log appends entries to one crash log file.
type Log struct {
	path   string
	fs     fs.FS
	locker *fs.Locker
	now    func() time.Time
	sleep  func(time.Duration)
	pid    int
}

// New returns a Log writing to path.
func New(path string, fsys fs.FS) *Log {
	return &Log{
		path:   path,
		fs:     fsys,
		locker: fs.NewLocker(fsys),
		now:    time.Now,
		sleep:  time.Sleep,
		pid:    os.Getpid(),
	}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry. source names where the fault was caught and
// detail is the error text or stack. The returned error is the last append
// failure after all retries.
func (l *Log) Append(source, detail string) error {
	entry := Format(l.now(), source, l.pid, detail)

	if err := l.fs.MkdirAll(filepath.Dir(l.path), fs.DirPerm); err != nil {
		return fmt.Errorf("creating crash log dir: %w", err)
	}

	lock, lockErr := l.locker.LockWithTimeout(l.path+".lock", lockTimeout)
	if lockErr == nil {
		defer func() { _ = lock.Close() }()
	}

	var err error

	for attempt := range appendRetries {
		if attempt > 0 {
			l.sleep(retryBackoff)
		}

		if err = l.appendOnce(entry); err == nil {
			return nil
		}
	}

	return fmt.Errorf("appending to crash log: %w", err)
}

func (l *Log) appendOnce(entry string) (err error) {
	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, fs.FilePerm)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	_, err = f.Write([]byte(entry))

	return err
}

// Format renders one entry.
func Format(at time.Time, source string, pid int, detail string) string {
	if strings.TrimSpace(detail) == "" {
		detail = "<no detail>"
	}

	var b strings.Builder

	b.WriteString("----\n")
	b.WriteString(at.Format(time.DateTime))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s | pid=%d\n", source, pid)
	b.WriteString(strings.TrimRight(detail, "\n"))
	b.WriteString("\n")

	return b.String()
}
