package instance

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/calvinalkan/todowork/internal/fs"
)

// Editors and writers often produce several events for one logical write.
const signalSettle = 50 * time.Millisecond

// FileCoordinator implements [Coordinator] with an flock(2) lock file and a
// signal file watched through fsnotify, both in one runtime directory.
type FileCoordinator struct {
	dir        string
	lockPath   string
	signalPath string
	fs         fs.FS
	locker     *fs.Locker
	logger     *log.Logger

	wake chan struct{}

	mu      sync.Mutex
	lock    *fs.Lock
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}
	closed  bool
}

var _ Coordinator = (*FileCoordinator)(nil)

// NewFileCoordinator returns a coordinator for dir. Nothing is touched
// until [FileCoordinator.TryAcquirePrimary] is called.
func NewFileCoordinator(dir string, fsys fs.FS, logger *log.Logger) *FileCoordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &FileCoordinator{
		dir:        dir,
		lockPath:   filepath.Join(dir, LockFile),
		signalPath: filepath.Join(dir, SignalFile),
		fs:         fsys,
		locker:     fs.NewLocker(fsys),
		logger:     logger,
		wake:       make(chan struct{}, 1),
	}
}

// TryAcquirePrimary takes the lock without blocking. On success it creates
// the signal file and starts the wait-loop.
func (c *FileCoordinator) TryAcquirePrimary() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	if c.lock != nil {
		return true, nil
	}

	lock, err := c.locker.TryLock(c.lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return false, nil
		}

		return false, fmt.Errorf("acquiring instance lock: %w", err)
	}

	if err := c.fs.WriteFile(c.signalPath, nil, fs.FilePerm); err != nil {
		_ = lock.Close()

		return false, fmt.Errorf("creating signal file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = lock.Close()

		return false, fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(c.dir); err != nil {
		_ = watcher.Close()
		_ = lock.Close()

		return false, fmt.Errorf("watching %s: %w", c.dir, err)
	}

	c.lock = lock
	c.watcher = watcher
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})

	go c.waitLoop(watcher, c.stopCh, c.done)

	c.logger.Debug("acquired primary", "lock", c.lockPath)

	return true, nil
}

// SignalExistingPrimary writes to the Primary's signal file. It returns
// false without error when no signal file exists.
func (c *FileCoordinator) SignalExistingPrimary() (bool, error) {
	exists, err := c.fs.Exists(c.signalPath)
	if err != nil {
		return false, fmt.Errorf("checking signal file: %w", err)
	}

	if !exists {
		return false, nil
	}

	payload := []byte(strconv.Itoa(os.Getpid()) + "\n")

	if err := c.fs.WriteFile(c.signalPath, payload, fs.FilePerm); err != nil {
		return false, fmt.Errorf("signaling primary: %w", err)
	}

	return true, nil
}

// Wakeups returns the wake-up channel.
func (c *FileCoordinator) Wakeups() <-chan struct{} {
	return c.wake
}

// Close stops the wait-loop and releases the lock.
func (c *FileCoordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	if c.lock == nil {
		return nil
	}

	close(c.stopCh)
	watchErr := c.watcher.Close()
	<-c.done

	lockErr := c.lock.Close()
	c.lock = nil
	c.watcher = nil

	if watchErr != nil {
		watchErr = fmt.Errorf("closing watcher: %w", watchErr)
	}

	return errors.Join(watchErr, lockErr)
}

func (c *FileCoordinator) waitLoop(watcher *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	settle := time.NewTimer(0)
	<-settle.C

	for {
		select {
		case <-stopCh:
			settle.Stop()

			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Name != c.signalPath || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			settle.Reset(signalSettle)

		case <-settle.C:
			select {
			case c.wake <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			c.logger.Warn("signal watcher error", "err", err)
		}
	}
}
