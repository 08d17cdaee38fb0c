// Package app wires the task store, the overlay controller, UI state
// persistence and the single-instance coordinator into one running instance.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/todowork/internal/config"
	"github.com/calvinalkan/todowork/internal/debounce"
	"github.com/calvinalkan/todowork/internal/fs"
	"github.com/calvinalkan/todowork/internal/instance"
	"github.com/calvinalkan/todowork/internal/logging"
	"github.com/calvinalkan/todowork/internal/overlay"
	"github.com/calvinalkan/todowork/internal/todo"
	"github.com/calvinalkan/todowork/internal/uistate"
)

// Options configure [Start]. Only Config is required.
type Options struct {
	Config config.Config
	FS     fs.FS
	Logger *log.Logger

	// Coordinator defaults to a file coordinator in Config.RuntimeDirAbs.
	Coordinator instance.Coordinator
	// Screen defaults to Config.WorkArea.
	Screen overlay.Screen
	Clock  debounce.Clock
	Now    func() time.Time
}

// App is a running Primary instance.
type App struct {
	logger  *log.Logger
	coord   instance.Coordinator
	store   *todo.Store
	overlay *overlay.Controller
	ui      *uistate.File

	closeOnce sync.Once
	closeErr  error
}

// Start runs the single-instance protocol and, as Primary, loads tasks and
// UI state. As Secondary it signals the running instance and returns an
// [*AlreadyRunningError] without touching any data file.
func Start(opts Options) (*App, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	coord := opts.Coordinator
	if coord == nil {
		coord = instance.NewFileCoordinator(opts.Config.RuntimeDirAbs, fsys, logger)
	}

	primary, err := coord.TryAcquirePrimary()
	if err != nil {
		_ = coord.Close()

		return nil, fmt.Errorf("single-instance check: %w", err)
	}

	if !primary {
		signaled, err := coord.SignalExistingPrimary()
		if err != nil {
			logger.Debug("signaling primary failed", "err", err)
		}

		_ = coord.Close()

		return nil, &AlreadyRunningError{Signaled: signaled}
	}

	screen := opts.Screen
	if screen == nil {
		screen = overlay.StaticScreen(opts.Config.WorkArea)
	}

	a := &App{
		logger: logger,
		coord:  coord,
		ui:     uistate.NewFile(opts.Config.UIPath(), fsys),
	}

	repo := todo.NewRepository(opts.Config.TasksPath(), fsys, logger)
	a.store = todo.NewStore(repo, todo.StoreOptions{
		SaveDelay: opts.Config.SaveDelay(),
		Clock:     opts.Clock,
		Now:       opts.Now,
		Logger:    logger,
	})
	a.store.Load()

	a.overlay = overlay.NewController(overlay.Options{
		Screen:  screen,
		Persist: a.ui.Save,
		Logger:  logger,
	})

	state, ok, err := a.ui.Load()
	if err != nil {
		logger.Warn("ignoring unreadable ui state", "err", err)
	}

	if ok {
		a.overlay.Restore(state)
	}

	a.SaveUIState()

	return a, nil
}

// Store returns the task store.
func (a *App) Store() *todo.Store { return a.store }

// Overlay returns the overlay controller.
func (a *App) Overlay() *overlay.Controller { return a.overlay }

// Wakeups delivers "bring to front" requests from later launches.
func (a *App) Wakeups() <-chan struct{} { return a.coord.Wakeups() }

// SaveUIState persists the overlay state. Failures are logged.
func (a *App) SaveUIState() {
	if err := a.ui.Save(a.overlay.State()); err != nil {
		a.logger.Warn("saving ui state failed", "err", err)
	}
}

// Close flushes tasks and UI state, then releases the Primary role.
// Save failures are logged, not returned. Close is idempotent.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.store.Close()

		if err := a.store.Save(); err != nil {
			a.logger.Error("saving tasks on exit failed", "err", err)
		}

		a.SaveUIState()

		if err := a.coord.Close(); err != nil {
			a.closeErr = fmt.Errorf("releasing instance: %w", err)
		}
	})

	return a.closeErr
}

// IsAlreadyRunning reports whether err came from a Secondary [Start].
func IsAlreadyRunning(err error) (*AlreadyRunningError, bool) {
	var target *AlreadyRunningError
	if errors.As(err, &target) {
		return target, true
	}

	return nil, false
}
