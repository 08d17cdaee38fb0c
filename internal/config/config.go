// Package config loads todowork's JSONC configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/todowork/internal/overlay"
)

// File names inside the data directory.
const (
	TasksFileName = "todo.json"
	UIFileName    = "ui.json"
	LogFileName   = "todowork.log"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir     string       `json:"data_dir"`
	RuntimeDir  string       `json:"runtime_dir,omitempty"`
	LogLevel    string       `json:"log_level"`
	LogFormat   string       `json:"log_format"`
	SaveDelayMS int          `json:"save_delay_ms"`
	WorkArea    overlay.Rect `json:"work_area"`

	// Resolved paths (computed, not serialized)
	DataDirAbs    string `json:"-"`
	RuntimeDirAbs string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to --config file if given, empty otherwise
}

// SaveDelay returns the debounce delay for task saves.
func (c Config) SaveDelay() time.Duration {
	return time.Duration(c.SaveDelayMS) * time.Millisecond
}

// TasksPath returns the task list file path.
func (c Config) TasksPath() string { return filepath.Join(c.DataDirAbs, TasksFileName) }

// UIPath returns the UI state file path.
func (c Config) UIPath() string { return filepath.Join(c.DataDirAbs, UIFileName) }

// LogPath returns the session log file path.
func (c Config) LogPath() string { return filepath.Join(c.DataDirAbs, LogFileName) }

// Default returns the default configuration. DataDir is left empty and
// resolved from the environment by [Load].
func Default() Config {
	return Config{
		LogLevel:    "warn",
		LogFormat:   "text",
		SaveDelayMS: 400,
		WorkArea:    overlay.Rect{Left: 0, Top: 0, Width: 1920, Height: 1040},
	}
}

// fileConfig mirrors Config with pointers so a file can tell "absent" from
// "zero".
type fileConfig struct {
	DataDir     *string       `json:"data_dir"`
	RuntimeDir  *string       `json:"runtime_dir"`
	LogLevel    *string       `json:"log_level"`
	LogFormat   *string       `json:"log_format"`
	SaveDelayMS *int          `json:"save_delay_ms"`
	WorkArea    *overlay.Rect `json:"work_area"`
}

// GlobalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/todowork/config.json if set, otherwise
// ~/.config/todowork/config.json. Returns empty string if home directory
// cannot be determined.
func GlobalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "todowork", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "todowork", "config.json")
	}

	return ""
}

// defaultDataDir uses $XDG_DATA_HOME/todowork, else ~/.local/share/todowork.
func defaultDataDir(env map[string]string) string {
	if xdgData := env["XDG_DATA_HOME"]; xdgData != "" {
		return filepath.Join(xdgData, "todowork")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".local", "share", "todowork")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir         string            // base for relative paths; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/todowork/config.json)
// 3. Explicit config file via ConfigPath (if non-empty)
// 4. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths. The
// runtime directory falls back to $XDG_RUNTIME_DIR/todowork, then to the
// data directory.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if globalPath := GlobalPath(input.Env); globalPath != "" {
		fileCfg, loaded, err := loadFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath

			cfg, err = merge(cfg, fileCfg, globalPath)
			if err != nil {
				return Config{}, err
			}
		}
	}

	if input.ConfigPath != "" {
		path := input.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		fileCfg, _, err := loadFile(path, true)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.Explicit = path

		cfg, err = merge(cfg, fileCfg, path)
		if err != nil {
			return Config{}, err
		}
	}

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir(input.Env)
		if cfg.DataDir == "" {
			return Config{}, ErrNoDataDir
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.DataDirAbs = absFrom(workDir, cfg.DataDir)

	switch {
	case cfg.RuntimeDir != "":
		cfg.RuntimeDirAbs = absFrom(workDir, cfg.RuntimeDir)
	case input.Env["XDG_RUNTIME_DIR"] != "":
		cfg.RuntimeDirAbs = filepath.Join(input.Env["XDG_RUNTIME_DIR"], "todowork")
	default:
		cfg.RuntimeDirAbs = cfg.DataDirAbs
	}

	return cfg, nil
}

func absFrom(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(workDir, path)
}

// loadFile loads a config file. If mustExist is false, missing files
// return an empty config and loaded=false.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return fileConfig{}, false, nil
		}

		if mustExist {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return fileConfig{}, false, nil
	}

	cfg, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (fileConfig, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg fileConfig

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func merge(base Config, file fileConfig, source string) (Config, error) {
	if file.DataDir != nil {
		if *file.DataDir == "" {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, source, ErrDataDirEmpty)
		}

		base.DataDir = *file.DataDir
	}

	if file.RuntimeDir != nil {
		base.RuntimeDir = *file.RuntimeDir
	}

	if file.LogLevel != nil {
		base.LogLevel = *file.LogLevel
	}

	if file.LogFormat != nil {
		base.LogFormat = *file.LogFormat
	}

	if file.SaveDelayMS != nil {
		base.SaveDelayMS = *file.SaveDelayMS
	}

	if file.WorkArea != nil {
		base.WorkArea = *file.WorkArea
	}

	return base, nil
}

func validate(cfg Config) error {
	if cfg.SaveDelayMS < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSaveDelay, cfg.SaveDelayMS)
	}

	if cfg.WorkArea.Width <= 0 || cfg.WorkArea.Height <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrInvalidWorkArea, cfg.WorkArea.Width, cfg.WorkArea.Height)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLogLevel, cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "text", "logfmt", "json":
	default:
		return fmt.Errorf("%w: %q (want text, logfmt or json)", ErrInvalidLogFormat, cfg.LogFormat)
	}

	return nil
}
