package config

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data-dir cannot be empty")
	ErrNoDataDir          = errors.New("cannot determine data directory: set data_dir, XDG_DATA_HOME or HOME")
	ErrInvalidSaveDelay   = errors.New("save_delay_ms must be >= 0")
	ErrInvalidWorkArea    = errors.New("work_area width and height must be > 0")
	ErrInvalidLogLevel    = errors.New("invalid log_level")
	ErrInvalidLogFormat   = errors.New("invalid log_format")
)
