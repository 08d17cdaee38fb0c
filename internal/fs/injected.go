package fs

import (
	"errors"
	iofs "io/fs"
	"sync"
	"syscall"
)

// InjectedError marks an error as intentionally injected by [Chaos].
//
// It wraps the underlying error so errors.Is/As continue to work.
//
// Note: [Chaos] returns plain *fs.PathError values with a syscall.Errno so
// os.IsNotExist/os.IsPermission keep working. Those are tracked separately
// so IsInjected can still tell injected and real OS errors apart.
type InjectedError struct {
	Err error
}

func (e *InjectedError) Error() string {
	return e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Chaos].
func IsInjected(err error) bool {
	if err == nil {
		return false
	}

	var injected *InjectedError
	if errors.As(err, &injected) {
		return true
	}

	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) {
		_, ok := injectedPathErrors.Load(pathErr)

		return ok
	}

	return false
}

var injectedPathErrors sync.Map // map[*fs.PathError]struct{}

// pathError builds an injected *fs.PathError.
func pathError(op, path string, errno syscall.Errno) error {
	err := &iofs.PathError{Op: op, Path: path, Err: errno}
	injectedPathErrors.Store(err, struct{}{})

	return err
}
