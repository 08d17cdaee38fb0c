// Package fs provides the filesystem abstraction used by the persistence
// layer, so tests can substitute a failing implementation.
//
// The main types are:
//   - [FS]: interface for the filesystem operations todowork needs
//   - [Real]: production implementation using [os] and atomic writes
//   - [Locker]: flock(2) based advisory locks on dedicated lock files
//   - [Chaos]: fault-injecting wrapper for tests
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File]. [Locker] needs [File.Fd] for
// flock and [File.Stat] for inode verification.
type File interface {
	io.ReadWriteCloser

	// Fd returns the file descriptor. See [os.File.Fd].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS defines filesystem operations for reading, writing, and managing files.
//
// All methods mirror their [os] package equivalents except
// [FS.WriteFileAtomic].
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data in place, truncating first. See [os.WriteFile].
	// Not crash safe; prefer [FS.WriteFileAtomic].
	WriteFile(path string, data []byte, perm os.FileMode) error

	// WriteFileAtomic writes data to a temp file in the same directory and
	// renames it over path, so readers never observe a partial file.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
