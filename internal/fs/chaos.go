package fs

import (
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls random fault injection.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
type ChaosConfig struct {
	ReadFailRate     float64 // Fail ReadFile
	WriteFailRate    float64 // Fail WriteFile / WriteFileAtomic
	PartialWriteRate float64 // Write a prefix in place, then fail (torn write)
	OpenFailRate     float64 // Fail OpenFile
	RemoveFailRate   float64 // Fail Remove
	StatFailRate     float64 // Fail Stat / Exists
}

// Op names an [FS] method for targeted failures, see [Chaos.FailNext].
type Op string

// Operations [Chaos] can fail.
const (
	OpOpenFile        Op = "open"
	OpReadFile        Op = "read"
	OpWriteFile       Op = "write"
	OpWriteFileAtomic Op = "write-atomic"
	OpMkdirAll        Op = "mkdir"
	OpStat            Op = "stat"
	OpRemove          Op = "remove"
)

// ChaosMode controls how Chaos behaves.
type ChaosMode uint8

const (
	// ChaosModePassthrough behaves like the underlying FS. Targeted failures
	// queued with FailNext still fire.
	ChaosModePassthrough ChaosMode = iota

	// ChaosModeInject additionally injects random faults per [ChaosConfig].
	ChaosModeInject
)

// ChaosStats counts injected faults.
type ChaosStats struct {
	OpenFails     int64
	ReadFails     int64
	WriteFails    int64
	PartialWrites int64
	RemoveFails   int64
	StatFails     int64
}

// Chaos wraps an [FS] and injects failures for testing.
//
// Two kinds of faults exist: random ones drawn from [ChaosConfig] while in
// [ChaosModeInject], and targeted ones queued with [Chaos.FailNext] that
// fire in any mode. All injected errors are *os.PathError values carrying a
// syscall.Errno, so they behave like real filesystem errors; [IsInjected]
// tells them apart.
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32

	mu      sync.Mutex
	rng     *rand.Rand
	pending map[failKey][]syscall.Errno

	openFails     atomic.Int64
	readFails     atomic.Int64
	writeFails    atomic.Int64
	partialWrites atomic.Int64
	removeFails   atomic.Int64
	statFails     atomic.Int64
}

type failKey struct {
	op   Op
	path string
}

// NewChaos creates a Chaos filesystem wrapping fs in passthrough mode.
// The seed controls random fault injection for reproducibility.
func NewChaos(fs FS, seed int64, config ChaosConfig) *Chaos {
	return &Chaos{
		fs:      fs,
		config:  config,
		rng:     rand.New(rand.NewSource(seed)),
		pending: make(map[failKey][]syscall.Errno),
	}
}

// SetMode updates Chaos behavior. Safe for concurrent use.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// FailNext makes the next n calls of op on path fail with errno.
func (c *Chaos) FailNext(op Op, path string, n int, errno syscall.Errno) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := failKey{op: op, path: path}
	for range n {
		c.pending[key] = append(c.pending[key], errno)
	}
}

// Stats returns the fault counters.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:     c.openFails.Load(),
		ReadFails:     c.readFails.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialWrites: c.partialWrites.Load(),
		RemoveFails:   c.removeFails.Load(),
		StatFails:     c.statFails.Load(),
	}
}

// fault returns the error to inject for op on path, or nil.
func (c *Chaos) fault(op Op, path string, rate float64, errs []syscall.Errno) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := failKey{op: op, path: path}
	if queue := c.pending[key]; len(queue) > 0 {
		c.pending[key] = queue[1:]

		return pathError(string(op), path, queue[0])
	}

	if ChaosMode(c.mode.Load()) != ChaosModeInject || rate <= 0 {
		return nil
	}

	if c.rng.Float64() >= rate {
		return nil
	}

	return pathError(string(op), path, errs[c.rng.Intn(len(errs))])
}

// partial reports whether a torn write should happen and where to cut data.
func (c *Chaos) partial(n int) (int, bool) {
	if ChaosMode(c.mode.Load()) != ChaosModeInject || n < 2 {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rng.Float64() >= c.config.PartialWriteRate {
		return 0, false
	}

	return c.rng.Intn(n-1) + 1, true
}

var (
	openErrnos   = []syscall.Errno{syscall.EACCES, syscall.EBUSY, syscall.EMFILE, syscall.EIO}
	readErrnos   = []syscall.Errno{syscall.EIO, syscall.EACCES}
	writeErrnos  = []syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EROFS}
	removeErrnos = []syscall.Errno{syscall.EACCES, syscall.EBUSY}
	statErrnos   = []syscall.Errno{syscall.EIO, syscall.EACCES}
)

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := c.fault(OpOpenFile, path, c.config.OpenFailRate, openErrnos); err != nil {
		c.openFails.Add(1)

		return nil, err
	}

	return c.fs.OpenFile(path, flag, perm)
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if err := c.fault(OpReadFile, path, c.config.ReadFailRate, readErrnos); err != nil {
		c.readFails.Add(1)

		return nil, err
	}

	return c.fs.ReadFile(path)
}

func (c *Chaos) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := c.fault(OpWriteFile, path, c.config.WriteFailRate, writeErrnos); err != nil {
		c.writeFails.Add(1)

		return err
	}

	return c.fs.WriteFile(path, data, perm)
}

// WriteFileAtomic may, in [ChaosModeInject], bypass the atomic rename and
// leave a truncated file behind before failing, as a crash mid-write on a
// filesystem without atomic replace would.
func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := c.fault(OpWriteFileAtomic, path, c.config.WriteFailRate, writeErrnos); err != nil {
		c.writeFails.Add(1)

		return err
	}

	if cutoff, ok := c.partial(len(data)); ok {
		c.partialWrites.Add(1)

		if err := c.fs.WriteFile(path, data[:cutoff], perm); err != nil {
			return err
		}

		return pathError(string(OpWriteFileAtomic), path, syscall.EIO)
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if err := c.fault(OpMkdirAll, path, 0, nil); err != nil {
		return err
	}

	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if err := c.fault(OpStat, path, c.config.StatFailRate, statErrnos); err != nil {
		c.statFails.Add(1)

		return nil, err
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if err := c.fault(OpStat, path, c.config.StatFailRate, statErrnos); err != nil {
		c.statFails.Add(1)

		return false, err
	}

	return c.fs.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	if err := c.fault(OpRemove, path, c.config.RemoveFailRate, removeErrnos); err != nil {
		c.removeFails.Add(1)

		return err
	}

	return c.fs.Remove(path)
}

var _ FS = (*Chaos)(nil)
