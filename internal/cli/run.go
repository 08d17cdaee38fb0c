package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/calvinalkan/todowork/internal/app"
	"github.com/calvinalkan/todowork/internal/config"
	"github.com/calvinalkan/todowork/internal/crashlog"
	"github.com/calvinalkan/todowork/internal/fs"
	"github.com/calvinalkan/todowork/internal/logging"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
)

// Run is the main entry point. Returns exit code.
//
// Panics on the command path are recovered, written to the crash log and
// reported as exit code 1.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) (exitCode int) {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	name := flags.remaining[0]

	if name == "-h" || name == helpFlag {
		printUsage(out)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDir:         flags.workDir,
		ConfigPath:      flags.configPath,
		DataDirOverride: flags.dataDir,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	fsys := fs.NewReal()

	rt := &deps{
		cfg:    cfg,
		in:     in,
		out:    out,
		fs:     fsys,
		logger: logging.FromConfig(errOut, cfg.LogLevel, cfg.LogFormat, false),
		crash:  crashlog.New(filepath.Join(cfg.DataDirAbs, crashlog.FileName), fsys),
	}
	defer rt.close()

	defer func() {
		if r := recover(); r != nil {
			reportPanic(rt.crash, errOut, "panic in "+name, r, debug.Stack())

			exitCode = 1
		}
	}()

	var cmd *Command

	for _, c := range commands(rt) {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ioCtx := NewIO(out, errOut)

	if code := cmd.Run(ctx, ioCtx, flags.remaining[1:]); code != 0 {
		return code
	}

	return ioCtx.Finish()
}

// commands returns fresh command instances. Flag sets keep parsed values, so
// every invocation needs its own set.
func commands(rt *deps) []*Command {
	return []*Command{
		AddCmd(rt),
		LsCmd(rt),
		DoneCmd(rt),
		UndoCmd(rt),
		PinCmd(rt),
		UnpinCmd(rt),
		EditCmd(rt),
		RmCmd(rt),
		ClearCompletedCmd(rt),
		OverlayCmd(rt),
		PrintConfigCmd(rt),
		SessionCmd(rt),
	}
}

// deps is shared by the commands of one invocation. The instance is
// started lazily so that help and print-config never take the lock.
type deps struct {
	cfg     config.Config
	in      io.Reader
	out     io.Writer
	fs      fs.FS
	logger  *log.Logger
	crash   *crashlog.Log
	inst    *app.App
	closers []io.Closer
}

func (rt *deps) app() (*app.App, error) {
	if rt.inst != nil {
		return rt.inst, nil
	}

	a, err := app.Start(app.Options{Config: rt.cfg, FS: rt.fs, Logger: rt.logger})
	if err != nil {
		return nil, err
	}

	rt.inst = a

	return a, nil
}

func (rt *deps) close() {
	if rt.inst != nil {
		if err := rt.inst.Close(); err != nil {
			rt.logger.Warn("shutdown", "err", err)
		}

		rt.inst = nil
	}

	for _, c := range rt.closers {
		_ = c.Close()
	}

	rt.closers = nil
}

type globalFlags struct {
	workDir    string
	configPath string
	dataDir    string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --data-dir flag
	if arg == "--data-dir" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.dataDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--data-dir="); ok {
		flags.dataDir = after

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

// reportPanic appends a recovered panic to the crash log and prints a
// one-line notice.
func reportPanic(crash *crashlog.Log, errOut io.Writer, source string, r any, stack []byte) {
	detail := fmt.Sprintf("%v\n\n%s", r, stack)
	if err := crash.Append(source, detail); err != nil {
		fprintln(errOut, "error: writing crash log:", err)
	}

	fprintln(errOut, "error: unexpected failure, details in", crash.Path())
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer) {
	fprintln(writer, `todowork - to-do list with a pinned-task overlay

Usage: todowork [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
      --data-dir <dir>   Override the data directory

Commands:`)

	for _, c := range commands(nil) {
		fprintln(writer, c.HelpLine())
	}
}
