package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/calvinalkan/todowork/internal/app"
	"github.com/calvinalkan/todowork/internal/fs"

	flag "github.com/spf13/pflag"
)

const (
	sessionPrompt   = "todowork> "
	historyFileName = "history"
)

var errNestedSession = errors.New("already in a session")

// SessionCmd returns the run command.
func SessionCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("run", flag.ContinueOnError),
		Usage: "run",
		Short: "Stay resident as the primary instance",
		Long: `Start an interactive session that owns the task list until it exits.

Every other command can be typed at the prompt. Later launches of todowork
bring the session to the front instead of starting a second instance. The
overlay preview is redrawn whenever pinned tasks or appearance change.
Session logs go to todowork.log in the data directory.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execSession(ctx, o, rt)
		},
	}
}

type lineResult struct {
	line string
	err  error
}

func execSession(ctx context.Context, o *IO, rt *deps) error {
	if rt.inst != nil {
		return errNestedSession
	}

	a, err := rt.app()
	if err != nil {
		return err
	}

	if err := rt.logToFile(); err != nil {
		rt.logger.Warn("session log unavailable", "err", err)
	}

	rt.logger.Info("session started", "pid", os.Getpid(), "data_dir", rt.cfg.DataDirAbs)
	defer rt.logger.Info("session ended")

	events, unsubscribe := a.Store().Subscribe()
	defer unsubscribe()

	reader := newLineReader(rt.in, filepath.Join(rt.cfg.DataDirAbs, historyFileName))
	defer func() { _ = reader.Close() }()

	renderer := lipgloss.NewRenderer(o.Out())
	preview := func() string {
		return renderPreview(renderer, a.Overlay(), a.Store().Pinned())
	}

	o.Println("todowork - type 'help' for commands, 'quit' to exit")

	last := preview()
	o.Println(last)

	done := make(chan struct{})
	defer close(done)

	lines := make(chan lineResult)
	next := make(chan struct{}, 1)
	next <- struct{}{}

	go readLines(reader, lines, next, done)

	for {
		select {
		case <-ctx.Done():
			o.Println()
			o.Println("Bye!")

			return nil

		case <-a.Wakeups():
			rt.logger.Info("woken by another launch")
			o.Println()
			o.Println("Another launch asked for todowork; this session is still running.")

			last = preview()
			o.Println(last)

		case res := <-lines:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					o.Println("Bye!")

					return nil
				}

				return fmt.Errorf("reading input: %w", res.err)
			}

			if quit := runSessionLine(ctx, o, rt, a, res.line); quit {
				o.Println("Bye!")

				return nil
			}

			if drain(events) > 0 || isOverlayLine(res.line) {
				if current := preview(); current != last {
					last = current
					o.Println(current)
				}
			}

			next <- struct{}{}
		}
	}
}

func readLines(r lineReader, out chan<- lineResult, next <-chan struct{}, done <-chan struct{}) {
	for {
		select {
		case <-next:
		case <-done:
			return
		}

		line, err := r.Prompt(sessionPrompt)

		select {
		case out <- lineResult{line: line, err: err}:
		case <-done:
			return
		}

		if err != nil {
			return
		}
	}
}

// runSessionLine executes one prompt line. Reports whether the session
// should end. A panic while running the line is written to the crash log
// and the session carries on.
func runSessionLine(ctx context.Context, o *IO, rt *deps, a *app.App, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	rt.logger.Debug("command", "line", line)

	defer rt.recoverLine(o, fields[0])

	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		printSessionHelp(o)

		return false
	case "preview":
		fields = []string{"overlay", "preview"}
	case "save":
		if err := a.Store().Save(); err != nil {
			o.ErrPrintln("error:", err)
		} else {
			o.Println("Saved")
		}

		return false
	}

	for _, cmd := range commands(rt) {
		if cmd.Name() == fields[0] {
			// Each line gets its own IO so warnings print with the line that caused them.
			lineIO := NewIO(o.out, o.errOut)
			if cmd.Run(ctx, lineIO, fields[1:]) == 0 {
				lineIO.Finish()
			}

			return false
		}
	}

	o.ErrPrintln("error: unknown command:", fields[0], "(type 'help' for commands)")

	return false
}

// recoverLine must be deferred directly.
func (rt *deps) recoverLine(o *IO, name string) {
	r := recover()
	if r == nil {
		return
	}

	rt.logger.Error("command panicked", "command", name, "panic", r)
	reportPanic(rt.crash, o.errOut, "panic in "+name, r, debug.Stack())
}

func printSessionHelp(o *IO) {
	o.Println("Commands:")

	for _, c := range commands(nil) {
		switch c.Name() {
		case "run", "print-config":
			continue
		}

		o.Println(c.HelpLine())
	}

	o.Printf("  %-22s %s\n", "preview", "Render the overlay")
	o.Printf("  %-22s %s\n", "save", "Write tasks to disk now")
	o.Printf("  %-22s %s\n", "quit", "Save and exit")
}

func isOverlayLine(line string) bool {
	fields := strings.Fields(line)

	return len(fields) > 0 && fields[0] == "overlay"
}

// drain empties ch without blocking and returns how many values it held.
func drain[T any](ch <-chan T) int {
	n := 0

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}

			n++
		default:
			return n
		}
	}
}

// logToFile redirects the shared logger to the session log in logfmt with
// timestamps.
func (rt *deps) logToFile() error {
	if err := rt.fs.MkdirAll(rt.cfg.DataDirAbs, fs.DirPerm); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	f, err := rt.fs.OpenFile(rt.cfg.LogPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, fs.FilePerm)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	rt.closers = append(rt.closers, f)

	rt.logger.SetOutput(f)
	rt.logger.SetFormatter(log.LogfmtFormatter)
	rt.logger.SetReportTimestamp(true)

	return nil
}

// lineReader reads prompt lines. Implementations return [io.EOF] when the
// user is done.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// newLineReader uses liner for interactive terminals and a plain scanner
// for pipes and tests.
func newLineReader(in io.Reader, historyPath string) lineReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newLinerReader(historyPath)
	}

	if in == nil {
		in = strings.NewReader("")
	}

	return &scanReader{sc: bufio.NewScanner(in)}
}

type scanReader struct {
	sc *bufio.Scanner
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}

	if err := s.sc.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (s *scanReader) Close() error { return nil }

type linerReader struct {
	state   *liner.State
	history string
}

func newLinerReader(historyPath string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeCommand)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}

	return &linerReader{state: state, history: historyPath}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}

		return "", err
	}

	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}

	return line, nil
}

func (r *linerReader) Close() error {
	if f, err := os.Create(r.history); err == nil {
		_, _ = r.state.WriteHistory(f)
		_ = f.Close()
	}

	return r.state.Close()
}

func completeCommand(line string) []string {
	names := []string{"help", "preview", "save", "quit"}
	for _, c := range commands(nil) {
		names = append(names, c.Name())
	}

	var out []string

	for _, name := range names {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}

	return out
}
