package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/todowork/internal/app"
	"github.com/calvinalkan/todowork/internal/todo"

	flag "github.com/spf13/pflag"
)

const shortIDLen = 8

var errPinCompleted = errors.New("cannot pin a completed task")

// AddCmd returns the add command.
func AddCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("add", flag.ContinueOnError),
		Usage: "add <text>",
		Short: "Add a task, prints its ID",
		Long:  "Add a new open task. All arguments are joined into the task text.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execAdd(io, rt, args)
		},
	}
}

func execAdd(io *IO, rt *deps, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return todo.ErrTextRequired
	}

	a, err := rt.app()
	if err != nil {
		return err
	}

	task, ok := a.Store().Add(text)
	if !ok {
		return todo.ErrTextRequired
	}

	io.Println(task.ID)

	return nil
}

// DoneCmd returns the done command.
func DoneCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("done", flag.ContinueOnError),
		Usage: "done <id>",
		Short: "Complete a task",
		Long:  "Mark a task completed. Completing a pinned task unpins it.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetCompleted(io, rt, args, true)
		},
	}
}

// UndoCmd returns the undo command.
func UndoCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("undo", flag.ContinueOnError),
		Usage: "undo <id>",
		Short: "Reopen a completed task",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetCompleted(io, rt, args, false)
		},
	}
}

func execSetCompleted(io *IO, rt *deps, args []string, completed bool) error {
	a, task, err := resolveTask(rt, args)
	if err != nil {
		return err
	}

	changed, err := a.Store().SetCompleted(task.ID, completed)
	if err != nil {
		return err
	}

	switch {
	case !changed && completed:
		io.Println(shortID(task.ID), "is already completed")
	case !changed:
		io.Println(shortID(task.ID), "is already open")
	case completed:
		io.Println("Completed", shortID(task.ID))
	default:
		io.Println("Reopened", shortID(task.ID))
	}

	return nil
}

// PinCmd returns the pin command.
func PinCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("pin", flag.ContinueOnError),
		Usage: "pin <id>",
		Short: "Pin a task to the overlay",
		Long:  "Pin an open task so it shows on the overlay. Completed tasks cannot be pinned.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetPinned(io, rt, args, true)
		},
	}
}

// UnpinCmd returns the unpin command.
func UnpinCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("unpin", flag.ContinueOnError),
		Usage: "unpin <id>",
		Short: "Remove a task from the overlay",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetPinned(io, rt, args, false)
		},
	}
}

func execSetPinned(io *IO, rt *deps, args []string, pinned bool) error {
	a, task, err := resolveTask(rt, args)
	if err != nil {
		return err
	}

	if pinned && task.IsCompleted {
		return fmt.Errorf("%w: %s", errPinCompleted, shortID(task.ID))
	}

	if _, err := a.Store().SetPinned(task.ID, pinned); err != nil {
		return err
	}

	if pinned {
		io.Println("Pinned", shortID(task.ID))
	} else {
		io.Println("Unpinned", shortID(task.ID))
	}

	return nil
}

// EditCmd returns the edit command.
func EditCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("edit", flag.ContinueOnError),
		Usage: "edit <id> <text>",
		Short: "Replace a task's text",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execEdit(io, rt, args)
		},
	}
}

func execEdit(io *IO, rt *deps, args []string) error {
	if len(args) < 2 || strings.TrimSpace(strings.Join(args[1:], " ")) == "" {
		if len(args) == 0 {
			return todo.ErrIDRequired
		}

		return todo.ErrTextRequired
	}

	a, task, err := resolveTask(rt, args[:1])
	if err != nil {
		return err
	}

	changed, err := a.Store().SetText(task.ID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	if changed {
		io.Println("Updated", shortID(task.ID))
	} else {
		io.Println(shortID(task.ID), "is unchanged")
	}

	return nil
}

// RmCmd returns the rm command.
func RmCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>",
		Short: "Delete a task",
		Exec: func(_ context.Context, io *IO, args []string) error {
			a, task, err := resolveTask(rt, args)
			if err != nil {
				return err
			}

			a.Store().Remove(task.ID)
			io.Println("Removed", shortID(task.ID))

			return nil
		},
	}
}

// ClearCompletedCmd returns the clear-completed command.
func ClearCompletedCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("clear-completed", flag.ContinueOnError),
		Usage: "clear-completed",
		Short: "Delete all completed tasks",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			a, err := rt.app()
			if err != nil {
				return err
			}

			n := a.Store().ClearCompleted()
			io.Printf("Removed %d completed %s\n", n, plural(n, "task", "tasks"))

			return nil
		},
	}
}

// LsCmd returns the ls command.
func LsCmd(rt *deps) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.Bool("completed", false, "Show completed tasks, most recently completed first")
	fs.Bool("pinned", false, "Show only the tasks on the overlay")
	fs.Bool("all", false, "Show open tasks followed by completed tasks")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List tasks",
		Long:  "List open tasks, pinned first, then newest first.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execLs(io, rt, fs)
		},
	}
}

var errConflictingViews = errors.New("--completed, --pinned and --all are mutually exclusive")

func execLs(io *IO, rt *deps, fs *flag.FlagSet) error {
	completed, _ := fs.GetBool("completed")
	pinned, _ := fs.GetBool("pinned")
	all, _ := fs.GetBool("all")

	views := 0

	for _, on := range []bool{completed, pinned, all} {
		if on {
			views++
		}
	}

	if views > 1 {
		return errConflictingViews
	}

	a, err := rt.app()
	if err != nil {
		return err
	}

	store := a.Store()

	var tasks []todo.Task

	switch {
	case completed:
		tasks = store.Completed()
	case pinned:
		tasks = store.Pinned()
	case all:
		tasks = append(store.Pending(), store.Completed()...)
	default:
		tasks = store.Pending()
	}

	for _, t := range tasks {
		io.Println(formatTask(t))
	}

	if views == 0 {
		if n := store.CompletedCount(); n > 0 {
			io.Printf("# %d completed\n", n)
		}
	}

	return nil
}

func resolveTask(rt *deps, args []string) (*app.App, todo.Task, error) {
	if len(args) == 0 {
		return nil, todo.Task{}, todo.ErrIDRequired
	}

	a, err := rt.app()
	if err != nil {
		return nil, todo.Task{}, err
	}

	task, err := a.Store().Resolve(args[0])
	if err != nil {
		return nil, todo.Task{}, err
	}

	return a, task, nil
}

func formatTask(t todo.Task) string {
	mark := "[ ]"
	if t.IsCompleted {
		mark = "[x]"
	}

	pin := " "
	if t.IsPinned {
		pin = "*"
	}

	return fmt.Sprintf("%s %s %s %s", shortID(t.ID), mark, pin, t.Text)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}

	return id[:shortIDLen]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
