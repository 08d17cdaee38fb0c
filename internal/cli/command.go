package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one todowork subcommand. The same value serves a one-shot
// invocation and a line typed into a run session.
type Command struct {
	// Flags are parsed before Exec. Sets hold parsed values, so commands are
	// built fresh for every invocation.
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "overlay <action> [flags]".
	Usage string

	// Short is the help line shown in the top-level listing and by the
	// session's help builtin.
	Short string

	// Long is printed by --help. Falls back to Short.
	Long string

	// Exec receives the positional args left after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage; dispatch matches on it.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine formats Usage and Short as one aligned listing row.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-22s %s", c.Usage, c.Short)
}

// PrintHelp writes the usage, description and flag defaults.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: todowork", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses args and calls Exec, printing any error to o's stderr.
// Returns the exit code: 0 on success or --help, 1 otherwise.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // errors are printed below

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
