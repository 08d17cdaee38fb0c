package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(rt *deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, rt)
		},
	}
}

func execPrintConfig(io *IO, rt *deps) error {
	cfg := rt.cfg
	wa := cfg.WorkArea

	io.Println("data_dir=" + cfg.DataDirAbs)
	io.Println("runtime_dir=" + cfg.RuntimeDirAbs)
	io.Println("log_level=" + cfg.LogLevel)
	io.Println("log_format=" + cfg.LogFormat)
	io.Printf("save_delay_ms=%d\n", cfg.SaveDelayMS)
	io.Printf("work_area=%s,%s %sx%s\n", num(wa.Left), num(wa.Top), num(wa.Width), num(wa.Height))

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Explicit == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Explicit != "" {
			io.Println("explicit_config=" + cfg.Sources.Explicit)
		}
	}

	return nil
}
