package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"
)

// LevelTrace sits below slog.LevelDebug and logs every line read.
const LevelTrace = slog.Level(-8)

// Options are the command line arguments.
type Options struct {
	LogDir     string
	Verbose    int
	Format     OutputFormat
	ConfigPath string
}

func parseArgs(args []string, stderr io.Writer) (Options, error) {
	flags := pflag.NewFlagSet("csgolp", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.CountP("verbose", "v", "verbose mode (-v, -vv, -vvv, etc.)")
	generate := flags.StringP("generate", "g", string(FormatJSON), "output format to generate (json, yaml, cbor)")
	configPath := flags.StringP("config", "c", "", "config file (default $CONFIG_PATH or <user config dir>/csgolp/config.yaml)")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: csgolp [flags] DIR")
		fmt.Fprintln(stderr, "\nDIR is the directory containing your CS:GO server logs.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return Options{}, err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return Options{}, fmt.Errorf("expected one log directory argument, got %d", flags.NArg())
	}
	format, err := ParseOutputFormat(*generate)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		LogDir:     flags.Arg(0),
		Verbose:    *verbose,
		Format:     format,
		ConfigPath: *configPath,
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath()
	}
	return opts, nil
}

// logLevel maps the -v count: none shows errors only, -vvvv and beyond trace.
func logLevel(verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return slog.LevelError
	case verbose == 1:
		return slog.LevelWarn
	case verbose == 2:
		return slog.LevelInfo
	case verbose == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

func newLogger(w io.Writer, verbose int) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel(verbose),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}
