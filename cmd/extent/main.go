package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/raster-extent/pkg/extent"
	"github.com/robert-malhotra/raster-extent/pkg/raster"
	"github.com/robert-malhotra/raster-extent/pkg/source"
)

const (
	exitOK      = 0
	exitNoInput = 1
	exitFailure = 2
)

const usageLine = "usage: extent [--bounds|--extent|--size] [PATH ...] [--as-json|--as-wkt|--as-stac] [--indent WIDTH]"

var (
	boundsFlag = &cli.BoolFlag{
		Name:    "bounds",
		Aliases: []string{"b"},
		Usage:   "print the min-max bounds (xmin ymin xmax ymax)",
	}
	extentFlag = &cli.BoolFlag{
		Name:    "extent",
		Aliases: []string{"e"},
		Usage:   "print the rectangular extent as a GeoJSON polygon",
	}
	sizeFlag = &cli.BoolFlag{
		Name:    "size",
		Aliases: []string{"s"},
		Usage:   "print the width and height in pixels",
	}
	jsonFlag = &cli.BoolFlag{
		Name:    "as-json",
		Aliases: []string{"j"},
		Usage:   "output JSON (GeoJSON for --extent)",
	}
	wktFlag = &cli.BoolFlag{
		Name:    "as-wkt",
		Aliases: []string{"w"},
		Usage:   "output the extent polygon as Well-Known Text",
	}
	stacFlag = &cli.BoolFlag{
		Name:  "as-stac",
		Usage: "output a STAC Item describing the raster",
	}
	indentFlag = &cli.IntFlag{
		Name:    "indent",
		Aliases: []string{"i"},
		Usage:   "indentation `WIDTH` for JSON output",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "diagnostic log level (debug, info, warn, error)",
		Value:   "warn",
		Sources: cli.EnvVars("RASTER_EXTENT_LOG_LEVEL"),
	}
)

var (
	errNoInput     = errors.New("no input files")
	errFilesFailed = errors.New("one or more files failed")
)

// usageError marks malformed or conflicting arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the tool and returns its exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) <= 1 {
		fmt.Fprintln(stdout, usageLine)
		return exitNoInput
	}

	cmd := newCommand(stdout, stderr)
	err := cmd.Run(ctx, args)

	var uerr *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNoInput):
		fmt.Fprintln(stdout, usageLine)
		return exitNoInput
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "error: %v\n%s\n", uerr, usageLine)
		return exitFailure
	case errors.Is(err, errFilesFailed):
		return exitFailure
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "extent",
		Usage:     "Report the extent of georeferenced rasters",
		UsageText: strings.TrimPrefix(usageLine, "usage: "),
		Flags: []cli.Flag{
			boundsFlag, extentFlag, sizeFlag,
			jsonFlag, wktFlag, stacFlag, indentFlag,
			logLevelFlag,
		},
		Writer:    stdout,
		ErrWriter: stderr,
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{err: err}
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return extentAction(ctx, cmd, stdout, stderr)
		},
	}
}

func extentAction(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	mode, err := modeFromCommand(cmd)
	if err != nil {
		return err
	}
	opts, err := encodeOptionsFromCommand(cmd)
	if err != nil {
		return err
	}
	if !extent.Supports(mode, opts.Format) {
		return usageErrorf("--%s has no %s form", mode, opts.Format)
	}
	logger, err := newLogger(cmd.String(logLevelFlag.Name), stderr)
	if err != nil {
		return err
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errNoInput
	}

	b := &batch{
		registry: raster.NewRegistry(
			raster.WithDrivers(raster.DefaultDrivers()...),
			raster.WithLogger(logger),
		),
		resolver: source.NewResolver(source.WithLogger(logger)),
		logger:   logger,
		mode:     mode,
		opts:     opts,
		stdout:   stdout,
		stderr:   stderr,
	}
	return b.run(ctx, paths)
}

// modeFromCommand maps the mutually exclusive mode flags to a Mode. Bare
// paths without a mode flag select bounds.
func modeFromCommand(cmd *cli.Command) (extent.Mode, error) {
	selected := []struct {
		flag *cli.BoolFlag
		mode extent.Mode
	}{
		{boundsFlag, extent.ModeBounds},
		{extentFlag, extent.ModeExtent},
		{sizeFlag, extent.ModeSize},
	}

	mode, n := extent.ModeBounds, 0
	for _, s := range selected {
		if cmd.Bool(s.flag.Name) {
			mode = s.mode
			n++
		}
	}
	if n > 1 {
		return mode, usageErrorf("only one of --bounds, --extent, --size may be given")
	}
	return mode, nil
}

func encodeOptionsFromCommand(cmd *cli.Command) (extent.EncodeOptions, error) {
	opts := extent.EncodeOptions{Format: extent.FormatText, Indent: -1}

	n := 0
	for _, f := range []struct {
		flag   *cli.BoolFlag
		format extent.Format
	}{
		{jsonFlag, extent.FormatJSON},
		{wktFlag, extent.FormatWKT},
		{stacFlag, extent.FormatSTAC},
	} {
		if cmd.Bool(f.flag.Name) {
			opts.Format = f.format
			n++
		}
	}
	if n > 1 {
		return opts, usageErrorf("only one of --as-json, --as-wkt, --as-stac may be given")
	}

	if cmd.IsSet(indentFlag.Name) {
		indent := cmd.Int(indentFlag.Name)
		if indent < 0 {
			return opts, usageErrorf("--indent must not be negative, got %d", indent)
		}
		opts.Indent = int(indent)
	}
	return opts, nil
}

// newLogger builds the diagnostic logger. Results never go through it.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, usageErrorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
