// Command bpconvert migrates a legacy leanblueprint LaTeX document into
// annotation files. It reads the blueprint's root .tex file, recovers the
// dependency nodes from its theorem environments, and writes one annotation
// file per LaTeX source file.
//
// The converted files key every node by the declaration its \lean command
// named; environments without one are skipped and reported. Readiness flags
// do not carry over because the extractor derives them from the knowledge
// base.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/blueprintgo/blueprintgo/internal/cli"
	"github.com/blueprintgo/blueprintgo/internal/convert"
	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

const usage = `BPConvert - migrates a legacy leanblueprint LaTeX document to annotation files.

Usage:
  bpconvert [options] ROOT_TEX

ROOT_TEX is the blueprint's root LaTeX file. A directory works too when it
contains web.tex or src/web.tex.

Options:
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	flags := flag.NewFlagSet("bpconvert", flag.ContinueOnError)
	flags.SetOutput(outW)
	flags.Usage = func() {
		fmt.Fprint(outW, usage)
		flags.PrintDefaults()
	}

	outDir := flags.String("out", filepath.Join("blueprint", "nodes"), "Directory for the generated annotation files.")
	thms := flags.String("thms", "", "Theorem environment list as 'a+b+c', overriding the document's package options.")
	jsonOut := flags.Bool("json", false, "Print the extracted nodes as JSON to stdout and write nothing.")
	logFormat := flags.String("log-format", "text", "Log output format. Options: 'text', 'json'.")
	logLevel := flags.String("log-level", "info", "Log verbosity. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}

	logger, err := newLogger(*logFormat, *logLevel)
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	root, err := resolveRoot(flags.Arg(0))
	if err != nil {
		return err
	}

	src, err := convert.Inline(ctx, root)
	if err != nil {
		return err
	}
	nodes := convert.NewParser(convert.SplitEnvList(*thms)).Parse(ctx, src)

	if *jsonOut {
		data, err := json.MarshalIndent(nodes, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode nodes: %w", err)
		}
		fmt.Fprintln(outW, string(data))
		return nil
	}

	paths, err := convert.WriteAnnotations(ctx, nodes, *outDir)
	if err != nil {
		return err
	}
	logger.Info("Conversion finished.", "nodes", len(nodes), "files", len(paths), "out", *outDir)
	return nil
}

// resolveRoot accepts either the root .tex file itself or a blueprint
// directory laid out the way the legacy toolchain expected.
func resolveRoot(arg string) (string, error) {
	if arg == "" {
		return "", &cli.ExitError{Code: 2, Message: "no root LaTeX file: pass the blueprint's root .tex file"}
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", &cli.ExitError{Code: 2, Message: fmt.Sprintf("cannot read %s: %v", arg, err)}
	}
	if !info.IsDir() {
		return arg, nil
	}
	for _, candidate := range []string{filepath.Join(arg, "web.tex"), filepath.Join(arg, "src", "web.tex")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &cli.ExitError{Code: 2, Message: fmt.Sprintf("no web.tex found under %s", arg)}
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: must be 'debug', 'info', 'warn', or 'error'")
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format: must be 'text' or 'json'")
}
