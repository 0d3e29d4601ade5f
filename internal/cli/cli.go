package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/app"
	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/manifest"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app
// config, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("blueprintgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
BlueprintGo - extracts a dependency blueprint from annotated formal libraries.

Usage:
  blueprintgo [options] [MANIFEST_PATH]

Arguments:
  MANIFEST_PATH
    Path to a blueprint.yaml manifest or a directory containing one.
    When omitted, the working directory and its parents are searched.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the project manifest.")
	mFlag := flagSet.String("m", "", "Path to the project manifest (shorthand).")
	outputFlag := flagSet.String("output", "", "Artifact output directory. Defaults to the manifest value.")
	unknownRefsFlag := flagSet.String("unknown-refs", "", "Severity for unresolved references: 'error', 'warn', or 'ignore'. Defaults to the manifest value.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent artifact writers. Defaults to the manifest value.")
	watchFlag := flagSet.Bool("watch", false, "Stay alive and rebuild whenever snapshots or annotations change.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the watch-mode status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *manifestFlag != "" {
		path = *manifestFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else if cwd, err := os.Getwd(); err == nil {
		path = manifest.Find(cwd)
	}
	slog.Debug("Manifest path determined.", "path", path)

	if path == "" {
		return nil, false, &ExitError{Code: 2, Message: "no blueprint.yaml found: pass a manifest path or run inside a project"}
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, manifest.ManifestFile)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *unknownRefsFlag != "" {
		if _, ok := blueprint.ParseSeverity(*unknownRefsFlag); !ok {
			return nil, false, &ExitError{Code: 2, Message: "invalid unknown-refs: must be 'error', 'warn', or 'ignore'"}
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ManifestPath: path,
		Output:       *outputFlag,
		UnknownRefs:  *unknownRefsFlag,
		Workers:      *workersFlag,
		Watch:        *watchFlag,
		StatusPort:   *statusPortFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
