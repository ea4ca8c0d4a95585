package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/chartbook/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("chartbook", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Chartbook - A declarative compiler for data-driven report books.

Usage:
  chartbook [options] [BOOK_PATH]

Arguments:
  BOOK_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	bookFlag := flagSet.String("book", "", "Path to the book file or directory.")
	bFlag := flagSet.String("b", "", "Path to the book file or directory (shorthand).")
	outFlag := flagSet.String("out", "dist", "Output directory for rendered pages.")
	manifestFlag := flagSet.String("manifest", "", "Path to the build manifest. Defaults to <out>/manifest.json.")
	baseNameFlag := flagSet.String("base-name", "report", "Base name for output units.")
	forceFlag := flagSet.Bool("force", false, "Regenerate every page, ignoring the manifest.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	notifyURLFlag := flagSet.String("notify-url", "", "Socket.IO endpoint to notify on build completion. Empty is disabled.")
	previewPortFlag := flagSet.Int("preview-port", 0, "Port for the HTTP preview server. 0 is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *bookFlag != "" {
		path = *bookFlag
	} else if *bFlag != "" {
		path = *bFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Book path determined.", "path", path)

	if path == "" {
		slog.Debug("No book path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
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

	if *previewPortFlag < 0 || *previewPortFlag > 65535 {
		return nil, false, &ExitError{Code: 2, Message: "invalid preview-port: must be between 0 and 65535"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		BookPath:     path,
		OutDir:       *outFlag,
		ManifestPath: *manifestFlag,
		BaseName:     *baseNameFlag,
		Force:        *forceFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		NotifyURL:    *notifyURLFlag,
		PreviewPort:  *previewPortFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
