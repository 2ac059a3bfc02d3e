// Command intentc is the intent compiler's CLI: new, list, show, fmt,
// validate, gen, diff, verify, and patch apply. It is a thin cobra command
// tree over internal/pipeline; structured logs go to stderr so stdout stays
// reserved for command output.
//
// Optional environment variables:
//
//	INTENTC_LOG_LEVEL - Log level: debug, info, warn, error (default: info)
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	outputFormat string
	logger       *slog.Logger
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "intentc",
		Short:         "Compile, validate, and generate code from intent documents",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(os.Getenv("INTENTC_LOG_LEVEL")),
			}))
		},
	}

	cmd.PersistentFlags().StringVar(&outputFormat, "format", "human", "output format: human or json")

	cmd.AddCommand(
		newNewCmd(),
		newListCmd(),
		newShowCmd(),
		newFmtCmd(),
		newValidateCmd(),
		newGenCmd(),
		newDiffCmd(),
		newVerifyCmd(),
		newPatchCmd(),
	)
	return cmd
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// exitStatusError carries a stable exit code alongside the message cobra
// prints.
type exitStatusError struct {
	code int
	err  error
}

func (e *exitStatusError) Error() string { return e.err.Error() }

func exitErr(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitStatusError{code: code, err: err}
}

func exitCodeFor(err error) int {
	if e, ok := err.(*exitStatusError); ok {
		fmt.Fprintln(os.Stderr, e.err)
		return e.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
