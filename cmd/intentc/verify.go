package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
	"github.com/mazharm/intent-engine/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Run the composite fmt/validate/gen/obligations gate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			report, err := p.Verify()
			if err != nil {
				return exitErr(1, err)
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printVerifyReport(report)
			}

			if !report.Success {
				return exitErr(int(report.ExitCode), fmt.Errorf("verify failed at step %q", report.FailedStep))
			}
			return nil
		},
	}
}

func printVerifyReport(report verify.Report) {
	if report.Success {
		fmt.Fprintf(os.Stdout, "verify OK: %d intent(s), %d file(s) generated\n",
			report.IntentsValidated, report.FilesGenerated)
		return
	}

	switch report.FailedStep {
	case verify.StepFormat:
		fmt.Fprintln(os.Stdout, "fmt: the following files are not canonically formatted:")
		for _, f := range report.UnformattedFiles {
			fmt.Fprintf(os.Stdout, "  %s\n", f)
		}
	case verify.StepValidate:
		for _, d := range report.ValidationResult.Diagnostics {
			fmt.Fprintln(os.Stdout, d.String())
		}
	case verify.StepGenerate:
		for _, f := range report.GenResult.Files {
			if !f.Matches {
				fmt.Fprintf(os.Stdout, "gen mismatch: %s: %s\n", f.Path, f.Reason)
			}
		}
	case verify.StepObligations:
		fmt.Fprintln(os.Stdout, "open obligations:")
		for _, o := range report.OpenObligations {
			fmt.Fprintf(os.Stdout, "  [%s] %s\n", o.Severity, o.Description)
		}
	}
}
