package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newGenCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate code from validated intent documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			result, validation, err := p.Generate(checkOnly)
			if err != nil {
				return exitErr(1, err)
			}
			if !validation.Valid() {
				for _, d := range validation.Diagnostics {
					fmt.Fprintln(os.Stderr, d.String())
				}
				return exitErr(2, fmt.Errorf("%d validation error(s)", len(validation.Errors())))
			}

			for _, f := range result.Files {
				if checkOnly {
					status := "ok"
					if !f.Matches {
						status = "MISMATCH: " + f.Reason
					}
					fmt.Fprintf(os.Stdout, "%s %s\n", f.Path, status)
				} else {
					fmt.Fprintf(os.Stdout, "wrote %s\n", f.Path)
				}
			}
			for _, path := range result.StalePaths {
				if checkOnly {
					fmt.Fprintf(os.Stdout, "%s STALE: no longer produced by the corpus\n", path)
				} else {
					fmt.Fprintf(os.Stdout, "removed %s\n", path)
				}
			}

			if checkOnly && !result.Matches() {
				return exitErr(3, fmt.Errorf("generated output does not match the corpus"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "compare against existing output without writing")
	return cmd
}
