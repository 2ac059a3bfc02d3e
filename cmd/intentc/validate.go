package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve references, type-check, and policy-check the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			_, result, err := p.Validate()
			if err != nil {
				return exitErr(1, err)
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				for _, d := range result.Diagnostics {
					fmt.Fprintln(os.Stdout, d.String())
				}
			}

			if !result.Valid() {
				return exitErr(2, fmt.Errorf("%d validation error(s)", len(result.Errors())))
			}
			return nil
		},
	}
}
