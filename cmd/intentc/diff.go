package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <base-ref>",
		Short: "Compute the semantic diff against a git revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			result, err := p.Diff(args[0])
			if err != nil {
				return exitErr(1, err)
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			for _, c := range result.Changes {
				fmt.Fprintf(os.Stdout, "[%s] %s/%s %s: %s\n", c.Severity, c.IntentKind, c.IntentName, c.Category, c.Description)
			}
			fmt.Fprintf(os.Stdout, "\n%d high, %d medium, %d low, %d info\n",
				result.HighCount, result.MediumCount, result.LowCount, result.InfoCount)
			return nil
		},
	}
}
