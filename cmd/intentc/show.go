package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show an intent document and its dependency edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			result, err := p.Show(args[0])
			if err != nil {
				return exitErr(1, err)
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			doc := result.Document
			fmt.Fprintf(os.Stdout, "%s %s (%s)\n", doc.Kind, doc.Name, doc.ID)
			fmt.Fprintf(os.Stdout, "source: %s\n\n", doc.SourceFile)

			fmt.Fprintln(os.Stdout, "dependencies:")
			for _, d := range result.Dependencies {
				fmt.Fprintf(os.Stdout, "  %s %s\n", d.Kind, d.Name)
			}
			fmt.Fprintln(os.Stdout, "dependents:")
			for _, d := range result.Dependents {
				fmt.Fprintf(os.Stdout, "  %s %s\n", d.Kind, d.Name)
			}
			return nil
		},
	}
}
