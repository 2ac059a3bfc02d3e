package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newListCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List intent documents, optionally filtered by kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			summaries, err := p.List(kind)
			if err != nil {
				return exitErr(1, err)
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tFILE")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Kind, s.Name, s.File)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "filter by intent kind")
	return cmd
}
