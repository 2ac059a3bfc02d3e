package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newFmtCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Canonicalise intent files in place",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			only := ""
			if len(args) == 1 {
				only = args[0]
			}
			results, err := p.Format(only, checkOnly)
			if err != nil {
				return exitErr(1, err)
			}

			var changed []string
			for _, r := range results {
				if r.Changed {
					changed = append(changed, r.Path)
					verb := "formatted"
					if checkOnly {
						verb = "would reformat"
					}
					fmt.Fprintf(os.Stdout, "%s %s\n", verb, r.Path)
				}
			}
			if checkOnly && len(changed) > 0 {
				return exitErr(1, fmt.Errorf("%d file(s) not formatted", len(changed)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "report unformatted files without rewriting them")
	return cmd
}
