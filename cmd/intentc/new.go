package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <kind> <name>",
		Short: "Create a new, empty intent document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			path, err := p.NewIntent(args[0], args[1])
			if err != nil {
				return exitErr(1, err)
			}
			fmt.Fprintf(os.Stdout, "created %s\n", path)
			return nil
		},
	}
}
