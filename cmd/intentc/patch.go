package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazharm/intent-engine/internal/pipeline"
)

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply a structured patch file to the intent corpus",
	}
	cmd.AddCommand(newPatchApplyCmd())
	return cmd
}

func newPatchApplyCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <patch-file>",
		Short: "Apply a patch file's create/update/delete operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(projectRoot(), logger)
			if err != nil {
				return exitErr(1, err)
			}
			result, err := p.PatchApply(args[0], dryRun)
			if err != nil {
				return exitErr(1, err)
			}

			for _, op := range result.Operations {
				fmt.Fprintf(os.Stdout, "applied %s %s\n", op.Action, op.Target)
			}
			if result.HasConflicts() {
				for _, c := range result.Conflicts {
					fmt.Fprintf(os.Stderr, "conflict: %s\n", c)
				}
				return exitErr(4, fmt.Errorf("%d conflict(s)", len(result.Conflicts)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}
