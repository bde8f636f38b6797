package cmd

import (
	"github.com/lehigh-university-libraries/sceneprep/internal/preparecmd"
	"github.com/spf13/cobra"
)

func newPrepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Generate info.json manifests for capture scenes",
		Long: `Generate info.json manifests for capture scenes.

Two source layouts are supported: "sample" scenes with intrinsics.txt and one
pose file per frame, and "test" scenes with a single pose.txt table. Both
produce the same manifest format under <output>/<scene>/info.json.`,
	}

	// Add prepare subcommands
	cmd.AddCommand(preparecmd.NewSampleCmd())
	cmd.AddCommand(preparecmd.NewTestCmd())
	cmd.AddCommand(preparecmd.NewBatchCmd())
	cmd.AddCommand(preparecmd.NewInspectCmd())

	return cmd
}
