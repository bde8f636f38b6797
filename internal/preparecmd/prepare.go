package preparecmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/sceneprep/internal/batch"
	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

func executePrepare(cmd *cobra.Command, prepare batch.PrepareFunc, flags sceneFlags, opts scene.Options) error {
	slog.Info("Preparing scene", "scene", flags.scene, "source", flags.source, "output", flags.output)
	start := time.Now()

	manifest, err := prepare(cmd.Context(), flags.scene, flags.source, flags.output, opts)
	if err != nil {
		return err
	}

	slog.Info("Prepared scene",
		"scene", flags.scene,
		"frames", manifest.Stats.Kept,
		"skipped", manifest.Stats.Skipped,
		"duration", time.Since(start))

	if opts.Verbosity > 0 {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "wrote %s (%d frames", scene.ManifestPath(flags.output, flags.scene), manifest.Stats.Kept)
		if manifest.Stats.Skipped > 0 {
			fmt.Fprintf(out, ", %d skipped for invalid pose", manifest.Stats.Skipped)
		}
		fmt.Fprintln(out, ")")
	}

	return nil
}
