package preparecmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

// sceneFlags are shared by the single-scene commands.
type sceneFlags struct {
	scene     string
	source    string
	output    string
	verbosity int
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scene, "scene", "", "Scene path relative to --source, e.g. scans/scene0000_00 (required)")
	cmd.Flags().StringVar(&f.source, "source", "", "Root directory of the raw capture data (default $SCENEPREP_SOURCE)")
	cmd.Flags().StringVar(&f.output, "output", "", "Root directory for generated manifests (default $SCENEPREP_OUTPUT, then --source)")
	cmd.Flags().IntVarP(&f.verbosity, "verbose", "v", 2, "Progress output: 0 silent, 1 per scene, 2 every 25th frame")
	_ = cmd.MarkFlagRequired("scene")
}

// validate fills unset flags from the environment, which includes .env once the
// root command has run.
func (f *sceneFlags) validate() error {
	if f.source == "" {
		f.source = os.Getenv("SCENEPREP_SOURCE")
	}
	if f.output == "" {
		f.output = os.Getenv("SCENEPREP_OUTPUT")
	}
	if f.source == "" {
		return fmt.Errorf("--source is required (or set SCENEPREP_SOURCE)")
	}
	if _, err := os.Stat(f.source); os.IsNotExist(err) {
		return fmt.Errorf("source directory not found: %s", f.source)
	}
	if f.output == "" {
		f.output = f.source
	}
	return nil
}

// NewSampleCmd creates the sample command for scenes with one pose file per frame
func NewSampleCmd() *cobra.Command {
	var flags sceneFlags

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Prepare a scene stored as intrinsics.txt plus one pose file per frame",
		Long: `Generate info.json for a scene laid out as:

  <source>/<scene>/intrinsics.txt      3x3 camera intrinsics
  <source>/<scene>/color/<id>.jpg      color images with integer ids
  <source>/<scene>/pose/<id>.txt       4x4 camera pose per frame

Frames are ordered by id. Frames whose pose contains NaN or Inf are left out.
The manifest is written to <output>/<scene>/info.json.`,
		Example: `  # Prepare one scene into a separate metadata tree
  sceneprep prepare sample --scene scans/scene0000_00 --source ./raw --output ./meta

  # Quiet run
  sceneprep prepare sample --scene scans/scene0000_00 --source ./raw --output ./meta -v 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			opts := scene.DefaultOptions()
			opts.Verbosity = flags.verbosity
			opts.Progress = cmd.OutOrStdout()

			return executePrepare(cmd, scene.PrepareSampleScene, flags, opts)
		},
	}

	flags.register(cmd)
	return cmd
}

// NewTestCmd creates the test command for scenes described by a single pose table
func NewTestCmd() *cobra.Command {
	var flags sceneFlags
	var perFrameIntrinsics bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Prepare a scene described by a single pose.txt table",
		Long: `Generate info.json for a scene laid out as:

  <source>/<scene>/pose.txt            one line per frame
  <source>/<scene>/color/<token>       color images named by the line token

Each pose.txt line holds 22 whitespace separated fields: the image token,
9 intrinsics values, 9 rotation values and 3 translation values (row-major).
Frames keep the line order of pose.txt. Frames whose pose contains NaN or Inf
are left out.

By default each frame records the intrinsics of its own line. Older manifests
gave every frame the intrinsics of the last line; pass
--per-frame-intrinsics=false to reproduce them.`,
		Example: `  # Prepare a test scene
  sceneprep prepare test --scene scans_test/scene0708_00 --source ./raw --output ./meta

  # Match manifests generated before per-frame intrinsics
  sceneprep prepare test --scene scans_test/scene0708_00 --source ./raw --output ./meta --per-frame-intrinsics=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			opts := scene.DefaultOptions()
			opts.Verbosity = flags.verbosity
			opts.Progress = cmd.OutOrStdout()
			opts.PerFrameIntrinsics = perFrameIntrinsics

			return executePrepare(cmd, scene.PrepareTestScene, flags, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&perFrameIntrinsics, "per-frame-intrinsics", true, "Record each frame's own intrinsics instead of the last line's")
	return cmd
}

// NewBatchCmd creates the batch command for preparing many scenes from a config file
func NewBatchCmd() *cobra.Command {
	var configPath string
	var indexPath string
	var reportPath string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Prepare many scenes listed in a YAML config",
		Long: `Prepare every scene named in a YAML config file.

Scenes are listed explicitly, matched with a glob relative to the source
root, or both. A scene that fails is reported and the rest continue.
Optionally all frames are also written to a Parquet index and the run is
summarized in a YAML report.`,
		Example: `  # scenes.yaml
  source: ./raw
  output: ./meta
  variant: sample
  scene_pattern: scans/*
  concurrency: 4

  sceneprep prepare batch --config scenes.yaml --index ./meta/frames.parquet --report ./meta/report.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			return executeBatch(cmd, configPath, indexPath, reportPath, concurrency)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the batch YAML config (required)")
	cmd.Flags().StringVar(&indexPath, "index", "", "Write all kept frames to this Parquet file (overrides config)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this file (overrides config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Scenes prepared in parallel (overrides config)")

	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var manifestPath string
	var indexPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a generated info.json or Parquet frame index",
		Example: `  # Summarize one manifest
  sceneprep prepare inspect --manifest ./meta/scans/scene0000_00/info.json

  # Show the first 20 rows of a frame index
  sceneprep prepare inspect --index ./meta/frames.parquet --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case manifestPath != "" && indexPath != "":
				return fmt.Errorf("use either --manifest or --index, not both")
			case manifestPath != "":
				return executeInspectManifest(cmd.OutOrStdout(), manifestPath, limit)
			case indexPath != "":
				return executeInspectIndex(cmd.OutOrStdout(), indexPath, limit)
			default:
				return fmt.Errorf("--manifest or --index is required")
			}
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to an info.json manifest")
	cmd.Flags().StringVar(&indexPath, "index", "", "Path to a Parquet frame index")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of frames to show (0 for all)")

	return cmd
}
