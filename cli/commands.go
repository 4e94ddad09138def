package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stevecastle/quiltpainter/appconfig"
	"github.com/stevecastle/quiltpainter/batch"
	"github.com/stevecastle/quiltpainter/imageio"
	"github.com/stevecastle/quiltpainter/ledger"
	"github.com/stevecastle/quiltpainter/paint"
	"github.com/stevecastle/quiltpainter/quilt"
)

func newPaintCmd() *cobra.Command {
	var qf *quiltFlags
	cmd := &cobra.Command{
		Use:   "paint <rgbd-image> <output>",
		Short: "Render a quilt from an RGBD image",
		Long:  `Render a quilt from an RGBD image: the left half is the texture and the right half its depth map.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := qf.config(ctx)
			if err != nil {
				return err
			}
			prog := newProgress(loggerFromContext(ctx))

			img, err := imageio.Load(args[0])
			if err != nil {
				return err
			}
			texture, depth := imageio.SplitRGBD(img)
			if _, err := paint.Generate(texture, depth, args[1], cfg); err != nil {
				return err
			}
			prog.done("Painted quilt")
			return nil
		},
	}
	qf = addQuiltFlags(cmd, paint.DefaultConfig())
	return cmd
}

func newDepthCmd() *cobra.Command {
	var df *depthFlags
	cmd := &cobra.Command{
		Use:   "depth <image> <output>",
		Short: "Generate an RGBD image from a plain image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gen, release, err := df.generator(ctx, configFromContext(ctx))
			if err != nil {
				return err
			}
			defer release()
			prog := newProgress(loggerFromContext(ctx))

			rgbd, err := gen.RGBD(ctx, args[0])
			if err != nil {
				return err
			}
			if err := imageio.Save(args[1], rgbd); err != nil {
				return err
			}
			prog.done("Saved RGBD image " + args[1])
			return nil
		},
	}
	df = addDepthFlags(cmd)
	return cmd
}

func newDepthPaintCmd() *cobra.Command {
	var (
		qf *quiltFlags
		df *depthFlags
	)
	cmd := &cobra.Command{
		Use:   "depthpaint <image> <output>",
		Short: "Generate depth for an image and render its quilt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := qf.config(ctx)
			if err != nil {
				return err
			}
			gen, release, err := df.generator(ctx, configFromContext(ctx))
			if err != nil {
				return err
			}
			defer release()
			prog := newProgress(loggerFromContext(ctx))

			texture, depth, err := gen.Generate(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := paint.Generate(texture, depth, args[1], cfg); err != nil {
				return err
			}
			prog.done("Painted quilt")
			return nil
		},
	}
	qf = addQuiltFlags(cmd, paint.DefaultConfig())
	df = addDepthFlags(cmd)
	return cmd
}

// batchDefaults are tuned for mixed photo collections.
func batchDefaults() paint.Config {
	cfg := paint.DefaultConfig()
	cfg.Zoom = 1.05
	cfg.Resize = 2.5
	return cfg
}

func newBatchCmd() *cobra.Command {
	var (
		qf *quiltFlags
		df *depthFlags
	)
	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Convert every image in a directory into a quilt",
		Long: `Convert every image under a directory, including images inside zip, 7z and
tar.gz archives, into quilts. Progress is kept in a ledger inside the input
directory so interrupted runs resume, and an m3u playlist is written next to
the output directory. The caption may contain {} for each file's name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			inputDir, outputDir := args[0], args[1]

			qcfg, err := qf.config(ctx)
			if err != nil {
				return err
			}
			cfg := df.apply(configFromContext(ctx))
			if cfg.Cache == "" || cfg.Cache == appconfig.CacheFile {
				cfg.CacheDir = filepath.Join(inputDir, batch.CacheDirName)
			}
			gen, release, err := df.generator(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			ledgerName := cfg.LedgerName
			if ledgerName == "" {
				ledgerName = "index.db"
			}
			l, err := ledger.Open(filepath.Join(inputDir, ledgerName))
			if err != nil {
				return err
			}
			defer l.Close()

			prog := newProgress(logger)
			sum, err := batch.Run(ctx, batch.Options{
				InputDir:  inputDir,
				OutputDir: outputDir,
				Quilt:     qcfg,
				Generator: gen,
				Ledger:    l,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Processed %d, skipped %d, failed %d", sum.Processed, sum.Skipped, sum.Failed))
			return nil
		},
	}
	qf = addQuiltFlags(cmd, batchDefaults())
	df = addDepthFlags(cmd)
	return cmd
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the built-in device presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLAYOUT\tSIZE\tVIEWS")
			for _, name := range quilt.DeviceNames() {
				s, _ := quilt.LookupDevice(name)
				fmt.Fprintf(w, "%s\t%dx%d\t%dx%d\t%d\n", name, s.Columns, s.Rows, s.Width, s.Height, s.Views())
			}
			return w.Flush()
		},
	}
}

