// Package cli implements the quiltpainter command-line interface.
//
// The commands turn RGBD images, or plain images run through a depth
// estimator, into Looking Glass quilts:
//   - paint: render a quilt from an RGBD image
//   - depth: generate an RGBD image from a plain image
//   - depthpaint: generate depth and render the quilt in one step
//   - batch: convert a directory of images and write an m3u playlist
//   - devices: list the built-in device presets
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed through context.Context.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stevecastle/quiltpainter/appconfig"
	"github.com/stevecastle/quiltpainter/platform"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// NewRootCommand builds the root command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          platform.AppName,
		Short:        "Quilt Painter renders Looking Glass quilts from images and depth maps",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if verbose {
				level = LogDebug
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			ctx := withLogger(cmd.Context(), logger)

			cfg, path, err := appconfig.Load(configPath)
			if err != nil {
				return err
			}
			logger.Debug("loaded config", "path", path)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is config.json in the data directory)")

	root.AddCommand(newPaintCmd())
	root.AddCommand(newDepthCmd())
	root.AddCommand(newDepthPaintCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newDevicesCmd())
	return root
}
