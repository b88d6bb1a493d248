// meshpaint - paint triangle meshes in your terminal.
// Every triangle gets its own cell in a texture atlas; strokes land on the
// mesh vertex colors and on the atlas at the same time.
//
// Controls:
//
//	Left click/drag  - Paint
//	Right drag       - Rotate model
//	W/S/A/D          - Pitch and yaw
//	Space            - Random spin
//	R                - Reset rotation
//	1-8              - Pick palette color
//	[ / ]            - Shrink/grow texture brush
//	B                - Re-bake atlas from vertex colors
//	V                - Cycle view (surface, textured, atlas)
//	X                - Toggle wireframe overlay
//	P                - Export atlas, preview and GLB
//	C                - Save screenshot
//	?                - Toggle HUD overlay
//	+/-              - Zoom
//	Esc              - Quit
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/meshpaint/internal/config"
	"github.com/taigrr/meshpaint/internal/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "meshpaint [mesh.glb]",
		Short: "Paint triangle meshes and their texture atlas in the terminal",
		Long: "meshpaint packs every triangle of a mesh into its own cell of a texture atlas\n" +
			"and lets you paint the surface and the atlas together. Without a mesh it\n" +
			"paints a generated grid.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}
	flags := config.RegisterFlags(root.PersistentFlags())

	root.RunE = func(cmd *cobra.Command, args []string) error {
		// The viewer owns stdout; log to the file only.
		cfg, err := setup(flags, args, false)
		if err != nil {
			return err
		}
		defer logger.Sync()
		return runViewer(cmd.Context(), cfg)
	}

	root.AddCommand(newBakeCmd(flags), newConfigCmd(flags))
	return root
}

// setup loads configuration and initializes logging.
func setup(flags *config.Flags, args []string, console bool) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Mesh.Path = args[0]
	}

	var out io.Writer
	if console {
		out = os.Stderr
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, out); err != nil {
		return nil, err
	}
	return cfg, nil
}
