package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/meshpaint/internal/config"
	"github.com/taigrr/meshpaint/internal/logger"
	"github.com/taigrr/meshpaint/pkg/asset"
)

func newBakeCmd(flags *config.Flags) *cobra.Command {
	var importPath string

	cmd := &cobra.Command{
		Use:   "bake [mesh.glb]",
		Short: "Pack a mesh into an atlas and export it without the viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(flags, args, true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, name, _, err := openSession(cfg)
			if err != nil {
				return err
			}

			if importPath != "" {
				img, err := asset.Load(importPath)
				if err != nil {
					return err
				}
				if err := s.ImportAtlas(img); err != nil {
					return err
				}
				logger.Info("imported atlas", zap.String("path", importPath))
			}

			paths, err := exportSession(s, cfg, name)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&importPath, "import", "", "atlas image (PNG, JPEG, WebP, TGA) to export instead of the baked one")
	return cmd
}

func newConfigCmd(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config [path]",
		Short: "Write the effective configuration as YAML",
		Long:  "Write the effective configuration (defaults, config file and flags merged)\nto path, or to the user config directory when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags)
			if err != nil {
				return err
			}
			path := filepath.Join(config.ConfigDir(), "config.yaml")
			if len(args) > 0 {
				path = args[0]
			}
			if err := cfg.SaveTo(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
