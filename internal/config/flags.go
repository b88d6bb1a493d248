package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Only flags the user actually set are
// applied on top of the file.
type Flags struct {
	fs *pflag.FlagSet

	configPath   string
	debug        bool
	mesh         string
	gridCols     int
	gridRows     int
	resolution   int
	cellsPerRow  int
	fillInterior bool
	brushSize    int
	color        string
	syncCells    bool
	exportDir    string
	format       string
	previewScale int
	logFile      string
}

// RegisterFlags adds the override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.StringVarP(&f.mesh, "mesh", "m", "", "GLB/GLTF mesh to paint (default: generated grid)")
	fs.IntVar(&f.gridCols, "grid-cols", 0, "generated grid columns")
	fs.IntVar(&f.gridRows, "grid-rows", 0, "generated grid rows")
	fs.IntVarP(&f.resolution, "resolution", "r", 0, "atlas cell size in pixels")
	fs.IntVar(&f.cellsPerRow, "cells-per-row", 0, "atlas cells per row")
	fs.BoolVar(&f.fillInterior, "fill-interior", false, "blend corner colors across each cell")
	fs.IntVarP(&f.brushSize, "brush", "b", 0, "texture brush size in pixels")
	fs.StringVar(&f.color, "color", "", "initial paint color (hex)")
	fs.BoolVar(&f.syncCells, "sync-cells", false, "re-bake cells after surface painting")
	fs.StringVarP(&f.exportDir, "out", "o", "", "export directory")
	fs.StringVarP(&f.format, "format", "f", "", "atlas export format (png, webp)")
	fs.IntVar(&f.previewScale, "preview-scale", 0, "upscale factor for preview export")
	fs.StringVar(&f.logFile, "log-file", "", "rotating log file path")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.configPath
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply writes every flag the user set into cfg.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("mesh") {
		cfg.Mesh.Path = f.mesh
	}
	if f.changed("grid-cols") {
		cfg.Mesh.GridCols = f.gridCols
	}
	if f.changed("grid-rows") {
		cfg.Mesh.GridRows = f.gridRows
	}
	if f.changed("resolution") {
		cfg.Atlas.Resolution = f.resolution
	}
	if f.changed("cells-per-row") {
		cfg.Atlas.CellsPerRow = f.cellsPerRow
	}
	if f.changed("fill-interior") {
		cfg.Atlas.FillInterior = f.fillInterior
	}
	if f.changed("brush") {
		cfg.Paint.BrushSize = f.brushSize
	}
	if f.changed("color") {
		cfg.Paint.ActiveColor = f.color
	}
	if f.changed("sync-cells") {
		cfg.Paint.SyncCells = f.syncCells
	}
	if f.changed("out") {
		cfg.Export.Dir = f.exportDir
	}
	if f.changed("format") {
		cfg.Export.Format = f.format
	}
	if f.changed("preview-scale") {
		cfg.Export.PreviewScale = f.previewScale
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
}
