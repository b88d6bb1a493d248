// Package config handles meshpaint configuration loading and management.
package config

import (
	"fmt"

	"github.com/taigrr/meshpaint/pkg/asset"
	"github.com/taigrr/meshpaint/pkg/atlas"
	"github.com/taigrr/meshpaint/pkg/paint"
)

// Config holds all meshpaint settings.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Atlas   AtlasConfig   `yaml:"atlas"`
	Paint   PaintConfig   `yaml:"paint"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig selects the mesh to paint. An empty Path uses a generated grid.
type MeshConfig struct {
	Path     string `yaml:"path"`
	GridCols int    `yaml:"grid_cols"`
	GridRows int    `yaml:"grid_rows"`
}

// AtlasConfig holds packing settings.
type AtlasConfig struct {
	Resolution   int  `yaml:"resolution"`
	CellsPerRow  int  `yaml:"cells_per_row"`
	FillInterior bool `yaml:"fill_interior"`
}

// PaintConfig holds brush and picking settings.
type PaintConfig struct {
	BrushSize         int     `yaml:"brush_size"`
	PickThreshold     float64 `yaml:"pick_threshold"`
	CoincidentEpsilon float64 `yaml:"coincident_epsilon"`
	ActiveColor       string  `yaml:"active_color"`
	SyncCells         bool    `yaml:"sync_cells"`
}

// ViewerConfig holds terminal viewer settings.
type ViewerConfig struct {
	FPS        int    `yaml:"fps"`
	Background string `yaml:"background"`
	Bilinear   bool   `yaml:"bilinear"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Dir          string `yaml:"dir"`
	Format       string `yaml:"format"` // png or webp
	PreviewScale int    `yaml:"preview_scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock packing and brush settings.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			GridCols: 8,
			GridRows: 8,
		},
		Atlas: AtlasConfig{
			Resolution:  3,
			CellsPerRow: 100,
		},
		Paint: PaintConfig{
			BrushSize:         3,
			PickThreshold:     1.0,
			CoincidentEpsilon: 1e-6,
			ActiveColor:       "#000000",
		},
		Viewer: ViewerConfig{
			FPS:        60,
			Background: "#1e1e28",
		},
		Export: ExportConfig{
			Dir:          "out",
			Format:       "png",
			PreviewScale: 8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first invalid setting. Errors wrap atlas.ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.Atlas.Resolution <= 0:
		return invalid("atlas.resolution must be positive, got %d", c.Atlas.Resolution)
	case c.Atlas.CellsPerRow <= 0:
		return invalid("atlas.cells_per_row must be positive, got %d", c.Atlas.CellsPerRow)
	case c.Paint.BrushSize <= 0:
		return invalid("paint.brush_size must be positive, got %d", c.Paint.BrushSize)
	case c.Paint.PickThreshold < 0:
		return invalid("paint.pick_threshold must not be negative, got %g", c.Paint.PickThreshold)
	case c.Paint.CoincidentEpsilon < 0:
		return invalid("paint.coincident_epsilon must not be negative, got %g", c.Paint.CoincidentEpsilon)
	case c.Viewer.FPS <= 0:
		return invalid("viewer.fps must be positive, got %d", c.Viewer.FPS)
	case c.Export.PreviewScale < 1:
		return invalid("export.preview_scale must be at least 1, got %d", c.Export.PreviewScale)
	case c.Mesh.Path == "" && (c.Mesh.GridCols < 2 || c.Mesh.GridRows < 2):
		return invalid("mesh grid must be at least 2x2, got %dx%d", c.Mesh.GridCols, c.Mesh.GridRows)
	}
	if _, err := paint.ParseColor(c.Paint.ActiveColor); err != nil {
		return invalid("paint.active_color: %v", err)
	}
	if _, err := paint.ParseColor(c.Viewer.Background); err != nil {
		return invalid("viewer.background: %v", err)
	}
	if _, err := asset.ParseFormat(c.Export.Format); err != nil {
		return invalid("export.format: %v", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", atlas.ErrConfiguration, fmt.Sprintf(format, args...))
}

// AtlasOptions converts the atlas section for the packer.
func (c *Config) AtlasOptions() atlas.Options {
	opts := atlas.Options{
		Resolution:  c.Atlas.Resolution,
		CellsPerRow: c.Atlas.CellsPerRow,
		Fill:        atlas.FillSparse,
	}
	if c.Atlas.FillInterior {
		opts.Fill = atlas.FillInterior
	}
	return opts
}

// PaintOptions converts the atlas and paint sections for a session.
func (c *Config) PaintOptions() (paint.Options, error) {
	active, err := paint.ParseColor(c.Paint.ActiveColor)
	if err != nil {
		return paint.Options{}, err
	}
	return paint.Options{
		Atlas:             c.AtlasOptions(),
		BrushSize:         c.Paint.BrushSize,
		PickThreshold:     c.Paint.PickThreshold,
		CoincidentEpsilon: c.Paint.CoincidentEpsilon,
		ActiveColor:       active,
		SyncCells:         c.Paint.SyncCells,
	}, nil
}

// ExportFormat returns the parsed export format.
func (c *Config) ExportFormat() asset.Format {
	f, err := asset.ParseFormat(c.Export.Format)
	if err != nil {
		return asset.FormatPNG
	}
	return f
}
