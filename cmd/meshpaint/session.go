package main

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/taigrr/meshpaint/internal/config"
	"github.com/taigrr/meshpaint/internal/logger"
	"github.com/taigrr/meshpaint/pkg/asset"
	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
	"github.com/taigrr/meshpaint/pkg/paint"
)

// loadMesh reads the configured mesh, or generates a grid when no path is
// set. GLB files may carry a previously exported atlas as their texture.
func loadMesh(cfg config.MeshConfig) (mesh *models.Mesh, texture image.Image, name string, err error) {
	if cfg.Path == "" {
		mesh = models.NewGrid(cfg.GridCols, cfg.GridRows)
		return mesh, nil, mesh.Name, nil
	}

	name = strings.TrimSuffix(filepath.Base(cfg.Path), filepath.Ext(cfg.Path))
	switch ext := strings.ToLower(filepath.Ext(cfg.Path)); ext {
	case ".glb", ".gltf":
		mesh, texture, err = models.LoadGLBWithTexture(cfg.Path)
		if err != nil {
			return nil, nil, "", fmt.Errorf("load mesh: %w", err)
		}
	default:
		return nil, nil, "", fmt.Errorf("unsupported mesh format: %s (use .glb or .gltf)", ext)
	}
	return mesh, texture, name, nil
}

// fitTransform centers the mesh at the origin and scales its largest
// dimension to 2 units without touching the vertex data.
func fitTransform(mesh *models.Mesh) math3d.Mat4 {
	mesh.CalculateBounds()
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim <= 0 {
		return math3d.Translate(center.Negate())
	}
	scale := 2.0 / maxDim
	return math3d.Scale(math3d.V3(scale, scale, scale)).Mul(math3d.Translate(center.Negate()))
}

// openSession loads the mesh, bakes its first atlas and restores an
// embedded atlas when one matches the layout.
func openSession(cfg *config.Config) (*paint.Session, string, math3d.Mat4, error) {
	mesh, texture, name, err := loadMesh(cfg.Mesh)
	if err != nil {
		return nil, "", math3d.Mat4{}, err
	}
	fit := fitTransform(mesh)

	opts, err := cfg.PaintOptions()
	if err != nil {
		return nil, "", math3d.Mat4{}, err
	}

	s := paint.New(mesh, opts, nil, logger.Named("paint"))
	s.SetTransform(fit)
	if err := s.Initialize(); err != nil {
		return nil, "", math3d.Mat4{}, fmt.Errorf("initialize %s: %w", name, err)
	}

	if texture != nil {
		if err := s.ImportAtlas(texture); err != nil {
			logger.Warn("ignoring embedded texture", zap.String("mesh", name), zap.Error(err))
		} else {
			logger.Info("restored embedded atlas", zap.String("mesh", name))
		}
	}

	logger.Info("session ready",
		zap.String("mesh", name),
		zap.Int("triangles", s.Mesh().TriangleCount()),
		zap.Int("atlas_width", s.Layout().Width),
		zap.Int("atlas_height", s.Layout().Height))
	return s, name, fit, nil
}

// exportSession writes the atlas, an upscaled preview and the mesh with
// baked UVs and colors into the export directory.
func exportSession(s *paint.Session, cfg *config.Config, name string) ([]string, error) {
	format := cfg.ExportFormat()
	dir := cfg.Export.Dir
	img := s.Atlas().ToImage()

	atlasPath := filepath.Join(dir, name+"_atlas"+format.Ext())
	if err := asset.Save(atlasPath, img, format); err != nil {
		return nil, err
	}

	previewPath := filepath.Join(dir, name+"_preview"+format.Ext())
	if err := asset.SavePreview(previewPath, img, cfg.Export.PreviewScale, format); err != nil {
		return nil, err
	}

	meshPath := filepath.Join(dir, name+".glb")
	if err := models.SaveGLB(meshPath, s.Mesh(), img); err != nil {
		return nil, err
	}

	paths := []string{atlasPath, previewPath, meshPath}
	logger.Info("exported", zap.Strings("files", paths))
	return paths, nil
}
