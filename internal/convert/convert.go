// Package convert runs one conversion: decode a scene file, post-process its
// meshes and write them in the selected output format.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/internal/config"
	"github.com/Faultbox/3dsconv/internal/writer"
	"github.com/Faultbox/3dsconv/pkg/formats"
	"github.com/Faultbox/3dsconv/pkg/geometry"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Result describes a finished conversion.
type Result struct {
	Scene  *scene.Scene
	Format writer.Format
	Output string
}

// IsLightWave reports whether path names a LightWave object file.
func IsLightWave(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lw", ".lwob":
		return true
	}
	return false
}

// Read decodes input with the decoder its extension selects.
func Read(input string, opts formats.Options) (*scene.Scene, error) {
	if IsLightWave(input) {
		return formats.ReadLWOBFile(input, opts)
	}
	return formats.Read3DSFile(input, opts)
}

// objectName is the name given to the merged 3DS object in single-object
// mode: the output label without its prefix. LightWave objects keep the
// decoder's default name.
func objectName(input string, cfg *config.Config, format writer.Format) string {
	if IsLightWave(input) {
		return ""
	}
	label := cfg.Output.Label
	switch {
	case format.IsC():
		return strings.TrimPrefix(label, writer.CPrefix)
	case cfg.UseCLabels():
		return strings.TrimPrefix(label, "_")
	}
	return label
}

// Run converts input according to cfg. cfg is finalized against input, so
// after Run it holds the effective output path and label. A decoding error
// stops the pipeline before anything is written.
func Run(input string, cfg *config.Config, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	format, err := cfg.Finalize(input)
	if err != nil {
		return nil, err
	}

	log.Debug("converting",
		zap.String("input", input),
		zap.String("output", cfg.Output.Path),
		zap.Stringer("format", format),
		zap.String("label", cfg.Output.Label))

	sc, err := Read(input, formats.Options{
		Scale:       cfg.Geometry.Scale,
		MultiObject: cfg.Scene.MultiObject,
		Animate:     cfg.Scene.Animate,
		DefaultName: objectName(input, cfg, format),
		Logger:      log.Named("formats"),
	})
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", input, err)
	}

	geometry.Process(sc, geometry.Options{
		PointDelta:     cfg.Geometry.PointDelta,
		FaceDelta:      cfg.Geometry.FaceDelta,
		MergeTriangles: cfg.Geometry.MergeTriangles,
		Logger:         log.Named("geometry"),
	})

	opts := writer.Options{
		Format:      format,
		Label:       cfg.Output.Label,
		CLabels:     cfg.UseCLabels(),
		Header:      cfg.Output.Header,
		DataSegment: cfg.Output.DataSegment,
		Animate:     cfg.Scene.Animate,
		Logger:      log.Named("writer"),
	}
	if opts.Hierarchical() && len(sc.Objects) > 0 && sc.Root == scene.None {
		if _, err := sc.ResolveRoot(); err != nil {
			return nil, fmt.Errorf("converting %s: %w", input, err)
		}
	}

	if err := writer.WriteFile(cfg.Output.Path, sc, opts); err != nil {
		return nil, fmt.Errorf("writing %s: %w", cfg.Output.Path, err)
	}

	log.Info("converted",
		zap.String("input", input),
		zap.String("output", cfg.Output.Path),
		zap.Int("objects", len(sc.Objects)),
		zap.Int("vertices", sc.TotalVertices()),
		zap.Int("polygons", sc.TotalPolygons()))

	if cfg.Output.Stats {
		log.Info("scene statistics\n" + Stats(sc))
	}

	return &Result{Scene: sc, Format: format, Output: cfg.Output.Path}, nil
}
