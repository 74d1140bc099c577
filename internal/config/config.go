// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/3dsconv/internal/writer"
)

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all converter settings.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Geometry GeometryConfig `yaml:"geometry"`
	Scene    SceneConfig    `yaml:"scene"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`  // derived from the input name when empty
	Label  string `yaml:"label"` // derived from the input name when empty
	// CLabels prefixes labels with an underscore. Unset means the format
	// decides.
	CLabels     *bool `yaml:"c_labels,omitempty"`
	Header      bool  `yaml:"header"`
	DataSegment bool  `yaml:"data_segment"`
	Stats       bool  `yaml:"stats"`
}

// GeometryConfig holds mesh post-processing settings.
type GeometryConfig struct {
	Scale          float64 `yaml:"scale"`
	PointDelta     float64 `yaml:"point_delta"`
	FaceDelta      float64 `yaml:"face_delta"`
	MergeTriangles bool    `yaml:"merge_triangles"`
}

// SceneConfig holds scene structure settings.
type SceneConfig struct {
	MultiObject bool `yaml:"multi_object"`
	Animate     bool `yaml:"animate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the converter's default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:      "n3d",
			Header:      true,
			DataSegment: true,
		},
		Geometry: GeometryConfig{
			Scale:          1.0,
			PointDelta:     1.0,
			FaceDelta:      0.01,
			MergeTriangles: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := writer.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Geometry.Scale == 0 {
		return fmt.Errorf("%w: scale must be non-zero", ErrInvalidConfig)
	}
	if c.Geometry.PointDelta < 0 || c.Geometry.FaceDelta < 0 {
		return fmt.Errorf("%w: merge thresholds must not be negative", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// Finalize fills in the settings that depend on the input file and the
// output format, and returns the format. The animation format always keeps
// objects apart and animates; labels default to the input's base name and
// the output path to the input path with the format's extension.
func (c *Config) Finalize(input string) (writer.Format, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	f, _ := writer.ParseFormat(c.Output.Format)
	c.Output.Format = f.String()

	if f.Animated() {
		c.Scene.Animate = true
		c.Scene.MultiObject = true
	}
	if c.Output.CLabels == nil {
		v := f.DefaultCLabels()
		c.Output.CLabels = &v
	}
	if c.Output.Path == "" {
		c.Output.Path = ChangeExtension(input, f.Extension())
	}
	if c.Output.Label == "" {
		c.Output.Label = f.Label(filepath.Base(input), *c.Output.CLabels)
	}
	return f, nil
}

// UseCLabels reports the effective label style.
func (c *Config) UseCLabels() bool {
	return c.Output.CLabels != nil && *c.Output.CLabels
}

// ChangeExtension replaces the extension of name's last path element with
// ext, or appends ext when there is none.
func ChangeExtension(name, ext string) string {
	dir, file := filepath.Split(name)
	if i := strings.LastIndexByte(file, '.'); i > 0 {
		file = file[:i]
	}
	return dir + file + ext
}
