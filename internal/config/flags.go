package config

// Overrides carries command line settings. Zero values leave the loaded
// configuration alone; the optional thresholds are pointers because zero is
// a meaningful value for them.
type Overrides struct {
	ConfigPath string

	Output string
	Label  string
	Format string

	Scale      float64
	PointDelta *float64
	FaceDelta  *float64

	Triangles   bool // keep triangles, do not merge faces
	TextSegment bool
	NoHeader    bool
	CLabels     bool
	NoCLabels   bool
	MultiObject bool
	Animate     bool
	Stats       bool

	Verbose bool
	LogFile string
}

// apply applies command line overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Output != "" {
		cfg.Output.Path = o.Output
	}
	if o.Label != "" {
		cfg.Output.Label = o.Label
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.Scale != 0 {
		cfg.Geometry.Scale = o.Scale
	}
	if o.PointDelta != nil {
		cfg.Geometry.PointDelta = *o.PointDelta
	}
	if o.FaceDelta != nil {
		cfg.Geometry.FaceDelta = *o.FaceDelta
	}
	if o.Triangles {
		cfg.Geometry.MergeTriangles = false
	}
	if o.TextSegment {
		cfg.Output.DataSegment = false
	}
	if o.NoHeader {
		cfg.Output.Header = false
	}
	if o.CLabels {
		v := true
		cfg.Output.CLabels = &v
	}
	if o.NoCLabels {
		v := false
		cfg.Output.CLabels = &v
	}
	if o.MultiObject {
		cfg.Scene.MultiObject = true
	}
	if o.Animate {
		cfg.Scene.Animate = true
	}
	if o.Stats {
		cfg.Output.Stats = true
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
}
