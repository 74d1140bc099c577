// 3dsconv converts 3D Studio and LightWave object files into Jaguar 3D
// library source.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/internal/config"
	"github.com/Faultbox/3dsconv/internal/convert"
	"github.com/Faultbox/3dsconv/internal/logger"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "3dsconv"
	app.Usage = "convert 3D Studio and LightWave meshes to Jaguar 3D data"
	app.Version = "1.0.0"
	app.ArgsUsage = "input.3ds|input.lwob"
	app.Description = `
Reads a 3D Studio (.3ds, .prj) or LightWave (.lw, .lwob) file, welds duplicate
vertices, computes normals, merges coplanar triangles into convex polygons and
writes the result as Jaguar assembly or C source.

Output formats: old (j3d), new (n3d), anim (a3d), c (c3d), cf (cfloat).`
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "o, output",
			Usage: "output file (default: input name with the format's extension)",
		},
		cli.StringFlag{
			Name:  "l, label",
			Usage: "label for the converted data (default: input base name)",
		},
		cli.StringFlag{
			Name:  "f, format",
			Usage: "output format: old, new, anim, c or cf",
		},
		cli.Float64Flag{
			Name:  "scale",
			Usage: "scale every coordinate by this factor",
		},
		cli.Float64Flag{
			Name:  "point-delta",
			Usage: "distance under which vertices are welded",
		},
		cli.Float64Flag{
			Name:  "face-delta",
			Usage: "normal difference under which triangles merge",
		},
		cli.BoolFlag{
			Name:  "triangles",
			Usage: "keep triangles, do not merge them into polygons",
		},
		cli.BoolFlag{
			Name:  "textseg",
			Usage: "put assembly output in the text segment",
		},
		cli.BoolFlag{
			Name:  "noheader",
			Usage: "omit the .include and segment directives",
		},
		cli.BoolFlag{
			Name:  "clabels",
			Usage: "prefix labels with an underscore",
		},
		cli.BoolFlag{
			Name:  "noclabels",
			Usage: "do not prefix labels with an underscore",
		},
		cli.BoolFlag{
			Name:  "multiobj",
			Usage: "keep each named mesh as its own object",
		},
		cli.BoolFlag{
			Name:  "animate",
			Usage: "include keyframe animation",
		},
		cli.BoolFlag{
			Name:  "stats",
			Usage: "log a per-object statistics table",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable debug logging",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "configuration file",
		},
		cli.StringFlag{
			Name:  "log-file",
			Usage: "also write logs to this file",
		},
		cli.BoolFlag{
			Name:  "save-config",
			Usage: "store the effective settings in the user config directory",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "3dsconv: %v\n", err)
		os.Exit(1)
	}
}

func overrides(ctx *cli.Context) config.Overrides {
	o := config.Overrides{
		ConfigPath:  ctx.String("config"),
		Output:      ctx.String("output"),
		Label:       ctx.String("label"),
		Format:      ctx.String("format"),
		Scale:       ctx.Float64("scale"),
		Triangles:   ctx.Bool("triangles"),
		TextSegment: ctx.Bool("textseg"),
		NoHeader:    ctx.Bool("noheader"),
		CLabels:     ctx.Bool("clabels"),
		NoCLabels:   ctx.Bool("noclabels"),
		MultiObject: ctx.Bool("multiobj"),
		Animate:     ctx.Bool("animate"),
		Stats:       ctx.Bool("stats"),
		Verbose:     ctx.Bool("verbose"),
		LogFile:     ctx.String("log-file"),
	}
	if ctx.IsSet("point-delta") {
		v := ctx.Float64("point-delta")
		o.PointDelta = &v
	}
	if ctx.IsSet("face-delta") {
		v := ctx.Float64("face-delta")
		o.FaceDelta = &v
	}
	return o
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		_ = cli.ShowAppHelp(ctx)
		return fmt.Errorf("expected one input file, got %d", ctx.NArg())
	}
	input := ctx.Args().First()

	cfg, err := config.Load(overrides(ctx))
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("config: %+v", cfg)

	if ctx.Bool("save-config") {
		if err := cfg.Save(); err != nil {
			logger.Warn("failed to save config", zap.Error(err))
		}
	}

	if _, err := convert.Run(input, cfg, logger.Named("convert")); err != nil {
		logger.Error("conversion failed", zap.String("input", input), zap.Error(err))
		return cli.NewExitError("", 1)
	}
	return nil
}
