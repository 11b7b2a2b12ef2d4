// gridprobe resolves clicks on an X3D terrain ElevationGrid to grid cells.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/gridprobe/internal/config"
	"github.com/Faultbox/gridprobe/internal/logger"
	"github.com/Faultbox/gridprobe/internal/readout"
	"github.com/Faultbox/gridprobe/internal/server"
	"github.com/Faultbox/gridprobe/pkg/gridlookup"
	gmath "github.com/Faultbox/gridprobe/pkg/math"
	"github.com/Faultbox/gridprobe/pkg/x3d"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	if command == "help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	switch command {
	case "info":
		err = cmdInfo(cfg, args[1:])
	case "resolve":
		err = cmdResolve(cfg, args[1:])
	case "serve":
		err = cmdServe(cfg, args[1:])
	case "init-config":
		err = cmdInitConfig(cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gridprobe - terrain ElevationGrid click readouts

Usage:
  gridprobe [flags] <command> [args]

Commands:
  info [scene]                  Show grid dimensions, spacing and elevation range
  resolve [scene] <x> <y> <z>   Resolve a world-space hit point to grid cells
  serve [scene]                 Serve pick events over a websocket at /ws
  init-config [path]            Write the current config as YAML

The scene is an X3D or X3DOM document; it defaults to scene.path from the config.

Flags:
  -config <path>   Config file
  -debug           Debug logging
  -listen <addr>   Pick server listen address
  -vscale <f>      Vertical scale when the scene has none
  -bounds <p>      Out-of-grid policy: reject or clamp
  -log <path>      Log file

Examples:
  gridprobe info terrain.html
  gridprobe resolve terrain.html 15 35 5
  gridprobe -bounds clamp serve terrain.html`)
}

// loadLookup reads the scene and builds the lookup from the config.
func loadLookup(cfg *config.Config, path string) (*x3d.Scene, *gridlookup.Lookup, error) {
	if path == "" {
		path = cfg.Scene.Path
	}
	if path == "" {
		return nil, nil, fmt.Errorf("no scene given and scene.path is not set")
	}

	scene, err := x3d.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	lookup, err := scene.Lookup(cfg.Scene.VerticalScale, gridlookup.WithBoundsPolicy(policy))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Info("scene loaded",
		zap.String("path", path),
		zap.Int("columns", scene.Columns),
		zap.Int("rows", scene.Rows),
		zap.Float64("verticalScale", lookup.Transform().VerticalScale))
	return scene, lookup, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	scene, lookup, err := loadLookup(cfg, path)
	if err != nil {
		return err
	}

	tr := lookup.Transform()
	min, max := lookup.ElevationRange()
	source := "default, baked into heights"
	if scene.ScaledByTransform() {
		source = "scene Transform"
	}

	fmt.Printf("Grid:       %d columns x %d rows\n", scene.Columns, scene.Rows)
	fmt.Printf("Spacing:    x %.2f, z %.2f\n", tr.ColumnSpacing, tr.RowSpacing)
	fmt.Printf("Scale:      %.2f (%s)\n", tr.VerticalScale, source)
	fmt.Printf("Elevation:  %.2f .. %.2f\n", min, max)
	fmt.Printf("Bounds:     %s\n", lookup.Policy())
	if scene.HasOrigin {
		fmt.Printf("Origin:     %.2f, %.2f\n", scene.Origin[0], scene.Origin[1])
	}
	return nil
}

func cmdResolve(cfg *config.Config, args []string) error {
	path := ""
	switch len(args) {
	case 3:
	case 4:
		path, args = args[0], args[1:]
	default:
		return fmt.Errorf("usage: gridprobe resolve [scene] <x> <y> <z>")
	}

	var xyz [3]float64
	for k, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", a, err)
		}
		xyz[k] = v
	}

	_, lookup, err := loadLookup(cfg, path)
	if err != nil {
		return err
	}

	r, err := lookup.ResolveCell(gmath.FromArray(xyz))
	if err != nil {
		return err
	}
	return readout.Write(os.Stdout, r)
}

func cmdServe(cfg *config.Config, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	_, lookup, err := loadLookup(cfg, path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(lookup, cfg.Server).Run(ctx)
}

func cmdInitConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", config.ConfigDir())
	return nil
}
