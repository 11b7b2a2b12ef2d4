package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagListen = flag.String("listen", "", "Pick server listen address")
	flagScale  = flag.Float64("vscale", 0, "Vertical scale when the scene has none")
	flagPolicy = flag.String("bounds", "", "Out-of-grid policy: reject or clamp")
	flagLog    = flag.String("log", "", "Log file path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagListen != "" {
		cfg.Server.Listen = *flagListen
	}
	if *flagScale > 0 {
		cfg.Scene.VerticalScale = *flagScale
	}
	if *flagPolicy != "" {
		cfg.Scene.BoundsPolicy = *flagPolicy
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
}
