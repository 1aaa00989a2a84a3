// Therapyd - synchronized depth capture daemon for the therapy
// appliance. Discovers the depth camera, validates it, captures
// color/depth pairs and serves diagnostics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/internal/config"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/internal/log"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/service"
)

// Exit codes for the supervisor.
const (
	exitFailure  = 1
	exitHardware = 2
	exitSafety   = 3
)

const banner = `therapyd - synchronized depth capture daemon`

func main() {
	cfg := parseFlags()

	fmt.Println(banner)

	app, err := service.New(cfg)
	if err != nil {
		log.Error("configuration rejected", "error", err)
		os.Exit(exitFor(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err, "code", hal.CodeOf(err).String())
		app.Shutdown()
		os.Exit(exitFor(err))
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("daemon stopped", "error", err, "code", hal.CodeOf(err).String())
		app.Shutdown()
		os.Exit(exitFor(err))
	}
	log.Info("daemon stopped cleanly")
}

// exitFor maps error codes to supervisor exit codes. Safety
// violations are distinguished so the supervisor never auto-restarts
// into an unsafe device.
func exitFor(err error) int {
	code := hal.CodeOf(err)
	switch {
	case code == hal.CodeSafetyViolation:
		return exitSafety
	case code.Fatal():
		return exitHardware
	default:
		return exitFailure
	}
}

// parseFlags merges defaults, environment and command line flags.
// Flags win over environment.
func parseFlags() service.Config {
	cfg := service.DefaultConfig()
	cfg.Factory = config.FactoryConfigFromEnv()
	cfg.Capture = config.CameraConfigFromEnv()
	cfg.DiagAddr = config.DiagAddr()

	logLevel := flag.String("log-level", config.Env("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	cameraType := flag.String("camera", "", "Camera backend: auto, femto_mega, d435, simulation")
	allowSim := flag.Bool("allow-simulation", cfg.Factory.AllowSimulation, "Fall back to the simulated camera when no hardware is found")
	width := flag.Int("width", cfg.Capture.Width, "Frame width")
	height := flag.Int("height", cfg.Capture.Height, "Frame height")
	fps := flag.Int("fps", cfg.Capture.FPS, "Capture frame rate")
	diagAddr := flag.String("diag-addr", cfg.DiagAddr, "Diagnostics listen address (empty disables)")
	flag.Parse()

	log.Init(*logLevel)
	cfg.Logger = log.L()
	cfg.Factory.Logger = log.L()

	if *cameraType != "" {
		cfg.Factory.PreferredType = *cameraType
	}
	cfg.Factory.AllowSimulation = *allowSim
	cfg.Capture.Width = *width
	cfg.Capture.Height = *height
	cfg.Capture.FPS = *fps
	cfg.DiagAddr = *diagAddr
	return cfg
}
