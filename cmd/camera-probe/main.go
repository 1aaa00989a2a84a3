// Camera-probe lists the depth camera backends visible on this
// machine. Useful on the bench before starting therapyd.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/internal/config"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/internal/log"
	"github.com/ozcanbicer/autonomous-physical-therapy-device-sub001/pkg/hal"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "Per-backend probe timeout")
	includeSim := flag.Bool("simulation", true, "Include the simulated backend in the report")
	flag.Parse()

	log.InitFromEnv()

	cfg := config.FactoryConfigFromEnv()
	cfg.DetectionTimeout = *timeout
	cfg.AllowSimulation = *includeSim
	cfg.PreferredType = "auto"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	detections := hal.DetectCameras(ctx, cfg)
	found := false
	for _, d := range detections {
		mark := "absent "
		if d.Present {
			mark = "present"
			found = true
		}
		grade := "development"
		if d.MedicalGrade {
			grade = "medical-grade"
		}
		fmt.Printf("%-12s %s  %-28s %-12s %s\n", d.Type, mark, d.ModelName, grade, d.SerialNumber)
		if d.Detail != "" {
			fmt.Printf("             %s\n", d.Detail)
		}
	}

	if !found {
		fmt.Fprintln(os.Stderr, "no camera backends available")
		os.Exit(1)
	}
}
