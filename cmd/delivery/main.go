// Package main drives the rover to the configured delivery point, stepping
// around obstacles on the way.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MazeRover/internal/core"
	"MazeRover/internal/model"
	"MazeRover/internal/util"
)

func main() {
	util.SetupLogger()

	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	sim := flag.Bool("sim", false, "run against an in-process simulated rover")
	flag.Parse()

	var opts []core.Option
	if *sim {
		opts = append(opts, core.WithSimulation())
	}
	sys, err := core.NewSystem(*cfgPath, opts...)
	if err != nil {
		log.Fatalf("failed to create system: %v", err)
	}
	if err := sys.StartAll(); err != nil {
		sys.StopAll()
		log.Fatalf("failed to start system: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sys.RunDelivery(ctx)
	sys.StopAll()
	if err != nil {
		log.Fatalf("failed to run delivery: %v", err)
	}

	switch res.Outcome {
	case model.Arrived:
		util.Info("delivered after %d iterations", res.Iterations)
	case model.Cancelled:
		util.Info("delivery cancelled: %v", res.Err)
		os.Exit(2)
	default:
		util.Error("delivery failed: %v", res.Err)
		os.Exit(1)
	}
}
