// Package main runs one maze session: it loads the configuration, connects
// to the rover, starts the monitor and the fail-safe, and drives the rover
// to the destination cell.
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

	log.Printf("[Main] Using config: %s", *cfgPath)

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

	// Ctrl+C cancels the session like the fail-safe does.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sys.RunMaze(ctx)
	if err != nil {
		sys.StopAll()
		log.Fatalf("failed to run session: %v", err)
	}

	code := 0
	switch res.Outcome {
	case model.Arrived:
		util.Info("arrived after %d moves: %v", res.Steps, res.Path)
	case model.Cancelled:
		util.Info("session cancelled after %d moves: %v", res.Steps, res.Err)
		code = 2
	default:
		util.Error("session failed after %d moves: %v", res.Steps, res.Err)
		code = 1
	}

	log.Println("[Main] Shutting down system...")
	sys.StopAll()
	stop()
	os.Exit(code)
}
