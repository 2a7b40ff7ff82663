// Rover simulator: creates a virtual serial pair with socat and answers the
// rover line protocol on one end, so cmd/rover can run without hardware.
// Point rover.device at simulation.link in the config.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MazeRover/internal/config"
	"MazeRover/internal/device"
	"MazeRover/internal/util"
)

func main() {
	util.SetupLogger()

	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	verbose := flag.Bool("v", false, "log every protocol line")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	simCfg := cfg.Simulation
	if simCfg.Link == "" || simCfg.PeerLink == "" {
		log.Fatalf("simulation.link and simulation.peer_link must be set")
	}

	socat := util.NewSocatManager()
	defer socat.Cleanup()
	if err := socat.CreatePair(simCfg.Link, simCfg.PeerLink); err != nil {
		log.Fatalf("create pty pair: %v", err)
	}
	if err := socat.WaitForLinks(3 * time.Second); err != nil {
		log.Fatalf("wait for pty pair: %v", err)
	}

	port, err := device.NewSerialDevice(simCfg.PeerLink, cfg.Rover.Baud)
	if err != nil {
		log.Fatalf("open serial: %v", err)
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			log.Printf("warning: close serial err: %v", cerr)
		}
	}()

	a := cfg.Arena
	opts := []device.SimOption{
		device.WithWalls(simCfg.Walls),
		device.WithTimeStep(simCfg.TimeStep),
	}
	if *verbose {
		opts = append(opts, device.WithSimLogger(log.Default()))
	}
	sim := device.NewSimRover(a.Width, a.Height, a.CellSize, a.Start, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("simulator serving %dx%d arena on %s (rover side %s)", a.Width, a.Height, simCfg.PeerLink, simCfg.Link)
	if err := sim.Serve(ctx, port); err != nil {
		log.Printf("simulator stopped: %v", err)
	}
	log.Println("simulator stopped")
}
