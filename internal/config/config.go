// Package config loads the MazeRover configuration from a YAML file, with
// selected fields overridable from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MazeRover/internal/model"
)

// Environment keys that override the file.
const (
	EnvDevice      = "MAZEROVER_DEVICE"
	EnvBaud        = "MAZEROVER_BAUD"
	EnvMonitorAddr = "MAZEROVER_MONITOR_ADDR"
)

// Load reads the YAML configuration at path, applies environment overrides
// (process environment first, then envFiles, default ".env"), fills
// defaults and validates the result.
func Load(path string, envFiles ...string) (*model.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := applyEnv(&cfg, readEnv(envFiles...)); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// readEnv merges the .env file with the process environment, which wins.
func readEnv(files ...string) map[string]string {
	env, err := godotenv.Read(files...)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[config] [INFO] .env file could not be loaded: %v", err)
		}
		env = make(map[string]string)
	}
	for _, key := range []string{EnvDevice, EnvBaud, EnvMonitorAddr} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}

func applyEnv(cfg *model.Config, env map[string]string) error {
	if v, ok := env[EnvDevice]; ok && v != "" {
		cfg.Rover.Device = v
	}
	if v, ok := env[EnvBaud]; ok && v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvBaud, err)
		}
		cfg.Rover.Baud = baud
	}
	if v, ok := env[EnvMonitorAddr]; ok {
		cfg.Monitor.Addr = v
	}
	return nil
}
