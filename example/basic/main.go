// Demonstrates running the forwarder from an in-memory configuration with
// the default MQTT source.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	serensync "github.com/ThomasCarey4/SerenSync"
)

func main() {
	cfg := &serensync.Config{
		Categories: []serensync.CategoryConfig{
			{
				Name:     "sensor",
				Endpoint: "/tmp/serensync-sensor.sock",
				Patterns: []string{"navigation.speed*", "environment.*"},
			},
			{
				Name:     "position",
				Endpoint: "/tmp/serensync-position.sock",
				Patterns: []string{"navigation.position"},
			},
			{
				Name:     "state",
				Endpoint: "/tmp/serensync-state.sock",
				Patterns: []string{"steering.*", "electrical.*"},
			},
		},
		Dump: serensync.DumpConfig{
			Patterns: []string{"design.*", "notifications.*"},
		},
		Source: serensync.SourceConfig{
			MQTT: &serensync.MQTTConfig{
				Broker: "tcp://localhost:1883",
				Topic:  "telemetry/values",
			},
		},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	flow, err := serensync.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("flow: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
