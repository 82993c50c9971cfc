// Demonstrates embedding the forwarder with a channel source and a local
// listener that prints every delivered record.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	serensync "github.com/ThomasCarey4/SerenSync"
)

func main() {
	sockPath := "/tmp/serensync-example.sock"
	_ = os.Remove(sockPath)

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go printRecords(ln)

	cfg := &serensync.Config{
		Categories: []serensync.CategoryConfig{
			{
				Name:       "sensor",
				Endpoint:   sockPath,
				IntervalMS: 500,
				Patterns:   []string{"navigation.*"},
			},
		},
	}
	cfg.ApplyDefaults()

	source, push := serensync.NewChannelSource()

	rt, err := serensync.NewRuntime(cfg, serensync.WithSource(source))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	if err := rt.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := rt.Stop(); err != nil {
				log.Printf("stop: %v", err)
			}
			return
		case <-ticker.C:
			_ = push(serensync.RawValue{
				Path:      "navigation.speedOverGround",
				Value:     5.1,
				Timestamp: float64(time.Now().Unix()),
				Source:    "gps.0",
			})
		}
	}
}

func printRecords(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			scanner := bufio.NewScanner(c)
			for scanner.Scan() {
				fmt.Println("record:", scanner.Text())
			}
		}(conn)
	}
}
