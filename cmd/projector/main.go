// Package main runs one projection pass over the service event log.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	projectorcmd "github.com/avmapdata/avmap/internal/cmd/projector"
	"github.com/avmapdata/avmap/internal/platform/config"
)

func main() {
	cfg, err := projectorcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[PROJECTOR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := projectorcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("projection failed: %v", err)
	}
}
