// Package main uploads the event log and projected states to the hosted
// database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	synccmd "github.com/avmapdata/avmap/internal/cmd/sync"
	"github.com/avmapdata/avmap/internal/platform/config"
)

func main() {
	cfg, err := synccmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SYNC] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := synccmd.Run(ctx, cfg); err != nil {
		log.Fatalf("sync failed: %v", err)
	}
}
