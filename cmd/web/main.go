// Package main starts the browser-facing dashboard service.
//
// This process owns the edge route guard, session cookie lifecycle, and the
// JSON endpoints that proxy authentication flows to the backend API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	webcmd "github.com/javiersuazo/thiam-dashboard-sub005/internal/cmd/web"
	platformotel "github.com/javiersuazo/thiam-dashboard-sub005/internal/platform/otel"
)

func main() {
	cfg, err := webcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[WEB] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := platformotel.Setup(ctx, "thiam-dashboard-web")
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Printf("flush traces: %v", err)
			}
		}()
	}

	if err := webcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
