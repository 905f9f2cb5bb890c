// Package web parses configuration and runs the dashboard web service.
package web

import (
	"context"
	"flag"
	"fmt"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/platform/config"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web"
)

// ParseConfig loads configuration from the environment and lets flags
// override individual values.
func ParseConfig(fs *flag.FlagSet, args []string) (web.Config, error) {
	var cfg web.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return web.Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "backend API base URL")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "trust X-Forwarded-Proto from a fronting proxy")
	if err := fs.Parse(args); err != nil {
		return web.Config{}, err
	}

	return cfg, nil
}

// Run starts the dashboard web server and blocks until the context ends.
func Run(ctx context.Context, cfg web.Config) error {
	server, err := web.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}
