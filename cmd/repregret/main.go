package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/repregret/internal/config"
	"github.com/claude/repregret/internal/mcp"
	"github.com/claude/repregret/internal/progress"
	"github.com/claude/repregret/internal/server"
	"github.com/claude/repregret/internal/session"
	"github.com/claude/repregret/internal/settings"
	"github.com/claude/repregret/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("rep-regret starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open database; migrations run on open.
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database ready", "path", cfg.Database.Path)

	ctx := context.Background()

	// First-run seed, then collapse any duplicate templates left behind by
	// earlier versions that seeded without the flag.
	seeded, err := db.EnsureSeeded(ctx)
	if err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	if seeded {
		log.Info("starter plan seeded")
	}
	removed, err := db.DedupeTemplates(ctx)
	if err != nil {
		log.Error("template dedupe failed", "error", err)
		os.Exit(1)
	}
	if removed > 0 {
		log.Info("duplicate templates removed", "count", removed)
	}

	prefs, err := settings.Load(cfg.Settings.Path)
	if err != nil {
		log.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	engine := session.New(db, log)
	agg := progress.New(db)

	srv := server.New(db, engine, agg, prefs, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcp.New(db, agg, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
