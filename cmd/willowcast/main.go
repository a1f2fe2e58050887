// Command willowcast republishes the Willow TV schedule feed: live matches are
// resolved to their highest-resolution HLS media playlists and served as a
// JSON schedule document or an M3U playlist, rebuilt on every request.
//
// Endpoints:
//
//	/<anything>           JSON schedule document
//	/willow-tv.m3u        M3U playlist of live streams (token configurable)
//	/stream?url=...       user-agent-spoofing stream proxy
//	/healthz, /metrics    operational endpoints
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cricbox/willowcast/internal/config"
	"github.com/cricbox/willowcast/internal/health"
	"github.com/cricbox/willowcast/internal/server"
	"github.com/cricbox/willowcast/internal/willow"
)

func main() {
	// .env is optional; real deployments set WILLOWCAST_* in the unit file.
	_ = godotenv.Load()

	addr := flag.String("addr", "", "listen address (overrides WILLOWCAST_ADDR)")
	cfgPath := flag.String("config", "", "optional YAML config file")
	checkOnly := flag.Bool("check", false, "check upstream feed reachability and exit")
	flag.Parse()

	cfg := config.Load()
	if *cfgPath != "" {
		if err := cfg.ApplyFile(*cfgPath); err != nil {
			log.Fatalf("main: %v", err)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	if *checkOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := health.CheckUpstream(ctx, cfg.FeedURL, cfg.UserAgent); err != nil {
			log.Fatalf("main: upstream check failed: %v", err)
		}
		log.Printf("main: upstream feed reachable")
		return
	}

	srv := server.New(willow.New(cfg), cfg)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// A worst-case pipeline run (full retry budgets on feed + several
		// manifests) can take a while; give responses room to finish.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	// Startup preflight; advisory only, the server comes up regardless.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := health.CheckUpstream(ctx, cfg.FeedURL, cfg.UserAgent); err != nil {
			log.Printf("main: warning: upstream feed check failed: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("main: listening on %s", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("main: %s received, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("main: shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main: server: %v", err)
		}
	}
}
