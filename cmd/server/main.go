package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gamedock/backend/internal/config"
	"github.com/gamedock/backend/internal/launcher"
	"github.com/gamedock/backend/internal/logbuf"
	"github.com/gamedock/backend/internal/lutris"
	"github.com/gamedock/backend/internal/mock"
	"github.com/gamedock/backend/internal/paths"
	"github.com/gamedock/backend/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Emit synthetic game logs instead of launching Lutris")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	origins := flag.String("origins", "", "Comma-separated list of allowed WebSocket origins")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	resolver, err := paths.NewResolver()
	if err != nil {
		log.Fatalf("Failed to resolve Lutris paths: %v", err)
	}

	var install *lutris.Install
	if cfg.Lutris.Flavor == "auto" {
		install, err = lutris.Detect(cfg.Lutris.Executable)
		if err != nil {
			log.Printf("%v", err)
			install = lutris.ForFlavor(lutris.FlavorSystem, cfg.Lutris.Executable)
		}
	} else {
		install = lutris.ForFlavor(lutris.Flavor(cfg.Lutris.Flavor), cfg.Lutris.Executable)
	}
	log.Printf("Using %s", install.Description())

	registry := logbuf.NewRegistry(cfg.Capture.MaxLogLines)
	broadcaster := ws.NewBroadcaster()

	l := launcher.New(install, registry, broadcaster)
	l.SetCaptureOptions(cfg.Capture.TickInterval, cfg.Capture.ChannelCapacity)

	var allowedOrigins []string
	if *origins != "" {
		allowedOrigins = strings.Split(*origins, ",")
	}
	server := ws.NewServer(cfg, registry, broadcaster, l, resolver, allowedOrigins, cfg.Server.Token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *mockMode {
		log.Println("Starting in mock mode (synthetic game logs)")
		gen := mock.NewGenerator(registry, broadcaster)
		gen.Start(ctx)
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
