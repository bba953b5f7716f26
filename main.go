package main

import (
	"context"
	"flag"
	"log"
	"math"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/salsa-telescope/salsa/internal/api"
	"github.com/salsa-telescope/salsa/internal/config"
	"github.com/salsa-telescope/salsa/internal/db"
	"github.com/salsa-telescope/salsa/internal/telescope"
)

var (
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "Path to the observation database (overrides config)")
	configPath = flag.String("config", "", "Path to a server config JSON file")
)

// resolveSettings applies flag overrides on top of the config file values.
func resolveSettings(cfg *config.ServerConfig, listenFlag, dbFlag string) (listenAddr, databasePath string) {
	listenAddr = cfg.GetListenAddr()
	if listenFlag != "" {
		listenAddr = listenFlag
	}
	databasePath = cfg.GetDatabasePath()
	if dbFlag != "" {
		databasePath = dbFlag
	}
	return listenAddr, databasePath
}

func main() {
	flag.Parse()

	cfg := config.EmptyServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	listenAddr, databasePath := resolveSettings(cfg, *listen, *dbPath)

	database, err := db.NewDB(databasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	site := telescope.Location{
		Longitude: cfg.GetSiteLongitudeDeg() * math.Pi / 180,
		Latitude:  cfg.GetSiteLatitudeDeg() * math.Pi / 180,
	}
	scopes := telescope.NewRegistry()
	for _, id := range cfg.GetTelescopes() {
		scopes.Add(telescope.NewSimulator(id, site))
		log.Printf("registered telescope %q", id)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine that steps every telescope simulator
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scopes.Monitor(ctx, cfg.GetUpdateInterval()); err != nil && err != context.Canceled {
			log.Printf("telescope monitor error: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		database.AttachAdminRoutes(mux)

		// mount the API and chart handlers
		apiMux := api.NewServer(scopes, database).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/charts/", apiMux)

		server := &http.Server{
			Addr:    listenAddr,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", listenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
