// Package main - Entry point for the catalog sync API server
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"catalog-sync/api"
	"catalog-sync/internal/catalog"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
	"catalog-sync/internal/syncer"
)

const version = "1.0.0"

func main() {
	cfgFile := flag.String("config", "", "config file (.hcl or .json)")
	flag.Parse()

	cfg := config.FromEnv()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if cfg.Database.DSN == "" {
		logging.Logger.Fatal("no database configured; set database.dsn or DATABASE_URL")
	}
	db, err := catalog.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.LogQueries)
	if err != nil {
		logging.Logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := catalog.AutoMigrate(db); err != nil {
		logging.Logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	store := catalog.NewStore(db)
	engine := syncer.NewEngine(store, syncer.NewClientFactory(
		cfg.Provider.BaseURL,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	))
	apiServer := api.NewServer(version, store, engine)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	logging.Logger.Info("catalog-sync server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("version", version))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Logger.Fatal("server exited", zap.Error(err))
	}
}
