package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/urfave/cli/v2"

	"github.com/ratana-tep/stationmap/internal/config"
	"github.com/ratana-tep/stationmap/internal/server"
	"github.com/ratana-tep/stationmap/internal/stationdb"
	"github.com/ratana-tep/stationmap/pkg/api"
	"github.com/ratana-tep/stationmap/pkg/geocode"
	"github.com/ratana-tep/stationmap/pkg/routing"
)

const updateInterval = 6 * time.Hour

func main() {
	app := &cli.App{
		Name:  "stationmap",
		Usage: "Manage the station map dataset, filter stations and find nearby ones",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			updateCommand(),
			serveCommand(),
			listNearbyCommand(),
			filterCommand(),
			checkStatusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func appLogger(c *cli.Context) *slog.Logger {
	if c.Bool("verbose") {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

func dbFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db",
		Usage:    "Database file",
		Required: false,
		Value:    "stations.db",
	}
}

func openStorage(c *cli.Context) (*stationdb.Storage, error) {
	return stationdb.NewStorage(c.Context, c.String("db"), appLogger(c))
}

func datasetClient() *api.StationAPI {
	cfg := config.FromEnv()
	return api.NewStationAPIWithURLs(cfg.StationsURL, cfg.PromotionsURL)
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Fetch the station and promotion datasets and snapshot them",
		Flags: []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			storage, err := openStorage(c)
			if err != nil {
				return err
			}
			defer storage.Close()

			return storage.UpdateDB(c.Context, datasetClient())
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the station map JSON API",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
		},
		Action: serveAction,
	}
}

// serverConfig layers explicitly-set CLI flags over the environment. The
// db flag carries a default value, so only IsSet distinguishes a user
// override from the default.
func serverConfig(c *cli.Context) config.Config {
	cfg := config.FromEnv()
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	return cfg
}

func serveAction(c *cli.Context) error {
	cfg := serverConfig(c)

	logger := httplog.NewLogger("stationmap", httplog.Options{
		JSON:            false,
		LogLevel:        slog.LevelDebug,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	storage, err := stationdb.NewStorage(c.Context, cfg.DBPath, logger.Logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	// Refresh the snapshot a few times a day so the served dataset does
	// not go stale between manual updates.
	go func() {
		ticker := time.NewTicker(updateInterval)
		defer ticker.Stop()

		client := datasetClient()
		for {
			if err := storage.UpdateDB(context.Background(), client); err != nil {
				logger.Error("Error updating dataset", "error", err)
			} else {
				logger.Info("Dataset update completed successfully")
			}
			<-ticker.C
		}
	}()

	var router *routing.Client
	if cfg.RoutingURL != "" {
		router = routing.NewClientWithServer(cfg.RoutingURL)
	} else {
		router = routing.NewClient()
	}

	srv := server.New(storage, geocode.New(), router, logger, cfg)

	logger.Debug("Starting server on", "addr", cfg.Addr)
	return http.ListenAndServe(cfg.Addr, srv.Handler())
}
