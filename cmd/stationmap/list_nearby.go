package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ratana-tep/stationmap/internal/nearby"
	"github.com/ratana-tep/stationmap/internal/status"
	"github.com/ratana-tep/stationmap/pkg/geocode"
	"github.com/ratana-tep/stationmap/pkg/routing"
)

func listNearbyCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-nearby",
		Usage: "List nearby stations, closest first",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:     "location",
				Usage:    "Location to search",
				Required: false,
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the location",
			},
			&cli.Float64Flag{
				Name:  "long",
				Usage: "Longitude of the location",
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in kilometers",
				Value:   nearby.DefaultRadiusKm,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Only list stations carrying one of these attribute values",
			},
			&cli.BoolFlag{
				Name:  "refine",
				Usage: "Replace estimates with routed driving distances",
			},
		},
		Action: listNearbyAction,
	}
}

func listNearbyAction(c *cli.Context) error {
	lat := c.Float64("lat")
	lng := c.Float64("long")
	radius := c.Float64("radius")

	if loc := c.String("location"); loc != "" {
		resolved, err := geocode.New().Resolve(loc)
		if err != nil {
			return err
		}
		fmt.Println("Location found:", resolved.DisplayName)
		lat, lng = resolved.Lat, resolved.Lng
	} else if lat == 0 && lng == 0 {
		return errors.New("location or latitude and longitude are required")
	}

	storage, err := openStorage(c)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	stations, err := storage.LoadDataset(c.Context)
	if err != nil {
		return fmt.Errorf("error loading dataset: %w", err)
	}

	if err := storage.LogSearchLocation(c.Context, lat, lng, radius); err != nil {
		appLogger(c).Error("Failed to log search location", "error", err)
	}

	ranked := nearby.Rank(lat, lng, stations, radius, c.StringSlice("filter"))

	if c.Bool("refine") && len(ranked) > 0 {
		if err := nearby.Refine(c.Context, routing.NewClient(), lat, lng, ranked); err != nil {
			appLogger(c).Debug("route refinement abandoned", "error", err)
		}
	}

	now := time.Now()
	for i, entry := range ranked {
		st := entry.Station
		info := status.Classify(st.Status, now)

		fmt.Printf("%d. %s (%s)\n", i+1, st.Title, st.Address)
		fmt.Printf("   Province: %s\n", st.Province)
		if entry.Routed {
			fmt.Printf("   Distance: %.2f km by road (%.0f min)\n", entry.RoutedKm, entry.TravelTimeMinutes)
		} else {
			fmt.Printf("   Distance: ~%.2f km\n", entry.DistanceKm)
		}
		fmt.Printf("   Status: %s\n", info.DisplayText)
		if len(st.Promotions) > 0 {
			fmt.Printf("   Promotions: %d\n", len(st.Promotions))
		}
		fmt.Println()
	}

	fmt.Printf("Found %d stations within %g km radius\n\n", len(ranked), radius)

	return nil
}
