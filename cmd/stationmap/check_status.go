package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ratana-tep/stationmap/internal/status"
)

func checkStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-status",
		Usage: "Classify every station as open, closed or under construction",
		Flags: []cli.Flag{dbFlag()},
		Action: func(c *cli.Context) error {
			storage, err := openStorage(c)
			if err != nil {
				return err
			}
			defer storage.Close()

			stations, err := storage.LoadDataset(c.Context)
			if err != nil {
				return err
			}
			if len(stations) == 0 {
				fmt.Println("No stations found in database.")
				return nil
			}

			now := time.Now()
			counts := make(map[status.Category]int)
			var underConstruction []string
			for i := range stations {
				info := status.Classify(stations[i].Status, now)
				counts[info.Category]++
				if info.Category == status.UnderConstruction {
					underConstruction = append(underConstruction, stations[i].Title)
				}
			}

			fmt.Printf("Stations: %d\n", len(stations))
			fmt.Printf("  Open:               %d\n", counts[status.Open])
			fmt.Printf("  Open 24h:           %d\n", counts[status.Open24h])
			fmt.Printf("  Closed:             %d\n", counts[status.Closed])
			fmt.Printf("  Under construction: %d\n", counts[status.UnderConstruction])

			if len(underConstruction) > 0 {
				fmt.Println("\nUnder construction:")
				for _, title := range underConstruction {
					fmt.Println(" ", title)
				}
			}
			return nil
		},
	}
}
