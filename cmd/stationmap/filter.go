package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ratana-tep/stationmap/internal/filter"
	"github.com/ratana-tep/stationmap/internal/mapstate"
	"github.com/ratana-tep/stationmap/pkg/api"
)

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Filter stations the way the map pages do",
		Flags: []cli.Flag{
			dbFlag(),
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Filter profile (general, ev, admin, fleet)",
				Value: "general",
			},
			&cli.StringFlag{
				Name:  "province",
				Usage: "Province scope",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title substring",
			},
			&cli.StringSliceFlag{
				Name:  "product",
				Usage: "Select product values",
			},
			&cli.StringSliceFlag{
				Name:  "other-product",
				Usage: "Select other-product values",
			},
			&cli.StringSliceFlag{
				Name:  "service",
				Usage: "Select service values",
			},
			&cli.StringSliceFlag{
				Name:  "description",
				Usage: "Select description values",
			},
			&cli.StringSliceFlag{
				Name:  "promotion",
				Usage: "Select promotion values",
			},
			&cli.StringSliceFlag{
				Name:  "status",
				Usage: "Select status values (admin and fleet profiles)",
			},
		},
		Action: filterAction,
	}
}

// textViewport renders map collaborator calls as plain text so the filter
// command shows exactly what the map page would do.
type textViewport struct{}

func (textViewport) SetDisplayedMarkers(stations []api.Station) {
	fmt.Printf("Displaying %d markers\n", len(stations))
}

func (textViewport) FitViewportTo(b mapstate.Bounds, animate bool) {
	fmt.Printf("Viewport: (%.4f, %.4f) .. (%.4f, %.4f)\n", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

func (textViewport) PanTo(lat, lng float64, zoom int) {
	fmt.Printf("Pan to (%.4f, %.4f) zoom %d\n", lat, lng, zoom)
}

func filterAction(c *cli.Context) error {
	profile, ok := filter.ProfileByName(c.String("profile"))
	if !ok {
		return fmt.Errorf("unknown profile: %s", c.String("profile"))
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

	session := mapstate.NewSession(profile, stations, textViewport{}, appLogger(c))

	if province := c.String("province"); province != "" {
		session.Handle(mapstate.ProvinceChanged{Province: province})
	}

	selections := map[filter.Attribute][]string{
		filter.AttrProduct:      c.StringSlice("product"),
		filter.AttrOtherProduct: c.StringSlice("other-product"),
		filter.AttrService:      c.StringSlice("service"),
		filter.AttrDescription:  c.StringSlice("description"),
		filter.AttrPromotion:    c.StringSlice("promotion"),
		filter.AttrStatus:       c.StringSlice("status"),
	}
	for attr, values := range selections {
		for _, v := range values {
			session.Handle(mapstate.IconToggled{Attribute: attr, Value: v})
		}
	}

	session.Handle(mapstate.FilterSubmitted{Title: c.String("title")})

	for i, st := range session.Matched() {
		fmt.Printf("%d. %s (%s, %s)\n", i+1, st.Title, st.Address, st.Province)
	}
	fmt.Printf("\nMatched %d of %d stations with profile %q\n", len(session.Matched()), len(stations), profile.Name)

	return nil
}
