// Package nearby ranks stations by distance from a reference coordinate.
// The ranking order is always established by the haversine estimate; the
// optional routed refinement only updates displayed values.
package nearby

import (
	"context"
	"math"
	"sort"

	"github.com/ratana-tep/stationmap/internal/filter"
	"github.com/ratana-tep/stationmap/pkg/api"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	// DefaultRadiusKm is the radius used when the caller does not pick one.
	DefaultRadiusKm = 10.0

	metersPerKm = 1000.0
)

// Ranked pairs a station with its distance from the origin.
type Ranked struct {
	Station    api.Station `json:"station"`
	DistanceKm float64     `json:"distance_km"`
	// RoutedKm and TravelTimeMinutes are populated by Refine; zero values
	// with Routed false mean the haversine estimate stands.
	RoutedKm          float64 `json:"routed_km,omitempty"`
	TravelTimeMinutes float64 `json:"travel_time_minutes,omitempty"`
	Routed            bool    `json:"routed,omitempty"`
}

// Router resolves a driving route between two coordinates. Implementations
// are best-effort; errors leave the haversine estimate in place.
type Router interface {
	GetRoute(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (distanceKm, travelTimeMinutes float64, err error)
}

// DistanceKm computes the haversine great-circle distance between two
// points, in kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return gpx.Distance2D(lat1, lng1, lat2, lng2, true) / metersPerKm
}

// Rank returns the stations within maxDistanceKm of the origin, sorted
// ascending by haversine distance. Stations whose coordinates do not parse
// to finite numbers are excluded; a non-finite origin yields no results. A non-empty selected set additionally
// requires the relaxed any-attribute match (filter.MatchesAny) — looser on
// purpose than the map filter's all-attribute semantics.
func Rank(originLat, originLng float64, stations []api.Station, maxDistanceKm float64, selected []string) []Ranked {
	// A NaN origin would slip past the radius check (NaN > x is false)
	// and rank every station with a NaN distance.
	if !finite(originLat) || !finite(originLng) {
		return nil
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultRadiusKm
	}

	var ranked []Ranked
	for i := range stations {
		station := &stations[i]
		lat, lng, err := station.Coordinates()
		if err != nil || !finite(lat) || !finite(lng) {
			continue
		}

		distance := DistanceKm(originLat, originLng, lat, lng)
		if distance > maxDistanceKm {
			continue
		}
		if !filter.MatchesAny(station, selected) {
			continue
		}

		ranked = append(ranked, Ranked{Station: *station, DistanceKm: distance})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

// Refine replaces the displayed distances with routed driving distances.
// The list order is never changed, so a slow route lookup cannot reshuffle
// results the user is already looking at. A per-station route failure keeps
// that station's haversine estimate; a canceled context abandons the pass
// so a stale request cannot overwrite newer state.
func Refine(ctx context.Context, router Router, originLat, originLng float64, ranked []Ranked) error {
	if router == nil {
		return nil
	}
	for i := range ranked {
		if err := ctx.Err(); err != nil {
			return err
		}

		lat, lng, err := ranked[i].Station.Coordinates()
		if err != nil {
			continue
		}
		distKm, minutes, err := router.GetRoute(ctx, originLat, originLng, lat, lng)
		if err != nil {
			continue
		}
		ranked[i].RoutedKm = distKm
		ranked[i].TravelTimeMinutes = minutes
		ranked[i].Routed = true
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
