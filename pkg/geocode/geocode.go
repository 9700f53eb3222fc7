// Package geocode resolves free-text place names to coordinates via
// Nominatim. Lookups are cached and reject after a fixed timeout rather
// than hanging the caller.
package geocode

import (
	"fmt"
	"strconv"
	"time"

	"github.com/muesli/gominatim"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultServer  = "https://nominatim.openstreetmap.org/"
	DefaultTimeout = 5 * time.Second

	cacheExpiry  = 30 * time.Minute
	cacheCleanup = 90 * time.Minute
)

// Location is a resolved place.
type Location struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// Geocoder resolves place names with a timeout and a result cache.
type Geocoder struct {
	timeout time.Duration
	cache   *cache.Cache
}

// New creates a Geocoder against the public Nominatim server.
func New() *Geocoder {
	gominatim.SetServer(DefaultServer)
	return &Geocoder{
		timeout: DefaultTimeout,
		cache:   cache.New(cacheExpiry, cacheCleanup),
	}
}

// Resolve geocodes a place name. It returns an error when the lookup times
// out, fails, or yields no results; the caller is expected to surface the
// failure and keep the rest of the UI usable.
func (g *Geocoder) Resolve(place string) (Location, error) {
	if cached, ok := g.cache.Get(place); ok {
		return cached.(Location), nil
	}

	type result struct {
		results []gominatim.SearchResult
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		qry := gominatim.SearchQuery{Q: place}
		results, err := qry.Get()
		ch <- result{results: results, err: err}
	}()

	var results []gominatim.SearchResult
	select {
	case r := <-ch:
		if r.err != nil {
			return Location{}, fmt.Errorf("geocoding error: %w", r.err)
		}
		results = r.results
	case <-time.After(g.timeout):
		return Location{}, fmt.Errorf("geocoding %q timed out after %s", place, g.timeout)
	}

	if len(results) == 0 {
		return Location{}, fmt.Errorf("no results found for location: %s", place)
	}

	loc, err := toLocation(results[0])
	if err != nil {
		return Location{}, err
	}
	g.cache.Set(place, loc, cache.DefaultExpiration)
	return loc, nil
}

func toLocation(result gominatim.SearchResult) (Location, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("error parsing longitude: %w", err)
	}

	return Location{Lat: lat, Lng: lng, DisplayName: result.DisplayName}, nil
}
