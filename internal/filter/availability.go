package filter

import (
	"sort"
	"strings"

	"github.com/ratana-tep/stationmap/pkg/api"
)

// AvailableValues returns the distinct non-blank values an attribute takes
// across the stations in scope, in first-seen dataset order. An empty
// provinceScope means all provinces.
func AvailableValues(stations []api.Station, attr Attribute, provinceScope string) []string {
	var values []string
	seen := make(map[string]struct{})

	for i := range stations {
		station := &stations[i]
		if !inScope(station, provinceScope) {
			continue
		}
		for _, v := range Values(station, attr) {
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			values = append(values, v)
		}
	}
	return values
}

// IsAvailable reports whether at least one station in scope carries the
// value for the attribute. Comparison is case-insensitive. A selected value
// that is unavailable under the current scope stays selected at the UI
// layer; it is only rendered disabled.
func IsAvailable(stations []api.Station, attr Attribute, value, provinceScope string) bool {
	for i := range stations {
		station := &stations[i]
		if !inScope(station, provinceScope) {
			continue
		}
		if containsFold(Values(station, attr), value) {
			return true
		}
	}
	return false
}

// Provinces returns every distinct province in the dataset, sorted.
func Provinces(stations []api.Station) []string {
	var provinces []string
	seen := make(map[string]struct{})
	for i := range stations {
		p := stations[i].Province
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		provinces = append(provinces, p)
	}
	sort.Strings(provinces)
	return provinces
}

// Titles returns the distinct station titles within the province scope,
// sorted. Used to feed the title dropdown after a province change.
func Titles(stations []api.Station, provinceScope string) []string {
	var titles []string
	seen := make(map[string]struct{})
	for i := range stations {
		station := &stations[i]
		if !inScope(station, provinceScope) {
			continue
		}
		if _, ok := seen[station.Title]; ok {
			continue
		}
		seen[station.Title] = struct{}{}
		titles = append(titles, station.Title)
	}
	sort.Strings(titles)
	return titles
}

func inScope(station *api.Station, provinceScope string) bool {
	return provinceScope == "" || strings.EqualFold(station.Province, provinceScope)
}
