// Package filter implements the station filter engine: a single
// parameterized predicate over the categorical station attributes,
// replacing the per-page filter variants of the map front-end.
package filter

import (
	"strings"

	"github.com/ratana-tep/stationmap/pkg/api"
)

// Attribute identifies a filterable station attribute.
type Attribute string

const (
	AttrProduct      Attribute = "product"
	AttrOtherProduct Attribute = "other_product"
	AttrService      Attribute = "service"
	AttrDescription  Attribute = "description"
	AttrPromotion    Attribute = "promotion"
	AttrStatus       Attribute = "status"
)

// Attributes lists every filterable attribute in display order.
var Attributes = []Attribute{
	AttrProduct,
	AttrOtherProduct,
	AttrService,
	AttrDescription,
	AttrPromotion,
	AttrStatus,
}

// Combine names how selected values across different attributes are
// combined. The map filter requires every constrained attribute to match
// (CombineAll); the nearby-stations list historically accepts a station
// matching any attribute (CombineAny). The divergence is intentional and
// kept explicit here.
type Combine int

const (
	CombineAll Combine = iota
	CombineAny
)

// Criteria is the user's current filter selection. A zero Criteria matches
// every station.
type Criteria struct {
	// Province is an exact, case-insensitive province scope. Empty means
	// all provinces.
	Province string
	// Title is a case-insensitive substring match on the station title.
	Title string
	// Selected holds the chosen values per attribute. A missing key or an
	// empty slice imposes no constraint on that attribute.
	Selected map[Attribute][]string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	if c.Province != "" || c.Title != "" {
		return false
	}
	for _, values := range c.Selected {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Select returns a copy of the criteria with values added to an attribute
// selection, skipping values already selected (case-insensitive).
func (c Criteria) Select(attr Attribute, values ...string) Criteria {
	out := c.clone()
	for _, v := range values {
		if !containsFold(out.Selected[attr], v) {
			out.Selected[attr] = append(out.Selected[attr], v)
		}
	}
	return out
}

// Deselect returns a copy of the criteria with a value removed from an
// attribute selection.
func (c Criteria) Deselect(attr Attribute, value string) Criteria {
	out := c.clone()
	kept := out.Selected[attr][:0]
	for _, v := range out.Selected[attr] {
		if !strings.EqualFold(v, value) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(out.Selected, attr)
	} else {
		out.Selected[attr] = kept
	}
	return out
}

// Toggle returns a copy of the criteria with the value selected if it was
// not, or deselected if it was.
func (c Criteria) Toggle(attr Attribute, value string) Criteria {
	if containsFold(c.Selected[attr], value) {
		return c.Deselect(attr, value)
	}
	return c.Select(attr, value)
}

// IsSelected reports whether a value is currently selected for an attribute.
func (c Criteria) IsSelected(attr Attribute, value string) bool {
	return containsFold(c.Selected[attr], value)
}

func (c Criteria) clone() Criteria {
	out := Criteria{Province: c.Province, Title: c.Title, Selected: make(map[Attribute][]string, len(c.Selected))}
	for attr, values := range c.Selected {
		out.Selected[attr] = append([]string(nil), values...)
	}
	return out
}

// Values returns the station's blank-filtered values for an attribute. A
// missing attribute yields an empty list. Status is single-valued; the
// remaining attributes are multi-valued.
func Values(station *api.Station, attr Attribute) []string {
	var raw []string
	switch attr {
	case AttrProduct:
		raw = station.Product
	case AttrOtherProduct:
		raw = station.OtherProduct
	case AttrService:
		raw = station.Service
	case AttrDescription:
		raw = station.Description
	case AttrPromotion:
		raw = station.Promotion
	case AttrStatus:
		if strings.TrimSpace(station.Status) != "" {
			return []string{station.Status}
		}
		return nil
	}

	var values []string
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	}
	return values
}

// Matches reports whether a station satisfies the criteria. Constrained
// attributes combine with AND semantics; values within an attribute combine
// with OR semantics. All comparisons are case-insensitive.
func Matches(station *api.Station, c Criteria) bool {
	if c.Province != "" && !strings.EqualFold(station.Province, c.Province) {
		return false
	}
	if c.Title != "" && !strings.Contains(strings.ToLower(station.Title), strings.ToLower(c.Title)) {
		return false
	}

	for attr, selected := range c.Selected {
		if len(selected) == 0 {
			continue
		}
		if !intersects(Values(station, attr), selected) {
			return false
		}
	}
	return true
}

// MatchesAny reports whether any of the station's product, other product,
// service or description values appears in the selected set. This is the
// relaxed predicate used by the nearby-stations ranking (CombineAny); an
// empty selection matches everything.
func MatchesAny(station *api.Station, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, attr := range []Attribute{AttrProduct, AttrOtherProduct, AttrService, AttrDescription} {
		if intersects(Values(station, attr), selected) {
			return true
		}
	}
	return false
}

// Apply filters the dataset with the criteria, preserving dataset order.
// Applying a zero Criteria returns every station.
func Apply(stations []api.Station, c Criteria) []api.Station {
	matched := make([]api.Station, 0, len(stations))
	for i := range stations {
		if Matches(&stations[i], c) {
			matched = append(matched, stations[i])
		}
	}
	return matched
}

func intersects(values, selected []string) bool {
	for _, s := range selected {
		if containsFold(values, s) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
