// Package mapstate owns the loaded station dataset and applies filter
// criteria to it, driving the map collaborator. The UI layer emits typed
// events; the session recomputes matches and availability synchronously on
// each one.
package mapstate

import (
	"log/slog"

	"github.com/ratana-tep/stationmap/internal/filter"
	"github.com/ratana-tep/stationmap/internal/icons"
	"github.com/ratana-tep/stationmap/pkg/api"
)

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// BoundsOf computes the bounding box of the stations with parseable
// coordinates. ok is false when no station contributes, in which case the
// viewport must be left untouched.
func BoundsOf(stations []api.Station) (b Bounds, ok bool) {
	for i := range stations {
		lat, lng, err := stations[i].Coordinates()
		if err != nil {
			continue
		}
		if !ok {
			b = Bounds{MinLat: lat, MinLng: lng, MaxLat: lat, MaxLng: lng}
			ok = true
			continue
		}
		if lat < b.MinLat {
			b.MinLat = lat
		}
		if lat > b.MaxLat {
			b.MaxLat = lat
		}
		if lng < b.MinLng {
			b.MinLng = lng
		}
		if lng > b.MaxLng {
			b.MaxLng = lng
		}
	}
	return b, ok
}

// MapView is the map rendering collaborator. Implementations must tolerate
// an empty subset without error.
type MapView interface {
	SetDisplayedMarkers(stations []api.Station)
	FitViewportTo(b Bounds, animate bool)
	PanTo(lat, lng float64, zoom int)
}

// Event is a typed UI event the session reacts to.
type Event interface{ isEvent() }

// ProvinceChanged scopes the filter to a province ("" for all).
type ProvinceChanged struct{ Province string }

// IconToggled flips the selection of one attribute value.
type IconToggled struct {
	Attribute filter.Attribute
	Value     string
}

// FilterSubmitted applies the current selection, optionally updating the
// title search text.
type FilterSubmitted struct{ Title string }

// ClearRequested resets every criterion and shows the full dataset.
type ClearRequested struct{}

func (ProvinceChanged) isEvent() {}
func (IconToggled) isEvent()     {}
func (FilterSubmitted) isEvent() {}
func (ClearRequested) isEvent()  {}

// IconState describes one filter icon for rendering: its asset, whether it
// is selected, and whether any in-scope station carries it. A selected
// value stays listed even when unavailable under the current scope; it is
// rendered disabled instead of being dropped.
type IconState struct {
	Value     string `json:"value"`
	Asset     string `json:"asset"`
	Selected  bool   `json:"selected"`
	Available bool   `json:"available"`
}

// Session holds the dataset, the current criteria and the matched subset.
// The dataset is read-only after construction; the session is the only
// writer of the matched subset.
type Session struct {
	profile  filter.Profile
	stations []api.Station
	criteria filter.Criteria
	matched  []api.Station
	view     MapView
	log      *slog.Logger
	gen      int
}

// NewSession builds a session over the loaded dataset and applies the
// profile's default selection (e.g. the fleet page starts filtered to
// Fleet card stations).
func NewSession(profile filter.Profile, stations []api.Station, view MapView, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		profile:  profile,
		stations: stations,
		criteria: profile.NewCriteria(),
		view:     view,
		log:      logger,
	}
	s.apply()
	return s
}

// Handle processes one UI event, recomputing matches synchronously.
func (s *Session) Handle(ev Event) {
	s.gen++
	switch e := ev.(type) {
	case ProvinceChanged:
		s.criteria.Province = e.Province
		s.apply()
	case IconToggled:
		s.criteria = s.criteria.Toggle(e.Attribute, e.Value)
	case FilterSubmitted:
		s.criteria.Title = e.Title
		s.apply()
	case ClearRequested:
		// Same apply path as any other filter action; an explicit reset of
		// every field would behave identically.
		s.criteria = filter.Criteria{}
		s.apply()
	}
}

func (s *Session) apply() {
	c := s.profile.Restrict(s.criteria)
	s.matched = filter.Apply(s.stations, c)
	s.log.Debug("filter applied", "matched", len(s.matched), "province", c.Province)

	if s.view == nil {
		return
	}
	s.view.SetDisplayedMarkers(s.matched)
	if len(s.matched) > 0 {
		if b, ok := BoundsOf(s.matched); ok {
			s.view.FitViewportTo(b, true)
		}
	}
	// Empty result: the previous viewport stands.
}

// Matched returns the current matched subset in dataset order.
func (s *Session) Matched() []api.Station { return s.matched }

// Criteria returns the session's current criteria.
func (s *Session) Criteria() filter.Criteria { return s.criteria }

// Stations returns the full dataset.
func (s *Session) Stations() []api.Station { return s.stations }

// FiltersApplied reports whether any criterion is set, driving the clear
// button's visibility.
func (s *Session) FiltersApplied() bool { return !s.criteria.IsZero() }

// Generation identifies the session state at a point in time. An
// asynchronous lookup captures it before starting and discards its result
// when Stale reports the state moved on.
func (s *Session) Generation() int { return s.gen }

// Stale reports whether the session changed since the generation was taken.
func (s *Session) Stale(gen int) bool { return gen != s.gen }

// FocusStation pans the map to a station chosen from the nearby list.
func (s *Session) FocusStation(id string, zoom int) bool {
	for i := range s.stations {
		if s.stations[i].ID.String() != id {
			continue
		}
		lat, lng, err := s.stations[i].Coordinates()
		if err != nil {
			return false
		}
		if s.view != nil {
			s.view.PanTo(lat, lng, zoom)
		}
		return true
	}
	return false
}

// IconStates computes the icon lists for every attribute the profile
// exposes, under the current province scope. Selected values missing from
// the scoped availability list are appended so they never disappear while
// selected.
func (s *Session) IconStates() map[filter.Attribute][]IconState {
	states := make(map[filter.Attribute][]IconState, len(s.profile.Attributes))
	for _, attr := range s.profile.Attributes {
		// Values come from the whole dataset; the province scope only
		// decides which of them are enabled.
		values := filter.AvailableValues(s.stations, attr, "")
		var list []IconState
		for _, v := range values {
			list = append(list, IconState{
				Value:     v,
				Asset:     icons.ForValue(v),
				Selected:  s.criteria.IsSelected(attr, v),
				Available: filter.IsAvailable(s.stations, attr, v, s.criteria.Province),
			})
		}
		for _, v := range s.criteria.Selected[attr] {
			if !containsIconValue(list, v) {
				list = append(list, IconState{
					Value:     v,
					Asset:     icons.ForValue(v),
					Selected:  true,
					Available: false,
				})
			}
		}
		states[attr] = list
	}
	return states
}

func containsIconValue(list []IconState, value string) bool {
	for _, st := range list {
		if st.Value == value {
			return true
		}
	}
	return false
}
