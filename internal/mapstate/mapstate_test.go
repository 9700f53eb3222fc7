package mapstate

import (
	"testing"

	"github.com/ratana-tep/stationmap/internal/filter"
	"github.com/ratana-tep/stationmap/pkg/api"
)

// recordingView captures the calls the session makes against the map.
type recordingView struct {
	markers  [][]api.Station
	fits     []Bounds
	pans     int
	lastLat  float64
	lastLng  float64
	lastZoom int
}

func (v *recordingView) SetDisplayedMarkers(stations []api.Station) {
	v.markers = append(v.markers, stations)
}

func (v *recordingView) FitViewportTo(b Bounds, animate bool) {
	v.fits = append(v.fits, b)
}

func (v *recordingView) PanTo(lat, lng float64, zoom int) {
	v.pans++
	v.lastLat, v.lastLng, v.lastZoom = lat, lng, zoom
}

func sessionStations() []api.Station {
	return []api.Station{
		{ID: "1", Title: "Central", Province: "Phnom Penh",
			Latitude: "11.55", Longitude: "104.91",
			Product: []string{"ULG 95"}, Service: []string{"Fleet card"}},
		{ID: "2", Title: "Airport", Province: "Phnom Penh",
			Latitude: "11.54", Longitude: "104.84",
			Product: []string{"HSD"}},
		{ID: "3", Title: "Riverside", Province: "Siem Reap",
			Latitude: "13.36", Longitude: "103.86",
			OtherProduct: []string{"EV"}},
	}
}

func TestNewSessionShowsAllForGeneralProfile(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)

	if got := len(s.Matched()); got != 3 {
		t.Fatalf("expected all 3 stations matched, got %d", got)
	}
	if len(view.markers) != 1 || len(view.markers[0]) != 3 {
		t.Errorf("expected one marker update with 3 stations, got %v", view.markers)
	}
	if s.FiltersApplied() {
		t.Error("general profile should start with no filters applied")
	}
}

func TestNewSessionAppliesProfileDefaults(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileEV, sessionStations(), view, nil)

	matched := s.Matched()
	if len(matched) != 1 || string(matched[0].ID) != "3" {
		t.Fatalf("ev profile should start matching the EV station, got %v", matched)
	}
	if !s.FiltersApplied() {
		t.Error("profile defaults count as applied filters")
	}
}

func TestProvinceChangedNarrowsMatches(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)

	s.Handle(ProvinceChanged{Province: "Siem Reap"})
	matched := s.Matched()
	if len(matched) != 1 || string(matched[0].ID) != "3" {
		t.Fatalf("expected the Siem Reap station, got %v", matched)
	}
}

func TestIconToggledDefersApply(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)
	updates := len(view.markers)

	s.Handle(IconToggled{Attribute: filter.AttrProduct, Value: "HSD"})
	if len(view.markers) != updates {
		t.Error("toggling an icon should not redraw until the filter is submitted")
	}
	if len(s.Matched()) != 3 {
		t.Error("matches should be unchanged before submit")
	}

	s.Handle(FilterSubmitted{})
	matched := s.Matched()
	if len(matched) != 1 || string(matched[0].ID) != "2" {
		t.Fatalf("expected the HSD station after submit, got %v", matched)
	}
}

func TestFilterSubmittedTitle(t *testing.T) {
	s := NewSession(filter.ProfileGeneral, sessionStations(), &recordingView{}, nil)

	s.Handle(FilterSubmitted{Title: "river"})
	matched := s.Matched()
	if len(matched) != 1 || string(matched[0].ID) != "3" {
		t.Fatalf("title substring should match Riverside, got %v", matched)
	}
}

func TestEmptyMatchKeepsViewport(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)
	fits := len(view.fits)

	s.Handle(FilterSubmitted{Title: "no such station"})
	if len(s.Matched()) != 0 {
		t.Fatalf("expected no matches, got %d", len(s.Matched()))
	}
	if len(view.fits) != fits {
		t.Error("empty match should not move the viewport")
	}
	last := view.markers[len(view.markers)-1]
	if len(last) != 0 {
		t.Error("empty match should still clear the displayed markers")
	}
}

func TestClearRestoresFullDataset(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)

	s.Handle(ProvinceChanged{Province: "Siem Reap"})
	s.Handle(IconToggled{Attribute: filter.AttrOtherProduct, Value: "EV"})
	s.Handle(ClearRequested{})

	if len(s.Matched()) != 3 {
		t.Errorf("clear should restore every station, got %d", len(s.Matched()))
	}
	if !s.Criteria().IsZero() {
		t.Error("clear should reset the criteria")
	}
	if s.FiltersApplied() {
		t.Error("no filters should be applied after clear")
	}
}

func TestGenerationAdvancesPerEvent(t *testing.T) {
	s := NewSession(filter.ProfileGeneral, sessionStations(), nil, nil)

	gen := s.Generation()
	if s.Stale(gen) {
		t.Error("fresh generation should not be stale")
	}

	s.Handle(ProvinceChanged{Province: "Phnom Penh"})
	if !s.Stale(gen) {
		t.Error("generation taken before an event should be stale after it")
	}
}

func TestFocusStation(t *testing.T) {
	view := &recordingView{}
	s := NewSession(filter.ProfileGeneral, sessionStations(), view, nil)

	if !s.FocusStation("3", 15) {
		t.Fatal("expected focus on a known station to succeed")
	}
	if view.pans != 1 || view.lastZoom != 15 {
		t.Errorf("expected one pan at zoom 15, got pans=%d zoom=%d", view.pans, view.lastZoom)
	}
	if view.lastLat != 13.36 || view.lastLng != 103.86 {
		t.Errorf("panned to (%f, %f)", view.lastLat, view.lastLng)
	}

	if s.FocusStation("missing", 15) {
		t.Error("unknown station id should not focus")
	}
}

func TestIconStatesAvailability(t *testing.T) {
	s := NewSession(filter.ProfileGeneral, sessionStations(), nil, nil)
	s.Handle(ProvinceChanged{Province: "Phnom Penh"})

	states := s.IconStates()
	products := states[filter.AttrProduct]
	if len(products) != 2 {
		t.Fatalf("expected both products listed, got %v", products)
	}
	for _, st := range products {
		if !st.Available {
			t.Errorf("product %q should be available in Phnom Penh", st.Value)
		}
	}

	other := states[filter.AttrOtherProduct]
	if len(other) != 1 {
		t.Fatalf("expected EV listed, got %v", other)
	}
	if other[0].Available {
		t.Error("EV should be unavailable under the Phnom Penh scope")
	}
}

func TestIconStatesKeepSelectedValues(t *testing.T) {
	s := NewSession(filter.ProfileGeneral, sessionStations(), nil, nil)
	s.Handle(IconToggled{Attribute: filter.AttrOtherProduct, Value: "EV"})
	s.Handle(ProvinceChanged{Province: "Phnom Penh"})

	other := s.IconStates()[filter.AttrOtherProduct]
	var found *IconState
	for i := range other {
		if other[i].Value == "EV" {
			found = &other[i]
		}
	}
	if found == nil {
		t.Fatal("selected EV value should stay listed while unavailable")
	}
	if !found.Selected {
		t.Error("EV should still be selected")
	}
	if found.Available {
		t.Error("EV should be disabled under the Phnom Penh scope")
	}
}

func TestBoundsOf(t *testing.T) {
	b, ok := BoundsOf(sessionStations())
	if !ok {
		t.Fatal("expected bounds for stations with coordinates")
	}
	if b.MinLat != 11.54 || b.MaxLat != 13.36 {
		t.Errorf("latitude bounds = [%f, %f]", b.MinLat, b.MaxLat)
	}
	if b.MinLng != 103.86 || b.MaxLng != 104.91 {
		t.Errorf("longitude bounds = [%f, %f]", b.MinLng, b.MaxLng)
	}

	_, ok = BoundsOf([]api.Station{{Latitude: "x", Longitude: "y"}})
	if ok {
		t.Error("unparseable coordinates should produce no bounds")
	}
}
