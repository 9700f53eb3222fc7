// Package server exposes the station dataset, filter engine, proximity
// ranker and status classifier over a JSON HTTP API.
package server

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"

	"github.com/ratana-tep/stationmap/internal/config"
	"github.com/ratana-tep/stationmap/internal/filter"
	"github.com/ratana-tep/stationmap/internal/icons"
	"github.com/ratana-tep/stationmap/internal/mapstate"
	"github.com/ratana-tep/stationmap/internal/nearby"
	"github.com/ratana-tep/stationmap/internal/stationdb"
	"github.com/ratana-tep/stationmap/internal/status"
	"github.com/ratana-tep/stationmap/pkg/api"
	"github.com/ratana-tep/stationmap/pkg/geocode"
)

// Server wires the storage, geocoder and router collaborators into HTTP
// handlers.
type Server struct {
	storage  *stationdb.Storage
	geocoder *geocode.Geocoder
	router   nearby.Router
	logger   *httplog.Logger
	cfg      config.Config
}

func New(storage *stationdb.Storage, geocoder *geocode.Geocoder, router nearby.Router, logger *httplog.Logger, cfg config.Config) *Server {
	return &Server{
		storage:  storage,
		geocoder: geocoder,
		router:   router,
		logger:   logger,
		cfg:      cfg,
	}
}

func (s *Server) slog() *slog.Logger {
	if s.logger != nil {
		return s.logger.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Handler builds the chi router with the middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	if s.logger != nil {
		r.Use(httplog.RequestLogger(s.logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(s.cfg.RateLimit, s.cfg.RatePeriod))

	r.Get("/api/stations", s.handleStations)
	r.Get("/api/stations/search", s.handleSearch)
	r.Get("/api/stations/nearby", s.handleNearby)
	r.Get("/api/stations/{id}", s.handleStation)
	r.Get("/api/availability", s.handleAvailability)
	r.Get("/api/provinces", s.handleProvinces)
	r.Get("/api/titles", s.handleTitles)
	r.Get("/api/popular", s.handlePopular)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Headers are already out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) ([]api.Station, bool) {
	stations, err := s.storage.LoadDataset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error loading dataset: "+err.Error())
		return nil, false
	}
	return stations, true
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

type stationDetail struct {
	Station       api.Station       `json:"station"`
	Status        status.Info       `json:"status"`
	AttributeIcon map[string]string `json:"attribute_icons"`
	PromotionIcon map[string]string `json:"promotion_icons"`
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	for i := range stations {
		station := &stations[i]
		if station.ID.String() != id {
			continue
		}

		attrIcons := make(map[string]string)
		for _, attr := range filter.Attributes {
			for _, v := range filter.Values(station, attr) {
				attrIcons[v] = icons.ForValue(v)
			}
		}
		promoIcons := make(map[string]string)
		for _, p := range station.Promotions {
			promoIcons[p.PromotionID] = icons.ForPromotion(p.PromotionID)
		}

		writeJSON(w, http.StatusOK, stationDetail{
			Station:       *station,
			Status:        status.Classify(station.Status, time.Now()),
			AttributeIcon: attrIcons,
			PromotionIcon: promoIcons,
		})
		return
	}

	writeError(w, http.StatusNotFound, "station not found")
}

type searchResponse struct {
	Stations []api.Station    `json:"stations"`
	Count    int              `json:"count"`
	Bounds   *mapstate.Bounds `json:"bounds"`
}

// criteriaFromQuery rebuilds the filter criteria from query parameters.
// Multi-valued attributes accept comma-separated values.
func criteriaFromQuery(q map[string][]string) filter.Criteria {
	get := func(key string) string {
		if vs, ok := q[key]; ok && len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	c := filter.Criteria{
		Province: get("province"),
		Title:    get("title"),
	}
	for _, attr := range filter.Attributes {
		values := splitCSV(get(string(attr)))
		if len(values) > 0 {
			c = c.Select(attr, values...)
		}
	}
	return c
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}

	criteria := criteriaFromQuery(r.URL.Query())
	matched := filter.Apply(stations, criteria)

	resp := searchResponse{Stations: matched, Count: len(matched)}
	if b, found := mapstate.BoundsOf(matched); found {
		// A nil bounds tells the client to keep its current viewport.
		resp.Bounds = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

type nearbyResponse struct {
	Origin struct {
		Lat         float64 `json:"lat"`
		Lng         float64 `json:"lng"`
		DisplayName string  `json:"display_name,omitempty"`
	} `json:"origin"`
	RadiusKm float64         `json:"radius_km"`
	Stations []nearby.Ranked `json:"stations"`
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	radius := nearby.DefaultRadiusKm
	if v := query.Get("radius"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	var resp nearbyResponse
	resp.RadiusKm = radius

	if location := query.Get("location"); location != "" {
		if s.geocoder == nil {
			writeError(w, http.StatusNotFound, "geocoding unavailable")
			return
		}
		loc, err := s.geocoder.Resolve(location)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		resp.Origin.Lat = loc.Lat
		resp.Origin.Lng = loc.Lng
		resp.Origin.DisplayName = loc.DisplayName
	} else {
		lat, errLat := strconv.ParseFloat(query.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(query.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			writeError(w, http.StatusBadRequest, "lat/lng or location required")
			return
		}
		// ParseFloat accepts "NaN" and "Inf"; neither is a usable origin.
		if !finite(lat) || !finite(lng) {
			writeError(w, http.StatusBadRequest, "lat/lng must be finite")
			return
		}
		resp.Origin.Lat = lat
		resp.Origin.Lng = lng
	}

	// Best effort; a logging failure never fails the search.
	if err := s.storage.LogSearchLocation(r.Context(), resp.Origin.Lat, resp.Origin.Lng, radius); err != nil {
		s.slog().Error("Failed to log search location", "error", err)
	}

	selected := splitCSV(query.Get("filters"))
	ranked := nearby.Rank(resp.Origin.Lat, resp.Origin.Lng, stations, radius, selected)

	if query.Get("refine") == "1" && s.router != nil {
		// Ranking stays haversine-ordered; only displayed distances change.
		if err := nearby.Refine(r.Context(), s.router, resp.Origin.Lat, resp.Origin.Lng, ranked); err != nil {
			s.slog().Debug("route refinement abandoned", "error", err)
		}
	}

	resp.Stations = ranked
	writeJSON(w, http.StatusOK, resp)
}

type availabilityEntry struct {
	Value     string `json:"value"`
	Asset     string `json:"asset"`
	Available bool   `json:"available"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}

	attr := filter.Attribute(r.URL.Query().Get("attr"))
	valid := false
	for _, a := range filter.Attributes {
		if a == attr {
			valid = true
			break
		}
	}
	if !valid {
		writeError(w, http.StatusBadRequest, "unknown attribute: "+string(attr))
		return
	}

	province := r.URL.Query().Get("province")
	values := filter.AvailableValues(stations, attr, "")
	entries := make([]availabilityEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, availabilityEntry{
			Value:     v,
			Asset:     icons.ForValue(v),
			Available: filter.IsAvailable(stations, attr, v, province),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleProvinces(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filter.Provinces(stations))
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	stations, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filter.Titles(stations, r.URL.Query().Get("province")))
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	locations, err := s.storage.GetPopularLocations(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if locations == nil {
		locations = []stationdb.PopularLocation{}
	}
	writeJSON(w, http.StatusOK, locations)
}
