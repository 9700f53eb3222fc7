// Package api provides types and functions to fetch the station and
// promotion datasets published by the station map project and join them
// into a single in-memory collection.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	defaultStationsURL   = "https://raw.githubusercontent.com/Ratana-tep/PTT_STATION_MAP/master/data/markers.json"
	defaultPromotionsURL = "https://raw.githubusercontent.com/Ratana-tep/PTT_STATION_MAP/master/data/promotions.json"
)

// StationAPI provides methods to fetch the station map datasets.
type StationAPI struct {
	stationsURL   string
	promotionsURL string
	httpClient    *http.Client
}

// NewStationAPI creates a new StationAPI client with default settings.
func NewStationAPI() *StationAPI {
	return &StationAPI{
		stationsURL:   defaultStationsURL,
		promotionsURL: defaultPromotionsURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewStationAPIWithURLs creates a client pointed at custom dataset URLs.
func NewStationAPIWithURLs(stationsURL, promotionsURL string) *StationAPI {
	a := NewStationAPI()
	if stationsURL != "" {
		a.stationsURL = stationsURL
	}
	if promotionsURL != "" {
		a.promotionsURL = promotionsURL
	}
	return a
}

// FetchStations fetches the station resource.
func (api *StationAPI) FetchStations(ctx context.Context) (*StationList, error) {
	body, err := api.fetch(ctx, api.stationsURL)
	if err != nil {
		return nil, err
	}

	var list StationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("error unmarshaling stations JSON: %w", err)
	}

	return &list, nil
}

// FetchPromotions fetches the promotions resource.
func (api *StationAPI) FetchPromotions(ctx context.Context) (*PromotionList, error) {
	body, err := api.fetch(ctx, api.promotionsURL)
	if err != nil {
		return nil, err
	}

	var list PromotionList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("error unmarshaling promotions JSON: %w", err)
	}

	return &list, nil
}

// FetchDataset fetches both resources and returns the joined station list.
func (api *StationAPI) FetchDataset(ctx context.Context) ([]Station, error) {
	stations, err := api.FetchStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching stations: %w", err)
	}

	promotions, err := api.FetchPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching promotions: %w", err)
	}

	JoinPromotions(stations.Stations, promotions)
	return stations.Stations, nil
}

// JoinPromotions attaches promotion records to stations by station id.
// Stations without a matching entry keep an empty promotion list. The first
// matching entry wins.
func JoinPromotions(stations []Station, promotions *PromotionList) {
	if promotions == nil {
		return
	}

	byStation := make(map[string][]Promotion, len(promotions.Promotions))
	for _, sp := range promotions.Promotions {
		id := sp.StationID.String()
		if _, ok := byStation[id]; ok {
			continue
		}
		byStation[id] = sp.Promotions
	}

	for i := range stations {
		station := &stations[i]
		if promos, ok := byStation[station.ID.String()]; ok {
			station.Promotions = promos
		}
	}
}

func (api *StationAPI) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := api.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	return body, nil
}
