package api

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString unmarshals a JSON string or number into a string. The upstream
// dataset is hand-edited and not consistent about quoting ids and coordinates.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Promotion is a single promotional campaign attached to a station.
type Promotion struct {
	PromotionID string `json:"promotion_id"`
	Description string `json:"description"`
	StationID   string `json:"station_id,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

// StationPromotions is one entry of the promotions resource, joined onto
// stations by StationID.
type StationPromotions struct {
	StationID  FlexString  `json:"station_id"`
	Promotions []Promotion `json:"promotions"`
}

// Station is a single fuel/retail location record.
type Station struct {
	ID           FlexString  `json:"id"`
	Title        string      `json:"title"`
	Address      string      `json:"address"`
	Province     string      `json:"province"`
	Picture      string      `json:"picture"`
	Latitude     FlexString  `json:"latitude"`
	Longitude    FlexString  `json:"longitude"`
	Product      []string    `json:"product"`
	OtherProduct []string    `json:"other_product"`
	Service      []string    `json:"service"`
	Description  []string    `json:"description"`
	Promotion    []string    `json:"promotion"`
	Status       string      `json:"status"`
	Promotions   []Promotion `json:"promotions,omitempty"`
}

// StationList represents the markers resource.
type StationList struct {
	Stations []Station `json:"STATION"`
}

// PromotionList represents the promotions resource.
type PromotionList struct {
	Promotions []StationPromotions `json:"PROMOTIONS"`
}

// Coordinates returns the station position parsed to decimal degrees.
func (s *Station) Coordinates() (lat, lng float64, err error) {
	lat, err = ParseLatLong(s.Latitude.String())
	if err != nil {
		return 0, 0, err
	}
	lng, err = ParseLatLong(s.Longitude.String())
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// ParseLatLong parses a latitude or longitude string (with comma or dot) to float64.
func ParseLatLong(s string) (float64, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return m, nil
}
