// Package icons maps logical attribute values to image assets. Unmapped
// values resolve to a default asset rather than failing.
package icons

import "strings"

const (
	// DefaultAsset is returned for any value without a mapping.
	DefaultAsset = "default.png"

	promotionBaseURL = "https://raw.githubusercontent.com/Ratana-tep/PTT_STATION_MAP/master/pictures/promotion/"
	defaultImageURL  = "https://raw.githubusercontent.com/Ratana-tep/PTT_STATION_MAP/master/pictures/default.png"
)

// attributeImages maps filter-icon values to asset filenames. Keys are
// matched case-insensitively.
var attributeImages = map[string]string{
	"amazon":            "amazon.png",
	"7-eleven":          "7eleven.png",
	"fleet card":        "fleet.png",
	"khqr":              "KHQR.png",
	"cash":              "cash.png",
	"ev":                "ev.png",
	"onion":             "onion.png",
	"ulg 95":            "ULG95.png",
	"ulr 91":            "ULR91.png",
	"hsd":               "HSD.png",
	"otr":               "OTR.png",
	"24h":               "24h.png",
	"16h":               "16h.png",
	"under maintenance": "maintenance.png",
	"brand change":      "close.png",
}

// promotionImages maps promotion ids to full image URLs.
var promotionImages = map[string]string{
	"promotion 1":         promotionBaseURL + "promotion_1.jpg",
	"promotion 2":         promotionBaseURL + "promotion_2.jpg",
	"promotion 3":         promotionBaseURL + "promotion_3.jpg",
	"promotion 4":         promotionBaseURL + "promotion_4.jpg",
	"promotion opening 1": promotionBaseURL + "promotion_opening_1.jpg",
	"promotion opening 2": promotionBaseURL + "promotion_opening_2.jpg",
	"promotion opening 3": promotionBaseURL + "promotion_opening_3.jpg",
	"promotion opening 4": promotionBaseURL + "promotion_opening_4.jpg",
}

// ForValue resolves an attribute value to its asset filename.
func ForValue(value string) string {
	if asset, ok := attributeImages[strings.ToLower(strings.TrimSpace(value))]; ok {
		return asset
	}
	return DefaultAsset
}

// ForPromotion resolves a promotion id to its image URL.
func ForPromotion(promotionID string) string {
	if url, ok := promotionImages[strings.ToLower(strings.TrimSpace(promotionID))]; ok {
		return url
	}
	return defaultImageURL
}
