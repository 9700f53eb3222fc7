// Package status classifies a station's operational state from its status
// string and the current time. The daily schedule is evaluated in the
// station network's civil timezone (Indochina Time), never the viewer's.
package status

import (
	"strings"
	"time"
)

// Category is the derived operational state.
type Category int

const (
	Closed Category = iota
	Open
	Open24h
	UnderConstruction
)

func (c Category) String() string {
	switch c {
	case Open:
		return "open"
	case Open24h:
		return "open_24h"
	case UnderConstruction:
		return "under_construction"
	default:
		return "closed"
	}
}

// Info carries the classification plus display metadata for the badge the
// map front-end renders.
type Info struct {
	Category    Category `json:"category"`
	DisplayText string   `json:"display_text"`
	IconHint    string   `json:"icon_hint"`
	BadgeHint   string   `json:"badge_hint"`
}

const (
	statusUnderConstruct = "under construct"
	status24h            = "24h"

	openingHour    = 5
	closingHour    = 20
	closingMinute  = 30
	closingDisplay = "Open until 8:30 PM"
)

var ict = loadICT()

func loadICT() *time.Location {
	loc, err := time.LoadLocation("Asia/Phnom_Penh")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// Classify derives the open/closed state for a station status at the given
// instant. Status comparison is case-insensitive; "under construct" and
// "24h" override the schedule. Any other status follows the default
// schedule: open from 05:00 inclusive until 20:30 exclusive, ICT.
func Classify(status string, now time.Time) Info {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case statusUnderConstruct:
		return Info{
			Category:    UnderConstruction,
			DisplayText: "Under Construction",
			IconHint:    "fa-tools",
			BadgeHint:   "bg-warning",
		}
	case status24h:
		return Info{
			Category:    Open24h,
			DisplayText: "Open 24h",
			IconHint:    "fa-gas-pump",
			BadgeHint:   "bg-success",
		}
	}

	local := now.In(ict)
	if withinSchedule(local.Hour(), local.Minute()) {
		return Info{
			Category:    Open,
			DisplayText: closingDisplay,
			IconHint:    "fa-gas-pump",
			BadgeHint:   "bg-success",
		}
	}
	return Info{
		Category:    Closed,
		DisplayText: "Closed",
		IconHint:    "fa-times-circle",
		BadgeHint:   "bg-danger",
	}
}

// withinSchedule implements the boundary semantics: 05:00:00 is open,
// 20:30:00 is closed.
func withinSchedule(hour, minute int) bool {
	if hour < openingHour || hour > closingHour {
		return false
	}
	if hour == closingHour && minute >= closingMinute {
		return false
	}
	return true
}
