package status

import (
	"testing"
	"time"
)

func ictTime(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, ict)
}

func TestClassifyOverrides(t *testing.T) {
	tests := []struct {
		status string
		want   Category
	}{
		{"24h", Open24h},
		{"24H", Open24h},
		{" 24h ", Open24h},
		{"under construct", UnderConstruction},
		{"Under Construct", UnderConstruction},
	}

	// Overrides hold regardless of the clock.
	instants := []time.Time{ictTime(3, 0), ictTime(12, 0), ictTime(23, 59)}
	for _, test := range tests {
		for _, now := range instants {
			info := Classify(test.status, now)
			if info.Category != test.want {
				t.Errorf("Classify(%q, %s) = %s, want %s",
					test.status, now.Format("15:04"), info.Category, test.want)
			}
		}
	}
}

func TestClassifySchedule(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         Category
	}{
		{0, 0, Closed},
		{4, 59, Closed},
		{5, 0, Open},
		{5, 1, Open},
		{12, 0, Open},
		{20, 29, Open},
		{20, 30, Closed},
		{20, 31, Closed},
		{21, 0, Closed},
		{23, 59, Closed},
	}

	for _, test := range tests {
		info := Classify("", ictTime(test.hour, test.minute))
		if info.Category != test.want {
			t.Errorf("Classify at %02d:%02d = %s, want %s",
				test.hour, test.minute, info.Category, test.want)
		}
	}
}

func TestClassifyScheduleIsICT(t *testing.T) {
	// 22:00 UTC is 05:00 the next day in Indochina Time.
	now := time.Date(2025, time.March, 10, 22, 0, 0, 0, time.UTC)
	info := Classify("", now)
	if info.Category != Open {
		t.Errorf("22:00 UTC should classify as open in ICT, got %s", info.Category)
	}

	// 13:30 UTC is 20:30 ICT, the closing boundary.
	now = time.Date(2025, time.March, 10, 13, 30, 0, 0, time.UTC)
	info = Classify("", now)
	if info.Category != Closed {
		t.Errorf("13:30 UTC should classify as closed in ICT, got %s", info.Category)
	}
}

func TestClassifyUnknownStatusFollowsSchedule(t *testing.T) {
	for _, status := range []string{"16h", "Under Maintenance", "brand change"} {
		info := Classify(status, ictTime(12, 0))
		if info.Category != Open {
			t.Errorf("Classify(%q) at noon = %s, want open", status, info.Category)
		}
		info = Classify(status, ictTime(2, 0))
		if info.Category != Closed {
			t.Errorf("Classify(%q) at 02:00 = %s, want closed", status, info.Category)
		}
	}
}

func TestClassifyDisplayMetadata(t *testing.T) {
	info := Classify("", ictTime(12, 0))
	if info.DisplayText != "Open until 8:30 PM" {
		t.Errorf("open display text = %q", info.DisplayText)
	}
	if info.BadgeHint != "bg-success" {
		t.Errorf("open badge hint = %q", info.BadgeHint)
	}

	info = Classify("", ictTime(2, 0))
	if info.DisplayText != "Closed" || info.BadgeHint != "bg-danger" {
		t.Errorf("closed metadata = %+v", info)
	}

	info = Classify("under construct", ictTime(12, 0))
	if info.DisplayText != "Under Construction" || info.BadgeHint != "bg-warning" {
		t.Errorf("under-construction metadata = %+v", info)
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{Open24h, "open_24h"},
		{UnderConstruction, "under_construction"},
	}

	for _, test := range tests {
		if got := test.category.String(); got != test.want {
			t.Errorf("Category(%d).String() = %q, want %q", test.category, got, test.want)
		}
	}
}
