package filter

import "strings"

// Profile describes one deployment of the filter UI: which attributes are
// exposed and which values start pre-selected. The general, EV, admin and
// fleet-card pages are all the same engine under different profiles.
type Profile struct {
	Name       string
	Attributes []Attribute
	// DefaultSelected is applied when the profile's criteria are first
	// built, e.g. the fleet page starts with "Fleet card" selected.
	DefaultSelected map[Attribute][]string
}

var (
	// ProfileGeneral is the public map page.
	ProfileGeneral = Profile{
		Name:       "general",
		Attributes: []Attribute{AttrProduct, AttrOtherProduct, AttrService, AttrDescription, AttrPromotion},
	}

	// ProfileEV is the EV charging map; the EV product starts selected.
	ProfileEV = Profile{
		Name:       "ev",
		Attributes: []Attribute{AttrProduct, AttrOtherProduct, AttrService, AttrDescription, AttrPromotion},
		DefaultSelected: map[Attribute][]string{
			AttrOtherProduct: {"EV"},
		},
	}

	// ProfileAdmin adds the operational status attribute.
	ProfileAdmin = Profile{
		Name:       "admin",
		Attributes: []Attribute{AttrProduct, AttrOtherProduct, AttrService, AttrDescription, AttrPromotion, AttrStatus},
	}

	// ProfileFleet is the fleet-card page: status attribute exposed and
	// the Fleet card service pre-selected.
	ProfileFleet = Profile{
		Name:       "fleet",
		Attributes: []Attribute{AttrProduct, AttrOtherProduct, AttrService, AttrDescription, AttrPromotion, AttrStatus},
		DefaultSelected: map[Attribute][]string{
			AttrService: {"Fleet card"},
		},
	}
)

// Profiles lists every known deployment profile.
var Profiles = []Profile{ProfileGeneral, ProfileEV, ProfileAdmin, ProfileFleet}

// ProfileByName looks up a profile case-insensitively.
func ProfileByName(name string) (Profile, bool) {
	for _, p := range Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

// NewCriteria builds the profile's starting criteria with its default
// selections applied.
func (p Profile) NewCriteria() Criteria {
	c := Criteria{}
	for attr, values := range p.DefaultSelected {
		c = c.Select(attr, values...)
	}
	return c
}

// Active reports whether the profile exposes the attribute.
func (p Profile) Active(attr Attribute) bool {
	for _, a := range p.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// Restrict drops selections on attributes the profile does not expose.
func (p Profile) Restrict(c Criteria) Criteria {
	out := c.clone()
	for attr := range out.Selected {
		if !p.Active(attr) {
			delete(out.Selected, attr)
		}
	}
	return out
}
