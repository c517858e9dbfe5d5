package entity

import "time"

type MenuItem struct {
	Id            uint
	Name          string
	Description   string
	Price         float64
	Category      string
	Tags          []string
	ImageURL      string
	NameDe        *string
	NameCs        *string
	DescriptionDe *string
	DescriptionCs *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LocalizedName returns the display name for a locale tag, falling back to
// the English name.
func (m *MenuItem) LocalizedName(language string) string {
	switch {
	case len(language) >= 2 && language[:2] == "de" && m.NameDe != nil && *m.NameDe != "":
		return *m.NameDe
	case len(language) >= 2 && language[:2] == "cs" && m.NameCs != nil && *m.NameCs != "":
		return *m.NameCs
	default:
		return m.Name
	}
}
