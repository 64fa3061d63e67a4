package domain

import (
	"fmt"
	"strings"
)

// Character is the summary record returned by paginated character lists
type Character struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`  // "Alive", "Dead" or "unknown"
	Species string `json:"species"` // e.g. "Human", "Alien"
	Image   string `json:"image"`   // Avatar URL
}

// Place is an origin or last-known location embedded in a character detail
type Place struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Dimension string `json:"dimension"`
}

// EpisodeRef is the short episode form embedded in a character detail
type EpisodeRef struct {
	Name    string `json:"name"`
	AirDate string `json:"air_date"`
}

// CharacterDetail is the full character record
type CharacterDetail struct {
	Character
	Type     string       `json:"type"`
	Gender   string       `json:"gender"`
	Origin   Place        `json:"origin"`
	Location Place        `json:"location"`
	Episodes []EpisodeRef `json:"episode"`
	Created  string       `json:"created"`
}

// Location is the summary record returned by paginated location lists
type Location struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Dimension string `json:"dimension"`
}

// LocationDetail is a location with its residents expanded
type LocationDetail struct {
	Location
	Residents []Character `json:"residents"`
}

// StatusLabel returns a normalized life status for display
func (c Character) StatusLabel() string {
	switch strings.ToLower(c.Status) {
	case "alive":
		return "Alive"
	case "dead":
		return "Dead"
	default:
		return "Unknown"
	}
}

// ListItem interface implementation for Character

func (c Character) GetID() int          { return c.ID }
func (c Character) GetTitle() string    { return c.Name }
func (c Character) GetItemType() string { return "character" }

func (c Character) GetDescription() string {
	if c.Species == "" {
		return c.StatusLabel()
	}
	return fmt.Sprintf("%s · %s", c.Species, c.StatusLabel())
}

// ListItem interface implementation for Location

func (l Location) GetID() int          { return l.ID }
func (l Location) GetTitle() string    { return l.Name }
func (l Location) GetItemType() string { return "location" }

func (l Location) GetDescription() string {
	if l.Dimension == "" || l.Dimension == "unknown" {
		return l.Type
	}
	return fmt.Sprintf("%s · %s", l.Type, l.Dimension)
}

// ResidentCount returns the number of residents, for list descriptions
func (l LocationDetail) ResidentCount() int {
	return len(l.Residents)
}

// LocationKind buckets free-form location types for badge styling
type LocationKind int

const (
	LocationKindOther LocationKind = iota
	LocationKindPlanet
	LocationKindStation
	LocationKindDimension
	LocationKindSpacecraft
	LocationKindResort
	LocationKindReality
	LocationKindAsteroid
	LocationKindMoon
	LocationKindSettlement
)

// KindOf classifies a location type string.
// "Planetoid" must be checked before "planet".
func KindOf(locationType string) LocationKind {
	t := strings.ToLower(locationType)
	switch {
	case strings.Contains(t, "planetoid"), strings.Contains(t, "asteroid"):
		return LocationKindAsteroid
	case strings.Contains(t, "planet"):
		return LocationKindPlanet
	case strings.Contains(t, "station"):
		return LocationKindStation
	case strings.Contains(t, "dimension"):
		return LocationKindDimension
	case strings.Contains(t, "spacecraft"), strings.Contains(t, "ship"):
		return LocationKindSpacecraft
	case strings.Contains(t, "resort"), strings.Contains(t, "club"):
		return LocationKindResort
	case strings.Contains(t, "reality"), strings.Contains(t, "universe"):
		return LocationKindReality
	case strings.Contains(t, "moon"):
		return LocationKindMoon
	case strings.Contains(t, "country"), strings.Contains(t, "city"), strings.Contains(t, "town"):
		return LocationKindSettlement
	default:
		return LocationKindOther
	}
}

// String returns a short label for the kind
func (k LocationKind) String() string {
	switch k {
	case LocationKindPlanet:
		return "planet"
	case LocationKindStation:
		return "station"
	case LocationKindDimension:
		return "dimension"
	case LocationKindSpacecraft:
		return "spacecraft"
	case LocationKindResort:
		return "resort"
	case LocationKindReality:
		return "reality"
	case LocationKindAsteroid:
		return "asteroid"
	case LocationKindMoon:
		return "moon"
	case LocationKindSettlement:
		return "settlement"
	default:
		return "other"
	}
}

// Note is a free-text annotation attached to a character
type Note struct {
	ID          int       `json:"id"`
	CharacterID int       `json:"character_id"`
	Content     string    `json:"content"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// NoteList is one slice of a character's notes plus the overall count
type NoteList struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}

// ListItem interface implementation for Note

func (n Note) GetID() int          { return n.ID }
func (n Note) GetItemType() string { return "note" }

func (n Note) GetTitle() string {
	line, _, _ := strings.Cut(strings.TrimSpace(n.Content), "\n")
	return line
}

func (n Note) GetDescription() string {
	if n.UpdatedAt.IsZero() {
		return ""
	}
	return n.UpdatedAt.Local().Format("2006-01-02 15:04")
}
