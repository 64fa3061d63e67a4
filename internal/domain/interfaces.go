package domain

// ListItem is the polymorphic interface for items that can be displayed in lists.
// Character, Location and Note implement it directly.
type ListItem interface {
	// GetID returns the stable identifier used for deduplication and selection
	GetID() int

	// GetTitle returns the display title
	GetTitle() string

	// GetDescription returns secondary info for display (e.g., "Human · Alive")
	GetDescription() string

	// GetItemType returns the type identifier: "character", "location", "note"
	GetItemType() string
}
