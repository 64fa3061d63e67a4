package domain

// HistoryStore persists generated content locally (BoltDB + memory).
// Entries are keyed by time-ordered IDs so listing is newest first.
type HistoryStore interface {
	// Append assigns an ID and CreatedAt when empty, then saves the entry
	Append(entry *HistoryEntry) error

	// Update overwrites an existing entry
	Update(entry *HistoryEntry) error

	// Get returns a single entry
	Get(id string) (*HistoryEntry, bool)

	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(limit int) ([]*HistoryEntry, error)

	// Delete removes a single entry
	Delete(id string) error

	// Prune keeps the newest keep entries and removes the rest
	Prune(keep int) (int, error)

	// Clear removes all entries
	Clear() error

	Close() error
}
