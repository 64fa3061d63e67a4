package domain

import "context"

// LocationClient provides network access to locations
type LocationClient interface {
	// GetLocations returns one page of locations without residents
	GetLocations(ctx context.Context, page int) (*Page[Location], error)

	// GetLocationsWithResidents returns one page of locations with residents expanded
	GetLocationsWithResidents(ctx context.Context, page int) (*Page[LocationDetail], error)

	// GetLocation returns a single location with residents
	GetLocation(ctx context.Context, id int) (*LocationDetail, error)
}

// CharacterClient provides network access to characters
type CharacterClient interface {
	// GetCharacters returns one page of characters
	GetCharacters(ctx context.Context, page int) (*Page[Character], error)

	// GetCharacter returns the full record for a character
	GetCharacter(ctx context.Context, id int) (*CharacterDetail, error)
}

// NoteClient provides network CRUD for character notes
type NoteClient interface {
	// GetCharacterNotes returns notes for a character. limit <= 0 means server default.
	GetCharacterNotes(ctx context.Context, characterID, limit, offset int) (*NoteList, error)

	CreateNote(ctx context.Context, characterID int, content string) (*Note, error)
	UpdateNote(ctx context.Context, noteID int, content string) (*Note, error)
	DeleteNote(ctx context.Context, noteID int) error
}

// GenerationClient provides the AI generation and evaluation endpoints
type GenerationClient interface {
	Health(ctx context.Context) (*AIHealth, error)
	GenerateBackstory(ctx context.Context, character CharacterDetail) (*Generation, error)
	GenerateAdventure(ctx context.Context, location LocationDetail) (*Generation, error)
	Evaluate(ctx context.Context, kind GenerationKind, req EvaluationRequest, useJudge bool) (*Evaluation, error)
}

// LibraryClient is everything the browsing views need
type LibraryClient interface {
	LocationClient
	CharacterClient
	NoteClient
}
