package library

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
)

// Options configures the loaders a Service builds
type Options struct {
	FetchTimeout  time.Duration // Bounds each page fetch so loading always settles
	NotesPageSize int
}

// Service builds paginated loaders and answers detail queries.
type Service struct {
	client domain.LibraryClient
	opts   Options
	logger *slog.Logger
}

// CharacterProfile is a character with the first page of its notes
type CharacterProfile struct {
	Character *domain.CharacterDetail
	Notes     *domain.NoteList
}

// NewService creates a new library service.
func NewService(client domain.LibraryClient, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.NotesPageSize <= 0 {
		opts.NotesPageSize = defaultNotesPageSize
	}
	return &Service{client: client, opts: opts, logger: logger}
}

func (s *Service) loaderOptions(name, fallback string, observer pager.Observer) pager.Options {
	return pager.Options{
		Name:            name,
		Timeout:         s.opts.FetchTimeout,
		FallbackMessage: fallback,
		Logger:          s.logger,
		Observer:        observer,
	}
}

// ResidentsLoader pages through locations with residents expanded, so rows
// can show resident counts
func (s *Service) ResidentsLoader(observer pager.Observer) *pager.Loader[domain.LocationDetail] {
	return pager.NewLoader(
		pageFetcher(s.client.GetLocationsWithResidents),
		s.loaderOptions("locations+residents", "Failed to load locations. Make sure the backend is running.", observer),
	)
}

// CharactersLoader pages through characters
func (s *Service) CharactersLoader(observer pager.Observer) *pager.Loader[domain.Character] {
	return pager.NewLoader(
		pageFetcher(s.client.GetCharacters),
		s.loaderOptions("characters", "Failed to load characters. Make sure the backend is running.", observer),
	)
}

// NotesLoader pages through one character's notes
func (s *Service) NotesLoader(characterID int, observer pager.Observer) *NotesFeed {
	shift := new(atomic.Int64)
	return &NotesFeed{
		Loader: pager.NewLoader(
			notesFetcher(s.client, characterID, s.opts.NotesPageSize, shift),
			s.loaderOptions("notes", "Failed to load notes.", observer),
		),
		shift: shift,
	}
}

// Character fetches the full record for a character
func (s *Service) Character(ctx context.Context, id int) (*domain.CharacterDetail, error) {
	char, err := s.client.GetCharacter(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch character", "error", err, "characterID", id)
		return nil, err
	}
	s.logger.Debug("fetched character", "characterID", id, "episodes", len(char.Episodes))
	return char, nil
}

// Location fetches a location with its residents
func (s *Service) Location(ctx context.Context, id int) (*domain.LocationDetail, error) {
	loc, err := s.client.GetLocation(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch location", "error", err, "locationID", id)
		return nil, err
	}
	s.logger.Debug("fetched location", "locationID", id, "residents", loc.ResidentCount())
	return loc, nil
}

// CharacterWithNotes fetches a character and the first page of its notes concurrently.
func (s *Service) CharacterWithNotes(ctx context.Context, id int) (*CharacterProfile, error) {
	g, gctx := errgroup.WithContext(ctx)
	profile := &CharacterProfile{}

	g.Go(func() error {
		char, err := s.Character(gctx, id)
		if err != nil {
			return err
		}
		profile.Character = char
		return nil
	})
	g.Go(func() error {
		notes, err := s.client.GetCharacterNotes(gctx, id, s.opts.NotesPageSize, 0)
		if err != nil {
			s.logger.Error("failed to fetch notes", "error", err, "characterID", id)
			return err
		}
		profile.Notes = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

// AllLocations walks every locations page
func (s *Service) AllLocations(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Location, error) {
	items, err := fetchAll(ctx, pageFetcher(s.client.GetLocations), onProgress)
	if err != nil {
		s.logger.Error("failed to fetch all locations", "error", err)
		return nil, err
	}
	s.logger.Debug("fetched all locations", "count", len(items))
	return pager.Dedupe(items), nil
}

// AllLocationsWithResidents walks every locations page with residents expanded
func (s *Service) AllLocationsWithResidents(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.LocationDetail, error) {
	items, err := fetchAll(ctx, pageFetcher(s.client.GetLocationsWithResidents), onProgress)
	if err != nil {
		s.logger.Error("failed to fetch all locations", "error", err)
		return nil, err
	}
	return pager.Dedupe(items), nil
}

// AllCharacters walks every characters page
func (s *Service) AllCharacters(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Character, error) {
	items, err := fetchAll(ctx, pageFetcher(s.client.GetCharacters), onProgress)
	if err != nil {
		s.logger.Error("failed to fetch all characters", "error", err)
		return nil, err
	}
	s.logger.Debug("fetched all characters", "count", len(items))
	return pager.Dedupe(items), nil
}

// AllNotes walks every page of a character's notes
func (s *Service) AllNotes(ctx context.Context, characterID int) ([]domain.Note, error) {
	items, err := fetchAll(ctx, notesFetcher(s.client, characterID, s.opts.NotesPageSize, nil), nil)
	if err != nil {
		s.logger.Error("failed to fetch notes", "error", err, "characterID", characterID)
		return nil, err
	}
	return pager.Dedupe(items), nil
}

// LocationsPage returns a single page, for the CLI
func (s *Service) LocationsPage(ctx context.Context, page int) (*domain.Page[domain.Location], error) {
	return s.client.GetLocations(ctx, page)
}

// ResidentsPage returns a single page of locations with residents, for the CLI
func (s *Service) ResidentsPage(ctx context.Context, page int) (*domain.Page[domain.LocationDetail], error) {
	return s.client.GetLocationsWithResidents(ctx, page)
}

// CharactersPage returns a single page, for the CLI
func (s *Service) CharactersPage(ctx context.Context, page int) (*domain.Page[domain.Character], error) {
	return s.client.GetCharacters(ctx, page)
}
