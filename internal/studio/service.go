package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/portal/internal/domain"
)

var (
	// ErrAlreadySaved indicates the generation was already stored as a note
	ErrAlreadySaved = errors.New("generation already saved to notes")

	// ErrSaveInProgress indicates a save for the same generation is running
	ErrSaveInProgress = errors.New("generation is being saved")

	// ErrNotSavable indicates the generation is not attached to a character
	ErrNotSavable = errors.New("only character backstories can be saved to notes")

	// ErrUnknownEntry indicates no generation with the given ID exists
	ErrUnknownEntry = errors.New("unknown generation")
)

// DetailClient fetches the subjects generations are based on
type DetailClient interface {
	GetCharacter(ctx context.Context, id int) (*domain.CharacterDetail, error)
	GetLocation(ctx context.Context, id int) (*domain.LocationDetail, error)
}

// NoteCreator stores generated content as a character note
type NoteCreator interface {
	Create(ctx context.Context, characterID int, content string) (*domain.Note, error)
}

// Options configures the studio
type Options struct {
	UseLLMJudge  bool
	HistoryLimit int // Entries kept after each append, 0 keeps all
}

// Result is a finished generation together with the subject it was built from
type Result struct {
	Entry     *domain.HistoryEntry
	Character *domain.CharacterDetail // Set for backstories
	Location  *domain.LocationDetail  // Set for adventures
}

// Service runs AI generations, evaluates them and records them in history.
type Service struct {
	gen     domain.GenerationClient
	details DetailClient
	notes   NoteCreator
	history domain.HistoryStore
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	subjects map[string]any // entry ID -> *CharacterDetail or *LocationDetail
	saving   map[string]bool
	saved    map[string]bool
}

// NewService creates a new studio service.
func NewService(
	gen domain.GenerationClient,
	details DetailClient,
	notes NoteCreator,
	history domain.HistoryStore,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:      gen,
		details:  details,
		notes:    notes,
		history:  history,
		opts:     opts,
		logger:   logger,
		subjects: make(map[string]any),
		saving:   make(map[string]bool),
		saved:    make(map[string]bool),
	}
}

// Health reports whether the AI backend can generate
func (s *Service) Health(ctx context.Context) (*domain.AIHealth, error) {
	health, err := s.gen.Health(ctx)
	if err != nil {
		s.logger.Error("ai health check failed", "error", err)
		return nil, err
	}
	s.logger.Debug("ai health", "status", health.Status, "available", health.Available())
	return health, nil
}

// Backstory fetches the character's full record and generates a backstory for it
func (s *Service) Backstory(ctx context.Context, characterID int) (*Result, error) {
	char, err := s.details.GetCharacter(ctx, characterID)
	if err != nil {
		s.logger.Error("failed to fetch character for backstory", "error", err, "characterID", characterID)
		return nil, err
	}

	gen, err := s.gen.GenerateBackstory(ctx, *char)
	if err != nil {
		s.logger.Error("backstory generation failed", "error", err, "characterID", characterID)
		return nil, err
	}

	entry := &domain.HistoryEntry{
		Kind:        domain.KindBackstory,
		SubjectID:   char.ID,
		SubjectName: char.Name,
		Content:     gen.Content,
	}
	if err := s.record(entry, char); err != nil {
		return nil, err
	}
	s.logger.Info("generated backstory", "characterID", characterID, "entry", entry.ID, "chars", len(gen.Content))
	return &Result{Entry: entry, Character: char}, nil
}

// Adventure fetches the location with its residents and generates a story set there
func (s *Service) Adventure(ctx context.Context, locationID int) (*Result, error) {
	loc, err := s.details.GetLocation(ctx, locationID)
	if err != nil {
		s.logger.Error("failed to fetch location for adventure", "error", err, "locationID", locationID)
		return nil, err
	}

	gen, err := s.gen.GenerateAdventure(ctx, *loc)
	if err != nil {
		s.logger.Error("adventure generation failed", "error", err, "locationID", locationID)
		return nil, err
	}

	entry := &domain.HistoryEntry{
		Kind:        domain.KindAdventure,
		SubjectID:   loc.ID,
		SubjectName: loc.Name,
		Content:     gen.Content,
	}
	if err := s.record(entry, loc); err != nil {
		return nil, err
	}
	s.logger.Info("generated adventure", "locationID", locationID, "entry", entry.ID, "chars", len(gen.Content))
	return &Result{Entry: entry, Location: loc}, nil
}

// Evaluate scores a generation and stores the evaluation with its history entry.
// The subject record goes along as metadata.
func (s *Service) Evaluate(ctx context.Context, entryID string) (*domain.Evaluation, error) {
	entry, ok := s.history.Get(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}

	subject, err := s.subject(ctx, entry)
	if err != nil {
		return nil, err
	}

	metaKey := "character"
	if entry.Kind == domain.KindAdventure {
		metaKey = "location"
	}
	req := domain.EvaluationRequest{
		GeneratedOutput: entry.Content,
		Metadata:        map[string]any{metaKey: subject},
	}

	eval, err := s.gen.Evaluate(ctx, entry.Kind, req, s.opts.UseLLMJudge)
	if err != nil {
		s.logger.Error("evaluation failed", "error", err, "entry", entryID)
		return nil, err
	}

	entry.Evaluation = eval
	if err := s.history.Update(entry); err != nil {
		s.logger.Error("failed to store evaluation", "error", err, "entry", entryID)
	}
	s.logger.Info("evaluated generation", "entry", entryID, "metrics", len(eval.Metrics), "judge", len(eval.Judge))
	return eval, nil
}

// SaveToNotes stores a backstory as a note on its character. Each generation
// can be saved once.
func (s *Service) SaveToNotes(ctx context.Context, entryID string) (*domain.Note, error) {
	entry, err := s.reserveSave(entryID)
	if err != nil {
		return nil, err
	}

	saved := false
	defer func() {
		s.mu.Lock()
		delete(s.saving, entryID)
		if saved {
			s.saved[entryID] = true
		}
		s.mu.Unlock()
	}()

	note, err := s.notes.Create(ctx, entry.SubjectID, entry.Content)
	if err != nil {
		return nil, err
	}
	saved = true

	entry.SavedToNote = true
	if err := s.history.Update(entry); err != nil {
		s.logger.Error("failed to mark generation saved", "error", err, "entry", entryID)
	}
	s.logger.Info("saved generation to notes", "entry", entryID, "noteID", note.ID)
	return note, nil
}

// reserveSave reads the entry and marks it as saving. Both happen under s.mu
// so a save that finished in between is always seen.
func (s *Service) reserveSave(entryID string) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving[entryID] {
		return nil, ErrSaveInProgress
	}
	entry, ok := s.history.Get(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}
	if entry.Kind != domain.KindBackstory {
		return nil, ErrNotSavable
	}
	if entry.SavedToNote || s.saved[entryID] {
		return nil, ErrAlreadySaved
	}
	s.saving[entryID] = true
	return entry, nil
}

// History returns recent generations, newest first
func (s *Service) History(limit int) ([]*domain.HistoryEntry, error) {
	return s.history.List(limit)
}

// Entry returns a single generation
func (s *Service) Entry(id string) (*domain.HistoryEntry, bool) {
	return s.history.Get(id)
}

// DeleteEntry removes a generation from history
func (s *Service) DeleteEntry(id string) error {
	s.mu.Lock()
	delete(s.subjects, id)
	delete(s.saved, id)
	s.mu.Unlock()
	return s.history.Delete(id)
}

// record appends the entry to history and remembers its subject
func (s *Service) record(entry *domain.HistoryEntry, subject any) error {
	if err := s.history.Append(entry); err != nil {
		s.logger.Error("failed to record generation", "error", err)
		return fmt.Errorf("record generation: %w", err)
	}

	s.mu.Lock()
	s.subjects[entry.ID] = subject
	s.mu.Unlock()

	if s.opts.HistoryLimit > 0 {
		if removed, err := s.history.Prune(s.opts.HistoryLimit); err != nil {
			s.logger.Warn("failed to prune history", "error", err)
		} else if removed > 0 {
			s.logger.Debug("pruned history", "removed", removed)
		}
	}
	return nil
}

// subject returns the record a generation was built from, refetching it
// for entries created in an earlier session.
func (s *Service) subject(ctx context.Context, entry *domain.HistoryEntry) (any, error) {
	s.mu.Lock()
	subject, ok := s.subjects[entry.ID]
	s.mu.Unlock()
	if ok {
		return subject, nil
	}

	var err error
	switch entry.Kind {
	case domain.KindAdventure:
		subject, err = s.details.GetLocation(ctx, entry.SubjectID)
	default:
		subject, err = s.details.GetCharacter(ctx, entry.SubjectID)
	}
	if err != nil {
		s.logger.Error("failed to fetch generation subject", "error", err, "entry", entry.ID)
		return nil, err
	}

	s.mu.Lock()
	s.subjects[entry.ID] = subject
	s.mu.Unlock()
	return subject, nil
}
