package notes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/portal/internal/domain"
)

// Service validates and performs note CRUD.
type Service struct {
	client domain.NoteClient
	logger *slog.Logger
}

// NewService creates a new notes service.
func NewService(client domain.NoteClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// normalize trims surrounding whitespace and rejects empty content
func normalize(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", domain.ErrEmptyNote
	}
	return content, nil
}

func (s *Service) Create(ctx context.Context, characterID int, content string) (*domain.Note, error) {
	content, err := normalize(content)
	if err != nil {
		return nil, err
	}
	note, err := s.client.CreateNote(ctx, characterID, content)
	if err != nil {
		s.logger.Error("failed to create note", "error", err, "characterID", characterID)
		return nil, err
	}
	s.logger.Info("created note", "characterID", characterID, "id", note.ID)
	return note, nil
}

func (s *Service) Update(ctx context.Context, noteID int, content string) (*domain.Note, error) {
	content, err := normalize(content)
	if err != nil {
		return nil, err
	}
	note, err := s.client.UpdateNote(ctx, noteID, content)
	if err != nil {
		s.logger.Error("failed to update note", "error", err, "noteID", noteID)
		return nil, err
	}
	s.logger.Info("updated note", "noteID", noteID)
	return note, nil
}

func (s *Service) Delete(ctx context.Context, noteID int) error {
	if err := s.client.DeleteNote(ctx, noteID); err != nil {
		s.logger.Error("failed to delete note", "error", err, "noteID", noteID)
		return err
	}
	s.logger.Info("deleted note", "noteID", noteID)
	return nil
}

// List returns one slice of a character's notes
func (s *Service) List(ctx context.Context, characterID, limit, offset int) (*domain.NoteList, error) {
	list, err := s.client.GetCharacterNotes(ctx, characterID, limit, offset)
	if err != nil {
		s.logger.Error("failed to fetch notes", "error", err, "characterID", characterID)
		return nil, err
	}
	s.logger.Debug("fetched notes", "characterID", characterID, "count", len(list.Notes), "total", list.Total)
	return list, nil
}
