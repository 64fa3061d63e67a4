package notes

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/portal/internal/domain"
)

type fakeNoteClient struct {
	created []string
	updated map[int]string
	deleted []int
	err     error
}

func (f *fakeNoteClient) GetCharacterNotes(_ context.Context, characterID, limit, offset int) (*domain.NoteList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.NoteList{Notes: []domain.Note{{ID: 1, CharacterID: characterID}}, Total: 1}, nil
}

func (f *fakeNoteClient) CreateNote(_ context.Context, characterID int, content string) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, content)
	return &domain.Note{ID: len(f.created), CharacterID: characterID, Content: content}, nil
}

func (f *fakeNoteClient) UpdateNote(_ context.Context, noteID int, content string) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = make(map[int]string)
	}
	f.updated[noteID] = content
	return &domain.Note{ID: noteID, Content: content}, nil
}

func (f *fakeNoteClient) DeleteNote(_ context.Context, noteID int) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, noteID)
	return nil
}

func newTestService(client *fakeNoteClient) *Service {
	return NewService(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreate_TrimsContent(t *testing.T) {
	client := &fakeNoteClient{}
	note, err := newTestService(client).Create(context.Background(), 1, "  Wubba lubba dub dub \n")
	require.NoError(t, err)

	assert.Equal(t, "Wubba lubba dub dub", note.Content)
	assert.Equal(t, []string{"Wubba lubba dub dub"}, client.created)
}

func TestEmptyContentIsRejected(t *testing.T) {
	client := &fakeNoteClient{}
	svc := newTestService(client)

	_, err := svc.Create(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyNote)

	_, err = svc.Update(context.Background(), 1, "\n\t")
	assert.ErrorIs(t, err, domain.ErrEmptyNote)

	assert.Empty(t, client.created)
	assert.Empty(t, client.updated)
}

func TestUpdateAndDelete(t *testing.T) {
	client := &fakeNoteClient{}
	svc := newTestService(client)

	note, err := svc.Update(context.Background(), 4, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", note.Content)

	require.NoError(t, svc.Delete(context.Background(), 4))
	assert.Equal(t, []int{4}, client.deleted)
}

func TestClientErrorsPropagate(t *testing.T) {
	client := &fakeNoteClient{err: domain.ErrServerOffline}
	svc := newTestService(client)

	_, err := svc.Create(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), domain.ErrServerOffline)

	_, err = svc.List(context.Background(), 1, 10, 0)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}
