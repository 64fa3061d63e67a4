package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/portal/internal/domain"
)

type noteCreate struct {
	CharacterID int    `json:"character_id"`
	Content     string `json:"content"`
}

type noteUpdate struct {
	Content string `json:"content"`
}

// GetCharacterNotes returns notes for a character, newest first.
// Zero limit or offset are omitted so the server defaults apply.
func (c *Client) GetCharacterNotes(ctx context.Context, characterID, limit, offset int) (*domain.NoteList, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var out domain.NoteList
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/notes/character/%d", characterID),
		endpoint: "/notes/character/{id}",
		query:    query,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get notes for character %d: %w", characterID, err)
	}
	return &out, nil
}

// CreateNote adds a note to a character
func (c *Client) CreateNote(ctx context.Context, characterID int, content string) (*domain.Note, error) {
	var out domain.Note
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/notes",
		endpoint: "/notes",
		body:     noteCreate{CharacterID: characterID, Content: content},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &out, nil
}

// UpdateNote replaces a note's content
func (c *Client) UpdateNote(ctx context.Context, noteID int, content string) (*domain.Note, error) {
	var out domain.Note
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("/notes/%d", noteID),
		endpoint: "/notes/{id}",
		body:     noteUpdate{Content: content},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", noteID, err)
	}
	return &out, nil
}

// DeleteNote removes a note. The server answers 204 with no body.
func (c *Client) DeleteNote(ctx context.Context, noteID int) error {
	err := c.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/notes/%d", noteID),
		endpoint: "/notes/{id}",
	}, nil)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", noteID, err)
	}
	return nil
}
