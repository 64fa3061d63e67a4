package library

import (
	"context"
	"sync/atomic"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
)

const defaultNotesPageSize = 20

// pageFetcher adapts a page-numbered endpoint to a loader FetchFunc
func pageFetcher[T any](get func(ctx context.Context, page int) (*domain.Page[T], error)) pager.FetchFunc[T] {
	return func(ctx context.Context, cursor int) (pager.Result[T], error) {
		page, err := get(ctx, cursor)
		if err != nil {
			return pager.Result[T]{}, err
		}
		return pager.Result[T]{
			Items: page.Results,
			Next:  page.Info.Next,
			Total: page.Info.Count,
		}, nil
	}
}

// notesFetcher adapts the limit/offset notes endpoint to 1-based cursors.
// Cursor n covers offset (n-1)*size plus shift, the net count of notes
// created or deleted locally since page 1; shift may be nil. There is a
// next cursor while the server reports more notes than have been fetched.
func notesFetcher(client domain.NoteClient, characterID, size int, shift *atomic.Int64) pager.FetchFunc[domain.Note] {
	if size <= 0 {
		size = defaultNotesPageSize
	}
	return func(ctx context.Context, cursor int) (pager.Result[domain.Note], error) {
		offset := (cursor - 1) * size
		if shift != nil {
			if cursor == 1 {
				shift.Store(0)
			}
			offset = max(offset+int(shift.Load()), 0)
		}
		list, err := client.GetCharacterNotes(ctx, characterID, size, offset)
		if err != nil {
			return pager.Result[domain.Note]{}, err
		}

		result := pager.Result[domain.Note]{Items: list.Notes, Total: list.Total}
		if len(list.Notes) > 0 && offset+len(list.Notes) < list.Total {
			result.Next = domain.NextPage(cursor + 1)
		}
		return result, nil
	}
}

// NotesFeed is a notes loader that keeps later pages aligned with local
// edits. The server lists notes newest first, so a created note pushes
// every unloaded note one position back and a deleted one pulls them forward.
type NotesFeed struct {
	*pager.Loader[domain.Note]
	shift *atomic.Int64
}

// Added shows a newly created note at the top
func (f *NotesFeed) Added(note domain.Note) {
	if !f.loaded(note.ID) {
		f.shift.Add(1)
	}
	f.Upsert(note, true)
}

// Updated replaces an edited note in place
func (f *NotesFeed) Updated(note domain.Note) {
	f.Upsert(note, false)
}

// Deleted drops a note removed on the server
func (f *NotesFeed) Deleted(id int) {
	if f.loaded(id) {
		f.shift.Add(-1)
	}
	f.Remove(id)
}

func (f *NotesFeed) loaded(id int) bool {
	for _, n := range f.Snapshot().Items {
		if n.ID == id {
			return true
		}
	}
	return false
}

// fetchAll walks every page of a FetchFunc.
func fetchAll[T any](
	ctx context.Context,
	fetch pager.FetchFunc[T],
	onProgress domain.ProgressFunc,
) ([]T, error) {
	var all []T
	cursor := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if onProgress != nil {
			onProgress(len(all), page.Total)
		}

		if page.Next == nil || *page.Next <= cursor || len(page.Items) == 0 {
			break
		}
		cursor = *page.Next
	}

	return all, nil
}
