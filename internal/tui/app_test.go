package tui

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/portal/internal/api"
	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/library"
	"github.com/mmcdole/portal/internal/notes"
	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/store"
	"github.com/mmcdole/portal/internal/studio"
)

// backend is a canned REST API
type backend struct {
	mu             sync.Mutex
	failPage2      bool
	residentsAsked bool
}

func (b *backend) setFailPage2(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPage2 = v
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			b.mu.Lock()
			b.residentsAsked = r.URL.Query().Get("include_residents") == "true"
			b.mu.Unlock()
			io.WriteString(w, `{"info":{"count":3,"pages":2,"next":2,"prev":null},"results":[
				{"id":1,"name":"Earth (C-137)","type":"Planet","dimension":"Dimension C-137",
				 "residents":[{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human"}]},
				{"id":2,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"}]}`)
		case "2":
			b.mu.Lock()
			fail := b.failPage2
			b.mu.Unlock()
			if fail {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			io.WriteString(w, `{"info":{"count":3,"pages":2,"next":null,"prev":1},"results":[
				{"id":2,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"},
				{"id":3,"name":"Anatomy Park","type":"Microverse","dimension":"Dimension C-137"}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("GET /api/v1/characters", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"info":{"count":1,"pages":1,"next":null,"prev":null},"results":[
			{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human"}]}`)
	})

	mux.HandleFunc("GET /api/v1/characters/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human",
			"gender":"Male","origin":{"name":"Earth (C-137)"},"location":{"name":"Citadel of Ricks"},
			"episode":[{"name":"Pilot","air_date":"December 2, 2013"}]}`)
	})

	mux.HandleFunc("GET /api/v1/notes/character/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"notes":[{"id":10,"character_id":1,"content":"Drinks a lot"}],"total":1}`)
	})

	mux.HandleFunc("GET /api/v1/ai/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "AI service not configured", http.StatusServiceUnavailable)
	})

	mux.HandleFunc("GET /api/v1/ai/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"healthy","azure_openai":true}`)
	})

	mux.HandleFunc("POST /api/v1/ai/character-backstory/generate", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"generated_content":"Rick was born in a garage."}`)
	})

	return mux
}

func newTestModel(t *testing.T, b *backend) Model {
	t.Helper()

	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.NewClient(api.Config{
		BaseURL:    server.URL + "/api/v1",
		MaxRetries: 0,
		Logger:     logger,
		Registerer: prometheus.NewRegistry(),
	})

	history, err := store.NewHistoryStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	notesSvc := notes.NewService(client, logger)
	svc := Services{
		Library: library.NewService(client, library.Options{FetchTimeout: 5 * time.Second}, logger),
		Notes:   notesSvc,
		Search:  search.NewService(client, 10, logger),
		Studio:  studio.NewService(client, client, notesSvc, history, studio.Options{}, logger),
	}

	m := NewModel(svc, Options{PrefetchRows: 3, Theme: "notty", Logger: logger})
	t.Cleanup(m.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// settle waits for every loader fetch and delivers the change
func settle(t *testing.T, m Model) Model {
	t.Helper()
	for _, p := range m.panes() {
		switch v := p.(type) {
		case *pagedPane[domain.LocationDetail]:
			v.loader.Wait()
		case *pagedPane[domain.Character]:
			v.loader.Wait()
		case *pagedPane[domain.Note]:
			v.loader.Wait()
		}
	}
	m, _ = update(t, m, loaderChangedMsg{})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func start(t *testing.T, b *backend) Model {
	t.Helper()
	m := newTestModel(t, b)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Init()
	return settle(t, m)
}

func titles(items []domain.ListItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetTitle()
	}
	return out
}

func TestModelLoadsNextPageWhenSentinelVisible(t *testing.T) {
	b := &backend{}
	m := start(t, b)

	// The first page fits on screen, so the sentinel row asked for page 2
	m = settle(t, m)

	col := m.locations.column
	assert.Equal(t, []string{"Earth (C-137)", "Citadel of Ricks", "Anatomy Park"}, titles(col.Items()))
	assert.Equal(t, pager.PhaseExhausted, col.State().Phase)
	assert.Equal(t, 3, col.State().Total)
	assert.False(t, m.locations.trigger.Observing())

	// Rows carry residents for their counts
	b.mu.Lock()
	assert.True(t, b.residentsAsked)
	b.mu.Unlock()
	assert.Equal(t, 1, m.locations.loader.Snapshot().Items[0].ResidentCount())

	// Loaded names feed the offline search index
	assert.Equal(t, 4, m.svc.Search.IndexCount())
}

func TestModelRetriesFailedPage(t *testing.T) {
	b := &backend{failPage2: true}
	m := start(t, b)
	m = settle(t, m)

	col := m.locations.column
	require.Equal(t, pager.PhasePaginationError, col.State().Phase)
	assert.Len(t, col.Items(), 2)
	assert.NotEmpty(t, col.State().Err)
	assert.Contains(t, m.View(), "r Retry")

	// Further visibility events do nothing while the error shows
	m, _ = update(t, m, TickMsg{})
	assert.Equal(t, pager.PhasePaginationError, m.locations.loader.Snapshot().Phase)

	b.setFailPage2(false)
	m, _ = update(t, m, keyMsg("r"))
	m = settle(t, m)

	assert.Equal(t, pager.PhaseExhausted, col.State().Phase)
	assert.Len(t, col.Items(), 3)
}

func TestModelOpensCharacterWithNotes(t *testing.T) {
	m := start(t, &backend{})

	m, _ = update(t, m, keyMsg("2"))
	require.Equal(t, TabCharacters, m.ActiveTab)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	loaded, ok := cmd().(CharacterLoadedMsg)
	require.True(t, ok)

	m, _ = update(t, m, loaded)
	require.NotNil(t, m.notes)
	assert.Equal(t, loaded.Character, m.Inspector.Item())

	m = settle(t, m)
	assert.Equal(t, []string{"Drinks a lot"}, titles(m.notes.column.Items()))

	// Created notes go first, deleted ones disappear
	m, _ = update(t, m, NoteSavedMsg{
		Note:    &domain.Note{ID: 11, CharacterID: 1, Content: "Owns a portal gun"},
		Created: true,
	})
	m, _ = update(t, m, loaderChangedMsg{})
	assert.Equal(t, []string{"Owns a portal gun", "Drinks a lot"}, titles(m.notes.column.Items()))

	m, _ = update(t, m, NoteDeletedMsg{NoteID: 10, CharacterID: 1})
	m, _ = update(t, m, loaderChangedMsg{})
	assert.Equal(t, []string{"Owns a portal gun"}, titles(m.notes.column.Items()))
}

func TestModelConfirmsNoteDeletion(t *testing.T) {
	m := start(t, &backend{})
	m, _ = update(t, m, keyMsg("2"))
	m, _ = update(t, m, CharacterLoadedMsg{Character: &domain.CharacterDetail{
		Character: domain.Character{ID: 1, Name: "Rick Sanchez"},
	}})
	// Not pending, so ignored
	require.Nil(t, m.notes)

	m.pendingDetail = detailKey(domain.EntityCharacter, 1)
	m, _ = update(t, m, CharacterLoadedMsg{Character: &domain.CharacterDetail{
		Character: domain.Character{ID: 1, Name: "Rick Sanchez"},
	}})
	require.NotNil(t, m.notes)
	m = settle(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.notesFocused)
	assert.True(t, m.notes.column.IsFocused())
	assert.False(t, m.characters.column.IsFocused())

	m, _ = update(t, m, keyMsg("d"))
	require.Equal(t, StateConfirmDelete, m.State)
	assert.Contains(t, m.View(), "Delete note?")

	m, cmd := update(t, m, keyMsg("n"))
	assert.Equal(t, StateBrowsing, m.State)
	assert.Nil(t, m.pendingDelete)
	assert.Nil(t, cmd)
}

func TestModelIgnoresStaleDetail(t *testing.T) {
	m := start(t, &backend{})
	m.pendingDetail = detailKey(domain.EntityLocation, 2)

	m, _ = update(t, m, LocationLoadedMsg{Location: &domain.LocationDetail{
		Location: domain.Location{ID: 1, Name: "Earth (C-137)"},
	}})
	assert.False(t, m.Inspector.HasItem())

	m, _ = update(t, m, LocationLoadedMsg{Location: &domain.LocationDetail{
		Location: domain.Location{ID: 2, Name: "Citadel of Ricks"},
	}})
	assert.True(t, m.Inspector.HasItem())
	assert.Empty(t, m.pendingDetail)
}

func TestModelSearchFallsBackToLoadedNames(t *testing.T) {
	m := start(t, &backend{})

	m, _ = update(t, m, keyMsg("3"))
	require.True(t, m.SearchInput.Focused())

	m, _ = update(t, m, keyMsg("rick"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Loading)

	done, ok := cmd().(SearchDoneMsg)
	require.True(t, ok)
	assert.True(t, done.Outcome.Offline)

	m, _ = update(t, m, done)
	assert.False(t, m.Loading)
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, titles(m.results.Items()), "Rick Sanchez")
	assert.Contains(t, m.StatusMsg, "AI search unavailable")
}

func TestModelGeneratesBackstory(t *testing.T) {
	m := start(t, &backend{})
	m, _ = update(t, m, keyMsg("2"))

	m, cmd := update(t, m, keyMsg("b"))
	require.NotNil(t, cmd)
	assert.True(t, m.Loading)

	generated, ok := cmd().(GeneratedMsg)
	require.True(t, ok, "unexpected message")
	assert.Equal(t, "Rick was born in a garage.", generated.Result.Entry.Content)

	m, _ = update(t, m, generated)
	assert.False(t, m.Loading)
	require.True(t, m.Story.IsVisible())
	assert.Contains(t, m.View(), "Character backstory: Rick Sanchez")

	entries, err := m.svc.Studio.History(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Story.IsVisible())
}

func TestModelHelpClosesOnAnyKey(t *testing.T) {
	m := start(t, &backend{})

	m, _ = update(t, m, keyMsg("?"))
	require.Equal(t, StateHelp, m.State)
	assert.True(t, strings.Contains(m.View(), "Generate backstory"))

	m, _ = update(t, m, keyMsg("j"))
	assert.Equal(t, StateBrowsing, m.State)
}

func TestModelCloseStopsLoaders(t *testing.T) {
	m := start(t, &backend{})

	m.Close()
	m.Close()
	m.locations.loader.Wait()

	before := m.locations.loader.Snapshot()
	m.locations.loader.LoadMore()
	m.locations.loader.Wait()
	assert.Equal(t, before.Phase, m.locations.loader.Snapshot().Phase)
	assert.False(t, m.locations.trigger.Observing())
}

func TestModelCloseReachesPanesOpenedLater(t *testing.T) {
	initial := start(t, &backend{})

	m, _ := update(t, initial, keyMsg("2"))
	m.pendingDetail = detailKey(domain.EntityCharacter, 1)
	m, _ = update(t, m, CharacterLoadedMsg{Character: &domain.CharacterDetail{
		Character: domain.Character{ID: 1, Name: "Rick Sanchez"},
	}})
	require.NotNil(t, m.notes)
	m = settle(t, m)
	require.Nil(t, initial.notes)

	// The copy handed to the program never saw the notes pane
	initial.Close()

	m.noteFeed.Added(domain.Note{ID: 99, CharacterID: 1, Content: "after close"})
	assert.Equal(t, []int{10}, noteIDs(m.noteFeed.Snapshot().Items))

	// Opening another character after Close starts nothing
	m.pendingDetail = detailKey(domain.EntityCharacter, 2)
	m, _ = update(t, m, CharacterLoadedMsg{Character: &domain.CharacterDetail{
		Character: domain.Character{ID: 2, Name: "Morty Smith"},
	}})
	assert.Equal(t, pager.PhaseIdle, m.noteFeed.Snapshot().Phase)
}

func noteIDs(notes []domain.Note) []int {
	out := make([]int, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}
