package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/library"
	"github.com/mmcdole/portal/internal/notes"
	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/studio"
	"github.com/mmcdole/portal/internal/tui/components"
	"github.com/mmcdole/portal/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirmDelete
)

// Tab is one of the top-level views
type Tab int

const (
	TabLocations Tab = iota
	TabCharacters
	TabSearch
	TabHistory
)

var tabNames = []string{"Locations", "Characters", "Search", "History"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "Unknown"
}

const tickInterval = 100 * time.Millisecond

// Services are the backends the TUI drives
type Services struct {
	Library *library.Service
	Notes   *notes.Service
	Search  *search.Service
	Studio  *studio.Service
}

// Options tunes the TUI
type Options struct {
	Trigger      pager.TriggerConfig
	PrefetchRows int
	Theme        string // glamour style for stories
	WordWrap     int
	Logger       *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State     ApplicationState
	Ready     bool
	ActiveTab Tab

	svc      Services
	opts     Options
	logger   *slog.Logger
	observer *ChannelObserver

	// Lists
	locations  *pagedPane[domain.LocationDetail]
	characters *pagedPane[domain.Character]
	notes      *pagedPane[domain.Note] // nil until a character is opened
	noteFeed   *library.NotesFeed
	results    *components.ListColumn
	history    *components.ListColumn

	// UI Components
	SearchInput textinput.Model
	Inspector   components.Inspector
	Story       components.StoryView
	InputModal  components.InputModal

	// Characters tab focus is on the notes column
	notesFocused bool

	// Detail currently open, and the one being fetched
	character     *domain.CharacterDetail
	pendingDetail string // "character:<id>" or "location:<id>"

	editingNoteID int // 0 when the modal creates a note
	pendingDelete *domain.Note

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	LoadingText  string
	SpinnerFrame int
	AIStatus     string

	life *lifecycle
}

// lifecycle is shared by every copy of a Model, so Close reaches panes
// opened on copies returned from Update.
type lifecycle struct {
	mu     sync.Mutex
	closed bool
	notes  *pagedPane[domain.Note]
}

// setNotes records the open notes pane. It reports false once closed.
func (l *lifecycle) setNotes(p *pagedPane[domain.Note]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notes = p
	return !l.closed
}

// NewModel creates a new application model
func NewModel(svc Services, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observer := NewChannelObserver(64)

	ti := textinput.New()
	ti.Placeholder = "search characters, locations, episodes..."
	ti.Prompt = "? "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle
	ti.CharLimit = 200

	m := Model{
		State:       StateBrowsing,
		ActiveTab:   TabLocations,
		svc:         svc,
		opts:        opts,
		logger:      logger,
		observer:    observer,
		results:     components.NewStaticColumn("Results"),
		history:     components.NewStaticColumn("History"),
		SearchInput: ti,
		Inspector:   components.NewInspector(),
		Story:       components.NewStoryView(opts.Theme, opts.WordWrap),
		InputModal:  components.NewInputModal(),
		life:        &lifecycle{},
	}

	m.locations = newPagedPane(
		svc.Library.ResidentsLoader(observer),
		components.NewListColumn("Locations", opts.PrefetchRows),
		opts.Trigger,
	)
	m.characters = newPagedPane(
		svc.Library.CharactersLoader(observer),
		components.NewListColumn("Characters", opts.PrefetchRows),
		opts.Trigger,
	)
	if svc.Search != nil {
		m.locations.onItems = func(items []domain.ListItem) { svc.Search.IndexItems(items...) }
		m.characters.onItems = func(items []domain.ListItem) { svc.Search.IndexItems(items...) }
	}

	m.syncFocus()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	m.locations.loader.Start()
	m.characters.loader.Start()

	return tea.Batch(
		m.observer.Wait(),
		TickCmd(tickInterval),
		LoadHistoryCmd(m.svc.Studio),
		HealthCmd(m.svc.Studio),
	)
}

// Close stops every loader. Safe to call more than once.
func (m Model) Close() {
	m.life.mu.Lock()
	if m.life.closed {
		m.life.mu.Unlock()
		return
	}
	m.life.closed = true
	notes := m.life.notes
	m.life.mu.Unlock()

	m.locations.Close()
	m.characters.Close()
	if notes != nil {
		notes.Close()
	}
	m.logger.Info("tui closed")
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		m.checkSentinels()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		frame := RenderSpinner(m.SpinnerFrame)
		for _, p := range m.panes() {
			p.Column().SetSpinner(frame)
		}
		m.Inspector.SetSpinner(frame)
		m.checkSentinels()
		return m, TickCmd(tickInterval)

	case loaderChangedMsg:
		for _, p := range m.panes() {
			p.Refresh()
		}
		m.checkSentinels()
		return m, m.observer.Wait()

	case CharacterLoadedMsg:
		key := detailKey(domain.EntityCharacter, msg.Character.ID)
		if key != m.pendingDetail {
			return m, nil
		}
		m.pendingDetail = ""
		m.Inspector.SetItem(msg.Character)
		m.openNotes(msg.Character)
		m.updateLayout()
		return m, nil

	case LocationLoadedMsg:
		key := detailKey(domain.EntityLocation, msg.Location.ID)
		if key != m.pendingDetail {
			return m, nil
		}
		m.pendingDetail = ""
		m.Inspector.SetItem(msg.Location)
		return m, nil

	case DetailFailedMsg:
		m.pendingDetail = ""
		m.Inspector.SetError(pager.Message(msg.Err, "Failed to load details."))
		return m, nil

	case NoteSavedMsg:
		if m.notes != nil && m.character != nil && msg.Note.CharacterID == m.character.ID {
			if msg.Created {
				m.noteFeed.Added(*msg.Note)
			} else {
				m.noteFeed.Updated(*msg.Note)
			}
		}
		status := "Note updated"
		if msg.Created {
			status = "Note added"
		}
		return m, m.setStatus(status, false)

	case NoteDeletedMsg:
		if m.notes != nil && m.character != nil && msg.CharacterID == m.character.ID {
			m.noteFeed.Deleted(msg.NoteID)
		}
		return m, m.setStatus("Note deleted", false)

	case SearchDoneMsg:
		m.Loading = false
		m.results.SetItems(searchItems(msg.Outcome.Response))
		m.results.SetSelectedIndex(0)
		count := len(msg.Outcome.Response.Results)
		if msg.Outcome.Offline {
			return m, m.setStatus(fmt.Sprintf("AI search unavailable, %d local matches for %q", count, msg.Query), true)
		}
		return m, m.setStatus(fmt.Sprintf("%d results for %q", count, msg.Query), false)

	case GeneratedMsg:
		m.Loading = false
		m.Story.Show(msg.Result.Entry)
		m.updateLayout()
		cmds = append(cmds, LoadHistoryCmd(m.svc.Studio))
		cmds = append(cmds, m.setStatus(msg.Result.Entry.Kind.Label()+" ready", false))
		return m, tea.Batch(cmds...)

	case EvaluatedMsg:
		m.Loading = false
		if entry, ok := m.svc.Studio.Entry(msg.EntryID); ok {
			m.Story.Refresh(entry)
		}
		m.Story.SetStatus("")
		cmds = append(cmds, LoadHistoryCmd(m.svc.Studio))
		cmds = append(cmds, m.setStatus("Evaluation complete", false))
		return m, tea.Batch(cmds...)

	case SavedToNotesMsg:
		m.Loading = false
		if entry, ok := m.svc.Studio.Entry(msg.EntryID); ok {
			m.Story.Refresh(entry)
		}
		m.Story.SetStatus("")
		if m.notes != nil && m.character != nil && msg.Note.CharacterID == m.character.ID {
			m.noteFeed.Added(*msg.Note)
		}
		return m, m.setStatus("Saved to notes", false)

	case HistoryLoadedMsg:
		m.history.SetItems(historyItems(msg.Entries))
		return m, nil

	case HealthMsg:
		switch {
		case msg.Err != nil:
			m.AIStatus = "AI offline"
		case !msg.Health.Available():
			m.AIStatus = "AI unavailable"
		default:
			m.AIStatus = ""
		}
		return m, nil

	case ErrMsg:
		m.Loading = false
		m.Story.SetStatus("")
		m.logger.Error("command failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(errorText(msg), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Cursor blink and other internal messages for focused inputs
	if m.InputModal.IsVisible() {
		var cmd tea.Cmd
		m.InputModal, cmd, _ = m.InputModal.Update(msg)
		return m, cmd
	}
	if m.ActiveTab == TabSearch && m.SearchInput.Focused() {
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// setStatus shows a status line message that clears itself
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	delay := 3 * time.Second
	if isErr {
		delay = 5 * time.Second
	}
	return ClearStatusCmd(delay)
}

// errorText renders friendlier messages for known failures
func errorText(msg ErrMsg) string {
	switch {
	case errors.Is(msg.Err, studio.ErrAlreadySaved):
		return "Already saved to notes"
	case errors.Is(msg.Err, studio.ErrSaveInProgress):
		return "Save already in progress"
	case errors.Is(msg.Err, studio.ErrNotSavable):
		return "Only backstories can be saved to notes"
	case errors.Is(msg.Err, domain.ErrGenerationUnavailable):
		return msg.Context + ": AI generation is unavailable"
	default:
		return msg.Error()
	}
}

// panes returns the loader-backed columns that exist
func (m Model) panes() []pane {
	ps := []pane{m.locations, m.characters}
	if m.notes != nil {
		ps = append(ps, m.notes)
	}
	return ps
}

// visiblePanes returns the loader-backed columns on the active tab
func (m Model) visiblePanes() []pane {
	switch m.ActiveTab {
	case TabLocations:
		return []pane{m.locations}
	case TabCharacters:
		if m.notes != nil && !m.Story.IsVisible() {
			return []pane{m.characters, m.notes}
		}
		return []pane{m.characters}
	default:
		return nil
	}
}

// checkSentinels reports sentinel visibility for every pane on screen.
// The trigger decides whether that becomes a page fetch.
func (m Model) checkSentinels() {
	if !m.Ready {
		return
	}
	for _, p := range m.visiblePanes() {
		p.CheckSentinel()
	}
}

// focusedColumn returns the column receiving navigation keys
func (m Model) focusedColumn() *components.ListColumn {
	switch m.ActiveTab {
	case TabLocations:
		return m.locations.column
	case TabCharacters:
		if m.notesFocused && m.notes != nil {
			return m.notes.column
		}
		return m.characters.column
	case TabSearch:
		return m.results
	case TabHistory:
		return m.history
	default:
		return nil
	}
}

// focusedPane returns the focused loader-backed column, if any
func (m Model) focusedPane() pane {
	switch m.ActiveTab {
	case TabLocations:
		return m.locations
	case TabCharacters:
		if m.notesFocused && m.notes != nil {
			return m.notes
		}
		return m.characters
	default:
		return nil
	}
}

// syncFocus marks only the focused column as focused
func (m *Model) syncFocus() {
	focused := m.focusedColumn()
	cols := []*components.ListColumn{m.locations.column, m.characters.column, m.results, m.history}
	if m.notes != nil {
		cols = append(cols, m.notes.column)
	}
	for _, c := range cols {
		c.SetFocused(c == focused)
	}
}

// setTab switches tabs. Loaders keep running in the background.
func (m *Model) setTab(t Tab) tea.Cmd {
	m.ActiveTab = t
	m.Story.Hide()
	m.syncFocus()
	m.updateLayout()

	var cmd tea.Cmd
	switch t {
	case TabSearch:
		cmd = m.SearchInput.Focus()
	case TabHistory:
		cmd = LoadHistoryCmd(m.svc.Studio)
	default:
		m.SearchInput.Blur()
	}
	m.checkSentinels()
	return cmd
}

// openNotes replaces the notes column with one for char
func (m *Model) openNotes(char *domain.CharacterDetail) {
	if m.character != nil && m.character.ID == char.ID && m.notes != nil {
		m.character = char
		return
	}
	if m.notes != nil {
		m.notes.Close()
	}
	m.character = char
	m.notesFocused = false

	m.noteFeed = m.svc.Library.NotesLoader(char.ID, m.observer)
	m.notes = newPagedPane(
		m.noteFeed.Loader,
		components.NewListColumn("Notes", m.opts.PrefetchRows),
		m.opts.Trigger,
	)
	if !m.life.setNotes(m.notes) {
		m.notes.Close()
		return
	}
	m.notes.loader.Start()
	m.syncFocus()
}

// openSelected loads details for the focused row
func (m *Model) openSelected() tea.Cmd {
	col := m.focusedColumn()
	if col == nil {
		return nil
	}
	item := col.SelectedItem()
	if item == nil {
		return nil
	}

	switch v := item.(type) {
	case domain.LocationDetail:
		return m.loadDetail(domain.EntityLocation, v.ID)
	case domain.Character:
		return m.loadDetail(domain.EntityCharacter, v.ID)
	case domain.SearchResult:
		switch v.EntityType {
		case domain.EntityLocation, domain.EntityCharacter:
			return m.loadDetail(v.EntityType, v.EntityID)
		default:
			m.Inspector.SetItem(v)
		}
	case domain.Note:
		m.editingNoteID = v.ID
		return m.InputModal.Show("Edit note", v.Content, v.ID)
	case historyItem:
		m.Story.Show(v.entry)
		m.updateLayout()
	}
	return nil
}

func (m *Model) loadDetail(kind domain.EntityType, id int) tea.Cmd {
	m.Story.Hide()
	m.pendingDetail = detailKey(kind, id)
	m.Inspector.SetLoading()
	m.updateLayout()
	if kind == domain.EntityLocation {
		return LoadLocationCmd(m.svc.Library, id)
	}
	return LoadCharacterCmd(m.svc.Library, id)
}

func detailKey(kind domain.EntityType, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// selectedCharacterID returns the character a backstory would be about
func (m Model) selectedCharacterID() (int, string, bool) {
	switch m.ActiveTab {
	case TabCharacters:
		if m.notesFocused && m.character != nil {
			return m.character.ID, m.character.Name, true
		}
		if c, ok := m.characters.column.SelectedItem().(domain.Character); ok {
			return c.ID, c.Name, true
		}
	case TabSearch:
		if r, ok := m.results.SelectedItem().(domain.SearchResult); ok && r.EntityType == domain.EntityCharacter {
			return r.EntityID, r.GetTitle(), true
		}
	}
	return 0, "", false
}

// selectedLocationID returns the location an adventure would be set in
func (m Model) selectedLocationID() (int, string, bool) {
	switch m.ActiveTab {
	case TabLocations:
		if l, ok := m.locations.column.SelectedItem().(domain.LocationDetail); ok {
			return l.ID, l.Name, true
		}
	case TabSearch:
		if r, ok := m.results.SelectedItem().(domain.SearchResult); ok && r.EntityType == domain.EntityLocation {
			return r.EntityID, r.GetTitle(), true
		}
	}
	return 0, "", false
}

func searchItems(resp *domain.SearchResponse) []domain.ListItem {
	if resp == nil {
		return nil
	}
	items := make([]domain.ListItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = r
	}
	return items
}

// selectedNote returns the note under the cursor when the notes column is focused
func (m Model) selectedNote() (domain.Note, bool) {
	if m.ActiveTab != TabCharacters || !m.notesFocused || m.notes == nil {
		return domain.Note{}, false
	}
	note, ok := m.notes.column.SelectedItem().(domain.Note)
	return note, ok
}
