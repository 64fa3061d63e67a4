package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/portal/internal/domain"
)

// fakeAPI serves two pages of characters, one location and a note store
type fakeAPI struct {
	mu      sync.Mutex
	created []map[string]any
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("include_residents") == "true" {
			io.WriteString(w, `{"info":{"count":1,"pages":1,"next":null,"prev":null},"results":[
				{"id":3,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown",
				 "residents":[{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human"}]}]}`)
			return
		}
		io.WriteString(w, `{"info":{"count":1,"pages":1,"next":null,"prev":null},"results":[
			{"id":3,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"}]}`)
	})

	mux.HandleFunc("GET /api/v1/characters", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "2":
			io.WriteString(w, `{"info":{"count":2,"pages":2,"next":null,"prev":1},"results":[
				{"id":2,"name":"Morty Smith","status":"Alive","species":"Human"}]}`)
		default:
			io.WriteString(w, `{"info":{"count":2,"pages":2,"next":2,"prev":null},"results":[
				{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human"}]}`)
		}
	})

	mux.HandleFunc("GET /api/v1/characters/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human",
			"gender":"Male","origin":{"name":"Earth (C-137)"},"location":{"name":"Citadel of Ricks"},"episode":[]}`)
	})

	mux.HandleFunc("GET /api/v1/characters/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Character not found"}`)
	})

	mux.HandleFunc("GET /api/v1/notes/character/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"notes":[{"id":10,"character_id":1,"content":"Drinks a lot"}],"total":1}`)
	})

	mux.HandleFunc("POST /api/v1/notes", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		id := 10 + len(f.created)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":%d,"character_id":%v,"content":%q}`, id, body["character_id"], body["content"])
	})

	mux.HandleFunc("GET /api/v1/ai/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"detail":"AI service not configured"}`)
	})

	mux.HandleFunc("POST /api/v1/ai/character-backstory/generate", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"generated_content":"Rick was born in a garage."}`)
	})

	return mux
}

func (f *fakeAPI) createdNotes() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

// testEnv writes a config pointing at a fake server and temp storage
type testEnv struct {
	api        *fakeAPI
	configFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &fakeAPI{}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	config := fmt.Sprintf(`api:
  base_url: %s/api/v1
  max_retries: 0
history:
  path: %s
logging:
  file: %s
`, server.URL, filepath.Join(dir, "history"), filepath.Join(dir, "portal.log"))

	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(config), 0o600))

	return &testEnv{api: api, configFile: configFile}
}

// run executes one CLI invocation and returns stdout and stderr
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd, g := newRootCmd("test")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configFile}, args...))

	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, g.teardown())
	return stdout.String(), stderr.String(), err
}

func TestLocationsTable(t *testing.T) {
	env := newTestEnv(t)

	out, errOut, err := env.run(t, "locations")
	require.NoError(t, err)

	assert.Contains(t, out, "Citadel of Ricks")
	assert.Contains(t, out, "Space station")
	assert.Contains(t, errOut, "page 1 of 1 (1 total)")
}

func TestLocationsWithResidents(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "locations", "--residents")
	require.NoError(t, err)
	assert.Contains(t, out, "1: Rick Sanchez")
}

func TestCharactersAllAsJSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "characters", "--all", "-o", "json")
	require.NoError(t, err)

	var chars []domain.Character
	require.NoError(t, json.Unmarshal([]byte(out), &chars))
	require.Len(t, chars, 2)
	assert.Equal(t, "Rick Sanchez", chars[0].Name)
	assert.Equal(t, "Morty Smith", chars[1].Name)
}

func TestCharactersPageAsYAML(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "characters", "--page", "2", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Morty Smith")
	assert.Contains(t, out, "prev: 1")
}

func TestCharacterShowsNotes(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "character", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Rick Sanchez (#1)")
	assert.Contains(t, out, "Earth (C-137)")
	assert.Contains(t, out, "Notes (1 of 1)")
	assert.Contains(t, out, "Drinks a lot")
}

func TestCharacterNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "character", "404")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvalidArguments(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "character", "abc")
	assert.ErrorContains(t, err, "invalid id")

	_, _, err = env.run(t, "locations", "--page", "0")
	assert.ErrorContains(t, err, "--page must be >= 1")

	_, _, err = env.run(t, "locations", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestNotesAdd(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "notes", "add", "1", "Has", "a", "portal", "gun")
	require.NoError(t, err)
	assert.Contains(t, out, "Added note 11 for character 1")

	created := env.api.createdNotes()
	require.Len(t, created, 1)
	assert.Equal(t, "Has a portal gun", created[0]["content"])
	assert.EqualValues(t, 1, created[0]["character_id"])
}

func TestSearchFallsBackToLocalNames(t *testing.T) {
	env := newTestEnv(t)

	out, errOut, err := env.run(t, "search", "morty")
	require.NoError(t, err)

	assert.Contains(t, errOut, "ranking names locally")
	assert.Contains(t, out, "Morty Smith")
	assert.NotContains(t, out, "Citadel of Ricks")
}

func TestGenerateSaveAndHistory(t *testing.T) {
	env := newTestEnv(t)

	out, errOut, err := env.run(t, "generate", "backstory", "1", "--save", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Saved as note 11")

	var entry domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, domain.KindBackstory, entry.Kind)
	assert.Equal(t, "Rick Sanchez", entry.SubjectName)
	assert.True(t, entry.SavedToNote)

	// History persists across invocations
	out, _, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, entry.ID)
	assert.Contains(t, out, "saved")

	out, _, err = env.run(t, "history", "show", entry.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "# Character backstory: Rick Sanchez")
	assert.Contains(t, out, "Rick was born in a garage.")

	// A backstory is saved at most once
	_, _, err = env.run(t, "history", "save", entry.ID)
	assert.ErrorContains(t, err, "already saved")
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "config", "show", "-o", "json")
	require.NoError(t, err)

	var settings map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.True(t, strings.HasSuffix(settings["api"]["base_url"].(string), "/api/v1"))
	assert.EqualValues(t, 0, settings["api"]["max_retries"])
	assert.EqualValues(t, 5, settings["search"]["limit"])
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--dir", dir})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	cmd = NewRootCmd("test")
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"config", "init", "--dir", dir})
	assert.ErrorContains(t, cmd.Execute(), "already exists")
}

func TestVersion(t *testing.T) {
	cmd := NewRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "portal 1.2.3\n", out.String())
}
