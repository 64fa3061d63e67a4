package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:    server.URL + "/api/v1",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registerer: prometheus.NewRegistry(),
	})
	return client, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetLocations(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/locations", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("include_residents"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		io.WriteString(w, `{"info":{"count":3,"pages":2,"next":null,"prev":1},
			"results":[{"id":3,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"}]}`)
	})

	page, err := client.GetLocations(context.Background(), 2)
	require.NoError(t, err)

	assert.False(t, page.Info.HasNext())
	require.NotNil(t, page.Info.Prev)
	assert.Equal(t, 1, *page.Info.Prev)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Citadel of Ricks", page.Results[0].Name)
}

func TestGetLocationsWithResidents(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("include_residents"))
		io.WriteString(w, `{"info":{"count":1,"pages":1,"next":2,"prev":null},
			"results":[{"id":1,"name":"Earth","type":"Planet","dimension":"C-137",
			"residents":[{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human","image":""}]}]}`)
	})

	page, err := client.GetLocationsWithResidents(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, page.Info.HasNext())
	require.Len(t, page.Results, 1)
	assert.Equal(t, 1, page.Results[0].ResidentCount())
	assert.Equal(t, "Rick Sanchez", page.Results[0].Residents[0].Name)
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{name: "not found with body", status: 404, body: `{"detail":"Character not found"}`, sentinel: domain.ErrNotFound, message: `API error: 404 {"detail":"Character not found"}`},
		{name: "bad request no body", status: 422, sentinel: domain.ErrBadRequest, message: "API error: 422 Unprocessable Entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.GetCharacter(context.Background(), 999)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.message)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, ClassClient, apiErr.Class)
		})
	}
}

func TestPageErrorDisplaysStatusOnly(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetLocations(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get locations page 2")
	assert.Equal(t, "API error: 500 boom", pager.Message(err, ""))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"info":{"count":0,"pages":0,"next":null,"prev":null},"results":[]}`)
	})

	page, err := client.GetCharacters(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(client.metrics.retries.WithLabelValues("/characters")))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.requests.WithLabelValues("/characters", "200")))
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetCharacters(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerError)
	assert.Equal(t, int32(3), hits.Load(), "one attempt plus two retries")
}

func TestWritesAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateNote(context.Background(), 1, "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNoteCRUD(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/notes/character/1":
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "20", r.URL.Query().Get("offset"))
			io.WriteString(w, `{"notes":[{"id":5,"character_id":1,"content":"hi",
				"created_at":"2024-05-01T10:00:00.123456","updated_at":"2024-05-01T10:00:00Z"}],"total":21}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/notes":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(1), body["character_id"])
			assert.Equal(t, "new", body["content"])
			writeJSON(t, w, domain.Note{ID: 6, CharacterID: 1, Content: "new"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/notes/6":
			writeJSON(t, w, domain.Note{ID: 6, CharacterID: 1, Content: "edited"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/notes/6":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	list, err := client.GetCharacterNotes(ctx, 1, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, list.Total)
	require.Len(t, list.Notes, 1)
	assert.Equal(t, 2024, list.Notes[0].CreatedAt.Year())

	created, err := client.CreateNote(ctx, 1, "new")
	require.NoError(t, err)
	assert.Equal(t, 6, created.ID)

	updated, err := client.UpdateNote(ctx, 6, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	assert.NoError(t, client.DeleteNote(ctx, 6))
}

func TestNotesOmitZeroPaging(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		io.WriteString(w, `{"notes":[],"total":0}`)
	})

	_, err := client.GetCharacterNotes(context.Background(), 1, 0, 0)
	require.NoError(t, err)
}

func TestEvaluateSendsJudgeFlag(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ai/character-backstory/evaluate", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("use_llm_judge"))

		var req domain.EvaluationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "story", req.GeneratedOutput)
		assert.Contains(t, req.Metadata, "character")

		io.WriteString(w, `{"evaluation_metrics":{"length":0.8},
			"llm_judge_metrics":{"creativity":{"score":0.9,"reasoning":"fun"}},
			"generated_output":"story"}`)
	})

	eval, err := client.Evaluate(context.Background(), domain.KindBackstory, domain.EvaluationRequest{
		GeneratedOutput: "story",
		Metadata:        map[string]any{"character": map[string]any{"id": 1}},
	}, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, eval.Metrics["length"], 0.0001)
	assert.Equal(t, "fun", eval.Judge["creativity"].Reasoning)
}

func TestGenerationUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"detail":"Azure OpenAI not configured"}`)
	})

	_, err := client.GenerateBackstory(context.Background(), domain.CharacterDetail{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestServerOffline(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Config{
		BaseURL:    url,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := client.GetLocations(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.True(t, IsOffline(err))
}

func TestContextCancelStopsRetries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetCharacters(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetailRequestsAreShared(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, `{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human",
			"origin":{"name":"Earth (C-137)"},"location":{"name":"Citadel of Ricks"},
			"episode":[{"name":"Pilot","air_date":"December 2, 2013"}]}`)
	})

	var wg sync.WaitGroup
	results := make([]*domain.CharacterDetail, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			char, err := client.GetCharacter(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = char
		}(i)
	}

	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, char := range results {
		require.NotNil(t, char)
		assert.Equal(t, "Rick Sanchez", char.Name)
		assert.Equal(t, "Pilot", char.Episodes[0].Name)
	}
	assert.NotSame(t, results[0], results[1])
}

func TestSharedRequestSurvivesCancelledCaller(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, `{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human","episode":[]}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.GetCharacter(ctx, 1)
		first <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan *domain.CharacterDetail, 1)
	go func() {
		char, err := client.GetCharacter(context.Background(), 1)
		assert.NoError(t, err)
		second <- char
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	char := <-second
	require.NotNil(t, char)
	assert.Equal(t, "Rick Sanchez", char.Name)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "portal gun", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"info":{"query":"portal gun","limit":5,"total_results":1},
			"results":[{"entity_id":1,"entity_type":"character","score":0.93,"entity_data":{"name":"Rick Sanchez"}}]}`)
	})

	resp, err := client.Search(context.Background(), "portal gun", 5)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Rick Sanchez", resp.Results[0].GetTitle())
	assert.Equal(t, domain.EntityCharacter, resp.Results[0].EntityType)
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ai/health", r.URL.Path)
		io.WriteString(w, `{"status":"degraded","azure_openai":false}`)
	})

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.Available())
}
