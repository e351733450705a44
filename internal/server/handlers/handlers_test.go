package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/astronauts/internal/server/cache"
	"github.com/agentstation/astronauts/internal/server/events"
	"github.com/agentstation/astronauts/internal/server/sse"
	ws "github.com/agentstation/astronauts/internal/server/websocket"
	"github.com/agentstation/astronauts/internal/store"
	"github.com/agentstation/astronauts/pkg/astronauts"
	"github.com/agentstation/astronauts/pkg/logging"
)

type envelope struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

type published struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *published) Publish(t events.EventType, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, t)
}

func (p *published) Stats() events.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return events.Stats{Published: uint64(len(p.events))}
}

func newTestHandlers(t *testing.T) (*Handlers, *store.Store, *published) {
	t.Helper()
	st, err := store.NewFromFixtures()
	require.NoError(t, err)

	logger := logging.NewNopLogger()
	pub := &published{}
	h := New(
		st,
		cache.New(time.Minute, time.Minute),
		ws.NewHub(logger),
		sse.NewBroadcaster(logger),
		websocket.Upgrader{},
		logger,
		pub,
		"test",
		time.Now().Add(-90*time.Second),
	)
	return h, st, pub
}

// serve runs handler with the given path values and decodes the envelope.
func serve(t *testing.T, handler http.HandlerFunc, method, target, body string, pathValues map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	w := httptest.NewRecorder()
	handler(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func decodePayload[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

func TestHandleListAstronauts(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	w, env := serve(t, h.HandleListAstronauts, http.MethodGet, "/astronauts", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, env.Success)
	assert.Equal(t, st.List(), decodePayload[[]astronauts.Astronaut](t, env))
}

func TestHandleListAstronauts_ReflectsMutations(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	_, env := serve(t, h.HandleListAstronauts, http.MethodGet, "/astronauts", "", nil)
	before := decodePayload[[]astronauts.Astronaut](t, env)

	_, err := st.Create(astronauts.Astronaut{ID: "9999", FirstName: "Nilly"})
	require.NoError(t, err)

	_, env = serve(t, h.HandleListAstronauts, http.MethodGet, "/astronauts", "", nil)
	after := decodePayload[[]astronauts.Astronaut](t, env)

	assert.Len(t, after, len(before)+1)
	assert.Equal(t, "9999", after[len(after)-1].ID)
}

func TestHandleGetAstronaut(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	t.Run("found", func(t *testing.T) {
		w, env := serve(t, h.HandleGetAstronaut, http.MethodGet, "/astronauts/1111", "", map[string]string{"id": "1111"})

		want, _ := st.Get("1111")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		got := decodePayload[astronauts.Astronaut](t, env)
		assert.Equal(t, want, got)
		assert.Equal(t, "Curtis", got.FirstName)
	})

	t.Run("missing", func(t *testing.T) {
		w, env := serve(t, h.HandleGetAstronaut, http.MethodGet, "/astronauts/nope", "", map[string]string{"id": "nope"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "astronaut with ID nope not found", decodePayload[string](t, env))
	})
}

const nillyJSON = `{
	"id": "9999",
	"firstName": "Nilly",
	"lastName": "Vanilly",
	"rank": "",
	"suitSize": "XXL",
	"helmetSize": "XXS",
	"specialSkill": "",
	"dob": "",
	"missions": [
		{"title": "", "dates": {"start": "", "finish": ""}, "extravehicularActivities": 5}
	]
}`

func TestHandleCreateAstronaut(t *testing.T) {
	h, st, pub := newTestHandlers(t)
	var created []string
	st.OnCreated(func(a astronauts.Astronaut) { created = append(created, a.ID) })
	before := st.Len()

	w, env := serve(t, h.HandleCreateAstronaut, http.MethodPost, "/astronauts", nillyJSON, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, nillyJSON, string(env.Payload))
	assert.Equal(t, before+1, st.Len())
	assert.Equal(t, []string{"9999"}, created)
	assert.Empty(t, pub.events, "store events are published by the server, not handlers")

	t.Run("duplicate", func(t *testing.T) {
		w, env := serve(t, h.HandleCreateAstronaut, http.MethodPost, "/astronauts", nillyJSON, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "astronaut with ID 9999 already exists", decodePayload[string](t, env))
		assert.Equal(t, before+1, st.Len())
	})
}

func TestHandleCreateAstronaut_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"id": "1", `},
		{"not an object", `["1111"]`},
		{"wrong field type", `{"id": 42}`},
		{"missing id", `{"firstName": "Nobody"}`},
		{"blank id", `{"id": "  "}`},
		{"negative eva count", `{"id": "5", "missions": [{"extravehicularActivities": -1}]}`},
		{"trailing data", `{"id": "5"} {"id": "6"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, st, _ := newTestHandlers(t)
			before := st.Len()

			w, env := serve(t, h.HandleCreateAstronaut, http.MethodPost, "/astronauts", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, decodePayload[string](t, env))
			assert.Equal(t, before, st.Len())
		})
	}
}

func TestHandleReplaceAstronaut(t *testing.T) {
	putJSON := `{
		"id": "1111",
		"firstName": "Curtis",
		"lastName": "Mongoose",
		"rank": "",
		"suitSize": "XXL",
		"helmetSize": "XXS",
		"specialSkill": "",
		"dob": "",
		"missions": [{"title": "", "dates": {"start": "", "finish": ""}, "extravehicularActivities": 5}]
	}`

	t.Run("replaces", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)

		w, env := serve(t, h.HandleReplaceAstronaut, http.MethodPut, "/astronauts/1111", putJSON, map[string]string{"id": "1111"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, putJSON, string(env.Payload))
		got, _ := st.Get("1111")
		assert.Equal(t, "Mongoose", got.LastName)
	})

	t.Run("body without id takes path id", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)

		w, env := serve(t, h.HandleReplaceAstronaut, http.MethodPut, "/astronauts/1112", `{"firstName": "Solo"}`, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodePayload[astronauts.Astronaut](t, env)
		assert.Equal(t, "1112", got.ID)
		assert.Equal(t, "Solo", got.FirstName)
		assert.Empty(t, got.LastName, "replace overwrites unspecified fields")
		assert.Equal(t, []astronauts.Mission{}, got.Missions)

		stored, _ := st.Get("1112")
		assert.Equal(t, got, stored)
	})

	t.Run("id mismatch", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)
		original, _ := st.Get("1112")

		w, env := serve(t, h.HandleReplaceAstronaut, http.MethodPut, "/astronauts/1112", putJSON, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		stored, _ := st.Get("1112")
		assert.Equal(t, original, stored)
	})

	t.Run("missing", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)
		before := st.Len()

		w, env := serve(t, h.HandleReplaceAstronaut, http.MethodPut, "/astronauts/4242", `{"firstName": "Ghost"}`, map[string]string{"id": "4242"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, before, st.Len(), "replace never creates")
	})

	t.Run("malformed", func(t *testing.T) {
		h, _, _ := newTestHandlers(t)

		w, _ := serve(t, h.HandleReplaceAstronaut, http.MethodPut, "/astronauts/1111", `{`, map[string]string{"id": "1111"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleUpdateAstronaut(t *testing.T) {
	t.Run("merges supplied fields", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)
		original, _ := st.Get("1112")

		w, env := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/1112", `{"firstName": "Zainab"}`, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)

		want := original
		want.FirstName = "Zainab"
		assert.Equal(t, want, decodePayload[astronauts.Astronaut](t, env))

		stored, _ := st.Get("1112")
		assert.Equal(t, want, stored)
	})

	t.Run("same id allowed", func(t *testing.T) {
		h, _, _ := newTestHandlers(t)

		w, _ := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/1112", `{"id": "1112", "rank": "Captain"}`, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("different id rejected", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)

		w, env := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/1112", `{"id": "2000"}`, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		_, ok := st.Get("2000")
		assert.False(t, ok)
	})

	t.Run("null field rejected", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)
		original, _ := st.Get("1112")
		rev := st.Revision()

		w, env := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/1112", `{"firstName": null, "rank": "Captain"}`, map[string]string{"id": "1112"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Contains(t, decodePayload[string](t, env), "firstName")

		stored, _ := st.Get("1112")
		assert.Equal(t, original, stored)
		assert.Equal(t, rev, st.Revision())
	})

	t.Run("missing", func(t *testing.T) {
		h, _, _ := newTestHandlers(t)

		w, env := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/4242", `{"firstName": "Ghost"}`, map[string]string{"id": "4242"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("empty patch returns record unchanged", func(t *testing.T) {
		h, st, _ := newTestHandlers(t)
		original, _ := st.Get("1113")

		w, env := serve(t, h.HandleUpdateAstronaut, http.MethodPatch, "/astronauts/1113", `{}`, map[string]string{"id": "1113"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, original, decodePayload[astronauts.Astronaut](t, env))
	})
}

func TestHandleDeleteAstronaut(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	toDelete := astronauts.Astronaut{
		ID:         "7777",
		FirstName:  "Gemini",
		LastName:   "Harris",
		SuitSize:   "XXL",
		HelmetSize: "XXS",
		Missions:   []astronauts.Mission{{ExtravehicularActivities: 5}},
	}
	created, err := st.Create(toDelete)
	require.NoError(t, err)
	before := st.Len()

	w, env := serve(t, h.HandleDeleteAstronaut, http.MethodDelete, "/astronauts/7777", "", map[string]string{"id": "7777"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, created, decodePayload[astronauts.Astronaut](t, env))
	assert.Equal(t, before-1, st.Len())

	w, env = serve(t, h.HandleGetAstronaut, http.MethodGet, "/astronauts/7777", "", map[string]string{"id": "7777"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)

	w, _ = serve(t, h.HandleDeleteAstronaut, http.MethodDelete, "/astronauts/7777", "", map[string]string{"id": "7777"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSearchAstronauts(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	w, env := serve(t, h.HandleSearchAstronauts, http.MethodGet, "/astronauts/search/Gary", "", map[string]string{"name": "Gary"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	got := decodePayload[[]astronauts.Astronaut](t, env)
	assert.Equal(t, st.SearchByName("gary"), got)
	require.NotEmpty(t, got)
	for _, a := range got {
		name := strings.ToLower(a.FirstName + " " + a.LastName)
		assert.Contains(t, name, "gary")
	}

	t.Run("case insensitive", func(t *testing.T) {
		_, upper := serve(t, h.HandleSearchAstronauts, http.MethodGet, "/astronauts/search/GARY", "", map[string]string{"name": "GARY"})
		assert.JSONEq(t, string(env.Payload), string(upper.Payload))
	})

	t.Run("no match is empty array", func(t *testing.T) {
		w, env := serve(t, h.HandleSearchAstronauts, http.MethodGet, "/astronauts/search/zzz", "", map[string]string{"name": "zzz"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "[]", string(env.Payload))
	})

	t.Run("distinct names add no cache entries", func(t *testing.T) {
		before := h.cache.ItemCount()
		for _, name := range []string{"a", "b", "c", "gar", "zz"} {
			serve(t, h.HandleSearchAstronauts, http.MethodGet, "/astronauts/search/"+name, "", map[string]string{"name": name})
		}
		assert.Equal(t, before, h.cache.ItemCount())
	})

	t.Run("reflects new records", func(t *testing.T) {
		_, err := st.Create(astronauts.Astronaut{ID: "8888", FirstName: "Garys", LastName: "Newcomer"})
		require.NoError(t, err)

		_, env := serve(t, h.HandleSearchAstronauts, http.MethodGet, "/astronauts/search/Gary", "", map[string]string{"name": "Gary"})
		after := decodePayload[[]astronauts.Astronaut](t, env)
		assert.Len(t, after, len(got)+1)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	w, env := serve(t, MethodNotAllowed("GET", "POST"), http.MethodTrace, "/astronauts", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
	assert.False(t, env.Success)
}

func TestHandleNotFound(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	w, env := serve(t, h.HandleNotFound, http.MethodGet, "/cosmonauts", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route GET /cosmonauts not found", decodePayload[string](t, env))
}

func TestHandleHealthAndReady(t *testing.T) {
	h, st, _ := newTestHandlers(t)

	w, env := serve(t, h.HandleHealth, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	health := decodePayload[map[string]any](t, env)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["version"])
	assert.NotEmpty(t, health["startedAt"])
	assert.GreaterOrEqual(t, health["uptimeSeconds"], float64(90))

	w, env = serve(t, h.HandleReady, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ready := decodePayload[map[string]any](t, env)
	assert.Equal(t, "ready", ready["status"])
	assert.Equal(t, float64(st.Len()), ready["records"])
	assert.Equal(t, map[string]any{"subscribers": float64(0), "published": float64(0), "dropped": float64(0)}, ready["events"])

	unready := New(nil, nil, nil, nil, websocket.Upgrader{}, nil, nil, "test", time.Time{})
	w, env = serve(t, unready.HandleReady, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
}
