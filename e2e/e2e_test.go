//go:build integration

package e2e_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/adamwoolhether/llnw/client"
	"github.com/adamwoolhether/llnw/client/metrics"
	"github.com/adamwoolhether/llnw/verify"
)

// -------------------------------------------------------------------------
// Types
// -------------------------------------------------------------------------

type thing struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// store is a minimal in-memory API guarded by the verify middleware.
type store struct {
	mu     sync.Mutex
	nextID int
	things map[int]thing
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func newTestAPI(t *testing.T) string {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	v, err := verify.New(verify.StaticKeys{"alice": "deadbeef"}, verify.WithLogger(log))
	if err != nil {
		t.Fatalf("creating verifier: %v", err)
	}

	s := &store{nextID: 1, things: make(map[int]thing)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /svc/v1/things", s.list)
	mux.HandleFunc("POST /svc/v1/things", s.create)
	mux.HandleFunc("GET /svc/v1/things/{id}", s.get)
	mux.HandleFunc("PUT /svc/v1/things/{id}", s.update)
	mux.HandleFunc("DELETE /svc/v1/things/{id}", s.remove)

	srv := httptest.NewServer(v.Middleware(mux))
	t.Cleanup(srv.Close)

	return srv.URL
}

func newClient(t *testing.T, serverURL string, mutate func(*client.Config), opts ...client.Option) *client.Client {
	t.Helper()

	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}

	cfg := client.Config{Host: u.Host, Name: "svc", Version: "1", User: "alice", APIKey: "deadbeef"}
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := client.Build(cfg, opts...)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return c
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// -------------------------------------------------------------------------
// Handlers
// -------------------------------------------------------------------------

func (s *store) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.URL.Query().Get("name")
	out := []thing{}
	for id := 1; id < s.nextID; id++ {
		th, ok := s.things[id]
		if ok && (name == "" || th.Name == name) {
			out = append(out, th)
		}
	}

	respond(w, http.StatusOK, out)
}

func (s *store) create(w http.ResponseWriter, r *http.Request) {
	var th thing
	if err := json.NewDecoder(r.Body).Decode(&th); err != nil {
		respond(w, http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	s.mu.Lock()
	th.ID = s.nextID
	s.nextID++
	s.things[th.ID] = th
	s.mu.Unlock()

	respond(w, http.StatusCreated, th)
}

func (s *store) lookup(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respond(w, http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: "id must be integer"})
		return 0, false
	}

	if _, ok := s.things[id]; !ok {
		respond(w, http.StatusNotFound, apiError{Code: http.StatusNotFound, Message: fmt.Sprintf("thing %d not found", id)})
		return 0, false
	}

	return id, true
}

func (s *store) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.lookup(w, r)
	if !ok {
		return
	}

	respond(w, http.StatusOK, s.things[id])
}

func (s *store) update(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		respond(w, http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.lookup(w, r)
	if !ok {
		return
	}

	th := thing{ID: id, Name: string(b)}
	s.things[id] = th

	respond(w, http.StatusOK, th)
}

func (s *store) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.lookup(w, r)
	if !ok {
		return
	}

	delete(s.things, id)
	respond(w, http.StatusNoContent, nil)
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_Lifecycle(t *testing.T) {
	baseURL := newTestAPI(t)
	c := newClient(t, baseURL, nil)
	ctx := t.Context()

	resp, err := c.Execute(ctx, client.Params{Endpoint: "things", Method: http.MethodPost, Body: `{"name":"widget"}`}).Get()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var created thing
	if err := resp.Decode(&created); err != nil {
		t.Fatalf("decoding created: %v", err)
	}
	if created.ID != 1 || created.Name != "widget" {
		t.Fatalf("created = %+v", created)
	}

	endpoint := "things/" + strconv.Itoa(created.ID)

	if _, err := c.Execute(ctx, client.Params{Endpoint: endpoint, Method: http.MethodPut, Body: "gadget"}).Get(); err != nil {
		t.Fatalf("update: %v", err)
	}

	resp, err = c.Execute(ctx, client.Params{Endpoint: "things", Query: url.Values{"name": {"gadget"}}}).Get()
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var listed []thing
	if err := resp.Decode(&listed); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if diff := cmp.Diff([]thing{{ID: 1, Name: "gadget"}}, listed); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Execute(ctx, client.Params{Endpoint: endpoint, Method: http.MethodDelete}).Get(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = c.Execute(ctx, client.Params{Endpoint: endpoint}).Get()

	var serr *client.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StatusError after delete, got: %v", err)
	}
	if serr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", serr.StatusCode)
	}
	want := map[string]any{"code": float64(404), "message": "thing 1 not found"}
	if diff := cmp.Diff(want, serr.Body); diff != "" {
		t.Errorf("error body mismatch (-want +got):\n%s", diff)
	}
}

func TestE2E_WrongCredentials(t *testing.T) {
	baseURL := newTestAPI(t)
	c := newClient(t, baseURL, func(cfg *client.Config) { cfg.User = "mallory" })

	_, err := c.Execute(t.Context(), client.Params{Endpoint: "things"}).Get()
	if !errors.Is(err, client.ErrAuthFailure) {
		t.Fatalf("expected ErrAuthFailure, got: %v", err)
	}
}

func TestE2E_DryRunNeverReachesServer(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *client.Config) { cfg.DryRun = true })

	resp, err := c.Execute(t.Context(), client.Params{Endpoint: "things", Method: http.MethodPost, Body: "x"}).Get()
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if resp.Request.Body != "x" {
		t.Errorf("descriptor body = %q", resp.Request.Body)
	}
	if hits != 0 {
		t.Errorf("server was hit %d times during dry run", hits)
	}
}

func TestE2E_ConcurrentCallsWithMetrics(t *testing.T) {
	baseURL := newTestAPI(t)

	registry := prometheus.NewRegistry()
	c := newClient(t, baseURL, nil, client.WithMetrics(metrics.NewCollectorWithRegistry(registry)))

	const total = 10
	params := make([]client.Params, total)
	for i := range params {
		params[i] = client.Params{Endpoint: "things", Method: http.MethodPost, Body: fmt.Sprintf(`{"name":"n%d"}`, i)}
	}

	g := c.ExecuteAll(t.Context(), params...)
	if err := g.Wait(); err != nil {
		t.Fatalf("batch: %v", err)
	}

	ids := make(map[float64]bool)
	for _, f := range g.Futures() {
		resp, _ := f.Get()
		ids[resp.Body.(map[string]any)["id"].(float64)] = true
	}
	if len(ids) != total {
		t.Errorf("expected %d distinct ids, got %d", total, len(ids))
	}

	count, err := testutil.GatherAndCount(registry, "llnw_requests_total")
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	if count != 1 {
		t.Errorf("llnw_requests_total series = %d, want 1", count)
	}
}
