package api

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petrovrp/internal/auth"
	"petrovrp/internal/broker"
	"petrovrp/internal/config"
	"petrovrp/internal/metrics"
	"petrovrp/internal/model"
	"petrovrp/internal/service"
	"petrovrp/internal/store"
)

const validConfig = `{"name":"api_easy","seed":3,"n_garages":2,"n_depots":2,"n_stations":6,
"truck_capacity":15000,"zone_size":50,"demand_range":{"min":2000,"max":5000},"difficulty":"easy"}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	metrics.RegisterDefault()
	b := broker.NewMemory()
	return &Server{
		Instances: &service.Instances{Store: store.NewMemory(), Broker: b, Parallelism: 2},
		Broker:    b,
		Settings:  config.Settings{Store: config.StoreMemory, RateLimit: 0},
	}
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthReady(t *testing.T) {
	h := newTestServer(t).Handler()
	rr := do(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version"`)
	assert.NotEmpty(t, rr.Header().Get(headerRequestID))

	rr = do(t, h, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyReportsDependency(t *testing.T) {
	s := newTestServer(t)
	s.Ready = map[string]Pinger{"postgres": downPinger{}}
	rr := do(t, s.Handler(), http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "postgres: connection refused")
}

func TestCreateGetListInstance(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := do(t, h, http.MethodPost, "/v1/instances", "application/json", validConfig)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created service.Result
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/v1/instances/"+created.ID, rr.Header().Get("Location"))
	assert.Len(t, created.Instance.Stations, 6)
	assert.Equal(t, created.ID, created.Instance.Metadata.ID)

	rr = do(t, h, http.MethodGet, "/v1/instances/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var inst model.Instance
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &inst))
	assert.Equal(t, created.Instance.Statistics, inst.Statistics)

	rr = do(t, h, http.MethodGet, "/v1/instances?limit=10", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Items      []model.Summary `json:"items"`
		NextCursor string          `json:"nextCursor"`
	}
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "api_easy", page.Items[0].Name)
	assert.Empty(t, page.NextCursor)
}

func TestCreateInstanceRejectsBadInput(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := do(t, h, http.MethodPost, "/v1/instances", "application/json", `{"n_garages":-1,"difficulty":"easy"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "n_garages must be >= 1")

	rr = do(t, h, http.MethodPost, "/v1/instances", "application/json", `{"n_trucks":3}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/instances", "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUnknownInstance(t *testing.T) {
	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/v1/instances/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListRejectsBadLimit(t *testing.T) {
	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/v1/instances?limit=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateBatchYAML(t *testing.T) {
	h := newTestServer(t).Handler()
	var buf bytes.Buffer
	require.NoError(t, config.WriteBatch(&buf, config.DefaultBatch()))

	rr := do(t, h, http.MethodPost, "/v1/batches", "application/yaml", buf.String())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out struct {
		Items []service.Result `json:"items"`
	}
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Items, 5)
	assert.Equal(t, "easy_1", out.Items[0].Instance.Metadata.Name)
	assert.Equal(t, "hard_1", out.Items[4].Instance.Metadata.Name)
	assert.Equal(t, config.DefaultSeed+4, out.Items[4].Instance.Metadata.Seed)
}

func TestCreateBatchJSONEmpty(t *testing.T) {
	rr := do(t, newTestServer(t).Handler(), http.MethodPost, "/v1/batches", "application/json", `{"seed":1,"instances":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDifficulties(t *testing.T) {
	rr := do(t, newTestServer(t).Handler(), http.MethodGet, "/v1/difficulties", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `"name":"medium"`)
	assert.Contains(t, body, `"margin":1.1`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.Settings.RateLimit = 0.001
	s.Settings.RateBurst = 1
	h := s.Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/difficulties", "", "").Code)
	rr := do(t, h, http.MethodGet, "/v1/difficulties", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", "").Code)
}

func TestMetricsAndDocs(t *testing.T) {
	h := newTestServer(t).Handler()
	do(t, h, http.MethodGet, "/v1/difficulties", "", "")
	rr := do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",path="/v1/difficulties",status="200"}`)

	rr = do(t, h, http.MethodGet, "/openapi.json", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"/v1/instances"`)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/openapi.yaml", "", "").Code)
}

func TestEventsStream(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: heartbeat", lines.Text())

	post, err := http.Post(srv.URL+"/v1/instances", "application/json", strings.NewReader(validConfig))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	for lines.Scan() {
		if lines.Text() == "event: instance.generated" {
			require.True(t, lines.Scan())
			assert.Contains(t, lines.Text(), `"name":"api_easy"`)
			return
		}
	}
	t.Fatalf("stream ended without instance event: %v", lines.Err())
}

func TestWriteEndpointsRequireToken(t *testing.T) {
	s := newTestServer(t)
	v, err := auth.NewVerifier(auth.ModeHMAC, "k")
	require.NoError(t, err)
	s.Auth = v
	h := s.Handler()

	rr := do(t, h, http.MethodPost, "/v1/instances", "application/json", validConfig)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tok, err := v.Sign("ci", "generator")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/instances", strings.NewReader(validConfig))
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/instances", "", "").Code)
}
