package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/model"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/service"
)

type fakeRunner struct {
	family string
	window service.Window
	err    error
}

func (f *fakeRunner) Run(_ context.Context, family string, w service.Window) (*service.Summary, error) {
	f.family, f.window = family, w
	switch family {
	case "nope":
		return nil, service.ErrUnknownFamily
	case "busy":
		return nil, service.ErrFamilyBusy
	}
	return &service.Summary{Family: family, Dates: 1, Success: 1}, f.err
}

func (f *fakeRunner) RunAll(_ context.Context, families []string, w service.Window) ([]*service.Summary, error) {
	f.window = w
	out := make([]*service.Summary, 0, len(families))
	for _, fam := range families {
		out = append(out, &service.Summary{Family: fam})
	}
	return out, nil
}

func (f *fakeRunner) DefaultWindow() service.Window {
	return service.Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-09")}
}

type fakeSyncer struct {
	got map[string]mirror.SyncOptions
}

func (f *fakeSyncer) SyncMultipleTables(_ context.Context, tables map[string]mirror.SyncOptions) map[string]mirror.TableResult {
	f.got = tables
	out := map[string]mirror.TableResult{}
	for t := range tables {
		out[t] = mirror.TableResult{Status: mirror.StatusSuccess, Count: 3}
	}
	return out
}

type fakeRunLogs struct{}

func (fakeRunLogs) ListByRun(_ context.Context, runID string) ([]*model.RunLog, error) {
	if runID == "r1" {
		return []*model.RunLog{{ID: 1, RunID: "r1", Family: consts.FamilyIndex, Status: consts.StatusSuccess}}, nil
	}
	return nil, nil
}

func (fakeRunLogs) ListRecent(_ context.Context, family string, limit int) ([]*model.RunLog, error) {
	if limit == 0 {
		return nil, errors.New("limit required")
	}
	return []*model.RunLog{{ID: 2, Family: family}}, nil
}

func newServer(t *testing.T, c *Controller) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	require.NoError(t, c.Register(r))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRunFamilyRoutes(t *testing.T) {
	runner := &fakeRunner{}
	srv := newServer(t, &Controller{Runner: runner})

	code, body := do(t, http.MethodPost, srv.URL+"/api/v1/run/index?start=20250102", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "index", runner.family)
	assert.Equal(t, calendar.MustParse("2025-01-02"), runner.window.Start)
	assert.Equal(t, calendar.MustParse("2025-01-09"), runner.window.End)
	assert.Equal(t, "index", body["data"].(map[string]any)["family"])

	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/run/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/run/busy", "")
	assert.Equal(t, http.StatusConflict, code)
	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/run/index?end=garbage", "")
	assert.Equal(t, http.StatusBadRequest, code)

	runner.err = errors.New("2025-01-09: boom")
	code, body = do(t, http.MethodPost, srv.URL+"/api/v1/run/index", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2025-01-09: boom", body["error"])
}

func TestRunAllPassesFamilies(t *testing.T) {
	srv := newServer(t, &Controller{Runner: &fakeRunner{}})
	code, body := do(t, http.MethodPost, srv.URL+"/api/v1/run?family=stock&family=index", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)
}

func TestSyncDefaultsAndBody(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := newServer(t, &Controller{Syncer: syncer, DefaultTables: []string{"st_stock", "specialday"}})

	code, body := do(t, http.MethodPost, srv.URL+"/api/v1/sync", "")
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, syncer.got, 2)
	assert.True(t, syncer.got["st_stock"].Truncate)
	assert.Equal(t, "success", body["data"].(map[string]any)["specialday"].(map[string]any)["status"])

	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/sync", `{"tables":["stockuniverse"],"truncate":false,"filters":{"stockuniverse":[{"column":"valuation_date","op":">=","value":"2025-01-01"}]}}`)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, syncer.got, 1)
	got := syncer.got["stockuniverse"]
	assert.False(t, got.Truncate)
	assert.Empty(t, got.Where)
	assert.Equal(t, []mirror.Filter{{Column: "valuation_date", Op: ">=", Value: "2025-01-01"}}, got.Filters)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/sync", `{"tables":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSyncRejectsRawSQL(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := newServer(t, &Controller{Syncer: syncer})

	code, _ := do(t, http.MethodPost, srv.URL+"/api/v1/sync", `{"tables":["st_stock"],"where":{"st_stock":"1=1 OR SLEEP(10)"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/sync", `{"tables":["st_stock"],"filters":{"st_stock":[{"column":"code","op":"or 1=1 --","value":"x"}]}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, syncer.got)
}

func TestRunLogRoutes(t *testing.T) {
	srv := newServer(t, &Controller{RunLogs: fakeRunLogs{}})

	code, body := do(t, http.MethodGet, srv.URL+"/api/v1/runs/r1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
	code, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs?family=index&limit=5", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs", "")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestMetricsAndUnmountedRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })
	srv := newServer(t, &Controller{Metrics: metrics})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, _ := do(t, http.MethodPost, srv.URL+"/api/v1/sync", "")
	assert.Equal(t, http.StatusNotFound, code)
}
