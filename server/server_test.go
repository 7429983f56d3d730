package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/protocol"
	"github.com/neritic/functiond/services/kafka"
)

// fakeEngine is an executor.Executor that replays a scripted result.
type fakeEngine struct {
	metric   models.ExecutionMetric
	err      error
	runtimes []string
}

func (f *fakeEngine) Run(ctx context.Context, fn models.Function, runtime string) (models.ExecutionMetric, error) {
	f.runtimes = append(f.runtimes, runtime)
	if f.err != nil {
		return models.ExecutionMetric{}, f.err
	}
	m := f.metric
	if runtime == "" {
		runtime = fn.Runtime
	}
	m.FunctionGUID = fn.GUID
	m.FunctionName = fn.Name
	m.Runtime = runtime
	return m, nil
}

func (f *fakeEngine) Startup(ctx context.Context) error { return nil }
func (f *fakeEngine) Shutdown(ctx context.Context)      {}

var _ executor.Executor = (*fakeEngine)(nil)

func newTestServer(t *testing.T, engine executor.Executor) *AppServer {
	t.Helper()
	conf := config.ServerSettingsConfiguration{
		ListenPort:     "0",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	app, err := NewAppServer(conf)
	require.NoError(t, err)
	t.Cleanup(app.Tracker.Stop)

	d, _, err := dao.NewDataAccessLayer(
		config.DatabaseConfiguration{Driver: "sqlite", Path: ":memory:"},
		dao.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	app.RootDAO = d
	app.Engine = engine
	app.EventQueue = kafka.NewFakeAsyncProducer(zap.NewNop())
	return app
}

func doRequest(app *AppServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

func createTestFunction(t *testing.T, app *AppServer, name string) string {
	t.Helper()
	w := doRequest(app, "POST", "/functions", protocol.CreateFunctionRequest{
		Name:     name,
		Language: "python",
		Timeout:  5,
		Code:     `print("hello world")`,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp protocol.CreatedFunctionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.ID, 32)
	return resp.ID
}

func TestCreateAndGetFunction(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "GET", "/functions/"+guid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fn protocol.Function
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fn))
	assert.Equal(t, "hello", fn.Name)
	assert.Equal(t, "/hello", fn.Route)
	assert.Equal(t, "python", fn.Language)
	assert.Equal(t, "runc", fn.Runtime, "runtime defaults to runc")
	assert.NotEmpty(t, fn.ChangeToken)
}

func TestCreateFunctionValidation(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})

	w := doRequest(app, "POST", "/functions", protocol.CreateFunctionRequest{
		Name: "bad", Language: "ruby", Code: "puts 1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(app, "POST", "/functions", protocol.CreateFunctionRequest{
		Language: "python", Code: "print(1)",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "name is required")
}

func TestCreateFunctionRouteConflict(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	createTestFunction(t, app, "hello")

	w := doRequest(app, "POST", "/functions", protocol.CreateFunctionRequest{
		Name:     "hello",
		Language: "node",
		Timeout:  5,
		Code:     `console.log("hello")`,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestListFunctionsPaging(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	for i := 0; i < 3; i++ {
		createTestFunction(t, app, fmt.Sprintf("fn-%d", i))
	}

	w := doRequest(app, "GET", "/functions?pageSize=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rs protocol.FunctionResultset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rs))
	assert.Equal(t, 3, rs.TotalRows)
	assert.Equal(t, 2, rs.PageCount)
	assert.Len(t, rs.Functions, 2)
}

func TestGetFunctionNotFound(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	w := doRequest(app, "GET", "/functions/ffffffffffffffffffffffffffffffff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateFunction(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "GET", "/functions/"+guid, nil)
	var fn protocol.Function
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fn))

	// wrong token is rejected
	w = doRequest(app, "PUT", "/functions/"+guid, protocol.UpdateFunctionRequest{
		ChangeToken: "bogus", Name: "renamed", Language: "python", Timeout: 5, Code: "print(2)",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// missing token is rejected
	w = doRequest(app, "PUT", "/functions/"+guid, protocol.UpdateFunctionRequest{
		Name: "renamed", Language: "python", Timeout: 5, Code: "print(2)",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(app, "PUT", "/functions/"+guid, protocol.UpdateFunctionRequest{
		ChangeToken: fn.ChangeToken, Name: "renamed", Language: "python", Timeout: 5, Code: "print(2)",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated protocol.Function
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 1, updated.ChangeCount)
	assert.NotEqual(t, fn.ChangeToken, updated.ChangeToken)

	// the cache must not serve the stale record
	w = doRequest(app, "GET", "/functions/"+guid, nil)
	var fetched protocol.Function
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "renamed", fetched.Name)
}

func TestUpdateFunctionRouteConflict(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	createTestFunction(t, app, "alpha")
	guid := createTestFunction(t, app, "beta")

	w := doRequest(app, "GET", "/functions/"+guid, nil)
	var fn protocol.Function
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fn))

	// moving beta onto alpha's route is rejected
	w = doRequest(app, "PUT", "/functions/"+guid, protocol.UpdateFunctionRequest{
		ChangeToken: fn.ChangeToken, Name: "beta", Route: "/alpha",
		Language: "python", Timeout: 5, Code: "print(2)",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")

	// keeping its own route is not a conflict
	w = doRequest(app, "PUT", "/functions/"+guid, protocol.UpdateFunctionRequest{
		ChangeToken: fn.ChangeToken, Name: "beta", Route: "/beta",
		Language: "python", Timeout: 5, Code: "print(2)",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDeleteFunction(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "DELETE", "/functions/"+guid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Function deleted")

	w = doRequest(app, "GET", "/functions/"+guid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(app, "DELETE", "/functions/"+guid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunFunction(t *testing.T) {
	engine := &fakeEngine{metric: models.ExecutionMetric{
		ResponseTime: 42,
		Stdout:       models.ToNullString("hello world\n"),
	}}
	app := newTestServer(t, engine)
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "POST", "/functions/"+guid+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result protocol.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "hello world\n", result.Output)
	assert.Equal(t, []string{""}, engine.runtimes, "run uses the function's own runtime")
}

func TestRunFunctionErrors(t *testing.T) {
	engine := &fakeEngine{err: executor.ErrNoCode}
	app := newTestServer(t, engine)
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "POST", "/functions/"+guid+"/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	engine.err = executor.ErrExecutionTimeout
	w = doRequest(app, "POST", "/functions/"+guid+"/run", nil)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)

	engine.err = executor.ErrExecutionFailed
	w = doRequest(app, "POST", "/functions/"+guid+"/run", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(app, "POST", "/functions/ffffffffffffffffffffffffffffffff/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompareRuntimes(t *testing.T) {
	engine := &fakeEngine{metric: models.ExecutionMetric{
		ResponseTime: 42,
		MemoryUsage:  2.4,
		CPUUsage:     0.1,
		Stdout:       models.ToNullString("out\n"),
	}}
	app := newTestServer(t, engine)
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "GET", "/functions/"+guid+"/compare", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var comparison protocol.RuntimeComparison
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comparison))
	require.Contains(t, comparison.Comparison, "runc")
	require.Contains(t, comparison.Comparison, "runsc")
	assert.Equal(t, "out\n", comparison.Comparison["runsc"].Output)
	assert.Equal(t, []string{"runc", "runsc"}, engine.runtimes)
}

func TestFunctionMetrics(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	guid := createTestFunction(t, app, "hello")

	w := doRequest(app, "GET", "/functions/"+guid+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no executions recorded yet")

	_, err := app.RootDAO.RecordExecution(&models.ExecutionMetric{
		FunctionGUID: guid,
		FunctionName: "hello",
		Runtime:      "runc",
		ResponseTime: 17,
		Stdout:       models.ToNullString("x\n"),
		MemoryUsage:  1.5,
		CPUUsage:     0.2,
	})
	require.NoError(t, err)

	w = doRequest(app, "GET", "/functions/"+guid+"/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp protocol.FunctionMetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(17), resp.Metrics.ResponseTime)
	assert.Equal(t, "x\n", resp.Metrics.Stdout)
}

func TestFunctionMetricsHistoryAndSummary(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	guid := createTestFunction(t, app, "hello")

	for i := 0; i < 2; i++ {
		_, err := app.RootDAO.RecordExecution(&models.ExecutionMetric{
			FunctionGUID: guid,
			FunctionName: "hello",
			Runtime:      "runc",
			ResponseTime: int64(10 + i),
		})
		require.NoError(t, err)
	}

	w := doRequest(app, "GET", "/functions/"+guid+"/metrics/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history protocol.ExecutionMetricsResultset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, 2, history.TotalRows)

	w = doRequest(app, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary protocol.MetricsSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary.Metrics, 1)
	assert.Equal(t, "hello", summary.Metrics[0].FunctionName)
	assert.Equal(t, int64(2), summary.Metrics[0].Executions)
}

func TestPing(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	w := doRequest(app, "GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStats(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	w := doRequest(app, "GET", "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "execute-runc")
}

func TestCORSPreflight(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})

	r := httptest.NewRequest("OPTIONS", "/functions", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	// disallowed origins are not reflected
	r = httptest.NewRequest("OPTIONS", "/functions", nil)
	r.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	app.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// preflight without an origin is rejected
	r = httptest.NewRequest("OPTIONS", "/functions", nil)
	w = httptest.NewRecorder()
	app.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestServer(t, &fakeEngine{})
	w := doRequest(app, "GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
