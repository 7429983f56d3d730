package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neritic/functiond/client"
	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/executor"
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/protocol"
	"github.com/neritic/functiond/server"
	"github.com/neritic/functiond/services/kafka"
)

type stubEngine struct {
	d dao.DAO
}

func (s stubEngine) Run(ctx context.Context, fn models.Function, runtime string) (models.ExecutionMetric, error) {
	if runtime == "" {
		runtime = fn.Runtime
	}
	metric := models.ExecutionMetric{
		FunctionGUID: fn.GUID,
		FunctionName: fn.Name,
		Runtime:      runtime,
		ResponseTime: 5,
		Stdout:       models.ToNullString("hello world\n"),
	}
	return s.d.RecordExecution(&metric)
}
func (s stubEngine) Startup(ctx context.Context) error { return nil }
func (s stubEngine) Shutdown(ctx context.Context)      {}

var _ executor.Executor = stubEngine{}

func newTestRemote(t *testing.T) *httptest.Server {
	t.Helper()
	app, err := server.NewAppServer(config.ServerSettingsConfiguration{ListenPort: "0"})
	require.NoError(t, err)
	t.Cleanup(app.Tracker.Stop)
	d, _, err := dao.NewDataAccessLayer(
		config.DatabaseConfiguration{Driver: "sqlite", Path: ":memory:"},
		dao.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	app.RootDAO = d
	app.Engine = stubEngine{d: d}
	app.EventQueue = kafka.NewFakeAsyncProducer(zap.NewNop())
	ts := httptest.NewServer(app)
	t.Cleanup(ts.Close)
	return ts
}

func TestClientLifecycle(t *testing.T) {
	ts := newTestRemote(t)
	c, err := client.NewClient(client.Config{Remote: ts.URL, Identity: "tester"})
	require.NoError(t, err)

	require.NoError(t, c.Ping())

	created, err := c.CreateFunction(protocol.CreateFunctionRequest{
		Name:     "hello",
		Language: "python",
		Timeout:  5,
		Code:     `print("hello world")`,
	})
	require.NoError(t, err)
	require.Len(t, created.ID, 32)

	fn, err := c.GetFunction(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", fn.Name)
	assert.Equal(t, "tester", fn.CreatedBy)

	listed, err := c.ListFunctions(protocol.PagingRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, listed.TotalRows)

	fn.Name = "renamed"
	updated, err := c.UpdateFunction(protocol.UpdateFunctionRequest{
		ID:          fn.ID,
		ChangeToken: fn.ChangeToken,
		Name:        "renamed",
		Language:    fn.Language,
		Timeout:     fn.Timeout,
		Runtime:     fn.Runtime,
		Code:        fn.Code,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	result, err := c.RunFunction(fn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", result.Output)

	metrics, err := c.GetLatestMetrics(fn.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", metrics.Metrics.Stdout)

	history, err := c.GetMetricsHistory(fn.ID, protocol.PagingRequest{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, history.TotalRows)

	comparison, err := c.CompareRuntimes(fn.ID)
	require.NoError(t, err)
	assert.Contains(t, comparison.Comparison, "runsc")

	summary, err := c.GetMetricsSummary()
	require.NoError(t, err)
	assert.NotEmpty(t, summary.Metrics)

	require.NoError(t, c.DeleteFunction(fn.ID))
	_, err = c.GetFunction(fn.ID)
	assert.Error(t, err)
}

func TestClientErrors(t *testing.T) {
	ts := newTestRemote(t)
	c, err := client.NewClient(client.Config{Remote: ts.URL})
	require.NoError(t, err)

	_, err = c.GetFunction("ffffffffffffffffffffffffffffffff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = client.NewClient(client.Config{})
	assert.Error(t, err)
}
