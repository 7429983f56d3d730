package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/performance"
)

func testConf() config.ExecutorConfiguration {
	return config.ExecutorConfiguration{
		DockerBinary:   "docker",
		ImagePrefix:    "functiond",
		Runtimes:       []string{models.RuntimeRunc, models.RuntimeRunsc},
		PoolSize:       2,
		DefaultTimeout: 5,
		MaxTimeout:     60,
	}
}

func testDAO(t *testing.T) dao.DAO {
	t.Helper()
	conf := config.DatabaseConfiguration{Driver: "sqlite", Path: ":memory:"}
	d, _, err := dao.NewDataAccessLayer(conf, dao.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return d
}

func testFunction() models.Function {
	return models.Function{
		GUID:     "0123456789abcdef0123456789abcdef",
		Name:     "hello",
		Route:    "/hello",
		Language: models.LanguagePython,
		Timeout:  5,
		Runtime:  models.RuntimeRunc,
		Code:     models.ToNullString(`print("hello world")`),
	}
}

func newTestExecutor(t *testing.T, fake *FakeCommandRunner) (*ContainerExecutor, *performance.JobReporters) {
	t.Helper()
	reporters := performance.NewJobReporters(32)
	t.Cleanup(reporters.Stop)
	client := NewDockerCmdRunner(fake, "docker")
	e := NewContainerExecutor(testConf(), client, testDAO(t), reporters, zap.NewNop())
	return e, reporters
}

func TestRunRecordsMetric(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"run":   {Stdout: "c0ffee\n"},
		"exec":  {Stdout: "hello world\n"},
		"stats": {Stdout: "2.387MiB / 7.775GiB;0.05%"},
	}}
	e, _ := newTestExecutor(t, fake)

	metric, err := e.Run(context.Background(), testFunction(), "")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", metric.Stdout.String)
	assert.False(t, metric.Error)
	assert.True(t, metric.ColdStart, "no prewarm ran, so the pool was empty")
	assert.InDelta(t, 2.387, metric.MemoryUsage, 0.001)
	assert.InDelta(t, 0.05, metric.CPUUsage, 0.001)
	assert.NotZero(t, metric.ID, "metric should have been recorded")

	latest, err := e.d.GetLatestMetricForFunction(testFunction().GUID)
	require.NoError(t, err)
	assert.Equal(t, metric.ID, latest.ID)
}

func TestRunValidation(t *testing.T) {
	e, _ := newTestExecutor(t, &FakeCommandRunner{})

	fn := testFunction()
	fn.Language = "ruby"
	_, err := e.Run(context.Background(), fn, "")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	fn = testFunction()
	_, err = e.Run(context.Background(), fn, "kata")
	assert.True(t, errors.Is(err, ErrUnsupportedRuntime))

	fn = testFunction()
	fn.Code = models.NullString{}
	_, err = e.Run(context.Background(), fn, "")
	assert.True(t, errors.Is(err, ErrNoCode))
}

func TestRunFailureStillRecordsMetric(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"run":   {Stdout: "c0ffee\n"},
		"exec":  {Stderr: "Traceback: boom\n", Err: errors.New("exit status 1")},
		"stats": {Stdout: "1.0MiB / 7.775GiB;0.01%"},
	}}
	e, _ := newTestExecutor(t, fake)

	metric, err := e.Run(context.Background(), testFunction(), "")
	assert.True(t, errors.Is(err, ErrExecutionFailed))
	assert.True(t, metric.Error)
	assert.Equal(t, "Traceback: boom\n", metric.Stderr.String)
	assert.NotZero(t, metric.ID)
}

// blockingExecRunner parks exec calls until their context expires, standing
// in for a payload that never finishes.
type blockingExecRunner struct {
	FakeCommandRunner
}

func (b *blockingExecRunner) RunCommandSplit(ctx context.Context, args ...string) (string, string, error) {
	if len(args) > 1 && args[1] == "exec" {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	return b.FakeCommandRunner.RunCommandSplit(ctx, args...)
}

func TestRunTimeoutRecordsMetric(t *testing.T) {
	fake := &blockingExecRunner{FakeCommandRunner{Responses: map[string]FakeResponse{
		"run":   {Stdout: "c0ffee\n"},
		"stats": {Stdout: "1.0MiB / 7.775GiB;0.01%"},
	}}}
	reporters := performance.NewJobReporters(32)
	t.Cleanup(reporters.Stop)
	client := NewDockerCmdRunner(fake, "docker")
	e := NewContainerExecutor(testConf(), client, testDAO(t), reporters, zap.NewNop())

	fn := testFunction()
	fn.Timeout = 1
	metric, err := e.Run(context.Background(), fn, "")
	assert.True(t, errors.Is(err, ErrExecutionTimeout))
	assert.True(t, metric.Error)
	assert.Equal(t, "execution timed out", metric.Stderr.String)
	assert.NotZero(t, metric.ID, "timed out runs still leave a metric row")

	latest, derr := e.d.GetLatestMetricForFunction(fn.GUID)
	require.NoError(t, derr)
	assert.True(t, latest.Error)
	assert.Equal(t, "execution timed out", latest.Stderr.String)
}

func TestRunRuntimeOverride(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"run":   {Stdout: "c0ffee\n"},
		"exec":  {Stdout: "out\n"},
		"stats": {Stdout: "1.0MiB / 7.775GiB;0.01%"},
	}}
	e, reporters := newTestExecutor(t, fake)

	metric, err := e.Run(context.Background(), testFunction(), models.RuntimeRunsc)
	require.NoError(t, err)
	assert.Equal(t, models.RuntimeRunsc, metric.Runtime)

	runs := fake.CallsFor("run")
	require.NotEmpty(t, runs)
	assert.Contains(t, runs[0], models.RuntimeRunsc)

	// the end-of-job message is async, poll briefly
	deadline := time.Now().Add(time.Second)
	for {
		report := reporters.Report(performance.ExecuteRunscCounter)
		if report.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("runsc counter never reached 1, got %+v", report)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoolWarmAcquire(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"run": {Stdout: "deadbeef\n"},
	}}
	client := NewDockerCmdRunner(fake, "docker")
	pool := NewPool(client, "functiond", 2, zap.NewNop())

	require.NoError(t, pool.Prewarm(context.Background(), models.LanguagePython, models.RuntimeRunc))
	assert.Equal(t, 2, pool.WarmCount(models.LanguagePython, models.RuntimeRunc))

	id, warm, err := pool.Acquire(context.Background(), models.LanguagePython, models.RuntimeRunc)
	require.NoError(t, err)
	assert.True(t, warm)
	assert.Equal(t, "deadbeef", id)
	assert.Equal(t, 1, pool.WarmCount(models.LanguagePython, models.RuntimeRunc))

	// a different runtime has its own, empty bucket
	_, warm, err = pool.Acquire(context.Background(), models.LanguagePython, models.RuntimeRunsc)
	require.NoError(t, err)
	assert.False(t, warm)
}

func TestPoolDrain(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"run": {Stdout: "deadbeef\n"},
	}}
	client := NewDockerCmdRunner(fake, "docker")
	pool := NewPool(client, "functiond", 2, zap.NewNop())
	require.NoError(t, pool.Prewarm(context.Background(), models.LanguageNode, models.RuntimeRunc))

	pool.Drain(context.Background())
	assert.Equal(t, 0, pool.WarmCount(models.LanguageNode, models.RuntimeRunc))
	assert.Len(t, fake.CallsFor("rm"), 2)

	// drained pools do not replenish
	pool.Replenish(context.Background(), models.LanguageNode, models.RuntimeRunc)
	assert.Equal(t, 0, pool.WarmCount(models.LanguageNode, models.RuntimeRunc))
}

func TestStartupBuildsMissingImages(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		"image": {Err: errors.New("No such image")},
		"build": {Stdout: "sha256:abc\n"},
		"run":   {Stdout: "c0ffee\n"},
	}}
	e, _ := newTestExecutor(t, fake)

	require.NoError(t, e.Startup(context.Background()))
	builds := fake.CallsFor("build")
	assert.Len(t, builds, 2, "one build per language")
}

func TestStartupSkipsUnavailableRuntime(t *testing.T) {
	fake := &FakeCommandRunner{Responses: map[string]FakeResponse{
		// info answers both the daemon check and the runtime listing
		"info": {Stdout: `{"io.containerd.runc.v2":{},"runc":{}}`},
		"run":  {Stdout: "c0ffee\n"},
	}}
	e, _ := newTestExecutor(t, fake)

	require.NoError(t, e.Startup(context.Background()))
	assert.Equal(t, 2, e.pool.WarmCount(models.LanguagePython, models.RuntimeRunc))
	assert.Equal(t, 0, e.pool.WarmCount(models.LanguagePython, models.RuntimeRunsc))
}

func TestParseStats(t *testing.T) {
	stats, err := parseStats("2.387MiB / 7.775GiB;12.5%")
	require.NoError(t, err)
	assert.InDelta(t, 2.387, stats.MemoryUsageMB, 0.001)
	assert.InDelta(t, 12.5, stats.CPUPercent, 0.001)

	stats, err = parseStats("1.5GiB / 7.775GiB;0.00%")
	require.NoError(t, err)
	assert.InDelta(t, 1536, stats.MemoryUsageMB, 0.1)

	stats, err = parseStats("512KiB / 7.775GiB;0.00%")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, stats.MemoryUsageMB, 0.001)

	_, err = parseStats("garbage")
	assert.Error(t, err)
}

func TestTimeoutClamping(t *testing.T) {
	e, _ := newTestExecutor(t, &FakeCommandRunner{})

	fn := testFunction()
	fn.Timeout = 0
	assert.Equal(t, 5, e.timeoutFor(fn))

	fn.Timeout = 600
	assert.Equal(t, 60, e.timeoutFor(fn))

	fn.Timeout = 10
	assert.Equal(t, 10, e.timeoutFor(fn))
}
