package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/metadata/models"
	"github.com/neritic/functiond/performance"
)

// Sentinel errors the server maps to HTTP statuses.
var (
	ErrUnsupportedLanguage = errors.New("unsupported function language")
	ErrUnsupportedRuntime  = errors.New("unsupported function runtime")
	ErrNoCode              = errors.New("function has no code")
	ErrExecutionTimeout    = errors.New("execution timed out")
	ErrExecutionFailed     = errors.New("execution failed")
)

// Executor runs function payloads and records a metric for every run.
type Executor interface {
	Run(ctx context.Context, fn models.Function, runtime string) (models.ExecutionMetric, error)
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context)
}

// ContainerExecutor is the docker-backed Executor.
type ContainerExecutor struct {
	conf      config.ExecutorConfiguration
	client    DockerClient
	pool      *Pool
	d         dao.DAO
	reporters *performance.JobReporters
	logger    *zap.Logger
}

var _ Executor = (*ContainerExecutor)(nil)

// NewContainerExecutor wires the execution engine together.
func NewContainerExecutor(conf config.ExecutorConfiguration, client DockerClient, d dao.DAO, reporters *performance.JobReporters, logger *zap.Logger) *ContainerExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContainerExecutor{
		conf:      conf,
		client:    client,
		pool:      NewPool(client, conf.ImagePrefix, conf.PoolSize, logger),
		d:         d,
		reporters: reporters,
		logger:    logger,
	}
}

// Startup validates the docker daemon, builds missing base images, and
// prewarms the container pools. A missing OCI runtime only degrades the
// pools for it, it does not fail startup.
func (e *ContainerExecutor) Startup(ctx context.Context) error {
	if err := e.client.Info(ctx); err != nil {
		return err
	}
	e.logger.Info("docker is running and accessible")

	if !e.conf.SkipImageBuild {
		began := e.reporters.BeginTime(performance.ImageBuildCounter)
		err := ensureImages(ctx, e.client, e.conf.ImagePrefix, e.logger)
		e.reporters.EndTime(performance.ImageBuildCounter, began, 0)
		if err != nil {
			return err
		}
	}

	if !e.conf.SkipPrewarm {
		for _, runtime := range e.conf.Runtimes {
			if !e.client.RuntimeAvailable(ctx, runtime) {
				e.logger.Warn("oci runtime not offered by docker daemon, skipping prewarm", zap.String("runtime", runtime))
				continue
			}
			for _, language := range supportedLanguages {
				if err := e.pool.Prewarm(ctx, language, runtime); err != nil {
					return fmt.Errorf("prewarm of %s/%s pool failed: %w", language, runtime, err)
				}
				e.logger.Info("prewarmed container pool",
					zap.String("language", language), zap.String("runtime", runtime),
					zap.Int("count", e.pool.WarmCount(language, runtime)))
			}
		}
	}
	return nil
}

// Shutdown drains the warm pools.
func (e *ContainerExecutor) Shutdown(ctx context.Context) {
	e.pool.Drain(ctx)
}

// Run executes the function payload in a container. When runtime is empty
// the function's own runtime is used; the compare operation passes an
// explicit one. A metric row is recorded for every attempt that reaches a
// container, including timeouts and failures.
func (e *ContainerExecutor) Run(ctx context.Context, fn models.Function, runtime string) (models.ExecutionMetric, error) {
	if runtime == "" {
		runtime = fn.Runtime
	}
	metric := models.ExecutionMetric{
		FunctionGUID: fn.GUID,
		FunctionName: fn.Name,
		Runtime:      runtime,
	}
	if !isSupportedLanguage(fn.Language) {
		return metric, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, fn.Language)
	}
	if !e.runtimeConfigured(runtime) {
		return metric, fmt.Errorf("%w: %s", ErrUnsupportedRuntime, runtime)
	}
	if !fn.Code.Valid || fn.Code.String == "" {
		return metric, ErrNoCode
	}

	reporterID := counterForRuntime(runtime)
	began := e.reporters.BeginTime(reporterID)
	defer func() {
		size := int64(len(metric.Stdout.String) + len(metric.Stderr.String))
		e.reporters.EndTime(reporterID, began, performance.SizeJob(size))
	}()

	containerID, warm, err := e.pool.Acquire(ctx, fn.Language, runtime)
	if err != nil {
		return metric, err
	}
	metric.ColdStart = !warm
	if !warm {
		csBegan := e.reporters.BeginTime(performance.ColdStartCounter)
		e.reporters.EndTime(performance.ColdStartCounter, csBegan, 0)
	}
	defer e.retire(containerID, fn.Language, runtime)

	src, cleanup, err := writeCodeFile(fn.Language, fn.Code.String)
	if err != nil {
		return metric, err
	}
	defer cleanup()
	if err := e.client.CopyTo(ctx, containerID, src, entryFile(fn.Language)); err != nil {
		return metric, err
	}

	// sample resource usage while the payload runs
	statsCh := make(chan ContainerStats, 1)
	go func() {
		sample, serr := e.client.Stats(ctx, containerID)
		if serr != nil {
			e.logger.Warn("stats sample failed", zap.String("container", containerID), zap.Error(serr))
		}
		statsCh <- sample
	}()

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(e.timeoutFor(fn))*time.Second)
	defer cancel()

	start := time.Now()
	stdout, stderr, execErr := e.client.Exec(runCtx, containerID, interpreter(fn.Language), entryFile(fn.Language))
	metric.ResponseTime = time.Since(start).Milliseconds()
	metric.Stdout = models.ToNullString(stdout)
	metric.Stderr = models.ToNullString(stderr)

	sample := <-statsCh
	metric.MemoryUsage = sample.MemoryUsageMB
	metric.CPUUsage = sample.CPUPercent

	var runErr error
	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		metric.Error = true
		metric.Stderr = models.ToNullString("execution timed out")
		runErr = ErrExecutionTimeout
	case execErr != nil:
		metric.Error = true
		runErr = fmt.Errorf("%w: %s", ErrExecutionFailed, firstLine(stderr))
	}

	recorded, derr := e.d.RecordExecution(&metric)
	if derr != nil {
		e.logger.Error("unable to record execution metric", zap.String("function", fn.GUID), zap.Error(derr))
	} else {
		metric = recorded
	}
	return metric, runErr
}

// retire removes a used container and replenishes its pool slot off the
// request path.
func (e *ContainerExecutor) retire(containerID string, language string, runtime string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.client.RemoveContainer(ctx, containerID); err != nil {
			e.logger.Warn("unable to remove used container", zap.String("container", containerID), zap.Error(err))
		}
		e.pool.Replenish(ctx, language, runtime)
	}()
}

func (e *ContainerExecutor) runtimeConfigured(runtime string) bool {
	for _, r := range e.conf.Runtimes {
		if r == runtime {
			return true
		}
	}
	return false
}

// timeoutFor clamps the function's declared timeout to the configured bounds.
func (e *ContainerExecutor) timeoutFor(fn models.Function) int {
	timeout := fn.Timeout
	if timeout <= 0 {
		timeout = e.conf.DefaultTimeout
	}
	if e.conf.MaxTimeout > 0 && timeout > e.conf.MaxTimeout {
		timeout = e.conf.MaxTimeout
	}
	return timeout
}

func counterForRuntime(runtime string) performance.ReporterID {
	if runtime == models.RuntimeRunsc {
		return performance.ExecuteRunscCounter
	}
	return performance.ExecuteRuncCounter
}

// writeCodeFile stages the payload on disk for docker cp.
func writeCodeFile(language string, code string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "functiond-code-")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, filepath.Base(entryFile(language)))
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
