package executor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CommandRunner is an interface for executing commands and getting the
// output/error, so that the docker CLI can be replaced in tests.
type CommandRunner interface {
	RunCommand(ctx context.Context, args ...string) (string, error)
	RunCommandSplit(ctx context.Context, args ...string) (string, string, error)
}

// ExecCommandRunner invokes commands through os/exec.
type ExecCommandRunner struct {
	logger *zap.Logger
}

var _ CommandRunner = (*ExecCommandRunner)(nil)

// NewExecCommandRunner returns a CommandRunner backed by os/exec.
func NewExecCommandRunner(logger *zap.Logger) *ExecCommandRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecCommandRunner{logger: logger}
}

// RunCommand runs a command and returns its combined output, trimmed.
func (r *ExecCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	r.logger.Debug("running command", zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// RunCommandSplit runs a command and returns stdout and stderr separately.
func (r *ExecCommandRunner) RunCommandSplit(ctx context.Context, args ...string) (string, string, error) {
	r.logger.Debug("running command", zap.Strings("args", args))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// FakeResponse is a scripted result for one docker subcommand.
type FakeResponse struct {
	Stdout string
	Stderr string
	Err    error
}

// FakeCommandRunner replays scripted responses keyed by the docker
// subcommand, recording every call it receives.
type FakeCommandRunner struct {
	mu        sync.Mutex
	Responses map[string]FakeResponse
	Calls     [][]string
}

var _ CommandRunner = (*FakeCommandRunner)(nil)

func (f *FakeCommandRunner) lookup(args []string) FakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, args)
	if len(args) > 1 {
		if resp, ok := f.Responses[args[1]]; ok {
			return resp
		}
	}
	return FakeResponse{}
}

// RunCommand implements the CommandRunner interface.
func (f *FakeCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	resp := f.lookup(args)
	return strings.TrimSpace(resp.Stdout), resp.Err
}

// RunCommandSplit implements the CommandRunner interface.
func (f *FakeCommandRunner) RunCommandSplit(ctx context.Context, args ...string) (string, string, error) {
	resp := f.lookup(args)
	return resp.Stdout, resp.Stderr, resp.Err
}

// CallsFor returns the recorded invocations of one docker subcommand.
func (f *FakeCommandRunner) CallsFor(subcommand string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched [][]string
	for _, call := range f.Calls {
		if len(call) > 1 && call[1] == subcommand {
			matched = append(matched, call)
		}
	}
	return matched
}
