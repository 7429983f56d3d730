package executor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ContainerStats is a single sample of container resource usage.
type ContainerStats struct {
	// MemoryUsageMB is the container memory usage in megabytes.
	MemoryUsageMB float64
	// CPUPercent is the container cpu usage in percent of one host cpu.
	CPUPercent float64
}

// DockerClient is the set of docker operations the execution engine needs.
type DockerClient interface {
	Info(ctx context.Context) error
	ImageExists(ctx context.Context, tag string) bool
	BuildImage(ctx context.Context, tag string, buildContext fs.FS) error
	RuntimeAvailable(ctx context.Context, runtime string) bool
	StartContainer(ctx context.Context, image string, runtime string) (string, error)
	CopyTo(ctx context.Context, containerID string, src string, dst string) error
	Exec(ctx context.Context, containerID string, cmd ...string) (string, string, error)
	Stats(ctx context.Context, containerID string) (ContainerStats, error)
	RemoveContainer(ctx context.Context, containerID string) error
}

// DockerCmdRunner implements DockerClient by shelling out to the docker CLI.
type DockerCmdRunner struct {
	runner CommandRunner
	binary string
}

var _ DockerClient = (*DockerCmdRunner)(nil)

// NewDockerCmdRunner returns a DockerClient invoking the given docker binary
// through the given CommandRunner.
func NewDockerCmdRunner(runner CommandRunner, binary string) *DockerCmdRunner {
	if binary == "" {
		binary = "docker"
	}
	return &DockerCmdRunner{runner: runner, binary: binary}
}

// Info checks that the docker daemon is reachable.
func (d *DockerCmdRunner) Info(ctx context.Context) error {
	if out, err := d.runner.RunCommand(ctx, d.binary, "info"); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %s: %w", firstLine(out), err)
	}
	return nil
}

// ImageExists reports whether an image with the given tag is present locally.
func (d *DockerCmdRunner) ImageExists(ctx context.Context, tag string) bool {
	_, err := d.runner.RunCommand(ctx, d.binary, "image", "inspect", "--format", "{{.Id}}", tag)
	return err == nil
}

// BuildImage materializes the given build context into a temp directory and
// builds it as tag. The context must contain a Dockerfile at its root.
func (d *DockerCmdRunner) BuildImage(ctx context.Context, tag string, buildContext fs.FS) error {
	dir, err := os.MkdirTemp("", "functiond-build-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if err := materializeFS(buildContext, dir); err != nil {
		return err
	}
	if out, err := d.runner.RunCommand(ctx, d.binary, "build", "-q", "-t", tag, dir); err != nil {
		return fmt.Errorf("docker build of %s failed: %s: %w", tag, firstLine(out), err)
	}
	return nil
}

// RuntimeAvailable reports whether the docker daemon offers the given OCI
// runtime.
func (d *DockerCmdRunner) RuntimeAvailable(ctx context.Context, runtime string) bool {
	out, err := d.runner.RunCommand(ctx, d.binary, "info", "--format", "{{json .Runtimes}}")
	if err != nil {
		return false
	}
	return strings.Contains(out, `"`+runtime+`"`)
}

// StartContainer starts a detached idle container from image under the given
// OCI runtime and returns its id.
func (d *DockerCmdRunner) StartContainer(ctx context.Context, image string, runtime string) (string, error) {
	stdout, stderr, err := d.runner.RunCommandSplit(ctx, d.binary, "run", "-d", "--runtime", runtime, image, "sleep", "infinity")
	if err != nil {
		return "", fmt.Errorf("docker run of %s under %s failed: %s: %w", image, runtime, firstLine(stderr), err)
	}
	return strings.TrimSpace(stdout), nil
}

// CopyTo copies a host file into the container.
func (d *DockerCmdRunner) CopyTo(ctx context.Context, containerID string, src string, dst string) error {
	if out, err := d.runner.RunCommand(ctx, d.binary, "cp", src, containerID+":"+dst); err != nil {
		return fmt.Errorf("docker cp into %s failed: %s: %w", containerID, firstLine(out), err)
	}
	return nil
}

// Exec runs a command inside the container, returning stdout and stderr.
func (d *DockerCmdRunner) Exec(ctx context.Context, containerID string, cmd ...string) (string, string, error) {
	args := append([]string{d.binary, "exec", containerID}, cmd...)
	return d.runner.RunCommandSplit(ctx, args...)
}

// Stats takes a single resource usage sample of the container.
func (d *DockerCmdRunner) Stats(ctx context.Context, containerID string) (ContainerStats, error) {
	out, err := d.runner.RunCommand(ctx, d.binary, "stats", "--no-stream", "--format", "{{.MemUsage}};{{.CPUPerc}}", containerID)
	if err != nil {
		return ContainerStats{}, fmt.Errorf("docker stats of %s failed: %w", containerID, err)
	}
	return parseStats(out)
}

// RemoveContainer force removes the container.
func (d *DockerCmdRunner) RemoveContainer(ctx context.Context, containerID string) error {
	if out, err := d.runner.RunCommand(ctx, d.binary, "rm", "-f", containerID); err != nil {
		return fmt.Errorf("docker rm of %s failed: %s: %w", containerID, firstLine(out), err)
	}
	return nil
}

// parseStats decodes the "{{.MemUsage}};{{.CPUPerc}}" stats format, e.g.
// "2.387MiB / 7.775GiB;0.05%".
func parseStats(out string) (ContainerStats, error) {
	parts := strings.Split(strings.TrimSpace(out), ";")
	if len(parts) != 2 {
		return ContainerStats{}, fmt.Errorf("unexpected stats format %q", out)
	}
	mem, err := parseMemUsage(parts[0])
	if err != nil {
		return ContainerStats{}, err
	}
	cpu, err := parseCPUPerc(parts[1])
	if err != nil {
		return ContainerStats{}, err
	}
	return ContainerStats{MemoryUsageMB: mem, CPUPercent: cpu}, nil
}

// parseMemUsage decodes the usage half of "2.387MiB / 7.775GiB" into MB.
func parseMemUsage(s string) (float64, error) {
	usage := strings.TrimSpace(strings.SplitN(s, "/", 2)[0])
	units := []struct {
		suffix string
		toMB   float64
	}{
		{"GiB", 1024}, {"MiB", 1}, {"KiB", 1.0 / 1024}, {"GB", 1000}, {"MB", 1}, {"kB", 1.0 / 1000}, {"B", 1.0 / (1000 * 1000)},
	}
	for _, u := range units {
		if strings.HasSuffix(usage, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(usage, u.suffix), 64)
			if err != nil {
				return 0, fmt.Errorf("unexpected memory usage %q", s)
			}
			return v * u.toMB, nil
		}
	}
	return 0, fmt.Errorf("unexpected memory usage %q", s)
}

// parseCPUPerc decodes "0.05%" into 0.05.
func parseCPUPerc(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected cpu usage %q", s)
	}
	return v, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// materializeFS copies an fs.FS tree into dir on disk.
func materializeFS(src fs.FS, dir string) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			if path == "." {
				return nil
			}
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
