package executor

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type poolKey struct {
	language string
	runtime  string
}

// Pool keeps pre-created idle containers per language and runtime so that
// executions do not pay container startup cost. Containers are single use:
// the engine removes a container after running in it and asks the pool to
// replenish.
type Pool struct {
	client      DockerClient
	logger      *zap.Logger
	size        int
	imagePrefix string

	mu     sync.Mutex
	warm   map[poolKey]chan string
	closed bool
}

// NewPool returns an empty pool. Prewarm fills it.
func NewPool(client DockerClient, imagePrefix string, size int, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size < 1 {
		size = 1
	}
	return &Pool{
		client:      client,
		logger:      logger,
		size:        size,
		imagePrefix: imagePrefix,
		warm:        make(map[poolKey]chan string),
	}
}

func (p *Pool) bucket(language string, runtime string) chan string {
	key := poolKey{language, runtime}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warm[key] == nil {
		p.warm[key] = make(chan string, p.size)
	}
	return p.warm[key]
}

// Prewarm starts idle containers until the bucket for the language and
// runtime is full.
func (p *Pool) Prewarm(ctx context.Context, language string, runtime string) error {
	bucket := p.bucket(language, runtime)
	for len(bucket) < p.size {
		containerID, err := p.client.StartContainer(ctx, imageName(p.imagePrefix, language), runtime)
		if err != nil {
			return err
		}
		select {
		case bucket <- containerID:
			p.logger.Debug("prewarmed container",
				zap.String("language", language), zap.String("runtime", runtime), zap.String("container", containerID))
		default:
			// concurrent fill beat us to the last slot
			p.client.RemoveContainer(ctx, containerID)
			return nil
		}
	}
	return nil
}

// Acquire hands out a warm container when one is available, otherwise cold
// starts a fresh one. The second return value reports whether the container
// was warm.
func (p *Pool) Acquire(ctx context.Context, language string, runtime string) (string, bool, error) {
	select {
	case containerID := <-p.bucket(language, runtime):
		return containerID, true, nil
	default:
	}
	containerID, err := p.client.StartContainer(ctx, imageName(p.imagePrefix, language), runtime)
	if err != nil {
		return "", false, err
	}
	return containerID, false, nil
}

// Replenish starts one idle container for the bucket unless it is already
// full or the pool has been drained.
func (p *Pool) Replenish(ctx context.Context, language string, runtime string) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	bucket := p.bucket(language, runtime)
	if len(bucket) >= p.size {
		return
	}
	containerID, err := p.client.StartContainer(ctx, imageName(p.imagePrefix, language), runtime)
	if err != nil {
		p.logger.Warn("pool replenish failed",
			zap.String("language", language), zap.String("runtime", runtime), zap.Error(err))
		return
	}
	select {
	case bucket <- containerID:
	default:
		p.client.RemoveContainer(ctx, containerID)
	}
}

// WarmCount reports the number of idle containers held for the language and
// runtime.
func (p *Pool) WarmCount(language string, runtime string) int {
	return len(p.bucket(language, runtime))
}

// Drain removes every idle container and stops further replenishment.
func (p *Pool) Drain(ctx context.Context) {
	p.mu.Lock()
	p.closed = true
	buckets := make([]chan string, 0, len(p.warm))
	for _, bucket := range p.warm {
		buckets = append(buckets, bucket)
	}
	p.mu.Unlock()

	for _, bucket := range buckets {
		p.drainBucket(ctx, bucket)
	}
}

func (p *Pool) drainBucket(ctx context.Context, bucket chan string) {
	for {
		select {
		case containerID := <-bucket:
			if err := p.client.RemoveContainer(ctx, containerID); err != nil {
				p.logger.Warn("drain failed to remove container", zap.String("container", containerID), zap.Error(err))
			}
		default:
			return
		}
	}
}
