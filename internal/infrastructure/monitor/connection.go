package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/internal/infrastructure/buffer"
)

// Probe checks one dependency and returns nil when it is reachable.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name    string
	timeout time.Duration
	check   Probe
}

// Monitor polls the registered probes and caches the latest result.
type Monitor struct {
	probes []namedProbe
	buffer *buffer.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(buf *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{Dependencies: map[string]bool{}},
	}
}

// AddProbe registers a dependency check. Call before Start.
func (m *Monitor) AddProbe(name string, timeout time.Duration, check Probe) {
	if check == nil {
		return
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	m.probes = append(m.probes, namedProbe{name: name, timeout: timeout, check: check})
}

// PostgresProbe pings the pool.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

// RedisProbe pings the client.
func RedisProbe(client *redislib.Client) Probe {
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deps := make(map[string]bool, len(m.status.Dependencies))
	for k, v := range m.status.Dependencies {
		deps[k] = v
	}
	status := m.status
	status.Dependencies = deps
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and publishes the result.
func (m *Monitor) Refresh() {
	status := Status{
		Dependencies: make(map[string]bool, len(m.probes)+1),
		LastCheck:    time.Now(),
	}
	for _, p := range m.probes {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.check(ctx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("dependency", p.name), zap.Error(err))
		}
		status.Dependencies[p.name] = err == nil
	}
	if m.buffer != nil {
		size, err := m.buffer.Len()
		if err != nil {
			m.logger.Warn("buffer size check failed", zap.Error(err))
		}
		status.BufferSize = size
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}
