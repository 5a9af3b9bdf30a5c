package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedBackend is returned for an unknown storage type
var ErrUnsupportedBackend = errors.New("unsupported storage backend")

// Gateway persists the full bot snapshot.
// Save replaces everything previously stored; Load on an empty store
// returns an empty snapshot.
type Gateway interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
	Name() string
	Close() error
}

// Sizer is implemented by gateways that can report their on-disk size
type Sizer interface {
	DataSize() (int64, error)
}

// Source is the state being persisted
type Source interface {
	Snapshot() (*models.Snapshot, error)
	Restore(snap *models.Snapshot) []error
}

// Manager manages the storage backend and schedules flushes
type Manager struct {
	gateway  Gateway
	logger   *logrus.Logger
	metrics  *middleware.Metrics
	flushMu  sync.Mutex
	requests chan struct{}
}

// NewManager opens the backend selected by cfg.Storage.Type
func NewManager(cfg *config.Config, logger *logrus.Logger, metrics *middleware.Metrics) (*Manager, error) {
	var (
		gateway Gateway
		err     error
	)

	switch cfg.Storage.Type {
	case config.StorageSQLite:
		gateway, err = OpenSQLite(cfg.Storage.SQLite.Path)
	case config.StoragePostgres:
		gateway, err = OpenPostgres(cfg.Storage.Postgres.DSN)
	case config.StorageJSON:
		gateway, err = NewJSONStore(cfg.Storage.JSON.Dir)
	case config.StorageRedis:
		gateway, err = NewRedisStore(&cfg.Storage.Redis)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Storage.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}

	logger.WithField("backend", gateway.Name()).Info("Storage initialized")
	return NewManagerWithGateway(gateway, logger, metrics), nil
}

// NewManagerWithGateway wraps an already opened gateway
func NewManagerWithGateway(gateway Gateway, logger *logrus.Logger, metrics *middleware.Metrics) *Manager {
	return &Manager{
		gateway:  gateway,
		logger:   logger,
		metrics:  metrics,
		requests: make(chan struct{}, 1),
	}
}

// Backend returns the name of the active backend
func (m *Manager) Backend() string {
	return m.gateway.Name()
}

// Load reads the stored snapshot into src.
// Entries src rejects are logged and skipped.
func (m *Manager) Load(ctx context.Context, src Source) error {
	start := time.Now()
	snap, err := m.gateway.Load(ctx)
	m.record("load", err, start)
	if err != nil {
		return fmt.Errorf("failed to load %s storage: %w", m.gateway.Name(), err)
	}

	for _, rerr := range src.Restore(snap) {
		m.logger.WithError(rerr).WithField("backend", m.gateway.Name()).Warn("Skipped stored entry")
	}
	m.logger.WithFields(logrus.Fields{
		"backend": m.gateway.Name(),
		"users":   len(snap.Users),
		"learned": len(snap.Learned),
		"games":   len(snap.Games),
	}).Info("Data loaded")
	return nil
}

// Flush writes a snapshot of src. Concurrent flushes are serialized.
func (m *Manager) Flush(ctx context.Context, src Source) error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	snap, err := src.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to take snapshot: %w", err)
	}

	start := time.Now()
	err = m.gateway.Save(ctx, snap)
	m.record("save", err, start)
	if err != nil {
		return fmt.Errorf("failed to save %s storage: %w", m.gateway.Name(), err)
	}

	m.logger.WithFields(logrus.Fields{
		"backend":  m.gateway.Name(),
		"duration": time.Since(start),
	}).Debug("Data saved")
	return nil
}

// RequestFlush asks Run for a flush without blocking
func (m *Manager) RequestFlush() {
	select {
	case m.requests <- struct{}{}:
	default:
	}
}

// Run flushes src every interval and on request until ctx is done.
// Failed flushes are logged and retried on the next trigger.
func (m *Manager) Run(ctx context.Context, src Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.requests:
		}
		if err := m.Flush(ctx, src); err != nil {
			m.logger.WithError(err).Error("Failed to save data")
		}
	}
}

// Close performs a final flush and releases the backend.
// The backend is closed even when the flush fails.
func (m *Manager) Close(ctx context.Context, src Source) error {
	flushErr := m.Flush(ctx, src)
	closeErr := m.gateway.Close()
	return errors.Join(flushErr, closeErr)
}

// DataSize returns the stored size in bytes, or 0 when the backend cannot tell
func (m *Manager) DataSize() int64 {
	sizer, ok := m.gateway.(Sizer)
	if !ok {
		return 0
	}
	n, err := sizer.DataSize()
	if err != nil {
		m.logger.WithError(err).Debug("Failed to measure data size")
		return 0
	}
	return n
}

func (m *Manager) record(op string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordStorageOperation(m.gateway.Name(), op, status, time.Since(start))
}
