package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/city-dashboard/internal/common"
)

// CoordinatorConfig tunes a Coordinator.
type CoordinatorConfig struct {
	// SnapshotKey names the SnapshotStore slot. Empty disables persistence.
	SnapshotKey string
	// LoadTimeout bounds loads started by city changes. Zero means no bound.
	LoadTimeout time.Duration
}

// Coordinator binds one feed's Provider to city changes and holds the
// latest model. Loads started later supersede earlier ones: a result that
// arrives after a newer load has started is discarded.
type Coordinator[T any] struct {
	name     string
	provider Provider[T]
	store    SnapshotStore
	cfg      CoordinatorConfig

	mu       sync.RWMutex
	current  T
	has      bool
	city     string
	inflight int
	gen      uint64

	persistMu sync.Mutex

	bindMu      sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	// pending counts triggered loads; idle is closed when it drops to zero.
	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// NewCoordinator creates a Coordinator for provider. store may be nil.
func NewCoordinator[T any](provider Provider[T], store SnapshotStore, cfg CoordinatorConfig) *Coordinator[T] {
	return &Coordinator[T]{
		name:     provider.Name(),
		provider: provider,
		store:    store,
		cfg:      cfg,
		ctx:      context.Background(),
	}
}

// Name returns the provider name.
func (c *Coordinator[T]) Name() string {
	return c.name
}

// Load fetches the feed for city. A blank city is a no-op. Provider errors
// are logged, leave the current model untouched and are returned.
func (c *Coordinator[T]) Load(ctx context.Context, city string) error {
	if common.IsBlank(city) {
		return nil
	}

	loadID := uuid.NewString()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.inflight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()

	start := time.Now()
	slog.Debug("feed load started", "feed", c.name, "city", city, "load_id", loadID)

	v, err := c.provider.Fetch(ctx, city)
	if err != nil {
		slog.Error("feed load failed; keeping last good model",
			"feed", c.name, "city", city, "load_id", loadID, "err", err)
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Debug("discarding superseded feed result", "feed", c.name, "city", city, "load_id", loadID)
		return nil
	}
	c.current = v
	c.has = true
	c.city = city
	c.mu.Unlock()

	c.persist(gen, v)

	slog.Debug("feed load completed", "feed", c.name, "city", city, "load_id", loadID,
		"duration", time.Since(start))
	return nil
}

func (c *Coordinator[T]) persist(gen uint64, v T) {
	if c.store == nil || c.cfg.SnapshotKey == "" {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	stale := gen != c.gen
	c.mu.RUnlock()
	if stale {
		return
	}

	if err := c.store.Save(c.cfg.SnapshotKey, v); err != nil {
		slog.Warn("failed to persist feed snapshot", "feed", c.name, "key", c.cfg.SnapshotKey, "err", err)
	}
}

// Restore installs the persisted snapshot as the current model, marked as
// cached, unless a model is already present. It reports whether a snapshot
// was installed.
func (c *Coordinator[T]) Restore() bool {
	if c.store == nil || c.cfg.SnapshotKey == "" {
		return false
	}

	var v T
	if err := c.store.Load(c.cfg.SnapshotKey, &v); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrSnapshotNotFound) {
			level = slog.LevelDebug
		}
		slog.Log(context.Background(), level, "no usable feed snapshot", "feed", c.name, "err", err)
		return false
	}

	if pm, ok := any(v).(interface{ WithProvenance(Provenance) T }); ok {
		v = pm.WithProvenance(ProvenanceCached)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.has {
		return false
	}
	c.current = v
	c.has = true
	return true
}

// Current returns the latest model and whether one exists.
func (c *Coordinator[T]) Current() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.has
}

// City returns the city of the latest live load, or "" if none completed.
func (c *Coordinator[T]) City() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.city
}

// Busy reports whether any load is in flight.
func (c *Coordinator[T]) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Bind subscribes to src so that every city change starts a background
// Load. Loads are cancelled through ctx or Close. Binding again replaces
// the previous subscription.
func (c *Coordinator[T]) Bind(ctx context.Context, src CitySource) {
	c.unbind()

	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := src.Subscribe(func(city string) {
		c.Trigger(city)
	})

	c.bindMu.Lock()
	c.ctx = ctx
	c.cancel = cancel
	c.unsubscribe = unsubscribe
	c.bindMu.Unlock()
}

// Trigger starts a background Load for city and returns immediately.
func (c *Coordinator[T]) Trigger(city string) {
	c.bindMu.Lock()
	ctx := c.ctx
	c.bindMu.Unlock()

	c.addPending()
	go func() {
		defer c.donePending()

		if c.cfg.LoadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.LoadTimeout)
			defer cancel()
		}
		_ = c.Load(ctx, city)
	}()
}

func (c *Coordinator[T]) addPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.pending == 0 {
		c.idle = make(chan struct{})
	}
	c.pending++
}

func (c *Coordinator[T]) donePending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pending--
	if c.pending == 0 {
		close(c.idle)
		c.idle = nil
	}
}

// Wait blocks until all background loads have finished. It is safe to call
// from several goroutines while new loads are being triggered.
func (c *Coordinator[T]) Wait() {
	c.pendingMu.Lock()
	idle := c.idle
	c.pendingMu.Unlock()
	if idle != nil {
		<-idle
	}
}

// Close drops the city subscription, cancels background loads and waits
// for them to finish.
func (c *Coordinator[T]) Close() {
	c.unbind()
	c.Wait()
}

func (c *Coordinator[T]) unbind() {
	c.bindMu.Lock()
	unsubscribe, cancel := c.unsubscribe, c.cancel
	c.unsubscribe, c.cancel = nil, nil
	c.ctx = context.Background()
	c.bindMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}
