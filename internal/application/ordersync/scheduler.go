package ordersync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/providerapi"
	"github.com/suitableit/smmdoc-sub003/internal/realtime"
)

// ProviderAPI is the slice of the provider client the scheduler needs
type ProviderAPI interface {
	OrderStatuses(ctx context.Context, p *provider.Provider, orderIDs []string) (map[string]providerapi.StatusResult, error)
}

// Config holds the reconciliation loop settings
type Config struct {
	// InitialDelay postpones the first run after startup to avoid a
	// thundering herd against providers.
	InitialDelay time.Duration
	// Interval is the fixed period between runs.
	Interval time.Duration
	// BatchSize caps how many order ids go into one status call.
	BatchSize int
}

// DefaultConfig returns the default reconciliation settings
func DefaultConfig() Config {
	return Config{
		InitialDelay: 30 * time.Second,
		Interval:     5 * time.Minute,
		BatchSize:    100,
	}
}

// RunSummary records the outcome of one reconciliation run
type RunSummary struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
}

// Scheduler is the recurring reconciliation loop: it polls every provider
// for the state of all non-terminal local orders, persists the deltas and
// fans out change events. An atomic in-progress guard ensures no two runs
// ever overlap; a tick that fires mid-run is skipped entirely.
type Scheduler struct {
	cfg       Config
	orders    provider.OrderRepository
	providers provider.Repository
	api       ProviderAPI
	events    realtime.Publisher
	logger    *zap.Logger

	inProgress atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	historyMu  sync.RWMutex
	history    []RunSummary
	maxHistory int
}

// NewScheduler creates an order sync scheduler
func NewScheduler(cfg Config, orders provider.OrderRepository, providers provider.Repository, api ProviderAPI, events realtime.Publisher, logger *zap.Logger) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Scheduler{
		cfg:        cfg,
		orders:     orders,
		providers:  providers,
		api:        api,
		events:     events,
		logger:     logger,
		history:    make([]RunSummary, 0, 50),
		maxHistory: 50,
	}
}

// Start launches the loop: one initial delay, then a fixed period
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("order sync scheduler started",
		zap.Duration("initial_delay", s.cfg.InitialDelay),
		zap.Duration("interval", s.cfg.Interval),
	)
}

// Stop stops the loop and waits for an in-flight run to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("order sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("order sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs one reconciliation immediately, honoring the same
// overlap guard as the periodic loop
func (s *Scheduler) TriggerNow(ctx context.Context) (*RunSummary, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return nil, ErrSchedulerNotRunning
	}

	if !s.inProgress.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.inProgress.Store(false)

	summary := s.reconcile(ctx)
	return &summary, nil
}

// History returns the most recent run summaries, newest first
func (s *Scheduler) History(limit int) []RunSummary {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]RunSummary, limit)
	copy(out, s.history[:limit])
	return out
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.InitialDelay):
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one reconciliation unless the previous one is still going,
// in which case this tick is skipped entirely rather than queued
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.logger.Warn("previous order sync still in progress, skipping tick")
		return
	}
	defer s.inProgress.Store(false)

	s.reconcile(ctx)
}

// reconcile is one full run. A run that fails outright is logged and
// simply retried on the next tick; staleness beats noisy failure for a
// background loop.
func (s *Scheduler) reconcile(ctx context.Context) RunSummary {
	started := time.Now()
	summary := RunSummary{StartedAt: started}
	defer func() {
		summary.Duration = time.Since(started)
		s.addHistory(summary)
	}()

	active, err := s.orders.FindActive(ctx)
	if err != nil {
		summary.Error = err.Error()
		s.logger.Error("order sync failed to load active orders", zap.Error(err))
		return summary
	}
	summary.Total = len(active)
	if len(active) == 0 {
		return summary
	}

	// One status call per distinct provider, not per order.
	byProvider := make(map[uuid.UUID][]provider.Order)
	for _, o := range active {
		if o.ProviderOrderID == "" {
			summary.Skipped++
			continue
		}
		byProvider[o.ProviderID] = append(byProvider[o.ProviderID], o)
	}

	processed := 0
	for providerID, orders := range byProvider {
		prov, err := s.providers.FindByID(ctx, providerID)
		if err != nil {
			summary.Failed += len(orders)
			s.logger.Error("order sync failed to load provider",
				zap.String("provider_id", providerID.String()),
				zap.Error(err))
			continue
		}

		for start := 0; start < len(orders); start += s.cfg.BatchSize {
			end := min(start+s.cfg.BatchSize, len(orders))
			batch := orders[start:end]

			updated, skipped, failed := s.reconcileBatch(ctx, prov, batch)
			summary.Updated += updated
			summary.Skipped += skipped
			summary.Failed += failed

			processed += len(batch)
			s.events.Broadcast(realtime.NewSyncProgress(realtime.SyncProgress{
				Processed: processed,
				Total:     summary.Total,
				Updated:   summary.Updated,
			}))
		}
	}

	s.logger.Info("order sync run finished",
		zap.Int("total", summary.Total),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Since(started)),
	)
	return summary
}

func (s *Scheduler) reconcileBatch(ctx context.Context, prov *provider.Provider, batch []provider.Order) (updated, skipped, failed int) {
	ids := make([]string, len(batch))
	for i, o := range batch {
		ids[i] = o.ProviderOrderID
	}

	statuses, err := s.api.OrderStatuses(ctx, prov, ids)
	if err != nil {
		s.logger.Error("order sync provider call failed",
			zap.String("provider", prov.Name),
			zap.Int("orders", len(batch)),
			zap.Error(err))
		return 0, 0, len(batch)
	}

	now := time.Now()
	for i := range batch {
		order := batch[i]
		result, ok := statuses[order.ProviderOrderID]
		if !ok || result.Err != "" {
			skipped++
			continue
		}

		update := provider.SyncUpdate{
			Status:     result.Status,
			StartCount: result.StartCount,
			Remains:    result.Remains,
			Charge:     result.Charge,
		}
		if !order.Differs(update) {
			skipped++
			continue
		}

		if err := order.ApplySyncUpdate(update, now); err != nil {
			// Terminal or forbidden transition; provider data does not
			// override the local state machine.
			skipped++
			s.logger.Debug("sync update rejected",
				zap.String("order_id", order.ID.String()),
				zap.String("from", string(order.Status)),
				zap.String("to", string(result.Status)),
				zap.Error(err))
			continue
		}

		if err := s.orders.Update(ctx, &order); err != nil {
			failed++
			s.logger.Error("failed to persist reconciled order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
			continue
		}
		updated++

		s.events.Broadcast(realtime.NewOrderUpdated(realtime.OrderUpdate{
			OrderID:         order.ID.String(),
			Status:          string(order.Status),
			StartCount:      order.StartCount,
			Remains:         order.Remains,
			Charge:          order.Charge,
			ProviderOrderID: order.ProviderOrderID,
		}))
	}
	return updated, skipped, failed
}

func (s *Scheduler) addHistory(summary RunSummary) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]RunSummary{summary}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}
