package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsdeck/authcore/internal/services"
)

// LockoutSweeper periodically polls the lockout guard so an elapsed block
// window is reset and persisted promptly instead of waiting for the next
// login attempt to observe it.
type LockoutSweeper struct {
	guard    *services.LockoutService
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewLockoutSweeper creates a new lockout sweeper
func NewLockoutSweeper(guard *services.LockoutService, logger *slog.Logger, interval time.Duration) *LockoutSweeper {
	return &LockoutSweeper{
		guard:    guard,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (ls *LockoutSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(ls.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// IsBlocked resets and persists an elapsed window as a side
			// effect; the sweep only needs to trigger the read
			ls.guard.IsBlocked(ctx)
		case <-ls.stopCh:
			ls.logger.Info("lockout sweeper stopped")
			return
		case <-ctx.Done():
			ls.logger.Info("lockout sweeper context cancelled")
			return
		}
	}
}

// Stop signals the sweeper to stop
func (ls *LockoutSweeper) Stop() {
	close(ls.stopCh)
}
