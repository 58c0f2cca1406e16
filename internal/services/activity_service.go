package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/authcore/internal/models"
	"github.com/opsdeck/authcore/internal/store"
)

// ActivityService keeps the append-only record of authentication events.
// The full history is stored as one JSON array, oldest entry first; nothing
// is evicted.
type ActivityService struct {
	mu     sync.Mutex
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityService creates a new ActivityService
func NewActivityService(st store.Store, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Append records an authentication event.
func (s *ActivityService) Append(ctx context.Context, action string, details models.ActivityDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked(ctx)
	if err != nil {
		// An unreadable log must not block authentication; start a fresh one
		s.logger.Warn("activity log unreadable, starting a new one", slog.Any("error", err))
		entries = nil
	}

	entries = append(entries, models.ActivityLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: s.now().UTC(),
		Details:   details,
	})

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode activity log: %w", err)
	}

	return s.store.Set(ctx, store.KeyActivityLog, string(raw))
}

// Entries returns the full activity history, oldest first.
func (s *ActivityService) Entries(ctx context.Context) ([]models.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(ctx)
}

func (s *ActivityService) loadLocked(ctx context.Context) ([]models.ActivityLogEntry, error) {
	raw, err := s.store.Get(ctx, store.KeyActivityLog)
	if errors.Is(err, models.ErrNotFound) {
		return []models.ActivityLogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.ActivityLogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode activity log: %w", err)
	}
	return entries, nil
}
