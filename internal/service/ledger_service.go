package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/keylock"
)

const ledgerLoadAttempts = 3

type ledgerRepository interface {
	ListByCommunity(ctx context.Context, communityID string) ([]models.LedgerEntry, error)
	Add(ctx context.Context, entry models.LedgerEntry) error
	Reset(ctx context.Context, communityID string) (int64, error)
}

// LedgerService tracks which users were already announced per community.
// Communities are loaded lazily into memory and reloaded once older than the
// refresh interval, so resets made by another process take effect. Every
// write reaches the repository before memory is updated.
type LedgerService struct {
	repo    ledgerRepository
	metrics *MetricsService
	logger  *zap.Logger
	locks   *keylock.Locker
	loads   singleflight.Group
	now     func() time.Time
	refresh time.Duration

	mu       sync.RWMutex
	sets     map[string]map[string]struct{}
	loadedAt map[string]time.Time
	gens     map[string]uint64
}

// NewLedgerService constructs a LedgerService. A zero refresh keeps loaded
// communities until the process exits.
func NewLedgerService(repo ledgerRepository, metrics *MetricsService, logger *zap.Logger, refresh time.Duration) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		locks:   keylock.New(),
		now:      time.Now,
		refresh:  refresh,
		sets:     make(map[string]map[string]struct{}),
		loadedAt: make(map[string]time.Time),
		gens:     make(map[string]uint64),
	}
}

// Contains reports whether userID was already announced in communityID.
func (s *LedgerService) Contains(ctx context.Context, communityID, userID string) (bool, error) {
	set, err := s.load(ctx, communityID)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := set[userID]
	return ok, nil
}

// Add marks userID as announced. The entry is durable once Add returns nil.
func (s *LedgerService) Add(ctx context.Context, communityID, userID string) error {
	unlock := s.locks.Lock(communityID)
	defer unlock()

	err := s.repo.Add(ctx, models.LedgerEntry{
		CommunityID: communityID,
		UserID:      userID,
		AnnouncedAt: s.now().UTC(),
	})
	s.metrics.RecordLedgerWrite("add", err)
	if err != nil {
		s.logger.Error("ledger write failed",
			zap.String("community_id", communityID),
			zap.String("user_id", userID),
			zap.Error(err))
		return appErrors.WrapAs(appErrors.ErrPersistenceWrite, err, "failed to record announcement")
	}

	s.mu.Lock()
	s.gens[communityID]++
	if set, ok := s.sets[communityID]; ok {
		set[userID] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Reset clears the whole ledger of a community and returns how many entries
// were removed.
func (s *LedgerService) Reset(ctx context.Context, communityID string) (int64, error) {
	unlock := s.locks.Lock(communityID)
	defer unlock()

	removed, err := s.repo.Reset(ctx, communityID)
	s.metrics.RecordLedgerWrite("reset", err)
	if err != nil {
		s.logger.Error("ledger reset failed", zap.String("community_id", communityID), zap.Error(err))
		return 0, appErrors.WrapAs(appErrors.ErrPersistenceWrite, err, "failed to reset ledger")
	}

	s.mu.Lock()
	s.gens[communityID]++
	s.sets[communityID] = make(map[string]struct{})
	s.loadedAt[communityID] = s.now()
	s.mu.Unlock()

	s.logger.Info("ledger reset", zap.String("community_id", communityID), zap.Int64("removed", removed))
	return removed, nil
}

// List returns the persisted entries of a community.
func (s *LedgerService) List(ctx context.Context, communityID string) ([]models.LedgerEntry, error) {
	entries, err := s.repo.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger")
	}
	return entries, nil
}

// cachedLocked returns the in-memory set when it is still fresh. s.mu must
// be held.
func (s *LedgerService) cachedLocked(communityID string) (map[string]struct{}, bool) {
	set, ok := s.sets[communityID]
	if !ok {
		return nil, false
	}
	if s.refresh > 0 && s.now().Sub(s.loadedAt[communityID]) >= s.refresh {
		return nil, false
	}
	return set, true
}

func (s *LedgerService) load(ctx context.Context, communityID string) (map[string]struct{}, error) {
	s.mu.RLock()
	set, ok := s.cachedLocked(communityID)
	s.mu.RUnlock()
	if ok {
		return set, nil
	}

	v, err, _ := s.loads.Do(communityID, func() (interface{}, error) {
		var loaded map[string]struct{}
		for attempt := 0; attempt < ledgerLoadAttempts; attempt++ {
			s.mu.RLock()
			gen := s.gens[communityID]
			s.mu.RUnlock()

			entries, err := s.repo.ListByCommunity(ctx, communityID)
			if err != nil {
				return nil, err
			}
			loaded = make(map[string]struct{}, len(entries))
			for _, entry := range entries {
				loaded[entry.UserID] = struct{}{}
			}

			s.mu.Lock()
			if existing, ok := s.cachedLocked(communityID); ok {
				s.mu.Unlock()
				return existing, nil
			}
			if s.gens[communityID] == gen {
				s.sets[communityID] = loaded
				s.loadedAt[communityID] = s.now()
				s.mu.Unlock()
				return loaded, nil
			}
			s.mu.Unlock()
		}
		// Writes kept racing the load; answer from the last read without caching.
		return loaded, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	return v.(map[string]struct{}), nil
}
