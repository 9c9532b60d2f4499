package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/keylock"
)

const (
	configCachePrefix = "vanity:config:"
	snowflakeRule     = "required,numeric,min=1,max=32"
)

type communityConfigRepository interface {
	Get(ctx context.Context, communityID string) (*models.CommunityConfig, error)
	Upsert(ctx context.Context, cfg *models.CommunityConfig) error
	ListConfigured(ctx context.Context) ([]models.CommunityConfig, error)
}

// ConfigService is the Config Store: reads are cached, writes go straight to
// the repository and invalidate the cache.
type ConfigService struct {
	repo      communityConfigRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	locks     *keylock.Locker

	// gens counts committed writes per community. A read only fills the
	// cache when no write committed while it was reading.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewConfigService constructs a ConfigService.
func NewConfigService(repo communityConfigRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
		locks:     keylock.New(),
		gens:      make(map[string]uint64),
	}
}

// Get returns the configuration of a community. A community that was never
// configured yields a zero configuration, not an error.
func (s *ConfigService) Get(ctx context.Context, communityID string) (*models.CommunityConfig, error) {
	var cached models.CommunityConfig
	if s.cache.Get(ctx, configCachePrefix+communityID, &cached) {
		return &cached, nil
	}

	gen := s.generation(communityID)
	cfg, err := s.repo.Get(ctx, communityID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			cfg = &models.CommunityConfig{CommunityID: communityID}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load community configuration")
		}
	}
	if s.generation(communityID) == gen {
		s.cache.Set(ctx, configCachePrefix+communityID, cfg, 0)
	}
	return cfg, nil
}

func (s *ConfigService) generation(communityID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[communityID]
}

// ListConfigured returns every community with both role and channel set.
func (s *ConfigService) ListConfigured(ctx context.Context) ([]models.CommunityConfig, error) {
	configs, err := s.repo.ListConfigured(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configured communities")
	}
	return configs, nil
}

// SetRole changes the role granted to tagged members.
func (s *ConfigService) SetRole(ctx context.Context, communityID, roleID, actor string) (*models.CommunityConfig, error) {
	if err := s.validateID("role_id", roleID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, communityID, actor, func(cfg *models.CommunityConfig) {
		cfg.RoleID = &roleID
	})
}

// SetChannel changes the channel that receives announcements.
func (s *ConfigService) SetChannel(ctx context.Context, communityID, channelID, actor string) (*models.CommunityConfig, error) {
	if err := s.validateID("channel_id", channelID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, communityID, actor, func(cfg *models.CommunityConfig) {
		cfg.ChannelID = &channelID
	})
}

// SetAnnounceText replaces the announcement body. Lines are separated by a
// newline, a literal `\n` or `{nl}`.
func (s *ConfigService) SetAnnounceText(ctx context.Context, communityID, text, actor string) (*models.CommunityConfig, error) {
	if err := s.validator.Var(strings.TrimSpace(text), "required,max=4000"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "announcement text must be 1-4000 characters")
	}
	lines := ParseAnnounceLines(text)
	return s.mutate(ctx, communityID, actor, func(cfg *models.CommunityConfig) {
		cfg.AnnounceLines = lines
	})
}

func (s *ConfigService) mutate(ctx context.Context, communityID, actor string, apply func(cfg *models.CommunityConfig)) (*models.CommunityConfig, error) {
	if err := s.validateID("community_id", communityID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(communityID)
	defer unlock()

	cfg, err := s.repo.Get(ctx, communityID)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load community configuration")
		}
		cfg = &models.CommunityConfig{CommunityID: communityID}
	}
	apply(cfg)
	if actor != "" {
		cfg.UpdatedBy = &actor
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		s.logger.Error("community configuration write failed",
			zap.String("community_id", communityID), zap.Error(err))
		return nil, appErrors.WrapAs(appErrors.ErrPersistenceWrite, err, "failed to save community configuration")
	}
	s.mu.Lock()
	s.gens[communityID]++
	s.mu.Unlock()
	_ = s.cache.Invalidate(ctx, configCachePrefix+communityID)
	s.logger.Info("community configuration updated",
		zap.String("community_id", communityID),
		zap.String("actor", actor),
		zap.Bool("configured", cfg.Configured()))
	return cfg, nil
}

func (s *ConfigService) validateID(field, value string) error {
	if err := s.validator.Var(value, snowflakeRule); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" must be a numeric id")
	}
	return nil
}

// ParseAnnounceLines splits admin-provided text into embed lines.
func ParseAnnounceLines(text string) []string {
	normalized := strings.ReplaceAll(text, "{nl}", "\n")
	normalized = strings.ReplaceAll(normalized, `\n`, "\n")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
