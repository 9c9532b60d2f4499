package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/noah-isme/vanity-bot/internal/models"
)

type memberLister interface {
	ListMembers(ctx context.Context, communityID string) ([]models.Member, error)
}

type configuredLister interface {
	ListConfigured(ctx context.Context) ([]models.CommunityConfig, error)
}

// SweepConfig tunes the periodic full pass.
type SweepConfig struct {
	Interval      time.Duration
	Concurrency   int
	RatePerSecond float64
}

// SweepReport summarises one pass.
type SweepReport struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Communities int           `json:"communities"`
	Members     int           `json:"members"`
	Applied     int           `json:"applied"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
}

// SweepService re-evaluates every member of every configured community to
// recover from missed events.
type SweepService struct {
	configs configuredLister
	members memberLister
	engine  evaluator
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SweepConfig
	limiter *rate.Limiter
}

// NewSweepService constructs a SweepService.
func NewSweepService(configs configuredLister, members memberLister, engine evaluator, metrics *MetricsService, logger *zap.Logger, cfg SweepConfig) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &SweepService{
		configs: configs,
		members: members,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Concurrency),
	}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *SweepService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("sweep scheduler started", zap.Duration("interval", s.cfg.Interval))
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce evaluates every member of every configured community. Failures
// are contained per member; only listing configured communities or
// cancellation fail the pass.
func (s *SweepService) SweepOnce(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: time.Now().UTC()}
	configs, err := s.configs.ListConfigured(ctx)
	if err != nil {
		return report, err
	}

	var applied, skipped, failed, members int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, cfg := range configs {
		if !cfg.Configured() {
			continue
		}
		list, err := s.members.ListMembers(gctx, cfg.CommunityID)
		if err != nil {
			s.logger.Warn("sweep could not list members",
				zap.String("community_id", cfg.CommunityID), zap.Error(err))
			atomic.AddInt64(&failed, 1)
			continue
		}
		report.Communities++

		for _, member := range list {
			if member.Bot {
				atomic.AddInt64(&skipped, 1)
				continue
			}
			members++
			req := models.EvaluationRequest{
				CommunityID: cfg.CommunityID,
				UserID:      member.UserID,
				Trigger:     models.TriggerSweep,
			}
			g.Go(func() error {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
				result, err := s.engine.Reconcile(gctx, req)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case result.Outcome == OutcomeApplied:
					atomic.AddInt64(&applied, 1)
				case result.Outcome != OutcomeNoop:
					atomic.AddInt64(&skipped, 1)
				}
				return nil
			})
		}
	}

	waitErr := g.Wait()
	report.Members = int(members)
	report.Applied = int(atomic.LoadInt64(&applied))
	report.Skipped = int(atomic.LoadInt64(&skipped))
	report.Failed = int(atomic.LoadInt64(&failed))
	report.Duration = time.Since(report.StartedAt)
	s.metrics.ObserveSweep(report.Members, report.Duration)

	s.logger.Info("sweep finished",
		zap.Int("communities", report.Communities),
		zap.Int("members", report.Members),
		zap.Int("applied", report.Applied),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, waitErr
}
