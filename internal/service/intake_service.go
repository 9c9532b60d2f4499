package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/jobs"
)

const evaluationJobType = "evaluate_member"

// Intake dispositions, used as metric labels.
const (
	DispositionQueued         = "queued"
	DispositionIgnoredOffline = "ignored_offline"
	DispositionDropped        = "dropped"
	DispositionNoCommunities  = "no_communities"
)

type evaluator interface {
	Reconcile(ctx context.Context, req models.EvaluationRequest) (*ReconcileResult, error)
}

type communityResolver interface {
	SharedCommunities(ctx context.Context, userID string) ([]string, error)
}

// IntakeConfig configures the intake worker pool.
type IntakeConfig struct {
	Workers       int
	BufferSize    int
	Retries       int
	RetryDelay    time.Duration
	IgnoreOffline bool
}

// IntakeService turns status and profile events into evaluation requests and
// runs them on a worker pool.
type IntakeService struct {
	engine        evaluator
	signals       *SignalCache
	communities   communityResolver
	queue         *jobs.Queue
	metrics       *MetricsService
	logger        *zap.Logger
	ignoreOffline bool
}

// NewIntakeService wires the intake queue. Call Start before feeding events.
func NewIntakeService(engine evaluator, signals *SignalCache, communities communityResolver, metrics *MetricsService, logger *zap.Logger, cfg IntakeConfig) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if signals == nil {
		signals = NewSignalCache()
	}
	svc := &IntakeService{
		engine:        engine,
		signals:       signals,
		communities:   communities,
		metrics:       metrics,
		logger:        logger,
		ignoreOffline: cfg.IgnoreOffline,
	}
	svc.queue = jobs.NewQueue("intake", svc.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *IntakeService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *IntakeService) Stop() {
	s.queue.Stop()
}

// Pending returns the number of queued evaluations.
func (s *IntakeService) Pending() int {
	return s.queue.Pending()
}

// HandleStatusChange records the new status and schedules an evaluation of
// the pair. Bio and pronouns come from the last cached profile.
func (s *IntakeService) HandleStatusChange(ctx context.Context, event models.StatusChange) error {
	if event.CommunityID == "" || event.UserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "community_id and user_id are required")
	}
	if event.Offline {
		if s.ignoreOffline {
			s.metrics.RecordIntake("status", DispositionIgnoredOffline)
			return nil
		}
		event.Status = nil
	}
	s.signals.SetStatus(event.CommunityID, event.UserID, event.Status)

	return s.schedule(ctx, "status", models.EvaluationRequest{
		CommunityID: event.CommunityID,
		UserID:      event.UserID,
		Trigger:     models.TriggerStatus,
	})
}

// HandleProfileChange records the new profile and fans out one evaluation per
// community shared with the user. It returns how many were scheduled.
func (s *IntakeService) HandleProfileChange(ctx context.Context, event models.ProfileChange) (int, error) {
	if event.UserID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "user_id is required")
	}
	s.signals.SetProfile(event.UserID, event.Profile)

	communities, err := s.communities.SharedCommunities(ctx, event.UserID)
	if err != nil {
		return 0, asTransient(err)
	}
	if len(communities) == 0 {
		s.metrics.RecordIntake("profile", DispositionNoCommunities)
		return 0, nil
	}

	scheduled := 0
	var errs []error
	for _, communityID := range communities {
		err := s.schedule(ctx, "profile", models.EvaluationRequest{
			CommunityID: communityID,
			UserID:      event.UserID,
			Trigger:     models.TriggerProfile,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scheduled++
	}
	return scheduled, errors.Join(errs...)
}

// RequestEvaluation schedules an evaluation without touching cached signals.
func (s *IntakeService) RequestEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	if req.Trigger == "" {
		req.Trigger = models.TriggerManual
	}
	return s.schedule(ctx, string(req.Trigger), req)
}

func (s *IntakeService) schedule(ctx context.Context, kind string, req models.EvaluationRequest) error {
	err := s.queue.TryEnqueue(jobs.Job{
		Type:    evaluationJobType,
		Key:     req.Key(),
		Payload: req,
	})
	if err != nil {
		s.metrics.RecordIntake(kind, DispositionDropped)
		s.logger.Warn("evaluation dropped",
			zap.String("community_id", req.CommunityID),
			zap.String("user_id", req.UserID),
			zap.String("trigger", string(req.Trigger)),
			zap.Error(err))
		return appErrors.WrapAs(appErrors.ErrUnavailable, err, "intake queue unavailable")
	}
	s.metrics.RecordIntake(kind, DispositionQueued)
	return nil
}

func (s *IntakeService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.EvaluationRequest)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	_, err := s.engine.Reconcile(ctx, req)
	return err
}
