package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/keylock"
)

// Evaluation outcomes, also used as metric labels.
const (
	OutcomeApplied        = "applied"
	OutcomeNoop           = "noop"
	OutcomeUnconfigured   = "unconfigured"
	OutcomeUnknownUser    = "unknown_user"
	OutcomeSkippedBot     = "skipped_bot"
	OutcomeSkippedOffline = "skipped_offline"
	OutcomeFailed         = "failed"
)

// Directory is the external system of record for members and roles.
// AddRole and RemoveRole must be idempotent.
type Directory interface {
	FetchMember(ctx context.Context, communityID, userID string) (*models.Member, error)
	AddRole(ctx context.Context, communityID, userID, roleID string) error
	RemoveRole(ctx context.Context, communityID, userID, roleID string) error
	SendMessage(ctx context.Context, communityID, channelID string, msg models.Announcement) error
}

type configReader interface {
	Get(ctx context.Context, communityID string) (*models.CommunityConfig, error)
}

type announcementLedger interface {
	Contains(ctx context.Context, communityID, userID string) (bool, error)
	Add(ctx context.Context, communityID, userID string) error
}

// EngineConfig holds the detection policy.
type EngineConfig struct {
	Tag           string
	Footer        string
	IgnoreOffline bool
}

// ReconcileResult describes one finished evaluation.
type ReconcileResult struct {
	Request    models.EvaluationRequest `json:"request"`
	Outcome    string                   `json:"outcome"`
	TagPresent bool                     `json:"tag_present"`
	HadRole    bool                     `json:"had_role"`
	Announced  bool                     `json:"was_announced"`
	Planned    []models.Action          `json:"planned"`
	Applied    []models.Action          `json:"applied"`
}

// Decide maps a snapshot onto the actions needed to converge. The role
// decision and the announcement decision are derived independently.
func Decide(cfg *models.CommunityConfig, snapshot models.Snapshot, wasAnnounced bool, tag string) []models.Action {
	if !cfg.Configured() {
		return nil
	}
	base := models.Action{CommunityID: snapshot.CommunityID, UserID: snapshot.UserID}

	if !EvaluateTag(snapshot.Signals, tag) {
		if !snapshot.CurrentlyHasRole {
			return nil
		}
		revoke := base
		revoke.Kind = models.ActionRevokeRole
		revoke.RoleID = cfg.Role()
		return []models.Action{revoke}
	}

	var actions []models.Action
	if !snapshot.CurrentlyHasRole {
		grant := base
		grant.Kind = models.ActionGrantRole
		grant.RoleID = cfg.Role()
		actions = append(actions, grant)
	}
	if !wasAnnounced {
		announce := base
		announce.Kind = models.ActionAnnounce
		announce.ChannelID = cfg.Channel()
		mark := base
		mark.Kind = models.ActionMarkAnnounced
		actions = append(actions, announce, mark)
	}
	return actions
}

// Engine reconciles one (community, user) pair at a time per key.
type Engine struct {
	configs   configReader
	ledger    announcementLedger
	directory Directory
	signals   *SignalCache
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       EngineConfig
	locks     *keylock.Locker
}

// NewEngine constructs the reconciliation engine.
func NewEngine(configs configReader, ledger announcementLedger, directory Directory, signals *SignalCache, metrics *MetricsService, logger *zap.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if signals == nil {
		signals = NewSignalCache()
	}
	return &Engine{
		configs:   configs,
		ledger:    ledger,
		directory: directory,
		signals:   signals,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		locks:     keylock.New(),
	}
}

// Signals exposes the signal cache fed by the intake.
func (e *Engine) Signals() *SignalCache {
	return e.signals
}

// Reconcile evaluates req against the latest observed signals and applies
// the resulting actions. Evaluations for the same pair never interleave.
func (e *Engine) Reconcile(ctx context.Context, req models.EvaluationRequest) (*ReconcileResult, error) {
	start := time.Now()
	unlock := e.locks.Lock(req.Key())
	defer unlock()

	result, err := e.reconcile(ctx, req)
	if errors.Is(err, appErrors.ErrUnknownUser) {
		// The member left between fetch and mutation.
		e.signals.Forget(req.CommunityID, req.UserID)
		result.Outcome = OutcomeUnknownUser
		err = nil
	}
	if err != nil {
		result.Outcome = OutcomeFailed
		e.logger.Warn("evaluation abandoned",
			zap.String("community_id", req.CommunityID),
			zap.String("user_id", req.UserID),
			zap.String("trigger", string(req.Trigger)),
			zap.Error(err))
	}
	e.metrics.ObserveEvaluation(req.Trigger, result.Outcome, time.Since(start))
	return result, err
}

func (e *Engine) reconcile(ctx context.Context, req models.EvaluationRequest) (*ReconcileResult, error) {
	result := &ReconcileResult{Request: req}

	cfg, err := e.configs.Get(ctx, req.CommunityID)
	if err != nil {
		return result, err
	}
	if !cfg.Configured() {
		result.Outcome = OutcomeUnconfigured
		return result, nil
	}

	member, err := e.directory.FetchMember(ctx, req.CommunityID, req.UserID)
	if err != nil {
		return result, asTransient(err)
	}
	if member.Bot {
		result.Outcome = OutcomeSkippedBot
		return result, nil
	}
	switch {
	case req.Trigger == models.TriggerSweep || req.Trigger == models.TriggerManual:
		if e.cfg.IgnoreOffline && !member.Online {
			result.Outcome = OutcomeSkippedOffline
			return result, nil
		}
		e.refreshStatus(member)
		e.refreshProfile(member)
	case !e.signals.HasStatus(req.CommunityID, req.UserID):
		// Nothing observed for the pair yet, e.g. a profile change right
		// after startup. Take the status from the live view.
		if e.cfg.IgnoreOffline && !member.Online {
			result.Outcome = OutcomeSkippedOffline
			return result, nil
		}
		e.refreshStatus(member)
	}

	snapshot := models.Snapshot{
		CommunityID:      req.CommunityID,
		UserID:           req.UserID,
		Signals:          e.signals.Signals(req.CommunityID, req.UserID),
		CurrentlyHasRole: member.HasRole(cfg.Role()),
	}
	announced, err := e.ledger.Contains(ctx, req.CommunityID, req.UserID)
	if err != nil {
		return result, err
	}

	result.TagPresent = EvaluateTag(snapshot.Signals, e.cfg.Tag)
	result.HadRole = snapshot.CurrentlyHasRole
	result.Announced = announced
	result.Planned = Decide(cfg, snapshot, announced, e.cfg.Tag)
	if len(result.Planned) == 0 {
		result.Outcome = OutcomeNoop
		return result, nil
	}

	if err := e.apply(ctx, cfg, result); err != nil {
		return result, err
	}
	result.Outcome = OutcomeApplied
	return result, nil
}

// refreshStatus folds the live status into the signal cache. An offline
// member shows no status, so it is cleared.
func (e *Engine) refreshStatus(member *models.Member) {
	if member.Online {
		e.signals.SetStatus(member.CommunityID, member.UserID, member.Status)
		return
	}
	e.signals.SetStatus(member.CommunityID, member.UserID, nil)
}

func (e *Engine) refreshProfile(member *models.Member) {
	if !member.Profile.Empty() {
		e.signals.SetProfile(member.UserID, member.Profile)
	}
}

func (e *Engine) apply(ctx context.Context, cfg *models.CommunityConfig, result *ReconcileResult) error {
	for _, action := range result.Planned {
		fields := []zap.Field{
			zap.String("community_id", action.CommunityID),
			zap.String("user_id", action.UserID),
			zap.String("action", string(action.Kind)),
		}

		switch action.Kind {
		case models.ActionGrantRole:
			err := e.directory.AddRole(ctx, action.CommunityID, action.UserID, action.RoleID)
			e.metrics.RecordMutation(action.Kind, err)
			if err != nil {
				return asTransient(err)
			}
			e.logger.Info("vanity role granted", append(fields, zap.String("role_id", action.RoleID))...)
		case models.ActionRevokeRole:
			err := e.directory.RemoveRole(ctx, action.CommunityID, action.UserID, action.RoleID)
			e.metrics.RecordMutation(action.Kind, err)
			if err != nil {
				return asTransient(err)
			}
			e.logger.Info("vanity role revoked", append(fields, zap.String("role_id", action.RoleID))...)
		case models.ActionAnnounce:
			msg := BuildAnnouncement(cfg, action.UserID, e.cfg.Tag, e.cfg.Footer)
			err := e.directory.SendMessage(ctx, action.CommunityID, action.ChannelID, msg)
			e.metrics.RecordAnnouncement(err)
			if err != nil {
				// The member is still marked so a lost notification is never resent.
				e.logger.Warn("announcement not delivered", append(fields, zap.Error(err))...)
				continue
			}
		case models.ActionMarkAnnounced:
			if err := e.ledger.Add(ctx, action.CommunityID, action.UserID); err != nil {
				return err
			}
		}
		result.Applied = append(result.Applied, action)
	}
	return nil
}

func asTransient(err error) error {
	if errors.Is(err, appErrors.ErrTransientDirectory) || errors.Is(err, appErrors.ErrUnknownUser) {
		return err
	}
	return appErrors.WrapAs(appErrors.ErrTransientDirectory, err, "")
}
