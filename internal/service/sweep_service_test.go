package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/models"
)

type staticConfigs struct {
	configs []models.CommunityConfig
	err     error
}

func (s staticConfigs) ListConfigured(ctx context.Context) ([]models.CommunityConfig, error) {
	return s.configs, s.err
}

func configuredCommunity(id string) models.CommunityConfig {
	return models.CommunityConfig{CommunityID: id, RoleID: models.StringPtr("1"), ChannelID: models.StringPtr("2")}
}

func TestSweepOnceEvaluatesEveryHuman(t *testing.T) {
	directory := newFakeDirectory()
	directory.put(models.Member{CommunityID: "c1", UserID: "u1"})
	directory.put(models.Member{CommunityID: "c1", UserID: "u2"})
	directory.put(models.Member{CommunityID: "c1", UserID: "bot", Bot: true})
	directory.put(models.Member{CommunityID: "c2", UserID: "u1"})
	directory.put(models.Member{CommunityID: "c3", UserID: "u9"})

	eval := newRecordingEvaluator()
	eval.outcome = OutcomeApplied
	eval.errFor["u2"] = errors.New("boom")

	configs := staticConfigs{configs: []models.CommunityConfig{configuredCommunity("c1"), configuredCommunity("c2"), {CommunityID: "c3"}}}
	svc := NewSweepService(configs, directory, eval, nil, nil, SweepConfig{Concurrency: 2})

	report, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Communities)
	assert.Equal(t, 3, report.Members)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)

	for _, req := range eval.reqs {
		assert.Equal(t, models.TriggerSweep, req.Trigger)
		assert.NotEqual(t, "c3", req.CommunityID)
	}
}

func TestSweepOnceContainsListingFailures(t *testing.T) {
	directory := newFakeDirectory()
	directory.listErr = errors.New("gateway down")
	svc := NewSweepService(staticConfigs{configs: []models.CommunityConfig{configuredCommunity("c1")}}, directory, newRecordingEvaluator(), nil, nil, SweepConfig{})

	report, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Members)
}

func TestSweepOnceFailsWhenConfigsUnavailable(t *testing.T) {
	svc := NewSweepService(staticConfigs{err: errors.New("db down")}, newFakeDirectory(), newRecordingEvaluator(), nil, nil, SweepConfig{})
	_, err := svc.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestSweepRunStopsOnCancel(t *testing.T) {
	directory := newFakeDirectory()
	directory.put(models.Member{CommunityID: "c1", UserID: "u1"})
	eval := newRecordingEvaluator()
	svc := NewSweepService(staticConfigs{configs: []models.CommunityConfig{configuredCommunity("c1")}}, directory, eval, nil, nil, SweepConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	eval.wait(t, 1)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop")
	}
}
