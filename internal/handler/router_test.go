package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vanity-bot/internal/models"
	"github.com/noah-isme/vanity-bot/internal/service"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
)

type configServiceMock struct {
	cfg     *models.CommunityConfig
	err     error
	actor   string
	lastSet string
}

func (m *configServiceMock) Get(ctx context.Context, communityID string) (*models.CommunityConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cfg == nil {
		return &models.CommunityConfig{CommunityID: communityID}, nil
	}
	return m.cfg, nil
}

func (m *configServiceMock) set(communityID, value, actor string) (*models.CommunityConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.actor = actor
	m.lastSet = value
	return &models.CommunityConfig{CommunityID: communityID}, nil
}

func (m *configServiceMock) SetRole(ctx context.Context, communityID, roleID, actor string) (*models.CommunityConfig, error) {
	return m.set(communityID, roleID, actor)
}

func (m *configServiceMock) SetChannel(ctx context.Context, communityID, channelID, actor string) (*models.CommunityConfig, error) {
	return m.set(communityID, channelID, actor)
}

func (m *configServiceMock) SetAnnounceText(ctx context.Context, communityID, text, actor string) (*models.CommunityConfig, error) {
	return m.set(communityID, text, actor)
}

type ledgerServiceMock struct {
	entries []models.LedgerEntry
	resets  int
}

func (m *ledgerServiceMock) List(ctx context.Context, communityID string) ([]models.LedgerEntry, error) {
	return m.entries, nil
}

func (m *ledgerServiceMock) Reset(ctx context.Context, communityID string) (int64, error) {
	m.resets++
	return int64(len(m.entries)), nil
}

type reconcilerMock struct {
	req models.EvaluationRequest
	err error
}

func (m *reconcilerMock) Reconcile(ctx context.Context, req models.EvaluationRequest) (*service.ReconcileResult, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &service.ReconcileResult{Request: req, Outcome: service.OutcomeNoop}, nil
}

type intakeMock struct {
	status  *models.StatusChange
	profile *models.ProfileChange
}

func (m *intakeMock) HandleStatusChange(ctx context.Context, event models.StatusChange) error {
	m.status = &event
	return nil
}

func (m *intakeMock) HandleProfileChange(ctx context.Context, event models.ProfileChange) (int, error) {
	m.profile = &event
	return 2, nil
}

type schedulerMock struct {
	req *models.EvaluationRequest
}

func (m *schedulerMock) RequestEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	m.req = &req
	return nil
}

type sweeperMock struct{}

func (sweeperMock) SweepOnce(ctx context.Context) (*service.SweepReport, error) {
	return &service.SweepReport{Communities: 1, Members: 3}, nil
}

type routerFixture struct {
	router  *gin.Engine
	auth    *service.AuthService
	configs *configServiceMock
	ledger  *ledgerServiceMock
	engine  *reconcilerMock
	intake  *intakeMock
	queue   *schedulerMock
}

func newRouterFixture(t *testing.T, checks map[string]ReadinessCheck) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		auth:    service.NewAuthService(nil, nil, service.AuthConfig{Secret: "secret"}),
		configs: &configServiceMock{},
		ledger:  &ledgerServiceMock{},
		engine:  &reconcilerMock{},
		intake:  &intakeMock{},
		queue:   &schedulerMock{},
	}
	f.router = NewRouter(RouterConfig{
		Auth:      f.auth,
		Community: NewCommunityHandler(f.configs, f.ledger, f.engine, f.queue),
		Events:    NewEventHandler(f.intake),
		Ops:       NewMetricsHandler(service.NewMetricsService(), sweeperMock{}, checks, func() int { return 7 }),
	})
	return f
}

func (f *routerFixture) token(t *testing.T, role models.OperatorRole) string {
	t.Helper()
	token, _, err := f.auth.GenerateToken(service.TokenRequest{Operator: "ops", Role: role, TTL: time.Hour})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouterRequiresToken(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(http.MethodGet, "/v1/communities/1/config", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/v1/communities/1/config", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/v1/communities/1/config", f.token(t, models.OperatorIngest), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/v1/communities/1/config", f.token(t, models.OperatorAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configured":false`)
}

func TestRouterConfigWrites(t *testing.T) {
	f := newRouterFixture(t, nil)
	admin := f.token(t, models.OperatorAdmin)

	w := f.do(http.MethodPut, "/v1/communities/1/config/role", admin, map[string]string{"role_id": "55"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "55", f.configs.lastSet)
	assert.Equal(t, "api:ops", f.configs.actor)

	w = f.do(http.MethodPut, "/v1/communities/1/config/channel", admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/v1/communities/1/config/message", admin, map[string]string{"text": "a{nl}b"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a{nl}b", f.configs.lastSet)

	f.configs.err = appErrors.Clone(appErrors.ErrValidation, "role_id must be a numeric id")
	w = f.do(http.MethodPut, "/v1/communities/1/config/role", admin, map[string]string{"role_id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestRouterLedgerAndEvaluate(t *testing.T) {
	f := newRouterFixture(t, nil)
	admin := f.token(t, models.OperatorAdmin)
	f.ledger.entries = []models.LedgerEntry{{CommunityID: "1", UserID: "2", AnnouncedAt: time.Now()}}

	w := f.do(http.MethodGet, "/v1/communities/1/ledger", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = f.do(http.MethodGet, "/v1/communities/1/ledger?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "community_id,user_id,announced_at\n1,2,")

	w = f.do(http.MethodGet, "/v1/communities/1/ledger?format=xml", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, "/v1/communities/1/ledger", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.ledger.resets)
	assert.Contains(t, w.Body.String(), `"removed":1`)

	w = f.do(http.MethodPost, "/v1/communities/1/members/2/evaluate", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EvaluationRequest{CommunityID: "1", UserID: "2", Trigger: models.TriggerManual}, f.engine.req)

	w = f.do(http.MethodPost, "/v1/communities/1/members/3/evaluate?async=true", admin, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, f.queue.req)
	assert.Equal(t, "3", f.queue.req.UserID)
	assert.Equal(t, models.TriggerManual, f.queue.req.Trigger)

	f.engine.err = appErrors.WrapAs(appErrors.ErrTransientDirectory, errors.New("timeout"), "")
	w = f.do(http.MethodPost, "/v1/communities/1/members/2/evaluate", admin, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRouterEventIngest(t *testing.T) {
	f := newRouterFixture(t, nil)
	ingest := f.token(t, models.OperatorIngest)

	w := f.do(http.MethodPost, "/v1/events/status", ingest, map[string]interface{}{"community_id": "1", "user_id": "2", "status": "/vanir"})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, f.intake.status)
	assert.Equal(t, "/vanir", *f.intake.status.Status)

	w = f.do(http.MethodPost, "/v1/events/status", ingest, map[string]interface{}{"community_id": "abc", "user_id": "2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/v1/events/profile", ingest, map[string]interface{}{"user_id": "2", "bio": ""})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"scheduled":2`)
	require.NotNil(t, f.intake.profile.Profile.Bio)
	assert.Equal(t, "", *f.intake.profile.Profile.Bio)
	assert.Nil(t, f.intake.profile.Profile.Pronouns)
}

func TestRouterOperations(t *testing.T) {
	f := newRouterFixture(t, map[string]ReadinessCheck{
		"gateway": func(ctx context.Context) error { return errors.New("not connected") },
	})

	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not connected")

	w = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	admin := f.token(t, models.OperatorAdmin)
	w = f.do(http.MethodPost, "/v1/sweeps", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"members":3`)

	w = f.do(http.MethodGet, "/v1/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requests_total")
	assert.Contains(t, w.Body.String(), `"intake_pending":7`)
}
