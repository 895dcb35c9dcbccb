package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/backoff"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
	"github.com/richardliu001/ticketing-actions/internal/service"
	"github.com/richardliu001/ticketing-actions/internal/testdb"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type server struct {
	db     *gorm.DB
	repo   *repo.Repository
	clk    *clock.MockClock
	router *gin.Engine
}

func newServer(t *testing.T, rl config.RateLimitConfig) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testdb.New(t)
	clk := clock.NewMockClock(testNow)
	log := zap.NewNop().Sugar()
	r := repo.NewRepository(db, clk, backoff.Default(), log)
	h := NewHandler(
		service.NewActionService(r, clk, log),
		service.NewBroadcastService(r, clk, log),
		service.NewHoldService(r, log),
		10*time.Minute,
	)
	return &server{db: db, repo: r, clk: clk, router: NewRouter(h, rl, log)}
}

func (s *server) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

var roomy = config.RateLimitConfig{RPS: 100, Burst: 100}

func TestHealthz(t *testing.T) {
	s := newServer(t, roomy)
	w := s.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStuckDomainActions(t *testing.T) {
	s := newServer(t, roomy)
	ctx := context.Background()
	old, err := s.repo.ScheduleAction(ctx, s.db, model.ActionUpdateGenres, nil, nil, nil, testNow.Add(-time.Hour))
	require.NoError(t, err)
	_, err = s.repo.ScheduleAction(ctx, s.db, model.ActionUpdateGenres, nil, nil, nil, testNow.Add(25*time.Minute))
	require.NoError(t, err)
	s.clk.Advance(30 * time.Minute)

	w := s.do(http.MethodGet, "/admin/stuck_domain_actions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count         int                  `json:"count"`
		DomainActions []model.DomainAction `json:"domain_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, old.ID, body.DomainActions[0].ID)
}

func TestListDomainActions_Filters(t *testing.T) {
	s := newServer(t, roomy)
	ctx := context.Background()
	holdID := uuid.New()
	want, err := s.repo.ScheduleAction(ctx, s.db, model.ActionReleaseHoldInventory, nil, model.TableHolds.Ptr(), &holdID, testNow)
	require.NoError(t, err)
	_, err = s.repo.ScheduleAction(ctx, s.db, model.ActionUpdateGenres, nil, nil, nil, testNow)
	require.NoError(t, err)

	w := s.do(http.MethodGet, "/admin/domain_actions?main_table=Holds&main_table_id="+holdID.String())
	require.Equal(t, http.StatusOK, w.Code)
	var out []model.DomainAction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, want.ID, out[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/admin/domain_actions?action_type=Nope").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/admin/domain_actions?main_table_id=42").Code)
}

func TestSendAndCancelBroadcast(t *testing.T) {
	s := newServer(t, roomy)
	msg := "Set times posted"
	b := &model.Broadcast{
		EventID:          uuid.New(),
		NotificationType: model.BroadcastCustom,
		Audience:         model.AudienceTicketHolders,
		Name:             "set times",
		Message:          &msg,
		Status:           model.BroadcastPending,
	}
	require.NoError(t, s.db.Create(b).Error)

	w := s.do(http.MethodPost, "/broadcasts/"+b.ID.String()+"/send")
	require.Equal(t, http.StatusAccepted, w.Code)
	var a model.DomainAction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, model.ActionBroadcastPushNotification, a.ActionType)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/broadcasts/"+b.ID.String()+"/send").Code)

	w = s.do(http.MethodPost, "/broadcasts/"+b.ID.String()+"/cancel")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cancelled_actions":1}`, w.Body.String())

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/broadcasts/"+b.ID.String()+"/send").Code)
}

func TestBroadcastNotFoundAndBadID(t *testing.T) {
	s := newServer(t, roomy)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/broadcasts/"+uuid.NewString()+"/send").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/broadcasts/abc/send").Code)
}

func TestScheduleHoldRelease(t *testing.T) {
	s := newServer(t, roomy)
	end := testNow.Add(time.Hour)
	h := &model.Hold{Name: "sponsors", EventID: uuid.New(), TicketTypeID: uuid.New(), HoldType: model.HoldComp, EndAt: &end}
	open := &model.Hold{Name: "open", EventID: uuid.New(), TicketTypeID: uuid.New(), HoldType: model.HoldComp}
	require.NoError(t, s.db.Create(h).Error)
	require.NoError(t, s.db.Create(open).Error)

	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/holds/"+h.ID.String()+"/schedule_release").Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/holds/"+h.ID.String()+"/schedule_release").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/holds/"+open.ID.String()+"/schedule_release").Code)
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 1, Burst: 2})
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/healthz").Code)
}
