package executors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/backoff"
	"github.com/richardliu001/ticketing-actions/internal/broker"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
	"github.com/richardliu001/ticketing-actions/internal/testdb"
)

var testNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type sentComm struct {
	ActionID uuid.UUID
	Comm     model.Communication
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentComm
	err  error
}

func (s *fakeSender) Send(_ context.Context, id uuid.UUID, comm model.Communication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentComm{ActionID: id, Comm: comm})
	return nil
}

type fakeMarketing struct {
	reqs []broker.EventListRequest
}

func (m *fakeMarketing) PublishEventList(_ context.Context, req broker.EventListRequest) error {
	m.reqs = append(m.reqs, req)
	return nil
}

type fixture struct {
	db        *gorm.DB
	repo      *repo.Repository
	clk       *clock.MockClock
	cfg       *config.Config
	deps      Deps
	sender    *fakeSender
	marketing *fakeMarketing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	clk := clock.NewMockClock(testNow)
	log := zap.NewNop().Sugar()
	r := repo.NewRepository(db, clk, backoff.Default(), log)
	sender := &fakeSender{}
	marketing := &fakeMarketing{}

	cfg := &config.Config{}
	cfg.Actions.FinalizeSettlementsInterval = 24 * time.Hour
	cfg.Actions.RetargetInterval = time.Hour
	cfg.Actions.RetargetWindow = 24 * time.Hour
	cfg.Comms.FrontEndURL = "https://tickets.example.com/"
	cfg.Comms.PurchaseCompletedTemplateID = "tmpl-purchase"
	cfg.Comms.CustomBroadcastTemplateID = "tmpl-broadcast"
	cfg.Sitemap.APIBaseURL = "https://api.example.com"
	cfg.Sitemap.MaxFailures = 5
	cfg.Sitemap.BreakerCooldown = time.Minute
	cfg.Sitemap.Timeout = time.Second

	return &fixture{
		db:   db,
		repo: r,
		clk:  clk,
		cfg:  cfg,
		deps: Deps{
			Repo:      r,
			Book:      actions.NewBookkeeper(r, clk, log),
			Clock:     clk,
			Log:       log,
			Comms:     sender,
			Marketing: marketing,
		},
		sender:    sender,
		marketing: marketing,
	}
}

func (f *fixture) action(t *testing.T, typ model.ActionType, payload any, table *model.Table, id *uuid.UUID) *model.DomainAction {
	t.Helper()
	a, err := f.repo.ScheduleAction(context.Background(), f.db, typ, payload, table, id, f.clk.Now())
	require.NoError(t, err)
	return a
}

// run executes a through e on a fresh transaction and waits for the result.
func (f *fixture) run(t *testing.T, e actions.Executor, a *model.DomainAction) error {
	t.Helper()
	ctx := context.Background()
	conn, err := f.repo.Begin(ctx)
	require.NoError(t, err)
	return e.Execute(ctx, a, conn).Await(ctx)
}

func (f *fixture) reload(t *testing.T, a *model.DomainAction) *model.DomainAction {
	t.Helper()
	got, err := f.repo.GetDomainAction(context.Background(), f.db, a.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) actionsOfType(t *testing.T, typ model.ActionType) []model.DomainAction {
	t.Helper()
	var out []model.DomainAction
	require.NoError(t, f.db.Where("domain_action_type = ?", typ).Order("created_at").Find(&out).Error)
	return out
}

func (f *fixture) create(t *testing.T, values ...any) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, f.db.Create(v).Error)
	}
}

// seedEvent creates an event with one ticket type.
func (f *fixture) seedEvent(t *testing.T) (*model.Event, *model.TicketType) {
	t.Helper()
	start := testNow.Add(72 * time.Hour)
	ev := &model.Event{Name: "Night Market", EventStart: &start}
	f.create(t, ev)
	tt := &model.TicketType{EventID: ev.ID, Name: "GA"}
	f.create(t, tt)
	return ev, tt
}

func (f *fixture) seedUser(t *testing.T, first, email string, tokens ...string) *model.User {
	t.Helper()
	u := &model.User{}
	if first != "" {
		u.FirstName = &first
	}
	if email != "" {
		u.Email = &email
	}
	f.create(t, u)
	for _, tok := range tokens {
		f.create(t, &model.PushNotificationToken{UserID: u.ID, Token: tok})
	}
	return u
}

func (f *fixture) seedTicket(t *testing.T, tt *model.TicketType, owner *model.User, status model.TicketStatus, holdID *uuid.UUID) *model.TicketInstance {
	t.Helper()
	ti := &model.TicketInstance{TicketTypeID: tt.ID, Status: status, HoldID: holdID}
	if owner != nil {
		ti.OwnerID = &owner.ID
	}
	f.create(t, ti)
	return ti
}
