package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/db/dbtest"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

var (
	advisor = model.Principal{UserID: "u-1", DisplayName: "Ada Advisor", Role: model.RoleAdvisor}
	viewer  = model.Principal{UserID: "u-2", DisplayName: "Vic Viewer", Role: model.RoleViewer}
	admin   = model.Principal{UserID: "u-0", DisplayName: "Root", Role: model.RoleAdmin}
)

// memViews is an in-memory view cache that remembers what was invalidated.
type memViews struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated []string
}

func newMemViews() *memViews { return &memViews{data: map[string][]byte{}} }

func (m *memViews) Get(_ context.Context, key string, dst interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (m *memViews) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memViews) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		m.invalidated = append(m.invalidated, key)
	}
	return nil
}

func (m *memViews) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// testClock starts at a fixed instant and moves only when told to.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type env struct {
	ctx       context.Context
	clock     *testClock
	views     *memViews
	deals     *repository.DealRepository
	investors *repository.InvestorRepository
	directory *repository.DirectoryRepository
	schedule  *repository.ScheduleRepository
	dealSvc   *DealService
	dirSvc    *DirectoryService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database := dbtest.Open(t)
	e := &env{
		ctx:       context.Background(),
		clock:     newTestClock(),
		views:     newMemViews(),
		deals:     repository.NewDealRepository(database),
		investors: repository.NewInvestorRepository(database),
		directory: repository.NewDirectoryRepository(database),
		schedule:  repository.NewScheduleRepository(database),
	}
	e.dealSvc = NewDealService(e.deals, e.investors, e.views, zerolog.Nop()).WithClock(e.clock.Now)
	e.dirSvc = NewDirectoryService(e.directory, e.views, zerolog.Nop())
	return e
}

func (e *env) createDeal(t *testing.T, name string) *model.Deal {
	t.Helper()
	deal, err := e.dealSvc.Create(e.ctx, advisor, CreateDealInput{Name: name, Type: model.DealTypeSellSide})
	require.NoError(t, err)
	return deal
}

func (e *env) createInvestorOrg(t *testing.T, name string) *model.Organization {
	t.Helper()
	org, err := e.dirSvc.CreateOrganization(e.ctx, advisor, OrganizationInput{Name: name, Type: model.OrganizationTypeInvestor})
	require.NoError(t, err)
	return org
}
