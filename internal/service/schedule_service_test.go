package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

func TestScheduleService_Tasks(t *testing.T) {
	e := newEnv(t)
	sched := NewScheduleService(e.schedule, e.deals, e.views, zerolog.Nop()).WithClock(e.clock.Now)
	deal := e.createDeal(t, "Project Lark")

	_, err := sched.CreateTask(e.ctx, advisor, TaskInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = sched.CreateTask(e.ctx, advisor, TaskInput{Title: "x", Priority: "URGENT"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	missing := uuid.New()
	_, err = sched.CreateTask(e.ctx, advisor, TaskInput{Title: "x", DealID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	task, err := sched.CreateTask(e.ctx, advisor, TaskInput{Title: "Draft IM", DealID: &deal.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskPriorityMedium, task.Priority)

	done, err := sched.ToggleTask(e.ctx, advisor, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, e.clock.Now().Equal(*done.CompletedAt))

	reopened, err := sched.ToggleTask(e.ctx, advisor, task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsCompleted)
	assert.Nil(t, reopened.CompletedAt)

	updated, err := sched.UpdateTask(e.ctx, advisor, task.ID, TaskInput{Title: "Draft IM v2", Priority: model.TaskPriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "Draft IM v2", updated.Title)
	assert.Nil(t, updated.DealID)

	tasks, err := sched.ListTasks(e.ctx, repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, sched.DeleteTask(e.ctx, advisor, task.ID))
	assert.ErrorIs(t, sched.DeleteTask(e.ctx, advisor, task.ID), ErrNotFound)
	assert.ErrorIs(t, sched.DeleteTask(e.ctx, viewer, task.ID), ErrPermissionDenied)
}

func TestScheduleService_Events(t *testing.T) {
	e := newEnv(t)
	sched := NewScheduleService(e.schedule, e.deals, e.views, zerolog.Nop()).WithClock(e.clock.Now)
	start := e.clock.Now().Add(time.Hour)
	before := start.Add(-2 * time.Hour)

	_, err := sched.CreateEvent(e.ctx, advisor, EventInput{Title: "Call"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = sched.CreateEvent(e.ctx, advisor, EventInput{Title: "Call", StartsAt: start, EndsAt: &before})
	assert.ErrorIs(t, err, ErrInvalidInput)

	event, err := sched.CreateEvent(e.ctx, advisor, EventInput{Title: "Call", Type: model.EventTypeCall, StartsAt: start})
	require.NoError(t, err)

	from := e.clock.Now()
	to := from.Add(2 * time.Hour)
	events, err := sched.ListEvents(e.ctx, repository.EventFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = sched.ListEvents(e.ctx, repository.EventFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, ErrInvalidInput)

	later := start.Add(24 * time.Hour)
	updated, err := sched.UpdateEvent(e.ctx, advisor, event.ID, EventInput{Title: "Call moved", Type: model.EventTypeCall, StartsAt: later})
	require.NoError(t, err)
	assert.True(t, later.Equal(updated.StartsAt))

	require.NoError(t, sched.DeleteEvent(e.ctx, advisor, event.ID))
}
