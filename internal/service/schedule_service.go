package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

// ScheduleService manages tasks and calendar events. Both feed the dashboard.
type ScheduleService struct {
	base
	repo  *repository.ScheduleRepository
	deals *repository.DealRepository
}

func NewScheduleService(repo *repository.ScheduleRepository, deals *repository.DealRepository, views cache.Views, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{base: newBase(views, log), repo: repo, deals: deals}
}

func (s *ScheduleService) WithClock(now Clock) *ScheduleService {
	s.now = now
	return s
}

type TaskInput struct {
	DealID      *uuid.UUID
	Title       string
	Description string
	Priority    model.TaskPriority
	Assignee    string
	DueAt       *time.Time
}

func (s *ScheduleService) applyTask(ctx context.Context, in TaskInput, task *model.Task) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("title is required")
	}
	if in.Priority == "" {
		in.Priority = model.TaskPriorityMedium
	}
	if !in.Priority.Valid() {
		return invalid("unknown task priority %q", in.Priority)
	}
	dealID, err := s.requireDeal(ctx, in.DealID)
	if err != nil {
		return err
	}
	task.DealID = dealID
	task.Title = title
	task.Description = strings.TrimSpace(in.Description)
	task.Priority = in.Priority
	task.Assignee = strings.TrimSpace(in.Assignee)
	task.DueAt = utcPtr(in.DueAt)
	return nil
}

func (s *ScheduleService) CreateTask(ctx context.Context, p model.Principal, in TaskInput) (*model.Task, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	task := &model.Task{}
	if err := s.applyTask(ctx, in, task); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return task, nil
}

func (s *ScheduleService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.repo.ListTasks(ctx, filter)
}

func (s *ScheduleService) UpdateTask(ctx context.Context, p model.Principal, id uuid.UUID, in TaskInput) (*model.Task, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, translate(err, "task")
	}
	if err := s.applyTask(ctx, in, task); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, translate(err, "task")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return task, nil
}

func (s *ScheduleService) ToggleTask(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Task, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	task, err := s.repo.ToggleTask(ctx, id, s.now())
	if err != nil {
		return nil, translate(err, "task")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return task, nil
}

func (s *ScheduleService) DeleteTask(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if err := requireMutate(p); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return translate(err, "task")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return nil
}

type EventInput struct {
	DealID   *uuid.UUID
	Title    string
	Type     model.EventType
	StartsAt time.Time
	EndsAt   *time.Time
	Location string
	Notes    string
}

func (s *ScheduleService) applyEvent(ctx context.Context, in EventInput, event *model.CalendarEvent) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("title is required")
	}
	if in.Type == "" {
		in.Type = model.EventTypeMeeting
	}
	if !in.Type.Valid() {
		return invalid("unknown event type %q", in.Type)
	}
	if in.StartsAt.IsZero() {
		return invalid("starts_at is required")
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return invalid("ends_at must not be before starts_at")
	}
	dealID, err := s.requireDeal(ctx, in.DealID)
	if err != nil {
		return err
	}
	event.DealID = dealID
	event.Title = title
	event.Type = in.Type
	event.StartsAt = in.StartsAt.UTC()
	event.EndsAt = utcPtr(in.EndsAt)
	event.Location = strings.TrimSpace(in.Location)
	event.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (s *ScheduleService) CreateEvent(ctx context.Context, p model.Principal, in EventInput) (*model.CalendarEvent, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	event := &model.CalendarEvent{}
	if err := s.applyEvent(ctx, in, event); err != nil {
		return nil, err
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return event, nil
}

func (s *ScheduleService) ListEvents(ctx context.Context, filter repository.EventFilter) ([]model.CalendarEvent, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, invalid("to must not be before from")
	}
	return s.repo.ListEvents(ctx, filter)
}

func (s *ScheduleService) UpdateEvent(ctx context.Context, p model.Principal, id uuid.UUID, in EventInput) (*model.CalendarEvent, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, translate(err, "event")
	}
	if err := s.applyEvent(ctx, in, event); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now()
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, translate(err, "event")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return event, nil
}

func (s *ScheduleService) DeleteEvent(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if err := requireMutate(p); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return translate(err, "event")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return nil
}

func (s *ScheduleService) requireDeal(ctx context.Context, id *uuid.UUID) (*uuid.UUID, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	if _, err := s.deals.Get(ctx, *id); err != nil {
		return nil, translate(err, "deal")
	}
	return id, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
