package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dealflow/internal/model"
)

// ScheduleRepository stores tasks and calendar events.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type TaskFilter struct {
	DealID    *uuid.UUID
	Assignee  string
	Completed *bool
	Page
}

func (r *ScheduleRepository) CreateTask(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *ScheduleRepository) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *ScheduleRepository) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.Assignee != "" {
		query = query.Where("assignee = ?", filter.Assignee)
	}
	if filter.Completed != nil {
		query = query.Where("is_completed = ?", *filter.Completed)
	}
	var tasks []model.Task
	err := query.Order("is_completed ASC").Order("due_at ASC").Order("created_at ASC").
		Limit(normalizeLimit(filter.Limit, 200)).
		Offset(normalizeOffset(filter.Offset)).
		Find(&tasks).Error
	return tasks, err
}

func (r *ScheduleRepository) UpdateTask(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Select("deal_id", "title", "description", "priority", "assignee", "due_at", "updated_at").
		Updates(task)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleTask flips the completion flag and stamps or clears completed_at.
func (r *ScheduleRepository) ToggleTask(ctx context.Context, id uuid.UUID, now time.Time) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		task.IsCompleted = !task.IsCompleted
		if task.IsCompleted {
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
		return tx.Model(&model.Task{}).Where("id = ?", id).
			Select("is_completed", "completed_at", "updated_at").
			Updates(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *ScheduleRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return deleteByID[model.Task](ctx, r.db, id)
}

func (r *ScheduleRepository) CountOpenTasks(ctx context.Context, now time.Time) (open int64, overdue int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&model.Task{}).Where("is_completed = ?", false).Count(&open).Error; err != nil {
		return 0, 0, err
	}
	err = db.Model(&model.Task{}).
		Where("is_completed = ? AND due_at IS NOT NULL AND due_at < ?", false, now).
		Count(&overdue).Error
	return open, overdue, err
}

type EventFilter struct {
	DealID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Page
}

func (r *ScheduleRepository) CreateEvent(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *ScheduleRepository) GetEvent(ctx context.Context, id uuid.UUID) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *ScheduleRepository) ListEvents(ctx context.Context, filter EventFilter) ([]model.CalendarEvent, error) {
	query := r.db.WithContext(ctx).Model(&model.CalendarEvent{})
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.From != nil {
		query = query.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("starts_at < ?", *filter.To)
	}
	var events []model.CalendarEvent
	err := query.Order("starts_at ASC").
		Limit(normalizeLimit(filter.Limit, 500)).
		Offset(normalizeOffset(filter.Offset)).
		Find(&events).Error
	return events, err
}

func (r *ScheduleRepository) UpdateEvent(ctx context.Context, event *model.CalendarEvent) error {
	res := r.db.WithContext(ctx).Model(&model.CalendarEvent{}).
		Where("id = ?", event.ID).
		Select("deal_id", "title", "type", "starts_at", "ends_at", "location", "notes", "updated_at").
		Updates(event)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return deleteByID[model.CalendarEvent](ctx, r.db, id)
}
