package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/dealflow/internal/model"
)

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

type DealFilter struct {
	Stage  model.DealStage
	Status model.DealStatus
	Search string
	Page
}

// StageChange moves a deal into Stage at At. Author, when set, is recorded as a stage-change
// activity in the same transaction.
type StageChange struct {
	DealID uuid.UUID
	Stage  model.DealStage
	At     time.Time
	Author string
}

// Create inserts the deal and opens the history record for its initial stage.
func (r *DealRepository) Create(ctx context.Context, deal *model.Deal, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(deal).Error; err != nil {
			return err
		}
		return tx.Create(&model.DealPipelineHistory{
			DealID:    deal.ID,
			Stage:     deal.Stage,
			EnteredAt: now,
		}).Error
	})
}

func (r *DealRepository) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	var deal model.Deal
	if err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealRepository) List(ctx context.Context, filter DealFilter) ([]model.Deal, error) {
	query := r.db.WithContext(ctx).Model(&model.Deal{})
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if strings.TrimSpace(filter.Search) != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	var deals []model.Deal
	err := query.
		Order("updated_at DESC").
		Limit(normalizeLimit(filter.Limit, 200)).
		Offset(normalizeOffset(filter.Offset)).
		Find(&deals).Error
	return deals, err
}

// ListAll returns every deal; analytics read a full snapshot.
func (r *DealRepository) ListAll(ctx context.Context) ([]model.Deal, error) {
	var deals []model.Deal
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&deals).Error
	return deals, err
}

// Update writes the editable attributes. Stage and project step only change through
// AdvanceStage and SetProjectStep.
func (r *DealRepository) Update(ctx context.Context, deal *model.Deal) error {
	res := r.db.WithContext(ctx).Model(&model.Deal{}).
		Where("id = ?", deal.ID).
		Select("name", "type", "status", "expected_value", "fee_retainer", "fee_success",
			"currency", "lead_contact_id", "client_organization_id", "updated_at").
		Updates(deal)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdvanceStage closes the open history record, updates the deal's stage and opens a record for
// the new stage, all in one transaction holding the deal row lock.
func (r *DealRepository) AdvanceStage(ctx context.Context, change StageChange) (*model.DealPipelineHistory, error) {
	var opened *model.DealPipelineHistory
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deal model.Deal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&deal, "id = ?", change.DealID).Error; err != nil {
			return err
		}
		var err error
		opened, err = advanceStageTx(tx, &deal, change)
		return err
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

// SetProjectStep sets the deal's current step. With syncStage, a step whose coarse stage differs
// from the deal's stage also advances the stage in the same transaction; stageOf maps steps to
// stages. The returned history record is nil when the stage did not change.
func (r *DealRepository) SetProjectStep(
	ctx context.Context,
	dealID uuid.UUID,
	step model.ProjectStep,
	syncStage bool,
	stageOf func(model.ProjectStep) model.DealStage,
	at time.Time,
	author string,
) (*model.Deal, *model.DealPipelineHistory, error) {
	var (
		deal   model.Deal
		opened *model.DealPipelineHistory
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&deal, "id = ?", dealID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Deal{}).Where("id = ?", dealID).
			Updates(map[string]interface{}{"project_step": step, "updated_at": at}).Error; err != nil {
			return err
		}
		deal.ProjectStep = step
		deal.UpdatedAt = at

		if !syncStage || deal.Stage == model.DealStageArchived {
			return nil
		}
		target := stageOf(step)
		if target == deal.Stage {
			return nil
		}
		var err error
		opened, err = advanceStageTx(tx, &deal, StageChange{DealID: dealID, Stage: target, At: at, Author: author})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &deal, opened, nil
}

func advanceStageTx(tx *gorm.DB, deal *model.Deal, change StageChange) (*model.DealPipelineHistory, error) {
	if err := tx.Model(&model.DealPipelineHistory{}).
		Where("deal_id = ? AND exited_at IS NULL", deal.ID).
		Update("exited_at", change.At).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.Deal{}).Where("id = ?", deal.ID).
		Updates(map[string]interface{}{"stage": change.Stage, "updated_at": change.At}).Error; err != nil {
		return nil, err
	}
	opened := &model.DealPipelineHistory{
		DealID:    deal.ID,
		Stage:     change.Stage,
		EnteredAt: change.At,
	}
	if err := tx.Create(opened).Error; err != nil {
		return nil, err
	}
	if change.Author != "" {
		activity := &model.DealActivity{
			DealID:    deal.ID,
			Author:    change.Author,
			Kind:      model.ActivityKindStageChange,
			Body:      string(deal.Stage) + " -> " + string(change.Stage),
			CreatedAt: change.At,
		}
		if err := tx.Create(activity).Error; err != nil {
			return nil, err
		}
	}
	deal.Stage = change.Stage
	deal.UpdatedAt = change.At
	return opened, nil
}

func (r *DealRepository) History(ctx context.Context, dealID uuid.UUID) ([]model.DealPipelineHistory, error) {
	var history []model.DealPipelineHistory
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("entered_at ASC").
		Order("exited_at IS NULL").
		Order("exited_at ASC").
		Find(&history).Error
	return history, err
}

// UpdatePortal toggles the client portal. A nil passwordHash keeps the stored hash; an empty one
// clears it.
func (r *DealRepository) UpdatePortal(ctx context.Context, dealID uuid.UUID, enabled bool, passwordHash *string) error {
	updates := map[string]interface{}{"portal_enabled": enabled}
	if passwordHash != nil {
		updates["portal_password_hash"] = *passwordHash
	}
	res := r.db.WithContext(ctx).Model(&model.Deal{}).Where("id = ?", dealID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DealRepository) AddTeamMember(ctx context.Context, member *model.DealTeamMember) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.DealTeamMember{}).
		Where("deal_id = ? AND user_id = ?", member.DealID, member.UserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *DealRepository) ListTeam(ctx context.Context, dealID uuid.UUID) ([]model.DealTeamMember, error) {
	var members []model.DealTeamMember
	err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *DealRepository) RemoveTeamMember(ctx context.Context, dealID, memberID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("deal_id = ? AND id = ?", dealID, memberID).Delete(&model.DealTeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DealRepository) AddActivity(ctx context.Context, activity *model.DealActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *DealRepository) ListActivities(ctx context.Context, dealID uuid.UUID, page Page) ([]model.DealActivity, error) {
	var activities []model.DealActivity
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Limit(normalizeLimit(page.Limit, 100)).
		Offset(normalizeOffset(page.Offset)).
		Find(&activities).Error
	return activities, err
}

func (r *DealRepository) CreateDocument(ctx context.Context, doc *model.DealDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DealRepository) ListDocuments(ctx context.Context, dealID uuid.UUID) ([]model.DealDocument, error) {
	var docs []model.DealDocument
	err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *DealRepository) GetDocument(ctx context.Context, dealID, docID uuid.UUID) (*model.DealDocument, error) {
	var doc model.DealDocument
	if err := r.db.WithContext(ctx).First(&doc, "deal_id = ? AND id = ?", dealID, docID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
