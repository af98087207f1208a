package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/dealflow/internal/model"
)

type InvestorRepository struct {
	db *gorm.DB
}

func NewInvestorRepository(db *gorm.DB) *InvestorRepository {
	return &InvestorRepository{db: db}
}

// Add puts an organization on a deal's longlist. The (deal, organization) pair is unique.
func (r *InvestorRepository) Add(ctx context.Context, inv *model.DealInvestor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.DealInvestor{}).
			Where("deal_id = ? AND organization_id = ?", inv.DealID, inv.OrganizationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			return err
		}
		return tx.Preload("Organization").First(inv, "id = ?", inv.ID).Error
	})
}

func (r *InvestorRepository) Get(ctx context.Context, dealID, orgID uuid.UUID) (*model.DealInvestor, error) {
	var inv model.DealInvestor
	err := r.db.WithContext(ctx).
		Preload("Organization").
		First(&inv, "deal_id = ? AND organization_id = ?", dealID, orgID).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvestorRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]model.DealInvestor, error) {
	var investors []model.DealInvestor
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&investors).Error
	return investors, err
}

// ListAll returns investors across all deals that are not archived.
func (r *InvestorRepository) ListAll(ctx context.Context) ([]model.DealInvestor, error) {
	var investors []model.DealInvestor
	err := r.db.WithContext(ctx).
		Select("deal_investors.*").
		Joins("JOIN deals ON deals.id = deal_investors.deal_id").
		Where("deals.stage <> ?", model.DealStageArchived).
		Find(&investors).Error
	return investors, err
}

// Transition locks the investor row, lets apply mutate it, and writes back the status and
// milestone columns. apply returning an error aborts without writing.
func (r *InvestorRepository) Transition(
	ctx context.Context,
	dealID, orgID uuid.UUID,
	apply func(inv *model.DealInvestor) error,
	activity *model.DealActivity,
) (*model.DealInvestor, error) {
	var inv model.DealInvestor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&inv, "deal_id = ? AND organization_id = ?", dealID, orgID).Error; err != nil {
			return err
		}
		if err := apply(&inv); err != nil {
			return err
		}
		if err := tx.Model(&model.DealInvestor{}).Where("id = ?", inv.ID).
			Select("status", "nda_sent_at", "nda_signed_at", "im_sent_at", "email_sent_at", "updated_at").
			Updates(&inv).Error; err != nil {
			return err
		}
		if activity != nil {
			activity.DealID = dealID
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Organization").First(&inv, "id = ?", inv.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// UpdateNotes changes the free-text fields; nil leaves a field unchanged.
func (r *InvestorRepository) UpdateNotes(ctx context.Context, dealID, orgID uuid.UUID, notes, feedback *string) (*model.DealInvestor, error) {
	updates := map[string]interface{}{}
	if notes != nil {
		updates["notes"] = *notes
	}
	if feedback != nil {
		updates["feedback"] = *feedback
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&model.DealInvestor{}).
			Where("deal_id = ? AND organization_id = ?", dealID, orgID).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.Get(ctx, dealID, orgID)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
