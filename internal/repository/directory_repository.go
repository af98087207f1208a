package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dealflow/internal/model"
)

// DirectoryRepository stores organizations and contacts, which exist independently of deals.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

type OrganizationFilter struct {
	Type   model.OrganizationType
	Search string
	Page
}

func (r *DirectoryRepository) CreateOrganization(ctx context.Context, org *model.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *DirectoryRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *DirectoryRepository) ListOrganizations(ctx context.Context, filter OrganizationFilter) ([]model.Organization, error) {
	query := r.db.WithContext(ctx).Model(&model.Organization{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if strings.TrimSpace(filter.Search) != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	var orgs []model.Organization
	err := query.Order("name ASC").
		Limit(normalizeLimit(filter.Limit, 200)).
		Offset(normalizeOffset(filter.Offset)).
		Find(&orgs).Error
	return orgs, err
}

func (r *DirectoryRepository) UpdateOrganization(ctx context.Context, org *model.Organization) error {
	res := r.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", org.ID).
		Select("name", "type", "website", "industry", "country", "description", "updated_at").
		Updates(org)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrganization removes an organization that is on no longlist. Longlist entries are only
// ever marked DROPPED, so an organization with entries returns ErrReferenced.
func (r *DirectoryRepository) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.DealInvestor{}).Where("organization_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrReferenced
		}
		return deleteByID[model.Organization](ctx, tx, id)
	})
}

// LonglistDeals returns the deals whose longlist contains the organization.
func (r *DirectoryRepository) LonglistDeals(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.DealInvestor{}).
		Where("organization_id = ?", orgID).
		Distinct().
		Pluck("deal_id", &ids).Error
	return ids, err
}

type ContactFilter struct {
	OrganizationID *uuid.UUID
	Search         string
	Page
}

func (r *DirectoryRepository) CreateContact(ctx context.Context, contact *model.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *DirectoryRepository) GetContact(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	var contact model.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *DirectoryRepository) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := r.db.WithContext(ctx).Model(&model.Contact{})
	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}
	var contacts []model.Contact
	err := query.Order("last_name ASC").
		Limit(normalizeLimit(filter.Limit, 200)).
		Offset(normalizeOffset(filter.Offset)).
		Find(&contacts).Error
	return contacts, err
}

func (r *DirectoryRepository) UpdateContact(ctx context.Context, contact *model.Contact) error {
	res := r.db.WithContext(ctx).Model(&model.Contact{}).
		Where("id = ?", contact.ID).
		Select("organization_id", "first_name", "last_name", "email", "phone", "position", "updated_at").
		Updates(contact)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DirectoryRepository) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return deleteByID[model.Contact](ctx, r.db, id)
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	var zero T
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&zero)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
