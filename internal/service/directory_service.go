package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

// DirectoryService manages organizations and contacts.
type DirectoryService struct {
	base
	repo *repository.DirectoryRepository
}

func NewDirectoryService(repo *repository.DirectoryRepository, views cache.Views, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{base: newBase(views, log), repo: repo}
}

type OrganizationInput struct {
	Name        string
	Type        model.OrganizationType
	Website     string
	Industry    string
	Country     string
	Description string
}

func (in OrganizationInput) apply(org *model.Organization) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name is required")
	}
	if in.Type == "" {
		in.Type = model.OrganizationTypeInvestor
	}
	if !in.Type.Valid() {
		return invalid("unknown organization type %q", in.Type)
	}
	org.Name = name
	org.Type = in.Type
	org.Website = strings.TrimSpace(in.Website)
	org.Industry = strings.TrimSpace(in.Industry)
	org.Country = strings.TrimSpace(in.Country)
	org.Description = strings.TrimSpace(in.Description)
	return nil
}

func (s *DirectoryService) CreateOrganization(ctx context.Context, p model.Principal, in OrganizationInput) (*model.Organization, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	org := &model.Organization{}
	if err := in.apply(org); err != nil {
		return nil, err
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *DirectoryService) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return nil, translate(err, "organization")
	}
	return org, nil
}

func (s *DirectoryService) ListOrganizations(ctx context.Context, filter repository.OrganizationFilter) ([]model.Organization, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalid("unknown organization type %q", filter.Type)
	}
	return s.repo.ListOrganizations(ctx, filter)
}

// UpdateOrganization replaces the editable fields and drops the cached views of every deal that
// has the organization on its longlist.
func (s *DirectoryService) UpdateOrganization(ctx context.Context, p model.Principal, id uuid.UUID, in OrganizationInput) (*model.Organization, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return nil, translate(err, "organization")
	}
	if err := in.apply(org); err != nil {
		return nil, err
	}
	org.UpdatedAt = s.now()
	if err := s.repo.UpdateOrganization(ctx, org); err != nil {
		return nil, translate(err, "organization")
	}
	dealIDs, err := s.repo.LonglistDeals(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("organization_id", id.String()).Msg("list longlist deals")
	}
	for _, dealID := range dealIDs {
		s.invalidate(ctx, cache.DealViews(dealID)...)
	}
	return org, nil
}

// DeleteOrganization is refused with ErrConflict while the organization is on a longlist.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return ErrPermissionDenied
	}
	if err := s.repo.DeleteOrganization(ctx, id); err != nil {
		return translate(err, "organization")
	}
	s.invalidate(ctx, cache.KeyDashboard)
	return nil
}

type ContactInput struct {
	OrganizationID *uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Position       string
}

func (in ContactInput) apply(contact *model.Contact) error {
	last := strings.TrimSpace(in.LastName)
	if last == "" {
		return invalid("last_name is required")
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return invalid("invalid email %q", email)
		}
	}
	contact.OrganizationID = in.OrganizationID
	if contact.OrganizationID != nil {
		contact.OrganizationID = nilIfZero(*in.OrganizationID)
	}
	contact.FirstName = strings.TrimSpace(in.FirstName)
	contact.LastName = last
	contact.Email = email
	contact.Phone = strings.TrimSpace(in.Phone)
	contact.Position = strings.TrimSpace(in.Position)
	return nil
}

func (s *DirectoryService) CreateContact(ctx context.Context, p model.Principal, in ContactInput) (*model.Contact, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	contact := &model.Contact{}
	if err := in.apply(contact); err != nil {
		return nil, err
	}
	if err := s.requireOrganization(ctx, contact.OrganizationID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *DirectoryService) GetContact(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	contact, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, translate(err, "contact")
	}
	return contact, nil
}

func (s *DirectoryService) ListContacts(ctx context.Context, filter repository.ContactFilter) ([]model.Contact, error) {
	return s.repo.ListContacts(ctx, filter)
}

func (s *DirectoryService) UpdateContact(ctx context.Context, p model.Principal, id uuid.UUID, in ContactInput) (*model.Contact, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	contact, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, translate(err, "contact")
	}
	if err := in.apply(contact); err != nil {
		return nil, err
	}
	if err := s.requireOrganization(ctx, contact.OrganizationID); err != nil {
		return nil, err
	}
	contact.UpdatedAt = s.now()
	if err := s.repo.UpdateContact(ctx, contact); err != nil {
		return nil, translate(err, "contact")
	}
	return contact, nil
}

func (s *DirectoryService) DeleteContact(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if err := requireMutate(p); err != nil {
		return err
	}
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		return translate(err, "contact")
	}
	return nil
}

func (s *DirectoryService) requireOrganization(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.GetOrganization(ctx, *id); err != nil {
		return translate(err, "organization")
	}
	return nil
}
