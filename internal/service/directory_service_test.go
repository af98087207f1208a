package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
)

func TestDirectoryService_Organizations(t *testing.T) {
	e := newEnv(t)

	_, err := e.dirSvc.CreateOrganization(e.ctx, advisor, OrganizationInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.dirSvc.CreateOrganization(e.ctx, advisor, OrganizationInput{Name: "x", Type: "BANK"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	org, err := e.dirSvc.CreateOrganization(e.ctx, advisor, OrganizationInput{Name: " Acme GmbH ", Type: model.OrganizationTypeCompany})
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", org.Name)
	e.createInvestorOrg(t, "Northwind Capital")

	investors, err := e.dirSvc.ListOrganizations(e.ctx, repository.OrganizationFilter{Type: model.OrganizationTypeInvestor})
	require.NoError(t, err)
	require.Len(t, investors, 1)
	assert.Equal(t, "Northwind Capital", investors[0].Name)

	updated, err := e.dirSvc.UpdateOrganization(e.ctx, advisor, org.ID, OrganizationInput{Name: "Acme AG", Type: model.OrganizationTypeCompany, Country: "DE"})
	require.NoError(t, err)
	assert.Equal(t, "Acme AG", updated.Name)

	assert.ErrorIs(t, e.dirSvc.DeleteOrganization(e.ctx, advisor, org.ID), ErrPermissionDenied)
	require.NoError(t, e.dirSvc.DeleteOrganization(e.ctx, admin, org.ID))
	_, err = e.dirSvc.GetOrganization(e.ctx, org.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryService_Contacts(t *testing.T) {
	e := newEnv(t)
	org := e.createInvestorOrg(t, "Northwind Capital")

	_, err := e.dirSvc.CreateContact(e.ctx, advisor, ContactInput{FirstName: "Ann"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.dirSvc.CreateContact(e.ctx, advisor, ContactInput{LastName: "Lee", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	missing := uuid.New()
	_, err = e.dirSvc.CreateContact(e.ctx, advisor, ContactInput{LastName: "Lee", OrganizationID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	contact, err := e.dirSvc.CreateContact(e.ctx, advisor, ContactInput{FirstName: "Ann", LastName: "Lee", Email: "ann@northwind.example", OrganizationID: &org.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", contact.FullName())

	found, err := e.dirSvc.ListContacts(e.ctx, repository.ContactFilter{Search: "northwind"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, e.dirSvc.DeleteContact(e.ctx, advisor, contact.ID))
	assert.ErrorIs(t, e.dirSvc.DeleteContact(e.ctx, advisor, contact.ID), ErrNotFound)
}

func TestDirectoryService_OrganizationOnLonglist(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Falcon")
	org := e.createInvestorOrg(t, "Northwind Capital")
	require.NoError(t, e.investors.Add(e.ctx, &model.DealInvestor{
		DealID:         deal.ID,
		OrganizationID: org.ID,
		Status:         model.InvestorStatusLonglist,
	}))

	_, err := e.dealSvc.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	require.True(t, e.views.has(cache.KeyDeal(deal.ID)))

	_, err = e.dirSvc.UpdateOrganization(e.ctx, advisor, org.ID, OrganizationInput{Name: "Northwind Partners", Type: model.OrganizationTypeInvestor})
	require.NoError(t, err)
	assert.False(t, e.views.has(cache.KeyDeal(deal.ID)))
	assert.Contains(t, e.views.invalidated, cache.KeyPortal(deal.ID))

	view, err := e.dealSvc.Get(e.ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, view.Investors, 1)
	assert.Equal(t, "Northwind Partners", view.Investors[0].OrganizationName())

	err = e.dirSvc.DeleteOrganization(e.ctx, admin, org.ID)
	assert.ErrorIs(t, err, ErrConflict)
	investors, err := e.investors.ListByDeal(e.ctx, deal.ID)
	require.NoError(t, err)
	assert.Len(t, investors, 1)
	_, err = e.dirSvc.GetOrganization(e.ctx, org.ID)
	assert.NoError(t, err)
}
