package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DealInvestor is one organization's participation in one deal's longlist.
type DealInvestor struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DealID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_deal_investor" json:"deal_id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_deal_investor" json:"organization_id"`
	Status         InvestorStatus `gorm:"type:varchar(32);not null" json:"status"`
	NDASentAt      *time.Time     `json:"nda_sent_at,omitempty"`
	NDASignedAt    *time.Time     `json:"nda_signed_at,omitempty"`
	IMSentAt       *time.Time     `json:"im_sent_at,omitempty"`
	EmailSentAt    *time.Time     `json:"email_sent_at,omitempty"`
	Notes          string         `json:"notes"`
	Feedback       string         `json:"feedback"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (i *DealInvestor) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i DealInvestor) OrganizationName() string {
	if i.Organization == nil {
		return ""
	}
	return i.Organization.Name
}
