package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Deal struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string          `gorm:"not null" json:"name"`
	Type                 DealType        `gorm:"type:varchar(32);not null" json:"type"`
	Status               DealStatus      `gorm:"type:varchar(32);not null" json:"status"`
	Stage                DealStage       `gorm:"type:varchar(32);not null;index" json:"stage"`
	ProjectStep          ProjectStep     `gorm:"type:varchar(32);not null" json:"project_step"`
	ExpectedValue        decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"expected_value"`
	FeeRetainer          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"fee_retainer"`
	FeeSuccess           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"fee_success"`
	Currency             string          `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	LeadContactID        *uuid.UUID      `gorm:"type:uuid" json:"lead_contact_id,omitempty"`
	ClientOrganizationID *uuid.UUID      `gorm:"type:uuid" json:"client_organization_id,omitempty"`
	PortalEnabled        bool            `gorm:"not null;default:false" json:"portal_enabled"`
	PortalPasswordHash   string          `json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (d *Deal) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DealPipelineHistory is an append-only record of a deal entering and leaving a stage.
// A row with a nil ExitedAt is the deal's current stage.
type DealPipelineHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DealID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"deal_id"`
	Stage     DealStage  `gorm:"type:varchar(32);not null" json:"stage"`
	EnteredAt time.Time  `gorm:"not null" json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

func (DealPipelineHistory) TableName() string { return "deal_pipeline_history" }

func (h *DealPipelineHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (h DealPipelineHistory) Open() bool { return h.ExitedAt == nil }

type DealTeamMember struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	DealID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"deal_id"`
	UserID      string       `gorm:"not null" json:"user_id"`
	DisplayName string       `json:"display_name"`
	Role        DealTeamRole `gorm:"type:varchar(32);not null" json:"role"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (m *DealTeamMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type DealActivity struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	DealID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"deal_id"`
	Author    string       `json:"author"`
	Kind      ActivityKind `gorm:"type:varchar(32);not null" json:"kind"`
	Body      string       `json:"body"`
	CreatedAt time.Time    `json:"created_at"`
}

func (a *DealActivity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type DealDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DealID      uuid.UUID `gorm:"type:uuid;not null;index" json:"deal_id"`
	Name        string    `gorm:"not null" json:"name"`
	ObjectKey   string    `gorm:"not null" json:"-"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *DealDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
