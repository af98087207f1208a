// Package readmodel defines the projections served to the UI, the client portal and exports.
package readmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
)

// DealView is the internal deal page. Timeline is most recent first.
type DealView struct {
	Deal      model.Deal               `json:"deal"`
	Timeline  []pipeline.TimelineEntry `json:"timeline"`
	Investors []model.DealInvestor     `json:"investors"`
	Funnel    pipeline.FunnelCounts    `json:"funnel"`
	Rates     pipeline.FunnelRates     `json:"rates"`
	Team      []model.DealTeamMember   `json:"team"`
}

type DealAnalytics struct {
	Funnel       pipeline.FunnelCounts        `json:"funnel"`
	Rates        pipeline.FunnelRates         `json:"rates"`
	StatusCounts map[model.InvestorStatus]int `json:"status_counts"`
}

type Dashboard struct {
	Deals          pipeline.DealKPIs     `json:"deals"`
	Funnel         pipeline.FunnelCounts `json:"funnel"`
	Rates          pipeline.FunnelRates  `json:"rates"`
	OpenTasks      int64                 `json:"open_tasks"`
	OverdueTasks   int64                 `json:"overdue_tasks"`
	UpcomingEvents []model.CalendarEvent `json:"upcoming_events"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// PortalInvestor is the client-facing view of a longlist entry: no notes, no feedback.
type PortalInvestor struct {
	Name   string               `json:"name"`
	Status model.InvestorStatus `json:"status"`
}

// PortalView is the client portal projection. Timeline is oldest first.
type PortalView struct {
	DealID      uuid.UUID                `json:"deal_id"`
	Name        string                   `json:"name"`
	Type        model.DealType           `json:"type"`
	Stage       model.DealStage          `json:"stage"`
	ProjectStep model.ProjectStep        `json:"project_step"`
	Steps       []model.ProjectStep      `json:"steps"`
	Timeline    []pipeline.TimelineEntry `json:"timeline"`
	Investors   []PortalInvestor         `json:"investors"`
	Funnel      pipeline.FunnelCounts    `json:"funnel"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Longlist is the export of one deal's investor longlist.
type Longlist struct {
	Deal        model.Deal            `json:"deal"`
	Investors   []model.DealInvestor  `json:"investors"`
	Funnel      pipeline.FunnelCounts `json:"funnel"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// StepProgress reports how far a deal is through the ordered project steps, as a percentage.
func StepProgress(step model.ProjectStep) float64 {
	idx := step.Index()
	if idx < 0 {
		return 0
	}
	return pipeline.ConversionRate(idx+1, len(model.ProjectSteps()))
}
