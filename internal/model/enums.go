package model

import (
	"fmt"
	"strings"
)

type DealType string

const (
	DealTypeSellSide     DealType = "SELL_SIDE"
	DealTypeBuySide      DealType = "BUY_SIDE"
	DealTypeMerger       DealType = "MERGER"
	DealTypeCapitalRaise DealType = "CAPITAL_RAISE"
)

var dealTypes = []DealType{DealTypeSellSide, DealTypeBuySide, DealTypeMerger, DealTypeCapitalRaise}

func (t DealType) Valid() bool { return contains(dealTypes, t) }

func ParseDealType(raw string) (DealType, error) { return parseEnum(raw, dealTypes, "deal type") }

type DealStatus string

const (
	DealStatusActive DealStatus = "ACTIVE"
	DealStatusOnHold DealStatus = "ON_HOLD"
	DealStatusWon    DealStatus = "WON"
	DealStatusLost   DealStatus = "LOST"
)

var dealStatuses = []DealStatus{DealStatusActive, DealStatusOnHold, DealStatusWon, DealStatusLost}

func (s DealStatus) Valid() bool { return contains(dealStatuses, s) }

func ParseDealStatus(raw string) (DealStatus, error) {
	return parseEnum(raw, dealStatuses, "deal status")
}

// DealStage is the coarse kanban column of a deal.
type DealStage string

const (
	DealStagePitch    DealStage = "PITCH"
	DealStageMandate  DealStage = "MANDATE"
	DealStageClosing  DealStage = "CLOSING"
	DealStageArchived DealStage = "ARCHIVED"
)

var dealStages = []DealStage{DealStagePitch, DealStageMandate, DealStageClosing, DealStageArchived}

func DealStages() []DealStage { return append([]DealStage(nil), dealStages...) }

func (s DealStage) Valid() bool { return contains(dealStages, s) }

func ParseDealStage(raw string) (DealStage, error) { return parseEnum(raw, dealStages, "deal stage") }

// ProjectStep is the fine-grained execution milestone. Declaration order is execution order.
type ProjectStep string

const (
	ProjectStepPitch          ProjectStep = "PITCH"
	ProjectStepKickoff        ProjectStep = "KICKOFF"
	ProjectStepLonglist       ProjectStep = "LL"
	ProjectStepTeaser         ProjectStep = "TEASER"
	ProjectStepNDA            ProjectStep = "NDA"
	ProjectStepIM             ProjectStep = "IM"
	ProjectStepProcessLetter  ProjectStep = "PROZESSBRIEF"
	ProjectStepManagementPres ProjectStep = "MP"
	ProjectStepNBO            ProjectStep = "NBO"
	ProjectStepSigningClosing ProjectStep = "SIGNING_CLOSING"
)

var projectSteps = []ProjectStep{
	ProjectStepPitch,
	ProjectStepKickoff,
	ProjectStepLonglist,
	ProjectStepTeaser,
	ProjectStepNDA,
	ProjectStepIM,
	ProjectStepProcessLetter,
	ProjectStepManagementPres,
	ProjectStepNBO,
	ProjectStepSigningClosing,
}

func ProjectSteps() []ProjectStep { return append([]ProjectStep(nil), projectSteps...) }

func (s ProjectStep) Valid() bool { return contains(projectSteps, s) }

// Index returns the position of the step in execution order, or -1.
func (s ProjectStep) Index() int { return indexOf(projectSteps, s) }

func ParseProjectStep(raw string) (ProjectStep, error) {
	return parseEnum(raw, projectSteps, "project step")
}

// InvestorStatus is the funnel position of one investor on one deal's longlist.
// Declaration order is funnel order; DROPPED is terminal and sits outside the order.
type InvestorStatus string

const (
	InvestorStatusLonglist       InvestorStatus = "LONGLIST"
	InvestorStatusShortlist      InvestorStatus = "SHORTLIST"
	InvestorStatusContacted      InvestorStatus = "CONTACTED"
	InvestorStatusNDASent        InvestorStatus = "NDA_SENT"
	InvestorStatusNDASigned      InvestorStatus = "NDA_SIGNED"
	InvestorStatusIMSent         InvestorStatus = "IM_SENT"
	InvestorStatusDataRoomAccess InvestorStatus = "DATA_ROOM_ACCESS"
	InvestorStatusLOI            InvestorStatus = "LOI"
	InvestorStatusBidReceived    InvestorStatus = "BID_RECEIVED"
	InvestorStatusDropped        InvestorStatus = "DROPPED"
)

var investorFunnel = []InvestorStatus{
	InvestorStatusLonglist,
	InvestorStatusShortlist,
	InvestorStatusContacted,
	InvestorStatusNDASent,
	InvestorStatusNDASigned,
	InvestorStatusIMSent,
	InvestorStatusDataRoomAccess,
	InvestorStatusLOI,
	InvestorStatusBidReceived,
}

var investorStatuses = append(append([]InvestorStatus(nil), investorFunnel...), InvestorStatusDropped)

func InvestorStatuses() []InvestorStatus { return append([]InvestorStatus(nil), investorStatuses...) }

func (s InvestorStatus) Valid() bool { return contains(investorStatuses, s) }

// Rank returns the funnel position, or -1 for DROPPED and unknown values.
func (s InvestorStatus) Rank() int { return indexOf(investorFunnel, s) }

func ParseInvestorStatus(raw string) (InvestorStatus, error) {
	return parseEnum(raw, investorStatuses, "investor status")
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "LOW"
	TaskPriorityMedium   TaskPriority = "MEDIUM"
	TaskPriorityHigh     TaskPriority = "HIGH"
	TaskPriorityCritical TaskPriority = "CRITICAL"
)

var taskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical}

func (p TaskPriority) Valid() bool { return contains(taskPriorities, p) }

func ParseTaskPriority(raw string) (TaskPriority, error) {
	return parseEnum(raw, taskPriorities, "task priority")
}

type DealTeamRole string

const (
	DealTeamRoleLead      DealTeamRole = "LEAD"
	DealTeamRolePartner   DealTeamRole = "PARTNER"
	DealTeamRoleAssociate DealTeamRole = "ASSOCIATE"
	DealTeamRoleAnalyst   DealTeamRole = "ANALYST"
)

var dealTeamRoles = []DealTeamRole{DealTeamRoleLead, DealTeamRolePartner, DealTeamRoleAssociate, DealTeamRoleAnalyst}

func (r DealTeamRole) Valid() bool { return contains(dealTeamRoles, r) }

func ParseDealTeamRole(raw string) (DealTeamRole, error) {
	return parseEnum(raw, dealTeamRoles, "team role")
}

type EventType string

const (
	EventTypeMeeting   EventType = "MEETING"
	EventTypeCall      EventType = "CALL"
	EventTypeDeadline  EventType = "DEADLINE"
	EventTypeMilestone EventType = "MILESTONE"
	EventTypeOther     EventType = "OTHER"
	EventTypeTask      EventType = "TASK"
)

var eventTypes = []EventType{EventTypeMeeting, EventTypeCall, EventTypeDeadline, EventTypeMilestone, EventTypeOther, EventTypeTask}

func (t EventType) Valid() bool { return contains(eventTypes, t) }

func ParseEventType(raw string) (EventType, error) { return parseEnum(raw, eventTypes, "event type") }

type OrganizationType string

const (
	OrganizationTypeInvestor OrganizationType = "INVESTOR"
	OrganizationTypeCompany  OrganizationType = "COMPANY"
	OrganizationTypeAdvisor  OrganizationType = "ADVISOR"
	OrganizationTypeOther    OrganizationType = "OTHER"
)

var organizationTypes = []OrganizationType{OrganizationTypeInvestor, OrganizationTypeCompany, OrganizationTypeAdvisor, OrganizationTypeOther}

func (t OrganizationType) Valid() bool { return contains(organizationTypes, t) }

func ParseOrganizationType(raw string) (OrganizationType, error) {
	return parseEnum(raw, organizationTypes, "organization type")
}

type ActivityKind string

const (
	ActivityKindComment      ActivityKind = "COMMENT"
	ActivityKindStageChange  ActivityKind = "STAGE_CHANGE"
	ActivityKindStatusChange ActivityKind = "STATUS_CHANGE"
	ActivityKindOutreach     ActivityKind = "OUTREACH"
)

func contains[T comparable](values []T, v T) bool {
	return indexOf(values, v) >= 0
}

func indexOf[T comparable](values []T, v T) int {
	for i, item := range values {
		if item == v {
			return i
		}
	}
	return -1
}

func parseEnum[T ~string](raw string, values []T, what string) (T, error) {
	candidate := T(strings.ToUpper(strings.TrimSpace(raw)))
	if contains(values, candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown %s %q", what, raw)
}
