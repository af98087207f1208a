package board

import (
	"time"

	"github.com/nurpe/dealflow/internal/model"
)

type InvestorBoard = Board[model.DealInvestor, model.InvestorStatus]

type DealBoard = Board[model.Deal, model.DealStage]

// InvestorAccessors key longlist cards by organization; a longlist board belongs to one deal.
var InvestorAccessors = Accessors[model.DealInvestor, model.InvestorStatus]{
	Key:    func(i model.DealInvestor) string { return i.OrganizationID.String() },
	Status: func(i model.DealInvestor) model.InvestorStatus { return i.Status },
	WithStatus: func(i model.DealInvestor, s model.InvestorStatus) model.DealInvestor {
		i.Status = s
		return i
	},
}

var DealAccessors = Accessors[model.Deal, model.DealStage]{
	Key:    func(d model.Deal) string { return d.ID.String() },
	Status: func(d model.Deal) model.DealStage { return d.Stage },
	WithStatus: func(d model.Deal, s model.DealStage) model.Deal {
		d.Stage = s
		return d
	},
}

// NewInvestorBoard builds a longlist board. Moves into CONTACTED wait for the outreach flow to
// confirm before they are committed.
func NewInvestorBoard(
	investors []model.DealInvestor,
	committer Committer[model.InvestorStatus],
	pendingTTL time.Duration,
	opts ...Option[model.DealInvestor, model.InvestorStatus],
) *InvestorBoard {
	base := []Option[model.DealInvestor, model.InvestorStatus]{
		WithGate[model.DealInvestor](model.InvestorStatusContacted),
		WithPendingTTL[model.DealInvestor, model.InvestorStatus](pendingTTL),
	}
	return New(investors, InvestorAccessors, committer, append(base, opts...)...)
}

func NewDealBoard(deals []model.Deal, committer Committer[model.DealStage], opts ...Option[model.Deal, model.DealStage]) *DealBoard {
	return New(deals, DealAccessors, committer, opts...)
}
