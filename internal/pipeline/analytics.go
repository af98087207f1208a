package pipeline

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/nurpe/dealflow/internal/model"
)

// FunnelCounts holds cumulative funnel thresholds for a longlist.
type FunnelCounts struct {
	Total     int `json:"total"`
	Contacted int `json:"contacted"`
	NDASigned int `json:"nda_signed"`
	IMSent    int `json:"im_sent"`
	Bids      int `json:"bids"`
	Dropped   int `json:"dropped"`
}

var (
	ndaSignedOrLater = statusSet(
		model.InvestorStatusNDASigned,
		model.InvestorStatusIMSent,
		model.InvestorStatusDataRoomAccess,
		model.InvestorStatusLOI,
		model.InvestorStatusBidReceived,
	)
	imSentOrLater = statusSet(
		model.InvestorStatusIMSent,
		model.InvestorStatusDataRoomAccess,
		model.InvestorStatusLOI,
		model.InvestorStatusBidReceived,
	)
)

// Funnel counts investors at cumulative thresholds. An investor counts as contacted once it has
// left LONGLIST/SHORTLIST (DROPPED included); NDA and IM thresholds also accept the milestone stamp.
func Funnel(investors []model.DealInvestor) FunnelCounts {
	var counts FunnelCounts
	for _, inv := range investors {
		counts.Total++
		if inv.Status != model.InvestorStatusLonglist && inv.Status != model.InvestorStatusShortlist {
			counts.Contacted++
		}
		if inv.NDASignedAt != nil || ndaSignedOrLater[inv.Status] {
			counts.NDASigned++
		}
		if inv.IMSentAt != nil || imSentOrLater[inv.Status] {
			counts.IMSent++
		}
		if inv.Status == model.InvestorStatusBidReceived {
			counts.Bids++
		}
		if inv.Status == model.InvestorStatusDropped {
			counts.Dropped++
		}
	}
	return counts
}

// ConversionRate returns numerator/denominator as a percentage rounded to one decimal place.
// A zero denominator yields 0.
func ConversionRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	pct := float64(numerator) / float64(denominator) * 100
	return math.Round(pct*10) / 10
}

type FunnelRates struct {
	Contacted float64 `json:"contacted"`
	NDASigned float64 `json:"nda_signed"`
	IMSent    float64 `json:"im_sent"`
	Bids      float64 `json:"bids"`
	Overall   float64 `json:"overall"`
}

// Rates computes step-to-step conversion; Overall is bids over total.
func (c FunnelCounts) Rates() FunnelRates {
	return FunnelRates{
		Contacted: ConversionRate(c.Contacted, c.Total),
		NDASigned: ConversionRate(c.NDASigned, c.Contacted),
		IMSent:    ConversionRate(c.IMSent, c.NDASigned),
		Bids:      ConversionRate(c.Bids, c.IMSent),
		Overall:   ConversionRate(c.Bids, c.Total),
	}
}

// StatusCounts counts investors per exact status; every known status is present.
func StatusCounts(investors []model.DealInvestor) map[model.InvestorStatus]int {
	counts := make(map[model.InvestorStatus]int, len(model.InvestorStatuses()))
	for _, status := range model.InvestorStatuses() {
		counts[status] = 0
	}
	for _, inv := range investors {
		counts[inv.Status]++
	}
	return counts
}

type DealKPIs struct {
	Total           int                                 `json:"total"`
	Active          int                                 `json:"active"`
	ByStage         map[model.DealStage]int             `json:"by_stage"`
	ValueByStage    map[model.DealStage]decimal.Decimal `json:"value_by_stage"`
	PipelineValue   decimal.Decimal                     `json:"pipeline_value"`
	RetainerTotal   decimal.Decimal                     `json:"retainer_total"`
	SuccessFeeTotal decimal.Decimal                     `json:"success_fee_total"`
}

// KPIs aggregates deals. Archived deals are counted in ByStage but excluded from values.
func KPIs(deals []model.Deal) DealKPIs {
	kpis := DealKPIs{
		ByStage:         make(map[model.DealStage]int, len(model.DealStages())),
		ValueByStage:    make(map[model.DealStage]decimal.Decimal, len(model.DealStages())),
		PipelineValue:   decimal.Zero,
		RetainerTotal:   decimal.Zero,
		SuccessFeeTotal: decimal.Zero,
	}
	for _, stage := range model.DealStages() {
		kpis.ByStage[stage] = 0
		kpis.ValueByStage[stage] = decimal.Zero
	}
	for _, deal := range deals {
		kpis.Total++
		kpis.ByStage[deal.Stage]++
		if deal.Status == model.DealStatusActive {
			kpis.Active++
		}
		if deal.Stage == model.DealStageArchived {
			continue
		}
		kpis.ValueByStage[deal.Stage] = kpis.ValueByStage[deal.Stage].Add(deal.ExpectedValue)
		kpis.PipelineValue = kpis.PipelineValue.Add(deal.ExpectedValue)
		kpis.RetainerTotal = kpis.RetainerTotal.Add(deal.FeeRetainer)
		kpis.SuccessFeeTotal = kpis.SuccessFeeTotal.Add(deal.FeeSuccess)
	}
	return kpis
}

func statusSet(statuses ...model.InvestorStatus) map[model.InvestorStatus]bool {
	set := make(map[model.InvestorStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}
