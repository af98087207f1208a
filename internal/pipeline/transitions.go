// Package pipeline holds the deal and investor pipeline rules: which transitions are allowed,
// which milestone timestamps a transition stamps, and the analytics and timeline projections
// derived from pipeline records. Everything here is pure; persistence lives in repository.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/nurpe/dealflow/internal/model"
)

var ErrTransitionNotAllowed = errors.New("transition not allowed")

// TimestampField names the DealInvestor milestone column stamped on entering a status.
type TimestampField string

const (
	FieldNDASentAt   TimestampField = "nda_sent_at"
	FieldNDASignedAt TimestampField = "nda_signed_at"
	FieldIMSentAt    TimestampField = "im_sent_at"
	FieldEmailSentAt TimestampField = "email_sent_at"
)

var timestampFields = map[model.InvestorStatus]TimestampField{
	model.InvestorStatusNDASent:   FieldNDASentAt,
	model.InvestorStatusNDASigned: FieldNDASignedAt,
	model.InvestorStatusIMSent:    FieldIMSentAt,
	model.InvestorStatusContacted: FieldEmailSentAt,
}

// TimestampFieldFor returns the milestone column keyed by the target status.
func TimestampFieldFor(status model.InvestorStatus) (TimestampField, bool) {
	field, ok := timestampFields[status]
	return field, ok
}

// Stamp sets the milestone field for status to now. Other milestones are left untouched, so a
// stamp is never cleared by a later transition; re-entering a status refreshes its stamp.
func Stamp(inv *model.DealInvestor, status model.InvestorStatus, now time.Time) (TimestampField, bool) {
	field, ok := TimestampFieldFor(status)
	if !ok {
		return "", false
	}
	ts := now
	switch field {
	case FieldNDASentAt:
		inv.NDASentAt = &ts
	case FieldNDASignedAt:
		inv.NDASignedAt = &ts
	case FieldIMSentAt:
		inv.IMSentAt = &ts
	case FieldEmailSentAt:
		inv.EmailSentAt = &ts
	}
	return field, true
}

// Policy decides whether an investor may move to a status.
type Policy interface {
	Allow(inv model.DealInvestor, to model.InvestorStatus) error
}

// PermissivePolicy accepts every move between known statuses, including leaving DROPPED.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(_ model.DealInvestor, to model.InvestorStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrTransitionNotAllowed, to)
	}
	return nil
}

// StrictPolicy is PermissivePolicy plus the NDA gate: an investor cannot receive the IM
// (or anything after it) before an NDA was signed. A DROPPED investor may be moved anywhere.
type StrictPolicy struct{}

func (StrictPolicy) Allow(inv model.DealInvestor, to model.InvestorStatus) error {
	if err := (PermissivePolicy{}).Allow(inv, to); err != nil {
		return err
	}
	if inv.Status == model.InvestorStatusDropped {
		return nil
	}
	if to.Rank() < model.InvestorStatusIMSent.Rank() {
		return nil
	}
	if inv.NDASignedAt != nil || inv.Status.Rank() >= model.InvestorStatusNDASigned.Rank() {
		return nil
	}
	return fmt.Errorf("%w: %s requires a signed NDA", ErrTransitionNotAllowed, to)
}

func PolicyFor(strict bool) Policy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}

// ApplyInvestorStatus validates the move against policy, sets the status and stamps the
// milestone field keyed by the target status. It returns the stamped field, if any.
func ApplyInvestorStatus(inv *model.DealInvestor, to model.InvestorStatus, now time.Time, policy Policy) (TimestampField, error) {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	if err := policy.Allow(*inv, to); err != nil {
		return "", err
	}
	inv.Status = to
	field, _ := Stamp(inv, to, now)
	return field, nil
}

// StageForStep maps a project step to the coarse stage it belongs to.
func StageForStep(step model.ProjectStep) model.DealStage {
	switch {
	case step == model.ProjectStepPitch:
		return model.DealStagePitch
	case step == model.ProjectStepSigningClosing:
		return model.DealStageClosing
	default:
		return model.DealStageMandate
	}
}
