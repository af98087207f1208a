package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/readmodel"
)

func TestGenerator_Generate(t *testing.T) {
	entered := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	exited := entered.AddDate(0, 1, 0)
	view := readmodel.PortalView{
		Name:        "Projekt Möwe",
		Type:        model.DealTypeSellSide,
		Stage:       model.DealStageMandate,
		ProjectStep: model.ProjectStepNDA,
		Steps:       model.ProjectSteps(),
		Timeline: []pipeline.TimelineEntry{
			{Stage: model.DealStagePitch, EnteredAt: entered, ExitedAt: &exited},
			{Stage: model.DealStageMandate, EnteredAt: exited},
		},
		Investors:   []readmodel.PortalInvestor{{Name: "Alpha", Status: model.InvestorStatusContacted}},
		Funnel:      pipeline.FunnelCounts{Total: 4, Contacted: 2, NDASigned: 1},
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := NewGenerator().Generate(view)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Data room access", humanize("DATA_ROOM_ACCESS"))
	assert.Equal(t, "Pitch", humanize("PITCH"))
	assert.Equal(t, "-", humanize(""))
}

func TestStepLabel(t *testing.T) {
	assert.Equal(t, "Longlist", stepLabel(model.ProjectStepLonglist))
	assert.Equal(t, "Kickoff", stepLabel(model.ProjectStepKickoff))
}
