package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/model"
)

func TestProjectTimeline_Orders(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	exit1 := base.Add(time.Hour)
	exit2 := base.Add(2 * time.Hour)
	history := []model.DealPipelineHistory{
		{Stage: model.DealStageMandate, EnteredAt: exit1, ExitedAt: &exit2},
		{Stage: model.DealStageClosing, EnteredAt: exit2},
		{Stage: model.DealStagePitch, EnteredAt: base, ExitedAt: &exit1},
	}

	desc := ProjectTimeline(history, Descending)
	require.Len(t, desc, 3)
	assert.Equal(t, model.DealStageClosing, desc[0].Stage)
	assert.Equal(t, model.DealStagePitch, desc[2].Stage)

	asc := ProjectTimeline(history, Ascending)
	assert.Equal(t, model.DealStagePitch, asc[0].Stage)
	assert.Equal(t, model.DealStageClosing, asc[2].Stage)

	assert.Equal(t, model.DealStageMandate, history[0].Stage, "input must not be reordered")
}

func TestOpenRecords(t *testing.T) {
	now := time.Now()
	history := []model.DealPipelineHistory{
		{Stage: model.DealStagePitch, ExitedAt: &now},
		{Stage: model.DealStageMandate},
	}
	open := OpenRecords(history)
	require.Len(t, open, 1)
	assert.Equal(t, model.DealStageMandate, open[0].Stage)
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, Ascending, ParseOrder("asc"))
	assert.Equal(t, Descending, ParseOrder(""))
	assert.Equal(t, Descending, ParseOrder("desc"))
}

func TestProjectTimeline_SameInstant(t *testing.T) {
	at := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	history := []model.DealPipelineHistory{
		{Stage: model.DealStageMandate, EnteredAt: at},
		{Stage: model.DealStagePitch, EnteredAt: at, ExitedAt: &at},
	}

	desc := ProjectTimeline(history, Descending)
	require.Len(t, desc, 2)
	assert.Equal(t, model.DealStageMandate, desc[0].Stage)
	assert.Equal(t, model.DealStagePitch, desc[1].Stage)

	asc := ProjectTimeline(history, Ascending)
	assert.Equal(t, model.DealStagePitch, asc[0].Stage)
	assert.Equal(t, model.DealStageMandate, asc[1].Stage)
}
