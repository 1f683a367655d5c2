package mmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryPass, CategoryFor(HighPositive))
	assert.Equal(t, CategoryAlmostPass, CategoryFor(Positive))
	assert.Equal(t, CategoryAlmostPass, CategoryFor(EmergingPositive))
	assert.Equal(t, CategoryPartial, CategoryFor(PartialIndicators))
	assert.Equal(t, CategoryFail, CategoryFor(Failing))
	assert.Equal(t, CategoryFail, CategoryFor(SystemicFail))
	assert.Equal(t, CategoryFail, CategoryFor(Unknown))
	assert.Equal(t, CategoryFail, CategoryFor(NoAssessment))
}

func TestGroupStatistics(t *testing.T) {
	t.Run("israeli politicians", func(t *testing.T) {
		s := GroupStatistics([]string{HighPositive, PartialIndicators, EmergingPositive, PartialIndicators})
		assert.Equal(t, Statistics{Total: 4, Pass: 1, AlmostPass: 1, Partial: 2, PassRate: 50, Level: LevelNeedsImprovement}, s)
	})

	t.Run("peace advocates", func(t *testing.T) {
		s := GroupStatistics([]string{HighPositive, HighPositive})
		assert.Equal(t, 100, s.PassRate)
		assert.Equal(t, LevelStrong, s.Level)
	})

	t.Run("mixed boundary", func(t *testing.T) {
		s := GroupStatistics([]string{HighPositive, Positive, EmergingPositive, Failing, SystemicFail})
		assert.Equal(t, 60, s.PassRate)
		assert.Equal(t, LevelMixed, s.Level)
		assert.Equal(t, 2, s.Fail)
	})

	t.Run("rounds half up", func(t *testing.T) {
		s := GroupStatistics([]string{HighPositive, Failing, Failing, Failing, Failing, Failing, Failing, Failing})
		assert.Equal(t, 13, s.PassRate)
	})

	t.Run("empty", func(t *testing.T) {
		s := GroupStatistics(nil)
		assert.Equal(t, Statistics{Level: LevelNoData}, s)
	})
}

func TestRollup(t *testing.T) {
	e := DefaultEngine()
	cs := e.Rollup("Israeli Politicians", []Profile{
		profile("Yair Golan", "", sp, ps, sp, sp, ps, sp, ps),
		profile("Benny Gantz", "", pa, ps, ps, ps, pa, ps, pa),
		profile("Yair Lapid", "", ps, sp, sp, sp, ps, ps, pa),
		profile("Avigdor Lieberman", "", pa, sp, pa, ps, pa, ps, pa),
	})

	assert.Equal(t, "Israeli Politicians", cs.Name)
	assert.Equal(t, 50, cs.Stats.PassRate)
	assert.Equal(t, LevelNeedsImprovement, cs.Stats.Level)
	assert.Equal(t, 2, cs.Outcomes[PartialIndicators])
	require.Len(t, cs.Members, 4)
	assert.Equal(t, CategoryPass, cs.Members[0].Category)

	require.Len(t, cs.Pillars, 7)
	reject := cs.Pillars[0]
	assert.Equal(t, "Reject Targeting of Civilians", reject.Pillar)
	assert.Equal(t, 2, reject.Pass)
	assert.Equal(t, 2, reject.Partial)
	assert.Zero(t, reject.Fail)
	assert.Equal(t, []string{"Benny Gantz", "Avigdor Lieberman"}, reject.Partials)
}

func TestRollupEmpty(t *testing.T) {
	cs := DefaultEngine().Rollup("nobody", nil)
	assert.Equal(t, LevelNoData, cs.Stats.Level)
	assert.Empty(t, cs.Members)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "High", ShortLabel(HighPositive))
	assert.Equal(t, "#dc2626", Color(SystemicFail))
	assert.Equal(t, "🟠", Icon(PartialIndicators))
	assert.Equal(t, "#6b7280", Color("whatever"))
	assert.Equal(t, "❓", Icon(Unknown))
	assert.Equal(t, NoAssessment, ShortLabel(NoAssessment))
	assert.Equal(t, "green", BandColor(BandPositive))
	assert.Equal(t, "gray", BandColor(Band("")))
}
