package mmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pillarOrder = []string{
	"Reject Targeting of Civilians",
	"Accountability for Hamas / Militant Rejectionists",
	"Accountability for Israeli Right / Ultra-Nationalists",
	"Use Verified, Truthful Sources",
	"Humanize Both Peoples",
	"Reject Eliminationism",
	"Vision for Dignity & Peace",
}

func profile(name, reflection string, grades ...string) Profile {
	p := Profile{Name: name, Reflection: reflection}
	for i, g := range grades {
		p.Pillars = append(p.Pillars, PillarAssessment{Pillar: pillarOrder[i], Assessment: g})
	}
	return p
}

const (
	sp = "Strong Pass"
	ps = "Pass"
	pa = "Partial"
	fl = "Fail"
)

func TestEvaluateKnownProfiles(t *testing.T) {
	e := DefaultEngine()
	cases := []struct {
		profile Profile
		want    string
	}{
		{profile("Maoz Inon & Aziz Abu Sara", "", sp, sp, sp, ps, sp, sp, sp), HighPositive},
		{profile("Gershon Baskin", "", sp, ps, sp, ps, sp, sp, sp), HighPositive},
		{profile("Sulaiman Khatib", "", sp, sp, sp, ps, sp, sp, sp), HighPositive},
		{profile("Yair Golan", "", sp, ps, sp, sp, ps, sp, ps), HighPositive},
		{profile("Benny Gantz", "", pa, ps, ps, ps, pa, ps, pa), PartialIndicators},
		{profile("Yair Lapid", "", ps, sp, sp, sp, ps, ps, pa), EmergingPositive},
		{profile("Mahmoud Abbas", "", sp, sp, sp, sp, pa, ps, ps), EmergingPositive},
		{profile("Yahya Sinwar", "Openly eliminationist rhetoric.", fl, fl, fl, fl, fl, fl, fl), SystemicFail},
		{profile("Khaled Meshaal", "A consistently eliminationist stance.", fl, fl, pa, fl, fl, fl, fl), SystemicFail},
		{profile("Avigdor Lieberman", "", pa, sp, pa, ps, pa, ps, pa), PartialIndicators},
	}
	for _, tc := range cases {
		t.Run(tc.profile.Name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Outcome(tc.profile))
		})
	}
}

func TestEvaluateOverrides(t *testing.T) {
	e := DefaultEngine()

	t.Run("eliminationist flag beats perfect pillars", func(t *testing.T) {
		ev := e.Evaluate(profile("x", "Supports ELIMINATIONIST policies.", sp, sp, sp, sp, sp, sp, sp))
		assert.Equal(t, SystemicFail, ev.Outcome)
		assert.True(t, ev.Counts.Eliminationist)
		assert.Equal(t, CategoryFail, ev.Category)
	})

	t.Run("four fails is systemic", func(t *testing.T) {
		ev := e.Evaluate(profile("x", "", ps, fl, fl, fl, ps, fl, ps))
		assert.Equal(t, SystemicFail, ev.Outcome)
		assert.Equal(t, 4, ev.Counts.Fails)
	})

	t.Run("priority fail is failing", func(t *testing.T) {
		ev := e.Evaluate(profile("x", "", fl, sp, sp, sp, sp, sp, sp))
		assert.Equal(t, Failing, ev.Outcome)
		assert.Equal(t, 1, ev.Counts.PriorityFails)
		assert.Contains(t, ev.Reason, "Reject Targeting of Civilians")
	})

	t.Run("two priority partials cap a positive rating", func(t *testing.T) {
		ev := e.Evaluate(profile("x", "", pa, sp, sp, sp, pa, sp, sp))
		assert.Equal(t, PartialIndicators, ev.Outcome)
		assert.True(t, ev.Capped)
		assert.Equal(t, CategoryPartial, ev.Category)
	})

	t.Run("three non-priority fails", func(t *testing.T) {
		ev := e.Evaluate(profile("x", "", sp, fl, fl, fl, sp, sp, sp))
		assert.Equal(t, Failing, ev.Outcome)
		assert.Zero(t, ev.Counts.PriorityFails)
	})
}

func TestEvaluateCounts(t *testing.T) {
	ev := DefaultEngine().Evaluate(profile("Yair Lapid", "", ps, sp, sp, sp, ps, ps, pa))
	assert.Equal(t, Counts{
		PartialOrMixed: 1,
		PassOrStrong:   6,
		StrongPass:     3,
		PriorityPass:   2,
	}, ev.Counts)
	require.Len(t, ev.Pillars, 7)
	assert.True(t, ev.Pillars[0].Priority)
	assert.Equal(t, BandPartial, ev.Pillars[6].Band)
}

func TestEvaluateMissingAndExtraPillars(t *testing.T) {
	e := DefaultEngine()

	p := profile("x", "", sp, sp, sp, sp, sp, sp)
	p.Pillars = append(p.Pillars,
		PillarAssessment{Pillar: "Something Else", Assessment: fl},
		PillarAssessment{Pillar: "reject  targeting of civilians", Assessment: fl},
	)
	ev := e.Evaluate(p)
	assert.Equal(t, 1, ev.Counts.Missing)
	assert.Equal(t, 1, ev.Counts.Fails)
	assert.Zero(t, ev.Counts.PriorityFails)
	assert.True(t, ev.Pillars[6].Missing)
	assert.Equal(t, EmergingPositive, ev.Outcome)

	missingPriority := profile("x", "", sp, sp, sp, sp)
	ev = e.Evaluate(missingPriority)
	assert.Equal(t, Failing, ev.Outcome)
	assert.Equal(t, 3, ev.Counts.Missing)
}

func TestEvaluateNoAssessment(t *testing.T) {
	e := DefaultEngine()
	ev := e.Evaluate(Profile{Name: "empty"})
	assert.Equal(t, NoAssessment, ev.Outcome)
	assert.Equal(t, CategoryFail, ev.Category)
	assert.Equal(t, CategoryFail, e.OverallCategory(nil))
}

func TestClassify(t *testing.T) {
	e := DefaultEngine()
	assert.Equal(t, BandPositive, e.Classify("Strong Pass"))
	assert.Equal(t, BandPositive, e.Classify("Full Pass"))
	assert.Equal(t, BandPartial, e.Classify("Mixed"))
	assert.Equal(t, BandFail, e.Classify("Clear Fail"))
	assert.Equal(t, BandFail, e.Classify("strong pass"))
	assert.Equal(t, BandFail, e.Classify(""))
}

func TestUnknownAssessmentCountsAsFail(t *testing.T) {
	ev := DefaultEngine().Evaluate(profile("x", "", sp, "n/a", sp, sp, sp, sp, sp))
	assert.Equal(t, 1, ev.Counts.Fails)
	assert.Equal(t, EmergingPositive, ev.Outcome)
}

func TestOverallCategory(t *testing.T) {
	e := DefaultEngine()
	assert.Equal(t, CategoryPass, e.OverallCategory(profile("", "", sp, sp, sp, sp, sp, sp, sp).Pillars))
	assert.Equal(t, CategoryAlmostPass, e.OverallCategory(profile("", "", sp, sp, sp, sp, pa, ps, ps).Pillars))
}

func TestIsPriority(t *testing.T) {
	e := DefaultEngine()
	assert.True(t, e.IsPriority("humanize both peoples"))
	assert.False(t, e.IsPriority("Reject Eliminationism"))
	assert.False(t, e.IsPriority("nope"))
}

// forEachGrading calls fn with every assignment of grades to the seven pillars.
func forEachGrading(grades []string, fn func([]string)) {
	cur := make([]string, len(pillarOrder))
	var walk func(i int)
	walk = func(i int) {
		if i == len(cur) {
			fn(cur)
			return
		}
		for _, g := range grades {
			cur[i] = g
			walk(i + 1)
		}
	}
	walk(0)
}

func TestEvaluateAllGradings(t *testing.T) {
	e := DefaultEngine()
	grades := []string{sp, ps, pa, fl, "Not Yet Rated"}
	priority := []int{0, 4}
	positive := map[string]bool{HighPositive: true, Positive: true, EmergingPositive: true}

	checked := 0
	forEachGrading(grades, func(g []string) {
		checked++
		p := profile("x", "", g...)
		ev := e.Evaluate(p)

		fails, passes, priorityFail, priorityPartials := 0, 0, false, 0
		for i, a := range g {
			switch a {
			case sp, ps:
				passes++
			case pa:
			default:
				fails++
			}
			for _, pi := range priority {
				if i != pi {
					continue
				}
				switch a {
				case sp, ps:
				case pa:
					priorityPartials++
				default:
					priorityFail = true
				}
			}
		}

		ok := assert.NotEqual(t, Unknown, ev.Outcome, "%v", g)
		switch {
		case fails >= 4:
			ok = assert.Equal(t, SystemicFail, ev.Outcome, "%v", g) && ok
		case priorityFail:
			ok = assert.Equal(t, Failing, ev.Outcome, "%v", g) && ok
		case priorityPartials >= 2:
			ok = assert.False(t, positive[ev.Outcome], "%v gave %s", g, ev.Outcome) && ok
		case passes == len(g):
			ok = assert.Equal(t, HighPositive, ev.Outcome, "%v", g) && ok
		}
		ok = assert.Equal(t, ev, e.Evaluate(p), "%v evaluated twice", g) && ok

		p.Reflection = "an eliminationist platform"
		ok = assert.Equal(t, SystemicFail, e.Outcome(p), "%v with flag", g) && ok
		if !ok {
			t.FailNow()
		}
	})
	assert.Equal(t, 78125, checked)
}
