package mmr

import "math"

// Category is the simplified four-way view of an outcome used by rollups.
type Category string

const (
	CategoryPass       Category = "Pass"
	CategoryAlmostPass Category = "Almost Pass"
	CategoryPartial    Category = "Partial"
	CategoryFail       Category = "Fail"
)

// Categories lists the four rollup buckets in display order.
var Categories = []Category{CategoryPass, CategoryAlmostPass, CategoryPartial, CategoryFail}

// CategoryFor maps an outcome label to its rollup bucket. Unknown and
// No Assessment land in Fail.
func CategoryFor(outcome string) Category {
	switch outcome {
	case HighPositive:
		return CategoryPass
	case Positive, EmergingPositive:
		return CategoryAlmostPass
	case PartialIndicators:
		return CategoryPartial
	default:
		return CategoryFail
	}
}

// Group performance levels.
const (
	LevelStrong           = "Strong"
	LevelMixed            = "Mixed"
	LevelNeedsImprovement = "Needs Improvement"
	LevelNoData           = "No Data"
)

const (
	strongPassRate = 80
	mixedPassRate  = 60
)

// Statistics summarises a group of evaluations.
type Statistics struct {
	Total      int    `json:"total"`
	Pass       int    `json:"pass"`
	AlmostPass int    `json:"almostPass"`
	Partial    int    `json:"partial"`
	Fail       int    `json:"fail"`
	PassRate   int    `json:"passRate"`
	Level      string `json:"level"`
}

// Add counts one outcome.
func (s *Statistics) Add(outcome string) {
	s.Total++
	switch CategoryFor(outcome) {
	case CategoryPass:
		s.Pass++
	case CategoryAlmostPass:
		s.AlmostPass++
	case CategoryPartial:
		s.Partial++
	default:
		s.Fail++
	}
	s.finish()
}

func (s *Statistics) finish() {
	if s.Total == 0 {
		s.PassRate = 0
		s.Level = LevelNoData
		return
	}
	s.PassRate = int(math.Floor(float64(s.Pass+s.AlmostPass)*100/float64(s.Total) + 0.5))
	switch {
	case s.PassRate >= strongPassRate:
		s.Level = LevelStrong
	case s.PassRate >= mixedPassRate:
		s.Level = LevelMixed
	default:
		s.Level = LevelNeedsImprovement
	}
}

// GroupStatistics tallies outcome labels into rollup buckets.
func GroupStatistics(outcomes []string) Statistics {
	var s Statistics
	for _, o := range outcomes {
		s.Add(o)
	}
	s.finish()
	return s
}

// PillarTally counts band results for one pillar across a group.
type PillarTally struct {
	Pillar   string   `json:"pillar"`
	Pass     int      `json:"pass"`
	Partial  int      `json:"partial"`
	Fail     int      `json:"fail"`
	Passing  []string `json:"passing,omitempty"`
	Partials []string `json:"partials,omitempty"`
	Failing  []string `json:"failing,omitempty"`
}

// CategoryStatistics is the rollup of one group of profiles.
type CategoryStatistics struct {
	Name     string           `json:"name"`
	Stats    Statistics       `json:"stats"`
	Outcomes map[string]int   `json:"outcomes"`
	Pillars  []PillarTally    `json:"pillars"`
	Members  []CategoryMember `json:"members"`
}

// CategoryMember is one evaluated profile inside a rollup.
type CategoryMember struct {
	Name     string   `json:"name"`
	Outcome  string   `json:"outcome"`
	Category Category `json:"category"`
}

// Rollup evaluates every profile and aggregates the results under name.
func (e *Engine) Rollup(name string, profiles []Profile) CategoryStatistics {
	cs := CategoryStatistics{
		Name:     name,
		Outcomes: make(map[string]int),
		Pillars:  make([]PillarTally, len(e.pillars)),
		Members:  make([]CategoryMember, 0, len(profiles)),
	}
	for i, p := range e.pillars {
		cs.Pillars[i].Pillar = p
	}
	for _, p := range profiles {
		ev := e.Evaluate(p)
		cs.Stats.Add(ev.Outcome)
		cs.Outcomes[ev.Outcome]++
		cs.Members = append(cs.Members, CategoryMember{Name: p.Name, Outcome: ev.Outcome, Category: ev.Category})
		for i, sp := range ev.Pillars {
			t := &cs.Pillars[i]
			switch sp.Band {
			case BandPositive:
				t.Pass++
				t.Passing = append(t.Passing, p.Name)
			case BandPartial:
				t.Partial++
				t.Partials = append(t.Partials, p.Name)
			default:
				t.Fail++
				t.Failing = append(t.Failing, p.Name)
			}
		}
	}
	cs.Stats.finish()
	return cs
}
