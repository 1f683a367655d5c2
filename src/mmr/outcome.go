package mmr

import (
	"fmt"
	"strings"
)

const (
	systemicFailThreshold = 4
	priorityPartialCap    = 2
	eliminationistMarker  = "eliminationis"
)

// Counts are the tallies the outcome levels are evaluated against.
type Counts struct {
	Fails           int  `json:"fails"`
	PartialOrMixed  int  `json:"partial_or_mixed"`
	PassOrStrong    int  `json:"pass_or_strong"`
	StrongPass      int  `json:"strong_pass"`
	PriorityPass    int  `json:"priority_pass"`
	PriorityPartial int  `json:"priority_partial"`
	PriorityFails   int  `json:"priority_fails"`
	Missing         int  `json:"missing"`
	Eliminationist  bool `json:"eliminationist_flag"`
}

// ScoredPillar is one configured pillar after band classification.
type ScoredPillar struct {
	Pillar     string `json:"pillar"`
	Assessment string `json:"assessment"`
	Evidence   string `json:"evidence,omitempty"`
	Band       Band   `json:"band"`
	Priority   bool   `json:"priority,omitempty"`
	Missing    bool   `json:"missing,omitempty"`
}

// Evaluation is the result of running the aggregator over one profile.
type Evaluation struct {
	Outcome  string         `json:"outcome"`
	Category Category       `json:"category"`
	Counts   Counts         `json:"counts"`
	Capped   bool           `json:"capped,omitempty"`
	Reason   string         `json:"reason"`
	Pillars  []ScoredPillar `json:"pillars,omitempty"`
}

// Engine evaluates profiles against one validated, immutable rule set.
type Engine struct {
	rules       *Rules
	bands       map[string]Band
	strong      map[string]bool
	pillars     []string
	pillarIndex map[string]int
	priority    []bool
	levels      []OutcomeLevel
}

// NewEngine validates r and compiles it. r is copied; later changes to it
// have no effect on the engine.
func NewEngine(r *Rules) (*Engine, error) {
	if r == nil {
		return nil, &ValidationError{Problems: []string{"nil rules"}}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return compile(r.clone()), nil
}

func compile(r *Rules) *Engine {
	e := &Engine{
		rules:       r,
		bands:       make(map[string]Band),
		strong:      make(map[string]bool),
		pillars:     append([]string(nil), r.Pillars...),
		pillarIndex: make(map[string]int, len(r.Pillars)),
		priority:    make([]bool, len(r.Pillars)),
		levels:      r.sortedLevels(),
	}
	for name, list := range r.PillarBands {
		band, ok := bandNames[name]
		if !ok {
			continue
		}
		for _, a := range list {
			e.bands[a] = band
		}
	}
	for _, a := range r.strongAssessments() {
		e.strong[a] = true
	}
	for i, p := range r.Pillars {
		e.pillarIndex[normalizePillar(p)] = i
	}
	for _, p := range r.PriorityPillars {
		if i, ok := e.pillarIndex[normalizePillar(p)]; ok {
			e.priority[i] = true
		}
	}
	return e
}

// Rules returns a copy of the rule set the engine was built from.
func (e *Engine) Rules() *Rules {
	return e.rules.clone()
}

// Pillars returns the configured pillar names in order.
func (e *Engine) Pillars() []string {
	return append([]string(nil), e.pillars...)
}

// IsPriority reports whether pillar is a configured priority pillar.
func (e *Engine) IsPriority(pillar string) bool {
	i, ok := e.pillarIndex[normalizePillar(pillar)]
	return ok && e.priority[i]
}

// Classify maps a raw assessment to its band. The lookup is an exact,
// case-sensitive match; anything unrecognised is a fail.
func (e *Engine) Classify(assessment string) Band {
	if band, ok := e.bands[assessment]; ok {
		return band
	}
	return BandFail
}

// Outcome returns only the outcome label for p.
func (e *Engine) Outcome(p Profile) string {
	return e.Evaluate(p).Outcome
}

// OverallCategory maps a bare pillar list to its simplified category.
func (e *Engine) OverallCategory(pillars []PillarAssessment) Category {
	return e.Evaluate(Profile{Pillars: pillars}).Category
}

// Evaluate runs the aggregator. It never fails: malformed input degrades to a
// fail-leaning result.
func (e *Engine) Evaluate(p Profile) Evaluation {
	if len(p.Pillars) == 0 {
		return Evaluation{
			Outcome:  NoAssessment,
			Category: CategoryFor(NoAssessment),
			Reason:   "no pillar assessments",
		}
	}

	scored, counts := e.score(p)
	ev := Evaluation{Counts: counts, Pillars: scored}
	ev.Outcome, ev.Capped, ev.Reason = e.resolve(counts, scored)
	ev.Category = CategoryFor(ev.Outcome)
	return ev
}

func (e *Engine) score(p Profile) ([]ScoredPillar, Counts) {
	var c Counts
	scored := make([]ScoredPillar, len(e.pillars))
	seen := make([]bool, len(e.pillars))

	for _, pa := range p.Pillars {
		i, ok := e.pillarIndex[normalizePillar(pa.Pillar)]
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		band := e.Classify(pa.Assessment)
		scored[i] = ScoredPillar{
			Pillar:     e.pillars[i],
			Assessment: pa.Assessment,
			Evidence:   pa.Evidence,
			Band:       band,
			Priority:   e.priority[i],
		}
		c.add(band, e.priority[i], band == BandPositive && e.strong[pa.Assessment])
	}

	for i := range e.pillars {
		if seen[i] {
			continue
		}
		scored[i] = ScoredPillar{Pillar: e.pillars[i], Band: BandFail, Priority: e.priority[i], Missing: true}
		c.Missing++
		c.add(BandFail, e.priority[i], false)
	}

	c.Eliminationist = strings.Contains(strings.ToLower(p.Reflection), eliminationistMarker)
	return scored, c
}

func (c *Counts) add(band Band, priority, strong bool) {
	switch band {
	case BandFail:
		c.Fails++
		if priority {
			c.PriorityFails++
		}
	case BandPartial:
		c.PartialOrMixed++
		if priority {
			c.PriorityPartial++
		}
	case BandPositive:
		c.PassOrStrong++
		if strong {
			c.StrongPass++
		}
		if priority {
			c.PriorityPass++
		}
	}
}

func (e *Engine) resolve(c Counts, scored []ScoredPillar) (outcome string, capped bool, reason string) {
	if c.Eliminationist {
		return SystemicFail, false, "eliminationist language in reflection"
	}
	if c.Fails >= systemicFailThreshold {
		return SystemicFail, false, fmt.Sprintf("%d pillar fails", c.Fails)
	}
	if c.PriorityFails > 0 {
		for _, sp := range scored {
			if sp.Priority && sp.Band == BandFail {
				return Failing, false, fmt.Sprintf("priority pillar %q failed", sp.Pillar)
			}
		}
		return Failing, false, "priority pillar failed"
	}

	rating, ok := e.walk(c)
	if !ok {
		return Unknown, false, "no outcome level matched"
	}
	if c.PriorityPartial >= priorityPartialCap && isPositiveOutcome(rating) {
		return PartialIndicators, true, fmt.Sprintf("%s capped: %d priority pillars partial", rating, c.PriorityPartial)
	}
	return rating, false, "matched " + rating + " conditions"
}

func (e *Engine) walk(c Counts) (string, bool) {
	for _, lvl := range e.levels {
		if lvl.Conditions.Match(c) {
			return lvl.Rating, true
		}
	}
	return "", false
}

// coverageProblems enumerates every count combination that survives the
// overrides and reports the ones no level matches.
func (e *Engine) coverageProblems() []string {
	total := len(e.pillars)
	prio := 0
	for _, p := range e.priority {
		if p {
			prio++
		}
	}
	rest := total - prio

	const maxReported = 5
	var problems []string
	missed := 0
	for f := 0; f < systemicFailThreshold && f <= rest; f++ {
		for pp := 0; pp <= prio; pp++ {
			ppart := prio - pp
			for p := ppart; p-ppart <= rest-f; p++ {
				q := total - f - p
				if q < pp {
					continue
				}
				for s := 0; s <= q; s++ {
					c := Counts{Fails: f, PartialOrMixed: p, PassOrStrong: q, StrongPass: s, PriorityPass: pp, PriorityPartial: ppart}
					if _, ok := e.walk(c); ok {
						continue
					}
					missed++
					if len(problems) < maxReported {
						problems = append(problems, fmt.Sprintf("no outcome level matches fails=%d partial=%d pass=%d strong=%d priority_pass=%d", f, p, q, s, pp))
					}
				}
			}
		}
	}
	if missed > maxReported {
		problems = append(problems, fmt.Sprintf("%d more uncovered combinations", missed-maxReported))
	}
	return problems
}
