package mmr

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.json
var defaultRulesJSON []byte

// ErrUnknownFormat is returned when a rules file extension is not recognised.
var ErrUnknownFormat = errors.New("mmr: unknown rules format")

// Format selects the encoding of a rules document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Conditions is the declarative record attached to an outcome level. A nil
// clause places no constraint; all present clauses must hold.
type Conditions struct {
	MinFails           *int  `json:"min_fails,omitempty" yaml:"min_fails,omitempty"`
	MaxFails           *int  `json:"max_fails,omitempty" yaml:"max_fails,omitempty"`
	MinPartialOrMixed  *int  `json:"min_partial_or_mixed,omitempty" yaml:"min_partial_or_mixed,omitempty"`
	MaxPartialOrMixed  *int  `json:"max_partial_or_mixed,omitempty" yaml:"max_partial_or_mixed,omitempty"`
	MinPassOrStrong    *int  `json:"min_pass_or_strong,omitempty" yaml:"min_pass_or_strong,omitempty"`
	MaxPassOrStrong    *int  `json:"max_pass_or_strong,omitempty" yaml:"max_pass_or_strong,omitempty"`
	MinStrongPass      *int  `json:"min_strong_pass,omitempty" yaml:"min_strong_pass,omitempty"`
	MaxStrongPass      *int  `json:"max_strong_pass,omitempty" yaml:"max_strong_pass,omitempty"`
	MinPriorityPass    *int  `json:"min_priority_pass,omitempty" yaml:"min_priority_pass,omitempty"`
	MaxPriorityPartial *int  `json:"max_priority_partial,omitempty" yaml:"max_priority_partial,omitempty"`
	EliminationistFlag *bool `json:"eliminationist_flag,omitempty" yaml:"eliminationist_flag,omitempty"`
}

// Match reports whether every present clause holds for n.
func (c Conditions) Match(n Counts) bool {
	return atLeast(c.MinFails, n.Fails) && atMost(c.MaxFails, n.Fails) &&
		atLeast(c.MinPartialOrMixed, n.PartialOrMixed) && atMost(c.MaxPartialOrMixed, n.PartialOrMixed) &&
		atLeast(c.MinPassOrStrong, n.PassOrStrong) && atMost(c.MaxPassOrStrong, n.PassOrStrong) &&
		atLeast(c.MinStrongPass, n.StrongPass) && atMost(c.MaxStrongPass, n.StrongPass) &&
		atLeast(c.MinPriorityPass, n.PriorityPass) &&
		atMost(c.MaxPriorityPartial, n.PriorityPartial) &&
		(c.EliminationistFlag == nil || *c.EliminationistFlag == n.Eliminationist)
}

func (c Conditions) clone() Conditions {
	cp := func(v *int) *int {
		if v == nil {
			return nil
		}
		n := *v
		return &n
	}
	out := Conditions{
		MinFails: cp(c.MinFails), MaxFails: cp(c.MaxFails),
		MinPartialOrMixed: cp(c.MinPartialOrMixed), MaxPartialOrMixed: cp(c.MaxPartialOrMixed),
		MinPassOrStrong: cp(c.MinPassOrStrong), MaxPassOrStrong: cp(c.MaxPassOrStrong),
		MinStrongPass: cp(c.MinStrongPass), MaxStrongPass: cp(c.MaxStrongPass),
		MinPriorityPass:    cp(c.MinPriorityPass),
		MaxPriorityPartial: cp(c.MaxPriorityPartial),
	}
	if c.EliminationistFlag != nil {
		f := *c.EliminationistFlag
		out.EliminationistFlag = &f
	}
	return out
}

func atLeast(bound *int, v int) bool { return bound == nil || v >= *bound }
func atMost(bound *int, v int) bool  { return bound == nil || v <= *bound }

// OutcomeLevel is one ordinal result and the condition record that selects it.
type OutcomeLevel struct {
	Rating     string     `json:"rating" yaml:"rating"`
	Priority   int        `json:"priority" yaml:"priority"`
	Conditions Conditions `json:"conditions" yaml:"conditions"`
}

// Rules is the declarative scoring document.
type Rules struct {
	Version           string              `json:"version,omitempty" yaml:"version,omitempty"`
	Pillars           []string            `json:"pillars" yaml:"pillars"`
	PillarBands       map[string][]string `json:"pillar_bands" yaml:"pillar_bands"`
	StrongAssessments []string            `json:"strong_assessments,omitempty" yaml:"strong_assessments,omitempty"`
	PriorityPillars   []string            `json:"priority_pillars" yaml:"priority_pillars"`
	OutcomeLevels     []OutcomeLevel      `json:"outcome_levels" yaml:"outcome_levels"`
}

// ValidationError collects every problem found in a rules document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "mmr: invalid rules: " + strings.Join(e.Problems, "; ")
}

// ParseRules decodes a rules document. Unknown fields are rejected.
func ParseRules(data []byte, format Format) (*Rules, error) {
	var r Rules
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("mmr: decode json rules: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("mmr: decode yaml rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &r, nil
}

// FormatForPath picks the rules format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// LoadRules reads and parses a rules file. The result is not validated.
func LoadRules(path string) (*Rules, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mmr: read rules: %w", err)
	}
	return ParseRules(data, format)
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// DefaultEngine returns the process-wide engine built from the embedded rules.
func DefaultEngine() *Engine {
	defaultOnce.Do(func() {
		r, err := ParseRules(defaultRulesJSON, FormatJSON)
		if err != nil {
			panic(err)
		}
		e, err := NewEngine(r)
		if err != nil {
			panic(err)
		}
		defaultEngine = e
	})
	return defaultEngine
}

// DefaultRules returns a copy of the embedded rule set.
func DefaultRules() *Rules {
	return DefaultEngine().Rules()
}

// Validate checks the document once, before an Engine is built from it.
func (r *Rules) Validate() error {
	problems := r.structuralProblems()
	if len(problems) == 0 {
		problems = append(problems, compile(r).coverageProblems()...)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (r *Rules) structuralProblems() []string {
	var problems []string

	if len(r.Pillars) == 0 {
		problems = append(problems, "no pillars configured")
	}
	pillars := make(map[string]bool, len(r.Pillars))
	for _, p := range r.Pillars {
		key := normalizePillar(p)
		if key == "" {
			problems = append(problems, "empty pillar name")
			continue
		}
		if pillars[key] {
			problems = append(problems, fmt.Sprintf("duplicate pillar %q", p))
		}
		pillars[key] = true
	}

	seenPriority := make(map[string]bool, len(r.PriorityPillars))
	for _, p := range r.PriorityPillars {
		key := normalizePillar(p)
		if !pillars[key] {
			problems = append(problems, fmt.Sprintf("priority pillar %q is not a configured pillar", p))
		}
		if seenPriority[key] {
			problems = append(problems, fmt.Sprintf("duplicate priority pillar %q", p))
		}
		seenPriority[key] = true
	}

	owner := make(map[string]string)
	for name, list := range r.PillarBands {
		if _, ok := bandNames[name]; !ok {
			problems = append(problems, fmt.Sprintf("unknown band %q", name))
			continue
		}
		for _, a := range list {
			if prev, dup := owner[a]; dup {
				problems = append(problems, fmt.Sprintf("assessment %q listed in both %q and %q", a, prev, name))
				continue
			}
			owner[a] = name
		}
	}
	for _, name := range []string{PositiveBandName, PartialBandName, FailBandName} {
		if _, ok := r.PillarBands[name]; !ok {
			problems = append(problems, fmt.Sprintf("missing band %q", name))
		}
	}
	for _, a := range r.strongAssessments() {
		if owner[a] != PositiveBandName {
			problems = append(problems, fmt.Sprintf("strong assessment %q is not in %q", a, PositiveBandName))
		}
	}

	if len(r.OutcomeLevels) == 0 {
		problems = append(problems, "no outcome levels configured")
	}
	known := make(map[string]bool, len(OutcomeLevels))
	for _, l := range OutcomeLevels {
		known[l] = true
	}
	ratings := make(map[string]bool)
	priorities := make(map[int]string)
	for _, lvl := range r.OutcomeLevels {
		if !known[lvl.Rating] {
			problems = append(problems, fmt.Sprintf("unknown rating %q", lvl.Rating))
		}
		if ratings[lvl.Rating] {
			problems = append(problems, fmt.Sprintf("duplicate rating %q", lvl.Rating))
		}
		ratings[lvl.Rating] = true
		if other, dup := priorities[lvl.Priority]; dup {
			problems = append(problems, fmt.Sprintf("ratings %q and %q share priority %d", other, lvl.Rating, lvl.Priority))
		}
		priorities[lvl.Priority] = lvl.Rating
		problems = append(problems, rangeProblems(lvl)...)
	}
	return problems
}

func rangeProblems(lvl OutcomeLevel) []string {
	c := lvl.Conditions
	pairs := []struct {
		name     string
		min, max *int
	}{
		{"fails", c.MinFails, c.MaxFails},
		{"partial_or_mixed", c.MinPartialOrMixed, c.MaxPartialOrMixed},
		{"pass_or_strong", c.MinPassOrStrong, c.MaxPassOrStrong},
		{"strong_pass", c.MinStrongPass, c.MaxStrongPass},
	}
	var out []string
	for _, p := range pairs {
		if (p.min != nil && *p.min < 0) || (p.max != nil && *p.max < 0) {
			out = append(out, fmt.Sprintf("%s: negative %s bound", lvl.Rating, p.name))
		}
		if p.min != nil && p.max != nil && *p.min > *p.max {
			out = append(out, fmt.Sprintf("%s: min_%s %d > max_%s %d", lvl.Rating, p.name, *p.min, p.name, *p.max))
		}
	}
	return out
}

func (r *Rules) strongAssessments() []string {
	if len(r.StrongAssessments) == 0 {
		return []string{"Strong Pass"}
	}
	return r.StrongAssessments
}

// sortedLevels returns the outcome levels by descending priority.
func (r *Rules) sortedLevels() []OutcomeLevel {
	levels := append([]OutcomeLevel(nil), r.OutcomeLevels...)
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Priority > levels[j].Priority })
	return levels
}

func (r *Rules) clone() *Rules {
	out := *r
	out.Pillars = append([]string(nil), r.Pillars...)
	out.StrongAssessments = append([]string(nil), r.StrongAssessments...)
	out.PriorityPillars = append([]string(nil), r.PriorityPillars...)
	out.OutcomeLevels = append([]OutcomeLevel(nil), r.OutcomeLevels...)
	for i := range out.OutcomeLevels {
		out.OutcomeLevels[i].Conditions = out.OutcomeLevels[i].Conditions.clone()
	}
	out.PillarBands = make(map[string][]string, len(r.PillarBands))
	for k, v := range r.PillarBands {
		out.PillarBands[k] = append([]string(nil), v...)
	}
	return &out
}

// normalizePillar folds case and spacing so "Hamas/Militants" and
// "hamas / militants" name the same pillar.
func normalizePillar(name string) string {
	s := strings.ToLower(strings.Join(strings.Fields(name), " "))
	return strings.ReplaceAll(s, " / ", "/")
}
