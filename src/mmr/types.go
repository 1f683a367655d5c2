package mmr

import "encoding/json"

// Band is the semantic grouping of a raw assessment string.
type Band string

const (
	BandFail     Band = "fail"
	BandPartial  Band = "partial"
	BandPositive Band = "positive"
)

// Band names as they appear in the pillar_bands table of a rules document.
const (
	PositiveBandName = "Positive Indicators"
	PartialBandName  = "Partial Indicators"
	FailBandName     = "Fail Indicators"
)

var bandNames = map[string]Band{
	PositiveBandName: BandPositive,
	PartialBandName:  BandPartial,
	FailBandName:     BandFail,
}

// Outcome levels, best to worst, plus the two degenerate results.
const (
	HighPositive      = "High Positive Indicators"
	Positive          = "Positive Indicators"
	EmergingPositive  = "Emerging Positive Indicators"
	PartialIndicators = "Partial Indicators"
	Failing           = "Failing"
	SystemicFail      = "Systemic Fail"

	NoAssessment = "No Assessment"
	Unknown      = "Unknown"
)

// OutcomeLevels lists the configurable ratings in descending order.
var OutcomeLevels = []string{
	HighPositive, Positive, EmergingPositive, PartialIndicators, Failing, SystemicFail,
}

func isPositiveOutcome(rating string) bool {
	return rating == HighPositive || rating == Positive || rating == EmergingPositive
}

// PillarAssessment is the grade a profile received on one pillar.
type PillarAssessment struct {
	Pillar     string `json:"pillar" yaml:"pillar"`
	Assessment string `json:"assessment" yaml:"assessment"`
	Evidence   string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Profile is a public figure or organisation under evaluation.
type Profile struct {
	Name       string             `json:"name" yaml:"name"`
	Category   string             `json:"category" yaml:"category"`
	Role       string             `json:"role,omitempty" yaml:"role,omitempty"`
	Pillars    []PillarAssessment `json:"pillars" yaml:"pillars"`
	Reflection string             `json:"reflection,omitempty" yaml:"reflection,omitempty"`
}

// UnmarshalJSON accepts "title" as an alias of "role".
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var aux struct {
		plain
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Profile(aux.plain)
	if p.Role == "" {
		p.Role = aux.Title
	}
	return nil
}
