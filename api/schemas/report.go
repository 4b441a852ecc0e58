package schemas

import (
	"time"
)

// -- Sustainability Report Schemas --

// Category identifies one of the five sustainability dimensions every report
// is scored on. The set is closed; iteration always follows CategoryOrder so
// that a report renders identically regardless of map iteration order.
type Category string

const (
	CategoryClimate      Category = "Climate & Weather Data"
	CategoryAirQuality   Category = "Air Quality & Pollution"
	CategoryDisasterRisk Category = "Disaster Risk & Hazard Data"
	CategoryBiodiversity Category = "Biodiversity & Ecosystem Health"
	CategoryRenewables   Category = "Renewable Energy & Infrastructure Feasibility"
)

// CategoryOrder is the fixed display order for the five categories.
var CategoryOrder = [5]Category{
	CategoryClimate,
	CategoryAirQuality,
	CategoryDisasterRisk,
	CategoryBiodiversity,
	CategoryRenewables,
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	for _, known := range CategoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryScore holds the unweighted 0-10 assessment of one category, plus the
// optional numeric metrics the assessment was derived from.
type CategoryScore struct {
	Raw     float64            `json:"raw_score" bson:"raw_score"`
	Metrics map[string]float64 `json:"metrics,omitempty" bson:"metrics,omitempty"`
}

// CategoryWeight holds the fractional importance of a category in the overall
// score. Weights across all categories should sum to 1.0 but this is never
// enforced or renormalized; the aggregator computes with whatever is supplied.
type CategoryWeight struct {
	Weight        float64 `json:"weight" bson:"weight"`
	Justification string  `json:"justification,omitempty" bson:"justification,omitempty"`
}

// SustainabilityScore is the per-category score/weight maps plus the derived
// overall score. Overall is always recomputed from raw*weight pairs by the
// aggregator rather than trusted from upstream, which tolerates stale or
// inconsistent weighted_score fields in provider payloads.
type SustainabilityScore struct {
	Scores  map[Category]CategoryScore  `json:"scores" bson:"scores"`
	Weights map[Category]CategoryWeight `json:"weights" bson:"weights"`
	Overall float64                     `json:"overall_score" bson:"overall_score"`
}

// RiskEntry is one row of the risk analysis. Risk names are open-ended keys in
// ProjectReport.Risks, unlike the fixed category set.
type RiskEntry struct {
	Value       string `json:"value" bson:"value"`
	Explanation string `json:"explanation,omitempty" bson:"explanation,omitempty"`
}

// FeasibilityReport summarizes project viability.
type FeasibilityReport struct {
	Status          string   `json:"status" bson:"status"`
	KeyFindings     []string `json:"key_findings,omitempty" bson:"key_findings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
}

// RegulationEntry is one local-regulation row of the policy compliance section.
type RegulationEntry struct {
	LawName          string `json:"law_name" bson:"law_name"`
	ComplianceStatus string `json:"compliance_status" bson:"compliance_status"`
	Notes            string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// GuidelineEntry is one international-guideline row of the policy compliance
// section.
type GuidelineEntry struct {
	Treaty    string `json:"treaty" bson:"treaty"`
	Alignment string `json:"alignment" bson:"alignment"`
	Notes     string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// PolicyCompliance carries both compliance sub-lists, either possibly empty.
type PolicyCompliance struct {
	LocalRegulations        []RegulationEntry `json:"local_regulations,omitempty" bson:"local_regulations,omitempty"`
	InternationalGuidelines []GuidelineEntry  `json:"international_guidelines,omitempty" bson:"international_guidelines,omitempty"`
}

// FundingOpportunity is one grant or incentive relevant to the project.
type FundingOpportunity struct {
	Name                string `json:"name" bson:"name"`
	Amount              string `json:"amount,omitempty" bson:"amount,omitempty"`
	Eligibility         string `json:"eligibility,omitempty" bson:"eligibility,omitempty"`
	ApplicationDeadline string `json:"application_deadline,omitempty" bson:"application_deadline,omitempty"`
	Link                string `json:"link,omitempty" bson:"link,omitempty"`
}

// Location pins a report or listing to a place.
type Location struct {
	City      string  `json:"city" bson:"city"`
	Country   string  `json:"country,omitempty" bson:"country,omitempty"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	ImageURL  string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// ProjectReport is the top-level aggregate handed to the composer. It is
// constructed once per analysis request from upstream data and treated as
// read-only for the lifetime of a rendering or export session; there are no
// update or delete operations.
type ProjectReport struct {
	ID             string               `json:"id" bson:"_id"`
	ProjectName    string               `json:"project_name" bson:"project_name"`
	Location       Location             `json:"location" bson:"location"`
	Sustainability SustainabilityScore  `json:"sustainability_score" bson:"sustainability_score"`
	Feasibility    FeasibilityReport    `json:"feasibility_report" bson:"feasibility_report"`
	Risks          map[string]RiskEntry `json:"risk_analysis,omitempty" bson:"risk_analysis,omitempty"`
	Policy         PolicyCompliance     `json:"policy_compliance" bson:"policy_compliance"`
	Funding        []FundingOpportunity `json:"funding_opportunities,omitempty" bson:"funding_opportunities,omitempty"`
	LastUpdated    time.Time            `json:"last_updated" bson:"last_updated"`
}
