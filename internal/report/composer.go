// File: internal/report/composer.go
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/score"
)

// NotAvailable is the explicit empty-state text rendered for any optional
// report section whose upstream data is absent. AI-generated content cannot be
// guaranteed complete, so the report as a whole must always be producible from
// partial data.
const NotAvailable = "Not available"

// ScoreRow is one row of the executive-summary score table.
type ScoreRow struct {
	Name     string     `json:"name"`
	Raw      float64    `json:"raw_score"`
	Weight   float64    `json:"weight"`
	Weighted float64    `json:"weighted_score"`
	Max      float64    `json:"max"`
	Band     score.Band `json:"band"`
	Overall  bool       `json:"overall,omitempty"`
}

// RiskRow is one row of the risk analysis table.
type RiskRow struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Explanation string `json:"explanation"`
}

// CategoryDetail is one subsection of the detailed assessment page.
type CategoryDetail struct {
	Name          string             `json:"name"`
	Raw           float64            `json:"raw_score"`
	Weight        float64            `json:"weight"`
	Weighted      float64            `json:"weighted_score"`
	Max           float64            `json:"max"`
	Band          score.Band         `json:"band"`
	Justification string             `json:"justification"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Narrative     string             `json:"narrative"`
}

// Cover carries the title-page fields.
type Cover struct {
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Place      string     `json:"place"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	ReportDate string     `json:"report_date"`
	Overall    float64    `json:"overall_score"`
	Band       score.Band `json:"band"`
}

// Summary is the executive-summary section: a narrative paragraph plus the
// score table.
type Summary struct {
	Narrative string     `json:"narrative"`
	Table     []ScoreRow `json:"table"`
	Note      string     `json:"note"`
	Citation  string     `json:"citation"`
}

// FeasibilitySection renders the feasibility block as either a highlight or a
// warning depending on the status text.
type FeasibilitySection struct {
	Status          string   `json:"status"`
	Positive        bool     `json:"positive"`
	KeyFindings     []string `json:"key_findings"`
	Recommendations []string `json:"recommendations"`
	Placeholder     string   `json:"placeholder,omitempty"`
}

// RiskSection is the risk table plus its empty-state placeholder.
type RiskSection struct {
	Rows        []RiskRow `json:"rows"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// PolicySection carries both compliance tables.
type PolicySection struct {
	LocalRegulations        []schemas.RegulationEntry `json:"local_regulations"`
	InternationalGuidelines []schemas.GuidelineEntry  `json:"international_guidelines"`
	Placeholder             string                    `json:"placeholder,omitempty"`
}

// FundingSection is the funding opportunities table. An empty upstream list
// renders zero rows, never an error.
type FundingSection struct {
	Rows        []schemas.FundingOpportunity `json:"rows"`
	Placeholder string                       `json:"placeholder,omitempty"`
}

// SourceRow is one row of the appendix data-sources table.
type SourceRow struct {
	Source   string `json:"source"`
	Provider string `json:"provider"`
	Purpose  string `json:"purpose"`
}

// Appendix is the methodology and data-sources page.
type Appendix struct {
	Sources       []SourceRow `json:"sources"`
	Methodology   []string    `json:"methodology"`
	Certification string      `json:"certification"`
}

// ComposedReport is the full sequence of renderable sections in their fixed
// order. Each section is independently displayable; the PDF exporter consumes
// the same binding.
type ComposedReport struct {
	Cover       Cover              `json:"cover"`
	Summary     Summary            `json:"summary"`
	Categories  []CategoryDetail   `json:"categories"`
	Risks       RiskSection        `json:"risks"`
	Feasibility FeasibilitySection `json:"feasibility"`
	Policy      PolicySection      `json:"policy"`
	Funding     FundingSection     `json:"funding"`
	Appendix    Appendix           `json:"appendix"`
}

// Compose binds a ProjectReport into the fixed sequence of report sections.
//
// All weighted scores and the overall score are recomputed from raw*weight
// pairs; any weighted or overall value carried in the input is ignored. A
// report whose score data is malformed (missing category, out-of-range raw
// score) fails composition outright: a partially-valid score table is never
// rendered. Optional sections (risks, policy, funding) degrade to explicit
// empty states instead.
func Compose(r *schemas.ProjectReport) (*ComposedReport, error) {
	overall, err := score.ComputeOverallScore(r.Sustainability.Scores, r.Sustainability.Weights)
	if err != nil {
		return nil, fmt.Errorf("compose report %s: %w", r.ID, err)
	}
	overallBand := score.Classify(overall, 10)

	composed := &ComposedReport{
		Cover: Cover{
			Title:      r.ProjectName,
			Subtitle:   "Sustainability & Feasibility Assessment",
			Place:      placeString(r.Location),
			Latitude:   r.Location.Latitude,
			Longitude:  r.Location.Longitude,
			ReportDate: r.LastUpdated.UTC().Format("2 January 2006"),
			Overall:    overall,
			Band:       overallBand,
		},
		Summary: Summary{
			Narrative: summaryNarrative(r.ProjectName, placeString(r.Location), overall, overallBand),
			Table:     ScoreTable(r.Sustainability, overall, overallBand),
			Note:      "Weighted scores are recomputed from raw category scores at render time; stored aggregates are never reused.",
			Citation:  "Assessment data synthesized from public environmental APIs and model-assisted analysis. Figures are advisory, not a certified audit.",
		},
		Categories:  categoryDetails(r.Sustainability),
		Risks:       riskSection(r.Risks),
		Feasibility: feasibilitySection(r.Feasibility),
		Policy:      policySection(r.Policy),
		Funding:     fundingSection(r.Funding),
		Appendix:    methodologyAppendix(),
	}
	return composed, nil
}

// ScoreTable renders one row per category in the fixed enumeration order,
// regardless of the storage order of the maps, plus a final Overall row. The
// stable ordering guarantees the same report renders identically across runs
// and across screen versus exported-document views.
func ScoreTable(s schemas.SustainabilityScore, overall float64, overallBand score.Band) []ScoreRow {
	rows := make([]ScoreRow, 0, len(schemas.CategoryOrder)+1)
	for _, cat := range schemas.CategoryOrder {
		raw := s.Scores[cat].Raw
		weight := s.Weights[cat].Weight
		weighted := score.ComputeWeightedScore(raw, weight)
		max := weight * 10
		rows = append(rows, ScoreRow{
			Name:     string(cat),
			Raw:      raw,
			Weight:   weight,
			Weighted: weighted,
			Max:      max,
			Band:     score.Classify(weighted, max),
		})
	}
	rows = append(rows, ScoreRow{
		Name:     "Overall",
		Weighted: overall,
		Max:      10,
		Band:     overallBand,
		Overall:  true,
	})
	return rows
}

// RiskRows transforms the open-ended risk mapping into display rows. Keys are
// rendered in sorted order so output is stable, with each snake-case style key
// split on separator characters and title-cased.
func RiskRows(risks map[string]schemas.RiskEntry) []RiskRow {
	if len(risks) == 0 {
		return nil
	}
	keys := make([]string, 0, len(risks))
	for k := range risks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]RiskRow, 0, len(keys))
	for _, k := range keys {
		entry := risks[k]
		explanation := entry.Explanation
		if explanation == "" {
			explanation = NotAvailable
		}
		rows = append(rows, RiskRow{
			Title:       humanizeKey(k),
			Value:       entry.Value,
			Explanation: explanation,
		})
	}
	return rows
}

func riskSection(risks map[string]schemas.RiskEntry) RiskSection {
	rows := RiskRows(risks)
	if len(rows) == 0 {
		return RiskSection{Placeholder: NotAvailable}
	}
	return RiskSection{Rows: rows}
}

func feasibilitySection(f schemas.FeasibilityReport) FeasibilitySection {
	if f.Status == "" && len(f.KeyFindings) == 0 && len(f.Recommendations) == 0 {
		return FeasibilitySection{Status: NotAvailable, Placeholder: NotAvailable}
	}
	return FeasibilitySection{
		Status:          f.Status,
		Positive:        positiveStatus(f.Status),
		KeyFindings:     f.KeyFindings,
		Recommendations: f.Recommendations,
	}
}

func policySection(p schemas.PolicyCompliance) PolicySection {
	if len(p.LocalRegulations) == 0 && len(p.InternationalGuidelines) == 0 {
		return PolicySection{Placeholder: NotAvailable}
	}
	return PolicySection{
		LocalRegulations:        p.LocalRegulations,
		InternationalGuidelines: p.InternationalGuidelines,
	}
}

func fundingSection(f []schemas.FundingOpportunity) FundingSection {
	if len(f) == 0 {
		return FundingSection{Rows: []schemas.FundingOpportunity{}, Placeholder: "No funding opportunities identified"}
	}
	return FundingSection{Rows: f}
}

func categoryDetails(s schemas.SustainabilityScore) []CategoryDetail {
	details := make([]CategoryDetail, 0, len(schemas.CategoryOrder))
	for _, cat := range schemas.CategoryOrder {
		cs := s.Scores[cat]
		cw := s.Weights[cat]
		weighted := score.ComputeWeightedScore(cs.Raw, cw.Weight)
		max := cw.Weight * 10
		band := score.Classify(weighted, max)

		justification := cw.Justification
		if justification == "" {
			justification = NotAvailable
		}

		details = append(details, CategoryDetail{
			Name:          string(cat),
			Raw:           cs.Raw,
			Weight:        cw.Weight,
			Weighted:      weighted,
			Max:           max,
			Band:          band,
			Justification: justification,
			Metrics:       cs.Metrics,
			Narrative:     bandNarrative(string(cat), band),
		})
	}
	return details
}

// positiveStatus reports whether a free-text feasibility status reads as a
// go-ahead; the composer renders a highlight block for those and a warning
// block otherwise.
func positiveStatus(status string) bool {
	lower := strings.ToLower(status)
	return strings.Contains(lower, "approved") || strings.Contains(lower, "feasible")
}

// humanizeKey turns a snake-case style key ("flood_risk", "heat-stress") into
// a human-readable title ("Flood Risk", "Heat Stress").
func humanizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func placeString(loc schemas.Location) string {
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + ", " + loc.Country
	case loc.City != "":
		return loc.City
	case loc.Country != "":
		return loc.Country
	default:
		return NotAvailable
	}
}

func summaryNarrative(project, place string, overall float64, band score.Band) string {
	return fmt.Sprintf(
		"%s in %s achieves an overall sustainability score of %.1f/10, rated %q. "+
			"The rating aggregates five weighted environmental categories; the per-category breakdown below shows how each contributes to the total.",
		project, place, overall, band)
}

func bandNarrative(category string, band score.Band) string {
	switch band {
	case score.BandSustainable:
		return fmt.Sprintf("%s performs strongly and supports the project's sustainability case.", category)
	case score.BandPartiallySustain:
		return fmt.Sprintf("%s is adequate but leaves room for targeted improvement.", category)
	case score.BandPartiallyInfeasible:
		return fmt.Sprintf("%s shows material weaknesses that should be addressed before committing.", category)
	default:
		return fmt.Sprintf("%s falls well short of feasibility thresholds and requires mitigation.", category)
	}
}

func methodologyAppendix() Appendix {
	return Appendix{
		Sources: []SourceRow{
			{Source: "Climate & weather normals", Provider: "Open-Meteo / NOAA", Purpose: "Climate & Weather Data scoring"},
			{Source: "Air quality indices", Provider: "OpenAQ", Purpose: "Air Quality & Pollution scoring"},
			{Source: "Hazard and disaster records", Provider: "USGS / EM-DAT", Purpose: "Disaster Risk & Hazard Data scoring"},
			{Source: "Ecosystem and species data", Provider: "GBIF", Purpose: "Biodiversity & Ecosystem Health scoring"},
			{Source: "Grid and irradiance data", Provider: "Global Solar Atlas", Purpose: "Renewable Energy & Infrastructure Feasibility scoring"},
			{Source: "Geocoding and imagery", Provider: "Google Maps Platform", Purpose: "Location resolution and cover imagery"},
			{Source: "Structured synthesis", Provider: "Google Gemini / OpenAI", Purpose: "Category assessments, risks, policy and funding discovery"},
		},
		Methodology: []string{
			"Each category receives a raw score on a 0-10 scale from provider data and model-assisted analysis.",
			"Category weights reflect relative importance for the location and project type; they are reported alongside every score.",
			"Weighted contributions are raw score multiplied by weight, rounded to one decimal place at display time only.",
			"The overall score is the sum of weighted contributions with no renormalization of supplied weights.",
			"Rating bands: Sustainable (>= 75% of max), Partially Sustainable (>= 50%), Partially Not Feasible (>= 25%), Not Feasible (below 25%).",
		},
		Certification: "This report was generated programmatically from the data sources listed above. It is provided for screening purposes and does not constitute a certified environmental audit.",
	}
}
