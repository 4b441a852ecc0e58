// File: internal/feasibility/service.go
package feasibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/llmutil"
	"github.com/hverdane/ecoestate/internal/report"
)

// assessmentSystemPrompt drives the heavyweight sustainability assessment.
// The category names are injected verbatim so the response keys line up with
// the fixed category set.
const assessmentSystemPrompt = `You are an environmental consultant preparing a renewable-energy and
development feasibility study for a location. Score each of these categories
exactly as named, with a raw score between 0 and 10 and a weight between 0 and 1:

%s

Respond ONLY with a JSON object matching this schema:
{
  "sustainability_score": {
    "scores": {"<category>": {"raw_score": <number>, "metrics": {"<metric>": <number>}}},
    "weights": {"<category>": {"weight": <number>, "justification": "<sentence>"}}
  },
  "feasibility_report": {
    "status": "<short status>",
    "key_findings": ["<finding>", ...],
    "recommendations": ["<recommendation>", ...]
  },
  "risk_analysis": {"<risk_key>": {"value": "<severity or figure>", "explanation": "<sentence>"}}
}`

const policySystemPrompt = `You are a policy analyst. Summarize the regulations, guidelines and
funding programs relevant to sustainable development at the location the user
names. Respond ONLY with a JSON object matching this schema:
{
  "policy_compliance": {
    "local_regulations": [{"law_name": "<name>", "compliance_status": "<compliant|review needed|unknown>", "notes": "<sentence>"}],
    "international_guidelines": [{"treaty": "<name>", "alignment": "<aligned|partial|unknown>", "notes": "<sentence>"}]
  },
  "funding_opportunities": [{"name": "<program>", "amount": "<range or figure>", "eligibility": "<who qualifies>", "application_deadline": "<date if known>", "link": "<url if known>"}]
}
Leave arrays empty when you have no reliable information.`

type assessmentPayload struct {
	ProjectName    string                       `json:"project_name"`
	Sustainability report.PayloadScores         `json:"sustainability_score"`
	Feasibility    schemas.FeasibilityReport    `json:"feasibility_report"`
	Risks          map[string]schemas.RiskEntry `json:"risk_analysis"`
}

type policyPayload struct {
	Policy  schemas.PolicyCompliance     `json:"policy_compliance"`
	Funding []schemas.FundingOpportunity `json:"funding_opportunities"`
}

// Service orchestrates full feasibility report generation: geocoding the
// requested place, fanning out to the model tiers, validating the combined
// payload and persisting the assembled report.
type Service struct {
	llm      schemas.LLMClient
	geocoder schemas.Geocoder
	store    schemas.Store
	logger   *zap.Logger
}

// NewService wires up the feasibility service.
func NewService(llm schemas.LLMClient, geocoder schemas.Geocoder, store schemas.Store, logger *zap.Logger) *Service {
	return &Service{
		llm:      llm,
		geocoder: geocoder,
		store:    store,
		logger:   logger.Named("feasibility"),
	}
}

// GenerateReport produces and persists a project report for the given
// address. The sustainability assessment runs on the powerful tier while the
// policy summary runs on the fast tier; both requests are issued
// concurrently once the address is resolved.
func (s *Service) GenerateReport(ctx context.Context, address, projectName string) (*schemas.ProjectReport, error) {
	loc, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", address, err)
	}

	place := loc.City
	if loc.Country != "" {
		place += ", " + loc.Country
	}
	userPrompt := fmt.Sprintf("Location: %s (lat %.4f, lng %.4f)", place, loc.Latitude, loc.Longitude)

	var (
		assessment *assessmentPayload
		policy     *policyPayload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := s.llm.Generate(gctx, schemas.GenerationRequest{
			SystemPrompt: fmt.Sprintf(assessmentSystemPrompt, categoryList()),
			UserPrompt:   userPrompt,
			Tier:         schemas.TierPowerful,
			Options:      schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
		})
		if err != nil {
			return fmt.Errorf("sustainability assessment failed: %w", err)
		}
		assessment, err = llmutil.ParseJSONResponse[assessmentPayload](raw)
		if err != nil {
			return fmt.Errorf("failed to parse assessment response: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		raw, err := s.llm.Generate(gctx, schemas.GenerationRequest{
			SystemPrompt: policySystemPrompt,
			UserPrompt:   userPrompt,
			Tier:         schemas.TierFast,
			Options:      schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
		})
		if err != nil {
			return fmt.Errorf("policy summary failed: %w", err)
		}
		policy, err = llmutil.ParseJSONResponse[policyPayload](raw)
		if err != nil {
			return fmt.Errorf("failed to parse policy response: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload := &report.Payload{
		ProjectName:    projectName,
		Sustainability: assessment.Sustainability,
		Feasibility:    assessment.Feasibility,
		Risks:          assessment.Risks,
		Policy:         policy.Policy,
		Funding:        policy.Funding,
	}
	if payload.ProjectName == "" {
		payload.ProjectName = assessment.ProjectName
	}

	r, err := report.Build(payload, uuid.NewString(), *loc, time.Now())
	if err != nil {
		return nil, fmt.Errorf("report validation failed: %w", err)
	}

	if err := s.store.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	s.logger.Info("Feasibility report generated",
		zap.String("report_id", r.ID),
		zap.String("city", loc.City),
		zap.Float64("overall_score", r.Sustainability.Overall),
	)
	return r, nil
}

func categoryList() string {
	names := make([]string, 0, len(schemas.CategoryOrder))
	for _, c := range schemas.CategoryOrder {
		names = append(names, "- "+string(c))
	}
	return strings.Join(names, "\n")
}
