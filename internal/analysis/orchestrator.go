// Package analysis coordinates classification, catalog resolution, context
// building, and the model invocation for one analysis request.
package analysis

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/catalog"
	"github.com/dermage/skin-analysis-api/internal/grounding"
	"github.com/dermage/skin-analysis-api/internal/model"
	"github.com/dermage/skin-analysis-api/internal/profile"
	"github.com/dermage/skin-analysis-api/internal/resilience"
)

// Phase labels the pipeline stage, for logs and error context.
type Phase string

const (
	PhaseClassifying      Phase = "classifying"
	PhaseResolvingCatalog Phase = "resolving_catalog"
	PhaseBuildingContext  Phase = "building_context"
	PhaseInvokingModel    Phase = "invoking_model"
)

// Complexity thresholds for the structural rule: profiles with long answers
// or many questions get the complete routine tier.
const (
	completeAnswerLength  = 150
	completeQuestionCount = 5
)

// Orchestrator runs the analysis pipeline. One instance serves all
// requests; all state lives in the injected collaborators.
type Orchestrator struct {
	resolver *catalog.Resolver
	invoker  ModelInvoker
	policy   resilience.Policy
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(resolver *catalog.Resolver, invoker ModelInvoker, policy resilience.Policy) *Orchestrator {
	return &Orchestrator{resolver: resolver, invoker: invoker, policy: policy}
}

// Analyze runs the full pipeline for one request. It fails only with
// QuotaExceededError or FailedError; every other condition degrades into a
// best-effort result.
func (o *Orchestrator) Analyze(ctx context.Context, prof model.SkinProfile, images []model.ImagePayload) (*model.AnalysisResult, error) {
	id := uuid.NewString()
	log := zap.L().With(zap.String("analysis_id", id))

	// classifying
	bracket := o.ageBracket(prof)
	complexity := structuralComplexity(prof)
	skinType := model.ParseSkinType(prof.SkinType)
	log.Info("profile classified",
		zap.String("phase", string(PhaseClassifying)),
		zap.Int("age_bracket", int(bracket)),
		zap.String("complexity", string(complexity)),
		zap.String("skin_type", string(skinType)),
	)

	// resolving_catalog
	key := model.CatalogKey{SkinType: skinType, Complexity: complexity, AgeBracket: bracket}
	products, err := o.resolver.Resolve(ctx, key)
	if err != nil {
		return nil, &FailedError{Cause: err}
	}
	log.Info("catalog resolved",
		zap.String("phase", string(PhaseResolvingCatalog)),
		zap.String("catalog_key", key.ID()),
		zap.Int("products", len(products)),
	)

	// building_context
	groundingContext := grounding.BuildContext(products)
	log.Debug("grounding context built",
		zap.String("phase", string(PhaseBuildingContext)),
		zap.Int("context_bytes", len(groundingContext)),
	)

	// invoking_model
	req := InvokeRequest{Profile: prof, Images: images, Grounding: groundingContext}
	policy := o.policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger("anthropic", "analyze")
	}
	result, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*model.AnalysisResult, error) {
		return o.invoker.Invoke(ctx, req)
	})
	if err != nil {
		log.Warn("model invocation exhausted retries",
			zap.String("phase", string(PhaseInvokingModel)),
			zap.Bool("quota", resilience.IsQuota(err)),
			zap.Error(err),
		)
		if resilience.IsQuota(err) {
			return nil, &QuotaExceededError{Cause: err}
		}
		return nil, &FailedError{Cause: err}
	}

	// Keep the routine grounded: with no catalog coverage nothing can be
	// recommended; otherwise drop anything outside the resolved set.
	if len(products) == 0 {
		result.Routine = model.Routine{Morning: []model.ProductRecord{}, Night: []model.ProductRecord{}}
	} else {
		result.Routine = grounding.NewSet(products).FilterRoutine(result.Routine)
	}

	log.Info("analysis complete",
		zap.String("skin_type", string(result.SkinType)),
		zap.Int("morning_products", len(result.Routine.Morning)),
		zap.Int("night_products", len(result.Routine.Night)),
	)

	return result, nil
}

// ageBracket prefers the explicit profile age; otherwise the keyword
// classifier decides from the answer text (which itself prefers an explicit
// age mentioned in the text).
func (o *Orchestrator) ageBracket(prof model.SkinProfile) model.AgeBracket {
	if prof.Age != nil {
		return model.BracketForAge(*prof.Age)
	}
	return profile.AgeBracketOf(prof.AnswerText())
}

// structuralComplexity is the orchestration-level complexity rule: it looks
// at the shape of the structured profile rather than its wording.
func structuralComplexity(prof model.SkinProfile) model.RoutineComplexity {
	if prof.AnswerLength() > completeAnswerLength || len(prof.Questions) > completeQuestionCount {
		return model.RoutineComplete
	}
	return model.RoutineSimple
}
