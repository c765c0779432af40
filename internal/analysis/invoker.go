package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/cost"
	"github.com/dermage/skin-analysis-api/internal/model"
	"github.com/dermage/skin-analysis-api/internal/resilience"
	"github.com/dermage/skin-analysis-api/pkg/anthropic"
)

// InvokeRequest carries everything one model call needs.
type InvokeRequest struct {
	Profile   model.SkinProfile
	Images    []model.ImagePayload
	Grounding string
}

// ModelInvoker is the external analysis capability. Implementations fail
// with a resilience.QuotaError on rate-limit signals so the retry policy
// can tell quota from generic failure.
type ModelInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (*model.AnalysisResult, error)
}

// ClaudeInvoker implements ModelInvoker on the Anthropic vision API.
type ClaudeInvoker struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	costs     *cost.Calculator
}

// NewClaudeInvoker creates the production invoker.
func NewClaudeInvoker(client anthropic.Client, modelID string, maxTokens int64) *ClaudeInvoker {
	return &ClaudeInvoker{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		costs:     cost.NewCalculator(cost.DefaultRates()),
	}
}

func (c *ClaudeInvoker) Invoke(ctx context.Context, req InvokeRequest) (*model.AnalysisResult, error) {
	images := make([]anthropic.Image, len(req.Images))
	for i, img := range req.Images {
		images[i] = anthropic.Image{MediaType: img.MediaType, Data: img.Data}
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    SystemPrompt(),
		Images:    images,
		Prompt:    BuildUserPrompt(req.Profile, req.Grounding),
	})
	if err != nil {
		if anthropic.IsRateLimited(err) {
			return nil, resilience.NewQuotaError(err)
		}
		return nil, err
	}

	resp.Usage.LogUsage(c.model, "analysis")
	if usd := c.costs.Claude(resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens); usd > 0 {
		zap.L().Debug("estimated spend",
			zap.String("model", resp.Model),
			zap.Float64("usd", usd),
		)
	}

	return decodeAnalysis(resp.Text)
}

// wireAnalysis is the trust-boundary shape of the model's JSON answer.
// skin_type is a raw string here and coerced into the closed enum.
type wireAnalysis struct {
	Scores   []model.SkinScore `json:"scores"`
	Concerns string            `json:"concerns"`
	SkinType string            `json:"skin_type"`
	Routine  model.Routine     `json:"routine"`
}

// decodeAnalysis parses the model's text answer into an AnalysisResult,
// coercing the skin type and clamping scores into [0,10].
func decodeAnalysis(text string) (*model.AnalysisResult, error) {
	fragment, ok := extractJSON(text)
	if !ok {
		return nil, eris.Errorf("analysis: no JSON object in model response (%d chars)", len(text))
	}

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(fragment), &wire); err != nil {
		return nil, eris.Wrap(err, "analysis: decode model response")
	}

	result := &model.AnalysisResult{
		Scores:   clampScores(wire.Scores),
		Concerns: wire.Concerns,
		SkinType: model.ParseSkinType(wire.SkinType),
		Routine:  wire.Routine,
	}
	return result, nil
}

// extractJSON isolates the outermost JSON object from a possibly-chatty
// model answer (markdown fences, preamble text).
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func clampScores(scores []model.SkinScore) []model.SkinScore {
	out := make([]model.SkinScore, len(scores))
	for i, s := range scores {
		if s.Value < 0 {
			s.Value = 0
		}
		if s.Value > 10 {
			s.Value = 10
		}
		out[i] = s
	}
	return out
}
