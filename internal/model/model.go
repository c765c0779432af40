// Package model holds the domain types shared across the analysis pipeline.
package model

import (
	"fmt"
	"strings"
)

// SkinType is the closed set of skin types the catalog is organized by.
type SkinType string

const (
	SkinDry         SkinType = "dry"
	SkinCombination SkinType = "combination"
	SkinOily        SkinType = "oily"
	SkinNormal      SkinType = "normal"
)

// skinTypeAliases maps raw model/user strings to canonical skin types.
// The catalog and prompts are in Portuguese, so both vocabularies are accepted.
var skinTypeAliases = map[string]SkinType{
	"dry":         SkinDry,
	"seca":        SkinDry,
	"combination": SkinCombination,
	"mista":       SkinCombination,
	"oily":        SkinOily,
	"oleosa":      SkinOily,
	"normal":      SkinNormal,
}

// ParseSkinType coerces a raw string to a SkinType. Unrecognized values
// default to SkinNormal; external strings are never trusted directly.
func ParseSkinType(raw string) SkinType {
	if st, ok := skinTypeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return st
	}
	return SkinNormal
}

// AgeBracket is the coarse age classification used to select a catalog.
type AgeBracket int

const (
	AgeUnder30 AgeBracket = 1
	Age30To45  AgeBracket = 2
	AgeOver45  AgeBracket = 3
)

// BracketForAge maps a numeric age onto a bracket.
func BracketForAge(age int) AgeBracket {
	switch {
	case age < 30:
		return AgeUnder30
	case age < 45:
		return Age30To45
	default:
		return AgeOver45
	}
}

// Description returns the human-readable bracket summary shown in
// recommendation previews.
func (b AgeBracket) Description() string {
	switch b {
	case Age30To45:
		return "30-45 anos (primeiros sinais de envelhecimento)"
	case AgeOver45:
		return "45+ anos (tratamento anti-idade intensivo)"
	default:
		return "até 30 anos (foco em prevenção)"
	}
}

// RoutineComplexity is the routine tier used to select a catalog variant.
type RoutineComplexity string

const (
	RoutineSimple   RoutineComplexity = "SIMPLE"
	RoutineComplete RoutineComplexity = "COMPLETE"
)

// QuizAnswer is a single questionnaire entry, supplied by the caller.
type QuizAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SkinProfile is the validated inbound questionnaire. Read-only within the
// pipeline.
type SkinProfile struct {
	Questions []QuizAnswer      `json:"questions"`
	Age       *int              `json:"age,omitempty"`
	SkinType  string            `json:"skin_type,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// AnswerText concatenates all answer text, the input to keyword
// classification.
func (p SkinProfile) AnswerText() string {
	parts := make([]string, 0, len(p.Questions))
	for _, q := range p.Questions {
		parts = append(parts, q.Answer)
	}
	return strings.Join(parts, " ")
}

// AnswerLength is the combined answer length in characters.
func (p SkinProfile) AnswerLength() int {
	n := 0
	for _, q := range p.Questions {
		n += len(q.Answer)
	}
	return n
}

// ProductRecord is one catalog entry. Every field originates verbatim from
// the catalog document; the pipeline never fabricates a product.
type ProductRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Category    string `json:"category"`
	ImageURL    string `json:"image"`
	ProductURL  string `json:"url"`
}

// CatalogKey uniquely identifies one catalog document.
type CatalogKey struct {
	SkinType   SkinType
	Complexity RoutineComplexity
	AgeBracket AgeBracket
}

// ID renders the stable document identifier, e.g. "DRY-COMPLETE-2".
func (k CatalogKey) ID() string {
	return fmt.Sprintf("%s-%s-%d",
		strings.ToUpper(string(k.SkinType)),
		strings.ToUpper(string(k.Complexity)),
		int(k.AgeBracket))
}

// SkinScore is one scored dimension of the analysis, in [0,10].
type SkinScore struct {
	Tag   string  `json:"score_tag"`
	Value float64 `json:"score_number"`
}

// Routine is the recommended morning/night product sequence.
type Routine struct {
	Morning []ProductRecord `json:"morning"`
	Night   []ProductRecord `json:"night"`
}

// AnalysisResult is the structured outcome of one analysis request.
// Immutable after construction and safe to share.
type AnalysisResult struct {
	Scores   []SkinScore `json:"scores"`
	Concerns string      `json:"concerns"`
	SkinType SkinType    `json:"skin_type"`
	Routine  Routine     `json:"routine"`
}

// ImagePayload is one decoded facial image handed to the model.
type ImagePayload struct {
	MediaType string
	Data      []byte
}
