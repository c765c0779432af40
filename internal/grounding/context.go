// Package grounding formats resolved catalog products into the context
// block that constrains the model to catalog-approved items, and validates
// the model's chosen products against that set.
package grounding

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// NoProductsMarker is emitted when no products are available for a key.
// Downstream consumers treat it as a terminal "cannot ground
// recommendations" signal.
const NoProductsMarker = "# NENHUM PRODUTO DISPONÍVEL\n"

// fallbackCategory buckets products whose catalog entry has no category.
const fallbackCategory = "Outros"

// CategoryGroup is one category section, in first-appearance order.
type CategoryGroup struct {
	Category string
	Products []model.ProductRecord
}

// GroupByCategory buckets products by category, preserving the insertion
// order of first appearance per category and the source ordering within
// each category.
func GroupByCategory(products []model.ProductRecord) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup

	for _, p := range products {
		cat := p.Category
		if cat == "" {
			cat = fallbackCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		groups[i].Products = append(groups[i].Products, p)
	}

	return groups
}

// BuildContext renders the grounding document handed to the model. An empty
// product list yields the explicit no-products marker, never an empty or
// malformed section.
func BuildContext(products []model.ProductRecord) string {
	if len(products) == 0 {
		return NoProductsMarker
	}

	var sb strings.Builder
	sb.WriteString("# PRODUTOS DISPONÍVEIS PARA RECOMENDAÇÃO\n\n")
	sb.WriteString("Use APENAS estes produtos nas suas recomendações.\n")
	sb.WriteString("Para cada produto, use exatamente as informações fornecidas abaixo.\n\n")

	for _, group := range GroupByCategory(products) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", group.Category))
		for _, p := range group.Products {
			sb.WriteString(fmt.Sprintf("**%s**\n", valueOr(p.Name)))
			sb.WriteString(fmt.Sprintf("- SKU: %s\n", valueOr(p.SKU)))
			sb.WriteString(fmt.Sprintf("- Descrição: %s\n", valueOr(p.Description)))
			sb.WriteString(fmt.Sprintf("- URL: %s\n", valueOr(p.ProductURL)))
			sb.WriteString(fmt.Sprintf("- Imagem: %s\n\n", valueOr(p.ImageURL)))
		}
	}

	return sb.String()
}

func valueOr(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Set is the membership index used to validate model-chosen products.
type Set struct {
	bySKU  map[string]model.ProductRecord
	byName map[string]model.ProductRecord
}

// NewSet indexes the grounded products by SKU and by name.
func NewSet(products []model.ProductRecord) *Set {
	s := &Set{
		bySKU:  make(map[string]model.ProductRecord, len(products)),
		byName: make(map[string]model.ProductRecord, len(products)),
	}
	for _, p := range products {
		if p.SKU != "" {
			s.bySKU[strings.ToLower(p.SKU)] = p
		}
		if p.Name != "" {
			s.byName[strings.ToLower(p.Name)] = p
		}
	}
	return s
}

// Lookup resolves a model-chosen product back to its catalog record, by SKU
// first and name second.
func (s *Set) Lookup(p model.ProductRecord) (model.ProductRecord, bool) {
	if rec, ok := s.bySKU[strings.ToLower(p.SKU)]; ok && p.SKU != "" {
		return rec, true
	}
	if rec, ok := s.byName[strings.ToLower(p.Name)]; ok && p.Name != "" {
		return rec, true
	}
	return model.ProductRecord{}, false
}

// FilterRoutine drops routine entries that do not reference a grounded
// product, replacing kept entries with the verbatim catalog record. The
// response stays best-effort: unknown items are logged and removed, never
// fatal.
func (s *Set) FilterRoutine(routine model.Routine) model.Routine {
	return model.Routine{
		Morning: s.filterEntries(routine.Morning, "morning"),
		Night:   s.filterEntries(routine.Night, "night"),
	}
}

func (s *Set) filterEntries(entries []model.ProductRecord, slot string) []model.ProductRecord {
	kept := make([]model.ProductRecord, 0, len(entries))
	for _, e := range entries {
		rec, ok := s.Lookup(e)
		if !ok {
			zap.L().Warn("model recommended a product outside the catalog",
				zap.String("slot", slot),
				zap.String("name", e.Name),
				zap.String("sku", e.SKU),
			)
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
