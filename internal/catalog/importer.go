package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// ImportResult summarizes one workbook import.
type ImportResult struct {
	Documents int
	Products  int
	Skipped   int
}

// columnAliases maps workbook header names to canonical column names. The
// source spreadsheets are authored in Portuguese.
var columnAliases = map[string]string{
	"name":        "name",
	"nome":        "name",
	"description": "description",
	"descricao":   "description",
	"descrição":   "description",
	"sku":         "sku",
	"category":    "category",
	"categoria":   "category",
	"image":       "image",
	"imagem":      "image",
	"url":         "url",
	"link":        "url",
	"skin_type":   "skin_type",
	"tipo":        "skin_type",
	"routine":     "routine",
	"rotina":      "routine",
	"age_group":   "age_group",
	"faixa":       "age_group",
}

// ImportXLSX reads a product workbook and writes one catalog document per
// (skin type, routine, age group) combination found in the rows. Rows missing
// a product name or SKU are skipped, never fatal.
func ImportXLSX(ctx context.Context, store WritableStore, path string) (ImportResult, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return ImportResult{}, eris.Wrap(err, "catalog: open workbook")
	}

	var res ImportResult
	grouped := make(map[string][]model.ProductRecord)
	var order []string

	for _, sheet := range f.Sheets {
		if len(sheet.Rows) < 2 {
			continue
		}

		cols := headerIndex(sheet.Rows[0])
		if _, ok := cols["name"]; !ok {
			zap.L().Warn("catalog sheet has no name column, skipping",
				zap.String("sheet", sheet.Name),
			)
			continue
		}

		for _, row := range sheet.Rows[1:] {
			rec, key, ok := decodeRow(row, cols)
			if !ok {
				res.Skipped++
				continue
			}

			id := key.ID()
			if _, seen := grouped[id]; !seen {
				order = append(order, id)
			}
			grouped[id] = append(grouped[id], rec)
			res.Products++
		}
	}

	for _, id := range order {
		if err := store.Put(ctx, id, renderDocument(grouped[id])); err != nil {
			return res, eris.Wrapf(err, "catalog: store document %s", id)
		}
		res.Documents++
	}

	return res, nil
}

// headerIndex maps canonical column names to their cell index.
func headerIndex(row *xlsx.Row) map[string]int {
	cols := make(map[string]int)
	for i, cell := range row.Cells {
		name := strings.ToLower(strings.TrimSpace(cell.String()))
		if canonical, ok := columnAliases[name]; ok {
			cols[canonical] = i
		}
	}
	return cols
}

func decodeRow(row *xlsx.Row, cols map[string]int) (model.ProductRecord, model.CatalogKey, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[i].String())
	}

	rec := model.ProductRecord{
		Name:        cell("name"),
		Description: cell("description"),
		SKU:         cell("sku"),
		Category:    cell("category"),
		ImageURL:    cell("image"),
		ProductURL:  cell("url"),
	}
	if rec.Name == "" || rec.SKU == "" {
		return model.ProductRecord{}, model.CatalogKey{}, false
	}

	key := model.CatalogKey{
		SkinType:   model.ParseSkinType(cell("skin_type")),
		Complexity: parseComplexity(cell("routine")),
		AgeBracket: parseAgeGroup(cell("age_group")),
	}
	return rec, key, true
}

func parseComplexity(raw string) model.RoutineComplexity {
	switch strings.ToLower(raw) {
	case "complete", "completa", "completo":
		return model.RoutineComplete
	default:
		return model.RoutineSimple
	}
}

func parseAgeGroup(raw string) model.AgeBracket {
	n, err := strconv.Atoi(raw)
	if err != nil || n < int(model.AgeUnder30) || n > int(model.AgeOver45) {
		return model.AgeUnder30
	}
	return model.AgeBracket(n)
}

// renderDocument serializes products in the catalog document format Parse
// reads back: one quoted-key block per product. Empty fields are omitted and
// double quotes inside values become apostrophes, since adjacent quote pairs
// are collapsed by the document repair step.
func renderDocument(products []model.ProductRecord) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: {\n", encodeValue(p.Name))

		fields := [][2]string{
			{"name", p.Name},
			{"description", p.Description},
			{"sku", p.SKU},
			{"category", p.Category},
			{"image", p.ImageURL},
			{"url", p.ProductURL},
		}
		var lines []string
		for _, f := range fields {
			if f[1] == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %q: %s", f[0], encodeValue(f[1])))
		}
		b.WriteString(strings.Join(lines, ",\n"))
		b.WriteString("\n}\n")
	}
	return b.String()
}

func encodeValue(v string) string {
	enc, err := json.Marshal(strings.ReplaceAll(v, `"`, "'"))
	if err != nil {
		return `""`
	}
	return string(enc)
}
