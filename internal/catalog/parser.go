// Package catalog loads and parses the per-(skin type, complexity, age
// bracket) product catalog documents that ground the model's
// recommendations.
//
// The documents are hand-authored in a quasi-JSON-per-product format that is
// not valid structured data. The parser reconstructs each product block into
// a decodable fragment and drops entries it cannot repair; a single
// malformed entry never prevents extraction of the rest of the catalog.
package catalog

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// headerMarker identifies the known non-product header line in the
// hand-authored documents.
const headerMarker = "Opções Protetor solar"

// productStart marks the opening of a product block: a quoted product key
// followed by an opening brace.
const productStart = `": {`

var (
	bareKeyAfterNewline = regexp.MustCompile(`\n\s*(\w+):`)
	bareKeyAfterBrace   = regexp.MustCompile(`{\s*(\w+):`)
)

// Parse extracts product records from one raw catalog document, in document
// order. It never fails: unparseable blocks are skipped, and a document with
// zero parseable products yields an empty slice.
func Parse(raw string) []model.ProductRecord {
	var products []model.ProductRecord
	var block []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.Contains(line, headerMarker) {
			continue
		}

		if strings.Contains(line, productStart) {
			block = []string{line}
		} else if len(block) > 0 {
			block = append(block, line)
		}

		// A lone closing brace terminates the current product block.
		if len(block) > 0 && line == "}" {
			if rec, err := decodeBlock(strings.Join(block, "\n")); err == nil {
				products = append(products, rec)
			}
			block = nil
		}
	}

	return products
}

// decodeBlock repairs one accumulated product block and decodes it.
func decodeBlock(block string) (model.ProductRecord, error) {
	fragment, err := isolateFragment(block)
	if err != nil {
		return model.ProductRecord{}, err
	}
	fragment = collapseDoubledQuotes(fragment)
	fragment = quoteBareKeys(fragment)

	var rec model.ProductRecord
	if err := json.Unmarshal([]byte(fragment), &rec); err != nil {
		return model.ProductRecord{}, err
	}
	return rec, nil
}

// isolateFragment strips stray enclosing quotes, drops the quoted product
// key, and re-prepends the opening brace so the block reads as one object.
func isolateFragment(block string) (string, error) {
	block = strings.Trim(block, `"`)

	_, body, found := strings.Cut(block, productStart)
	if !found {
		return "", errNoProductKey
	}

	body = strings.TrimRight(strings.TrimRight(body, `"`), " \t")
	return "{" + body, nil
}

// collapseDoubledQuotes turns the CSV-style escaped "" back into ".
func collapseDoubledQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// quoteBareKeys inserts quotation marks around bare field-name tokens that
// precede a colon, both for the first key right after the brace and for
// keys on their own lines.
func quoteBareKeys(s string) string {
	s = bareKeyAfterNewline.ReplaceAllString(s, "\n\"${1}\":")
	s = bareKeyAfterBrace.ReplaceAllString(s, "{\"${1}\":")
	return s
}

type parseError string

func (e parseError) Error() string { return string(e) }

const errNoProductKey = parseError("catalog: block has no product key")
