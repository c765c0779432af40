// Package profile derives an age bracket and routine-complexity tier from
// free-text questionnaire answers. The classification is heuristic but
// deterministic: same text in, same result out, no external calls.
package profile

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// Classification is the outcome of classifying one blob of answer text.
type Classification struct {
	AgeBracket model.AgeBracket
	Complexity model.RoutineComplexity
}

// agePatterns match an explicit numeric age in Portuguese answer text,
// e.g. "tenho 52 anos", "idade: 34". Explicit ages beat keyword scoring.
var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,3})\s*anos`),
	regexp.MustCompile(`idade[:\s]+(\d{1,3})`),
	regexp.MustCompile(`tenho\s+(\d{1,3})`),
}

// Keyword sets are folded (lowercase, accent-stripped) at declaration so they
// match the folded input text.
var (
	youthKeywords = []string{
		"jovem", "novo", "nova", "20 anos", "vinte", "adolescent",
		"inicio", "prevencao", "primeira rotina",
	}
	midlifeKeywords = []string{
		"trinta", "30", "35", "40", "meia idade",
		"primeiras rugas", "sinais de idade", "preventivo",
	}
	maturityKeywords = []string{
		"45", "50", "55", "60", "quarenta", "cinquenta",
		"madur", "rugas profundas", "flacidez", "anti-idade",
		"rejuvenescimento", "lifting",
	}

	simpleKeywords = []string{
		"simples", "basico", "basica", "iniciante", "começando", "poucos produtos",
		"rapido", "rapida", "pratico", "pratica", "orcamento", "barato", "economico",
		"primeiro", "primeira", "minimo", "minima", "essencial", "comeco",
	}
	completeKeywords = []string{
		"completo", "completa", "avancado", "avancada", "intensivo", "intensiva",
		"detalhado", "detalhada", "multiplos", "multiplas", "varias", "varios",
		"muitas preocupacoes", "muitos problemas", "problemas", "preocupacoes",
		"resultados rapidos", "eficaz", "potente", "tratamento completo",
		"anti-idade", "rugas", "manchas", "acne severa", "melasma",
		"flacidez", "rejuvenescimento", "tratamento intensivo",
	}
)

func init() {
	for _, set := range [][]string{youthKeywords, midlifeKeywords, maturityKeywords, simpleKeywords, completeKeywords} {
		for i, kw := range set {
			set[i] = fold(kw)
		}
	}
}

// fold lowercases and strips diacritics so "Básica" matches "basica". The
// questionnaire is free text typed by patients; accent usage is unreliable.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Classify derives both the age bracket and the routine complexity from raw
// answer text. It always returns a result; ambiguity resolves to defaults.
func Classify(text string) Classification {
	folded := fold(text)
	return Classification{
		AgeBracket: ageBracketOf(folded),
		Complexity: complexityOf(folded),
	}
}

// AgeBracketOf classifies only the age bracket.
func AgeBracketOf(text string) model.AgeBracket {
	return ageBracketOf(fold(text))
}

// ComplexityOf classifies only the routine complexity.
func ComplexityOf(text string) model.RoutineComplexity {
	return complexityOf(fold(text))
}

func ageBracketOf(folded string) model.AgeBracket {
	// 1. Explicit numeric age wins outright.
	for _, pat := range agePatterns {
		if m := pat.FindStringSubmatch(folded); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil {
				return model.BracketForAge(age)
			}
		}
	}

	// 2. Keyword scoring across the three disjoint signal sets.
	youth := scoreKeywords(folded, youthKeywords)
	midlife := scoreKeywords(folded, midlifeKeywords)
	maturity := scoreKeywords(folded, maturityKeywords)

	// 3. Highest score wins; ties and zero scores fall back to under-30,
	// the most common population.
	switch {
	case maturity > midlife && maturity > youth:
		return model.AgeOver45
	case midlife > youth && midlife > maturity:
		return model.Age30To45
	default:
		return model.AgeUnder30
	}
}

func complexityOf(folded string) model.RoutineComplexity {
	// Explicit mentions short-circuit scoring; the completa branch is
	// checked first and wins when both families appear.
	if strings.Contains(folded, "completa") || strings.Contains(folded, "completo") {
		return model.RoutineComplete
	}
	if strings.Contains(folded, "simples") || strings.Contains(folded, "basica") || strings.Contains(folded, "basico") {
		return model.RoutineSimple
	}

	simple := scoreKeywords(folded, simpleKeywords)
	complete := scoreKeywords(folded, completeKeywords)

	// COMPLETE only on strict majority; all ties default to SIMPLE.
	if complete > simple {
		return model.RoutineComplete
	}
	return model.RoutineSimple
}

func scoreKeywords(folded string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			score++
		}
	}
	return score
}
