package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// systemPrompt is the dermatologist persona instruction, kept in Portuguese
// to match the questionnaire and catalog language.
const systemPrompt = `Você é um dermatologista altamente experiente, especializado em cuidados com a pele do rosto.
Receberá perguntas, respostas e imagens de um paciente relacionadas à saúde e estética facial.
Com base nessas informações, deve analisar cuidadosamente e responder seguindo exatamente o modelo de resposta fornecido, utilizando uma linguagem técnica, empática e profissional, adequada à prática dermatológica.
Suas respostas devem ser claras, objetivas e baseadas em evidências clínicas, considerando aspectos como diagnóstico diferencial, possíveis causas, tratamento recomendado e orientações preventivas.`

// responseSchema instructs the model to answer with the exact JSON shape of
// AnalysisResult. Scores are bounded; skin_type is restricted to the known
// values (the orchestrator still coerces unknown values to normal).
const responseSchema = `Responda com APENAS um objeto JSON válido, sem markdown, neste formato:
{
  "scores": [{"score_tag": "<dimensão avaliada>", "score_number": <0 a 10>}],
  "concerns": "<análise textual das preocupações observadas>",
  "skin_type": "<dry|combination|oily|normal>",
  "routine": {
    "morning": [{"name": "<nome do produto>", "sku": "<sku>"}],
    "night": [{"name": "<nome do produto>", "sku": "<sku>"}]
  }
}
Na rotina, use somente produtos do catálogo fornecido, referenciados por nome e SKU exatos.`

// SystemPrompt returns the full system instruction for the analysis call.
func SystemPrompt() string {
	return systemPrompt + "\n\n" + responseSchema
}

// BuildUserPrompt renders the questionnaire and the grounding context into
// the user message that accompanies the images.
func BuildUserPrompt(profile model.SkinProfile, groundingContext string) string {
	var sb strings.Builder

	sb.WriteString("## Questionário do paciente\n\n")
	for _, q := range profile.Questions {
		sb.WriteString(fmt.Sprintf("Pergunta: %s\nResposta: %s\n\n", q.Question, q.Answer))
	}

	if profile.Age != nil {
		sb.WriteString(fmt.Sprintf("Idade informada: %d\n\n", *profile.Age))
	}
	if len(profile.Extra) > 0 {
		keys := make([]string, 0, len(profile.Extra))
		for k := range profile.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("%s: %s\n", k, profile.Extra[k]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(groundingContext)

	return sb.String()
}
