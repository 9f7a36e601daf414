package gemini

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
)

// defaultPromptTemplate is used when no template file is configured. It asks
// for a short, plain-prose narrative; the response is stored verbatim as the
// insight summary.
const defaultPromptTemplate = `You are a UX research assistant. Summarize the findings of a card-sorting study for the researcher who ran it.

Study: {{.StudyTitle}}
{{- if .StudyDescription}}
Description: {{.StudyDescription}}
{{- end}}
Participants: {{.ParticipantCount}}
Cards sorted: {{.CardCount}}

Overall agreement: {{printf "%.0f" .AgreementPercent}}% of participants placed the average card in its most popular category.
Inter-rater reliability (kappa): {{printf "%.2f" .Kappa}} ({{.KappaInterpretation}})
Data completeness: {{printf "%.0f" .CompletenessPercent}}%
Potential outlier participants: {{.OutlierCount}}

Most similar card pairs:
{{- range .TopPairs}}
- "{{.CardName1}}" and "{{.CardName2}}" ({{printf "%.0f" .SimilarityPercent}}% of participants grouped them together)
{{- end}}

Most used categories:
{{- range .TopCategories}}
- "{{.Name}}" used by {{.Usage}} participant(s) ({{printf "%.0f" .Percentage}}%)
{{- end}}

Write 2-4 short paragraphs of plain prose. Highlight where participants agreed, where they diverged, and anything the researcher should double-check before trusting the results. Do not use markdown, headings, or bullet points.`

// promptPair is one similarity pair prepared for template rendering.
type promptPair struct {
	CardName1         string
	CardName2         string
	SimilarityPercent float64
}

// promptCategory is one category frequency prepared for template rendering.
type promptCategory struct {
	Name       string
	Usage      int
	Percentage float64
}

// promptData is the template context built from a study and its report.
type promptData struct {
	StudyTitle          string
	StudyDescription    string
	ParticipantCount    int
	CardCount           int
	AgreementPercent    float64
	Kappa               float64
	KappaInterpretation string
	CompletenessPercent float64
	OutlierCount        int
	TopPairs            []promptPair
	TopCategories       []promptCategory
}

// Caps on how much of the report is surfaced in the prompt. The full report
// is available over the API; the prompt only needs the headlines.
const (
	maxPromptPairs      = 5
	maxPromptCategories = 5
)

// buildPromptData projects the parts of the report worth narrating into a
// flat template context.
func buildPromptData(study *domain.Study, report *analysis.Report) promptData {
	data := promptData{
		StudyTitle:          study.Title,
		StudyDescription:    study.Description,
		ParticipantCount:    report.TotalParticipants,
		CardCount:           len(report.Universe),
		AgreementPercent:    report.Agreement.OverallAgreement * 100,
		Kappa:               report.Kappa.Kappa,
		KappaInterpretation: report.Kappa.Interpretation,
		CompletenessPercent: report.Validation.Completeness * 100,
		OutlierCount:        len(report.Outliers.Outliers),
	}

	for _, pair := range report.Similarities {
		if len(data.TopPairs) == maxPromptPairs {
			break
		}
		data.TopPairs = append(data.TopPairs, promptPair{
			CardName1:         pair.CardName1,
			CardName2:         pair.CardName2,
			SimilarityPercent: pair.Similarity * 100,
		})
	}

	for _, freq := range report.CategoryFrequencies {
		if len(data.TopCategories) == maxPromptCategories {
			break
		}
		data.TopCategories = append(data.TopCategories, promptCategory{
			Name:       freq.CategoryName,
			Usage:      freq.Usage,
			Percentage: freq.Percentage,
		})
	}

	return data
}

// renderPrompt executes the template with data built from the study and
// report.
func renderPrompt(tmpl *template.Template, study *domain.Study, report *analysis.Report) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildPromptData(study, report)); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
