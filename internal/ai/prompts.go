package ai

import (
	"fmt"
	"strings"
	"text/template"

	"atsmatch/internal/config"
)

// PromptTemplate is a pair of text/template sources.
type PromptTemplate struct {
	System string
	User   string
}

// ExtractionPromptData feeds the job and resume extraction prompts.
type ExtractionPromptData struct {
	Schema string
	Text   string
}

// OptimizationPromptData feeds both optimization prompts. The list fields
// are preformatted blocks.
type OptimizationPromptData struct {
	CosineScore      float64
	Recommendations  string
	PriorityKeywords string
	MissingSkills    string
	JobDescription   string
	JobKeywords      string
	Resume           string
	ResumeKeywords   string
	Schema           string
}

// SelectionPromptData feeds the portfolio selection prompt.
type SelectionPromptData struct {
	JobDescription string
	Portfolio      string
	Schema         string
}

// SuggestionsPromptData feeds the improvement suggestions prompt.
type SuggestionsPromptData struct {
	JobDescription string
	SelectedItems  string
	Portfolio      string
	Schema         string
}

const extractionRules = `Output rules:
- Respond with one JSON object that matches the schema exactly. No prose, no markdown, no code fences.
- Keep every key name as written in the schema and do not add keys.
- Write dates as YYYY-MM-DD. Use "Present" when a range is still open.
- When the source does not mention a field, use an empty string or an empty list.`

// DefaultPrompts holds the built-in prompt for every config prompt name.
var DefaultPrompts = map[string]PromptTemplate{
	config.PromptJobExtraction: {
		System: `You turn raw job postings into structured JSON records. You copy facts from the posting and never fill gaps with guesses.

` + extractionRules + `
- Links such as website and applyLink must be absolute URIs or empty.`,
		User: `Convert this job posting into the JSON schema below.

Schema:
{{.Schema}}

Job posting:
{{.Text}}`,
	},

	config.PromptResumeExtraction: {
		System: `You turn resume text into structured JSON records. Map each section of the resume onto the schema without inventing content.

` + extractionRules + `
- Keep bullet points as short factual sentences in the description arrays.
- List skills, languages, certifications and awards exactly as the resume states them.`,
		User: `Convert this resume into the JSON schema below.

Schema:
{{.Schema}}

Resume:
{{.Text}}`,
	},

	config.PromptOptimization: {
		System: `You are a resume editor who rewrites resumes so they match a specific job posting more closely.

Hard constraints:
- Only rephrase, reorder, merge or split content that already exists in the resume.
- Never add employers, projects, technologies, certifications or achievements that the resume does not mention.
- When a requirement is not covered, point to related experience the resume already shows and describe it with the job's vocabulary.
- Keep the existing sections. A short professional summary may be added at the top.
- Use a natural professional tone without keyword stuffing. Start bullets with action verbs and keep any numbers the resume already has.`,
		User: `The resume currently scores {{printf "%.4f" .CosineScore}} cosine similarity against the job. Revise it to raise that score within the constraints.

ATS recommendations:
{{.Recommendations}}

High priority keywords:
{{.PriorityKeywords}}

Missing skills to consider:
{{.MissingSkills}}

Job description:
` + "```md" + `
{{.JobDescription}}
` + "```" + `

Job keywords:
{{.JobKeywords}}

Original resume:
` + "```md" + `
{{.Resume}}
` + "```" + `

Resume keywords:
{{.ResumeKeywords}}

Return only the improved resume as markdown.`,
	},

	config.PromptStructuredOptimization: {
		System: `You are a resume editor who rewrites resumes so they match a specific job posting more closely, returning the result as structured JSON.

Hard constraints:
- Only rephrase, reorder, merge or split content that already exists in the resume.
- Never add employers, projects, technologies, certifications or achievements that the resume does not mention.
- Keep contact details exactly as given.
- Respond with one JSON object matching the schema. No prose, no code fences.`,
		User: `The resume currently scores {{printf "%.4f" .CosineScore}} cosine similarity against the job. Revise it to raise that score within the constraints.

ATS recommendations:
{{.Recommendations}}

High priority keywords:
{{.PriorityKeywords}}

Missing skills to consider:
{{.MissingSkills}}

Job description:
{{.JobDescription}}

Job keywords:
{{.JobKeywords}}

Original resume:
{{.Resume}}

Resume keywords:
{{.ResumeKeywords}}

Schema:
{{.Schema}}`,
	},

	config.PromptSelection: {
		System: `You are a career advisor. Given a job description and a candidate portfolio, you pick the portfolio items that make the strongest application for that job.

Weigh required and preferred qualifications, the technical stack, seniority and domain vocabulary. Prefer recent work for technical roles. Rank by relevance and keep what fits on a one or two page resume: three strong experiences beat five weak ones.

Respond with one JSON object matching the schema. Only use IDs that appear in the portfolio.`,
		User: `Job description:
{{.JobDescription}}

Candidate portfolio:
{{.Portfolio}}

Return the IDs of the items worth including, grouped by section, plus a short reasoning string.

Schema:
{{.Schema}}`,
	},

	config.PromptSuggestions: {
		System: `You are a resume advisor. You give concrete, actionable suggestions that bring a selected set of resume items closer to a job posting.`,
		User: `Job description:
{{.JobDescription}}

Selected items:
{{.SelectedItems}}

Full portfolio:
{{.Portfolio}}

Give three to five suggestions. Useful suggestions name keywords to emphasize, bullets to reword, metrics to add, or portfolio items that were left out but should be included. Set itemId when a suggestion targets one item.

Respond with one JSON object matching the schema.

Schema:
{{.Schema}}`,
	},
}

// RenderPrompt renders the named prompt with data. Prompts loaded from
// files or set inline in cfg replace the built-in text part by part.
func RenderPrompt(cfg *config.Config, name string, data any) (string, string, error) {
	tmpl, ok := DefaultPrompts[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}

	if cfg != nil {
		override := cfg.Prompt(name)
		if override.System != "" {
			tmpl.System = override.System
		}
		if override.User != "" {
			tmpl.User = override.User
		}
	}

	system, err := execute(name+".system", tmpl.System, data)
	if err != nil {
		return "", "", err
	}
	user, err := execute(name+".user", tmpl.User, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func execute(name, text string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt %s: %w", name, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
