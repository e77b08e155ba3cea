package factcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const source = `Backend Engineer at Acme Corp
- Migrated services to Kubernetes and cut deploy time by 40%
Skills: Go, PostgreSQL`

const job = "We need Terraform experience and strong Go skills."

func TestCheckPassesGroundedRewrite(t *testing.T) {
	output := `## Work Experience
### Backend Engineer at Acme Corp
- Led migration to Kubernetes, reducing deploy time by 40%
- Tuned PostgreSQL queries for Go services`

	report := Check(output, source)
	assert.True(t, report.Passed(), "unexpected violations: %v", report.Violations)
	assert.Positive(t, report.Checked)
}

func TestCheckFlagsJobOnlyTerms(t *testing.T) {
	output := `- Led migration to Kubernetes
- Managed infrastructure with Terraform and PostgreSQL`

	report := Check(output, source)
	assert.Equal(t, []string{"Terraform"}, report.Violations)

	// Passing the posting as a source would hide the invention.
	assert.True(t, Check(output, source, job).Passed())
}

func TestCheckFlagsInventedEntities(t *testing.T) {
	output := `- Architected Snowflake pipelines at Globex Industries
- Deployed services on kafka`

	report := Check(output, source)
	assert.Equal(t, []string{"Snowflake", "Globex Industries", "kafka"}, report.Violations)
	assert.False(t, report.Passed())
}

func TestCandidatesSkipSentenceOpeners(t *testing.T) {
	got := Candidates("Built payment APIs. Improved latency with Redis Streams.")
	assert.Equal(t, []string{"APIs", "Redis Streams"}, got)
}

func TestCandidatesKeepTechnicalOpeners(t *testing.T) {
	got := Candidates("- PostgreSQL tuning\n- C++ services")
	assert.Equal(t, []string{"PostgreSQL", "C++"}, got)
}

func TestCheckIgnoresLayoutWords(t *testing.T) {
	report := Check("## Professional Summary\n## Education\nJan 2020 - Present", source)
	assert.Zero(t, report.Checked)
	assert.Empty(t, report.Violations)
}
