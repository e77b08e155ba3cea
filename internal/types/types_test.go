package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioValidate(t *testing.T) {
	tests := []struct {
		name      string
		portfolio Portfolio
		wantErr   bool
	}{
		{
			name: "valid",
			portfolio: Portfolio{
				Name:  "Ada Lovelace",
				Email: "ada@example.com",
				WorkExperiences: []WorkExperience{
					{ID: "w1", JobTitle: "Engineer", Company: "Analytical Engines", StartDate: "2020-01-15"},
				},
			},
		},
		{
			name:      "missing name",
			portfolio: Portfolio{Email: "ada@example.com"},
			wantErr:   true,
		},
		{
			name: "bad date",
			portfolio: Portfolio{
				Name:            "Ada",
				WorkExperiences: []WorkExperience{{JobTitle: "Engineer", Company: "X", StartDate: "Jan 2020"}},
			},
			wantErr: true,
		},
		{
			name:      "bad email",
			portfolio: Portfolio{Name: "Ada", Email: "not-an-email"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.portfolio.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSkillsByCategory(t *testing.T) {
	p := Portfolio{Skills: []Skill{
		{Name: "Go", Category: "Languages"},
		{Name: "Docker"},
		{Name: "Python", Category: "Languages"},
	}}

	order, groups := p.SkillsByCategory()

	assert.Equal(t, []string{"Languages", "Other"}, order)
	assert.Equal(t, []string{"Go", "Python"}, groups["Languages"])
	assert.Equal(t, []string{"Docker"}, groups["Other"])
}

func TestAnalyzeRequestValidate(t *testing.T) {
	require.Error(t, (&AnalyzeRequest{JobDescription: "x"}).Validate())
	require.Error(t, (&AnalyzeRequest{PortfolioID: "p1"}).Validate())
	require.NoError(t, (&AnalyzeRequest{JobDescription: "x", PortfolioID: "p1"}).Validate())
	require.NoError(t, (&AnalyzeRequest{JobDescription: "x", Portfolio: &Portfolio{Name: "Ada"}}).Validate())
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2021-03-04")
	require.True(t, ok)
	assert.Equal(t, 2021, d.Year())

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("March 2021")
	assert.False(t, ok)
}

func TestValidateConcurrentRequests(t *testing.T) {
	portfolio := &Portfolio{Name: "Ada"}
	requests := []interface{ Validate() error }{
		portfolio,
		&AnalyzeRequest{JobDescription: "Go engineer", Portfolio: portfolio},
		&OptimizeRequest{PortfolioID: "p-1"},
		&SelectRequest{JobDescription: "Go engineer", PortfolioID: "p-1"},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50*len(requests))
	for range 50 {
		for _, r := range requests {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- r.Validate()
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Error(t, (&SelectRequest{PortfolioID: "p-1"}).Validate())
}
