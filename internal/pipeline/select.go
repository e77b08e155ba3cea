package pipeline

import (
	"context"
	"strings"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/extraction"
	"atsmatch/internal/observability"
	"atsmatch/internal/schemas"
	"atsmatch/internal/types"
)

type suggestionList struct {
	Suggestions []types.Recommendation `json:"suggestions"`
}

// Select resolves the request's portfolio, picks the items relevant to the
// job and optionally adds improvement suggestions.
func (a *Analyzer) Select(ctx context.Context, req types.SelectRequest) (*types.PortfolioSelection, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid select request", err)
	}

	portfolio, err := a.resolvePortfolio(ctx, req.PortfolioID, req.Portfolio)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	selection, err := a.SelectPortfolio(ctx, portfolio, req.JobDescription)
	if err == nil && req.WithSuggestions {
		selection.Suggestions, err = a.Suggest(ctx, portfolio, req.JobDescription, selection)
	}
	a.metrics.RecordBusinessMetric(ctx, observability.MetricPortfolioSelected, err == nil)
	if err != nil {
		err = timeoutError(ctx, err)
		a.logger.LogError(err, "Portfolio selection failed", "portfolio_id", portfolio.ID)
		return nil, err
	}
	return selection, nil
}

// SelectPortfolio asks the model which portfolio items fit the job. IDs
// the model returns that are not in the portfolio are dropped.
func (a *Analyzer) SelectPortfolio(ctx context.Context, portfolio *types.Portfolio, jobDescription string) (*types.PortfolioSelection, error) {
	if a.selector == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "no model configured for portfolio selection", nil)
	}

	schema, err := schemas.Source(schemas.Selection)
	if err != nil {
		return nil, errors.NewInternalError("SCHEMA_UNAVAILABLE", "selection schema missing", err)
	}

	system, user, err := ai.RenderPrompt(a.cfg, config.PromptSelection, ai.SelectionPromptData{
		JobDescription: jobDescription,
		Portfolio:      extraction.PortfolioWithIDs(portfolio),
		Schema:         schema,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to render selection prompt", err)
	}

	raw, err := a.selector.Generate(ctx, ai.Request{Operation: "select_portfolio", System: system, Prompt: user, JSON: true})
	if err != nil {
		return nil, err
	}

	selection, err := extraction.ParseStructured[types.PortfolioSelection](raw, schemas.Selection)
	if err != nil {
		return nil, err
	}

	ids := collectIDs(portfolio)
	selection.WorkExperienceIDs = keepKnown(selection.WorkExperienceIDs, ids.work)
	selection.EducationIDs = keepKnown(selection.EducationIDs, ids.education)
	selection.ProjectIDs = keepKnown(selection.ProjectIDs, ids.projects)
	selection.AchievementIDs = keepKnown(selection.AchievementIDs, ids.achievements)
	selection.SkillIDs = keepKnown(selection.SkillIDs, ids.skills)
	return selection, nil
}

// Suggest returns model suggestions for strengthening the selected items.
// Suggestions that point at unknown items keep their text but lose the ID.
func (a *Analyzer) Suggest(ctx context.Context, portfolio *types.Portfolio, jobDescription string, selection *types.PortfolioSelection) ([]types.Recommendation, error) {
	if a.selector == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "no model configured for portfolio selection", nil)
	}

	schema, err := schemas.Source(schemas.Suggestions)
	if err != nil {
		return nil, errors.NewInternalError("SCHEMA_UNAVAILABLE", "suggestions schema missing", err)
	}

	system, user, err := ai.RenderPrompt(a.cfg, config.PromptSuggestions, ai.SuggestionsPromptData{
		JobDescription: jobDescription,
		SelectedItems:  extraction.PortfolioWithIDs(Selected(portfolio, selection)),
		Portfolio:      extraction.PortfolioWithIDs(portfolio),
		Schema:         schema,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to render suggestions prompt", err)
	}

	raw, err := a.selector.Generate(ctx, ai.Request{Operation: "suggest_improvements", System: system, Prompt: user, JSON: true})
	if err != nil {
		return nil, err
	}

	list, err := extraction.ParseStructured[suggestionList](raw, schemas.Suggestions)
	if err != nil {
		return nil, err
	}

	all := collectIDs(portfolio).all()
	out := make([]types.Recommendation, 0, len(list.Suggestions))
	for _, s := range list.Suggestions {
		if strings.TrimSpace(s.Suggestion) == "" {
			continue
		}
		if _, ok := all[s.ItemID]; !ok {
			s.ItemID = ""
		}
		out = append(out, s)
	}
	return out, nil
}

// Selected returns a copy of portfolio holding only the selected items.
func Selected(portfolio *types.Portfolio, selection *types.PortfolioSelection) *types.Portfolio {
	if portfolio == nil || selection == nil {
		return portfolio
	}

	out := *portfolio
	out.WorkExperiences = filterByID(portfolio.WorkExperiences, selection.WorkExperienceIDs, func(w types.WorkExperience) string { return w.ID })
	out.Educations = filterByID(portfolio.Educations, selection.EducationIDs, func(e types.Education) string { return e.ID })
	out.Projects = filterByID(portfolio.Projects, selection.ProjectIDs, func(p types.Project) string { return p.ID })
	out.Achievements = filterByID(portfolio.Achievements, selection.AchievementIDs, func(a types.Achievement) string { return a.ID })
	out.Skills = filterByID(portfolio.Skills, selection.SkillIDs, func(s types.Skill) string { return s.ID })
	return &out
}

type idSets struct {
	work, education, projects, achievements, skills map[string]struct{}
}

func collectIDs(p *types.Portfolio) idSets {
	ids := idSets{
		work:         map[string]struct{}{},
		education:    map[string]struct{}{},
		projects:     map[string]struct{}{},
		achievements: map[string]struct{}{},
		skills:       map[string]struct{}{},
	}
	for _, w := range p.WorkExperiences {
		addID(ids.work, w.ID)
	}
	for _, e := range p.Educations {
		addID(ids.education, e.ID)
	}
	for _, pr := range p.Projects {
		addID(ids.projects, pr.ID)
	}
	for _, a := range p.Achievements {
		addID(ids.achievements, a.ID)
	}
	for _, s := range p.Skills {
		addID(ids.skills, s.ID)
	}
	return ids
}

func (s idSets) all() map[string]struct{} {
	out := make(map[string]struct{})
	for _, set := range []map[string]struct{}{s.work, s.education, s.projects, s.achievements, s.skills} {
		for id := range set {
			out[id] = struct{}{}
		}
	}
	return out
}

func addID(set map[string]struct{}, id string) {
	if id != "" {
		set[id] = struct{}{}
	}
}

// keepKnown drops unknown and repeated IDs, keeping the model's order.
func keepKnown(ids []string, known map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func filterByID[T any](items []T, ids []string, id func(T) string) []T {
	want := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		want[v] = struct{}{}
	}
	var out []T
	for _, item := range items {
		if _, ok := want[id(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}
