package server

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atsmatch/internal/errors"
	"atsmatch/internal/types"
)

const tracerName = "atsmatch.api"

func (s *Server) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	return s.Observability.Tracer(tracerName).Start(r.Context(), name)
}

// fail records err on the span and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	errType := "internal"
	if appErr, ok := errors.AsAppError(err); ok {
		errType = string(appErr.Type)
	}
	span.SetAttributes(attribute.String("error.type", errType))
	s.writeAppError(w, err)
}

// analyzeHandler runs the analysis pipeline. Clients sending
// Accept: text/event-stream receive progress events instead of one body.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.analyze")
	defer span.End()

	var req types.AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid analyze request", err))
		return
	}

	streaming := wantsEventStream(r)
	span.SetAttributes(
		attribute.String("operation", "analyze"),
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Bool("request.inline_portfolio", req.Portfolio != nil),
		attribute.Bool("request.stream", streaming),
	)

	if streaming {
		s.streamAnalysis(ctx, w, span, req)
		return
	}

	analysis, err := s.Analyzer.Analyze(ctx, req, nil)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("analysis.id", analysis.ID),
		attribute.Float64("ats.score", analysis.Scores.OverallScore),
	)
	s.writeJSON(w, http.StatusOK, analysis)
}

// optimizeHandler rewrites a resume and stores the result. Like analyze it
// streams progress events on request.
func (s *Server) optimizeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.optimize")
	defer span.End()

	var req types.OptimizeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid optimize request", err))
		return
	}

	streaming := wantsEventStream(r)
	span.SetAttributes(
		attribute.String("operation", "optimize"),
		attribute.Bool("request.structured", req.Structured),
		attribute.String("request.analysis_id", req.AnalysisID),
		attribute.Bool("request.stream", streaming),
	)

	if streaming {
		s.streamOptimization(ctx, w, span, req)
		return
	}

	result, err := s.Analyzer.Optimize(ctx, req, nil)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("optimization.id", result.ID),
		attribute.String("analysis.id", result.AnalysisID),
		attribute.String("optimize.mode", result.Mode),
		attribute.Int("factcheck.violations", len(result.FactCheck.Violations)),
	)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) listOptimizationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.list_optimizations")
	defer span.End()

	resumeID := r.URL.Query().Get("resumeId")
	span.SetAttributes(attribute.String("resume.id", resumeID))

	history, err := s.Analyzer.Optimizations(ctx, resumeID)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("optimizations.count", len(history)))
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) getOptimizationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.get_optimization")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("optimization.id", id))

	result, err := s.Analyzer.Optimization(ctx, id)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) compareOptimizationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.compare_optimization")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("optimization.id", id))

	cmp, err := s.Analyzer.Compare(ctx, id)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.get_analysis")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("analysis.id", id))

	analysis, err := s.Analyzer.Analysis(ctx, id)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) putPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.put_portfolio")
	defer span.End()

	var portfolio types.Portfolio
	if err := parseJSONRequest(r, &portfolio); err != nil {
		s.fail(w, span, err)
		return
	}
	if err := portfolio.Validate(); err != nil {
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid portfolio", err))
		return
	}

	id, err := s.Analyzer.Store().PutPortfolio(ctx, &portfolio)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(attribute.String("portfolio.id", id))
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) getPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.get_portfolio")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("portfolio.id", id))

	portfolio, err := s.Analyzer.Store().GetPortfolio(ctx, id)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, portfolio)
}

func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.select")
	defer span.End()

	var req types.SelectRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("operation", "select"),
		attribute.Bool("request.with_suggestions", req.WithSuggestions),
	)

	selection, err := s.Analyzer.Select(ctx, req)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, selection)
}
