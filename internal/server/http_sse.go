package server

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atsmatch/internal/errors"
	"atsmatch/internal/pipeline"
	"atsmatch/internal/types"
)

// Server-sent event types for streamed operations.
const (
	eventProgress = "progress"
	eventComplete = "complete"
	eventError    = "error"
)

type streamEvent struct {
	Type         string                    `json:"type"`
	Message      string                    `json:"message,omitempty"`
	Analysis     *types.Analysis           `json:"analysis,omitempty"`
	Optimization *types.OptimizationResult `json:"optimization,omitempty"`
	Error        string                    `json:"error,omitempty"`
	Code         string                    `json:"code,omitempty"`
}

func wantsEventStream(r *http.Request) bool {
	for part := range strings.SplitSeq(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/event-stream" {
			return true
		}
	}
	return false
}

// stream runs op and writes each progress message as an event, ending with
// exactly one complete or error event. op returns the complete event.
func (s *Server) stream(w http.ResponseWriter, span trace.Span, op func(progress pipeline.ProgressFunc) (streamEvent, error)) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	send := func(ev streamEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.Logger.LogError(err, "Failed to encode stream event", "type", ev.Type)
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			s.Logger.Debug("Stream client went away", "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			s.Logger.Debug("Stream flush failed", "error", err)
		}
	}

	done, err := op(func(message string) {
		send(streamEvent{Type: eventProgress, Message: message})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ev := streamEvent{Type: eventError, Error: err.Error()}
		if appErr, ok := errors.AsAppError(err); ok {
			ev.Error = appErr.Message
			ev.Code = appErr.Code
		}
		send(ev)
		return
	}

	done.Type = eventComplete
	send(done)
}

func (s *Server) streamAnalysis(ctx context.Context, w http.ResponseWriter, span trace.Span, req types.AnalyzeRequest) {
	s.stream(w, span, func(progress pipeline.ProgressFunc) (streamEvent, error) {
		analysis, err := s.Analyzer.Analyze(ctx, req, progress)
		if err != nil {
			return streamEvent{}, err
		}
		span.SetAttributes(
			attribute.String("analysis.id", analysis.ID),
			attribute.Float64("ats.score", analysis.Scores.OverallScore),
		)
		return streamEvent{Analysis: analysis}, nil
	})
}

func (s *Server) streamOptimization(ctx context.Context, w http.ResponseWriter, span trace.Span, req types.OptimizeRequest) {
	s.stream(w, span, func(progress pipeline.ProgressFunc) (streamEvent, error) {
		result, err := s.Analyzer.Optimize(ctx, req, progress)
		if err != nil {
			return streamEvent{}, err
		}
		span.SetAttributes(
			attribute.String("optimization.id", result.ID),
			attribute.String("analysis.id", result.AnalysisID),
		)
		return streamEvent{Optimization: result}, nil
	})
}
