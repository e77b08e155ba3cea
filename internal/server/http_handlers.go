package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"atsmatch/internal/errors"
)

const defaultHealthCheckTimeout = 10 * time.Second

func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.Timeout <= 0 {
		return defaultHealthCheckTimeout
	}
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler reports model availability and circuit breaker state per
// AI operation. Any unavailable model or open breaker degrades the status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atsmatch",
		"version": s.Version,
	}

	healthy := true
	if s.Analyzer != nil {
		models := s.checkAIModelsHealth(r.Context())
		for _, info := range models {
			if !info.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = s.Analyzer.Stats()
		if !s.Analyzer.Healthy() {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, response)
}

// checkAIModelsHealth asks every configured provider about its model.
func (s *Server) checkAIModelsHealth(ctx context.Context) map[string]modelStatus {
	ctx, cancel := context.WithTimeout(ctx, s.getHealthCheckTimeout())
	defer cancel()

	statuses := make(map[string]modelStatus)
	for op, svc := range s.Analyzer.Services() {
		info := svc.GetModelInfo(ctx)
		if info == nil {
			statuses[op] = modelStatus{Available: false, Error: "no model information"}
			continue
		}
		statuses[op] = modelStatus{
			Name:      info.Name,
			Provider:  info.Provider,
			Available: info.Available,
			Error:     info.Error,
		}
	}
	return statuses
}

type modelStatus struct {
	Name      string `json:"name,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atsmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.Analyzer != nil {
		response["circuit_breakers"] = s.Analyzer.Stats()
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the request body into v. Failures are returned
// as validation errors; an oversized body keeps its *http.MaxBytesError cause.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	return nil
}

// writeAppError maps err onto its HTTP status and writes it as JSON.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: "Internal server error", Message: err.Error()}

	if appErr, ok := errors.AsAppError(err); ok {
		status = appErr.HTTPStatus()
		resp = ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if appErr.Cause != nil {
			resp.Message = appErr.Cause.Error()
		}

		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "status", status)
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
