package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
)

func TestAppErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"not found", NewNotFoundError("no analysis", nil), http.StatusNotFound},
		{"extraction", NewExtractionError("bad json", "{", nil), http.StatusBadGateway},
		{"optimization", NewOptimizationError("empty", nil), http.StatusBadGateway},
		{"internal", NewInternalError("X", "boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewExtractionErrorKeepsRawResponse(t *testing.T) {
	err := NewExtractionError("response is not JSON", "not json at all", nil)

	if err.Code != ErrCodeStructuredExtraction {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeStructuredExtraction)
	}
	if got := err.Context["raw_response"]; got != "not json at all" {
		t.Errorf("raw_response = %v", got)
	}
}

func TestHasCodeFollowsWrapping(t *testing.T) {
	inner := NewNotFoundError("analysis missing", nil)
	outer := NewInternalError("WRAP", "lookup failed", inner)
	wrapped := fmt.Errorf("handler: %w", outer)

	if !HasCode(wrapped, ErrCodeMissingPrerequisite) {
		t.Error("expected nested MISSING_PREREQUISITE_DATA to be found")
	}
	if HasCode(wrapped, ErrCodeOptimizationFailed) {
		t.Error("unexpected OPTIMIZATION_FAILED match")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeMissingPrerequisite) {
		t.Error("plain error should not match")
	}
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	logger.LogError(NewEmbeddingError("embed failed", fmt.Errorf("timeout")).WithContext("model", "m1"), "fallback")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if record["error_code"] != ErrCodeEmbeddingService {
		t.Errorf("error_code = %v", record["error_code"])
	}
	if record["model"] != "m1" {
		t.Errorf("model = %v", record["model"])
	}
	if record["cause"] != "timeout" {
		t.Errorf("cause = %v", record["cause"])
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("warn"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
