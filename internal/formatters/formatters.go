package formatters

import (
	"encoding/json"
	"fmt"
	"slices"

	"atsmatch/internal/types"
)

// Formatter renders one result type in one output format.
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

const (
	typeAny          = "any"
	typeAnalysis     = "Analysis"
	typeOptimization = "OptimizationResult"
	typeSelection    = "PortfolioSelection"
	typeHistory      = "OptimizationHistory"
	typeComparison   = "OptimizationComparison"
)

type formatKey struct {
	format   string
	dataType string
}

// FormatterRegistry maps (format, result type) pairs to formatters. A
// formatter registered for typeAny serves every type in its format.
type FormatterRegistry struct {
	formatters map[formatKey]Formatter
}

// NewFormatterRegistry returns a registry with the json, text and markdown
// formatters for every result type.
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{formatters: make(map[formatKey]Formatter)}

	for _, f := range []struct {
		format    string
		formatter Formatter
	}{
		{"json", &JSONFormatter{}},
		{"text", &AnalysisTextFormatter{}},
		{"markdown", &AnalysisMarkdownFormatter{}},
		{"text", &OptimizationTextFormatter{}},
		{"markdown", &OptimizationMarkdownFormatter{}},
		{"text", &SelectionTextFormatter{}},
		{"markdown", &SelectionMarkdownFormatter{}},
		{"text", &HistoryTextFormatter{}},
		{"markdown", &HistoryMarkdownFormatter{}},
		{"text", &ComparisonTextFormatter{}},
		{"markdown", &ComparisonMarkdownFormatter{}},
	} {
		registry.RegisterFormatter(f.format, f.formatter.SupportedType(), f.formatter)
	}

	return registry
}

// RegisterFormatter registers formatter for format and dataType, replacing
// any previous one.
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	fr.formatters[formatKey{format, dataType}] = formatter
}

// Format renders data with the formatter for its type, falling back to the
// format's generic formatter.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	for _, key := range []formatKey{{format, dataType}, {format, typeAny}} {
		if formatter, ok := fr.formatters[key]; ok {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns every format with at least one formatter,
// sorted.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	var formats []string
	for key := range fr.formatters {
		if !slices.Contains(formats, key.format) {
			formats = append(formats, key.format)
		}
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.Analysis:
		return typeAnalysis
	case *types.OptimizationResult:
		return typeOptimization
	case *types.PortfolioSelection:
		return typeSelection
	case []*types.OptimizationResult:
		return typeHistory
	case *types.OptimizationComparison:
		return typeComparison
	default:
		return typeAny
	}
}

// JSONFormatter renders any value as indented JSON.
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return typeAny
}

// GlobalRegistry is the registry used by the CLI output handler.
var GlobalRegistry = NewFormatterRegistry()
