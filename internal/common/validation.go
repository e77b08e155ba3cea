package common

import (
	"fmt"
	"slices"
	"strings"

	"atsmatch/internal/formatters"
)

// ValidateOutputFormat accepts format when a formatter is registered for it
// and it is among the configured formats.
func ValidateOutputFormat(format string, configured []string) error {
	supported := GetSupportedFormats(configured)
	if slices.Contains(supported, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %s",
		format, strings.Join(supported, ", "))
}

// GetSupportedFormats returns the configured formats that have a formatter,
// in configured order. With nothing configured every registered format is
// supported.
func GetSupportedFormats(configured []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		return registered
	}

	supported := make([]string, 0, len(configured))
	for _, format := range configured {
		if slices.Contains(registered, format) && !slices.Contains(supported, format) {
			supported = append(supported, format)
		}
	}
	return supported
}
