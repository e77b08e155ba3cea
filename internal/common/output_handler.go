package common

import (
	"fmt"
	"io"
	"os"

	"atsmatch/internal/errors"
	"atsmatch/internal/formatters"
)

// CommandConfig holds the output settings shared by file-based commands.
type CommandConfig struct {
	OutputFile       string
	OutputFormat     string
	SupportedFormats []string
	// MaxFileSize caps each input file; zero means unlimited.
	MaxFileSize int64
}

// OutputHandler renders results through the formatter registry and sends
// them to a file or stdout.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	out      io.Writer
}

// NewOutputHandler creates an output handler writing to stdout.
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &OutputHandler{
		files:    NewFileProcessor(logger, 0),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		out:      os.Stdout,
	}
}

// HandleOutput formats data as config.OutputFormat and writes it to
// config.OutputFile, or to stdout when no file is set.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	rendered, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		_, err := io.WriteString(oh.out, rendered)
		return err
	}

	if err := oh.files.WriteFile(config.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}
