package common

import (
	"fmt"
	"os"

	"atsmatch/internal/errors"
	"atsmatch/internal/utils"
)

// FileProcessor reads command inputs and writes command outputs.
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a file processor. A maxSize of zero disables
// the size check.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NewNop()
	}
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ValidateAndReadFiles reads every file in order. The first invalid,
// oversized or unreadable file stops the read.
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		content, err := fp.readInput(filename)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}

func (fp *FileProcessor) readInput(filename string) (string, error) {
	info, err := utils.StatInput(filename)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if fp.maxSize > 0 && info.Size() > fp.maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s is %s, limit is %s", filename,
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(fp.maxSize)), nil).
			WithContext("file", filename)
	}

	if !utils.IsTextFile(filename) {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		code := errors.ErrCodeFileNotReadable
		if os.IsNotExist(err) {
			code = errors.ErrCodeFileNotFound
		}
		return "", errors.NewIOError(code, fmt.Sprintf("Cannot read file: %s", filename), err)
	}

	fp.logger.Debug("Read input file", "filename", filename, "size", utils.FormatFileSize(info.Size()))
	return string(data), nil
}

// WriteFile writes content to filename, creating parent directories.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewIOError(errors.ErrCodeFileWrite,
			fmt.Sprintf("Cannot prepare output path: %s", filename), err)
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeFileWrite,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
