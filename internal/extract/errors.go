package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions with no strategy.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFileNotFound is returned when the input file does not exist.
	ErrFileNotFound = errors.New("file not found")
)
