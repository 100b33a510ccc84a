package ai

import "errors"

var (
	// ErrInvalidFileType rejects uploads whose filename does not end in .csv.
	ErrInvalidFileType = errors.New("only CSV files are allowed")
)
