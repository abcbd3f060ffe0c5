package ingest

import "errors"

// Failure taxonomy for one (file, key) pair. Every failure is
// contained within the pair: the caller keeps processing subsequent
// pairs regardless.
var (
	// ErrRetrieval means the metadata provider returned nothing usable.
	ErrRetrieval = errors.New("metadata retrieval failed")

	// ErrParse means the BibTeX text is missing required fields.
	ErrParse = errors.New("bibtex missing required fields")

	// ErrEncoding means the author text is still non-ASCII after
	// sanitization.
	ErrEncoding = errors.New("author text not ASCII")

	// ErrFilesystem means the placement commit failed; the library
	// index was left unchanged.
	ErrFilesystem = errors.New("filesystem operation failed")

	// ErrAborted means the user declined to continue the pair.
	ErrAborted = errors.New("aborted by user")
)
