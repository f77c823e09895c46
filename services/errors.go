package services

import "errors"

// Domain errors shared across the pipeline. Callers classify failures with
// errors.Is and map them to HTTP or task-level handling.
var (
	// ErrNotAPDF means the downloaded resource is not a PDF document.
	ErrNotAPDF = errors.New("resource is not a PDF")

	// ErrExtraction means no text could be extracted from any page.
	ErrExtraction = errors.New("pdf text extraction failed")

	// ErrInvalidRange means a page range with start < 1 or end < start.
	ErrInvalidRange = errors.New("invalid page range")

	// ErrEmptyRange means a valid range that matches no pages.
	ErrEmptyRange = errors.New("no pages in range")

	// ErrNoContentInRange means the requested pages hold no usable content.
	ErrNoContentInRange = errors.New("no content in page range")

	// ErrCollectionNotFound means the document was never ingested.
	ErrCollectionNotFound = errors.New("document collection not found")

	// ErrNotFound means a lookup for a document or job matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrStorage wraps vector-store backend failures.
	ErrStorage = errors.New("storage backend error")
)
