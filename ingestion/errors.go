package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractorRequired is returned when a document extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrConverterRequired is returned when a storyboard converter is not provided.
	ErrConverterRequired = errors.New("converter required")

	// ErrSinkRequired is returned when no destination for converted storyboards is provided.
	ErrSinkRequired = errors.New("sink required")

	// ErrRepositoryRequired is returned when a storyboard repository is not provided.
	ErrRepositoryRequired = errors.New("storyboard repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrNotEmbedded indicates a storyboard was stored but its embedding could not be written.
	ErrNotEmbedded = errors.New("storyboard stored without embedding")
)

// FileError records why one source file was not fully processed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
