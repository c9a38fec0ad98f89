// Package reembed recomputes the stored embedding of every storyboard in a
// repository with the configured embedder.
//
// This package supports parallel per-record processing, progress tracking,
// and retry with exponential backoff. A record that fails keeps its previous
// embedding; the run continues with the next record.
package reembed
