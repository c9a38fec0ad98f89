package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/storyboard/core"
)

// Sink receives each converted storyboard.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Put stores content produced from source. It returns the ID of the
	// stored record, or 0 if the sink does not create records. A non-zero ID
	// with an error means the record exists but was not completed.
	Put(ctx context.Context, source string, content json.RawMessage) (core.ID, error)
}

// DirectorySink writes each storyboard to <dir>/<base>.json, where base is
// the source file name without its extension.
type DirectorySink struct {
	dir string
}

var _ Sink = (*DirectorySink)(nil)

// NewDirectorySink creates dir if needed and returns a sink writing into it.
func NewDirectorySink(dir string) (*DirectorySink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirectorySink{dir: dir}, nil
}

// OutputPath returns the file a storyboard converted from source is written to.
func (s *DirectorySink) OutputPath(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.dir, base+".json")
}

// Put writes content indented by two spaces. Member order and string
// contents are kept exactly as converted.
func (s *DirectorySink) Put(ctx context.Context, source string, content json.RawMessage) (core.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidContent, err)
	}
	buf.WriteByte('\n')

	// written beside the target, then renamed into place
	path := s.OutputPath(source)
	tmp, err := os.CreateTemp(s.dir, ".storyboard-*.tmp")
	if err != nil {
		return 0, err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return 0, nil
}
