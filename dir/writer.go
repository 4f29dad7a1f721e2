package dir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

// Writer implements store.Writer for directory node stores.
type Writer struct {
	filePattern string
}

// NewWriter creates a new Writer for the given file pattern (e.g. "/home/user/nodes/{level}/{id}.bin").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern}, nil
}

func (w *Writer) WritePayload(id octree.ID, data []byte) error {
	if !id.Valid() {
		return fmt.Errorf("%w: invalid node id %d", ErrInvalidPattern, id)
	}
	filePath := formatPattern(w.filePattern, id)

	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

func (w *Writer) Finalize() error {
	return nil
}

var _ store.Writer = (*Writer)(nil)
