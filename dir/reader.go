package dir

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

// Reader implements store.Reader and store.Visitor for directory node stores.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a new Reader for the given file pattern (e.g. "/home/user/nodes/{level}/{id}.bin").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}

	regexPattern := regexp.QuoteMeta(filepath.Clean(filePattern))
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta(idPlaceholder), `(?P<id>\d+)`)
	regexPattern = strings.ReplaceAll(regexPattern, regexp.QuoteMeta(levelPlaceholder), `(?P<level>\d+)`)
	pathRegex, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	path0 := formatPattern(filePattern, 0)
	path1 := formatPattern(filePattern, 9)
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	rootDir := path0

	return &Reader{filePattern, rootDir, pathRegex}, nil
}

func (r *Reader) ReadPayload(id octree.ID) ([]byte, error) {
	filePath := formatPattern(r.filePattern, id)
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VisitPayloads walks the pattern root and visits every file matching the
// pattern. Other files are ignored.
func (r *Reader) VisitPayloads(visitor func(octree.ID, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil
		}

		id, err := strconv.ParseUint(matches[r.pathRegexp.SubexpIndex("id")], 10, 64)
		if err != nil || !octree.ID(id).Valid() {
			return nil
		}
		if idx := r.pathRegexp.SubexpIndex("level"); idx >= 0 {
			level, _ := strconv.Atoi(matches[idx])
			if level != octree.ID(id).Level() {
				return fmt.Errorf("%w: %v", ErrLevelMismatch, filePath)
			}
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(octree.ID(id), data)
	})
}

var (
	_ store.Reader  = (*Reader)(nil)
	_ store.Visitor = (*Reader)(nil)
)
