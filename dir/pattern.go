// Package dir stores node payloads as individual files, with paths built from
// a pattern like "/data/nodes/{level}/{id}.bin".
package dir

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-octiles/octree"
)

var (
	ErrInvalidPattern = errors.New("octiles: invalid file pattern")
	ErrLevelMismatch  = errors.New("octiles: node level mismatch")
)

const (
	idPlaceholder    = "{id}"
	levelPlaceholder = "{level}"
)

func validatePattern(pattern string) error {
	if !strings.Contains(pattern, idPlaceholder) {
		return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, idPlaceholder)
	}
	return nil
}

func formatPattern(pattern string, id octree.ID) string {
	result := pattern
	result = strings.ReplaceAll(result, idPlaceholder, strconv.FormatUint(uint64(id), 10))
	result = strings.ReplaceAll(result, levelPlaceholder, strconv.Itoa(id.Level()))
	return result
}
