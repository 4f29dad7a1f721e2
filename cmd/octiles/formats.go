package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/eak1mov/go-octiles/archive"
	"github.com/eak1mov/go-octiles/archive/format"
	"github.com/eak1mov/go-octiles/dir"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/sqlite"
	"github.com/eak1mov/go-octiles/store"
)

var (
	errUnknownScene    = errors.New("scene bounds unknown, set -bounds and -maxdepth")
	errIncompleteScene = errors.New("-bounds and -maxdepth must be set together")
)

const (
	metadataBounds   = "bounds"
	metadataMaxDepth = "maxdepth"
	metadataJSON     = "json"
)

func deduceFormat(format, filePath string) string {
	if format == "" && strings.HasSuffix(filePath, ".octiles") {
		return "octiles"
	}
	if format == "" && strings.HasSuffix(filePath, ".sqlite") {
		return "sqlite"
	}
	if format == "" && strings.Contains(filePath, "{id}") {
		return "dir"
	}
	return format
}

// scene describes the tree a node store belongs to.
type scene struct {
	bounds   [6]float64
	maxDepth int
	known    bool
	metadata []byte
}

func (s scene) newTree() (*octree.Tree, error) {
	if !s.known {
		return nil, errUnknownScene
	}
	return octree.NewTree(s.bounds, s.maxDepth, octree.WithLogger(slog.Default()))
}

func (s scene) headerMetadata() archive.HeaderMetadata {
	return archive.HeaderMetadata{
		PayloadCompression: format.CompressionNone,
		MaxDepth:           uint8(s.maxDepth),
		SceneBounds:        s.bounds,
	}
}

func (s scene) sqliteMetadata() map[string]string {
	metadata := make(map[string]string)
	if s.known {
		metadata[metadataBounds] = formatBounds(s.bounds)
		metadata[metadataMaxDepth] = strconv.Itoa(s.maxDepth)
	}
	if s.metadata != nil {
		metadata[metadataJSON] = string(s.metadata)
	}
	return metadata
}

func formatBounds(bounds [6]float64) string {
	parts := make([]string, len(bounds))
	for i, v := range bounds {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseBounds(value string) ([6]float64, error) {
	var bounds [6]float64
	_, err := fmt.Sscanf(value, "%g,%g,%g,%g,%g,%g",
		&bounds[0], &bounds[1], &bounds[2], &bounds[3], &bounds[4], &bounds[5])
	return bounds, err
}

func sceneFromSqlite(metadata map[string]string) (scene, error) {
	s := scene{}
	if value, found := metadata[metadataJSON]; found {
		s.metadata = []byte(value)
	}
	boundsValue, boundsFound := metadata[metadataBounds]
	depthValue, depthFound := metadata[metadataMaxDepth]
	if !boundsFound || !depthFound {
		return s, nil
	}
	var err error
	if s.bounds, err = parseBounds(boundsValue); err != nil {
		return scene{}, fmt.Errorf("metadata %q: %w", metadataBounds, err)
	}
	if s.maxDepth, err = strconv.Atoi(depthValue); err != nil {
		return scene{}, fmt.Errorf("metadata %q: %w", metadataMaxDepth, err)
	}
	if s.maxDepth < 0 || s.maxDepth > octree.MaxLevel {
		return scene{}, fmt.Errorf("metadata %q: %w: %d", metadataMaxDepth, octree.ErrInvalidDepth, s.maxDepth)
	}
	s.known = true
	return s, nil
}

// readScene extracts scene information from stores that carry it.
func readScene(reader store.Visitor) (scene, error) {
	switch r := reader.(type) {
	case *archive.Reader:
		header := r.HeaderMetadata()
		metadata, err := r.ReadMetadata()
		if err != nil {
			return scene{}, err
		}
		if len(metadata) == 0 {
			metadata = nil
		}
		return scene{
			bounds:   header.SceneBounds,
			maxDepth: int(header.MaxDepth),
			known:    true,
			metadata: metadata,
		}, nil
	case *sqlite.Reader:
		metadata, err := r.ReadMetadata()
		if err != nil {
			return scene{}, err
		}
		return sceneFromSqlite(metadata)
	}
	return scene{}, nil
}

func newReader(format, path string) (store.Visitor, error) {
	switch format {
	case "octiles":
		return archive.NewFileReader(path)
	case "sqlite":
		return sqlite.NewReader(path)
	case "dir":
		return dir.NewReader(path)
	}
	return nil, fmt.Errorf("invalid input format: %q", format)
}

func newWriter(format, path string, s scene) (store.Writer, error) {
	switch format {
	case "octiles":
		return archive.NewWriter(path,
			archive.WithMetadata(s.metadata),
			archive.WithHeaderMetadata(s.headerMetadata()),
			archive.WithLogger(slog.Default()),
		)
	case "sqlite":
		return sqlite.NewWriter(path,
			sqlite.WithMetadata(s.sqliteMetadata()),
			sqlite.WithLogger(slog.Default()),
		)
	case "dir":
		return dir.NewWriter(path)
	}
	return nil, fmt.Errorf("invalid output format: %q", format)
}

// sceneFlags lets the user describe the scene of stores without one.
type sceneFlags struct {
	bounds   string
	maxDepth int
}

func (f *sceneFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.bounds, "bounds", "", "Scene bounds minx,miny,minz,maxx,maxy,maxz")
	fs.IntVar(&f.maxDepth, "maxdepth", -1, "Tree max depth")
}

// apply overrides s with the flags that were set. A store without scene
// information needs both flags.
func (f *sceneFlags) apply(s scene) (scene, error) {
	if f.bounds == "" && f.maxDepth < 0 {
		return s, nil
	}
	if !s.known && (f.bounds == "" || f.maxDepth < 0) {
		return scene{}, errIncompleteScene
	}
	if f.bounds != "" {
		bounds, err := parseBounds(f.bounds)
		if err != nil {
			return scene{}, fmt.Errorf("-bounds: %w", err)
		}
		s.bounds = bounds
	}
	if f.maxDepth >= 0 {
		if f.maxDepth > octree.MaxLevel {
			return scene{}, fmt.Errorf("-maxdepth: %w: %d", octree.ErrInvalidDepth, f.maxDepth)
		}
		s.maxDepth = f.maxDepth
	}
	s.known = true
	return s, nil
}
