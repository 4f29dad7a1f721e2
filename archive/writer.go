package archive

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/eak1mov/go-octiles/archive/format"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

var ErrInvalidNodeID = errors.New("octiles: invalid node id")

// Writer implements store.Writer for octiles archives.
//
// Identical payloads are stored once; consecutive ids sharing a payload
// collapse into a single directory entry.
type Writer struct {
	logger *slog.Logger
	file   *os.File
	header format.Header

	payloadWriter *bufio.Writer
	payloadOffset uint64

	entries   []format.Entry
	locations map[contentKey]uint32 // content -> entry index
}

type contentKey struct {
	hash   uint64
	length int
}

type writerConfig struct {
	Metadata       []byte
	HeaderMetadata HeaderMetadata
	Compression    format.Compression
	Logger         *slog.Logger
}

type WriterOption func(*writerConfig)

// WithMetadata stores an opaque metadata blob (usually JSON) in the archive.
func WithMetadata(metadata []byte) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithHeaderMetadata(metadata HeaderMetadata) WriterOption {
	return func(c *writerConfig) { c.HeaderMetadata = metadata }
}

// WithCompression sets the compression of directories. Defaults to gzip.
func WithCompression(compression format.Compression) WriterOption {
	return func(c *writerConfig) { c.Compression = compression }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates an archive at filePath. Payloads are streamed to disk as
// they are written; directories and header are written by Finalize.
func NewWriter(filePath string, opts ...WriterOption) (w *Writer, err error) {
	config := writerConfig{
		Compression: format.CompressionGzip,
		Logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if _, err := format.Compress(nil, config.Compression); err != nil {
		return nil, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	header := format.Header{}
	offset := uint64(format.HeaderRootDirMaxLength)

	if _, err = file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	if config.Metadata != nil {
		if _, err = file.Write(config.Metadata); err != nil {
			return nil, err
		}
		header.MetadataOffset = offset
		header.MetadataLength = uint64(len(config.Metadata))
		offset += header.MetadataLength
	}

	header.HeaderMagic = format.HeaderMagicV1
	header.Clustered = true
	header.InternalCompression = config.Compression
	header.PayloadDataOffset = offset
	config.HeaderMetadata.CopyToHeader(&header)

	return &Writer{
		logger:        config.Logger,
		file:          file,
		header:        header,
		payloadWriter: bufio.NewWriter(file),
		locations:     make(map[contentKey]uint32),
	}, nil
}

func (w *Writer) WritePayload(id octree.ID, data []byte) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
	}
	if len(data) == 0 {
		return nil
	}

	key := contentKey{hash: xxhash.Sum64(data), length: len(data)}
	if idx, exists := w.locations[key]; exists {
		w.entries = append(w.entries, format.Entry{
			NodeID:    uint64(id),
			Offset:    w.entries[idx].Offset,
			Length:    w.entries[idx].Length,
			RunLength: 1,
		})
		return nil
	}

	if _, err := w.payloadWriter.Write(data); err != nil {
		return err
	}
	w.locations[key] = uint32(len(w.entries))
	w.entries = append(w.entries, format.Entry{
		NodeID:    uint64(id),
		Offset:    w.payloadOffset,
		Length:    uint32(len(data)),
		RunLength: 1,
	})
	w.payloadOffset += uint64(len(data))
	return nil
}

func (w *Writer) Finalize() error {
	if w.payloadWriter == nil {
		panic("octiles: finalize called twice")
	}

	w.logger.Debug("octiles: flush payloads")
	if err := w.payloadWriter.Flush(); err != nil {
		return err
	}
	w.header.PayloadDataLength = w.payloadOffset
	w.payloadWriter = nil

	w.logger.Debug("octiles: sort", "entries", len(w.entries))
	slices.SortFunc(w.entries, func(a, b format.Entry) int {
		return cmp.Compare(a.NodeID, b.NodeID)
	})
	w.header.AddressedNodesCount = uint64(len(w.entries))
	w.header.NodeContentsCount = uint64(len(w.locations))

	w.logger.Debug("octiles: compact")
	w.entries = format.CompactEntries(w.entries)
	w.header.NodeEntriesCount = uint64(len(w.entries))

	w.logger.Debug("octiles: serialize")
	rootBytes, leavesBytes, err := format.SerializeAll(w.entries, w.header.InternalCompression)
	if err != nil {
		return err
	}

	w.logger.Debug("octiles: write leaves", "bytes", len(leavesBytes))
	leavesOffset, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(leavesBytes); err != nil {
		return err
	}
	w.header.LeafDirectoryOffset = uint64(leavesOffset)
	w.header.LeafDirectoryLength = uint64(len(leavesBytes))

	w.logger.Debug("octiles: write root", "bytes", len(rootBytes))
	if _, err := w.file.Seek(format.RootDirOffset, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(rootBytes); err != nil {
		return err
	}
	w.header.RootOffset = format.RootDirOffset
	w.header.RootLength = uint64(len(rootBytes))

	w.logger.Debug("octiles: write header")
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(format.SerializeHeader(&w.header)); err != nil {
		return err
	}

	err = w.file.Close()
	w.file = nil
	if err != nil {
		return err
	}

	w.logger.Debug("octiles: done!")
	return nil
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

var _ store.Writer = (*Writer)(nil)
