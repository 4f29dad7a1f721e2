package archive

import (
	"os"

	"github.com/eak1mov/go-octiles/archive/format"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

// FileAccessFunc reads length bytes at offset from the archive.
type FileAccessFunc = func(offset, length uint64) ([]byte, error)

// Reader implements store.Reader, store.Visitor, store.LocationReader and
// store.LocationVisitor for octiles archives.
type Reader struct {
	fileAccess FileAccessFunc
	fileCloser func() error
	header     *format.Header
}

// NewFileReader opens the archive at filePath.
//
// The returned Reader must be closed after use.
func NewFileReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	fileAccess := func(offset uint64, length uint64) ([]byte, error) {
		buffer := make([]byte, length)
		if _, err := file.ReadAt(buffer, int64(offset)); err != nil {
			return nil, err
		}
		return buffer, nil
	}
	r, err := NewReader(fileAccess)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.fileCloser = file.Close
	return r, nil
}

// NewReader creates a Reader over an arbitrary random-access source.
func NewReader(fileAccess FileAccessFunc) (*Reader, error) {
	headerData, err := fileAccess(0, format.HeaderLength)
	if err != nil {
		return nil, err
	}
	header, err := format.DeserializeHeader(headerData)
	if err != nil {
		return nil, err
	}
	return &Reader{
		fileAccess: fileAccess,
		fileCloser: func() error { return nil },
		header:     header,
	}, nil
}

// TODO: cache decoded leaf directories, every ReadLocation re-reads the
// whole directory chain.

func (r *Reader) Close() error {
	return r.fileCloser()
}

func (r *Reader) HeaderMetadata() HeaderMetadata {
	result := HeaderMetadata{}
	result.CopyFromHeader(r.header)
	return result
}

// NewTree creates an empty tree covering the scene stored in the header.
func (r *Reader) NewTree(opts ...octree.Option) (*octree.Tree, error) {
	return octree.NewTree(r.header.SceneBounds(), int(r.header.MaxDepth), opts...)
}

func (r *Reader) ReadMetadata() ([]byte, error) {
	return r.fileAccess(r.header.MetadataOffset, r.header.MetadataLength)
}

func (r *Reader) readDirectory(offset, length uint64) ([]format.Entry, error) {
	compressed, err := r.fileAccess(offset, length)
	if err != nil {
		return nil, err
	}
	data, err := format.Decompress(compressed, r.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	return format.DeserializeDirectory(data)
}

func (r *Reader) ReadLocation(id octree.ID) (store.Location, error) {
	dirOffset := r.header.RootOffset
	dirLength := r.header.RootLength
	for {
		entries, err := r.readDirectory(dirOffset, dirLength)
		if err != nil {
			return store.Location{}, err
		}
		entry, found := format.FindEntry(entries, uint64(id))
		if !found {
			return store.Location{}, nil
		}
		if entry.RunLength > 0 {
			return store.Location{
				Offset: r.header.PayloadDataOffset + entry.Offset,
				Length: uint64(entry.Length),
			}, nil
		}
		dirOffset = r.header.LeafDirectoryOffset + entry.Offset
		dirLength = uint64(entry.Length)
	}
}

func (r *Reader) ReadPayload(id octree.ID) ([]byte, error) {
	location, err := r.ReadLocation(id)
	if err != nil {
		return nil, err
	}
	if location.Length == 0 {
		return make([]byte, 0), nil
	}
	return r.fileAccess(location.Offset, location.Length)
}

func (r *Reader) VisitLocations(visitor func(octree.ID, store.Location) error) error {
	var traverse func(dirOffset, dirLength uint64) error
	traverse = func(dirOffset, dirLength uint64) error {
		entries, err := r.readDirectory(dirOffset, dirLength)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.RunLength == 0 {
				err := traverse(r.header.LeafDirectoryOffset+entry.Offset, uint64(entry.Length))
				if err != nil {
					return err
				}
				continue
			}
			location := store.Location{
				Offset: r.header.PayloadDataOffset + entry.Offset,
				Length: uint64(entry.Length),
			}
			for i := range entry.RunLength {
				if err := visitor(octree.ID(entry.NodeID+uint64(i)), location); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return traverse(r.header.RootOffset, r.header.RootLength)
}

func (r *Reader) VisitPayloads(visitor func(octree.ID, []byte) error) error {
	return r.VisitLocations(func(id octree.ID, location store.Location) error {
		data, err := r.fileAccess(location.Offset, location.Length)
		if err != nil {
			return err
		}
		return visitor(id, data)
	})
}

var (
	_ store.Reader          = (*Reader)(nil)
	_ store.Visitor         = (*Reader)(nil)
	_ store.LocationReader  = (*Reader)(nil)
	_ store.LocationVisitor = (*Reader)(nil)
)
