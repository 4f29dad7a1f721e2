// Package format implements the on-disk layout of octiles archives: the
// fixed-size header, varint-encoded directories of node entries and the
// compression codecs they use.
package format

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// Header is serialized little-endian at offset 0 of every archive.
type Header struct {
	HeaderMagic         uint64
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	PayloadDataOffset   uint64
	PayloadDataLength   uint64
	AddressedNodesCount uint64
	NodeEntriesCount    uint64
	NodeContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	PayloadCompression  Compression
	MaxDepth            uint8
	SceneMin            [3]float64
	SceneMax            [3]float64
}

const (
	headerMagic     uint64 = 0x53454C4954434F // "OCTILES"
	headerMagicMask uint64 = 1<<56 - 1
	HeaderMagicV1   uint64 = headerMagic | (0x01 << 56)

	HeaderLength = 148

	// the root directory must fit in the first 16 KiB together with the header
	HeaderRootDirMaxLength = 16 << 10
	RootDirOffset          = HeaderLength
	RootDirMaxLength       = HeaderRootDirMaxLength - HeaderLength
)

var ErrInvalidHeader = errors.New("octiles: invalid archive header")
var ErrInvalidVersion = errors.New("octiles: invalid archive version")

// SceneBounds returns the scene bounds as [minX, minY, minZ, maxX, maxY, maxZ].
func (h *Header) SceneBounds() [6]float64 {
	return [6]float64{h.SceneMin[0], h.SceneMin[1], h.SceneMin[2], h.SceneMax[0], h.SceneMax[1], h.SceneMax[2]}
}

func (h *Header) SetSceneBounds(scene [6]float64) {
	copy(h.SceneMin[:], scene[:3])
	copy(h.SceneMax[:], scene[3:])
}

func SerializeHeader(header *Header) []byte {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)
	binary.Write(writer, binary.LittleEndian, header)
	writer.Flush()
	return buffer.Bytes()
}

func DeserializeHeader(buffer []byte) (*Header, error) {
	header := Header{}
	reader := bytes.NewReader(buffer)
	err := binary.Read(reader, binary.LittleEndian, &header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if header.HeaderMagic&headerMagicMask != headerMagic {
		return nil, ErrInvalidHeader
	}
	if header.HeaderMagic != HeaderMagicV1 {
		return nil, ErrInvalidVersion
	}
	return &header, nil
}
