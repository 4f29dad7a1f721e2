// Package index provides a flat binary index of node locations, easy to read
// from other languages and utilities.
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

var ErrInvalidIndex = errors.New("octiles: invalid index")

// Item maps a node id to the location (Offset, Length) of its payload in a
// payload file. Items are stored little-endian, 24 bytes each.
type Item struct {
	ID     uint64
	Offset uint64
	Length uint32
	// Level is redundant with ID and kept for consumers that bucket by level.
	Level uint32
}

func NewItem(id octree.ID, location store.Location) Item {
	return Item{
		ID:     uint64(id),
		Offset: location.Offset,
		Length: uint32(location.Length),
		Level:  uint32(id.Level()),
	}
}

func (i Item) NodeID() octree.ID {
	return octree.ID(i.ID)
}

func (i Item) Location() store.Location {
	return store.Location{Offset: i.Offset, Length: uint64(i.Length)}
}

func WriteAll(items []Item, writer io.Writer) error {
	return binary.Write(writer, binary.LittleEndian, items)
}

func ReadAll(indexData []byte) ([]Item, error) {
	itemSize := binary.Size(Item{})
	if len(indexData)%itemSize != 0 {
		return nil, fmt.Errorf("%w: size %d is not a multiple of %d", ErrInvalidIndex, len(indexData), itemSize)
	}
	items := make([]Item, len(indexData)/itemSize)

	err := binary.Read(bytes.NewReader(indexData), binary.LittleEndian, items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if id := item.NodeID(); !id.Valid() || uint32(id.Level()) != item.Level {
			return nil, fmt.Errorf("%w: bad item %+v", ErrInvalidIndex, item)
		}
	}

	return items, nil
}
