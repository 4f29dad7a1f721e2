package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"sort"
)

var ErrInvalidDirectory = errors.New("octiles: invalid directory")

// Entry describes RunLength consecutive node ids sharing one payload. An
// entry with RunLength 0 points at a leaf directory instead of a payload.
type Entry struct {
	NodeID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// SerializeDirectory encodes entries sorted by NodeID as four varint
// columns: id deltas, run lengths, lengths and offsets. An offset equal to
// the end of the previous entry is stored as 0, any other as offset+1.
func SerializeDirectory(entries []Entry) []byte {
	buffer := binary.AppendUvarint(nil, uint64(len(entries)))

	lastID := uint64(0)
	for _, entry := range entries {
		buffer = binary.AppendUvarint(buffer, entry.NodeID-lastID)
		lastID = entry.NodeID
	}
	for _, entry := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(entry.RunLength))
	}
	for _, entry := range entries {
		buffer = binary.AppendUvarint(buffer, uint64(entry.Length))
	}
	for i, entry := range entries {
		if i > 0 && entry.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			buffer = binary.AppendUvarint(buffer, 0)
		} else {
			buffer = binary.AppendUvarint(buffer, entry.Offset+1)
		}
	}
	return buffer
}

func DeserializeDirectory(data []byte) ([]Entry, error) {
	reader := bytes.NewReader(data)

	var err error
	next := func() uint64 {
		if err != nil {
			return 0
		}
		var value uint64
		value, err = binary.ReadUvarint(reader)
		return value
	}

	count := next()
	if err != nil {
		return nil, err
	}
	// every entry takes at least four bytes
	if count > uint64(len(data))/4 {
		return nil, ErrInvalidDirectory
	}
	entries := make([]Entry, count)

	lastID := uint64(0)
	for i := range entries {
		lastID += next()
		entries[i].NodeID = lastID
	}
	for i := range entries {
		entries[i].RunLength = uint32(next())
	}
	for i := range entries {
		entries[i].Length = uint32(next())
	}
	for i := range entries {
		value := next()
		if value == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = value - 1
		}
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CompactEntries merges runs of consecutive ids pointing at the same payload.
// The entries must be sorted by NodeID.
func CompactEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	wi := 0
	for ri := 1; ri < len(entries); ri++ {
		last := &entries[wi]
		if entries[ri].Offset == last.Offset && entries[ri].NodeID == last.NodeID+uint64(last.RunLength) {
			last.RunLength++
		} else {
			wi++
			entries[wi] = entries[ri]
		}
	}
	return entries[:wi+1]
}

// FindEntry returns the entry covering nodeID. A returned entry with
// RunLength 0 is a leaf directory that has to be searched next.
func FindEntry(entries []Entry, nodeID uint64) (Entry, bool) {
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].NodeID > nodeID
	})
	if idx == 0 {
		return Entry{}, false
	}

	entry := entries[idx-1]
	if entry.RunLength == 0 {
		return entry, true
	}
	if nodeID < entry.NodeID+uint64(entry.RunLength) {
		return entry, true
	}
	return Entry{}, false
}

// SerializeAll builds the compressed root directory and, when the entries do
// not fit into RootDirMaxLength, the concatenated compressed leaf directories
// the root points at.
func SerializeAll(entries []Entry, compression Compression) (root, leaves []byte, err error) {
	root, err = Compress(SerializeDirectory(entries), compression)
	if err != nil {
		return nil, nil, err
	}
	leaves = make([]byte, 0)
	if len(root) <= RootDirMaxLength || len(entries) == 0 {
		return root, leaves, nil
	}

	entriesCount := float64(len(entries))
	entrySize := float64(len(root)) / entriesCount
	maxRootEntries := float64(RootDirMaxLength) * 0.9 / entrySize
	leafSize := max(entriesCount/maxRootEntries, 4096, math.Sqrt(entriesCount))

	for len(root) > RootDirMaxLength {
		rootEntries := make([]Entry, 0)
		leaves = leaves[:0]

		for chunk := range slices.Chunk(entries, int(leafSize)) {
			leaf, err := Compress(SerializeDirectory(chunk), compression)
			if err != nil {
				return nil, nil, err
			}
			rootEntries = append(rootEntries, Entry{
				NodeID: chunk[0].NodeID,
				Offset: uint64(len(leaves)),
				Length: uint32(len(leaf)),
			})
			leaves = append(leaves, leaf...)
		}

		root, err = Compress(SerializeDirectory(rootEntries), compression)
		if err != nil {
			return nil, nil, err
		}
		leafSize *= 1.1
	}
	return root, leaves, nil
}
