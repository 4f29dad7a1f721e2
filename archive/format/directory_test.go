package format_test

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/eak1mov/go-octiles/archive/format"
	"github.com/eak1mov/go-octiles/internal"
	gcmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDirectorySerializer(t *testing.T) {
	for _, tc := range internal.Cases() {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			entries := make([]format.Entry, 0)
			offset := uint64(0)
			for id, data := range tc.Payloads {
				entries = append(entries, format.Entry{
					NodeID:    uint64(id),
					Offset:    offset,
					Length:    uint32(len(data)),
					RunLength: 1,
				})
				offset += uint64(len(data))
			}
			slices.SortFunc(entries, func(a, b format.Entry) int {
				return cmp.Compare(a.NodeID, b.NodeID)
			})

			deserialized, err := format.DeserializeDirectory(format.SerializeDirectory(entries))
			if err != nil {
				t.Fatalf("DeserializeDirectory failed: %v", err)
			}
			if diff := gcmp.Diff(entries, deserialized); diff != "" {
				t.Errorf("DeserializeDirectory(SerializeDirectory(input)) mismatch (-want+got):\n%v", diff)
			}
		})
	}
}

func TestDeserializeDirectoryErrors(t *testing.T) {
	_, err := format.DeserializeDirectory(nil)
	require.Error(t, err)

	data := format.SerializeDirectory([]format.Entry{{NodeID: 1, Length: 3, RunLength: 1}})
	_, err = format.DeserializeDirectory(data[:len(data)-1])
	require.Error(t, err)

	_, err = format.DeserializeDirectory([]byte{0xff, 0x7f})
	require.ErrorIs(t, err, format.ErrInvalidDirectory)
}

func TestCompactEntries(t *testing.T) {
	entries := []format.Entry{
		{NodeID: 1, Offset: 0, Length: 4, RunLength: 1},
		{NodeID: 2, Offset: 0, Length: 4, RunLength: 1},
		{NodeID: 3, Offset: 0, Length: 4, RunLength: 1},
		{NodeID: 4, Offset: 4, Length: 2, RunLength: 1},
		{NodeID: 6, Offset: 4, Length: 2, RunLength: 1},
		{NodeID: 7, Offset: 4, Length: 2, RunLength: 1},
	}
	want := []format.Entry{
		{NodeID: 1, Offset: 0, Length: 4, RunLength: 3},
		{NodeID: 4, Offset: 4, Length: 2, RunLength: 1},
		{NodeID: 6, Offset: 4, Length: 2, RunLength: 2},
	}
	if diff := gcmp.Diff(want, format.CompactEntries(entries)); diff != "" {
		t.Errorf("CompactEntries mismatch (-want+got):\n%v", diff)
	}
	require.Empty(t, format.CompactEntries(nil))
}

func TestFindEntry(t *testing.T) {
	entries := []format.Entry{
		{NodeID: 1, Offset: 0, Length: 4, RunLength: 3},
		{NodeID: 9, Offset: 100, Length: 50, RunLength: 0},
		{NodeID: 20, Offset: 4, Length: 2, RunLength: 1},
	}
	for _, tc := range []struct {
		id    uint64
		want  format.Entry
		found bool
	}{
		{id: 0, found: false},
		{id: 1, want: entries[0], found: true},
		{id: 3, want: entries[0], found: true},
		{id: 4, found: false},
		{id: 15, want: entries[1], found: true},
		{id: 20, want: entries[2], found: true},
		{id: 21, found: false},
	} {
		got, found := format.FindEntry(entries, tc.id)
		require.Equalf(t, tc.found, found, "FindEntry(%d)", tc.id)
		require.Equalf(t, tc.want, got, "FindEntry(%d)", tc.id)
	}
}

func TestSerializeAllLeaves(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 7))
	entries := make([]format.Entry, 100000)
	id := uint64(0)
	for i := range entries {
		id += 1 + rnd.Uint64N(16)
		entries[i] = format.Entry{
			NodeID:    id,
			Offset:    rnd.Uint64N(1 << 40),
			Length:    uint32(1 + rnd.IntN(1<<20)),
			RunLength: 1,
		}
	}

	root, leaves, err := format.SerializeAll(entries, format.CompressionGzip)
	require.NoError(t, err)
	require.LessOrEqual(t, len(root), format.RootDirMaxLength)
	require.NotEmpty(t, leaves)

	rootData, err := format.Decompress(root, format.CompressionGzip)
	require.NoError(t, err)
	rootEntries, err := format.DeserializeDirectory(rootData)
	require.NoError(t, err)

	for _, want := range entries[:1000] {
		entry, found := format.FindEntry(rootEntries, want.NodeID)
		require.True(t, found)
		require.Zero(t, entry.RunLength)

		leafData, err := format.Decompress(leaves[entry.Offset:entry.Offset+uint64(entry.Length)], format.CompressionGzip)
		require.NoError(t, err)
		leafEntries, err := format.DeserializeDirectory(leafData)
		require.NoError(t, err)

		got, found := format.FindEntry(leafEntries, want.NodeID)
		require.True(t, found)
		require.Equal(t, want, got)
	}
}

func TestSerializeAllSmall(t *testing.T) {
	entries := []format.Entry{{NodeID: 0, Offset: 0, Length: 10, RunLength: 1}}
	root, leaves, err := format.SerializeAll(entries, format.CompressionZstd)
	require.NoError(t, err)
	require.Empty(t, leaves)

	rootData, err := format.Decompress(root, format.CompressionZstd)
	require.NoError(t, err)
	rootEntries, err := format.DeserializeDirectory(rootData)
	require.NoError(t, err)
	require.Equal(t, entries, rootEntries)
}
