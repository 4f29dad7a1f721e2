// Package archive reads and writes octiles archives: single files holding
// node payloads addressed by octree id, together with the scene bounds and
// depth of the tree they belong to.
package archive

import (
	"github.com/eak1mov/go-octiles/archive/format"
)

// HeaderMetadata is the user-controlled part of the archive header.
type HeaderMetadata struct {
	PayloadCompression format.Compression
	MaxDepth           uint8
	// SceneBounds is [minX, minY, minZ, maxX, maxY, maxZ].
	SceneBounds [6]float64
}

func (m *HeaderMetadata) CopyFromHeader(header *format.Header) {
	m.PayloadCompression = header.PayloadCompression
	m.MaxDepth = header.MaxDepth
	m.SceneBounds = header.SceneBounds()
}

func (m *HeaderMetadata) CopyToHeader(header *format.Header) {
	header.PayloadCompression = m.PayloadCompression
	header.MaxDepth = m.MaxDepth
	header.SetSceneBounds(m.SceneBounds)
}
