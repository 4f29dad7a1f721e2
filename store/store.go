// Package store provides common interfaces for node payload storage.
//
// Payloads are opaque byte blobs (typically quantized geometry) keyed by
// octree node id.
package store

import "github.com/eak1mov/go-octiles/octree"

// Writer defines an interface for writing node payloads to a store.
type Writer interface {
	// WritePayload writes the payload of a single node.
	WritePayload(id octree.ID, data []byte) error

	// Finalize completes the writing process: flushes buffers, writes header and indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadPayload reads the payload of a single node.
	// If the node has no payload, it returns an empty slice with no error.
	ReadPayload(id octree.ID) ([]byte, error)
}

type Visitor interface {
	// VisitPayloads calls the visitor for every stored payload.
	// Order of nodes, upfront cpu and memory consumption are implementation-defined.
	VisitPayloads(visitor func(octree.ID, []byte) error) error
}

// Location represents the absolute location of payload data inside a store file.
type Location struct {
	Offset uint64
	Length uint64
}

type LocationReader interface {
	ReadLocation(id octree.ID) (Location, error)
}

type LocationVisitor interface {
	VisitLocations(visitor func(octree.ID, Location) error) error
}
