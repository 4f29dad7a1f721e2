package store

import (
	"errors"
	"iter"

	"github.com/eak1mov/go-octiles/octree"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterPayloads returns an iterator over all payloads in the store.
// Iteration panics on unrecoverable errors.
func IterPayloads(r Visitor) iter.Seq2[octree.ID, []byte] {
	return func(yield func(octree.ID, []byte) bool) {
		err := r.VisitPayloads(func(id octree.ID, data []byte) error {
			if !yield(id, data) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			panic(err)
		}
	}
}

func IterLocations(r LocationVisitor) iter.Seq2[octree.ID, Location] {
	return func(yield func(octree.ID, Location) bool) {
		err := r.VisitLocations(func(id octree.ID, location Location) error {
			if !yield(id, location) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			panic(err)
		}
	}
}

// Copy writes every payload visited in src to dst, calling progress after
// each one when it is not nil. It does not finalize dst.
func Copy(dst Writer, src Visitor, progress func()) error {
	return src.VisitPayloads(func(id octree.ID, data []byte) error {
		if err := dst.WritePayload(id, data); err != nil {
			return err
		}
		if progress != nil {
			progress()
		}
		return nil
	})
}
