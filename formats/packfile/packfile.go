// Package packfile implements decoding of the git packfile format.
//
// A packfile is the container git uses to transfer and store objects in
// bulk. The layout is:
//
//	+----------------------------------------------------+
//	| "PACK" | version (4) | object count (4)            |
//	+----------------------------------------------------+
//	| object entry 1: type/size varint [+ delta base]    |
//	|                 zlib-compressed payload            |
//	+----------------------------------------------------+
//	| ...                                                |
//	+----------------------------------------------------+
//	| object entry N                                     |
//	+----------------------------------------------------+
//
// The compressed length of an entry is not stored anywhere; it is implicit
// in where its deflate stream ends.
package packfile

import (
	"github.com/rgit-scm/rgit/core"
)

// PackFile holds every object decoded from a single packfile, in stream
// order. A PackFile is only produced when the whole stream decodes
// cleanly; a failure anywhere yields an error and no PackFile.
type PackFile struct {
	Version     uint32
	ObjectCount uint32
	Objects     []*Object
}

// Object returns the non-delta object with the given hash, or nil if the
// packfile does not contain it. Delta objects are never returned, their
// hash is not known until the delta is applied over its base.
func (p *PackFile) Object(h core.Hash) *Object {
	for _, o := range p.Objects {
		if o.Hash == h {
			return o
		}
	}

	return nil
}

// Object is a single object decoded from a packfile.
//
// For the base types (commit, tree, blob and tag), Content holds the
// inflated object payload and Hash its identity. For the delta types,
// Content holds the raw delta instruction stream and Hash is the zero
// hash; resolving a delta against its base is up to the caller.
type Object struct {
	// Type is the object type found in the entry header.
	Type core.ObjectType
	// Size is the inflated payload size declared by the entry header.
	Size int64
	// Content is the inflated payload. len(Content) always equals Size.
	Content []byte
	// Hash identifies base type objects. It is the zero hash for deltas.
	Hash core.Hash
	// Offset is the position of the entry header within the packfile.
	Offset int64
	// Reference is the base object hash of a ref-delta.
	Reference core.Hash
	// OffsetReference is the absolute packfile offset of the base entry
	// of an ofs-delta.
	OffsetReference int64
}

// BaseDistance returns how many bytes before this entry its ofs-delta
// base starts. It returns 0 for any other object type.
func (o *Object) BaseDistance() int64 {
	if o.Type != core.OFSDeltaObject {
		return 0
	}

	return o.Offset - o.OffsetReference
}
