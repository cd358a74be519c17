// Package memory is a storage backend backed by plain maps, used to hold
// the references advertised by a remote during an upload-pack exchange.
package memory

import (
	"sort"

	"github.com/rgit-scm/rgit/core"
)

// ReferenceStorage is an in-memory reference storage.
type ReferenceStorage map[core.ReferenceName]*core.Reference

// Set stores a reference, overwriting any previous value for its name.
func (r ReferenceStorage) Set(ref *core.Reference) error {
	if ref != nil {
		r[ref.Name()] = ref
	}

	return nil
}

// Get returns the reference with the given name, or ErrReferenceNotFound.
func (r ReferenceStorage) Get(n core.ReferenceName) (*core.Reference, error) {
	ref, ok := r[n]
	if !ok {
		return nil, core.ErrReferenceNotFound
	}

	return ref, nil
}

// Iter returns an iterator over the stored references, ordered by name.
func (r ReferenceStorage) Iter() (core.ReferenceIter, error) {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, string(name))
	}
	sort.Strings(names)

	refs := make([]*core.Reference, 0, len(r))
	for _, name := range names {
		refs = append(refs, r[core.ReferenceName(name)])
	}

	return core.NewReferenceSliceIter(refs), nil
}
