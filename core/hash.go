package core

import (
	"encoding/hex"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// Hash SHA1 hashed content
type Hash [20]byte

// ZeroHash is Hash with value zero
var ZeroHash Hash

// ComputeHash compute the hash for a given ObjectType and content
func ComputeHash(t ObjectType, content []byte) Hash {
	h := sha1cd.New()
	h.Write(t.Bytes())
	h.Write([]byte(" "))
	h.Write(strconv.AppendInt(nil, int64(len(content)), 10))
	h.Write([]byte{0})
	h.Write(content)

	var hash Hash
	copy(hash[:], h.Sum(nil))

	return hash
}

// NewHash return a new Hash from a hexadecimal hash representation
func NewHash(s string) Hash {
	b, _ := hex.DecodeString(s)

	var h Hash
	copy(h[:], b)

	return h
}

// IsZero returns true if the hash is the zero value.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
