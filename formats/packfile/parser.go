package packfile

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rgit-scm/rgit/core"
)

var (
	// ErrEmptyPackfile is returned by Header when no data at all is found in
	// the packfile.
	ErrEmptyPackfile = NewError("empty packfile")
	// ErrBadSignature is returned by Header when the signature in the
	// packfile is incorrect.
	ErrBadSignature = NewError("malformed pack file signature")
	// ErrTruncated is returned when the packfile ends before a required
	// field, the declared object count or a declared payload size could be
	// satisfied.
	ErrTruncated = NewError("truncated pack file")
	// ErrBadLength is returned when an object size varint does not fit in
	// 63 bits. The size field is attacker-controlled allocation input, so
	// it never reaches the allocator unchecked.
	ErrBadLength = NewError("malformed object length")
)

// VersionSupported is the packfile version emitted by current git servers.
// The parser reports the version found in the header without rejecting
// others; callers that only deal with version 2 streams can check it with
// IsSupportedVersion.
const VersionSupported uint32 = 2

// ObjectHeader contains the metadata parsed from the entry of a single
// object in a packfile, up to but not including its compressed payload.
type ObjectHeader struct {
	Type            core.ObjectType
	Offset          int64
	Length          int64
	Reference       core.Hash
	OffsetReference int64
}

// A Parser is a collection of functions to read and process data from a
// packfile. Values from this type are not zero-value safe. See the
// NewParser function below.
type Parser struct {
	r *trackableReader
}

// NewParser returns a new Parser that reads from the packfile represented
// by r.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: &trackableReader{Reader: r}}
}

// Header reads the whole packfile header (signature, version and object
// count). It returns the version and the object count and checks the
// validity of the signature field.
func (p *Parser) Header() (version, objects uint32, err error) {
	sig, err := p.readSignature()
	if err != nil {
		return
	}

	if !p.isValidSignature(sig) {
		err = ErrBadSignature
		return
	}

	version, err = p.readVersion()
	if err != nil {
		return
	}

	objects, err = p.readCount()
	return
}

// readSignature reads and returns the signature field of the packfile.
func (p *Parser) readSignature() ([]byte, error) {
	var sig = make([]byte, 4)
	if _, err := io.ReadFull(p.r, sig); err != nil {
		if err == io.EOF {
			return []byte{}, ErrEmptyPackfile
		}

		return []byte{}, ErrTruncated
	}

	return sig, nil
}

// isValidSignature returns if sig is a valid packfile signature.
func (p *Parser) isValidSignature(sig []byte) bool {
	return bytes.Equal(sig, []byte{'P', 'A', 'C', 'K'})
}

// readVersion reads and returns the version field of a packfile.
func (p *Parser) readVersion() (uint32, error) {
	return p.readInt32()
}

// IsSupportedVersion returns whether version v is the one emitted by
// current git servers.
func (p *Parser) IsSupportedVersion(v uint32) bool {
	return v == VersionSupported
}

// readCount reads and returns the count of objects field of a packfile.
func (p *Parser) readCount() (uint32, error) {
	return p.readInt32()
}

// readInt32 reads 4 bytes and returns them as a Big Endian uint32.
func (p *Parser) readInt32() (uint32, error) {
	var v uint32
	if err := binary.Read(p.r, binary.BigEndian, &v); err != nil {
		return 0, ErrTruncated
	}

	return v, nil
}

// NextObjectHeader reads the type and size header of the object at the
// current offset, plus the base reference for the delta types.
func (p *Parser) NextObjectHeader() (*ObjectHeader, error) {
	h := &ObjectHeader{}
	h.Offset = p.r.Offset()

	var err error
	h.Type, h.Length, err = p.readObjectTypeAndLength()
	if err != nil {
		return nil, err
	}

	switch h.Type {
	case core.OFSDeltaObject:
		no, err := p.readNegativeOffset()
		if err != nil {
			return nil, err
		}

		h.OffsetReference = h.Offset + no
	case core.REFDeltaObject:
		h.Reference, err = p.readHash()
		if err != nil {
			return nil, err
		}
	}

	return h, nil
}

// readObjectTypeAndLength reads and returns the object type and the length
// field from an object entry in a packfile.
func (p *Parser) readObjectTypeAndLength() (core.ObjectType, int64, error) {
	t, c, err := p.readType()
	if err != nil {
		return t, 0, err
	}

	l, err := p.readLength(c)

	return t, l, err
}

func (p *Parser) readType() (core.ObjectType, byte, error) {
	var c byte
	var err error
	if c, err = p.r.ReadByte(); err != nil {
		return core.InvalidObject, 0, ErrTruncated
	}

	return parseType(c), c, nil
}

// the length is codified in the last 4 bits of the first byte and in the
// last 7 bits of subsequent bytes. The last byte has a 0 MSB.
func (p *Parser) readLength(first byte) (int64, error) {
	length := int64(first & maskFirstLength)

	c := first
	shift := firstLengthBits
	var err error
	for moreBytesInLength(c) {
		if c, err = p.r.ReadByte(); err != nil {
			return 0, ErrTruncated
		}

		if shift > 63 {
			return 0, ErrBadLength
		}

		length += int64(c&maskLength) << shift
		if length < 0 {
			return 0, ErrBadLength
		}

		shift += lengthBits
	}

	return length, nil
}

// readHash reads the 20 byte hash that identifies the base of a ref-delta
// object.
func (p *Parser) readHash() (core.Hash, error) {
	var h core.Hash
	if _, err := io.ReadFull(p.r, h[:]); err != nil {
		return core.ZeroHash, ErrTruncated
	}

	return h, nil
}

// readNegativeOffset reads and returns an offset from a OFS DELTA object
// entry in a packfile. OFS DELTA offsets are specified in git VLQ special
// format:
//
// Ordinary VLQ has some redundancies, example: the number 358 can be
// encoded as the 2-octet VLQ 0x8166 or the 3-octet VLQ 0x808166 or the
// 4-octet VLQ 0x80808166 and so forth.
//
// To avoid these redundancies, the VLQ format used in git removes this
// prepending redundancy and extends the representable range of shorter
// VLQs by adding an offset to VLQs of 2 or more octets in such a way
// that the lowest possible value for such an (N+1)-octet VLQ becomes
// exactly one more than the maximum possible value for an N-octet VLQ.
// In particular, since a 1-octet VLQ can store a maximum value of 127,
// the minimum 2-octet VLQ (0x8000) is assigned the value 128 instead of
// 0. Conversely, the maximum value of such a 2-octet VLQ (0xff7f) is
// 16511 instead of just 16383. Similarly, the minimum 3-octet VLQ
// (0x808000) has a value of 16512 instead of zero, which means
// that the maximum 3-octet VLQ (0xffff7f) is 2113663 instead of
// just 2097151. And so forth.
//
// The loop is bounded by the continuation bit alone: the byte without the
// MSB set terminates the encoding, and running out of input before that
// byte is a truncation error.
func (p *Parser) readNegativeOffset() (int64, error) {
	var c byte
	var err error

	if c, err = p.r.ReadByte(); err != nil {
		return 0, ErrTruncated
	}

	var offset = int64(c & maskLength)
	for moreBytesInLength(c) {
		offset++
		if c, err = p.r.ReadByte(); err != nil {
			return 0, ErrTruncated
		}
		offset = (offset << lengthBits) + int64(c&maskLength)
	}

	return -offset, nil
}

func moreBytesInLength(c byte) bool {
	return c&maskContinue > 0
}

var (
	maskContinue    = uint8(128) // 1000 0000
	maskType        = uint8(112) // 0111 0000
	maskFirstLength = uint8(15)  // 0000 1111
	firstLengthBits = uint8(4)   // the first byte has 4 bits to store the length
	maskLength      = uint8(127) // 0111 1111
	lengthBits      = uint8(7)   // subsequent bytes have 7 bits to store the length
)

func parseType(b byte) core.ObjectType {
	return core.ObjectType((b & maskType) >> firstLengthBits)
}

// trackableReader tracks how many bytes have been read from the underlying
// reader. It also implements io.ByteReader: handing a ByteReader to
// compress/zlib keeps flate from buffering ahead of the deflate stream, so
// after inflating an object the count below points exactly at the first
// metadata byte of the next one.
//
// See https://github.com/golang/go/commit/7ba54d45732219af86bde9a5b73c145db82b70c6
type trackableReader struct {
	io.Reader
	count int64
}

// Read reads up to len(p) bytes into p.
func (r *trackableReader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	r.count += int64(n)

	return
}

// ReadByte reads a byte.
func (r *trackableReader) ReadByte() (byte, error) {
	var p [1]byte
	n, err := r.Reader.Read(p[:])
	r.count += int64(n)
	if n == 1 {
		return p[0], nil
	}

	if err == nil {
		err = io.ErrNoProgress
	}

	return 0, err
}

// Offset returns the number of bytes read.
func (r *trackableReader) Offset() int64 {
	return r.count
}
