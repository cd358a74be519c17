package packfile

import (
	"compress/zlib"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/rgit-scm/rgit/core"
)

// MaxObjectsLimit is the limit of objects accepted in a single packfile,
// decoding is aborted if the header declares more.
const MaxObjectsLimit = 1 << 20

var (
	// ErrMaxObjectsLimitReached is returned by Decode when the number of
	// objects in the packfile is higher than MaxObjectsLimit.
	ErrMaxObjectsLimitReached = NewError("max. objects limit reached")
	// ErrUnknownObjectType is returned by Decode when a header has an
	// unsupported object type tag.
	ErrUnknownObjectType = NewError("unknown object type")
	// ErrZLib is returned by Decode when the deflate stream of an object
	// is corrupt or does not inflate to the declared size.
	ErrZLib = NewError("zlib reading error")
)

// Decoder reads a packfile from a Parser and materializes every object in
// it.
type Decoder struct {
	p *Parser
}

// NewDecoder returns a Decoder that reads from the given Parser.
func NewDecoder(p *Parser) *Decoder {
	return &Decoder{p: p}
}

// Decode reads a complete packfile from r.
func Decode(r io.Reader) (*PackFile, error) {
	return NewDecoder(NewParser(r)).Decode()
}

// DecodeFile reads a complete packfile from a file in the given
// filesystem.
func DecodeFile(fs billy.Filesystem, path string) (pack *PackFile, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	return Decode(f)
}

// Decode reads the header and every object of the packfile. It returns
// either a PackFile with all declared objects, or an error and no
// PackFile; a stream that fails partway through never yields a partial
// result.
func (d *Decoder) Decode() (*PackFile, error) {
	version, count, err := d.p.Header()
	if err != nil {
		return nil, err
	}

	if count > MaxObjectsLimit {
		return nil, ErrMaxObjectsLimitReached.AddDetails("%d declared", count)
	}

	pack := &PackFile{
		Version:     version,
		ObjectCount: count,
		Objects:     make([]*Object, 0, count),
	}

	for i := uint32(0); i < count; i++ {
		obj, err := d.readObject(i)
		if err != nil {
			return nil, err
		}

		pack.Objects = append(pack.Objects, obj)
	}

	return pack, nil
}

func (d *Decoder) readObject(index uint32) (*Object, error) {
	h, err := d.p.NextObjectHeader()
	if err != nil {
		return nil, err
	}

	obj := &Object{
		Type:            h.Type,
		Size:            h.Length,
		Offset:          h.Offset,
		Reference:       h.Reference,
		OffsetReference: h.OffsetReference,
	}

	switch h.Type {
	case core.CommitObject, core.TreeObject, core.BlobObject, core.TagObject:
		obj.Content, err = d.inflate(index, h.Length)
		if err != nil {
			return nil, err
		}

		obj.Hash = core.ComputeHash(h.Type, obj.Content)
	case core.OFSDeltaObject, core.REFDeltaObject:
		// the content of a delta is its instruction stream, the base is
		// not applied here
		obj.Content, err = d.inflate(index, h.Length)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownObjectType.AddDetails("%d", int8(h.Type))
	}

	return obj, nil
}

// inflate reads the deflate stream at the current offset and returns
// exactly size inflated bytes. The stream is drained to its end marker so
// the underlying reader is left at the first byte of the next entry.
func (d *Decoder) inflate(index uint32, size int64) ([]byte, error) {
	zr, err := zlib.NewReader(d.p.r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated.AddDetails("object %d", index)
		}

		return nil, ErrZLib.AddDetails("object %d: %s", index, err)
	}

	defer zr.Close()

	buf := make([]byte, size)
	read := 0
	for read < len(buf) {
		n, err := zr.Read(buf[read:])
		read += n
		if err == nil {
			continue
		}

		switch err {
		case io.EOF:
			return nil, ErrZLib.AddDetails(
				"object %d: inflated %d bytes, expected %d", index, read, size)
		case io.ErrUnexpectedEOF:
			return nil, ErrTruncated.AddDetails("object %d", index)
		default:
			return nil, ErrZLib.AddDetails("object %d: %s", index, err)
		}
	}

	var tail [1]byte
	for {
		n, err := zr.Read(tail[:])
		if n != 0 {
			return nil, ErrZLib.AddDetails(
				"object %d: inflated stream longer than the declared %d bytes",
				index, size)
		}

		switch err {
		case nil:
			continue
		case io.EOF:
			return buf, nil
		case io.ErrUnexpectedEOF:
			return nil, ErrTruncated.AddDetails("object %d", index)
		default:
			return nil, ErrZLib.AddDetails("object %d: %s", index, err)
		}
	}
}
