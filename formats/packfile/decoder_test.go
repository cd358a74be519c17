package packfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rgit-scm/rgit/core"
	. "gopkg.in/check.v1"
)

type DecoderSuite struct{}

var _ = Suite(&DecoderSuite{})

// packBuilder assembles well-formed packfiles for the tests, recording the
// offset of every entry so the delta helpers can compute base distances.
type packBuilder struct {
	buf     bytes.Buffer
	offsets []int64
}

func newPackBuilder(version, count uint32) *packBuilder {
	b := &packBuilder{}
	b.buf.WriteString("PACK")
	binary.Write(&b.buf, binary.BigEndian, version)
	binary.Write(&b.buf, binary.BigEndian, count)
	return b
}

func (b *packBuilder) addObject(t core.ObjectType, content []byte) {
	b.offsets = append(b.offsets, int64(b.buf.Len()))
	b.buf.Write(encodeTypeAndSize(t, int64(len(content))))
	b.buf.Write(deflate(content))
}

func (b *packBuilder) addOFSDelta(base int, delta []byte) {
	offset := int64(b.buf.Len())
	b.offsets = append(b.offsets, offset)
	b.buf.Write(encodeTypeAndSize(core.OFSDeltaObject, int64(len(delta))))
	b.buf.Write(encodeOffset(offset - b.offsets[base]))
	b.buf.Write(deflate(delta))
}

func (b *packBuilder) addREFDelta(base core.Hash, delta []byte) {
	b.offsets = append(b.offsets, int64(b.buf.Len()))
	b.buf.Write(encodeTypeAndSize(core.REFDeltaObject, int64(len(delta))))
	b.buf.Write(base[:])
	b.buf.Write(deflate(delta))
}

func (b *packBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func deflate(content []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(content)
	zw.Close()
	return buf.Bytes()
}

func (s *DecoderSuite) TestDecodeEmpty(c *C) {
	pack, err := Decode(bytes.NewReader(newPackBuilder(2, 0).bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Version, Equals, uint32(2))
	c.Assert(pack.ObjectCount, Equals, uint32(0))
	c.Assert(pack.Objects, HasLen, 0)
}

func (s *DecoderSuite) TestDecodeVersionPassthrough(c *C) {
	pack, err := Decode(bytes.NewReader(newPackBuilder(3, 0).bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Version, Equals, uint32(3))
}

func (s *DecoderSuite) TestDecodeBlob(c *C) {
	b := newPackBuilder(2, 1)
	b.addObject(core.BlobObject, []byte("hello"))

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Objects, HasLen, 1)

	obj := pack.Objects[0]
	c.Assert(obj.Type, Equals, core.BlobObject)
	c.Assert(obj.Size, Equals, int64(5))
	c.Assert(string(obj.Content), Equals, "hello")
	c.Assert(obj.Offset, Equals, int64(12))
	c.Assert(obj.Hash.String(), Equals, "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0")
}

func (s *DecoderSuite) TestDecodeKeepsStreamOrder(c *C) {
	commit := []byte("tree 8ab686eafeb1f44702738c8b0f24f2567c36da6d\n" +
		"author foo <foo@example.com> 1257894000 +0000\n" +
		"committer foo <foo@example.com> 1257894000 +0000\n\nfirst\n")
	large := bytes.Repeat([]byte{0xab}, 8192)

	b := newPackBuilder(2, 4)
	b.addObject(core.CommitObject, commit)
	b.addObject(core.BlobObject, nil)
	b.addObject(core.BlobObject, []byte("Hello, World!\n"))
	b.addObject(core.BlobObject, large)

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Objects, HasLen, 4)

	contents := [][]byte{commit, {}, []byte("Hello, World!\n"), large}
	types := []core.ObjectType{
		core.CommitObject, core.BlobObject, core.BlobObject, core.BlobObject,
	}

	for i, obj := range pack.Objects {
		c.Assert(obj.Type, Equals, types[i], Commentf("object %d", i))
		c.Assert(bytes.Equal(obj.Content, contents[i]), Equals, true)
		c.Assert(obj.Offset, Equals, b.offsets[i])
		c.Assert(obj.Hash, Equals, core.ComputeHash(types[i], contents[i]))
	}

	c.Assert(pack.Objects[1].Hash.String(), Equals,
		"e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	c.Assert(pack.Objects[2].Hash.String(), Equals,
		"8ab686eafeb1f44702738c8b0f24f2567c36da6d")
}

func (s *DecoderSuite) TestDecodeOFSDelta(c *C) {
	b := newPackBuilder(2, 2)
	b.addObject(core.BlobObject, []byte("hello"))
	b.addOFSDelta(0, []byte{0x05, 0x05, 0x90})

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Objects, HasLen, 2)

	delta := pack.Objects[1]
	c.Assert(delta.Type, Equals, core.OFSDeltaObject)
	c.Assert(delta.Content, DeepEquals, []byte{0x05, 0x05, 0x90})
	c.Assert(delta.OffsetReference, Equals, pack.Objects[0].Offset)
	c.Assert(delta.BaseDistance(), Equals, delta.Offset-pack.Objects[0].Offset)
	c.Assert(delta.Hash.IsZero(), Equals, true)
}

func (s *DecoderSuite) TestDecodeREFDelta(c *C) {
	base := core.ComputeHash(core.BlobObject, []byte("hello"))

	b := newPackBuilder(2, 2)
	b.addObject(core.BlobObject, []byte("hello"))
	b.addREFDelta(base, []byte{0x05, 0x05, 0x90})

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)

	delta := pack.Objects[1]
	c.Assert(delta.Type, Equals, core.REFDeltaObject)
	c.Assert(delta.Reference, Equals, base)
	c.Assert(delta.Content, DeepEquals, []byte{0x05, 0x05, 0x90})
	c.Assert(delta.Hash.IsZero(), Equals, true)
	c.Assert(delta.BaseDistance(), Equals, int64(0))
}

func (s *DecoderSuite) TestDecodeObjectAfterDelta(c *C) {
	// the cursor must land exactly on the entry that follows a delta
	b := newPackBuilder(2, 3)
	b.addObject(core.BlobObject, []byte("hello"))
	b.addOFSDelta(0, []byte{0x05, 0x05, 0x90})
	b.addObject(core.BlobObject, []byte("world"))

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)
	c.Assert(pack.Objects, HasLen, 3)
	c.Assert(string(pack.Objects[2].Content), Equals, "world")
	c.Assert(pack.Objects[2].Offset, Equals, b.offsets[2])
}

func (s *DecoderSuite) TestDecodeUnknownObjectType(c *C) {
	for _, tag := range []byte{0x00, 0x50} {
		b := newPackBuilder(2, 1)
		b.buf.WriteByte(tag)

		_, err := Decode(bytes.NewReader(b.bytes()))
		c.Assert(err, ErrorMatches, ErrUnknownObjectType.Error()+": .*",
			Commentf("tag %#x", tag))
	}
}

func (s *DecoderSuite) TestDecodeOverflowingObjectSize(c *C) {
	// a blob header whose size varint wraps the accumulator negative must
	// surface as an error, not reach the allocator
	b := newPackBuilder(2, 1)
	b.buf.WriteByte(0xb0)
	b.buf.Write(bytes.Repeat([]byte{0xff}, 9))
	b.buf.WriteByte(0x7f)

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(pack, IsNil)
	c.Assert(err, ErrorMatches, ErrBadLength.Error())
}

func (s *DecoderSuite) TestDecodeTruncatedObjectHeader(c *C) {
	pack, err := Decode(bytes.NewReader(newPackBuilder(2, 1).bytes()))
	c.Assert(pack, IsNil)
	c.Assert(err, ErrorMatches, ErrTruncated.Error())
}

func (s *DecoderSuite) TestDecodeFewerObjectsThanDeclared(c *C) {
	b := newPackBuilder(2, 2)
	b.addObject(core.BlobObject, []byte("hello"))

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(pack, IsNil)
	c.Assert(err, ErrorMatches, ErrTruncated.Error())
}

func (s *DecoderSuite) TestDecodeTruncatedPayload(c *C) {
	b := newPackBuilder(2, 1)
	b.addObject(core.BlobObject, []byte("hello"))
	data := b.bytes()

	pack, err := Decode(bytes.NewReader(data[:len(data)-4]))
	c.Assert(pack, IsNil)
	c.Assert(err, ErrorMatches, ErrTruncated.Error()+": .*")
}

func (s *DecoderSuite) TestDecodeInflatedSizeMismatch(c *C) {
	for _, declared := range []int64{6, 4} {
		var buf bytes.Buffer
		buf.WriteString("PACK")
		binary.Write(&buf, binary.BigEndian, uint32(2))
		binary.Write(&buf, binary.BigEndian, uint32(1))
		buf.Write(encodeTypeAndSize(core.BlobObject, declared))
		buf.Write(deflate([]byte("hello")))

		pack, err := Decode(bytes.NewReader(buf.Bytes()))
		c.Assert(pack, IsNil)
		c.Assert(err, ErrorMatches, ErrZLib.Error()+": .*",
			Commentf("declared size %d", declared))
	}
}

func (s *DecoderSuite) TestDecodeMaxObjectsLimit(c *C) {
	pack, err := Decode(bytes.NewReader(newPackBuilder(2, MaxObjectsLimit+1).bytes()))
	c.Assert(pack, IsNil)
	c.Assert(err, ErrorMatches, ErrMaxObjectsLimitReached.Error()+": .*")
}

func (s *DecoderSuite) TestDecodeFile(c *C) {
	b := newPackBuilder(2, 1)
	b.addObject(core.BlobObject, []byte("hello"))

	fs := memfs.New()
	err := util.WriteFile(fs, "objects.pack", b.bytes(), 0644)
	c.Assert(err, IsNil)

	pack, err := DecodeFile(fs, "objects.pack")
	c.Assert(err, IsNil)
	c.Assert(pack.Objects, HasLen, 1)
	c.Assert(string(pack.Objects[0].Content), Equals, "hello")
}

func (s *DecoderSuite) TestDecodeFileNotFound(c *C) {
	_, err := DecodeFile(memfs.New(), "missing.pack")
	c.Assert(err, NotNil)
}

func (s *DecoderSuite) TestPackFileObjectLookup(c *C) {
	b := newPackBuilder(2, 2)
	b.addObject(core.BlobObject, []byte("hello"))
	b.addObject(core.BlobObject, []byte("world"))

	pack, err := Decode(bytes.NewReader(b.bytes()))
	c.Assert(err, IsNil)

	world := core.ComputeHash(core.BlobObject, []byte("world"))
	obj := pack.Object(world)
	c.Assert(obj, NotNil)
	c.Assert(string(obj.Content), Equals, "world")

	c.Assert(pack.Object(core.NewHash(
		"a8d315b2b1c615d43042c3a62402b8a54288cf5c")), IsNil)
}
