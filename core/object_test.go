package core

import . "gopkg.in/check.v1"

type ObjectSuite struct{}

var _ = Suite(&ObjectSuite{})

func (s *ObjectSuite) TestObjectTypeString(c *C) {
	c.Assert(CommitObject.String(), Equals, "commit")
	c.Assert(TreeObject.String(), Equals, "tree")
	c.Assert(BlobObject.String(), Equals, "blob")
	c.Assert(TagObject.String(), Equals, "tag")
	c.Assert(OFSDeltaObject.String(), Equals, "ofs-delta")
	c.Assert(REFDeltaObject.String(), Equals, "ref-delta")
	c.Assert(InvalidObject.String(), Equals, "unknown")
	c.Assert(ObjectType(42).String(), Equals, "unknown")
}

func (s *ObjectSuite) TestObjectTypeValid(c *C) {
	for t, expected := range map[ObjectType]bool{
		InvalidObject:  false,
		CommitObject:   true,
		TreeObject:     true,
		BlobObject:     true,
		TagObject:      true,
		ObjectType(5):  false,
		OFSDeltaObject: true,
		REFDeltaObject: true,
		ObjectType(42): false,
	} {
		c.Assert(t.Valid(), Equals, expected, Commentf("type %d", t))
	}
}

func (s *ObjectSuite) TestObjectTypeIsDelta(c *C) {
	c.Assert(BlobObject.IsDelta(), Equals, false)
	c.Assert(OFSDeltaObject.IsDelta(), Equals, true)
	c.Assert(REFDeltaObject.IsDelta(), Equals, true)
}

func (s *ObjectSuite) TestParseObjectType(c *C) {
	for name, expected := range map[string]ObjectType{
		"commit":    CommitObject,
		"tree":      TreeObject,
		"blob":      BlobObject,
		"tag":       TagObject,
		"ofs-delta": OFSDeltaObject,
		"ref-delta": REFDeltaObject,
	} {
		typ, err := ParseObjectType(name)
		c.Assert(err, IsNil)
		c.Assert(typ, Equals, expected)
	}

	_, err := ParseObjectType("invalid")
	c.Assert(err, Equals, ErrInvalidType)
}
