package core

import . "gopkg.in/check.v1"

type ReferenceSuite struct{}

var _ = Suite(&ReferenceSuite{})

const (
	ExampleReferenceName ReferenceName = "refs/heads/v4"
)

func (s *ReferenceSuite) TestReferenceNameShort(c *C) {
	c.Assert(ExampleReferenceName.Short(), Equals, "v4")
	c.Assert(HEAD.Short(), Equals, "HEAD")
}

func (s *ReferenceSuite) TestNewReferenceFromStrings(c *C) {
	r := NewReferenceFromStrings("refs/heads/v4", "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	c.Assert(r.Type(), Equals, HashReference)
	c.Assert(r.Name(), Equals, ExampleReferenceName)
	c.Assert(r.Hash(), Equals, NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5"))

	r = NewReferenceFromStrings("HEAD", "ref: refs/heads/v4")
	c.Assert(r.Type(), Equals, SymbolicReference)
	c.Assert(r.Name(), Equals, HEAD)
	c.Assert(r.Target(), Equals, ExampleReferenceName)
}

func (s *ReferenceSuite) TestIsBranch(c *C) {
	r := NewHashReference(ExampleReferenceName, ZeroHash)
	c.Assert(r.IsBranch(), Equals, true)

	r = NewHashReference("refs/tags/v3.1.", ZeroHash)
	c.Assert(r.IsBranch(), Equals, false)
}

func (s *ReferenceSuite) TestIsTag(c *C) {
	r := NewHashReference("refs/tags/v3.1.", ZeroHash)
	c.Assert(r.IsTag(), Equals, true)

	r = NewHashReference(ExampleReferenceName, ZeroHash)
	c.Assert(r.IsTag(), Equals, false)
}

func (s *ReferenceSuite) TestStrings(c *C) {
	r := NewReferenceFromStrings("HEAD", "ref: refs/heads/v4")
	e := r.Strings()
	c.Assert(e[0], Equals, "HEAD")
	c.Assert(e[1], Equals, "ref: refs/heads/v4")

	r = NewReferenceFromStrings("refs/heads/v4", "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	e = r.Strings()
	c.Assert(e[0], Equals, "refs/heads/v4")
	c.Assert(e[1], Equals, "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
}
