// Package common contains interfaces and non-specific protocol entities
// shared by the upload-pack clients.
package common

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/rgit-scm/rgit/core"
	"github.com/rgit-scm/rgit/formats/packp/pktline"
	"github.com/rgit-scm/rgit/storage/memory"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrEmptyGitUploadPack = errors.New("empty git-upload-pack given")
)

// GitUploadPackServiceName is the service requested from the remote when
// fetching.
const GitUploadPackServiceName = "git-upload-pack"

// DefaultPort is the port the git daemon listens on when none is given in
// the endpoint.
const DefaultPort = 9418

// GitUploadPackService is implemented by the per-protocol clients able to
// run the git-upload-pack service against a remote.
type GitUploadPackService interface {
	Connect(url Endpoint) error
	Info() (*GitUploadPackInfo, error)
	Fetch(r *GitUploadPackRequest) (io.ReadCloser, error)
	Disconnect() error
}

// Endpoint is the remote repository location, as parsed from a URL.
type Endpoint url.URL

var isSchemeRegExp = regexp.MustCompile("^[^:]+://")

// NewEndpoint parses endpoint into an Endpoint. Endpoints without a
// scheme are assumed to point at a git daemon and get the git scheme.
func NewEndpoint(endpoint string) (Endpoint, error) {
	if !isSchemeRegExp.MatchString(endpoint) {
		endpoint = "git://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return Endpoint{}, core.NewPermanentError(err)
	}

	if !u.IsAbs() || u.Host == "" {
		return Endpoint{}, core.NewPermanentError(fmt.Errorf(
			"invalid endpoint: %s", endpoint,
		))
	}

	return Endpoint(*u), nil
}

func (e *Endpoint) String() string {
	u := url.URL(*e)
	return u.String()
}

// Addr returns the host:port to dial, applying DefaultPort when the
// endpoint does not carry one.
func (e *Endpoint) Addr() string {
	if _, _, err := net.SplitHostPort(e.Host); err == nil {
		return e.Host
	}

	return fmt.Sprintf("%s:%d", e.Host, DefaultPort)
}

// Hostname returns the host without the port.
func (e *Endpoint) Hostname() string {
	if host, _, err := net.SplitHostPort(e.Host); err == nil {
		return host
	}

	return e.Host
}

// Capabilities contains all the server capabilities
// https://github.com/git/git/blob/master/Documentation/technical/protocol-capabilities.txt
type Capabilities struct {
	m map[string]*Capability
	o []string
}

// Capability represents a server capability
type Capability struct {
	Name   string
	Values []string
}

// NewCapabilities returns a new Capabilities struct
func NewCapabilities() *Capabilities {
	return &Capabilities{
		m: make(map[string]*Capability),
	}
}

// Decode decodes a string
func (c *Capabilities) Decode(raw string) {
	params := strings.Split(raw, " ")
	for _, p := range params {
		s := strings.SplitN(p, "=", 2)

		var value string
		if len(s) == 2 {
			value = s[1]
		}

		c.Add(s[0], value)
	}
}

// Get returns the values for a capability
func (c *Capabilities) Get(capability string) *Capability {
	return c.m[capability]
}

// Set sets a capability removing the values
func (c *Capabilities) Set(capability string, values ...string) {
	if _, ok := c.m[capability]; ok {
		delete(c.m, capability)
	}

	c.Add(capability, values...)
}

// Add adds a capability, values are optional
func (c *Capabilities) Add(capability string, values ...string) {
	if !c.Supports(capability) {
		c.m[capability] = &Capability{Name: capability}
		c.o = append(c.o, capability)
	}

	if len(values) == 0 {
		return
	}

	c.m[capability].Values = append(c.m[capability].Values, values...)
}

// Supports returns true if capability is present
func (c *Capabilities) Supports(capability string) bool {
	_, ok := c.m[capability]
	return ok
}

// SymbolicReference returns the reference for a given symbolic reference
func (c *Capabilities) SymbolicReference(sym string) string {
	if !c.Supports("symref") {
		return ""
	}

	for _, symref := range c.Get("symref").Values {
		parts := strings.Split(symref, ":")
		if len(parts) != 2 {
			continue
		}

		if parts[0] == sym {
			return parts[1]
		}
	}

	return ""
}

func (c *Capabilities) String() string {
	if len(c.o) == 0 {
		return ""
	}

	var o string
	for _, key := range c.o {
		cap := c.m[key]

		added := false
		for _, value := range cap.Values {
			if value == "" {
				continue
			}

			added = true
			o += fmt.Sprintf("%s=%s ", key, value)
		}

		if len(cap.Values) == 0 || !added {
			o += key + " "
		}
	}

	if len(o) == 0 {
		return o
	}

	return o[:len(o)-1]
}

// GitUploadPackInfo holds the reference advertisement sent by a remote at
// the start of an upload-pack exchange.
type GitUploadPackInfo struct {
	Capabilities *Capabilities
	Refs         memory.ReferenceStorage
}

func NewGitUploadPackInfo() *GitUploadPackInfo {
	return &GitUploadPackInfo{Capabilities: NewCapabilities()}
}

// Decode reads the advertisement pkt-lines from s, up to and including
// the terminating flush-pkt.
func (r *GitUploadPackInfo) Decode(s *pktline.Scanner) error {
	if err := r.read(s); err != nil {
		if err == ErrEmptyGitUploadPack || errors.Is(err, ErrRepositoryNotFound) {
			return core.NewPermanentError(err)
		}

		return core.NewUnexpectedError(err)
	}

	return nil
}

func (r *GitUploadPackInfo) read(s *pktline.Scanner) error {
	isEmpty := true
	r.Refs = make(memory.ReferenceStorage)
	for s.Scan() {
		line := string(s.Bytes())

		// exit on first flush-pkt
		if len(line) == 0 {
			break
		}

		if err := r.readLine(line); err != nil {
			return err
		}

		isEmpty = false
	}

	if isEmpty {
		return ErrEmptyGitUploadPack
	}

	return s.Err()
}

func (r *GitUploadPackInfo) readLine(line string) error {
	if strings.HasPrefix(line, "ERR ") {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound,
			strings.TrimSpace(line[4:]))
	}

	hashEnd := strings.Index(line, " ")
	if hashEnd == -1 {
		return fmt.Errorf("malformed advertisement line: %q", line)
	}

	hash := line[:hashEnd]

	zeroID := strings.IndexByte(line, 0)
	if zeroID == -1 {
		name := strings.TrimSuffix(line[hashEnd+1:], "\n")
		ref := core.NewReferenceFromStrings(name, hash)
		return r.Refs.Set(ref)
	}

	// the first advertised ref carries the capability list after a NUL
	name := line[hashEnd+1 : zeroID]
	r.Capabilities.Decode(strings.TrimSuffix(line[zeroID+1:], "\n"))
	if !r.Capabilities.Supports("symref") {
		ref := core.NewReferenceFromStrings(name, hash)
		return r.Refs.Set(ref)
	}

	target := r.Capabilities.SymbolicReference(name)
	if target == "" {
		ref := core.NewReferenceFromStrings(name, hash)
		return r.Refs.Set(ref)
	}

	ref := core.NewSymbolicReference(core.ReferenceName(name), core.ReferenceName(target))
	if err := r.Refs.Set(ref); err != nil {
		return err
	}

	return r.Refs.Set(core.NewReferenceFromStrings(target, hash))
}

// Head returns the reference HEAD resolves to, or nil when the remote did
// not advertise one.
func (r *GitUploadPackInfo) Head() *core.Reference {
	ref, _ := core.ResolveReference(r.Refs, core.HEAD)
	return ref
}

func (r *GitUploadPackInfo) String() string {
	return string(r.Bytes())
}

// Bytes re-encodes the advertisement as pkt-lines.
func (r *GitUploadPackInfo) Bytes() []byte {
	e := pktline.NewEncoder()

	head := r.Head()
	if head != nil {
		_ = e.Addf("%s HEAD\x00%s\n", head.Hash(), r.Capabilities.String())
	}

	iter, _ := r.Refs.Iter()
	defer iter.Close()
	for {
		ref, err := iter.Next()
		if err != nil {
			break
		}

		if ref.Type() != core.HashReference || ref.Name() == core.HEAD {
			continue
		}

		_ = e.Addf("%s %s\n", ref.Hash(), ref.Name())
	}

	e.AddFlush()

	return e.Bytes()
}

// GitUploadPackRequest is the set of objects the client asks the remote
// for, with the ones it already has.
type GitUploadPackRequest struct {
	Wants []core.Hash
	Haves []core.Hash
	Depth int
}

func (r *GitUploadPackRequest) Want(h ...core.Hash) {
	r.Wants = append(r.Wants, h...)
}

func (r *GitUploadPackRequest) Have(h ...core.Hash) {
	r.Haves = append(r.Haves, h...)
}

func (r *GitUploadPackRequest) String() string {
	b, _ := io.ReadAll(r.Reader())
	return string(b)
}

// Reader returns the request encoded as pkt-lines, terminated by "done".
func (r *GitUploadPackRequest) Reader() io.Reader {
	e := pktline.NewEncoder()

	for _, want := range r.Wants {
		_ = e.Addf("want %s\n", want)
	}

	for _, have := range r.Haves {
		_ = e.Addf("have %s\n", have)
	}

	if r.Depth != 0 {
		_ = e.Addf("deepen %d\n", r.Depth)
	}

	e.AddFlush()
	_ = e.AddString("done\n")

	return e.Reader()
}
