// Package git implements the git-upload-pack service over the git daemon
// protocol, the plain TCP transport behind git:// URLs.
package git

import (
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/rgit-scm/rgit/clients/common"
	"github.com/rgit-scm/rgit/core"
	"github.com/rgit-scm/rgit/formats/packp/pktline"
)

var (
	// ErrNotConnected is returned when Info, Fetch or Disconnect are
	// called before Connect.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect when the service holds
	// an open connection already.
	ErrAlreadyConnected = errors.New("already connected")
)

// GitUploadPackService git-upload-pack service over the git daemon
// protocol. The daemon sends the reference advertisement right after the
// service request, so the whole exchange runs over a single connection.
type GitUploadPackService struct {
	endpoint common.Endpoint
	conn     net.Conn
	info     *common.GitUploadPackInfo
}

// NewGitUploadPackService returns a disconnected service, Connect must be
// called before any other method.
func NewGitUploadPackService() *GitUploadPackService {
	return &GitUploadPackService{}
}

// Connect dials the git daemon behind e and sends the service request for
// the repository path in the endpoint.
func (s *GitUploadPackService) Connect(e common.Endpoint) error {
	if s.conn != nil {
		return ErrAlreadyConnected
	}

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		return core.NewUnexpectedError(err)
	}

	s.conn = conn
	s.endpoint = e

	if err := s.sendServiceRequest(); err != nil {
		s.conn.Close()
		s.conn = nil
		return err
	}

	return nil
}

// sendServiceRequest writes the daemon request line, a single pkt-line of
// the form "git-upload-pack /path\0host=hostname\0".
func (s *GitUploadPackService) sendServiceRequest() error {
	e := pktline.NewEncoder()
	err := e.Addf("%s %s\x00host=%s\x00",
		common.GitUploadPackServiceName, s.endpoint.Path, s.endpoint.Hostname())
	if err != nil {
		return err
	}

	if _, err := s.conn.Write(e.Bytes()); err != nil {
		return core.NewUnexpectedError(err)
	}

	return nil
}

// Info returns the references and capabilities advertised by the remote.
// The advertisement is read from the connection on the first call and
// cached for later ones.
func (s *GitUploadPackService) Info() (*common.GitUploadPackInfo, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}

	if s.info != nil {
		return s.info, nil
	}

	info := common.NewGitUploadPackInfo()
	if err := info.Decode(pktline.NewScanner(s.conn)); err != nil {
		return nil, err
	}

	s.info = info
	return info, nil
}

// Fetch sends the wants and haves in r and returns a reader for the
// packfile the remote answers with. Closing the reader closes the
// connection.
func (s *GitUploadPackService) Fetch(r *common.GitUploadPackRequest) (io.ReadCloser, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}

	// the advertisement must be drained off the wire first
	if _, err := s.Info(); err != nil {
		return nil, err
	}

	if _, err := io.Copy(s.conn, r.Reader()); err != nil {
		return nil, core.NewUnexpectedError(err)
	}

	if err := s.discardResponseInfo(); err != nil {
		return nil, err
	}

	conn := s.conn
	s.conn = nil
	s.info = nil

	return conn, nil
}

// discardResponseInfo reads the acknowledgment pkt-lines up to the NAK
// that precedes the packfile data.
func (s *GitUploadPackService) discardResponseInfo() error {
	sc := pktline.NewScanner(s.conn)
	for sc.Scan() {
		if bytes.Equal(sc.Bytes(), []byte("NAK\n")) {
			return nil
		}
	}

	if err := sc.Err(); err != nil {
		return core.NewUnexpectedError(err)
	}

	return core.NewUnexpectedError(io.ErrUnexpectedEOF)
}

// Disconnect closes the connection to the remote. It is a no-op after
// Fetch, the returned reader owns the connection then.
func (s *GitUploadPackService) Disconnect() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.info = nil
	return err
}
