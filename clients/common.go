// Package clients selects the upload-pack client able to talk to a given
// remote URL.
package clients

import (
	"fmt"

	"github.com/rgit-scm/rgit/clients/common"
	"github.com/rgit-scm/rgit/clients/git"
)

// NewGitUploadPackService parses repoURL and returns the upload-pack
// client for its scheme, plus the parsed endpoint to connect it to.
func NewGitUploadPackService(repoURL string) (common.GitUploadPackService, common.Endpoint, error) {
	endpoint, err := common.NewEndpoint(repoURL)
	if err != nil {
		return nil, common.Endpoint{}, err
	}

	switch endpoint.Scheme {
	case "git":
		return git.NewGitUploadPackService(), endpoint, nil
	default:
		return nil, common.Endpoint{}, fmt.Errorf(
			"unsupported scheme %q", endpoint.Scheme)
	}
}
