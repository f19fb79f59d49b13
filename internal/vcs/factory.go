package vcs

import (
	"net/url"
	"strings"
	"time"

	"github.com/platformio/platformio-api/internal/httpclient"
)

// Options configures provider clients created by the factory.
type Options struct {
	// HTTPClient is used for provider REST calls and archive downloads.
	HTTPClient httpclient.Client

	// Branch pins exports and commit lookups to a branch; empty means the
	// provider's default branch.
	Branch string
}

func (o *Options) httpClient() httpclient.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return httpclient.NewDefaultClient(60 * time.Second)
}

// NewClient selects a provider client for a (type, url) repository
// declaration. Selection is by URL domain: github.com and bitbucket.org get
// their REST-backed variants, mbed hosts get the HTML-scraping Mercurial
// variant, anything else of type git gets the generic git client.
// Unsupported provider/type pairs fail fast with UnsupportedProviderError.
func NewClient(repoType, repoURL string, opts Options) (Client, error) {
	host := hostOf(repoURL)

	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		return newGithubClient(repoURL, opts)
	case host == "bitbucket.org":
		return newBitbucketClient(repoURL, opts)
	case isMbedHost(host):
		return newMbedClient(repoURL, opts)
	case strings.EqualFold(repoType, TypeGit):
		return newGitClient(repoURL, opts), nil
	default:
		// Raw svn and raw hg outside the mbed host are explicitly
		// unimplemented.
		return nil, &UnsupportedProviderError{RepoType: repoType, URL: repoURL}
	}
}

func hostOf(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func isMbedHost(host string) bool {
	return host == "developer.mbed.org" || host == "os.mbed.com" || host == "mbed.org"
}
