package manifest

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// validate enforces the manifest contract: name, keywords and description
// are mandatory; a declared repository must be of a supported provider
// shape; repository-less manifests need explicit authors and either a
// git/svn repository or a self-hosted version+downloadUrl pair.
func validate(cfg *Config, confURL string) error {
	err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.Name, validation.Required),
		validation.Field(&cfg.Description, validation.Required),
		validation.Field(&cfg.Keywords, validation.Required),
	)
	if err != nil {
		return invalidManifest(confURL,
			"the 'name', 'keywords' and 'description' fields are required", err)
	}

	if deps, declared := cfg.Raw["dependencies"]; declared {
		switch deps.(type) {
		case map[string]any, []any:
		default:
			return invalidManifest(confURL, "the 'dependencies' field must be a list or a mapping", nil)
		}
	}

	// Hosted on a provider with full metadata support: nothing else needed.
	if repo := cfg.Repository; repo != nil {
		if (repo.Type == "git" && strings.Contains(strings.ToLower(repo.URL), "github.com")) ||
			(repo.Type == "hg" && mbedHost(repo.URL)) ||
			(repo.Type == "git" && strings.Contains(strings.ToLower(repo.URL), "bitbucket.org")) {
			return nil
		}
	}

	if len(cfg.Authors) == 0 {
		return invalidManifest(confURL, "the 'authors' field is required", nil)
	}
	for _, author := range cfg.Authors {
		if author.Name == "" {
			return invalidManifest(confURL, "each author must have a 'name' property", nil)
		}
	}

	if repo := cfg.Repository; repo != nil && (repo.Type == "git" || repo.Type == "svn") {
		return nil
	}

	// Self-hosted archive case.
	if cfg.Version == "" {
		return invalidManifest(confURL, "the 'version' field is required", nil)
	}
	if cfg.DownloadURL == "" {
		return invalidManifest(confURL, "the 'downloadUrl' field is required", nil)
	}

	return nil
}
