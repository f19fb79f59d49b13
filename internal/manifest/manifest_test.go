package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		confURL string
		want    Dialect
	}{
		{
			name:    "arduino properties",
			confURL: "https://raw.githubusercontent.com/a/b/master/library.properties",
			want:    DialectArduino,
		},
		{
			name:    "yotta module",
			confURL: "https://raw.githubusercontent.com/a/b/master/module.json",
			want:    DialectYotta,
		},
		{
			name:    "native json",
			confURL: "https://example.com/libs/library.json",
			want:    DialectPlatformIO,
		},
		{
			name:    "query string ignored",
			confURL: "https://example.com/library.json?ref=main",
			want:    DialectPlatformIO,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectDialect(tt.confURL))
		})
	}
}

func TestParse_PlatformIODialect(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
		"name": "Foo",
		"keywords": "led,blink",
		"description": "x",
		"repository": {"type": "git", "url": "https://github.com/a/b"}
	}`)

	resolved, err := Parse("https://example.com/library.json", doc)
	require.NoError(t, err)

	cfg := resolved.Config
	assert.Equal(t, "Foo", cfg.Name)
	assert.Equal(t, []string{"led", "blink"}, cfg.Keywords)
	require.NotNil(t, cfg.Repository)
	assert.Equal(t, "git", cfg.Repository.Type)
	assert.Equal(t, "https://github.com/a/b", cfg.Repository.URL)
	assert.Empty(t, cfg.Version, "version is synthesized later from VCS metadata")
}

func TestParse_MultiWordKeywords(t *testing.T) {
	t.Parallel()

	// Keyword strings split on commas only; a multi-word keyword stays one
	// keyword.
	doc := []byte(`{
		"name": "Foo",
		"keywords": "signal processing, dsp",
		"description": "x",
		"repository": {"type": "git", "url": "https://github.com/a/b"}
	}`)

	resolved, err := Parse("https://example.com/library.json", doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"signal processing", "dsp"}, resolved.Config.Keywords)
}

func TestParse_RepositoryDerivedFromRawGithubURL(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"name": "Foo", "keywords": ["led"], "description": "x"}`)

	resolved, err := Parse(
		"https://raw.githubusercontent.com/owner/repo/develop/library.json", doc)
	require.NoError(t, err)

	repo := resolved.Config.Repository
	require.NotNil(t, repo)
	assert.Equal(t, "git", repo.Type)
	assert.Equal(t, "https://github.com/owner/repo", repo.URL)
	assert.Equal(t, "develop", repo.Branch)
}

func TestParse_ArduinoDialect(t *testing.T) {
	t.Parallel()

	doc := []byte(`name=FooSensor
version=1.2.0
author=Jane Roe <jane@example.com>
maintainer=John Doe <john@example.com>
sentence=Reads a sensor.
paragraph=Supports many boards.
category=Sensors
url=https://example.com/foosensor
architectures=avr,esp8266
`)

	resolved, err := Parse(
		"https://raw.githubusercontent.com/acme/foosensor/master/library.properties", doc)
	require.NoError(t, err)

	cfg := resolved.Config
	assert.Equal(t, "FooSensor", cfg.Name)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "Reads a sensor. Supports many boards.", cfg.Description)
	assert.Equal(t, []string{"arduino"}, cfg.Frameworks)
	assert.Equal(t, []string{"atmelavr", "espressif8266"}, cfg.Platforms)
	assert.Equal(t, []string{"sensors"}, cfg.Keywords)

	require.Len(t, cfg.Authors, 2)
	assert.Equal(t, "Jane Roe", cfg.Authors[0].Name)
	assert.Equal(t, "jane@example.com", cfg.Authors[0].Email)
	assert.False(t, cfg.Authors[0].Maintainer)
	assert.Equal(t, "John Doe", cfg.Authors[1].Name)
	assert.True(t, cfg.Authors[1].Maintainer)
}

func TestParse_YottaDialect(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
		"name": "uvisor-lib",
		"version": "2.0.0",
		"description": "mbed uVisor",
		"keywords": ["mbed", "security"],
		"author": "Milosch Meriac <milosch@example.com>",
		"homepage": "https://example.com",
		"licenses": [{"url": "https://spdx.org/licenses/Apache-2.0", "type": "Apache-2.0"}],
		"dependencies": {"mbed-drivers": "~0.11.0"},
		"repository": {"url": "https://github.com/ARMmbed/uvisor-lib", "type": "git"}
	}`)

	resolved, err := Parse("https://example.com/module.json", doc)
	require.NoError(t, err)

	cfg := resolved.Config
	assert.Equal(t, DialectYotta, resolved.Dialect)
	assert.Equal(t, []string{"mbed"}, cfg.Frameworks)
	assert.Equal(t, []string{Wildcard}, cfg.Platforms)
	assert.Equal(t, "Apache-2.0", cfg.License)
	require.Len(t, cfg.Authors, 1)
	assert.Equal(t, "Milosch Meriac", cfg.Authors[0].Name)
	assert.True(t, cfg.Authors[0].Maintainer)
	require.Len(t, cfg.Dependencies, 1)
	assert.Equal(t, "mbed-drivers", cfg.Dependencies[0].Name)
	assert.Equal(t, "~0.11.0", cfg.Dependencies[0].Version)
}

func TestParse_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing description",
			doc:  `{"name": "Foo", "keywords": ["led"]}`,
		},
		{
			name: "dependencies wrong shape",
			doc:  `{"name": "Foo", "keywords": ["led"], "description": "x", "dependencies": "Bar"}`,
		},
		{
			name: "no repository and no authors",
			doc:  `{"name": "Foo", "keywords": ["led"], "description": "x"}`,
		},
		{
			name: "author without name",
			doc:  `{"name": "Foo", "keywords": ["led"], "description": "x", "authors": [{"email": "a@b.c"}]}`,
		},
		{
			name: "self-hosted without downloadUrl",
			doc:  `{"name": "Foo", "keywords": ["led"], "description": "x", "authors": [{"name": "A"}], "version": "1.0"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse("https://example.com/library.json", []byte(tt.doc))

			var invalidErr *InvalidManifestError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

func TestParse_SelfHosted(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
		"name": "Foo", "keywords": ["led"], "description": "x",
		"authors": [{"name": "A", "email": "a@b.c"}],
		"version": "1.0.0",
		"downloadUrl": "https://example.com/foo-1.0.0.tar.gz"
	}`)

	resolved, err := Parse("https://example.com/library.json", doc)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/foo-1.0.0.tar.gz", resolved.Config.DownloadURL)
}

func TestParse_IncludeMountVsList(t *testing.T) {
	t.Parallel()

	listDoc := []byte(`{"name": "Foo", "keywords": ["led"], "description": "x",
		"authors": [{"name": "A"}], "version": "1", "downloadUrl": "u",
		"include": ["src/*", "LICENSE"], "exclude": "tests"}`)
	mountDoc := []byte(`{"name": "Foo", "keywords": ["led"], "description": "x",
		"authors": [{"name": "A"}], "version": "1", "downloadUrl": "u",
		"include": "LibFoo"}`)

	listCfg, err := Parse("https://example.com/library.json", listDoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/*", "LICENSE"}, listCfg.Config.Include)
	assert.Empty(t, listCfg.Config.IncludeMount)
	assert.Equal(t, []string{"tests"}, listCfg.Config.Exclude)

	mountCfg, err := Parse("https://example.com/library.json", mountDoc)
	require.NoError(t, err)
	assert.Equal(t, "LibFoo", mountCfg.Config.IncludeMount)
	assert.Empty(t, mountCfg.Config.Include)
}

func TestConfigHash(t *testing.T) {
	t.Parallel()

	doc := `{"name": "Foo", "keywords": ["led"], "description": "x",
		"repository": {"type": "git", "url": "https://github.com/a/b"}}`

	first, err := Parse("https://example.com/library.json", []byte(doc))
	require.NoError(t, err)
	second, err := Parse("https://example.com/library.json", []byte(doc))
	require.NoError(t, err)

	// Stable for identical documents.
	assert.Equal(t, first.Config.Hash(), second.Config.Hash())

	// Any field change moves the hash.
	changed, err := Parse("https://example.com/library.json",
		[]byte(`{"name": "Foo", "keywords": ["led"], "description": "y",
			"repository": {"type": "git", "url": "https://github.com/a/b"}}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.Config.Hash(), changed.Config.Hash())

	// The synthesized version participates in the hash.
	withVersion := *first.Config
	withVersion.Version = "abc123"
	assert.NotEqual(t, first.Config.Hash(), withVersion.Hash())
}

func TestFlattenTree(t *testing.T) {
	t.Parallel()

	flat := FlattenTree(map[string]any{
		"homepage": "https://example.com",
		"repository": map[string]any{
			"type": "git",
			"url":  "https://github.com/a/b",
		},
		"keywords": []any{"led", "blink"},
	})

	assert.Equal(t, "https://github.com/a/b", flat["repository.url"])
	assert.Equal(t, "git", flat["repository.type"])
	assert.Equal(t, "https://example.com", flat["homepage"])
	assert.Equal(t, "led, blink", flat["keywords"])
}
