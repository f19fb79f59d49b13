package manifest

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// arduinoPlatformByArchitecture is the fixed mapping from Arduino
// `architectures` values to registry platform names.
var arduinoPlatformByArchitecture = map[string]string{
	"avr":     "atmelavr",
	"sam":     "atmelsam",
	"samd":    "atmelsam",
	"esp8266": "espressif8266",
	"esp32":   "espressif32",
	"stm32":   "ststm32",
	"nrf52":   "nordicnrf52",
	"*":       Wildcard,
}

var rawGithubRe = regexp.MustCompile(
	`^https?://raw\.githubusercontent\.com/([^/]+)/([^/]+)/([^/]+)/`)

// RepoPath returns the manifest's path inside its repository when the
// manifest URL implies one (GitHub raw URLs); empty otherwise. Commit
// lookups use it so nested manifests track their own subdirectory.
func RepoPath(confURL string) string {
	if m := rawGithubRe.FindStringSubmatch(confURL); m != nil {
		return strings.TrimPrefix(confURL, m[0])
	}
	return ""
}

// cleanTree trims all string values in the manifest tree recursively.
func cleanTree(data map[string]any) map[string]any {
	for key, value := range data {
		data[key] = cleanValue(value)
	}
	return data
}

func cleanValue(value any) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return cleanTree(v)
	case []any:
		for i, item := range v {
			v[i] = cleanValue(item)
		}
		return v
	default:
		return value
	}
}

// stringList accepts either a list or a delimited string and returns the
// trimmed, non-empty elements.
func stringList(value any, seps string) []string {
	var items []string
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case []string:
		items = v
	case string:
		items = strings.FieldsFunc(v, func(r rune) bool {
			return strings.ContainsRune(seps, r)
		})
	}

	var result []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func stringValue(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	if v, ok := raw[key].(float64); ok {
		s := fmt.Sprintf("%g", v)
		return s
	}
	return ""
}

var personRe = regexp.MustCompile(`^([^<(]+?)(?:\s*<([^>]*)>)?(?:\s*\(([^)]*)\))?$`)

// parsePerson decodes a "Name <email> (url)" style person string.
func parsePerson(s string, maintainer bool) Author {
	m := personRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Author{Name: strings.TrimSpace(s), Maintainer: maintainer}
	}
	return Author{
		Name:       strings.TrimSpace(m[1]),
		Email:      strings.TrimSpace(m[2]),
		URL:        strings.TrimSpace(m[3]),
		Maintainer: maintainer,
	}
}

func authorFromMap(m map[string]any, maintainer bool) Author {
	a := Author{
		Name:       stringValue(m, "name"),
		Email:      stringValue(m, "email"),
		URL:        stringValue(m, "url"),
		Maintainer: maintainer,
	}
	if v, ok := m["maintainer"].(bool); ok {
		a.Maintainer = v
	}
	return a
}

// parseAuthors re-encodes the various author forms (single map, list of maps,
// person strings) as canonical Author entries.
func parseAuthors(value any, maintainer bool) []Author {
	var authors []Author
	switch v := value.(type) {
	case map[string]any:
		authors = append(authors, authorFromMap(v, maintainer))
	case []any:
		for _, item := range v {
			switch entry := item.(type) {
			case map[string]any:
				authors = append(authors, authorFromMap(entry, maintainer))
			case string:
				authors = append(authors, parsePerson(entry, maintainer))
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			authors = append(authors, parsePerson(part, maintainer))
		}
	}
	return authors
}

func parseDependencies(value any) []Dependency {
	var deps []Dependency
	switch v := value.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			version, _ := v[name].(string)
			deps = append(deps, Dependency{Name: name, Version: version})
		}
	case []any:
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				deps = append(deps, Dependency{Name: entry})
			case map[string]any:
				deps = append(deps, Dependency{
					Name:    stringValue(entry, "name"),
					Version: stringValue(entry, "version"),
				})
			}
		}
	}
	return deps
}

// parseRepository derives the repository block from an explicit manifest
// declaration, falling back to the manifest URL itself when it is hosted on
// a GitHub raw URL (which implies the library's repository).
func parseRepository(raw map[string]any, confURL string) *Repository {
	if block, ok := raw["repository"].(map[string]any); ok {
		repo := &Repository{
			Type:   strings.ToLower(stringValue(block, "type")),
			URL:    stringValue(block, "url"),
			Branch: stringValue(block, "branch"),
		}
		if repo.URL != "" {
			return repo
		}
	}

	if m := rawGithubRe.FindStringSubmatch(confURL); m != nil {
		return &Repository{
			Type:   "git",
			URL:    fmt.Sprintf("https://github.com/%s/%s", m[1], m[2]),
			Branch: m[3],
		}
	}

	return nil
}

func parseIncludeExclude(cfg *Config, raw map[string]any) {
	include := raw["include"]
	exclude := raw["exclude"]
	// PlatformIO v2 nests filtering rules under "export".
	if export, ok := raw["export"].(map[string]any); ok {
		if v, ok := export["include"]; ok {
			include = v
		}
		if v, ok := export["exclude"]; ok {
			exclude = v
		}
	}

	if s, ok := include.(string); ok {
		cfg.IncludeMount = strings.TrimSpace(s)
	} else {
		cfg.Include = stringList(include, ",")
	}
	cfg.Exclude = stringList(exclude, ",")
}

func normalize(raw map[string]any, confURL string, dialect Dialect) (*Config, error) {
	raw = cleanTree(raw)

	switch dialect {
	case DialectArduino:
		return normalizeArduino(raw, confURL)
	case DialectYotta:
		return normalizeYotta(raw, confURL)
	default:
		return normalizePlatformIO(raw, confURL)
	}
}

func normalizePlatformIO(raw map[string]any, confURL string) (*Config, error) {
	cfg := &Config{
		Name:        stringValue(raw, "name"),
		Description: stringValue(raw, "description"),
		Version:     stringValue(raw, "version"),
		Keywords:    stringList(raw["keywords"], ","),
		Frameworks:  stringList(raw["frameworks"], ", "),
		Platforms:   stringList(raw["platforms"], ", "),
		DownloadURL: stringValue(raw, "downloadUrl"),
		Homepage:    stringValue(raw, "homepage"),
		License:     stringValue(raw, "license"),
		Repository:  parseRepository(raw, confURL),
		Raw:         raw,
	}

	if v, ok := raw["authors"]; ok {
		cfg.Authors = parseAuthors(v, false)
	} else if v, ok := raw["author"]; ok {
		cfg.Authors = parseAuthors(v, false)
	}

	cfg.Dependencies = parseDependencies(raw["dependencies"])
	cfg.ExampleGlobs = stringList(raw["examples"], ",")
	parseIncludeExclude(cfg, raw)

	return cfg, nil
}

func normalizeArduino(raw map[string]any, confURL string) (*Config, error) {
	description := stringValue(raw, "sentence")
	if paragraph := stringValue(raw, "paragraph"); paragraph != "" && paragraph != description {
		description = strings.TrimSpace(description + " " + paragraph)
	}

	cfg := &Config{
		Name:        stringValue(raw, "name"),
		Description: description,
		Version:     stringValue(raw, "version"),
		Keywords:    stringList(strings.ToLower(stringValue(raw, "category")), ","),
		Frameworks:  []string{"arduino"},
		Homepage:    stringValue(raw, "url"),
		Repository:  parseRepository(raw, confURL),
		Raw:         raw,
	}

	for _, arch := range stringList(raw["architectures"], ",") {
		platform, known := arduinoPlatformByArchitecture[strings.ToLower(arch)]
		if !known {
			continue
		}
		cfg.Platforms = append(cfg.Platforms, platform)
	}

	cfg.Authors = append(cfg.Authors, parseAuthors(raw["author"], false)...)
	for _, m := range parseAuthors(raw["maintainer"], true) {
		if !containsAuthor(cfg.Authors, m.Name) {
			cfg.Authors = append(cfg.Authors, m)
			continue
		}
		for i := range cfg.Authors {
			if strings.EqualFold(cfg.Authors[i].Name, m.Name) {
				cfg.Authors[i].Maintainer = true
			}
		}
	}

	cfg.Dependencies = parseDependencies(raw["depends"])

	return cfg, nil
}

func normalizeYotta(raw map[string]any, confURL string) (*Config, error) {
	cfg := &Config{
		Name:        stringValue(raw, "name"),
		Description: stringValue(raw, "description"),
		Version:     stringValue(raw, "version"),
		Keywords:    stringList(raw["keywords"], ","),
		Frameworks:  []string{"mbed"},
		Platforms:   []string{Wildcard},
		Homepage:    stringValue(raw, "homepage"),
		License:     stringValue(raw, "license"),
		Repository:  parseRepository(raw, confURL),
		Raw:         raw,
	}

	if cfg.License == "" {
		if licenses, ok := raw["licenses"].([]any); ok && len(licenses) > 0 {
			if entry, ok := licenses[0].(map[string]any); ok {
				cfg.License = stringValue(entry, "type")
			}
		}
	}

	if v, ok := raw["author"]; ok {
		cfg.Authors = parseAuthors(v, true)
	}

	cfg.Dependencies = parseDependencies(raw["dependencies"])
	parseIncludeExclude(cfg, raw)

	return cfg, nil
}

func containsAuthor(authors []Author, name string) bool {
	for _, a := range authors {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// mbedHost matches repositories hosted on the mbed Mercurial service.
func mbedHost(repoURL string) bool {
	u, err := url.Parse(repoURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "developer.mbed.org" || host == "os.mbed.com" || host == "mbed.org"
}
