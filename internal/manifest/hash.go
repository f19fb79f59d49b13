package manifest

import (
	"crypto/sha1" // #nosec G505 -- change-detection fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash returns the SHA-1 content hash of the normalized configuration. The
// flattened key paths are sorted so the hash is stable across map ordering
// and across dialects that produce the same canonical record.
func (c *Config) Hash() string {
	tree := make(map[string]any, len(c.Raw)+1)
	for k, v := range c.Raw {
		tree[k] = v
	}
	// The synthesized version participates in change detection even when the
	// manifest itself omits one.
	tree["version"] = c.Version

	lines := FlattenTree(tree)
	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha1.New() // #nosec G401
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, lines[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FlattenTree flattens a manifest tree into dotted key paths
// ("repository.url", "homepage", ...). List values are serialized to a
// comma-joined string form.
func FlattenTree(tree map[string]any) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", tree)
	return flat
}

func flattenInto(flat map[string]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flattenInto(flat, path, item)
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		flat[prefix] = strings.Join(parts, ", ")
	default:
		if prefix != "" {
			flat[prefix] = fmt.Sprintf("%v", v)
		}
	}
}
