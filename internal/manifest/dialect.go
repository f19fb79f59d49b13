package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/viper"
)

// DetectDialect picks the manifest dialect by inspecting the URL's file name:
// *.properties is the Arduino dialect, module.json the Yotta dialect and
// everything else the native PlatformIO JSON dialect.
func DetectDialect(confURL string) Dialect {
	name := confURL
	if u, err := url.Parse(confURL); err == nil && u.Path != "" {
		name = u.Path
	}
	base := strings.ToLower(path.Base(name))

	switch {
	case strings.HasSuffix(base, ".properties"):
		return DialectArduino
	case base == "module.json":
		return DialectYotta
	default:
		return DialectPlatformIO
	}
}

func parseDialect(dialect Dialect, data []byte) (map[string]any, error) {
	switch dialect {
	case DialectArduino:
		return parseProperties(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON manifest: %w", err)
	}
	return raw, nil
}

// parseProperties decodes a Java-properties-style key=value document
// (Arduino library.properties) into a flat string map.
func parseProperties(data []byte) (map[string]any, error) {
	v := viper.New()
	v.SetConfigType("properties")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to decode properties manifest: %w", err)
	}

	raw := make(map[string]any, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		raw[key] = v.GetString(key)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty properties manifest")
	}
	return raw, nil
}
